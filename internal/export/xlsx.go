package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/bgunnarsson/roomexport/internal/db"
	"github.com/bgunnarsson/roomexport/internal/errs"
)

// sheet is the default sheet of a new workbook.
const sheet = "Sheet1"

// XLSX writes one worksheet: a bold header row of column names, then one
// spreadsheet row per result row.
type XLSX struct{}

func (XLSX) Format() string { return "xlsx" }

func (x XLSX) Encode(w io.Writer, rows *db.Rows) error {
	if err := checkRows(x.Format(), rows); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	for c, col := range rows.Columns {
		if err := setCell(f, c+1, 1, col.Name); err != nil {
			return &errs.SerializationError{Format: x.Format(), Column: col.Name, Err: err}
		}
	}
	if len(rows.Columns) > 0 {
		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return &errs.SerializationError{Format: x.Format(), Err: err}
		}
		last, _ := excelize.CoordinatesToCellName(len(rows.Columns), 1)
		if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
			return &errs.SerializationError{Format: x.Format(), Err: err}
		}
	}

	for r, row := range rows.Data {
		for c, v := range row {
			if v.IsNull() {
				continue
			}
			if err := setCell(f, c+1, r+2, v.Interface()); err != nil {
				return &errs.SerializationError{Format: x.Format(), Column: rows.Columns[c].Name, Err: err}
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return &errs.SerializationError{Format: x.Format(), Err: err}
	}
	if _, err := buf.WriteTo(w); err != nil {
		return &errs.SerializationError{Format: x.Format(), Err: err}
	}
	return nil
}

func setCell(f *excelize.File, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, v)
}

// Decode reads the first sheet back. All values come back as strings and
// empty cells as empty strings.
func (XLSX) Decode(r io.Reader) (*db.Rows, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx result: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx result has no sheets")
	}
	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(cells) == 0 {
		return &db.Rows{Data: []db.Row{}}, nil
	}

	out := &db.Rows{Columns: make([]db.Column, len(cells[0])), Data: make([]db.Row, 0, len(cells)-1)}
	for i, name := range cells[0] {
		out.Columns[i] = db.Column{Name: name}
	}
	for _, line := range cells[1:] {
		// GetRows trims trailing empty cells.
		row := make(db.Row, len(out.Columns))
		for c := range row {
			if c < len(line) {
				row[c] = db.String(line[c])
			} else {
				row[c] = db.String("")
			}
		}
		out.Data = append(out.Data, row)
	}
	return out, nil
}
