package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/keboola/go-utils/pkg/orderedmap"

	"github.com/bgunnarsson/roomexport/internal/db"
	"github.com/bgunnarsson/roomexport/internal/errs"
)

// JSON writes {"columns": [...], "rows": [{col: value, ...}, ...]} with row
// keys in column order.
type JSON struct{}

func (JSON) Format() string { return "json" }

type jsonDoc struct {
	Columns []string                 `json:"columns"`
	Rows    []*orderedmap.OrderedMap `json:"rows"`
}

func (j JSON) Encode(w io.Writer, rows *db.Rows) error {
	if err := checkRows(j.Format(), rows); err != nil {
		return err
	}

	doc := jsonDoc{
		Columns: rows.ColumnNames(),
		Rows:    make([]*orderedmap.OrderedMap, 0, len(rows.Data)),
	}
	for _, row := range rows.Data {
		obj := orderedmap.New()
		for c, v := range row {
			val, err := jsonCell(v)
			if err != nil {
				return &errs.SerializationError{Format: j.Format(), Column: rows.Columns[c].Name, Err: err}
			}
			obj.Set(rows.Columns[c].Name, val)
		}
		doc.Rows = append(doc.Rows, obj)
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &errs.SerializationError{Format: j.Format(), Err: err}
	}
	out = append(out, '\n')
	if _, err := w.Write(out); err != nil {
		return &errs.SerializationError{Format: j.Format(), Err: err}
	}
	return nil
}

// jsonFloat keeps a float distinguishable from an int on the way back in.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(float64(f))
	if err != nil {
		return nil, err
	}
	if !bytes.ContainsAny(b, ".eE") {
		b = append(b, '.', '0')
	}
	return b, nil
}

func jsonCell(v db.Value) (any, error) {
	if v.Kind() != db.KindFloat {
		return v.Interface(), nil
	}
	f := v.Float()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("unsupported float value %v", f)
	}
	return jsonFloat(f), nil
}

func (j JSON) Decode(r io.Reader) (*db.Rows, error) {
	var doc struct {
		Columns []string          `json:"columns"`
		Rows    []json.RawMessage `json:"rows"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode json result: %w", err)
	}

	out := &db.Rows{Columns: make([]db.Column, len(doc.Columns)), Data: make([]db.Row, 0, len(doc.Rows))}
	for i, name := range doc.Columns {
		out.Columns[i] = db.Column{Name: name}
	}

	for i, raw := range doc.Rows {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var fields map[string]any
		if err := dec.Decode(&fields); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if len(fields) != len(doc.Columns) {
			return nil, fmt.Errorf("row %d has %d fields, want %d", i, len(fields), len(doc.Columns))
		}

		row := make(db.Row, len(doc.Columns))
		for c, name := range doc.Columns {
			v, ok := fields[name]
			if !ok {
				return nil, fmt.Errorf("row %d: missing column %q", i, name)
			}
			val, err := jsonValue(v)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", i, name, err)
			}
			row[c] = val
		}
		out.Data = append(out.Data, row)
	}
	return out, nil
}

func jsonValue(v any) (db.Value, error) {
	switch x := v.(type) {
	case nil:
		return db.Null(), nil
	case string:
		// Dates are written in DateLayout and read back as dates.
		if len(x) == len(db.DateLayout) {
			if t, err := time.Parse(db.DateLayout, x); err == nil {
				return db.Date(t), nil
			}
		}
		return db.String(x), nil
	case bool:
		return db.String(strconv.FormatBool(x)), nil
	case json.Number:
		if !strings.ContainsAny(x.String(), ".eE") {
			if n, err := x.Int64(); err == nil {
				return db.Int(n), nil
			}
		}
		f, err := x.Float64()
		if err != nil {
			return db.Value{}, err
		}
		return db.Float(f), nil
	default:
		return db.Value{}, fmt.Errorf("unsupported value %T", v)
	}
}
