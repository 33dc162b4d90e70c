package export

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/bgunnarsson/roomexport/internal/db"
	"github.com/bgunnarsson/roomexport/internal/errs"
)

var (
	errElementName = errors.New("not a valid XML element name")
	errCharData    = errors.New("value holds characters XML 1.0 cannot represent")
)

// XML writes a <data> root holding <columns><column>name</column>...</columns>
// and <rows><row><name>value</name>...</row>...</rows>. Every value is text.
type XML struct{}

func (XML) Format() string { return "xml" }

func (x XML) Encode(w io.Writer, rows *db.Rows) error {
	if err := checkRows(x.Format(), rows); err != nil {
		return err
	}
	// Check every name and value before anything is written.
	for _, c := range rows.Columns {
		if !validElementName(c.Name) {
			return &errs.SerializationError{Format: x.Format(), Column: c.Name, Err: errElementName}
		}
	}
	for _, row := range rows.Data {
		for i, v := range row {
			if !validCharData(v.String()) {
				return &errs.SerializationError{Format: x.Format(), Column: rows.Columns[i].Name, Err: errCharData}
			}
		}
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	var (
		data    = xml.StartElement{Name: xml.Name{Local: "data"}}
		columns = xml.StartElement{Name: xml.Name{Local: "columns"}}
		column  = xml.StartElement{Name: xml.Name{Local: "column"}}
		rowsEl  = xml.StartElement{Name: xml.Name{Local: "rows"}}
		rowEl   = xml.StartElement{Name: xml.Name{Local: "row"}}
	)

	tokens := []xml.Token{data, columns}
	for _, c := range rows.Columns {
		tokens = append(tokens, column, xml.CharData(c.Name), column.End())
	}
	tokens = append(tokens, columns.End(), rowsEl)
	for _, row := range rows.Data {
		tokens = append(tokens, rowEl)
		for i, v := range row {
			field := xml.StartElement{Name: xml.Name{Local: rows.Columns[i].Name}}
			tokens = append(tokens, field, xml.CharData(v.String()), field.End())
		}
		tokens = append(tokens, rowEl.End())
	}
	tokens = append(tokens, rowsEl.End(), data.End())

	for _, t := range tokens {
		if err := enc.EncodeToken(t); err != nil {
			return &errs.SerializationError{Format: x.Format(), Err: err}
		}
	}
	if err := enc.Flush(); err != nil {
		return &errs.SerializationError{Format: x.Format(), Err: err}
	}
	buf.WriteByte('\n')

	if _, err := buf.WriteTo(w); err != nil {
		return &errs.SerializationError{Format: x.Format(), Err: err}
	}
	return nil
}

// validElementName accepts XML 1.0 names without a colon, since a colon would
// bind a namespace prefix. The name must also parse with encoding/xml, whose
// name tables are narrower than the fifth edition's.
func validElementName(name string) bool {
	if name == "" || !utf8.ValidString(name) {
		return false
	}
	for i, r := range name {
		if !isNameStartChar(r) && (i == 0 || !isNameChar(r)) {
			return false
		}
	}
	_, err := xml.NewDecoder(strings.NewReader("<" + name + "/>")).Token()
	return err == nil
}

func isNameStartChar(r rune) bool {
	switch {
	case r == '_', 'A' <= r && r <= 'Z', 'a' <= r && r <= 'z':
		return true
	case 0xC0 <= r && r <= 0xD6, 0xD8 <= r && r <= 0xF6, 0xF8 <= r && r <= 0x2FF,
		0x370 <= r && r <= 0x37D, 0x37F <= r && r <= 0x1FFF, 0x200C <= r && r <= 0x200D,
		0x2070 <= r && r <= 0x218F, 0x2C00 <= r && r <= 0x2FEF, 0x3001 <= r && r <= 0xD7FF,
		0xF900 <= r && r <= 0xFDCF, 0xFDF0 <= r && r <= 0xFFFD, 0x10000 <= r && r <= 0xEFFFF:
		return true
	}
	return false
}

func isNameChar(r rune) bool {
	switch {
	case isNameStartChar(r), r == '-', r == '.', '0' <= r && r <= '9', r == 0xB7:
		return true
	case 0x300 <= r && r <= 0x36F, 0x203F <= r && r <= 0x2040:
		return true
	}
	return false
}

// validCharData reports whether s is UTF-8 made only of XML 1.0 Chars.
// encoding/xml would otherwise replace the rest with U+FFFD.
func validCharData(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		switch {
		case r == 0x9, r == 0xA, r == 0xD:
		case 0x20 <= r && r <= 0xD7FF, 0xE000 <= r && r <= 0xFFFD, 0x10000 <= r && r <= 0x10FFFF:
		default:
			return false
		}
	}
	return true
}

type xmlDoc struct {
	XMLName xml.Name `xml:"data"`
	Columns []string `xml:"columns>column"`
	Rows    []xmlRow `xml:"rows>row"`
}

type xmlRow struct {
	Fields []xmlField `xml:",any"`
}

type xmlField struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

// Decode reads the values back as strings, in column order.
func (XML) Decode(r io.Reader) (*db.Rows, error) {
	var doc xmlDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode xml result: %w", err)
	}

	out := &db.Rows{Columns: make([]db.Column, len(doc.Columns)), Data: make([]db.Row, 0, len(doc.Rows))}
	for i, name := range doc.Columns {
		out.Columns[i] = db.Column{Name: name}
	}

	for i, xr := range doc.Rows {
		fields := make(map[string]string, len(xr.Fields))
		for _, f := range xr.Fields {
			fields[f.XMLName.Local] = f.Value
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
			row[c] = db.String(v)
		}
		out.Data = append(out.Data, row)
	}
	return out, nil
}
