// Package export serializes query results. Every format works on the same
// db.Rows, so adding one means registering a Codec and nothing else.
package export

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/bgunnarsson/roomexport/internal/db"
	"github.com/bgunnarsson/roomexport/internal/errs"
)

type Exporter interface {
	// Format is the format name and the file extension.
	Format() string
	Encode(w io.Writer, rows *db.Rows) error
}

// Decoder reads back what the matching Exporter wrote.
type Decoder interface {
	Decode(r io.Reader) (*db.Rows, error)
}

type Codec interface {
	Exporter
	Decoder
}

var registry = map[string]Codec{}

func register(c Codec) { registry[c.Format()] = c }

func init() {
	register(JSON{})
	register(XML{})
	register(XLSX{})
}

// Lookup returns the codec for format (case-insensitive).
func Lookup(format string) (Codec, error) {
	c, ok := registry[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(Formats(), ", "))
	}
	return c, nil
}

// Formats lists the registered format names, sorted.
func Formats() []string {
	return slices.Sorted(maps.Keys(registry))
}

// Filename is the result file name for query name in format.
func Filename(name, format string) string {
	return name + "_result." + format
}

func checkRows(format string, rows *db.Rows) error {
	if rows == nil {
		return &errs.SerializationError{Format: format, Err: fmt.Errorf("no result")}
	}
	if err := rows.Validate(); err != nil {
		return &errs.SerializationError{Format: format, Err: err}
	}
	return nil
}
