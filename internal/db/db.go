package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

type Column struct {
	Name string
	Type string
}

type Row []Value

// Rows is a materialized query result. Column order is the row's field
// order and is kept through every exporter.
type Rows struct {
	Columns []Column
	Data    []Row
}

// ColumnNames returns the column names in result order.
func (r *Rows) ColumnNames() []string {
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}
	return names
}

// Validate checks that column names are non-empty and unique and that every
// row is exactly as wide as the column list.
func (r *Rows) Validate() error {
	seen := make(map[string]struct{}, len(r.Columns))
	for i, c := range r.Columns {
		if c.Name == "" {
			return fmt.Errorf("column %d has no name", i)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("duplicate column %q", c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	for i, row := range r.Data {
		if len(row) != len(r.Columns) {
			return fmt.Errorf("row %d has %d values, want %d", i, len(row), len(r.Columns))
		}
	}
	return nil
}

// Index is a secondary index the fixed queries rely on.
type Index struct {
	Name   string
	Table  string
	Column string
}

const (
	TableRoom    = "room"
	TableStudent = "student"
)

// Indexes are created after ingestion; creation must be idempotent.
var Indexes = []Index{
	{Name: "idx_room_name", Table: TableRoom, Column: "name"},
	{Name: "idx_student_birthday", Table: TableStudent, Column: "birthday"},
	{Name: "idx_student_room", Table: TableStudent, Column: "room"},
}

// Dialect is what the Store and Ingestor need to know about a backend.
type Dialect interface {
	Name() string
	// Placeholder returns the bind marker for the n-th (1-based) argument.
	Placeholder(n int) string
	// Session statements run once on the dedicated connection after it is acquired.
	Session() []string
	// Schema statements create room and student if they are missing.
	Schema() []string
	// CreateIndex returns the statement creating ix.
	CreateIndex(ix Index) string
}

// IndexProber is implemented by dialects whose CREATE INDEX has no
// IF NOT EXISTS form. IndexExists is a query taking (table, index) and
// returning a single count.
type IndexProber interface {
	IndexExists() string
}

// Migrator is implemented by dialects that manage the schema with versioned
// migrations instead of Schema statements.
type Migrator interface {
	Migrate(ctx context.Context, conn *sql.Conn, log zerolog.Logger) error
}

// ValueConverter lets a backend rewrite a scanned driver value before it is
// turned into a Value. dbType is the lower-case database type name.
type ValueConverter interface {
	ConvertValue(v any, dbType string) any
}
