// Package queries holds the four fixed aggregation queries, one SQL file per
// backend.
package queries

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

//go:embed sql
var files embed.FS

type Query struct {
	// Name is also the stem of the result file.
	Name    string
	Title   string
	Columns []string
	SQL     string
}

var catalog = []Query{
	{
		Name:    "query1",
		Title:   "students per room",
		Columns: []string{"room_id", "room_name", "students_quantity"},
	},
	{
		Name:    "query2",
		Title:   "five rooms with the lowest average age",
		Columns: []string{"room_id", "room_name", "students_quantity", "average_age"},
	},
	{
		Name:    "query3",
		Title:   "five rooms with the largest age difference",
		Columns: []string{"room_id", "room_name", "students_quantity", "stud_age_diff"},
	},
	{
		Name:    "query4",
		Title:   "rooms with students of both sexes",
		Columns: []string{"room_id", "room_name", "genders_in_room"},
	},
}

// Dialects lists the backends that have SQL for every query.
func Dialects() []string {
	entries, _ := fs.ReadDir(files, "sql")
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out
}

// For returns the fixed queries, in run order, with the SQL for dialect.
func For(dialect string) ([]Query, error) {
	out := make([]Query, len(catalog))
	for i, q := range catalog {
		b, err := files.ReadFile(path.Join("sql", dialect, q.Name+".sql"))
		if err != nil {
			return nil, fmt.Errorf("no %s SQL for %s: %w", q.Name, dialect, err)
		}
		q.SQL = strings.TrimSpace(string(b))
		q.Columns = append([]string(nil), q.Columns...)
		out[i] = q
	}
	return out, nil
}
