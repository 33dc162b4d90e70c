package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // register driver

	"github.com/bgunnarsson/roomexport/internal/db"
)

type Dialect struct{}

func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty sqlite path")
	}

	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// One connection: an in-memory database only lives as long as it.
	sqldb.SetMaxOpenConns(1)
	sqldb.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return sqldb, nil
}

func (Dialect) Name() string { return "sqlite" }

func (Dialect) Placeholder(int) string { return "?" }

// Foreign keys are off by default and the pragma is per connection.
func (Dialect) Session() []string {
	return []string{`PRAGMA foreign_keys = ON;`}
}

func (Dialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS room (
	id   INTEGER PRIMARY KEY,
	name TEXT NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS student (
	id       INTEGER PRIMARY KEY,
	birthday TEXT NOT NULL,
	name     TEXT NOT NULL,
	room     INTEGER NOT NULL REFERENCES room (id),
	sex      TEXT NOT NULL CHECK (sex IN ('M', 'F'))
);`,
	}
}

func (Dialect) CreateIndex(ix db.Index) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s);",
		quoteIdent(ix.Name), quoteIdent(ix.Table), quoteIdent(ix.Column))
}

// very basic identifier quoting – enough for sqlite
func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
