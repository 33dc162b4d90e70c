// Package errs holds the error types every pipeline step reports with.
//
// Each type carries enough context (driver, collection/row, query name,
// column, file path) to diagnose a failure from the log alone, and wraps the
// underlying cause so errors.Is / errors.As keep working.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned by every Store call made before Connect
	// succeeded or after Close.
	ErrNotConnected = errors.New("store is not connected")

	// ErrNoResultSet is returned when fetching after a statement that
	// produced no rows (or after the rows were already consumed).
	ErrNoResultSet = errors.New("no pending result set")

	// ErrNoTransaction is returned by Commit/Rollback outside a transaction.
	ErrNoTransaction = errors.New("no transaction in progress")
)

// ConnectionError means the backend could not be reached. Fatal.
type ConnectionError struct {
	Driver string
	Addr   string
	Err    error
}

func (e *ConnectionError) Error() string {
	if e.Addr == "" {
		return fmt.Sprintf("connect %s: %v", e.Driver, e.Err)
	}
	return fmt.Sprintf("connect %s at %s: %v", e.Driver, e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IngestionError reports which collection, and which row in it, failed to
// load or insert. Row is -1 when the collection as a whole failed (e.g. the
// source file could not be read).
type IngestionError struct {
	Collection string
	Row        int
	ID         int
	Err        error
}

func (e *IngestionError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("ingest %s: %v", e.Collection, e.Err)
	}
	return fmt.Sprintf("ingest %s row %d (id=%d): %v", e.Collection, e.Row, e.ID, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// QueryError carries the failing SQL text. Name is filled in when the
// statement is one of the named fixed queries.
type QueryError struct {
	Name string
	SQL  string
	Err  error
}

func (e *QueryError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("query %s: %v\n%s", e.Name, e.Err, e.SQL)
	}
	return fmt.Sprintf("query: %v\n%s", e.Err, e.SQL)
}

func (e *QueryError) Unwrap() error { return e.Err }

// SerializationError means a result could not be represented in a format,
// e.g. a column name that is not a valid XML element name.
type SerializationError struct {
	Format string
	Column string
	Err    error
}

func (e *SerializationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("encode %s: column %q: %v", e.Format, e.Column, e.Err)
	}
	return fmt.Sprintf("encode %s: %v", e.Format, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// ExportError is a file I/O failure while writing a result.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// Exit codes, one per failure kind.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitConnection    = 2
	ExitIngestion     = 3
	ExitQuery         = 4
	ExitSerialization = 5
	ExitExport        = 6
)

// ExitCode maps err to a process exit code. When err joins several step
// failures the earliest pipeline stage wins.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		connErr   *ConnectionError
		ingestErr *IngestionError
		queryErr  *QueryError
		serErr    *SerializationError
		exportErr *ExportError
	)

	switch {
	case errors.As(err, &connErr):
		return ExitConnection
	case errors.As(err, &ingestErr):
		return ExitIngestion
	case errors.As(err, &queryErr):
		return ExitQuery
	case errors.As(err, &serErr):
		return ExitSerialization
	case errors.As(err, &exportErr):
		return ExitExport
	default:
		return ExitFailure
	}
}
