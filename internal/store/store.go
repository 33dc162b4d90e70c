// Package store wraps one dedicated database connection and the
// execute/fetch/transaction primitives the pipeline is built from.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bgunnarsson/roomexport/internal/db"
	"github.com/bgunnarsson/roomexport/internal/errs"
)

// Opener opens the backend pool. The Store takes a single connection from it.
type Opener func(ctx context.Context) (*sql.DB, error)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is not safe for concurrent use. It is owned by one pipeline run.
type Store struct {
	dialect db.Dialect
	addr    string
	open    Opener
	log     zerolog.Logger

	sqldb   *sql.DB
	conn    *sql.Conn
	tx      *sql.Tx
	pending *sql.Rows
	closed  bool
}

func New(dialect db.Dialect, addr string, open Opener, log zerolog.Logger) *Store {
	return &Store{
		dialect: dialect,
		addr:    addr,
		open:    open,
		log:     log.With().Str("component", "store").Str("driver", dialect.Name()).Logger(),
	}
}

func (s *Store) Dialect() db.Dialect { return s.dialect }

func (s *Store) Connected() bool { return s.conn != nil }

// Connect opens the backend and pins one connection. On failure the Store
// stays unusable and every other call returns errs.ErrNotConnected.
func (s *Store) Connect(ctx context.Context) error {
	if s.conn != nil {
		return nil
	}
	if s.closed {
		return errs.ErrNotConnected
	}

	sqldb, err := s.open(ctx)
	if err != nil {
		return s.connErr(err)
	}

	conn, err := sqldb.Conn(ctx)
	if err != nil {
		_ = sqldb.Close()
		return s.connErr(err)
	}

	for _, stmt := range s.dialect.Session() {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			_ = conn.Close()
			_ = sqldb.Close()
			return s.connErr(fmt.Errorf("session setup %q: %w", stmt, err))
		}
	}

	s.sqldb, s.conn = sqldb, conn
	s.log.Info().Str("addr", s.addr).Msg("connected")
	return nil
}

func (s *Store) connErr(err error) error {
	return &errs.ConnectionError{Driver: s.dialect.Name(), Addr: s.addr, Err: err}
}

func (s *Store) target() (execer, error) {
	if s.conn == nil {
		return nil, errs.ErrNotConnected
	}
	if s.tx != nil {
		return s.tx, nil
	}
	return s.conn, nil
}

func (s *Store) dropPending() {
	if s.pending != nil {
		_ = s.pending.Close()
		s.pending = nil
	}
}

// Exec runs a statement that returns no rows. Nothing is committed.
func (s *Store) Exec(ctx context.Context, query string, args ...any) error {
	t, err := s.target()
	if err != nil {
		return err
	}
	s.dropPending()

	if _, err := t.ExecContext(ctx, query, args...); err != nil {
		return &errs.QueryError{SQL: query, Err: err}
	}
	return nil
}

// Query runs a statement and keeps its result set pending for FetchAll.
func (s *Store) Query(ctx context.Context, query string, args ...any) error {
	t, err := s.target()
	if err != nil {
		return err
	}
	s.dropPending()

	rows, err := t.QueryContext(ctx, query, args...)
	if err != nil {
		return &errs.QueryError{SQL: query, Err: err}
	}
	s.pending = rows
	return nil
}

// FetchAll drains the pending result set. Columns come from the driver's
// result descriptor in order; the result set is consumed afterwards.
func (s *Store) FetchAll() (*db.Rows, error) {
	if s.conn == nil {
		return nil, errs.ErrNotConnected
	}
	if s.pending == nil {
		return nil, errs.ErrNoResultSet
	}
	rows := s.pending
	defer s.dropPending()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return nil, errs.ErrNoResultSet
	}

	out := &db.Rows{Columns: make([]db.Column, len(types)), Data: []db.Row{}}
	for i, ct := range types {
		out.Columns[i] = db.Column{Name: ct.Name(), Type: strings.ToLower(ct.DatabaseTypeName())}
	}

	conv, _ := s.dialect.(db.ValueConverter)
	raw := make([]any, len(types))
	ptrs := make([]any, len(types))
	for i := range raw {
		ptrs[i] = &raw[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(db.Row, len(raw))
		for i, v := range raw {
			if conv != nil {
				v = conv.ConvertValue(v, out.Columns[i].Type)
			}
			row[i] = db.ValueOf(v)
		}
		out.Data = append(out.Data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Begin starts an explicit transaction on the dedicated connection.
func (s *Store) Begin(ctx context.Context) error {
	if s.conn == nil {
		return errs.ErrNotConnected
	}
	if s.tx != nil {
		return errors.New("transaction already in progress")
	}
	s.dropPending()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	s.tx = tx
	return nil
}

// Commit persists everything executed since Begin.
func (s *Store) Commit() error {
	if s.conn == nil {
		return errs.ErrNotConnected
	}
	if s.tx == nil {
		return errs.ErrNoTransaction
	}
	s.dropPending()

	tx := s.tx
	s.tx = nil
	return tx.Commit()
}

// Rollback discards everything executed since Begin.
func (s *Store) Rollback() error {
	if s.conn == nil {
		return errs.ErrNotConnected
	}
	if s.tx == nil {
		return errs.ErrNoTransaction
	}
	s.dropPending()

	tx := s.tx
	s.tx = nil
	return tx.Rollback()
}

// CreateSchema creates room and student if they do not exist yet.
func (s *Store) CreateSchema(ctx context.Context) error {
	if s.conn == nil {
		return errs.ErrNotConnected
	}

	if m, ok := s.dialect.(db.Migrator); ok {
		return m.Migrate(ctx, s.conn, s.log)
	}
	for _, stmt := range s.dialect.Schema() {
		if err := s.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// CreateIndexes creates db.Indexes. Safe to call repeatedly.
func (s *Store) CreateIndexes(ctx context.Context) error {
	t, err := s.target()
	if err != nil {
		return err
	}
	s.dropPending()

	prober, _ := s.dialect.(db.IndexProber)

	var failed []error
	for _, ix := range db.Indexes {
		if prober != nil {
			var n int
			probe := prober.IndexExists()
			if err := t.QueryRowContext(ctx, probe, ix.Table, ix.Name).Scan(&n); err != nil {
				failed = append(failed, &errs.QueryError{Name: ix.Name, SQL: probe, Err: err})
				continue
			}
			if n > 0 {
				s.log.Debug().Str("index", ix.Name).Msg("index exists")
				continue
			}
		}

		stmt := s.dialect.CreateIndex(ix)
		if _, err := t.ExecContext(ctx, stmt); err != nil {
			failed = append(failed, &errs.QueryError{Name: ix.Name, SQL: stmt, Err: err})
			continue
		}
		s.log.Debug().Str("index", ix.Name).Msg("index ready")
	}
	return errors.Join(failed...)
}

// Close releases the pending result set, rolls back an open transaction and
// closes the connection. Closing twice is a no-op.
func (s *Store) Close() error {
	if s.conn == nil {
		s.closed = true
		return nil
	}
	s.dropPending()

	var closeErrs []error
	if s.tx != nil {
		s.log.Warn().Msg("rolling back uncommitted transaction on close")
		if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			closeErrs = append(closeErrs, fmt.Errorf("rollback: %w", err))
		}
		s.tx = nil
	}
	if err := s.conn.Close(); err != nil {
		closeErrs = append(closeErrs, fmt.Errorf("close connection: %w", err))
	}
	if err := s.sqldb.Close(); err != nil {
		closeErrs = append(closeErrs, fmt.Errorf("close pool: %w", err))
	}
	s.conn, s.sqldb = nil, nil
	s.closed = true

	s.log.Info().Msg("closed")
	return errors.Join(closeErrs...)
}
