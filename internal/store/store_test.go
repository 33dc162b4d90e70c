package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bgunnarsson/roomexport/internal/db"
	"github.com/bgunnarsson/roomexport/internal/db/sqlite"
	"github.com/bgunnarsson/roomexport/internal/errs"
)

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "school.db")
	s := New(sqlite.Dialect{}, path, func(ctx context.Context) (*sql.DB, error) {
		return sqlite.Open(ctx, path)
	}, zerolog.Nop())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func connected(t *testing.T) *Store {
	t.Helper()
	s := newSQLiteStore(t)
	require.NoError(t, s.Connect(context.Background()))
	require.NoError(t, s.CreateSchema(context.Background()))
	return s
}

func TestNotConnected(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.Exec(ctx, "SELECT 1"), errs.ErrNotConnected)
	assert.ErrorIs(t, s.Query(ctx, "SELECT 1"), errs.ErrNotConnected)
	_, err := s.FetchAll()
	assert.ErrorIs(t, err, errs.ErrNotConnected)
	assert.ErrorIs(t, s.Begin(ctx), errs.ErrNotConnected)
	assert.ErrorIs(t, s.Commit(), errs.ErrNotConnected)
	assert.ErrorIs(t, s.CreateIndexes(ctx), errs.ErrNotConnected)
	assert.NoError(t, s.Close())
}

func TestConnectFailure(t *testing.T) {
	boom := errors.New("refused")
	s := New(sqlite.Dialect{}, "nowhere", func(context.Context) (*sql.DB, error) {
		return nil, boom
	}, zerolog.Nop())

	err := s.Connect(context.Background())
	var connErr *errs.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "sqlite", connErr.Driver)
	assert.ErrorIs(t, err, boom)
	assert.False(t, s.Connected())
	assert.ErrorIs(t, s.Exec(context.Background(), "SELECT 1"), errs.ErrNotConnected)
}

func TestQueryFetchAll(t *testing.T) {
	s := connected(t)
	ctx := context.Background()

	require.NoError(t, s.Exec(ctx, "INSERT INTO room (id, name) VALUES (?, ?)", 1, "Room A"))
	require.NoError(t, s.Query(ctx, "SELECT id AS room_id, name AS room_name, NULL AS missing FROM room"))

	rows, err := s.FetchAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"room_id", "room_name", "missing"}, rows.ColumnNames())
	require.Len(t, rows.Data, 1)
	assert.Equal(t, db.Int(1), rows.Data[0][0])
	assert.Equal(t, db.String("Room A"), rows.Data[0][1])
	assert.True(t, rows.Data[0][2].IsNull())

	// The result set is consumed.
	_, err = s.FetchAll()
	assert.ErrorIs(t, err, errs.ErrNoResultSet)
}

func TestFetchAllEmpty(t *testing.T) {
	s := connected(t)
	ctx := context.Background()

	require.NoError(t, s.Query(ctx, "SELECT id, name FROM room"))
	rows, err := s.FetchAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, rows.ColumnNames())
	assert.Empty(t, rows.Data)
	assert.NotNil(t, rows.Data)
}

func TestFetchAfterExec(t *testing.T) {
	s := connected(t)
	require.NoError(t, s.Exec(context.Background(), "DELETE FROM room"))

	_, err := s.FetchAll()
	assert.ErrorIs(t, err, errs.ErrNoResultSet)
}

func TestExecError(t *testing.T) {
	s := connected(t)
	err := s.Exec(context.Background(), "INSERT INTO nope VALUES (1)")

	var qe *errs.QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "INSERT INTO nope VALUES (1)", qe.SQL)
}

func TestForeignKeyEnforced(t *testing.T) {
	s := connected(t)
	err := s.Exec(context.Background(),
		"INSERT INTO student (id, birthday, name, room, sex) VALUES (?, ?, ?, ?, ?)",
		1, "2000-01-01", "Alice", 99, "F")

	var qe *errs.QueryError
	assert.ErrorAs(t, err, &qe)
}

func TestTransactions(t *testing.T) {
	s := connected(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.Commit(), errs.ErrNoTransaction)
	assert.ErrorIs(t, s.Rollback(), errs.ErrNoTransaction)

	require.NoError(t, s.Begin(ctx))
	assert.Error(t, s.Begin(ctx))
	require.NoError(t, s.Exec(ctx, "INSERT INTO room (id, name) VALUES (1, 'gone')"))
	require.NoError(t, s.Rollback())

	require.NoError(t, s.Begin(ctx))
	require.NoError(t, s.Exec(ctx, "INSERT INTO room (id, name) VALUES (2, 'kept')"))
	require.NoError(t, s.Commit())

	require.NoError(t, s.Query(ctx, "SELECT id FROM room"))
	rows, err := s.FetchAll()
	require.NoError(t, err)
	require.Len(t, rows.Data, 1)
	assert.Equal(t, db.Int(2), rows.Data[0][0])
}

func TestCloseRollsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "school.db")
	open := func(ctx context.Context) (*sql.DB, error) { return sqlite.Open(ctx, path) }
	ctx := context.Background()

	s := New(sqlite.Dialect{}, path, open, zerolog.Nop())
	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.CreateSchema(ctx))
	require.NoError(t, s.Begin(ctx))
	require.NoError(t, s.Exec(ctx, "INSERT INTO room (id, name) VALUES (1, 'Room A')"))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Connect(ctx), errs.ErrNotConnected)

	again := New(sqlite.Dialect{}, path, open, zerolog.Nop())
	require.NoError(t, again.Connect(ctx))
	defer again.Close()
	require.NoError(t, again.Query(ctx, "SELECT COUNT(*) AS n FROM room"))
	rows, err := again.FetchAll()
	require.NoError(t, err)
	assert.Equal(t, db.Int(0), rows.Data[0][0])
}

func TestCreateIndexesIdempotent(t *testing.T) {
	s := connected(t)
	ctx := context.Background()

	require.NoError(t, s.CreateIndexes(ctx))
	require.NoError(t, s.CreateIndexes(ctx))

	require.NoError(t, s.Query(ctx, "SELECT name FROM sqlite_master WHERE type = 'index' AND name LIKE 'idx_%' ORDER BY name"))
	rows, err := s.FetchAll()
	require.NoError(t, err)
	require.Len(t, rows.Data, 3)
	assert.Equal(t, "idx_room_name", rows.Data[0][0].String())
}
