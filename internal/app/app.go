package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bgunnarsson/roomexport/internal/config"
	"github.com/bgunnarsson/roomexport/internal/db"
	"github.com/bgunnarsson/roomexport/internal/db/mssql"
	"github.com/bgunnarsson/roomexport/internal/db/mysql"
	"github.com/bgunnarsson/roomexport/internal/db/postgres"
	"github.com/bgunnarsson/roomexport/internal/db/sqlite"
	"github.com/bgunnarsson/roomexport/internal/store"
)

type Driver string

const (
	DriverSqlite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMssql    Driver = "mssql"
	DriverMysql    Driver = "mysql"
)

// central factory
func backend(cfg config.DatabaseConfig, log zerolog.Logger) (db.Dialect, store.Opener, error) {
	switch Driver(cfg.Driver) {
	case DriverSqlite:
		return sqlite.Dialect{}, func(ctx context.Context) (*sql.DB, error) {
			return sqlite.Open(ctx, cfg.Database)
		}, nil
	case "", DriverPostgres:
		return postgres.Dialect{}, func(ctx context.Context) (*sql.DB, error) {
			return postgres.Open(ctx, cfg, log)
		}, nil
	case DriverMssql:
		return mssql.Dialect{}, func(ctx context.Context) (*sql.DB, error) {
			return mssql.Open(ctx, cfg)
		}, nil
	case DriverMysql:
		return mysql.Dialect{}, func(ctx context.Context) (*sql.DB, error) {
			return mysql.Open(ctx, cfg)
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}

// NewStore builds an unconnected Store for the configured backend.
func NewStore(cfg config.DatabaseConfig, log zerolog.Logger) (*store.Store, error) {
	dialect, open, err := backend(cfg, log)
	if err != nil {
		return nil, err
	}
	return store.New(dialect, cfg.Addr(), open, log), nil
}
