package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"net/url"
	"strconv"
	"time"

	pgxzero "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jackc/pgx/v5/tracelog"
	tern "github.com/jackc/tern/v2/migrate"
	"github.com/rs/zerolog"

	"github.com/bgunnarsson/roomexport/internal/config"
	"github.com/bgunnarsson/roomexport/internal/db"
)

//go:embed migrations/*.sql
var migrations embed.FS

const versionTable = "schema_version"

type Dialect struct{}

// DSN builds a postgres:// URL from cfg. Params are appended as query
// parameters and may override sslmode.
func DSN(cfg config.DatabaseConfig) (string, error) {
	q := url.Values{}
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	if cfg.Params != "" {
		extra, err := url.ParseQuery(cfg.Params)
		if err != nil {
			return "", fmt.Errorf("parse DB_PARAMS: %w", err)
		}
		for k, vs := range extra {
			q[k] = vs
		}
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.Username, cfg.Password),
		Host:     cfg.Addr(),
		Path:     "/" + cfg.Database,
		RawQuery: q.Encode(),
	}
	return u.String(), nil
}

// Open connects through the pgx stdlib adapter. Statements are traced to
// log when it is at debug level or below.
func Open(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (*sql.DB, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}

	if log.GetLevel() <= zerolog.DebugLevel {
		connConfig.Tracer = &tracelog.TraceLog{
			Logger:   pgxzero.NewLogger(log.With().Str("component", "pgx").Logger()),
			LogLevel: tracelog.LogLevelDebug,
		}
	}

	sqldb := stdlib.OpenDB(*connConfig)

	// The pipeline owns exactly one connection.
	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		return nil, err
	}
	return sqldb, nil
}

func (Dialect) Name() string { return "postgres" }

func (Dialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (Dialect) Session() []string { return nil }

// Schema is nil: tables are managed by the embedded tern migrations.
func (Dialect) Schema() []string { return nil }

func (Dialect) CreateIndex(ix db.Index) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
		pgx.Identifier{ix.Name}.Sanitize(),
		pgx.Identifier{ix.Table}.Sanitize(),
		pgx.Identifier{ix.Column}.Sanitize(),
	)
}

// Migrate runs the embedded migrations on the pgx connection underneath conn.
func (Dialect) Migrate(ctx context.Context, conn *sql.Conn, log zerolog.Logger) error {
	subtree, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("retrieving database migrations subtree: %w", err)
	}

	return conn.Raw(func(driverConn any) error {
		sc, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", driverConn)
		}

		m, err := tern.NewMigrator(ctx, sc.Conn(), versionTable)
		if err != nil {
			return fmt.Errorf("constructing database migrator: %w", err)
		}
		if err := m.LoadMigrations(subtree); err != nil {
			return fmt.Errorf("loading database migrations: %w", err)
		}

		from, err := m.GetCurrentVersion(ctx)
		if err != nil {
			return fmt.Errorf("retrieving current database migration version: %w", err)
		}
		if err := m.Migrate(ctx); err != nil {
			return err
		}

		if from == int32(len(m.Migrations)) {
			log.Info().Msgf("database schema up to date, version %d", len(m.Migrations))
		} else {
			log.Info().Msgf("migrated database schema, from %d to %d", from, len(m.Migrations))
		}
		return nil
	})
}

// ConvertValue turns NUMERIC text (AVG results) into a float so exporters
// emit a JSON number.
func (Dialect) ConvertValue(v any, dbType string) any {
	if dbType != "numeric" {
		return v
	}
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case []byte:
		s = string(x)
	default:
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
