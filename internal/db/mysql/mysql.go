package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/bgunnarsson/roomexport/internal/config"
	"github.com/bgunnarsson/roomexport/internal/db"
)

type Dialect struct{}

// DSN renders cfg in go-sql-driver format. ParseTime is forced so DATE
// columns scan as time.Time instead of []byte.
func DSN(cfg config.DatabaseConfig) (string, error) {
	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = cfg.Addr()
	mc.DBName = cfg.Database
	mc.ParseTime = true

	if cfg.Params != "" {
		extra, err := url.ParseQuery(cfg.Params)
		if err != nil {
			return "", fmt.Errorf("parse DB_PARAMS: %w", err)
		}
		mc.Params = make(map[string]string, len(extra))
		for k := range extra {
			mc.Params[k] = extra.Get(k)
		}
	}
	return mc.FormatDSN(), nil
}

func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	sqldb, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)
	sqldb.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		return nil, err
	}
	return sqldb, nil
}

// --- db.Dialect implementation ---

func (Dialect) Name() string { return "mysql" }

func (Dialect) Placeholder(int) string { return "?" }

func (Dialect) Session() []string { return nil }

func (Dialect) Schema() []string {
	return []string{
		"CREATE TABLE IF NOT EXISTS room (\n" +
			"  id   INT NOT NULL PRIMARY KEY,\n" +
			"  name VARCHAR(255) NOT NULL\n" +
			") ENGINE=InnoDB",
		"CREATE TABLE IF NOT EXISTS student (\n" +
			"  id       INT NOT NULL PRIMARY KEY,\n" +
			"  birthday DATE NOT NULL,\n" +
			"  name     VARCHAR(255) NOT NULL,\n" +
			"  room     INT NOT NULL,\n" +
			"  sex      CHAR(1) NOT NULL,\n" +
			"  CONSTRAINT fk_student_room FOREIGN KEY (room) REFERENCES room (id),\n" +
			"  CONSTRAINT chk_student_sex CHECK (sex IN ('M', 'F'))\n" +
			") ENGINE=InnoDB",
	}
}

// MySQL has no CREATE INDEX IF NOT EXISTS; the Store probes first.
func (Dialect) CreateIndex(ix db.Index) string {
	return fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
		quoteIdent(ix.Name), quoteIdent(ix.Table), quoteIdent(ix.Column))
}

func (Dialect) IndexExists() string {
	return `
SELECT COUNT(*)
FROM information_schema.statistics
WHERE table_schema = DATABASE()
  AND table_name = ?
  AND index_name = ?;
`
}

// ConvertValue turns remaining []byte values (DECIMAL, TEXT under some
// collations) into strings; MySQL returns TEXT/VARCHAR as []byte.
func (Dialect) ConvertValue(v any, dbType string) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func quoteIdent(id string) string {
	out := make([]byte, 0, len(id)+2)
	out = append(out, '`')
	for i := 0; i < len(id); i++ {
		if id[i] == '`' {
			out = append(out, '`')
		}
		out = append(out, id[i])
	}
	return string(append(out, '`'))
}
