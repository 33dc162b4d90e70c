package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/azuread"

	"github.com/bgunnarsson/roomexport/internal/config"
	"github.com/bgunnarsson/roomexport/internal/db"
)

type Dialect struct{}

// DSN builds a sqlserver:// URL. Params are passed through, so
// fedauth=ActiveDirectoryDefault and friends work.
func DSN(cfg config.DatabaseConfig) (string, error) {
	q := url.Values{}
	q.Set("database", cfg.Database)
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
		Scheme:   "sqlserver",
		Host:     cfg.Addr(),
		RawQuery: q.Encode(),
	}
	if cfg.Username != "" {
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	}
	return u.String(), nil
}

// Open opens a MSSQL connection.
// If the DSN contains "fedauth=", we use the Azure AD driver (azuresql)
// so things like ActiveDirectoryInteractive / AzCli work.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	driverName := "sqlserver"
	if strings.Contains(strings.ToLower(dsn), "fedauth=") {
		driverName = azuread.DriverName // "azuresql"
	}

	sqldb, err := sql.Open(driverName, dsn)
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

func (Dialect) Name() string { return "mssql" }

func (Dialect) Placeholder(n int) string { return "@p" + strconv.Itoa(n) }

func (Dialect) Session() []string { return nil }

func (Dialect) Schema() []string {
	return []string{
		`IF OBJECT_ID(N'room', N'U') IS NULL
CREATE TABLE room (
    id   INT NOT NULL PRIMARY KEY,
    name NVARCHAR(255) NOT NULL
);`,
		`IF OBJECT_ID(N'student', N'U') IS NULL
CREATE TABLE student (
    id       INT NOT NULL PRIMARY KEY,
    birthday DATE NOT NULL,
    name     NVARCHAR(255) NOT NULL,
    room     INT NOT NULL REFERENCES room (id),
    sex      CHAR(1) NOT NULL CHECK (sex IN ('M', 'F'))
);`,
	}
}

// CreateIndex guards the statement itself; SQL Server has no IF NOT EXISTS
// clause on CREATE INDEX.
func (Dialect) CreateIndex(ix db.Index) string {
	return fmt.Sprintf(`IF NOT EXISTS (SELECT 1 FROM sys.indexes WHERE name = N'%s' AND object_id = OBJECT_ID(N'%s'))
CREATE INDEX %s ON %s (%s);`,
		escapeLiteral(ix.Name), escapeLiteral(ix.Table),
		quoteIdent(ix.Name), quoteIdent(ix.Table), quoteIdent(ix.Column),
	)
}

// ConvertValue keeps binary columns printable.
func (Dialect) ConvertValue(v any, dbType string) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	switch dbType {
	case "uniqueidentifier":
		return formatUniqueIdentifier(b)
	case "decimal", "numeric", "money", "smallmoney":
		return string(b)
	default:
		// NEVER string() binary; it wrecks the output.
		return fmt.Sprintf("0x%x", b)
	}
}

func formatUniqueIdentifier(b []byte) string {
	if len(b) != 16 {
		return fmt.Sprintf("%x", b)
	}

	return fmt.Sprintf("%02x%02x%02x%02x-%02x%02x-%02x%02x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		b[3], b[2], b[1], b[0],
		b[5], b[4],
		b[7], b[6],
		b[8], b[9],
		b[10], b[11], b[12], b[13], b[14], b[15],
	)
}

func quoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
