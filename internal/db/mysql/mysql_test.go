package mysql

import (
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bgunnarsson/roomexport/internal/config"
	"github.com/bgunnarsson/roomexport/internal/db"
)

func TestDSN(t *testing.T) {
	dsn, err := DSN(config.DatabaseConfig{
		Username: "app",
		Password: "secret",
		Host:     "127.0.0.1",
		Port:     3306,
		Database: "school",
		Params:   "charset=utf8mb4",
	})
	require.NoError(t, err)

	parsed, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "app", parsed.User)
	assert.Equal(t, "secret", parsed.Passwd)
	assert.Equal(t, "127.0.0.1:3306", parsed.Addr)
	assert.Equal(t, "school", parsed.DBName)
	assert.True(t, parsed.ParseTime)
}

func TestDialect(t *testing.T) {
	d := Dialect{}
	assert.Equal(t, "?", d.Placeholder(3))
	assert.Equal(t, "CREATE INDEX `idx_student_room` ON `student` (`room`)", d.CreateIndex(db.Indexes[2]))
	assert.Equal(t, "`we``ird`", quoteIdent("we`ird"))
	assert.Equal(t, "F, M", d.ConvertValue([]byte("F, M"), "text"))
	assert.Equal(t, int64(1), d.ConvertValue(int64(1), "bigint"))

	var _ db.IndexProber = d
}
