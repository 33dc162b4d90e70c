package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bgunnarsson/roomexport/internal/errs"
)

func setupEnv(t *testing.T) (dir string) {
	t.Helper()
	dir = t.TempDir()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DATABASE", filepath.Join(dir, "school.db"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("EXPORT_DIR", filepath.Join(dir, "results"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "rooms.json"),
		[]byte(`[{"id": 1, "name": "Room A"}]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "students.json"),
		[]byte(`[{"id": 1, "birthday": "2000-01-01", "name": "Alice", "room": 1, "sex": "F"}]`), 0o644))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestRootCommand(t *testing.T) {
	dir := setupEnv(t)

	_, err := execute(t,
		filepath.Join(dir, "students.json"), filepath.Join(dir, "rooms.json"), "xml",
		"--env-file", filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	for i := 1; i <= 4; i++ {
		assert.FileExists(t, filepath.Join(dir, "results", fmt.Sprintf("query%d_result.xml", i)))
	}

	out, err := execute(t, "show", filepath.Join(dir, "results", "query1_result.xml"))
	require.NoError(t, err)
	assert.Contains(t, out, "| room_id | room_name | students_quantity |")
	assert.Contains(t, out, "Room A")
	assert.Contains(t, out, "(1 row)")
}

func TestRootCommandResultsDirFlag(t *testing.T) {
	dir := setupEnv(t)
	results := filepath.Join(dir, "elsewhere")

	_, err := execute(t,
		filepath.Join(dir, "students.json"), filepath.Join(dir, "rooms.json"), "json",
		"--env-file", "", "--results-dir", results)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(results, "query1_result.json"))
}

func TestRootCommandErrors(t *testing.T) {
	dir := setupEnv(t)
	students := filepath.Join(dir, "students.json")
	rooms := filepath.Join(dir, "rooms.json")

	tests := []struct {
		name string
		args []string
		env  map[string]string
		code int
	}{
		{name: "missing args", args: []string{students}, code: errs.ExitFailure},
		{name: "bad format", args: []string{students, rooms, "csv"}, code: errs.ExitFailure},
		{name: "bad config", args: []string{students, rooms, "json"}, env: map[string]string{"DB_DRIVER": "oracle"}, code: errs.ExitFailure},
		{name: "missing source", args: []string{filepath.Join(dir, "nope.json"), rooms, "json"}, code: errs.ExitIngestion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := execute(t, append(tt.args, "--env-file", "")...)
			require.Error(t, err)
			assert.Equal(t, tt.code, errs.ExitCode(err))
		})
	}
}

func TestShowUnknownExtension(t *testing.T) {
	_, err := execute(t, "show", "result.csv")
	assert.ErrorContains(t, err, `unknown format "csv"`)
}
