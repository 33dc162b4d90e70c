package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	cause := errors.New("boom")

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain", cause, ExitFailure},
		{"connection", &ConnectionError{Driver: "postgres", Err: cause}, ExitConnection},
		{"ingestion", &IngestionError{Collection: "student", Row: 3, Err: cause}, ExitIngestion},
		{"query", &QueryError{SQL: "SELECT 1", Err: cause}, ExitQuery},
		{"serialization", &SerializationError{Format: "xml", Err: cause}, ExitSerialization},
		{"export", &ExportError{Path: "out.json", Err: cause}, ExitExport},
		{"wrapped", fmt.Errorf("step: %w", &QueryError{Err: cause}), ExitQuery},
		{
			"joined picks earliest stage",
			errors.Join(&ExportError{Err: cause}, &IngestionError{Row: -1, Err: cause}, &QueryError{Err: cause}),
			ExitIngestion,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCode(tc.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	cause := errors.New("violates foreign key constraint")

	err := &IngestionError{Collection: "student", Row: 4, ID: 17, Err: cause}
	assert.Equal(t, "ingest student row 4 (id=17): violates foreign key constraint", err.Error())
	assert.ErrorIs(t, err, cause)

	whole := &IngestionError{Collection: "room", Row: -1, Err: cause}
	assert.Equal(t, "ingest room: violates foreign key constraint", whole.Error())

	q := &QueryError{Name: "query2", SQL: "SELECT x", Err: cause}
	assert.Contains(t, q.Error(), "query2")
	assert.Contains(t, q.Error(), "SELECT x")

	s := &SerializationError{Format: "xml", Column: "1col", Err: cause}
	assert.Contains(t, s.Error(), `"1col"`)

	c := &ConnectionError{Driver: "postgres", Addr: "localhost:5432", Err: cause}
	assert.Equal(t, "connect postgres at localhost:5432: violates foreign key constraint", c.Error())
}
