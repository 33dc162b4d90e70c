package observe

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	progress []int
	errs     []error
}

func (r *recorder) OnProgress(_ string, done, _ int) { r.progress = append(r.progress, done) }
func (r *recorder) OnError(_ string, err error) { r.errs = append(r.errs, err) }

func TestMulti(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	o := Multi(a, nil, b, Nop)

	o.OnProgress("rooms", 1, 2)
	o.OnProgress("rooms", 2, 2)
	o.OnError("rooms", errors.New("x"))

	for _, r := range []*recorder{a, b} {
		assert.Equal(t, []int{1, 2}, r.progress)
		require.Len(t, r.errs, 1)
	}
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	o := Log(zerolog.New(&buf).Level(zerolog.InfoLevel))

	o.OnProgress("students", 1, 3)
	assert.Empty(t, buf.String())

	o.OnProgress("students", 3, 3)
	assert.Contains(t, buf.String(), `"step":"students"`)
	assert.Contains(t, buf.String(), `"done":3`)

	buf.Reset()
	o.OnError("query2", errors.New("syntax error"))
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), `"error":"syntax error"`)
}
