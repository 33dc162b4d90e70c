package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressRedrawsPerPercent(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf)

	for i := 0; i <= 1000; i++ {
		p.OnProgress("students", i, 1000)
	}

	out := buf.String()
	assert.Equal(t, 101, strings.Count(out, "\r"))
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.Contains(t, out, "students")
	assert.Contains(t, out, "100%")
}

func TestProgressEmptyStep(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf)

	p.OnProgress("rooms", 0, 0)
	assert.Contains(t, buf.String(), "100%")
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestProgressError(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf)

	p.OnProgress("rooms", 1, 4)
	p.OnError("rooms", errors.New("duplicate key"))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[1], "rooms: duplicate key")
}
