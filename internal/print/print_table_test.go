package print

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bgunnarsson/roomexport/internal/db"
)

func TestRenderTable(t *testing.T) {
	rows := &db.Rows{
		Columns: []db.Column{{Name: "room_id"}, {Name: "room_name"}, {Name: "average_age"}},
		Data: []db.Row{
			{db.Int(1), db.String("Room A"), db.Float(21.5)},
			{db.Int(12), db.String("Room #12"), db.Null()},
		},
	}

	var buf bytes.Buffer
	RenderTable(&buf, rows, Options{})

	want := `+---------+-----------+-------------+
| room_id | room_name | average_age |
+=========+===========+=============+
|       1 | Room A    |        21.5 |
|      12 | Room #12  |        NULL |
+---------+-----------+-------------+
(2 rows)
`
	assert.Equal(t, want, buf.String())
}

func TestRenderTableTruncates(t *testing.T) {
	rows := &db.Rows{
		Columns: []db.Column{{Name: "sexes"}},
		Data:    []db.Row{{db.String("F, F, F, M, M, M")}},
	}

	var buf bytes.Buffer
	RenderTable(&buf, rows, Options{MaxWidth: 10})
	assert.Contains(t, buf.String(), "| F, F, F... |")
	assert.Contains(t, buf.String(), "| sexes      |")
	assert.Contains(t, buf.String(), "(1 row)")
}

func TestRenderTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	RenderTable(&buf, &db.Rows{}, Options{})
	assert.Equal(t, "(no columns)\n", buf.String())

	buf.Reset()
	RenderTable(&buf, &db.Rows{Columns: []db.Column{{Name: "room_id"}}}, Options{})
	assert.Contains(t, buf.String(), "(0 rows)")
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "NULL", formatCell(db.Null()))
	assert.Equal(t, `a\nb`, formatCell(db.String("a\nb")))
	assert.Equal(t, "a?b", formatCell(db.String("a\x01b")))
}
