package print

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/bgunnarsson/roomexport/internal/db"
)

type Options struct {
	MaxWidth int // max width for each column, 0 = 40
}

func RenderTable(w io.Writer, rows *db.Rows, opts Options) {
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = 40
	}

	cols := len(rows.Columns)
	if cols == 0 {
		fmt.Fprintln(w, "(no columns)")
		return
	}

	// compute widths and which columns hold only numbers
	widths := make([]int, cols)
	numeric := make([]bool, cols)
	for i, col := range rows.Columns {
		widths[i] = utf8.RuneCountInString(col.Name)
		numeric[i] = len(rows.Data) > 0
	}

	for _, r := range rows.Data {
		for i, cell := range r {
			l := utf8.RuneCountInString(formatCell(cell))
			widths[i] = max(widths[i], min(l, opts.MaxWidth))
			if k := cell.Kind(); k != db.KindInt && k != db.KindFloat && k != db.KindNull {
				numeric[i] = false
			}
		}
	}

	// helpers
	sep := func(ch string) string {
		var b strings.Builder
		b.WriteString("+")
		for i := range widths {
			b.WriteString(strings.Repeat(ch, widths[i]+2))
			b.WriteString("+")
		}
		return b.String()
	}

	writeRow := func(cells []string, align bool) {
		var b strings.Builder
		b.WriteString("|")
		for i, c := range cells {
			cut := truncate(c, widths[i])
			b.WriteString(" ")
			if align && numeric[i] {
				b.WriteString(padLeft(cut, widths[i]))
			} else {
				b.WriteString(padRight(cut, widths[i]))
			}
			b.WriteString(" |")
		}
		fmt.Fprintln(w, b.String())
	}

	// header
	fmt.Fprintln(w, sep("-"))
	writeRow(rows.ColumnNames(), false)
	fmt.Fprintln(w, sep("="))

	// data
	for _, r := range rows.Data {
		cells := make([]string, cols)
		for i, cell := range r {
			cells[i] = formatCell(cell)
		}
		writeRow(cells, true)
	}
	fmt.Fprintln(w, sep("-"))

	if len(rows.Data) == 1 {
		fmt.Fprintln(w, "(1 row)")
	} else {
		fmt.Fprintf(w, "(%d rows)\n", len(rows.Data))
	}
}

func formatCell(v db.Value) string {
	if v.IsNull() {
		return "NULL"
	}
	s := v.String()
	if !isPrintable(s) {
		return strings.Map(func(r rune) rune {
			if r < 32 {
				return '?'
			}
			return r
		}, s)
	}
	// one line per row
	return strings.NewReplacer("\n", `\n`, "\t", " ").Replace(s)
}

func isPrintable(s string) bool {
	for _, r := range s {
		if r < 32 && r != '\n' && r != '\t' {
			return false
		}
	}
	return true
}

func padRight(s string, w int) string {
	if n := utf8.RuneCountInString(s); n < w {
		return s + strings.Repeat(" ", w-n)
	}
	return s
}

func padLeft(s string, w int) string {
	if n := utf8.RuneCountInString(s); n < w {
		return strings.Repeat(" ", w-n) + s
	}
	return s
}

func truncate(s string, w int) string {
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	if w <= 2 {
		return string(r[:w])
	}
	return string(r[:w-3]) + "..."
}
