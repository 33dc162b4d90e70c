package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

const barWidth = 40

// Progress draws one bar per pipeline step on a terminal. It implements
// observe.Observer and is only redrawn when the whole percent changes.
type Progress struct {
	mu sync.Mutex

	out   io.Writer
	bar   progress.Model
	label lipgloss.Style
	fail  lipgloss.Style

	step string
	last int
	open bool
}

func NewProgress(out io.Writer) *Progress {
	r := lipgloss.NewRenderer(out)
	return &Progress{
		out:   out,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth)),
		label: r.NewStyle().Bold(true).Width(12),
		fail:  r.NewStyle().Foreground(lipgloss.Color("9")),
		last:  -1,
	}
}

func (p *Progress) OnProgress(step string, done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if step != p.step {
		p.finishLine()
		p.step, p.last = step, -1
	}

	pct := 1.0
	if total > 0 {
		pct = min(float64(done)/float64(total), 1)
	}
	whole := int(pct * 100)
	if whole == p.last {
		return
	}
	p.last = whole

	fmt.Fprintf(p.out, "\r%s %s", p.label.Render(step), p.bar.ViewAs(pct))
	p.open = true
	if whole == 100 {
		p.finishLine()
	}
}

func (p *Progress) OnError(step string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.finishLine()
	fmt.Fprintln(p.out, p.fail.Render(fmt.Sprintf("✗ %s: %v", step, err)))
}

func (p *Progress) finishLine() {
	if p.open {
		fmt.Fprintln(p.out)
		p.open = false
	}
}
