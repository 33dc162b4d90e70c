// Package observe is how pipeline steps report progress and failures
// without reaching for a global logger.
package observe

import (
	"github.com/rs/zerolog"
)

// Observer receives cosmetic notifications. Implementations must not fail
// the step that calls them.
type Observer interface {
	// OnProgress reports done of total units for step. done is monotonic
	// within one step.
	OnProgress(step string, done, total int)
	OnError(step string, err error)
}

type nop struct{}

func (nop) OnProgress(string, int, int) {}
func (nop) OnError(string, error) {}

// Nop discards everything.
var Nop Observer = nop{}

type multi []Observer

// Multi fans every notification out to obs in order. Nil entries are skipped.
func Multi(obs ...Observer) Observer {
	out := make(multi, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

func (m multi) OnProgress(step string, done, total int) {
	for _, o := range m {
		o.OnProgress(step, done, total)
	}
}

func (m multi) OnError(step string, err error) {
	for _, o := range m {
		o.OnError(step, err)
	}
}

type logObserver struct {
	log zerolog.Logger
}

// Log writes progress at debug level (and completion at info) and errors at
// error level.
func Log(log zerolog.Logger) Observer {
	return logObserver{log: log}
}

func (l logObserver) OnProgress(step string, done, total int) {
	ev := l.log.Debug()
	if done == total {
		ev = l.log.Info()
	}
	ev.Str("step", step).Int("done", done).Int("total", total).Msg("progress")
}

func (l logObserver) OnError(step string, err error) {
	l.log.Error().Err(err).Str("step", step).Msg("step failed")
}
