// Package progress reports load milestones as (description, fraction) pairs.
// A fraction of -1 means the step has no measurable progress.
package progress

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vk/graft/internal/ctxlog"
)

// Indeterminate is the fraction reported by steps whose length is unknown.
const Indeterminate = -1.0

// Milestone descriptions reported by a load, in order.
const (
	AddingDependencies  = "adding dependencies"
	AddingImports       = "adding imports"
	HandlingController  = "handling controller"
	Building            = "building"
	InjectingController = "injecting controller"
	Done                = "done"
)

// Func receives a milestone. Implementations must not block the load.
type Func func(description string, fraction float64)

// Report calls f if it is set.
func (f Func) Report(description string, fraction float64) {
	if f != nil {
		f(description, clamp(fraction))
	}
}

func clamp(f float64) float64 {
	switch {
	case f < -1:
		return -1
	case f > 1:
		return 1
	default:
		return f
	}
}

// Multi fans a milestone out to every non-nil sink in order.
func Multi(sinks ...Func) Func {
	var live []Func
	for _, s := range sinks {
		if s != nil {
			live = append(live, s)
		}
	}
	switch len(live) {
	case 0:
		return nil
	case 1:
		return live[0]
	}
	return func(description string, fraction float64) {
		for _, s := range live {
			s(description, fraction)
		}
	}
}

// LogSink logs every milestone through the context's logger.
func LogSink(ctx context.Context) Func {
	logger := ctxlog.FromContext(ctx)
	return func(description string, fraction float64) {
		if fraction == Indeterminate {
			logger.Log(ctx, levelFor(description), "Load progress.", "step", description)
			return
		}
		logger.Log(ctx, levelFor(description), "Load progress.", "step", description, "fraction", fraction)
	}
}

// Event is one recorded milestone.
type Event struct {
	Description string
	Fraction    float64
}

// Recorder collects milestones; it is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Func returns a sink appending to the recorder.
func (r *Recorder) Func() Func {
	return func(description string, fraction float64) {
		r.mu.Lock()
		r.events = append(r.events, Event{Description: description, Fraction: fraction})
		r.mu.Unlock()
	}
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Descriptions returns the recorded descriptions in order.
func (r *Recorder) Descriptions() []string {
	events := r.Events()
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Description
	}
	return out
}

// levelFor keeps the terminal milestone visible at the default level.
func levelFor(description string) slog.Level {
	if description == Done {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}
