// Package pipeline runs the cosmetic "loading" sequence shown before results are released.
// It does no work of its own; it only paces stage events at a fixed cadence.
package pipeline

import (
	"context"
	"sync"
	"time"
)

var DefaultStages = []string{
	"Analyzing body type",
	"Matching styles",
	"Generating color recommendations",
	"Preparing final results",
}

const (
	DefaultInterval = 500 * time.Millisecond
	DefaultSettle   = 400 * time.Millisecond
)

type EventKind string

const (
	StageActive EventKind = "stage.active"
	StageDone   EventKind = "stage.done"
	Completed   EventKind = "completed"
)

type Event struct {
	Kind  EventKind `json:"kind"`
	Stage int       `json:"stage,omitempty"` // 1-based
	Name  string    `json:"name,omitempty"`
	Total int       `json:"total"`
}

type Config struct {
	Interval time.Duration
	Settle   time.Duration
	Stages   []string
}

func DefaultConfig() Config {
	return Config{Interval: DefaultInterval, Settle: DefaultSettle, Stages: DefaultStages}
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.Settle < 0 {
		c.Settle = 0
	}
	if len(c.Stages) == 0 {
		c.Stages = DefaultStages
	}
	return c
}

// Sink receives events on the run's goroutine, in order.
type Sink func(Event)

// Run is the owning handle of one pipeline execution.
type Run struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Start launches the sequence. Each tick marks the previous stage done and the next one
// active; one tick after the last stage is done the run settles and emits Completed.
func Start(ctx context.Context, cfg Config, sink Sink) *Run {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(ctx)
	r := &Run{cancel: cancel, done: make(chan struct{})}
	go r.loop(ctx, cfg, sink)
	return r
}

func (r *Run) loop(ctx context.Context, cfg Config, sink Sink) {
	defer close(r.done)
	defer r.cancel()

	emit := func(ev Event) bool {
		if ctx.Err() != nil {
			return false
		}
		ev.Total = len(cfg.Stages)
		if sink != nil {
			sink(ev)
		}
		return true
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	next := 0
	for {
		select {
		case <-ctx.Done():
			r.setErr(ctx.Err())
			return
		case <-ticker.C:
		}

		if next > 0 {
			if !emit(Event{Kind: StageDone, Stage: next, Name: cfg.Stages[next-1]}) {
				r.setErr(ctx.Err())
				return
			}
		}
		if next < len(cfg.Stages) {
			if !emit(Event{Kind: StageActive, Stage: next + 1, Name: cfg.Stages[next]}) {
				r.setErr(ctx.Err())
				return
			}
			next++
			continue
		}
		break
	}

	ticker.Stop()
	settle := time.NewTimer(cfg.Settle)
	defer settle.Stop()
	select {
	case <-ctx.Done():
		r.setErr(ctx.Err())
		return
	case <-settle.C:
	}
	if !emit(Event{Kind: Completed}) {
		r.setErr(ctx.Err())
	}
}

func (r *Run) setErr(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

// Cancel stops the run. It does not wait for the goroutine; an event already being
// delivered may still finish. Use Wait to block until the run has exited.
func (r *Run) Cancel() { r.cancel() }

func (r *Run) Done() <-chan struct{} { return r.done }

// Wait blocks until the run exits and returns context.Canceled if it was cancelled.
func (r *Run) Wait() error {
	<-r.done
	return r.Err()
}

func (r *Run) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
