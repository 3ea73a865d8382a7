package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) sink(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func fastConfig() Config {
	return Config{Interval: 2 * time.Millisecond, Settle: 3 * time.Millisecond, Stages: DefaultStages}
}

func TestRun_EventSequence(t *testing.T) {
	rec := &recorder{}
	start := time.Now()
	run := Start(context.Background(), fastConfig(), rec.sink)

	require.NoError(t, run.Wait())
	elapsed := time.Since(start)

	type step struct {
		kind  EventKind
		stage int
	}
	want := []step{
		{StageActive, 1},
		{StageDone, 1}, {StageActive, 2},
		{StageDone, 2}, {StageActive, 3},
		{StageDone, 3}, {StageActive, 4},
		{StageDone, 4},
		{Completed, 0},
	}
	got := rec.snapshot()
	require.Len(t, got, len(want))
	for i, w := range want {
		assert.Equal(t, w.kind, got[i].Kind, "event %d", i)
		assert.Equal(t, w.stage, got[i].Stage, "event %d", i)
		assert.Equal(t, 4, got[i].Total)
	}
	assert.Equal(t, "Analyzing body type", got[0].Name)
	assert.Equal(t, "Preparing final results", got[6].Name)

	// five ticks plus the settle delay
	assert.GreaterOrEqual(t, elapsed, 5*2*time.Millisecond+3*time.Millisecond)
}

func TestRun_Cancel(t *testing.T) {
	rec := &recorder{}
	cfg := Config{Interval: 5 * time.Millisecond, Settle: time.Second}
	run := Start(context.Background(), cfg, rec.sink)

	// wait for the first stage, then cancel well before completion
	require.Eventually(t, func() bool { return len(rec.snapshot()) > 0 }, time.Second, time.Millisecond)
	run.Cancel()

	select {
	case <-run.Done():
	case <-time.After(time.Second):
		t.Fatal("run did not stop after Cancel")
	}
	assert.ErrorIs(t, run.Err(), context.Canceled)

	n := len(rec.snapshot())
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, len(rec.snapshot()), "events after cancel")
	for _, ev := range rec.snapshot() {
		assert.NotEqual(t, Completed, ev.Kind)
	}
}

func TestRun_ParentContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	run := Start(ctx, Config{Interval: time.Hour}, nil)
	cancel()

	assert.ErrorIs(t, run.Wait(), context.Canceled)
}

func TestRun_CancelAfterCompletionIsNoop(t *testing.T) {
	run := Start(context.Background(), fastConfig(), nil)
	require.NoError(t, run.Wait())

	run.Cancel()
	assert.NoError(t, run.Err())
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultInterval, cfg.Interval)
	assert.Equal(t, time.Duration(0), cfg.Settle)
	assert.Equal(t, DefaultStages, cfg.Stages)

	assert.Equal(t, DefaultSettle, DefaultConfig().Settle)
}
