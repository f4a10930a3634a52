package syncer_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/deckcfg/internal/syncer"
	"github.com/roach88/deckcfg/internal/testutil"
)

// recorder is a SaveFunc that records payloads and can fail on demand.
type recorder struct {
	mu    sync.Mutex
	saved []any
	fail  []error
}

func (r *recorder) save(_ context.Context, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.fail) > 0 {
		err := r.fail[0]
		r.fail = r.fail[1:]
		return err
	}
	r.saved = append(r.saved, payload)
	return nil
}

func (r *recorder) payloads() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.saved...)
}

func newScheduler(t *testing.T, opts ...syncer.Option) (*syncer.Scheduler, *testutil.ManualClock, *recorder) {
	t.Helper()
	clock := testutil.NewManualClock()
	rec := &recorder{}
	s := syncer.New(append([]syncer.Option{syncer.WithClock(clock)}, opts...)...)
	s.Register("config", rec.save)
	return s, clock, rec
}

func TestSchedule_CollapsesBurst(t *testing.T) {
	s, clock, rec := newScheduler(t)

	for _, p := range []string{"v1", "v2", "v3"} {
		require.NoError(t, s.Schedule("config", p))
		clock.Advance(100 * time.Millisecond)
	}
	assert.Empty(t, rec.payloads())

	clock.Advance(syncer.DefaultWindow)

	assert.Equal(t, []any{"v3"}, rec.payloads())
	assert.False(t, s.Status("config").Pending)
}

func TestSchedule_QuietWindowRestarts(t *testing.T) {
	s, clock, rec := newScheduler(t)

	require.NoError(t, s.Schedule("config", "v1"))
	clock.Advance(400 * time.Millisecond)
	require.NoError(t, s.Schedule("config", "v2"))
	clock.Advance(400 * time.Millisecond)
	assert.Empty(t, rec.payloads(), "second edit restarted the window")

	clock.Advance(100 * time.Millisecond)
	assert.Equal(t, []any{"v2"}, rec.payloads())
}

func TestSchedule_CustomWindow(t *testing.T) {
	s, clock, rec := newScheduler(t, syncer.WithWindow(2*time.Second))
	assert.Equal(t, 2*time.Second, s.Window())

	require.NoError(t, s.Schedule("config", "v1"))
	clock.Advance(time.Second)
	assert.Empty(t, rec.payloads())
	clock.Advance(time.Second)
	assert.Equal(t, []any{"v1"}, rec.payloads())
}

func TestFlushNow_BypassesWindow(t *testing.T) {
	s, clock, rec := newScheduler(t)

	require.NoError(t, s.Schedule("config", "v1"))
	require.NoError(t, s.FlushNow(context.Background(), "config"))
	assert.Equal(t, []any{"v1"}, rec.payloads())
	assert.False(t, s.Status("config").Armed)

	clock.Advance(time.Second)
	assert.Equal(t, []any{"v1"}, rec.payloads(), "debounce timer was cancelled")
}

func TestFlushNow_NothingPending(t *testing.T) {
	s, _, rec := newScheduler(t)

	require.NoError(t, s.FlushNow(context.Background(), "config"))
	assert.Empty(t, rec.payloads())
}

func TestSaveNow(t *testing.T) {
	s, _, rec := newScheduler(t)

	require.NoError(t, s.Schedule("config", "v1"))
	require.NoError(t, s.SaveNow(context.Background(), "config", "v2"))

	assert.Equal(t, []any{"v2"}, rec.payloads())
}

func TestUnknownStream(t *testing.T) {
	s, _, _ := newScheduler(t)

	assert.ErrorIs(t, s.Schedule("nope", 1), syncer.ErrUnknownStream)
	assert.ErrorIs(t, s.FlushNow(context.Background(), "nope"), syncer.ErrUnknownStream)
	assert.ErrorIs(t, s.SaveNow(context.Background(), "nope", 1), syncer.ErrUnknownStream)
}

func TestFailure_LatestStateWins(t *testing.T) {
	var outcomes []syncer.Outcome
	s, clock, rec := newScheduler(t, syncer.WithOutcome(func(o syncer.Outcome) {
		outcomes = append(outcomes, o)
	}))
	boom := errors.New("connection refused")
	rec.fail = []error{boom}

	require.NoError(t, s.Schedule("config", "v1"))
	clock.Advance(syncer.DefaultWindow)

	require.Len(t, outcomes, 1)
	assert.ErrorIs(t, outcomes[0].Err, boom)
	assert.Equal(t, "v1", outcomes[0].Payload)
	st := s.Status("config")
	assert.True(t, st.Pending, "failed payload stays pending")
	assert.False(t, st.Armed, "no retry loop")
	assert.Equal(t, 1, st.Failures)

	require.NoError(t, s.Schedule("config", "v2"))
	clock.Advance(syncer.DefaultWindow)

	assert.Equal(t, []any{"v2"}, rec.payloads())
	require.Len(t, outcomes, 2)
	assert.NoError(t, outcomes[1].Err)
}

func TestFailure_RetriedByNextFlush(t *testing.T) {
	s, clock, rec := newScheduler(t)
	rec.fail = []error{errors.New("timeout")}

	require.NoError(t, s.Schedule("config", "v1"))
	clock.Advance(syncer.DefaultWindow)
	assert.Empty(t, rec.payloads())

	require.NoError(t, s.FlushNow(context.Background(), "config"))
	assert.Equal(t, []any{"v1"}, rec.payloads())
}

func TestStreamsAreIndependent(t *testing.T) {
	s, clock, cfg := newScheduler(t)
	binds := &recorder{}
	s.Register("binds", binds.save)

	require.NoError(t, s.Schedule("config", "c1"))
	clock.Advance(300 * time.Millisecond)
	require.NoError(t, s.Schedule("binds", "b1"))
	clock.Advance(200 * time.Millisecond)

	assert.Equal(t, []any{"c1"}, cfg.payloads())
	assert.Empty(t, binds.payloads())

	clock.Advance(300 * time.Millisecond)
	assert.Equal(t, []any{"b1"}, binds.payloads())
}

func TestAtMostOneSaveInFlight(t *testing.T) {
	backend := testutil.NewMemoryBackend()
	gate := backend.Block("config")
	s := syncer.New(syncer.WithClock(testutil.NewManualClock()))
	s.Register("config", func(ctx context.Context, payload any) error {
		return backend.SaveConfiguration(ctx, []byte(payload.(string)))
	})

	ctx := context.Background()
	require.NoError(t, s.Schedule("config", "v1"))

	first := make(chan error, 1)
	go func() { first <- s.FlushNow(ctx, "config") }()
	<-gate.Entered()
	assert.True(t, s.Status("config").InFlight)

	require.NoError(t, s.Schedule("config", "v2"))
	second := make(chan error, 1)
	go func() { second <- s.FlushNow(ctx, "config") }()

	select {
	case <-gate.Entered():
		t.Fatal("second save started while the first was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	gate.Release()
	require.NoError(t, <-first)
	require.NoError(t, <-second)

	assert.Equal(t, 1, backend.MaxInFlight("config"))
	assert.Equal(t, [][]byte{[]byte("v1"), []byte("v2")}, backend.Saves("config"))
}

func TestClose_FlushesPending(t *testing.T) {
	s, clock, rec := newScheduler(t)

	require.NoError(t, s.Schedule("config", "v1"))
	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, []any{"v1"}, rec.payloads())

	// After close, schedules are recorded but no timer is armed.
	require.NoError(t, s.Schedule("config", "v2"))
	clock.Advance(time.Second)
	assert.Equal(t, []any{"v1"}, rec.payloads())
	assert.True(t, s.Status("config").Pending)
}

func TestClose_ReportsFailures(t *testing.T) {
	s, _, rec := newScheduler(t)
	rec.fail = []error{errors.New("disk full")}

	require.NoError(t, s.Schedule("config", "v1"))
	err := s.Close(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
