package session

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/swing.report/internal/kinematics"
	"github.com/banshee-data/swing.report/internal/monitoring"
	"github.com/banshee-data/swing.report/internal/swing"
	"github.com/banshee-data/swing.report/internal/testutil"
	"github.com/banshee-data/swing.report/internal/timeutil"
)

var epoch = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type harness struct {
	t       *testing.T
	clock   *timeutil.MockClock
	session *Session
	cancel  context.CancelFunc
	done    chan error

	mu      sync.Mutex
	records []Record
}

func startSession(t *testing.T, extra ...Sink) *harness {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })

	h := &harness{t: t, clock: timeutil.NewMockClock(epoch), done: make(chan error, 1)}
	rec, err := swing.NewRecognizer(swing.DefaultConfig(), h.clock)
	require.NoError(t, err)

	sinks := append([]Sink{SinkFunc(func(_ context.Context, r Record) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.records = append(h.records, r)
		return nil
	})}, extra...)

	h.session, err = New(rec, h.clock, Options{QueueSize: 16, TickInterval: time.Hour, Sinks: sinks})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- h.session.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-h.done
	})
	return h
}

func (h *harness) waitFor(what string, cond func(Snapshot) bool) {
	h.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond(h.session.Snapshot()) {
			return
		}
		time.Sleep(time.Millisecond)
	}
	h.t.Fatalf("timed out waiting for %s; snapshot %+v", what, h.session.Snapshot())
}

// feed delivers samples one at a time, advancing the clock before each and
// waiting until the session has processed it.
func (h *harness) feed(samples []swing.Sample) {
	h.t.Helper()
	for _, s := range samples {
		h.clock.Advance(testutil.SampleInterval)
		want := h.session.Snapshot().Processed + 1
		require.True(h.t, h.session.Enqueue(s))
		h.waitFor("sample processed", func(s Snapshot) bool { return s.Processed >= want })
	}
}

func (h *harness) recorded() []Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Record(nil), h.records...)
}

func TestNew_RequiresRecognizer(t *testing.T) {
	_, err := New(nil, nil, Options{})
	assert.ErrorIs(t, err, swing.ErrNotConfigured)
}

func TestEnqueue_DropsWhenFull(t *testing.T) {
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	defer func() { monitoring.Logf = original }()

	rec, err := swing.NewRecognizer(swing.DefaultConfig(), nil)
	require.NoError(t, err)
	s, err := New(rec, nil, Options{QueueSize: 2})
	require.NoError(t, err)

	assert.True(t, s.Enqueue(swing.Sample{}))
	assert.True(t, s.Enqueue(swing.Sample{}))
	assert.False(t, s.Enqueue(swing.Sample{}))
	assert.Equal(t, uint64(1), s.Snapshot().Dropped)
}

func TestSession_DeliversSwings(t *testing.T) {
	h := startSession(t)

	h.feed(testutil.Stroke(20, 1))
	h.waitFor("record delivered", func(Snapshot) bool { return len(h.recorded()) == 1 })

	rec := h.recorded()[0]
	assert.Equal(t, h.session.ID(), rec.SessionID)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, kinematics.StrokeForehand, rec.Type)
	assert.InDelta(t, 13.0, rec.SwingSpeed, 1e-9)

	snap := h.session.Snapshot()
	assert.Equal(t, swing.StateCompleted, snap.Diagnostics.State)
	assert.Equal(t, 1, snap.Stats.Total)
	require.NotNil(t, snap.LastSwing)
	assert.Equal(t, rec.ID, snap.LastSwing.ID)
}

func TestSession_CooldownTimerEndsCooldownWithoutSamples(t *testing.T) {
	h := startSession(t)
	h.feed(testutil.Stroke(20, -1))
	h.waitFor("completed", func(s Snapshot) bool { return s.Diagnostics.State == swing.StateCompleted })
	assert.Equal(t, 1, h.clock.PendingTimers())

	h.clock.Advance(1499 * time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, swing.StateCompleted, h.session.Snapshot().Diagnostics.State)

	h.clock.Advance(time.Millisecond)
	h.waitFor("idle after cooldown", func(s Snapshot) bool { return s.Diagnostics.State == swing.StateIdle })
}

func TestSession_ResetMidSwing(t *testing.T) {
	h := startSession(t)
	h.feed(testutil.Stroke(20, 1)[:25])
	require.Equal(t, swing.StateSwinging, h.session.Snapshot().Diagnostics.State)

	require.NoError(t, h.session.Reset(context.Background()))
	require.NoError(t, h.session.Reset(context.Background()))

	snap := h.session.Snapshot()
	assert.Equal(t, swing.StateIdle, snap.Diagnostics.State)
	assert.Equal(t, uint64(1), snap.Diagnostics.Aborted)
	assert.Empty(t, h.recorded())
}

func TestSession_ResetCancelsCooldown(t *testing.T) {
	h := startSession(t)
	h.feed(testutil.Stroke(20, 1))
	h.waitFor("completed", func(s Snapshot) bool { return s.Diagnostics.State == swing.StateCompleted })

	require.NoError(t, h.session.Reset(context.Background()))
	assert.Equal(t, 0, h.clock.PendingTimers())

	// A new stroke is recognised straight away.
	h.feed(testutil.Stroke(20, -1))
	h.waitFor("second record", func(Snapshot) bool { return len(h.recorded()) == 2 })
	assert.Equal(t, kinematics.StrokeBackhand, h.recorded()[1].Type)
}

func TestSession_InvalidSamplesAreSkipped(t *testing.T) {
	h := startSession(t)
	stroke := testutil.Stroke(20, 1)
	glitch := swing.Sample{RotationRate: kinematics.Vec3{Z: math.NaN()}}

	h.feed(stroke[:20])
	h.feed([]swing.Sample{glitch, glitch})
	h.feed(stroke[20:])

	h.waitFor("record delivered", func(Snapshot) bool { return len(h.recorded()) == 1 })
	assert.Equal(t, uint64(2), h.session.Snapshot().Diagnostics.InvalidSamples)
}

func TestSession_FailingSinkDoesNotStopSession(t *testing.T) {
	h := startSession(t, SinkFunc(func(context.Context, Record) error {
		return errors.New("disk full")
	}))

	h.feed(testutil.Stroke(20, 1))
	h.feed(testutil.Rest(160))
	h.feed(testutil.Stroke(20, 1))
	h.waitFor("two records", func(Snapshot) bool { return len(h.recorded()) == 2 })
}

func TestSession_ResetHonoursContext(t *testing.T) {
	rec, err := swing.NewRecognizer(swing.DefaultConfig(), nil)
	require.NoError(t, err)
	s, err := New(rec, nil, Options{})
	require.NoError(t, err)

	// No Run loop, so the request can never be accepted.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Reset(ctx), context.DeadlineExceeded)
}

func TestRun_ReturnsOnCancel(t *testing.T) {
	h := startSession(t)
	h.cancel()
	select {
	case err := <-h.done:
		assert.ErrorIs(t, err, context.Canceled)
		h.done <- err
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestRun_OnlyOnce(t *testing.T) {
	h := startSession(t)
	h.waitFor("first run to start", func(Snapshot) bool { return h.session.ran.Load() })

	assert.ErrorIs(t, h.session.Run(context.Background()), ErrAlreadyRun)

	h.cancel()
	err := <-h.done
	assert.ErrorIs(t, err, context.Canceled)
	h.done <- err

	assert.ErrorIs(t, h.session.Run(context.Background()), ErrAlreadyRun)
}

func TestStats_Add(t *testing.T) {
	var st Stats
	st.Add(swing.Event{Type: kinematics.StrokeForehand, SwingSpeed: 10, BallSpeed: 28.8, PeakAcceleration: 3})
	st.Add(swing.Event{Type: kinematics.StrokeBackhand, SwingSpeed: 20, BallSpeed: 57.6, PeakAcceleration: 5})
	st.Add(swing.Event{Type: kinematics.StrokeUnknown, SwingSpeed: 15, BallSpeed: 40.5, PeakAcceleration: 4})

	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 1, st.Forehand)
	assert.Equal(t, 1, st.Backhand)
	assert.Equal(t, 1, st.Unknown)
	assert.InDelta(t, 15.0, st.AvgSwingSpeed, 1e-9)
	assert.InDelta(t, 20.0, st.MaxSwingSpeed, 1e-9)
	assert.InDelta(t, 42.3, st.AvgBallSpeed, 1e-9)
	assert.InDelta(t, 4.0, st.AvgPeakAcceleration, 1e-9)
}
