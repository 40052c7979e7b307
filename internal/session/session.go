// Package session runs one training session: it owns the swing recogniser,
// feeds it from a bounded sample queue on a single goroutine, and hands each
// finished swing to the configured sinks.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/swing.report/internal/monitoring"
	"github.com/banshee-data/swing.report/internal/swing"
	"github.com/banshee-data/swing.report/internal/timeutil"
)

// ErrAlreadyRun is returned by Run when the session has already been run.
var ErrAlreadyRun = errors.New("session already run")

// Record is a finished swing as stored and published.
type Record struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	swing.Event
}

// Sink receives every finished swing.
type Sink interface {
	HandleSwing(ctx context.Context, rec Record) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, rec Record) error

func (f SinkFunc) HandleSwing(ctx context.Context, rec Record) error { return f(ctx, rec) }

// Options configure a Session.
type Options struct {
	// QueueSize bounds the sample queue. Samples arriving while it is full
	// are dropped and counted.
	QueueSize int
	// TickInterval is how often the recogniser is ticked so that settle and
	// timeout transitions happen without new samples.
	TickInterval time.Duration
	Sinks        []Sink
}

// Snapshot is a consistent view of a running session.
type Snapshot struct {
	ID          string            `json:"id"`
	StartedAt   time.Time         `json:"started_at"`
	Diagnostics swing.Diagnostics `json:"diagnostics"`
	Processed   uint64            `json:"processed_samples"`
	Dropped     uint64            `json:"dropped_samples"`
	Stats       Stats             `json:"stats"`
	LastSwing   *Record           `json:"last_swing,omitempty"`
}

// Session serialises all access to a Recognizer.
type Session struct {
	id      string
	rec     *swing.Recognizer
	clock   timeutil.Clock
	opts    Options
	started time.Time

	queue   chan swing.Sample
	resets  chan chan struct{}
	records chan Record

	dropped *monitoring.QualityCounter
	invalid *monitoring.QualityCounter
	ran     atomic.Bool

	// Owned by the Run goroutine.
	cooldown  timeutil.Timer
	cooldownC <-chan time.Time
	processed uint64
	stats     Stats
	last      *Record

	mu   sync.RWMutex
	snap Snapshot
}

// New creates a session around rec. The recogniser must not be used by
// anything else afterwards.
func New(rec *swing.Recognizer, clock timeutil.Clock, opts Options) (*Session, error) {
	if rec == nil {
		return nil, swing.ErrNotConfigured
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 512
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = 20 * time.Millisecond
	}

	s := &Session{
		id:      uuid.NewString(),
		rec:     rec,
		clock:   clock,
		opts:    opts,
		started: clock.Now(),
		queue:   make(chan swing.Sample, opts.QueueSize),
		resets:  make(chan chan struct{}),
		records: make(chan Record, 32),
		dropped: monitoring.NewQualityCounter("session: samples dropped, queue full", 100),
		invalid: monitoring.NewQualityCounter("session: invalid samples skipped", 100),
	}
	s.publish()
	return s, nil
}

// ID returns the session's UUID.
func (s *Session) ID() string { return s.id }

// StartedAt returns when the session was created.
func (s *Session) StartedAt() time.Time { return s.started }

// Enqueue offers a sample without blocking. It returns false, and counts
// the loss, when the queue is full.
func (s *Session) Enqueue(sample swing.Sample) bool {
	select {
	case s.queue <- sample:
		return true
	default:
		s.dropped.Inc("")
		return false
	}
}

// Reset discards any swing in progress and cancels the cooldown. It waits
// until the Run goroutine has applied it or ctx is done.
func (s *Session) Reset(ctx context.Context) error {
	ack := make(chan struct{})
	select {
	case s.resets <- ack:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the latest published view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.snap
	snap.Dropped = s.dropped.Load()
	return snap
}

// Run processes samples until ctx is done. It returns ctx.Err() on
// cancellation, or an error if the recogniser reports misuse. A session runs
// once; later calls return ErrAlreadyRun.
func (s *Session) Run(ctx context.Context) error {
	if !s.ran.CompareAndSwap(false, true) {
		return ErrAlreadyRun
	}
	ticker := s.clock.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()
	defer s.stopCooldown()

	var wg sync.WaitGroup
	dispatchCtx, cancelDispatch := context.WithCancel(context.WithoutCancel(ctx))
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.dispatch(dispatchCtx)
	}()
	defer func() {
		close(s.records)
		wg.Wait()
		cancelDispatch()
	}()

	for {
		var err error
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sample := <-s.queue:
			err = s.onSample(sample)
		case <-ticker.C():
			err = s.onTick()
		case <-s.cooldownC:
			s.cooldownC = nil
			err = s.onTick()
		case ack := <-s.resets:
			s.onReset()
			s.publish()
			close(ack)
		}
		if err != nil {
			return err
		}
		s.publish()
	}
}

func (s *Session) onSample(sample swing.Sample) error {
	s.processed++
	ev, err := s.rec.ProcessSample(sample)
	return s.handle(ev, err)
}

func (s *Session) onTick() error {
	ev, err := s.rec.Tick()
	return s.handle(ev, err)
}

func (s *Session) onReset() {
	s.rec.Reset()
	s.stopCooldown()
}

func (s *Session) handle(ev *swing.Event, err error) error {
	switch {
	case errors.Is(err, swing.ErrInvalidSample):
		s.invalid.Inc(err.Error())
		return nil
	case err != nil:
		return fmt.Errorf("session %s: %w", s.id, err)
	case ev == nil:
		return nil
	}

	s.armCooldown(s.rec.CooldownRemaining())
	rec := Record{ID: uuid.NewString(), SessionID: s.id, Event: *ev}
	s.stats.Add(*ev)
	s.last = &rec

	select {
	case s.records <- rec:
	default:
		log.Printf("session %s: sink backlog full, swing %s not delivered", s.id, rec.ID)
	}
	return nil
}

// armCooldown schedules the tick that ends the cooldown even when no
// samples arrive.
func (s *Session) armCooldown(d time.Duration) {
	if s.cooldown == nil {
		s.cooldown = s.clock.NewTimer(d)
	} else {
		s.cooldown.Stop()
		s.cooldown.Reset(d)
	}
	s.cooldownC = s.cooldown.C()
}

// stopCooldown cancels a pending cooldown tick. It is safe to call when none
// is pending.
func (s *Session) stopCooldown() {
	if s.cooldown != nil {
		s.cooldown.Stop()
	}
	s.cooldownC = nil
}

func (s *Session) dispatch(ctx context.Context) {
	for rec := range s.records {
		for _, sink := range s.opts.Sinks {
			if err := sink.HandleSwing(ctx, rec); err != nil {
				log.Printf("session %s: sink failed for swing %s: %v", s.id, rec.ID, err)
			}
		}
	}
}

func (s *Session) publish() {
	snap := Snapshot{
		ID:          s.id,
		StartedAt:   s.started,
		Diagnostics: s.rec.Diagnostics(),
		Processed:   s.processed,
		Stats:       s.stats,
	}
	if s.last != nil {
		last := *s.last
		snap.LastSwing = &last
	}
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}
