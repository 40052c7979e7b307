// Package swing recognises tennis swings in a stream of inertial samples.
//
// The Recognizer is a synchronous state machine. It performs no I/O and owns
// no goroutines: the caller feeds it samples with ProcessSample and drives
// time-only transitions (settle delay, timeout, end of cooldown) with Tick.
// It must be used from a single goroutine.
package swing

import (
	"fmt"
	"time"

	"github.com/banshee-data/swing.report/internal/kinematics"
	"github.com/banshee-data/swing.report/internal/timeutil"
)

// Diagnostics are the recogniser's running counters.
type Diagnostics struct {
	State          State  `json:"state"`
	InvalidSamples uint64 `json:"invalid_samples"`
	IgnoredSamples uint64 `json:"ignored_samples"`
	Swings         uint64 `json:"swings"`
	Aborted        uint64 `json:"aborted"`
}

// Recognizer turns samples into swing events.
type Recognizer struct {
	cfg   Config
	clock timeutil.Clock
	ready bool

	state       State
	acc         accumulator
	completedAt time.Time

	invalid uint64
	ignored uint64
	swings  uint64
	aborted uint64
}

// NewRecognizer validates cfg and returns an idle recogniser. A nil clock
// uses the real monotonic clock.
func NewRecognizer(cfg Config, clock timeutil.Clock) (*Recognizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recognizer config: %w", err)
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Recognizer{cfg: cfg, clock: clock, ready: true}, nil
}

// Config returns a copy of the configuration in use.
func (r *Recognizer) Config() Config { return r.cfg }

// State returns the current phase.
func (r *Recognizer) State() State { return r.state }

func (r *Recognizer) Diagnostics() Diagnostics {
	return Diagnostics{
		State:          r.state,
		InvalidSamples: r.invalid,
		IgnoredSamples: r.ignored,
		Swings:         r.swings,
		Aborted:        r.aborted,
	}
}

// CooldownRemaining reports how long the recogniser will stay in Completed.
// It is zero in every other state.
func (r *Recognizer) CooldownRemaining() time.Duration {
	if r.state != StateCompleted {
		return 0
	}
	if d := r.cfg.Cooldown - r.clock.Since(r.completedAt); d > 0 {
		return d
	}
	return 0
}

// ProcessSample advances the state machine by one sample. It returns a
// non-nil Event when the sample completes a swing. Invalid samples are
// counted and skipped, leaving the state untouched; the returned error wraps
// ErrInvalidSample.
func (r *Recognizer) ProcessSample(s Sample) (*Event, error) {
	if r == nil || !r.ready {
		return nil, ErrNotConfigured
	}
	if err := s.Validate(r.cfg); err != nil {
		r.invalid++
		return nil, err
	}
	now := r.clock.Now()

	if r.state == StateCompleted {
		if now.Sub(r.completedAt) < r.cfg.Cooldown {
			r.ignored++
			return nil, nil
		}
		r.clear()
	}

	switch r.state {
	case StateIdle:
		r.checkStart(s, now)
		return nil, nil
	case StateDetecting, StateSwinging:
		return r.track(s, now)
	default:
		// Peak and Classifying never outlive a single call.
		r.ignored++
		return nil, nil
	}
}

// Tick applies the transitions that depend only on elapsed time. It returns
// an Event when a swing is forced to complete by the maximum duration.
func (r *Recognizer) Tick() (*Event, error) {
	if r == nil || !r.ready {
		return nil, ErrNotConfigured
	}
	now := r.clock.Now()

	switch r.state {
	case StateDetecting, StateSwinging:
		elapsed := now.Sub(r.acc.start)
		r.settle(elapsed)
		if r.state == StateSwinging && elapsed > r.cfg.MaxDuration {
			return r.finish(now, true), nil
		}
	case StateCompleted:
		if now.Sub(r.completedAt) >= r.cfg.Cooldown {
			r.clear()
		}
	}
	return nil, nil
}

// Reset returns to Idle, discarding any swing in progress without an event
// and cancelling any cooldown. Calling it repeatedly is harmless.
func (r *Recognizer) Reset() {
	if r == nil {
		return
	}
	if r.state.tracking() {
		r.aborted++
	}
	r.clear()
}

func (r *Recognizer) clear() {
	r.state = StateIdle
	r.acc = accumulator{}
	r.completedAt = time.Time{}
}

func (r *Recognizer) checkStart(s Sample, now time.Time) {
	if kinematics.AccelerationMagnitude(s.UserAcceleration) <= r.cfg.AccelerationThreshold {
		return
	}
	if p := s.Attitude.Pitch; p < r.cfg.MinPitch || p > r.cfg.MaxPitch {
		return
	}
	r.acc = accumulator{start: now}
	r.state = StateDetecting
}

func (r *Recognizer) settle(elapsed time.Duration) {
	if r.state == StateDetecting && elapsed >= r.cfg.SettleDelay {
		r.state = StateSwinging
	}
}

func (r *Recognizer) track(s Sample, now time.Time) (*Event, error) {
	elapsed := now.Sub(r.acc.start)
	r.settle(elapsed)

	speed, err := kinematics.SwingSpeed(s.RotationRate, r.cfg.LeverArm)
	if err != nil {
		r.invalid++
		return nil, fmt.Errorf("%w: %v", ErrInvalidSample, err)
	}
	r.acc.update(speed, kinematics.AccelerationMagnitude(s.UserAcceleration), s, r.cfg.RisingTolerance)

	if r.state != StateSwinging {
		return nil, nil
	}
	if elapsed >= r.cfg.MinDuration && speed < r.cfg.PeakDropRatio*r.acc.maxSpeed {
		return r.finish(now, false), nil
	}
	if elapsed > r.cfg.MaxDuration {
		return r.finish(now, true), nil
	}
	return nil, nil
}

// finish runs Peak -> Classifying -> Completed and builds the event.
func (r *Recognizer) finish(now time.Time, timedOut bool) *Event {
	r.state = StatePeak
	acc := r.acc

	r.state = StateClassifying
	stroke := classify(acc, r.cfg)
	ev := &Event{
		Type:             stroke,
		SwingSpeed:       acc.maxSpeed,
		BallSpeed:        r.cfg.Restitution.BallSpeed(acc.maxSpeed, stroke),
		PeakAcceleration: acc.maxAccel,
		Tier:             r.cfg.SpeedTiers.Tier(acc.maxSpeed),
		Duration:         now.Sub(acc.start),
		ZAccelSum:        acc.zAccelSum,
		RotationSum:      acc.rotationSum,
		Samples:          acc.samples,
		TimedOut:         timedOut,
		Timestamp:        now,
	}

	r.state = StateCompleted
	r.completedAt = now
	r.swings++
	return ev
}
