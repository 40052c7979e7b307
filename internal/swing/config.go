package swing

import (
	"fmt"
	"math"
	"time"

	"github.com/banshee-data/swing.report/internal/kinematics"
	"github.com/banshee-data/swing.report/internal/units"
)

// Config is the full set of recogniser thresholds. It is copied into the
// Recognizer at construction and never mutated afterwards.
type Config struct {
	// AccelerationThreshold is the user-acceleration magnitude, in g, that
	// arms a candidate swing.
	AccelerationThreshold float64
	// RotationThreshold is the fallback |sum of z rotation rate| needed to
	// classify when the z-acceleration signal is inconclusive.
	RotationThreshold float64
	// ZAccelerationThreshold is the |sum of z acceleration| needed to classify
	// from acceleration alone.
	ZAccelerationThreshold float64

	MinDuration time.Duration
	MaxDuration time.Duration

	// Pitch range, in radians, in which a trigger is accepted.
	MinPitch float64
	MaxPitch float64

	SettleDelay time.Duration
	Cooldown    time.Duration

	// PeakDropRatio is the fraction of the running peak speed below which the
	// swing is considered past its peak.
	PeakDropRatio float64
	// RisingTolerance gates direction accumulation: samples only count while
	// speed >= RisingTolerance * previous speed.
	RisingTolerance float64

	LeverArm    float64
	Restitution kinematics.Restitution
	SpeedTiers  units.TierBoundaries

	// Physical limits beyond which a sample is treated as a sensor glitch.
	MaxAcceleration float64
	MaxRotationRate float64
}

// DefaultConfig returns the hand-tuned defaults.
func DefaultConfig() Config {
	return Config{
		AccelerationThreshold:  2.5,
		RotationThreshold:      2.62,
		ZAccelerationThreshold: 1.0,
		MinDuration:            300 * time.Millisecond,
		MaxDuration:            time.Second,
		MinPitch:               -0.52,
		MaxPitch:               0.52,
		SettleDelay:            100 * time.Millisecond,
		Cooldown:               1500 * time.Millisecond,
		PeakDropRatio:          0.7,
		RisingTolerance:        0.95,
		LeverArm:               kinematics.DefaultLeverArm,
		Restitution:            kinematics.DefaultRestitution(),
		SpeedTiers:             units.DefaultTierBoundaries(),
		MaxAcceleration:        16,
		MaxRotationRate:        35,
	}
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"acceleration_threshold", c.AccelerationThreshold},
		{"rotation_threshold", c.RotationThreshold},
		{"z_acceleration_threshold", c.ZAccelerationThreshold},
		{"lever_arm", c.LeverArm},
		{"max_acceleration", c.MaxAcceleration},
		{"max_rotation_rate", c.MaxRotationRate},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v <= 0 {
			return fmt.Errorf("%s must be a positive number, got %v", f.name, f.v)
		}
	}
	if c.MaxAcceleration <= c.AccelerationThreshold {
		return fmt.Errorf("max_acceleration (%v) must exceed acceleration_threshold (%v)",
			c.MaxAcceleration, c.AccelerationThreshold)
	}
	if c.MinDuration <= 0 || c.MaxDuration <= c.MinDuration {
		return fmt.Errorf("swing duration range invalid: min %v, max %v", c.MinDuration, c.MaxDuration)
	}
	if c.SettleDelay < 0 || c.SettleDelay >= c.MinDuration {
		return fmt.Errorf("settle_delay (%v) must be in [0, min_duration)", c.SettleDelay)
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("cooldown must not be negative, got %v", c.Cooldown)
	}
	if !(c.MinPitch < c.MaxPitch) || c.MinPitch < -math.Pi/2 || c.MaxPitch > math.Pi/2 {
		return fmt.Errorf("pitch range invalid: [%v, %v]", c.MinPitch, c.MaxPitch)
	}
	if !(c.PeakDropRatio > 0 && c.PeakDropRatio < 1) {
		return fmt.Errorf("peak_drop_ratio must be in (0, 1), got %v", c.PeakDropRatio)
	}
	if !(c.RisingTolerance > 0 && c.RisingTolerance <= 1) {
		return fmt.Errorf("rising_tolerance must be in (0, 1], got %v", c.RisingTolerance)
	}
	if err := c.Restitution.Validate(); err != nil {
		return err
	}
	return c.SpeedTiers.Validate()
}
