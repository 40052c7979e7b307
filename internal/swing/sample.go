package swing

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/banshee-data/swing.report/internal/kinematics"
)

var (
	// ErrInvalidSample marks a sample that was skipped because it carried
	// non-finite or physically impossible values.
	ErrInvalidSample = errors.New("invalid motion sample")

	// ErrNotConfigured is returned when a Recognizer is used without being
	// built by NewRecognizer.
	ErrNotConfigured = errors.New("swing recognizer not configured")
)

// Attitude is the device orientation in radians.
type Attitude struct {
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
	Yaw   float64 `json:"yaw"`
}

// Sample is one inertial reading.
type Sample struct {
	RotationRate     kinematics.Vec3 `json:"rotation_rate"`     // rad/s
	UserAcceleration kinematics.Vec3 `json:"user_acceleration"` // g, gravity removed
	Attitude         Attitude        `json:"attitude"`
	// Timestamp is the device's own clock. Elapsed-time decisions use the
	// recogniser's clock instead.
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks s against the physical limits in cfg.
func (s Sample) Validate(cfg Config) error {
	if !s.RotationRate.IsFinite() {
		return fmt.Errorf("%w: rotation rate %v", ErrInvalidSample, s.RotationRate)
	}
	if !s.UserAcceleration.IsFinite() {
		return fmt.Errorf("%w: acceleration %v", ErrInvalidSample, s.UserAcceleration)
	}
	a := s.Attitude
	if !finite(a.Pitch) || !finite(a.Roll) || !finite(a.Yaw) {
		return fmt.Errorf("%w: attitude %+v", ErrInvalidSample, a)
	}
	if m := s.UserAcceleration.MaxAbs(); m > cfg.MaxAcceleration {
		return fmt.Errorf("%w: acceleration axis %.2f g beyond %.2f g", ErrInvalidSample, m, cfg.MaxAcceleration)
	}
	if m := s.RotationRate.MaxAbs(); m > cfg.MaxRotationRate {
		return fmt.Errorf("%w: rotation axis %.2f rad/s beyond %.2f rad/s", ErrInvalidSample, m, cfg.MaxRotationRate)
	}
	if math.Abs(a.Pitch) > math.Pi/2 || math.Abs(a.Roll) > math.Pi || math.Abs(a.Yaw) > math.Pi {
		return fmt.Errorf("%w: attitude out of range %+v", ErrInvalidSample, a)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
