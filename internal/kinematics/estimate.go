package kinematics

import (
	"errors"
	"fmt"
)

// ErrNonFinite is returned when an input or derived value is NaN or infinite.
var ErrNonFinite = errors.New("non-finite value")

const (
	// DefaultLeverArm is the shoulder-to-racquet-centre distance in metres
	// used when no player height is configured.
	DefaultLeverArm = 0.65

	// armToHeightRatio approximates arm length as a fraction of body height.
	armToHeightRatio = 0.39

	mpsToKMPH = 3.6
)

// SwingSpeed converts an angular rate in rad/s to the linear speed in m/s of a
// point leverArm metres from the axis of rotation.
func SwingSpeed(rate Vec3, leverArm float64) (float64, error) {
	if !rate.IsFinite() || !isFinite(leverArm) {
		return 0, fmt.Errorf("swing speed: %w", ErrNonFinite)
	}
	speed := rate.Norm() * leverArm
	if !isFinite(speed) {
		return 0, fmt.Errorf("swing speed overflow: %w", ErrNonFinite)
	}
	return speed, nil
}

// AccelerationMagnitude returns |a| in the same units as a (g for device
// motion readings).
func AccelerationMagnitude(a Vec3) float64 {
	return a.Norm()
}

// ArmLengthFromHeight estimates the lever arm in metres from a player height
// in centimetres.
func ArmLengthFromHeight(heightCM float64) float64 {
	return heightCM * armToHeightRatio / 100
}

// Restitution holds the fraction of racquet-head speed transferred to the
// ball for each stroke type.
type Restitution struct {
	Forehand float64 `json:"forehand"`
	Backhand float64 `json:"backhand"`
	Unknown  float64 `json:"unknown"`
}

func DefaultRestitution() Restitution {
	return Restitution{Forehand: 0.80, Backhand: 0.80, Unknown: 0.75}
}

// Coefficient returns the coefficient for s.
func (r Restitution) Coefficient(s Stroke) float64 {
	switch s {
	case StrokeForehand:
		return r.Forehand
	case StrokeBackhand:
		return r.Backhand
	default:
		return r.Unknown
	}
}

// BallSpeed estimates the ball speed in km/h leaving the racquet for a swing
// speed in m/s.
func (r Restitution) BallSpeed(swingSpeedMPS float64, s Stroke) float64 {
	return swingSpeedMPS * r.Coefficient(s) * mpsToKMPH
}

// Validate requires every coefficient to lie in (0, 1].
func (r Restitution) Validate() error {
	for _, c := range []struct {
		name string
		v    float64
	}{{"forehand", r.Forehand}, {"backhand", r.Backhand}, {"unknown", r.Unknown}} {
		if !(c.v > 0 && c.v <= 1) {
			return fmt.Errorf("%s restitution must be in (0, 1], got %v", c.name, c.v)
		}
	}
	return nil
}
