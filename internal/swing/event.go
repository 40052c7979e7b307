package swing

import (
	"time"

	"github.com/banshee-data/swing.report/internal/kinematics"
	"github.com/banshee-data/swing.report/internal/units"
)

// Event is a finished, classified swing. The recogniser keeps no reference
// to it once returned.
type Event struct {
	Type             kinematics.Stroke `json:"type"`
	SwingSpeed       float64           `json:"swing_speed_mps"`
	BallSpeed        float64           `json:"ball_speed_kmph"`
	PeakAcceleration float64           `json:"peak_acceleration_g"`
	Tier             units.SpeedTier   `json:"tier"`
	Duration         time.Duration     `json:"duration_ns"`
	ZAccelSum        float64           `json:"z_accel_sum"`
	RotationSum      float64           `json:"rotation_sum"`
	Samples          int               `json:"samples"`
	TimedOut         bool              `json:"timed_out"`
	Timestamp        time.Time         `json:"timestamp"`
}

// accumulator is the working set of one candidate swing.
type accumulator struct {
	start       time.Time
	maxSpeed    float64
	maxAccel    float64
	zAccelSum   float64
	rotationSum float64
	prevSpeed   float64
	samples     int
}

func (a *accumulator) update(speed, accel float64, s Sample, risingTolerance float64) {
	a.samples++
	if speed > a.maxSpeed {
		a.maxSpeed = speed
	}
	if accel > a.maxAccel {
		a.maxAccel = accel
	}
	if speed >= risingTolerance*a.prevSpeed {
		a.zAccelSum += s.UserAcceleration.Z
		a.rotationSum += s.RotationRate.Z
	}
	a.prevSpeed = speed
}

// classify picks the stroke from the gated z-acceleration sum, falling back
// to the z rotation sum. Positive is forehand.
func classify(a accumulator, cfg Config) kinematics.Stroke {
	signal := 0.0
	switch {
	case abs(a.zAccelSum) > cfg.ZAccelerationThreshold:
		signal = a.zAccelSum
	case abs(a.rotationSum) > cfg.RotationThreshold:
		signal = a.rotationSum
	}
	switch {
	case signal > 0:
		return kinematics.StrokeForehand
	case signal < 0:
		return kinematics.StrokeBackhand
	}
	return kinematics.StrokeUnknown
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
