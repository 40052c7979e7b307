package motion

import (
	"time"

	"github.com/banshee-data/swing.report/internal/kinematics"
	"github.com/banshee-data/swing.report/internal/swing"
)

// SyntheticInterval is the sample spacing of generated strokes.
const SyntheticInterval = 10 * time.Millisecond

// SyntheticTrigger returns a sample whose 3 g acceleration arms the
// recogniser.
func SyntheticTrigger() swing.Sample {
	return swing.Sample{UserAcceleration: kinematics.Vec3{X: 3.0}}
}

// SyntheticSwing returns the samples that follow a trigger for one stroke at
// SyntheticInterval spacing. The rotation rate ramps to peakRate (rad/s) over
// 300 ms, holds until 450 ms and falls away so the default recogniser
// completes the swing at 500 ms. direction > 0 yields a forehand, < 0 a
// backhand and 0 an unclassifiable swing.
func SyntheticSwing(peakRate, direction float64) []swing.Sample {
	sign := 0.0
	switch {
	case direction > 0:
		sign = 1
	case direction < 0:
		sign = -1
	}
	at := func(w float64) swing.Sample {
		s := swing.Sample{UserAcceleration: kinematics.Vec3{Z: 0.1 * sign}}
		if sign == 0 {
			s.RotationRate = kinematics.Vec3{X: w}
		} else {
			s.RotationRate = kinematics.Vec3{Z: w * sign}
		}
		return s
	}

	out := make([]swing.Sample, 0, 50)
	for i := 1; i <= 30; i++ {
		out = append(out, at(peakRate*float64(i)/30))
	}
	for i := 31; i <= 45; i++ {
		out = append(out, at(peakRate))
	}
	for _, f := range []float64{0.93, 0.87, 0.8, 0.73, 0.66} {
		out = append(out, at(peakRate*f))
	}
	return out
}

// SyntheticStroke is SyntheticTrigger followed by SyntheticSwing.
func SyntheticStroke(peakRate, direction float64) []swing.Sample {
	return append([]swing.Sample{SyntheticTrigger()}, SyntheticSwing(peakRate, direction)...)
}

// SyntheticLines renders a practice rally as CSV lines: forehand, backhand
// and an unclassifiable swing at increasing pace, each followed by two
// seconds of rest so the recogniser's cooldown expires. Timestamps start at
// start.
func SyntheticLines(start time.Time) []string {
	var samples []swing.Sample
	for _, stroke := range []struct{ rate, dir float64 }{
		{18, 1}, {22, -1}, {15, 0}, {30, 1}, {26, -1},
	} {
		samples = append(samples, SyntheticStroke(stroke.rate, stroke.dir)...)
		for j := 0; j < 200; j++ {
			samples = append(samples, swing.Sample{})
		}
	}

	lines := make([]string, len(samples))
	for i, s := range samples {
		s.Timestamp = start.Add(time.Duration(i) * SyntheticInterval)
		lines[i] = FormatSample(s)
	}
	return lines
}
