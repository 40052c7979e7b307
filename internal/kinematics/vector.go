// Package kinematics holds the pure estimators that turn raw inertial
// readings into swing speed, acceleration magnitude and ball speed.
package kinematics

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Vec3 is a three-axis reading in the device frame.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Norm returns the Euclidean magnitude of v.
func (v Vec3) Norm() float64 {
	return floats.Norm([]float64{v.X, v.Y, v.Z}, 2)
}

// IsFinite reports whether every component is a finite number.
func (v Vec3) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

// MaxAbs returns the largest absolute component.
func (v Vec3) MaxAbs() float64 {
	return floats.Norm([]float64{v.X, v.Y, v.Z}, math.Inf(1))
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
