package session

import (
	"github.com/banshee-data/swing.report/internal/kinematics"
	"github.com/banshee-data/swing.report/internal/swing"
)

// Stats are running totals over the swings of one session.
type Stats struct {
	Total               int     `json:"total"`
	Forehand            int     `json:"forehand"`
	Backhand            int     `json:"backhand"`
	Unknown             int     `json:"unknown"`
	AvgSwingSpeed       float64 `json:"avg_swing_speed_mps"`
	MaxSwingSpeed       float64 `json:"max_swing_speed_mps"`
	AvgBallSpeed        float64 `json:"avg_ball_speed_kmph"`
	AvgPeakAcceleration float64 `json:"avg_peak_acceleration_g"`

	sumSwingSpeed float64
	sumBallSpeed  float64
	sumPeakAccel  float64
}

// Add folds ev into the totals.
func (st *Stats) Add(ev swing.Event) {
	st.Total++
	switch ev.Type {
	case kinematics.StrokeForehand:
		st.Forehand++
	case kinematics.StrokeBackhand:
		st.Backhand++
	default:
		st.Unknown++
	}
	st.sumSwingSpeed += ev.SwingSpeed
	st.sumBallSpeed += ev.BallSpeed
	st.sumPeakAccel += ev.PeakAcceleration
	if ev.SwingSpeed > st.MaxSwingSpeed {
		st.MaxSwingSpeed = ev.SwingSpeed
	}

	n := float64(st.Total)
	st.AvgSwingSpeed = st.sumSwingSpeed / n
	st.AvgBallSpeed = st.sumBallSpeed / n
	st.AvgPeakAcceleration = st.sumPeakAccel / n
}
