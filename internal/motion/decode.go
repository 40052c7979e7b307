// Package motion decodes the wrist sensor's line protocol into swing
// samples and drives them from the serial mux into a session.
package motion

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/swing.report/internal/kinematics"
	"github.com/banshee-data/swing.report/internal/swing"
)

// ErrMalformed is returned for lines that are not a well-formed sample.
var ErrMalformed = errors.New("malformed sample line")

const csvFields = 10

// jsonSample is the sensor's JSON output mode.
type jsonSample struct {
	T   float64    `json:"t"`
	Rot [3]float64 `json:"rot"`
	Acc [3]float64 `json:"acc"`
	Att [3]float64 `json:"att"`
}

// ParseSample decodes one sample line. CSV lines carry
// t,rx,ry,rz,ax,ay,az,pitch,roll,yaw where t is seconds since the Unix
// epoch; JSON lines carry the same values as {"t","rot","acc","att"}.
// Range checks are left to the recogniser.
func ParseSample(line string) (swing.Sample, error) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "{") {
		var js jsonSample
		if err := json.Unmarshal([]byte(line), &js); err != nil {
			return swing.Sample{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return fromValues(js.T, append(append(js.Rot[:], js.Acc[:]...), js.Att[:]...)), nil
	}

	fields := strings.Split(line, ",")
	if len(fields) != csvFields {
		return swing.Sample{}, fmt.Errorf("%w: %d fields, want %d", ErrMalformed, len(fields), csvFields)
	}
	vals := make([]float64, csvFields)
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return swing.Sample{}, fmt.Errorf("%w: field %d: %v", ErrMalformed, i, err)
		}
		vals[i] = v
	}
	return fromValues(vals[0], vals[1:]), nil
}

func fromValues(t float64, v []float64) swing.Sample {
	return swing.Sample{
		RotationRate:     kinematics.Vec3{X: v[0], Y: v[1], Z: v[2]},
		UserAcceleration: kinematics.Vec3{X: v[3], Y: v[4], Z: v[5]},
		Attitude:         swing.Attitude{Pitch: v[6], Roll: v[7], Yaw: v[8]},
		Timestamp:        secondsToTime(t),
	}
}

func secondsToTime(t float64) time.Time {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return time.Time{}
	}
	sec, frac := math.Modf(t)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

// FormatSample encodes s as a CSV sample line.
func FormatSample(s swing.Sample) string {
	t := 0.0
	if !s.Timestamp.IsZero() {
		t = float64(s.Timestamp.UnixNano()) / 1e9
	}
	vals := []float64{
		t,
		s.RotationRate.X, s.RotationRate.Y, s.RotationRate.Z,
		s.UserAcceleration.X, s.UserAcceleration.Y, s.UserAcceleration.Z,
		s.Attitude.Pitch, s.Attitude.Roll, s.Attitude.Yaw,
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}
