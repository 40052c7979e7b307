package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/banshee-data/swing.report/internal/db"
	"github.com/banshee-data/swing.report/internal/units"
)

func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		goals, err := s.db.GoalSettings(r.Context())
		if err != nil {
			internalServerError(w, fmt.Sprintf("Failed to load goals: %v", err))
			return
		}
		writeJSONOK(w, goals)
	case http.MethodPut:
		var goals db.GoalSettings
		dec := json.NewDecoder(io.LimitReader(r.Body, 64<<10))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&goals); err != nil {
			badRequest(w, fmt.Sprintf("Invalid goals body: %v", err))
			return
		}
		goals.UpdatedAt = s.clock.Now()
		if err := s.db.SaveGoalSettings(r.Context(), goals); err != nil {
			if errors.Is(err, db.ErrInvalidGoals) {
				badRequest(w, err.Error())
				return
			}
			internalServerError(w, fmt.Sprintf("Failed to save goals: %v", err))
			return
		}
		writeJSONOK(w, goals)
	default:
		methodNotAllowed(w)
	}
}

// SensorStatus reports the result of the capability probe.
type SensorStatus struct {
	Probed        bool     `json:"probed"`
	Available     bool     `json:"available"`
	Accelerometer bool     `json:"accelerometer"`
	Gyroscope     bool     `json:"gyroscope"`
	Orientation   bool     `json:"orientation"`
	Missing       []string `json:"missing,omitempty"`
}

func (s *Server) showSensors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	c := s.sensors.Load()
	if c == nil {
		writeJSONOK(w, SensorStatus{})
		return
	}
	writeJSONOK(w, SensorStatus{
		Probed:        true,
		Available:     c.Available(),
		Accelerometer: c.Accelerometer,
		Gyroscope:     c.Gyroscope,
		Orientation:   c.Orientation,
		Missing:       c.Missing(),
	})
}

func (s *Server) showDetector(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSONOK(w, s.session.Snapshot())
}

func (s *Server) resetDetector(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if err := s.session.Reset(r.Context()); err != nil {
		writeJSONError(w, http.StatusServiceUnavailable, fmt.Sprintf("Failed to reset detector: %v", err))
		return
	}
	writeJSONOK(w, s.session.Snapshot())
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	rc, err := s.tuning.RecognizerConfig()
	if err != nil {
		internalServerError(w, fmt.Sprintf("Invalid tuning config: %v", err))
		return
	}
	writeJSONOK(w, map[string]interface{}{
		"units":          s.units,
		"valid_units":    units.ValidUnits,
		"timezone":       s.loc.String(),
		"tick_interval":  s.tuning.GetTickInterval().String(),
		"queue_size":     s.tuning.GetQueueSize(),
		"sample_rate_hz": s.tuning.GetSampleRateHz(),
		"recognizer": map[string]interface{}{
			"acceleration_threshold_g": rc.AccelerationThreshold,
			"rotation_threshold":       rc.RotationThreshold,
			"z_acceleration_threshold": rc.ZAccelerationThreshold,
			"min_swing_duration":       rc.MinDuration.String(),
			"max_swing_duration":       rc.MaxDuration.String(),
			"settle_delay":             rc.SettleDelay.String(),
			"cooldown":                 rc.Cooldown.String(),
			"min_pitch_rad":            rc.MinPitch,
			"max_pitch_rad":            rc.MaxPitch,
			"lever_arm_m":              rc.LeverArm,
			"speed_tiers":              rc.SpeedTiers,
		},
		"server_time": s.clock.Now().Format(time.RFC3339),
	})
}
