package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/swing.report/internal/kinematics"
	"github.com/banshee-data/swing.report/internal/swing"
	"github.com/banshee-data/swing.report/internal/units"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

const maxConfigFileSize = 1 * 1024 * 1024

// TuningConfig is the on-disk form of the recogniser and session settings.
// Every field is optional; the Get* accessors fall back to the built-in
// defaults, so partial files are safe.
type TuningConfig struct {
	// Trigger and classification thresholds
	AccelerationThreshold  *float64 `json:"acceleration_threshold_g,omitempty"`
	RotationThreshold      *float64 `json:"rotation_threshold,omitempty"`
	ZAccelerationThreshold *float64 `json:"z_acceleration_threshold,omitempty"`
	MinPitch               *float64 `json:"min_pitch_rad,omitempty"`
	MaxPitch               *float64 `json:"max_pitch_rad,omitempty"`
	PeakDropRatio          *float64 `json:"peak_drop_ratio,omitempty"`
	RisingTolerance        *float64 `json:"rising_tolerance,omitempty"`

	// Timing, as duration strings like "300ms"
	MinSwingDuration *string `json:"min_swing_duration,omitempty"`
	MaxSwingDuration *string `json:"max_swing_duration,omitempty"`
	SettleDelay      *string `json:"settle_delay,omitempty"`
	Cooldown         *string `json:"cooldown,omitempty"`

	// Kinematics. player_height_cm, when set and lever_arm_m is not, derives
	// the lever arm.
	LeverArm             *float64 `json:"lever_arm_m,omitempty"`
	PlayerHeightCM       *float64 `json:"player_height_cm,omitempty"`
	RestitutionForehand  *float64 `json:"restitution_forehand,omitempty"`
	RestitutionBackhand  *float64 `json:"restitution_backhand,omitempty"`
	RestitutionUnknown   *float64 `json:"restitution_unknown,omitempty"`
	TierExcellentMPS     *float64 `json:"tier_excellent_mps,omitempty"`
	TierGoodMPS          *float64 `json:"tier_good_mps,omitempty"`
	TierMediumMPS        *float64 `json:"tier_medium_mps,omitempty"`
	MaxAccelerationG     *float64 `json:"max_acceleration_g,omitempty"`
	MaxRotationRateRadPS *float64 `json:"max_rotation_rate_rad_s,omitempty"`

	// Session loop
	QueueSize    *int    `json:"queue_size,omitempty"`
	TickInterval *string `json:"tick_interval,omitempty"`
	SampleRateHz *int    `json:"sample_rate_hz,omitempty"`
	Timezone     *string `json:"timezone,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with every field unset.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig reads a TuningConfig from a .json file of at most 1MB.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath from the working directory or
// one of its parents. It panics if the file cannot be found, and is meant for
// test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the fields that can be checked in isolation. Cross-field
// consistency is checked by RecognizerConfig.
func (c *TuningConfig) Validate() error {
	for name, d := range map[string]*string{
		"min_swing_duration": c.MinSwingDuration,
		"max_swing_duration": c.MaxSwingDuration,
		"settle_delay":       c.SettleDelay,
		"cooldown":           c.Cooldown,
		"tick_interval":      c.TickInterval,
	} {
		if d == nil || *d == "" {
			continue
		}
		if _, err := time.ParseDuration(*d); err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *d, err)
		}
	}

	if c.PlayerHeightCM != nil && (*c.PlayerHeightCM < 100 || *c.PlayerHeightCM > 250) {
		return fmt.Errorf("player_height_cm must be between 100 and 250, got %v", *c.PlayerHeightCM)
	}
	if c.QueueSize != nil && *c.QueueSize < 1 {
		return fmt.Errorf("queue_size must be at least 1, got %d", *c.QueueSize)
	}
	if c.SampleRateHz != nil && (*c.SampleRateHz < 10 || *c.SampleRateHz > 1000) {
		return fmt.Errorf("sample_rate_hz must be between 10 and 1000, got %d", *c.SampleRateHz)
	}
	if c.TickInterval != nil && *c.TickInterval != "" && c.GetTickInterval() <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", *c.TickInterval)
	}
	if c.Timezone != nil {
		if _, err := units.LoadTimezone(*c.Timezone); err != nil {
			return err
		}
	}
	return nil
}

// RecognizerConfig assembles the recogniser configuration, applying defaults
// for unset fields, and validates the result.
func (c *TuningConfig) RecognizerConfig() (swing.Config, error) {
	def := swing.DefaultConfig()
	cfg := swing.Config{
		AccelerationThreshold:  floatOr(c.AccelerationThreshold, def.AccelerationThreshold),
		RotationThreshold:      floatOr(c.RotationThreshold, def.RotationThreshold),
		ZAccelerationThreshold: floatOr(c.ZAccelerationThreshold, def.ZAccelerationThreshold),
		MinDuration:            durationOr(c.MinSwingDuration, def.MinDuration),
		MaxDuration:            durationOr(c.MaxSwingDuration, def.MaxDuration),
		MinPitch:               floatOr(c.MinPitch, def.MinPitch),
		MaxPitch:               floatOr(c.MaxPitch, def.MaxPitch),
		SettleDelay:            durationOr(c.SettleDelay, def.SettleDelay),
		Cooldown:               durationOr(c.Cooldown, def.Cooldown),
		PeakDropRatio:          floatOr(c.PeakDropRatio, def.PeakDropRatio),
		RisingTolerance:        floatOr(c.RisingTolerance, def.RisingTolerance),
		LeverArm:               c.GetLeverArm(),
		Restitution: kinematics.Restitution{
			Forehand: floatOr(c.RestitutionForehand, def.Restitution.Forehand),
			Backhand: floatOr(c.RestitutionBackhand, def.Restitution.Backhand),
			Unknown:  floatOr(c.RestitutionUnknown, def.Restitution.Unknown),
		},
		SpeedTiers: units.TierBoundaries{
			Excellent: floatOr(c.TierExcellentMPS, def.SpeedTiers.Excellent),
			Good:      floatOr(c.TierGoodMPS, def.SpeedTiers.Good),
			Medium:    floatOr(c.TierMediumMPS, def.SpeedTiers.Medium),
		},
		MaxAcceleration: floatOr(c.MaxAccelerationG, def.MaxAcceleration),
		MaxRotationRate: floatOr(c.MaxRotationRateRadPS, def.MaxRotationRate),
	}
	if err := cfg.Validate(); err != nil {
		return swing.Config{}, err
	}
	return cfg, nil
}

// GetLeverArm returns lever_arm_m, else the arm length derived from
// player_height_cm, else the default.
func (c *TuningConfig) GetLeverArm() float64 {
	if c.LeverArm != nil {
		return *c.LeverArm
	}
	if c.PlayerHeightCM != nil {
		return kinematics.ArmLengthFromHeight(*c.PlayerHeightCM)
	}
	return kinematics.DefaultLeverArm
}

// GetQueueSize returns the sample queue capacity. The default holds roughly
// five seconds of samples at 100 Hz.
func (c *TuningConfig) GetQueueSize() int {
	if c.QueueSize == nil {
		return 512
	}
	return *c.QueueSize
}

// GetTickInterval returns how often the session ticks the recogniser when no
// samples arrive.
func (c *TuningConfig) GetTickInterval() time.Duration {
	return durationOr(c.TickInterval, 20*time.Millisecond)
}

// GetSampleRateHz returns the rate requested from the sensor.
func (c *TuningConfig) GetSampleRateHz() int {
	if c.SampleRateHz == nil {
		return 100
	}
	return *c.SampleRateHz
}

// GetTimezone returns the timezone name used for daily statistics.
func (c *TuningConfig) GetTimezone() string {
	if c.Timezone == nil {
		return ""
	}
	return *c.Timezone
}

func floatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func durationOr(p *string, def time.Duration) time.Duration {
	if p == nil || *p == "" {
		return def
	}
	d, err := time.ParseDuration(*p)
	if err != nil {
		return def
	}
	return d
}
