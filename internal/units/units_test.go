package units

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestConvertSpeed(t *testing.T) {
	tests := []struct {
		name     string
		speedMPS float64
		units    string
		expected float64
	}{
		{"20 m/s swing to mph", 20.0, MPH, 44.7387},
		{"20 m/s swing to kmph", 20.0, KMPH, 72.0},
		{"kph alias", 20.0, KPH, 72.0},
		{"mps passthrough", 20.0, MPS, 20.0},
		{"unknown units stay in mps", 20.0, "knots", 20.0},
		{"zero", 0, MPH, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvertSpeed(tt.speedMPS, tt.units)
			if math.Abs(got-tt.expected) > 0.001 {
				t.Errorf("ConvertSpeed(%v, %s) = %v, want %v", tt.speedMPS, tt.units, got, tt.expected)
			}
		})
	}
}

func TestKMPHToMPS(t *testing.T) {
	if got := KMPHToMPS(ConvertSpeed(15, KMPH)); math.Abs(got-15) > 1e-9 {
		t.Errorf("round trip = %v, want 15", got)
	}
}

func TestIsValid(t *testing.T) {
	for _, u := range ValidUnits {
		if !IsValid(u) {
			t.Errorf("IsValid(%q) = false", u)
		}
	}
	for _, u := range []string{"", "MPH", "knots"} {
		if IsValid(u) {
			t.Errorf("IsValid(%q) = true", u)
		}
	}
	if got := ValidUnitsString(); got != "mps, mph, kmph, kph" {
		t.Errorf("ValidUnitsString() = %q", got)
	}
}

func TestTierBoundaries_Tier(t *testing.T) {
	b := DefaultTierBoundaries()
	tests := []struct {
		speed float64
		want  SpeedTier
	}{
		{25, TierExcellent},
		{22, TierExcellent},
		{21.99, TierGood},
		{18, TierGood},
		{12, TierMedium},
		{11.9, TierLow},
		{0, TierLow},
	}
	for _, tt := range tests {
		if got := b.Tier(tt.speed); got != tt.want {
			t.Errorf("Tier(%v) = %v, want %v", tt.speed, got, tt.want)
		}
	}
}

func TestTierBoundaries_Validate(t *testing.T) {
	if err := DefaultTierBoundaries().Validate(); err != nil {
		t.Errorf("default boundaries invalid: %v", err)
	}
	bad := []TierBoundaries{
		{Excellent: 18, Good: 22, Medium: 12},
		{Excellent: 22, Good: 18, Medium: 0},
		{Excellent: 22, Good: 12, Medium: 12},
	}
	for _, b := range bad {
		if err := b.Validate(); err == nil {
			t.Errorf("Validate(%+v) = nil, want error", b)
		}
	}
}

func TestSpeedTier_JSON(t *testing.T) {
	out, err := json.Marshal(map[string]SpeedTier{"tier": TierGood})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"tier":"good"}` {
		t.Errorf("Marshal = %s", out)
	}

	var tier SpeedTier
	if err := tier.UnmarshalText([]byte("excellent")); err != nil || tier != TierExcellent {
		t.Errorf("UnmarshalText(excellent) = %v, %v", tier, err)
	}
	if err := tier.UnmarshalText([]byte("superb")); err == nil {
		t.Error("UnmarshalText(superb) = nil error")
	}
}

func TestDayBounds(t *testing.T) {
	loc, err := LoadTimezone("Europe/Berlin")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}
	// 23:30 UTC on 14 March is 00:30 on 15 March in Berlin.
	ts := time.Date(2026, 3, 14, 23, 30, 0, 0, time.UTC)
	start, end := DayBounds(ts, loc)

	if start.Day() != 15 || start.Hour() != 0 {
		t.Errorf("start = %v, want midnight 15 March", start)
	}
	if end.Sub(start) != 24*time.Hour {
		t.Errorf("day length = %v, want 24h", end.Sub(start))
	}
}

func TestWeekStart(t *testing.T) {
	// 2026-03-14 is a Saturday.
	ts := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	got := WeekStart(ts, time.UTC)
	want := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("WeekStart = %v, want %v", got, want)
	}

	sunday := time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)
	if got := WeekStart(sunday, time.UTC); !got.Equal(want) {
		t.Errorf("WeekStart(sunday) = %v, want %v", got, want)
	}
}

func TestLoadTimezone_Invalid(t *testing.T) {
	if _, err := LoadTimezone("Mars/Olympus"); err == nil {
		t.Error("LoadTimezone(Mars/Olympus) = nil error")
	}
	if loc, err := LoadTimezone(""); err != nil || loc != time.Local {
		t.Errorf("LoadTimezone(\"\") = %v, %v", loc, err)
	}
}
