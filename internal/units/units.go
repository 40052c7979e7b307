// Package units converts swing and ball speeds for display and grades swing
// speeds into tiers.
package units

import (
	"fmt"
	"strings"
)

// Speed units accepted by the API and the --units flag. Everything is stored
// in metres per second.
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

var ValidUnits = []string{MPS, MPH, KMPH, KPH}

func IsValid(unit string) bool {
	for _, u := range ValidUnits {
		if unit == u {
			return true
		}
	}
	return false
}

// ValidUnitsString is used in error messages.
func ValidUnitsString() string {
	return strings.Join(ValidUnits, ", ")
}

// ConvertSpeed converts a speed in m/s to the target unit. Unknown units leave
// the value in m/s.
func ConvertSpeed(speedMPS float64, target string) float64 {
	switch target {
	case MPH:
		return speedMPS * 2.2369362920544
	case KMPH, KPH:
		return speedMPS * 3.6
	default:
		return speedMPS
	}
}

// KMPHToMPS converts a speed in km/h back to m/s.
func KMPHToMPS(kmph float64) float64 {
	return kmph / 3.6
}

// SpeedTier grades a swing speed.
type SpeedTier int

const (
	TierLow SpeedTier = iota
	TierMedium
	TierGood
	TierExcellent
)

var tierNames = [...]string{"low", "medium", "good", "excellent"}

func (t SpeedTier) String() string {
	if t < TierLow || t > TierExcellent {
		return fmt.Sprintf("SpeedTier(%d)", int(t))
	}
	return tierNames[t]
}

func (t SpeedTier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *SpeedTier) UnmarshalText(b []byte) error {
	for i, name := range tierNames {
		if string(b) == name {
			*t = SpeedTier(i)
			return nil
		}
	}
	return fmt.Errorf("unknown speed tier %q", b)
}

// TierBoundaries holds the lower bound, in m/s, of each tier above TierLow.
type TierBoundaries struct {
	Excellent float64 `json:"excellent"`
	Good      float64 `json:"good"`
	Medium    float64 `json:"medium"`
}

func DefaultTierBoundaries() TierBoundaries {
	return TierBoundaries{Excellent: 22, Good: 18, Medium: 12}
}

// Validate requires strictly descending, positive boundaries.
func (b TierBoundaries) Validate() error {
	if b.Medium <= 0 {
		return fmt.Errorf("medium tier boundary must be positive, got %v", b.Medium)
	}
	if !(b.Excellent > b.Good && b.Good > b.Medium) {
		return fmt.Errorf("tier boundaries must descend: excellent %v, good %v, medium %v",
			b.Excellent, b.Good, b.Medium)
	}
	return nil
}

// Tier returns the tier for speedMPS. Boundaries are inclusive.
func (b TierBoundaries) Tier(speedMPS float64) SpeedTier {
	switch {
	case speedMPS >= b.Excellent:
		return TierExcellent
	case speedMPS >= b.Good:
		return TierGood
	case speedMPS >= b.Medium:
		return TierMedium
	default:
		return TierLow
	}
}
