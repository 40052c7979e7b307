package kinematics

import "fmt"

// Stroke is the classified direction of a finished swing.
type Stroke int

const (
	StrokeUnknown Stroke = iota
	StrokeForehand
	StrokeBackhand
)

func (s Stroke) String() string {
	switch s {
	case StrokeForehand:
		return "forehand"
	case StrokeBackhand:
		return "backhand"
	case StrokeUnknown:
		return "unknown"
	}
	return fmt.Sprintf("Stroke(%d)", int(s))
}

// ParseStroke is the inverse of String.
func ParseStroke(s string) (Stroke, error) {
	switch s {
	case "forehand":
		return StrokeForehand, nil
	case "backhand":
		return StrokeBackhand, nil
	case "unknown":
		return StrokeUnknown, nil
	}
	return StrokeUnknown, fmt.Errorf("unknown stroke type %q", s)
}

func (s Stroke) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Stroke) UnmarshalText(b []byte) error {
	v, err := ParseStroke(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
