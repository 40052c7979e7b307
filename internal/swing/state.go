package swing

import "fmt"

// State is the recogniser phase.
type State int

const (
	StateIdle State = iota
	StateDetecting
	StateSwinging
	StatePeak
	StateClassifying
	StateCompleted
)

var stateNames = [...]string{"idle", "detecting", "swinging", "peak", "classifying", "completed"}

func (s State) String() string {
	if s < StateIdle || s > StateCompleted {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if string(b) == name {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown recognizer state %q", b)
}

// tracking reports whether samples update the accumulator in s.
func (s State) tracking() bool {
	return s == StateDetecting || s == StateSwinging
}
