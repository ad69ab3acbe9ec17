package reader

// State is the speech controller's externally observable state.
type State int

const (
	StateIdle State = iota
	StateSpeakingHover
	StateSpeakingLong
	// StateCancelled is transient; a stop passes through it on the way to
	// StateIdle.
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSpeakingHover:
		return "speaking_hover"
	case StateSpeakingLong:
		return "speaking_long"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}
