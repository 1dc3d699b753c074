package sanitize

// State is a step of a sanitizer run. Rejected and Reported are terminal.
type State int

const (
	StateInitialized State = iota
	StateScanning
	StateRejected
	StateExtracting
	StateRewriting
	StateReported
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateScanning:
		return "scanning"
	case StateRejected:
		return "rejected"
	case StateExtracting:
		return "extracting"
	case StateRewriting:
		return "rewriting"
	case StateReported:
		return "reported"
	default:
		return "unknown"
	}
}

// Terminal reports whether a run ends in s.
func (s State) Terminal() bool {
	return s == StateRejected || s == StateReported
}

var transitions = map[State][]State{
	StateInitialized: {StateScanning},
	StateScanning:    {StateRejected, StateExtracting},
	StateExtracting:  {StateRewriting},
	StateRewriting:   {StateReported},
}

// CanTransition reports whether a run may move from s to next.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
