package checkout

// State is the explicit checkout session state. Transitions are guarded;
// anything outside the table is a programming error surfaced as
// ErrIllegalTransition.
type State string

const (
	StateEditing       State = "editing"
	StateResolvingCost State = "resolving-cost"
	StateValidating    State = "validating"
	StateSubmitting    State = "submitting"
	StateSucceeded     State = "succeeded"
	StateFailed        State = "failed"
)

var transitions = map[State][]State{
	StateEditing:       {StateResolvingCost, StateValidating},
	StateResolvingCost: {StateResolvingCost, StateEditing, StateValidating},
	StateValidating:    {StateEditing, StateSubmitting},
	StateSubmitting:    {StateSucceeded, StateFailed},
	StateFailed:        {StateEditing, StateResolvingCost, StateValidating},
	StateSucceeded:     {},
}

func (s State) CanTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s State) IsTerminal() bool {
	return s == StateSucceeded
}

func (s State) String() string {
	return string(s)
}
