package fsm

// Transition describes one dispatched event. For rejected events Action and
// To are empty.
type Transition struct {
	From   string `json:"from"`
	Event  string `json:"event"`
	Action string `json:"action,omitempty"`
	To     string `json:"to,omitempty"`
}

// Hooks are invoked synchronously by Automaton.Fire.
type Hooks struct {
	OnTransition func(Transition)
	OnRejected   func(Transition)
}

func (h Hooks) transition(t Transition) {
	if h.OnTransition != nil {
		h.OnTransition(t)
	}
}

func (h Hooks) rejected(t Transition) {
	if h.OnRejected != nil {
		h.OnRejected(t)
	}
}
