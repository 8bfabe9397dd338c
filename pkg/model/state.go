package model

// State represents a node of the transition lattice. Both resting states
// expose PhaseIdle; they differ by whether the element is rendered.
type State string

const (
	// StateHidden fully hidden, nothing mounted
	StateHidden State = "hidden"
	// StateShown fully shown without an animated entry
	StateShown State = "shown"
	// StateEntering entering state
	StateEntering State = "entering"
	// StateEntered entered state
	StateEntered State = "entered"
	// StateExiting exiting state
	StateExiting State = "exiting"
	// StateExited exited state, still mounted until the exit finalizes
	StateExited State = "exited"
)

func (s State) String() string {
	return string(s)
}

// Phase returns the phase exposed to callers for the state.
func (s State) Phase() Phase {
	switch s {
	case StateEntering:
		return PhaseEntering
	case StateEntered:
		return PhaseEntered
	case StateExiting:
		return PhaseExiting
	case StateExited:
		return PhaseExited
	default:
		return PhaseIdle
	}
}

// Rendered reports whether the element is mounted in this state.
func (s State) Rendered() bool {
	return s != StateHidden
}

// Phase is a named sub-step of an active transition. PhaseIdle stands for
// "no phase".
type Phase string

const (
	PhaseIdle     Phase = ""
	PhaseEntering Phase = "entering"
	PhaseEntered  Phase = "entered"
	PhaseExiting  Phase = "exiting"
	PhaseExited   Phase = "exited"
)

func (p Phase) String() string {
	if p == PhaseIdle {
		return "idle"
	}
	return string(p)
}

// Snapshot is the full observable state of a transition controller.
type Snapshot struct {
	// Rendered is what should currently be mounted, it lags Desired during exit
	Rendered bool `json:"rendered" codec:"rendered"`
	// Phase is the current phase, PhaseIdle when no transition is active
	Phase Phase `json:"phase" codec:"phase"`
	// Desired is the last value pushed by the caller
	Desired bool `json:"desired" codec:"desired"`
}

// View is a snapshot together with the style identifier of its phase.
type View struct {
	Snapshot
	// Style is empty when the phase is PhaseIdle or has no identifier
	Style string `json:"style" codec:"style"`
}

// PhaseTransition represents a move from one lattice state to another
type PhaseTransition struct {
	// State is the destination state of the transition
	State State
	// SrcState is the source state of the transition
	SrcState State
	// Event is the event that caused the transition
	Event PhaseEvent
	// Snapshot is the controller state right after the transition
	Snapshot Snapshot
}
