package model

// PhaseEvent represents the inputs that move the transition lattice,
// used to drive the phase Finite State Machine (FSM)
type PhaseEvent string

const (
	// EventShow represents the desired state switching to shown
	EventShow PhaseEvent = "show"
	// EventHide represents the desired state switching to hidden
	EventHide PhaseEvent = "hide"
	// EventSettleEnter represents the entering phase reaching its stable counterpart
	EventSettleEnter PhaseEvent = "settle_enter"
	// EventSettleExit represents the exiting phase reaching its stable counterpart
	EventSettleExit PhaseEvent = "settle_exit"
	// EventFinish represents the exit animation having finished
	EventFinish PhaseEvent = "finish"
)

func (e PhaseEvent) String() string {
	return string(e)
}
