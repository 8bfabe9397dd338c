package common

// IgnoreReason is the message used to indicate why an input left the controller unchanged
type IgnoreReason string

const (
	// IgnoreSameDesired represents a desired state equal to the current one
	IgnoreSameDesired IgnoreReason = `desired state unchanged`
	// IgnoreNotExited represents a completion signal outside the exited phase
	IgnoreNotExited IgnoreReason = `completion outside exited phase`
	// IgnoreTimerOwned represents a completion signal while a timer owns the exit
	IgnoreTimerOwned IgnoreReason = `completion owned by timer`
	// IgnoreStablePhase represents an advance without an unstable phase
	IgnoreStablePhase IgnoreReason = `no unstable phase`
	// IgnoreStaleTask represents a scheduled task from an earlier epoch
	IgnoreStaleTask IgnoreReason = `stale scheduled task`
	// IgnoreClosed represents an input after the controller was closed
	IgnoreClosed IgnoreReason = `controller closed`
)

func (r IgnoreReason) String() string {
	return string(r)
}
