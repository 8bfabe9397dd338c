package model

// StyleMap holds the style identifiers applied to an element per phase.
// A missing identifier resolves to the empty string.
type StyleMap struct {
	Entering string `json:"entering,omitempty" mapstructure:"entering"`
	Entered  string `json:"entered,omitempty" mapstructure:"entered"`
	Exiting  string `json:"exiting,omitempty" mapstructure:"exiting"`
	Exited   string `json:"exited,omitempty" mapstructure:"exited"`
}

// Lookup returns the style identifier for the phase.
func (m StyleMap) Lookup(p Phase) string {
	switch p {
	case PhaseEntering:
		return m.Entering
	case PhaseEntered:
		return m.Entered
	case PhaseExiting:
		return m.Exiting
	case PhaseExited:
		return m.Exited
	default:
		return ""
	}
}
