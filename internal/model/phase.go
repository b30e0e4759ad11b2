package model

// Phase represents where a session is in the round lifecycle
type Phase string

const (
	PhaseSetup   Phase = "SETUP"   // Building the roster and settings
	PhaseLoading Phase = "LOADING" // Waiting for round content
	PhaseReveal  Phase = "REVEAL"  // Passing the device around for private role reveal
	PhasePlaying Phase = "PLAYING" // Open debate
	PhaseResult  Phase = "RESULT"  // Impostors and word disclosed
)

var phaseTransitions = map[Phase][]Phase{
	PhaseSetup:   {PhaseLoading},
	PhaseLoading: {PhaseReveal, PhaseSetup},
	PhaseReveal:  {PhasePlaying},
	PhasePlaying: {PhaseResult},
	PhaseResult:  {PhaseSetup},
}

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// CanTransitionTo reports whether target is a legal next phase
func (p Phase) CanTransitionTo(target Phase) bool {
	for _, next := range phaseTransitions[p] {
		if next == target {
			return true
		}
	}
	return false
}

// IsValid reports whether p is one of the known phases
func (p Phase) IsValid() bool {
	_, ok := phaseTransitions[p]
	return ok
}
