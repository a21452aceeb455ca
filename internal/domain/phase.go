package domain

// Phase represents the current phase of a room
type Phase string

const (
	PhaseLobby      Phase = "LOBBY"       // Waiting for teams to join and get ready
	PhaseInProgress Phase = "IN_PROGRESS" // A question is open for answers
	PhaseRevealing  Phase = "REVEALING"   // Correct answer and scores are on screen
	PhaseFinished   Phase = "FINISHED"    // All questions played
)

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// CanTransitionTo checks if a transition from current phase to target phase is valid
func (p Phase) CanTransitionTo(target Phase) bool {
	validTransitions := map[Phase][]Phase{
		PhaseLobby:      {PhaseInProgress},
		PhaseInProgress: {PhaseRevealing},
		PhaseRevealing:  {PhaseInProgress, PhaseFinished},
	}

	for _, phase := range validTransitions[p] {
		if phase == target {
			return true
		}
	}
	return false
}

// Started reports whether the room has left the lobby
func (p Phase) Started() bool {
	return p != PhaseLobby
}
