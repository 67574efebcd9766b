package domain

// Phase represents the current phase of a game
type Phase string

const (
	PhaseWaiting    Phase = "WAITING"     // Lobby, players joining
	PhaseNightWolf  Phase = "NIGHT_WOLF"  // Werewolves agree on a victim
	PhaseNightWitch Phase = "NIGHT_WITCH" // Witch may save or poison
	PhaseNightSeer  Phase = "NIGHT_SEER"  // Seer inspects one player
	PhaseDay        Phase = "DAY"         // Open discussion, skip votes
	PhaseVoting     Phase = "VOTING"      // Elimination vote
	PhaseGameOver   Phase = "GAME_OVER"   // Winner shown, then back to lobby
)

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// IsNight returns true for the three concealed night sub-phases
func (p Phase) IsNight() bool {
	return p == PhaseNightWolf || p == PhaseNightWitch || p == PhaseNightSeer
}

// InProgress returns true while a game is being played
func (p Phase) InProgress() bool {
	return p != PhaseWaiting && p != PhaseGameOver
}

var validTransitions = map[Phase][]Phase{
	PhaseWaiting:    {PhaseNightWolf},
	PhaseNightWolf:  {PhaseNightWitch},
	PhaseNightWitch: {PhaseNightSeer},
	PhaseNightSeer:  {PhaseDay, PhaseGameOver},
	PhaseDay:        {PhaseVoting},
	PhaseVoting:     {PhaseNightWolf, PhaseGameOver},
	PhaseGameOver:   {PhaseWaiting},
}

// CanTransitionTo checks if a transition from current phase to target phase is valid
func (p Phase) CanTransitionTo(target Phase) bool {
	// a forfeiture can end the game from any in-progress phase
	if target == PhaseGameOver && p.InProgress() {
		return true
	}

	for _, phase := range validTransitions[p] {
		if phase == target {
			return true
		}
	}
	return false
}
