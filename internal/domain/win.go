package domain

// EvaluateWinner decides the game from the living roster. Villagers win once
// no werewolf is alive; wolves win once they match or outnumber everyone else.
func EvaluateWinner(players []*Player) (Faction, bool) {
	wolves, others := 0, 0
	for _, p := range players {
		if !p.Alive {
			continue
		}
		if p.IsWerewolf() {
			wolves++
		} else {
			others++
		}
	}

	switch {
	case wolves == 0:
		return FactionVillagers, true
	case wolves >= others:
		return FactionWolves, true
	default:
		return "", false
	}
}
