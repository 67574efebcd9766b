package domain

// NightScratch holds everything decided during one night. It is recreated
// when each night begins and discarded after settlement.
type NightScratch struct {
	Nominations  map[string]string `json:"-"` // werewolf ID -> target ID
	Locked       map[string]bool   `json:"-"` // werewolf ID -> locked in
	KillTarget   string            `json:"-"` // consensus victim, empty until reached
	SaveTarget   string            `json:"-"`
	PoisonTarget string            `json:"-"`
}

// NewNightScratch creates an empty night
func NewNightScratch() *NightScratch {
	return &NightScratch{
		Nominations: make(map[string]string),
		Locked:      make(map[string]bool),
	}
}

// Nominate records a werewolf's target. Any nomination revokes that
// werewolf's lock-in, even if the target is unchanged.
func (n *NightScratch) Nominate(wolfID, targetID string) {
	n.Nominations[wolfID] = targetID
	delete(n.Locked, wolfID)
}

// Confirm locks in the werewolf's current nomination
func (n *NightScratch) Confirm(wolfID string) error {
	if _, ok := n.Nominations[wolfID]; !ok {
		return ErrNoNomination
	}
	n.Locked[wolfID] = true
	return nil
}

// Consensus reports the shared target when every listed werewolf is locked
// in on the same player.
func (n *NightScratch) Consensus(wolfIDs []string) (string, bool) {
	if len(wolfIDs) == 0 {
		return "", false
	}

	target := ""
	for i, id := range wolfIDs {
		if !n.Locked[id] {
			return "", false
		}
		nominated, ok := n.Nominations[id]
		if !ok {
			return "", false
		}
		if i == 0 {
			target = nominated
		} else if nominated != target {
			return "", false
		}
	}
	return target, true
}

// Deaths returns who dies at dawn: the victim unless saved, plus the
// poisoned player. The result holds no duplicates.
func (n *NightScratch) Deaths() []string {
	deaths := make([]string, 0, 2)
	if n.KillTarget != "" && n.KillTarget != n.SaveTarget {
		deaths = append(deaths, n.KillTarget)
	}
	if n.PoisonTarget != "" && (len(deaths) == 0 || deaths[0] != n.PoisonTarget) {
		deaths = append(deaths, n.PoisonTarget)
	}
	return deaths
}

// Potions are the witch's one-shot items. Each flag only ever goes from
// true to false during a game.
type Potions struct {
	SaveAvailable   bool `json:"saveAvailable"`
	PoisonAvailable bool `json:"poisonAvailable"`
}

// FreshPotions returns a full set for a new game
func FreshPotions() Potions {
	return Potions{SaveAvailable: true, PoisonAvailable: true}
}

// WitchAction is the kind of potion the witch throws
type WitchAction string

const (
	WitchSave   WitchAction = "save"
	WitchPoison WitchAction = "poison"
)
