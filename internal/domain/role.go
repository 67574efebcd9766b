package domain

import (
	"fmt"
	"strings"
)

// Role represents a participant's secret role for one game
type Role string

const (
	RoleWerewolf Role = "werewolf"
	RoleSeer     Role = "seer"
	RoleWitch    Role = "witch"
	RoleVillager Role = "villager"
	RoleHunter   Role = "hunter"
	RoleIdiot    Role = "idiot"
)

// Faction is the side a role plays for
type Faction string

const (
	FactionWolves    Faction = "wolves"
	FactionVillagers Faction = "villagers"
)

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// Faction returns the faction the role belongs to
func (r Role) Faction() Faction {
	if r == RoleWerewolf {
		return FactionWolves
	}
	return FactionVillagers
}

// IsWerewolf returns true if this role hunts at night
func (r Role) IsWerewolf() bool {
	return r == RoleWerewolf
}

// ParseRole converts a configuration string into a Role
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleWerewolf, RoleSeer, RoleWitch, RoleVillager, RoleHunter, RoleIdiot:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// Catalog describes which roles are dealt for a table.
// Special roles are always dealt; every remaining seat gets the Filler role.
type Catalog struct {
	Special    []Role `json:"special"`
	Filler     Role   `json:"filler"`
	MinPlayers int    `json:"minPlayers"`
	MaxPlayers int    `json:"maxPlayers"`
}

// DefaultCatalog is the six-seat table: 2 werewolves, seer, witch, villagers.
func DefaultCatalog() Catalog {
	return Catalog{
		Special:    []Role{RoleWerewolf, RoleWerewolf, RoleSeer, RoleWitch},
		Filler:     RoleVillager,
		MinPlayers: 6,
		MaxPlayers: 12,
	}
}

// Validate checks the catalog can produce a playable game
func (c Catalog) Validate() error {
	wolves := 0
	for _, r := range c.Special {
		if r.IsWerewolf() {
			wolves++
		}
	}
	if c.Filler.IsWerewolf() {
		return fmt.Errorf("%w: filler role cannot be a werewolf", ErrInvalidCatalog)
	}
	if wolves == 0 {
		return fmt.Errorf("%w: at least one werewolf is required", ErrInvalidCatalog)
	}
	// the villagers must outnumber the wolves at the first night or the game is over before it starts
	if c.MinPlayers <= 2*wolves {
		return fmt.Errorf("%w: min players %d too small for %d werewolves", ErrInvalidCatalog, c.MinPlayers, wolves)
	}
	if c.MinPlayers < len(c.Special) {
		return fmt.Errorf("%w: min players %d below %d special roles", ErrInvalidCatalog, c.MinPlayers, len(c.Special))
	}
	if c.MaxPlayers < c.MinPlayers {
		return fmt.Errorf("%w: max players %d below min players %d", ErrInvalidCatalog, c.MaxPlayers, c.MinPlayers)
	}
	return nil
}

// Deal returns the role multiset for a table of n seats, in catalog order
func (c Catalog) Deal(n int) ([]Role, error) {
	if n < c.MinPlayers {
		return nil, ErrNotEnoughPlayers
	}
	if n > c.MaxPlayers {
		return nil, ErrGameFull
	}

	roles := make([]Role, 0, n)
	roles = append(roles, c.Special...)
	for len(roles) < n {
		roles = append(roles, c.Filler)
	}
	return roles, nil
}
