package domain

import "time"

// ConnectionStatus represents a participant's connection state
type ConnectionStatus string

const (
	StatusConnected    ConnectionStatus = "CONNECTED"
	StatusDisconnected ConnectionStatus = "DISCONNECTED"
)

// Player is one seat at the table, human or bot
type Player struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Role     Role             `json:"role,omitempty"`
	Alive    bool             `json:"alive"`
	Host     bool             `json:"host"`
	Human    bool             `json:"human"`
	Status   ConnectionStatus `json:"status"`
	JoinedAt time.Time        `json:"joinedAt"`
}

// NewPlayer creates a connected human player
func NewPlayer(id, name string) *Player {
	return &Player{
		ID:       id,
		Name:     name,
		Alive:    true,
		Human:    true,
		Status:   StatusConnected,
		JoinedAt: time.Now(),
	}
}

// NewBot creates a synthetic player
func NewBot(id, name string) *Player {
	p := NewPlayer(id, name)
	p.Human = false
	return p
}

// ResetForLobby clears the per-game state of the player
func (p *Player) ResetForLobby() {
	p.Role = ""
	p.Alive = true
}

// IsConnected returns true if the player is currently connected
func (p *Player) IsConnected() bool {
	return p.Status == StatusConnected
}

// Disconnect marks the player as disconnected
func (p *Player) Disconnect() {
	p.Status = StatusDisconnected
}

// IsWerewolf returns true if the player holds the werewolf role
func (p *Player) IsWerewolf() bool {
	return p.Role.IsWerewolf()
}

// PlayerInfo is a safe view of player data (hides role from other players)
type PlayerInfo struct {
	ID     string           `json:"id"`
	Name   string           `json:"name"`
	Alive  bool             `json:"alive"`
	Host   bool             `json:"host"`
	Bot    bool             `json:"bot"`
	Status ConnectionStatus `json:"status"`
	Role   Role             `json:"role,omitempty"` // only filled when roles are revealed
}

// ToInfo converts a Player to PlayerInfo (without role)
func (p *Player) ToInfo() PlayerInfo {
	return PlayerInfo{
		ID:     p.ID,
		Name:   p.Name,
		Alive:  p.Alive,
		Host:   p.Host,
		Bot:    !p.Human,
		Status: p.Status,
	}
}

// ToRevealedInfo converts a Player to PlayerInfo including the role
func (p *Player) ToRevealedInfo() PlayerInfo {
	info := p.ToInfo()
	info.Role = p.Role
	return info
}
