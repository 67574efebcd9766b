package domain

import "time"

// EventType represents the type of outbound notification
type EventType string

const (
	EventJoinedRoom     EventType = "joinedRoom"
	EventUpdatePlayers  EventType = "updatePlayers"
	EventAssignRole     EventType = "assignRole"
	EventTimerUpdate    EventType = "timerUpdate"
	EventReceiveMessage EventType = "receiveMessage"
	EventCheckResult    EventType = "checkResult"
	EventWitchPrompt    EventType = "witchPrompt"
	EventUpdateWolfUI   EventType = "updateWolfUI"
	EventGameOver       EventType = "gameOver"
	EventKicked         EventType = "kicked"
)

// SystemName is the sender shown on system notices
const SystemName = "System"

// GameEvent represents a notification produced by a session
type GameEvent struct {
	Type      EventType   `json:"type"`
	GameID    string      `json:"gameId"`
	PlayerID  string      `json:"playerId,omitempty"` // If event is player-specific
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent creates a new broadcast event
func NewEvent(eventType EventType, gameID string, payload interface{}) *GameEvent {
	return &GameEvent{
		Type:      eventType,
		GameID:    gameID,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// NewPlayerEvent creates a new player-specific game event
func NewPlayerEvent(eventType EventType, gameID, playerID string, payload interface{}) *GameEvent {
	return &GameEvent{
		Type:      eventType,
		GameID:    gameID,
		PlayerID:  playerID,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// IsPrivate returns true if the event targets a single player
func (e *GameEvent) IsPrivate() bool {
	return e.PlayerID != ""
}

// Payload types for different events

// JoinedRoomPayload is sent to a player after a successful join
type JoinedRoomPayload struct {
	PlayerID string       `json:"playerId"`
	RoomID   string       `json:"roomId"`
	Host     bool         `json:"host"`
	Players  []PlayerInfo `json:"players"`
}

// RosterPayload is the full snapshot broadcast after every mutation
type RosterPayload struct {
	Players    []PlayerInfo `json:"players"`
	Status     Phase        `json:"status"`
	HostID     string       `json:"hostId"`
	Round      int          `json:"round"`
	CanStart   bool         `json:"canStart"`
	MinPlayers int          `json:"minPlayers"`
}

// RoleAssignedPayload is sent to each human with their role
type RoleAssignedPayload struct {
	Role     Role         `json:"role"`
	Faction  Faction      `json:"faction"`
	Packmate []PlayerInfo `json:"packmates,omitempty"` // Only for werewolves
}

// TimerPayload is sent once per second while a phase timer runs
type TimerPayload struct {
	Phase            Phase `json:"phase"`
	SecondsRemaining int   `json:"secondsRemaining"`
}

// MessagePayload carries system notices and private errors
type MessagePayload struct {
	Name     string `json:"name"`
	Text     string `json:"text"`
	IsSystem bool   `json:"isSystem"`
	IsError  bool   `json:"isError,omitempty"`
	Code     string `json:"code,omitempty"`
}

// CheckResultPayload is the seer's private reveal
type CheckResultPayload struct {
	TargetID   string  `json:"targetId"`
	TargetName string  `json:"targetName"`
	Faction    Faction `json:"faction"`
	Text       string  `json:"text"`
}

// WitchPromptPayload tells the witch tonight's victim
type WitchPromptPayload struct {
	TargetID        string `json:"targetId,omitempty"`
	TargetName      string `json:"targetName,omitempty"`
	SaveAvailable   bool   `json:"saveAvailable"`
	PoisonAvailable bool   `json:"poisonAvailable"`
}

// WolfNomination is one werewolf's current pick
type WolfNomination struct {
	WolfID     string `json:"wolfId"`
	WolfName   string `json:"wolfName"`
	TargetID   string `json:"targetId,omitempty"`
	TargetName string `json:"targetName,omitempty"`
	Locked     bool   `json:"locked"`
}

// WolfUIPayload is sent to living werewolves when nominations change
type WolfUIPayload struct {
	Nominations []WolfNomination `json:"nominations"`
}

// GameOverPayload is broadcast when a faction wins
type GameOverPayload struct {
	Winner  Faction      `json:"winner"`
	Round   int          `json:"round"`
	Players []PlayerInfo `json:"players,omitempty"` // Roles revealed when enabled
}
