package ws

import (
	"encoding/json"
	"errors"
	"time"

	"werewolf/internal/domain"
)

// MessageType represents the type of WebSocket message
type MessageType string

// Client → Server message types
const (
	MsgJoinRoom     MessageType = "joinRoom"
	MsgStartGame    MessageType = "startGame"
	MsgWolfKill     MessageType = "wolfKill"
	MsgWolfConfirm  MessageType = "wolfConfirm"
	MsgWitchAction  MessageType = "witchAction"
	MsgCheckRole    MessageType = "checkRole"
	MsgCastVote     MessageType = "castVote"
	MsgCastSkipVote MessageType = "castSkipVote"
	MsgKickPlayer   MessageType = "kickPlayer"
	MsgTransferHost MessageType = "transferHost"
	MsgPing         MessageType = "ping"
)

// Server → Client message types not produced by a session
const (
	MsgPong MessageType = "pong"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// NewServerMessage creates a new server message with current timestamp
func NewServerMessage(msgType MessageType, payload interface{}) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Client message payloads

// JoinRoomPayload is the payload for joinRoom
type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

// TargetPayload is the payload of every command aimed at one player
type TargetPayload struct {
	TargetID string `json:"targetId"`
}

// WitchActionPayload is the payload for witchAction
type WitchActionPayload struct {
	Kind     domain.WitchAction `json:"kind"`
	TargetID string             `json:"targetId"`
}

// Error codes
const (
	ErrCodeInvalidMessage = "INVALID_MESSAGE"
	ErrCodeRateLimited    = "RATE_LIMITED"
	ErrCodeInvalidRoom    = "INVALID_ROOM"
	ErrCodeGameFull       = "GAME_FULL"
	ErrCodeGameInProgress = "GAME_IN_PROGRESS"
	ErrCodeNameTaken      = "NAME_TAKEN"
	ErrCodeInvalidName    = "INVALID_NAME"
	ErrCodeAlreadyJoined  = "ALREADY_JOINED"
	ErrCodeNotEnough      = "NOT_ENOUGH_PLAYERS"
	ErrCodeInvalidPhase   = "INVALID_PHASE"
	ErrCodeNotHost        = "NOT_HOST"
	ErrCodeWrongRole      = "WRONG_ROLE"
	ErrCodeNotAlive       = "NOT_ALIVE"
	ErrCodeTargetNotAlive = "TARGET_NOT_ALIVE"
	ErrCodeNoNomination   = "NO_NOMINATION"
	ErrCodePotionUsed     = "POTION_USED"
	ErrCodeInvalidTarget  = "INVALID_TARGET"
	ErrCodeInvalidAction  = "INVALID_ACTION"
	ErrCodeInternalError  = "INTERNAL_ERROR"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{domain.ErrInvalidRoomID, ErrCodeInvalidRoom},
	{domain.ErrGameFull, ErrCodeGameFull},
	{domain.ErrGameInProgress, ErrCodeGameInProgress},
	{domain.ErrNameTaken, ErrCodeNameTaken},
	{domain.ErrEmptyName, ErrCodeInvalidName},
	{domain.ErrAlreadyJoined, ErrCodeAlreadyJoined},
	{domain.ErrNotEnoughPlayers, ErrCodeNotEnough},
	{domain.ErrInvalidPhase, ErrCodeInvalidPhase},
	{domain.ErrInvalidTransition, ErrCodeInvalidPhase},
	{domain.ErrNotHost, ErrCodeNotHost},
	{domain.ErrWrongRole, ErrCodeWrongRole},
	{domain.ErrNotAlive, ErrCodeNotAlive},
	{domain.ErrTargetNotAlive, ErrCodeTargetNotAlive},
	{domain.ErrNoNomination, ErrCodeNoNomination},
	{domain.ErrSavePotionUsed, ErrCodePotionUsed},
	{domain.ErrPoisonPotionUsed, ErrCodePotionUsed},
	{domain.ErrNotKillTarget, ErrCodeInvalidTarget},
	{domain.ErrCannotKickSelf, ErrCodeInvalidTarget},
	{domain.ErrTargetIsBot, ErrCodeInvalidTarget},
	{domain.ErrUnknownWitchAction, ErrCodeInvalidAction},
}

// errorCode maps a command error to its wire code. Stale references
// report false and are not answered.
func errorCode(err error) (string, bool) {
	if domain.IsStale(err) {
		return "", false
	}
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code, true
		}
	}
	return ErrCodeInternalError, true
}
