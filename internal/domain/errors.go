package domain

import "errors"

// Rejected preconditions: reported privately to the actor, state unchanged.
var (
	ErrGameFull           = errors.New("room is full")
	ErrGameInProgress     = errors.New("game in progress")
	ErrNameTaken          = errors.New("name already taken")
	ErrEmptyName          = errors.New("name cannot be empty")
	ErrInvalidRoomID      = errors.New("room id cannot be empty")
	ErrAlreadyJoined      = errors.New("already in a room")
	ErrNotEnoughPlayers   = errors.New("not enough players to start")
	ErrInvalidPhase       = errors.New("invalid action for current phase")
	ErrNotHost            = errors.New("only host can perform this action")
	ErrWrongRole          = errors.New("your role cannot do that")
	ErrNotAlive           = errors.New("dead players cannot act")
	ErrTargetNotAlive     = errors.New("target is not alive")
	ErrNoNomination       = errors.New("nominate a target before confirming")
	ErrSavePotionUsed     = errors.New("save potion already used")
	ErrPoisonPotionUsed   = errors.New("poison potion already used")
	ErrNotKillTarget      = errors.New("can only save tonight's victim")
	ErrUnknownWitchAction = errors.New("unknown witch action")
	ErrCannotKickSelf     = errors.New("cannot kick yourself")
	ErrTargetIsBot        = errors.New("bots cannot host")
	ErrInvalidTransition  = errors.New("invalid phase transition")
)

// Stale references: the target or room is gone, silently ignored.
var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrRoomNotFound   = errors.New("room not found")
)

// Configuration errors
var (
	ErrUnknownRole    = errors.New("unknown role")
	ErrInvalidCatalog = errors.New("invalid role catalog")
)

// IsStale reports whether err refers to something no longer present
func IsStale(err error) bool {
	return errors.Is(err, ErrPlayerNotFound) || errors.Is(err, ErrRoomNotFound)
}
