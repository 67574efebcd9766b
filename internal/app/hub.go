package app

import (
	"log/slog"
	"strings"
	"time"

	"github.com/sasha-s/go-deadlock"

	"werewolf/internal/domain"
)

const (
	// StaleGameTimeout is how long an abandoned room may linger before cleanup
	StaleGameTimeout = 2 * time.Hour

	cleanupInterval = 10 * time.Minute
)

// GameHub is the registry of live rooms. It creates a session on first
// join and destroys it once no connected human remains. Lock order is
// hub then session.
type GameHub struct {
	sessions map[string]*GameSession
	mu       deadlock.RWMutex
	settings Settings
	recorder Recorder
	logger   *slog.Logger
	done     chan struct{}
}

// NewGameHub creates a new game hub. recorder may be nil.
func NewGameHub(settings Settings, recorder Recorder, logger *slog.Logger) *GameHub {
	hub := &GameHub{
		sessions: make(map[string]*GameSession),
		settings: settings,
		recorder: recorder,
		logger:   logger,
		done:     make(chan struct{}),
	}

	// Start cleanup goroutine
	go hub.cleanupLoop()

	return hub
}

// Join seats a player in roomID, creating the room if absent
func (h *GameHub) Join(roomID, playerID, name string, client ClientConnection) (*GameSession, *domain.Player, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return nil, nil, domain.ErrInvalidRoomID
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	session, exists := h.sessions[roomID]
	if !exists {
		session = NewGameSession(roomID, h.settings, h.recorder, h.logger)
	}

	player, err := session.Join(playerID, name, client)
	if err != nil {
		if !exists {
			session.Close()
		}
		return nil, nil, err
	}

	if !exists {
		h.sessions[roomID] = session
		h.logger.Info("game created", "roomId", roomID)
	}
	return session, player, nil
}

// Leave removes a player from roomID and destroys the room once no
// connected human is left in it.
func (h *GameHub) Leave(roomID, playerID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	session, ok := h.sessions[roomID]
	if !ok {
		return domain.ErrRoomNotFound
	}

	remaining, err := session.Leave(playerID)
	if remaining == 0 {
		h.deleteLocked(roomID)
	}
	return err
}

// GetSession returns a game session by room ID
func (h *GameHub) GetSession(roomID string) (*GameSession, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	session, ok := h.sessions[roomID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}

	return session, nil
}

// DeleteSession removes a game session
func (h *GameHub) DeleteSession(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deleteLocked(roomID)
}

func (h *GameHub) deleteLocked(roomID string) {
	if session, ok := h.sessions[roomID]; ok {
		session.Close()
		delete(h.sessions, roomID)
		h.logger.Info("game deleted", "roomId", roomID)
	}
}

// GetSessionCount returns the number of active sessions
func (h *GameHub) GetSessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// GetTotalPlayerCount returns the total number of players across all sessions
func (h *GameHub) GetTotalPlayerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, session := range h.sessions {
		total += session.GetPlayerCount()
	}
	return total
}

// Close shuts down the hub and all sessions
func (h *GameHub) Close() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, session := range h.sessions {
		session.Close()
	}
	h.sessions = make(map[string]*GameSession)
}

// cleanupLoop periodically sweeps abandoned rooms
func (h *GameHub) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.cleanupStaleGames()
		}
	}
}

// cleanupStaleGames removes old rooms without a connected human. Leave
// normally destroys these; the sweep catches rooms whose last client
// never completed a join.
func (h *GameHub) cleanupStaleGames() {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	for roomID, session := range h.sessions {
		if session.ConnectedHumans() == 0 && now.Sub(session.GetCreatedAt()) > StaleGameTimeout {
			session.Close()
			delete(h.sessions, roomID)
			h.logger.Info("stale game cleaned up", "roomId", roomID)
		}
	}
}
