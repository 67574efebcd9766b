package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"werewolf/internal/domain"
)

const defaultHistoryLimit = 20

// GameHistory lists archived games
type GameHistory interface {
	RecentGames(ctx context.Context, roomID string, limit int) ([]*domain.GameRecord, error)
}

// Response is a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GetRoomResponse is the response for getting room info
type GetRoomResponse struct {
	RoomID      string                `json:"roomId"`
	PlayerCount int                   `json:"playerCount"`
	Phase       domain.Phase          `json:"phase"`
	CanJoin     bool                  `json:"canJoin"`
	Roster      *domain.RosterPayload `json:"roster"`
}

// HistoryResponse is the response for a room's finished games
type HistoryResponse struct {
	RoomID string               `json:"roomId"`
	Games  []*domain.GameRecord `json:"games"`
}

// HealthResponse is the response for health check
type HealthResponse struct {
	Status string `json:"status"`
}

// StatsResponse is the response for stats endpoint
type StatsResponse struct {
	ActiveGames  int `json:"activeGames"`
	TotalPlayers int `json:"totalPlayers"`
}

// handleGetRoom handles GET /api/rooms/{roomId}
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomId")

	session, err := s.hub.GetSession(roomID)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			s.sendError(w, http.StatusNotFound, "ROOM_NOT_FOUND", "Room not found")
		} else {
			s.sendError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		}
		return
	}

	roster := session.Snapshot()
	s.sendSuccess(w, &GetRoomResponse{
		RoomID:      session.GetRoomCode(),
		PlayerCount: len(roster.Players),
		Phase:       roster.Status,
		CanJoin:     session.CanJoin(),
		Roster:      roster,
	})
}

// handleRoomHistory handles GET /api/rooms/{roomId}/history
func (s *Server) handleRoomHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.sendError(w, http.StatusNotFound, "ARCHIVE_DISABLED", "Game archive is disabled")
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.sendError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		limit = n
	}

	roomID := r.PathValue("roomId")
	games, err := s.history.RecentGames(r.Context(), roomID, limit)
	if err != nil {
		s.logger.Error("failed to list games", "roomId", roomID, "error", err)
		s.sendError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}

	s.sendSuccess(w, &HistoryResponse{RoomID: roomID, Games: games})
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &HealthResponse{
		Status: "ok",
	})
}

// handleStats handles GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &StatsResponse{
		ActiveGames:  s.hub.GetSessionCount(),
		TotalPlayers: s.hub.GetTotalPlayerCount(),
	})
}

// sendSuccess sends a successful JSON response
func (s *Server) sendSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&Response{
		Success: true,
		Data:    data,
	})
}

// sendError sends an error JSON response
func (s *Server) sendError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}
