package domain

import "time"

// GameRecord is the archived summary of a finished game
type GameRecord struct {
	RoomID  string       `json:"roomId"`
	Winner  Faction      `json:"winner"`
	Rounds  int          `json:"rounds"`
	Players []PlayerInfo `json:"players"`
	EndedAt time.Time    `json:"endedAt"`
}

// NewGameRecord summarizes a game that has reached game over
func NewGameRecord(g *Game) *GameRecord {
	return &GameRecord{
		RoomID:  g.ID,
		Winner:  g.Winner,
		Rounds:  g.Round,
		Players: g.PlayerInfoList(true),
		EndedAt: time.Now().UTC(),
	}
}
