// Package store archives finished games in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"werewolf/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	room_id    TEXT    NOT NULL,
	winner     TEXT    NOT NULL,
	rounds     INTEGER NOT NULL,
	players    TEXT    NOT NULL,
	ended_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS games_room_ended ON games (room_id, ended_at DESC);
`

// Archive persists finished game results. Live sessions are never stored.
type Archive struct {
	db *sql.DB
}

// Open opens the archive at path and creates its schema
func Open(path string) (*Archive, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("archive path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close closes the database handle
func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

// RecordGame stores one finished game
func (a *Archive) RecordGame(ctx context.Context, rec *domain.GameRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	players, err := json.Marshal(rec.Players)
	if err != nil {
		return fmt.Errorf("encode players: %w", err)
	}
	endedAt := rec.EndedAt
	if endedAt.IsZero() {
		endedAt = time.Now()
	}

	_, err = a.db.ExecContext(ctx,
		`INSERT INTO games (room_id, winner, rounds, players, ended_at) VALUES (?, ?, ?, ?, ?)`,
		rec.RoomID, string(rec.Winner), rec.Rounds, string(players), endedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

// RecentGames lists a room's finished games, newest first
func (a *Archive) RecentGames(ctx context.Context, roomID string, limit int) ([]*domain.GameRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := a.db.QueryContext(ctx,
		`SELECT room_id, winner, rounds, players, ended_at FROM games
		 WHERE room_id = ? ORDER BY ended_at DESC, id DESC LIMIT ?`,
		roomID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	records := make([]*domain.GameRecord, 0)
	for rows.Next() {
		var (
			rec     domain.GameRecord
			winner  string
			players string
			endedAt int64
		)
		if err := rows.Scan(&rec.RoomID, &winner, &rec.Rounds, &players, &endedAt); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		if err := json.Unmarshal([]byte(players), &rec.Players); err != nil {
			return nil, fmt.Errorf("decode players: %w", err)
		}
		rec.Winner = domain.Faction(winner)
		rec.EndedAt = time.UnixMilli(endedAt).UTC()
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return records, nil
}
