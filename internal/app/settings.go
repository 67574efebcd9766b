package app

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"time"

	"werewolf/internal/domain"
)

// Settings holds the per-room game parameters
type Settings struct {
	Catalog domain.Catalog
	BotFill bool

	NightWolfDuration  time.Duration
	NightWitchDuration time.Duration
	NightSeerDuration  time.Duration
	DayDuration        time.Duration
	VotingDuration     time.Duration
	GameOverDuration   time.Duration
	TickInterval       time.Duration
	BotDelay           time.Duration

	RevealRolesOnGameOver bool
	WitchSaveChance       float64
	WitchPoisonChance     float64

	// NewRand supplies each session's random source; tests inject a fixed one
	NewRand func() domain.Rand
}

// DefaultSettings returns the default game settings
func DefaultSettings() Settings {
	return Settings{
		Catalog:               domain.DefaultCatalog(),
		BotFill:               true,
		NightWolfDuration:     30 * time.Second,
		NightWitchDuration:    10 * time.Second,
		NightSeerDuration:     10 * time.Second,
		DayDuration:           300 * time.Second,
		VotingDuration:        30 * time.Second,
		GameOverDuration:      10 * time.Second,
		TickInterval:          time.Second,
		BotDelay:              1500 * time.Millisecond,
		RevealRolesOnGameOver: true,
		WitchSaveChance:       0.5,
		WitchPoisonChance:     0.2,
		NewRand:               NewSeededRand,
	}
}

// PhaseDuration returns how long the timer for phase runs
func (s Settings) PhaseDuration(phase domain.Phase) time.Duration {
	switch phase {
	case domain.PhaseNightWolf:
		return s.NightWolfDuration
	case domain.PhaseNightWitch:
		return s.NightWitchDuration
	case domain.PhaseNightSeer:
		return s.NightSeerDuration
	case domain.PhaseDay:
		return s.DayDuration
	case domain.PhaseVoting:
		return s.VotingDuration
	case domain.PhaseGameOver:
		return s.GameOverDuration
	default:
		return 0
	}
}

// NewSeededRand returns a math/rand source seeded from crypto/rand
func NewSeededRand() domain.Rand {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(b[:]))))
}
