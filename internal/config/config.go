package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"werewolf/internal/app"
	"werewolf/internal/domain"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Game    GameConfig
	Logging LoggingConfig
	Archive ArchiveConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port string `env:"PORT" envDefault:"8080"`
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Env  string `env:"ENV"  envDefault:"development"` // "development" or "production"
}

// GameConfig holds game-related configuration
type GameConfig struct {
	MinPlayers int      `env:"MIN_PLAYERS" envDefault:"6"`
	MaxPlayers int      `env:"MAX_PLAYERS" envDefault:"12"`
	Roles      []string `env:"ROLES"       envDefault:"werewolf,werewolf,seer,witch" envSeparator:","`
	BotFill    bool     `env:"BOT_FILL"    envDefault:"true"`

	NightWolfSeconds  int `env:"NIGHT_WOLF_SECONDS"  envDefault:"30"`
	NightWitchSeconds int `env:"NIGHT_WITCH_SECONDS" envDefault:"10"`
	NightSeerSeconds  int `env:"NIGHT_SEER_SECONDS"  envDefault:"10"`
	DaySeconds        int `env:"DAY_SECONDS"         envDefault:"300"`
	VotingSeconds     int `env:"VOTING_SECONDS"      envDefault:"30"`
	GameOverSeconds   int `env:"GAME_OVER_SECONDS"   envDefault:"10"`
	BotDelayMS        int `env:"BOT_DELAY_MS"        envDefault:"1500"`

	RevealRolesOnGameOver bool `env:"REVEAL_ROLES_ON_GAME_OVER" envDefault:"true"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"` // "json" or "text"
}

// ArchiveConfig holds the finished-game archive configuration. An empty
// path disables the archive.
type ArchiveConfig struct {
	Path string `env:"ARCHIVE_PATH"`
}

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if _, err := cfg.Game.Catalog(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Catalog builds and validates the role catalog; seats beyond the
// listed roles are villagers.
func (g GameConfig) Catalog() (domain.Catalog, error) {
	special := make([]domain.Role, 0, len(g.Roles))
	for _, name := range g.Roles {
		role, err := domain.ParseRole(name)
		if err != nil {
			return domain.Catalog{}, err
		}
		special = append(special, role)
	}

	catalog := domain.Catalog{
		Special:    special,
		Filler:     domain.RoleVillager,
		MinPlayers: g.MinPlayers,
		MaxPlayers: g.MaxPlayers,
	}
	if err := catalog.Validate(); err != nil {
		return domain.Catalog{}, err
	}
	return catalog, nil
}

// Settings converts the game configuration into session settings
func (g GameConfig) Settings() (app.Settings, error) {
	catalog, err := g.Catalog()
	if err != nil {
		return app.Settings{}, err
	}

	settings := app.DefaultSettings()
	settings.Catalog = catalog
	settings.BotFill = g.BotFill
	settings.NightWolfDuration = seconds(g.NightWolfSeconds)
	settings.NightWitchDuration = seconds(g.NightWitchSeconds)
	settings.NightSeerDuration = seconds(g.NightSeerSeconds)
	settings.DayDuration = seconds(g.DaySeconds)
	settings.VotingDuration = seconds(g.VotingSeconds)
	settings.GameOverDuration = seconds(g.GameOverSeconds)
	settings.BotDelay = time.Duration(g.BotDelayMS) * time.Millisecond
	settings.RevealRolesOnGameOver = g.RevealRolesOnGameOver
	return settings, nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// GetAddr returns the server address in host:port format
func (c *Config) GetAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}
