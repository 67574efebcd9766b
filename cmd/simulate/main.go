package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"werewolf/internal/app"
	"werewolf/internal/domain"
)

const (
	roomID     = "simulation"
	observerID = "observer"
)

var CLI struct {
	Players int   `help:"Table size; seats beyond the observer are filled with bots." default:"6"`
	Games   int   `help:"Number of games to play." default:"10"`
	Seed    int64 `help:"Random seed, 0 picks one from the clock." default:"0"`
	PhaseMS int   `name:"phase-ms" help:"Duration of every timed phase in milliseconds." default:"40"`
	Debug   bool  `help:"Whether to enable debug logging."`
}

func writeError(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(1)
}

func main() {
	kong.Parse(&CLI,
		kong.Name("simulate"),
		kong.Description("Play werewolf games between bots and print who wins."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	if err := run(); err != nil {
		writeError(err)
	}
}

func run() error {
	if CLI.Games <= 0 || CLI.PhaseMS <= 0 {
		return errors.New("games and phase-ms must be positive")
	}

	level := slog.LevelWarn
	if CLI.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	seed := CLI.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	settings, err := simulationSettings(seed)
	if err != nil {
		return err
	}

	hub := app.NewGameHub(settings, nil, logger)
	defer hub.Close()

	obs := newObserver(rand.New(rand.NewSource(seed + 1)))
	session, _, err := hub.Join(roomID, observerID, "Observer", obs)
	if err != nil {
		return fmt.Errorf("join: %w", err)
	}
	obs.session = session
	go obs.run()
	defer obs.stop()

	phase := time.Duration(CLI.PhaseMS) * time.Millisecond
	wins := make(map[domain.Faction]int)
	fmt.Printf("seed %d, %d players, %d games\n", seed, CLI.Players, CLI.Games)

	for i := 1; i <= CLI.Games; i++ {
		// the room returns to the lobby a phase after each game
		for {
			err := session.StartGame(observerID)
			if err == nil {
				break
			}
			if !errors.Is(err, domain.ErrInvalidPhase) {
				return fmt.Errorf("start game %d: %w", i, err)
			}
			time.Sleep(phase)
		}

		select {
		case over := <-obs.results:
			wins[over.Winner]++
			fmt.Printf("game %d: %s win after %d rounds\n", i, over.Winner, over.Round)
		case <-time.After(time.Minute + 1000*phase):
			return fmt.Errorf("game %d did not finish", i)
		}
	}

	fmt.Printf("wolves %d, villagers %d\n", wins[domain.FactionWolves], wins[domain.FactionVillagers])
	return nil
}

// simulationSettings sizes the table and shortens every phase
func simulationSettings(seed int64) (app.Settings, error) {
	settings := app.DefaultSettings()

	catalog := domain.DefaultCatalog()
	catalog.MinPlayers = CLI.Players
	catalog.MaxPlayers = max(catalog.MaxPlayers, CLI.Players)
	if err := catalog.Validate(); err != nil {
		return app.Settings{}, err
	}
	settings.Catalog = catalog

	phase := time.Duration(CLI.PhaseMS) * time.Millisecond
	settings.NightWolfDuration = phase
	settings.NightWitchDuration = phase
	settings.NightSeerDuration = phase
	settings.DayDuration = phase
	settings.VotingDuration = phase
	settings.GameOverDuration = phase
	settings.BotDelay = phase / 4
	settings.TickInterval = 0

	settings.NewRand = func() domain.Rand {
		return rand.New(rand.NewSource(seed))
	}
	return settings, nil
}
