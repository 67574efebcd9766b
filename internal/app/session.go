package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sasha-s/go-deadlock"

	"werewolf/internal/domain"
	"werewolf/internal/timer"
)

const (
	// eventQueueSize bounds the outbound queue of one room
	eventQueueSize = 256

	// recordTimeout bounds how long archiving a finished game may take
	recordTimeout = 5 * time.Second
)

// ClientConnection represents a connected client
type ClientConnection interface {
	Send(message interface{}) error
	GetPlayerID() string
	Close() error
}

// Recorder archives finished games
type Recorder interface {
	RecordGame(ctx context.Context, rec *domain.GameRecord) error
}

// outbound is a queued notification. A set client receives the event
// directly, whether or not it is still registered.
type outbound struct {
	event  *domain.GameEvent
	client ClientConnection
}

// GameSession wraps a game with concurrency control, the phase timer and
// client management. Every command and timer continuation runs to
// completion under mu.
type GameSession struct {
	game     *domain.Game
	settings Settings
	rng      domain.Rand
	recorder Recorder
	mu       deadlock.Mutex
	logger   *slog.Logger

	clients   map[string]ClientConnection // playerID -> client
	clientsMu deadlock.RWMutex

	// Timers. epoch increases on every phase entry; continuations armed
	// under an older epoch are stale.
	countdown *timer.Countdown
	botTimer  *time.Timer
	epoch     uint64
	closed    bool
	botSeq    int

	// Event channel for broadcasting
	events    chan outbound
	done      chan struct{}
	closeOnce sync.Once
}

// NewGameSession creates a new game session
func NewGameSession(roomID string, settings Settings, recorder Recorder, logger *slog.Logger) *GameSession {
	newRand := settings.NewRand
	if newRand == nil {
		newRand = NewSeededRand
	}

	session := &GameSession{
		game:     domain.NewGame(roomID, settings.Catalog),
		settings: settings,
		rng:      newRand(),
		recorder: recorder,
		clients:  make(map[string]ClientConnection),
		logger:   logger.With("roomId", roomID),
		events:   make(chan outbound, eventQueueSize),
		done:     make(chan struct{}),
	}

	session.game.BotFill = settings.BotFill

	// Start event broadcaster
	go session.eventLoop()

	return session
}

// GetRoomCode returns the room identifier
func (s *GameSession) GetRoomCode() string {
	return s.game.ID
}

// GetCreatedAt returns when the room was created
func (s *GameSession) GetCreatedAt() time.Time {
	return s.game.CreatedAt
}

// GetPlayerCount returns the number of seated players
func (s *GameSession) GetPlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.game.Players)
}

// GetPhase returns the current game phase
func (s *GameSession) GetPhase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Phase
}

// CanJoin checks if a new player can join the room
func (s *GameSession) CanJoin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Phase == domain.PhaseWaiting && len(s.game.Players) < s.game.Catalog.MaxPlayers
}

// ConnectedHumans returns how many humans are still attached
func (s *GameSession) ConnectedHumans() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.ConnectedHumans()
}

// HasPlayer checks if the player is seated in this room
func (s *GameSession) HasPlayer(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.game.GetPlayer(playerID)
	return err == nil
}

// Snapshot returns the current roster broadcast
func (s *GameSession) Snapshot() *domain.RosterPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Snapshot()
}

// RegisterClient registers a client connection for a player
func (s *GameSession) RegisterClient(playerID string, client ClientConnection) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[playerID] = client
}

// takeClient unregisters and returns a player's client, if any
func (s *GameSession) takeClient(playerID string) ClientConnection {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	client := s.clients[playerID]
	delete(s.clients, playerID)
	return client
}

// UnregisterClient removes a client connection
func (s *GameSession) UnregisterClient(playerID string) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	delete(s.clients, playerID)
}

// Join seats a player. The first player becomes host.
func (s *GameSession) Join(playerID, name string, client ClientConnection) (*domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, err := s.game.AddPlayer(playerID, name)
	if err != nil {
		return nil, err
	}
	if client != nil {
		s.RegisterClient(playerID, client)
	}

	s.queueEvent(domain.NewPlayerEvent(domain.EventJoinedRoom, s.game.ID, playerID, &domain.JoinedRoomPayload{
		PlayerID: playerID,
		RoomID:   s.game.ID,
		Host:     player.Host,
		Players:  s.game.PlayerInfoList(false),
	}))
	s.systemMessage(fmt.Sprintf("%s joined the room", player.Name))
	s.broadcastRoster()

	s.logger.Info("player joined", "playerID", playerID, "host", player.Host)
	return player, nil
}

// Leave handles a departing player and returns how many connected humans
// remain. Mid-game the player forfeits and stays seated as dead.
func (s *GameSession) Leave(playerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.UnregisterClient(playerID)

	player, err := s.game.GetPlayer(playerID)
	if err != nil {
		return s.game.ConnectedHumans(), err
	}
	forfeited, err := s.game.Leave(playerID)
	if err != nil {
		return s.game.ConnectedHumans(), err
	}

	s.logger.Info("player left", "playerID", playerID, "forfeited", forfeited)
	if forfeited {
		s.systemMessage(fmt.Sprintf("%s left the game and forfeits", player.Name))
	} else {
		s.systemMessage(fmt.Sprintf("%s left the room", player.Name))
	}
	s.broadcastRoster()

	remaining := s.game.ConnectedHumans()
	if !forfeited {
		return remaining, nil
	}
	if remaining == 0 {
		// the room is about to go, but a decided game is still archived
		s.endIfWon()
		return remaining, nil
	}
	s.afterForfeit()
	return remaining, nil
}

// afterForfeit re-runs the checks a death mid-phase can satisfy (caller must hold lock)
func (s *GameSession) afterForfeit() {
	if s.endIfWon() {
		return
	}

	switch s.game.Phase {
	case domain.PhaseNightWolf:
		s.sendWolfUI()
		s.checkWolfConsensus()
	case domain.PhaseDay:
		if s.game.SkipQuorumReached() {
			s.endDay()
		}
	case domain.PhaseVoting:
		if s.game.AllVoted() {
			s.endVoting()
		}
	}
}

// StartGame deals roles and begins the first night (host only). Missing
// seats are filled with bots when enabled.
func (s *GameSession) StartGame(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.game.IsHost(playerID) {
		return domain.ErrNotHost
	}
	if s.game.Phase != domain.PhaseWaiting {
		return domain.ErrInvalidPhase
	}

	if s.settings.BotFill {
		s.fillBots()
	}
	if err := s.game.Start(playerID, s.rng); err != nil {
		return err
	}

	s.logger.Info("game started", "players", len(s.game.Players))

	// Send role assignments to each human
	for _, player := range s.game.Players {
		if !player.Human {
			continue
		}
		payload := &domain.RoleAssignedPayload{
			Role:    player.Role,
			Faction: player.Role.Faction(),
		}
		if player.IsWerewolf() {
			for _, mate := range s.game.Players {
				if mate.IsWerewolf() && mate.ID != player.ID {
					payload.Packmate = append(payload.Packmate, mate.ToInfo())
				}
			}
		}
		s.queueEvent(domain.NewPlayerEvent(domain.EventAssignRole, s.game.ID, player.ID, payload))
	}

	s.systemMessage("The game begins. Night falls, everyone close your eyes")
	s.enterPhase()
	s.sendWolfUI()
	return nil
}

// fillBots seats bots until the minimum table is reached (caller must hold lock)
func (s *GameSession) fillBots() {
	for s.game.MissingSeats() > 0 {
		s.botSeq++
		name := fmt.Sprintf("Bot %d", s.botSeq)
		if s.game.HasName(name) {
			continue
		}
		if _, err := s.game.AddBot(newBotID(), name); err != nil {
			s.logger.Warn("failed to seat bot", "error", err)
			return
		}
	}
}

// WolfKill records a werewolf's nomination. It revokes their lock-in.
func (s *GameSession) WolfKill(playerID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.game.Nominate(playerID, targetID); err != nil {
		return err
	}
	s.sendWolfUI()
	return nil
}

// WolfConfirm locks in a werewolf's nomination and ends the werewolf
// phase once the pack agrees.
func (s *GameSession) WolfConfirm(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.game.Confirm(playerID); err != nil {
		return err
	}
	s.syncBotWolves()
	s.sendWolfUI()
	s.checkWolfConsensus()
	return nil
}

// WitchAction throws the save or poison potion
func (s *GameSession) WitchAction(playerID string, action domain.WitchAction, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.game.Witch(playerID, action, targetID); err != nil {
		return err
	}

	target, _ := s.game.GetPlayer(targetID)
	switch action {
	case domain.WitchSave:
		s.privateMessage(playerID, fmt.Sprintf("You used the save potion on %s", target.Name))
	case domain.WitchPoison:
		s.privateMessage(playerID, fmt.Sprintf("You used the poison potion on %s", target.Name))
	}
	return nil
}

// CheckRole reveals the target's faction to the seer only
func (s *GameSession) CheckRole(playerID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, err := s.game.Inspect(playerID, targetID)
	if err != nil {
		return err
	}

	faction := target.Role.Faction()
	text := fmt.Sprintf("%s is a good person", target.Name)
	if faction == domain.FactionWolves {
		text = fmt.Sprintf("%s is a werewolf", target.Name)
	}
	s.queueEvent(domain.NewPlayerEvent(domain.EventCheckResult, s.game.ID, playerID, &domain.CheckResultPayload{
		TargetID:   target.ID,
		TargetName: target.Name,
		Faction:    faction,
		Text:       text,
	}))
	return nil
}

// CastSkipVote records a wish to end the day; the day ends at quorum
func (s *GameSession) CastSkipVote(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	added, err := s.game.SkipVote(playerID)
	if err != nil {
		return err
	}
	if !added {
		return nil
	}
	s.announceSkip(playerID)

	if s.game.SkipQuorumReached() {
		s.endDay()
	}
	return nil
}

// CastVote records or replaces an elimination nomination; voting ends
// early once every living player has voted.
func (s *GameSession) CastVote(playerID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.game.CastVote(playerID, targetID); err != nil {
		return err
	}
	s.announceVote(playerID)

	if s.game.AllVoted() {
		s.endVoting()
	}
	return nil
}

// KickPlayer removes a player from the lobby (host only)
func (s *GameSession) KickPlayer(playerID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Kick fails unless the target exists
	target, _ := s.game.GetPlayer(targetID)
	if err := s.game.Kick(playerID, targetID); err != nil {
		return err
	}

	// unregistered here; the kicked event goes straight to this connection
	if client := s.takeClient(targetID); client != nil {
		s.enqueue(outbound{
			event: domain.NewPlayerEvent(domain.EventKicked, s.game.ID, targetID, &domain.MessagePayload{
				Name:     domain.SystemName,
				Text:     "You were removed from the room by the host",
				IsSystem: true,
			}),
			client: client,
		})
	}
	s.systemMessage(fmt.Sprintf("%s was removed by the host", target.Name))
	s.broadcastRoster()

	s.logger.Info("player kicked", "playerID", targetID)
	return nil
}

// TransferHost hands the host role to another human (host only)
func (s *GameSession) TransferHost(playerID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.game.TransferHost(playerID, targetID); err != nil {
		return err
	}
	target, _ := s.game.GetPlayer(targetID)
	s.systemMessage(fmt.Sprintf("%s is now the host", target.Name))
	s.broadcastRoster()
	return nil
}

// Phase transitions. All of these require the caller to hold mu and
// start by checking the game is still in the phase they end.

// enterPhase arms the timer and bots for the phase just entered
func (s *GameSession) enterPhase() {
	s.cancelTimers()
	s.epoch++

	phase, epoch := s.game.Phase, s.epoch
	d := s.settings.PhaseDuration(phase)
	s.countdown = timer.Start(d, s.settings.TickInterval,
		func(left time.Duration) { s.onTick(phase, epoch, left) },
		func() { s.onExpire(phase, epoch) },
	)

	s.logger.Debug("phase entered", "phase", phase, "round", s.game.Round, "duration", d)
	s.broadcastRoster()
	s.queueEvent(domain.NewEvent(domain.EventTimerUpdate, s.game.ID, &domain.TimerPayload{
		Phase:            phase,
		SecondsRemaining: timer.Seconds(d),
	}))

	if phase.InProgress() {
		s.scheduleBots(phase, epoch)
	}
}

// cancelTimers stops the armed countdown and pending bot turn
func (s *GameSession) cancelTimers() {
	s.countdown.Stop()
	s.countdown = nil
	if s.botTimer != nil {
		s.botTimer.Stop()
		s.botTimer = nil
	}
}

// stale reports whether a continuation armed for phase at epoch is outdated
func (s *GameSession) stale(phase domain.Phase, epoch uint64) bool {
	return s.closed || s.epoch != epoch || s.game.Phase != phase
}

// onTick broadcasts the seconds remaining in the phase
func (s *GameSession) onTick(phase domain.Phase, epoch uint64, left time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stale(phase, epoch) {
		return
	}
	s.queueEvent(domain.NewEvent(domain.EventTimerUpdate, s.game.ID, &domain.TimerPayload{
		Phase:            phase,
		SecondsRemaining: timer.Seconds(left),
	}))
}

// onExpire ends the phase the timer was armed for, unless an early
// transition already did.
func (s *GameSession) onExpire(phase domain.Phase, epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stale(phase, epoch) {
		s.logger.Debug("stale timer ignored", "phase", phase)
		return
	}
	s.expire()
}

// expire performs the timeout transition of the current phase
func (s *GameSession) expire() {
	switch s.game.Phase {
	case domain.PhaseNightWolf:
		s.endWolfPhase()
	case domain.PhaseNightWitch:
		s.endWitchPhase()
	case domain.PhaseNightSeer:
		s.endNight()
	case domain.PhaseDay:
		s.endDay()
	case domain.PhaseVoting:
		s.endVoting()
	case domain.PhaseGameOver:
		s.resetToLobby()
	}
}

// checkWolfConsensus ends the werewolf phase early once the pack agrees
func (s *GameSession) checkWolfConsensus() {
	if s.game.Phase != domain.PhaseNightWolf {
		return
	}
	if s.game.ReachConsensus() {
		s.endWolfPhase()
	}
}

func (s *GameSession) endWolfPhase() {
	if s.game.Phase != domain.PhaseNightWolf {
		return
	}
	s.cancelTimers()

	if s.game.Night.KillTarget == "" {
		s.logger.Debug("werewolves reached no consensus", "round", s.game.Round)
	}
	if err := s.game.BeginWitch(); err != nil {
		s.logger.Error("failed to enter witch phase", "error", err)
		return
	}
	s.enterPhase()
	s.promptWitch()
}

// promptWitch tells the living human witch tonight's victim, once
func (s *GameSession) promptWitch() {
	for _, p := range s.game.AlivePlayers() {
		if p.Role != domain.RoleWitch || !p.Human {
			continue
		}
		payload := &domain.WitchPromptPayload{
			SaveAvailable:   s.game.Potions.SaveAvailable,
			PoisonAvailable: s.game.Potions.PoisonAvailable,
		}
		if victim, err := s.game.GetPlayer(s.game.Night.KillTarget); err == nil {
			payload.TargetID = victim.ID
			payload.TargetName = victim.Name
		}
		s.queueEvent(domain.NewPlayerEvent(domain.EventWitchPrompt, s.game.ID, p.ID, payload))
	}
}

func (s *GameSession) endWitchPhase() {
	if s.game.Phase != domain.PhaseNightWitch {
		return
	}
	s.cancelTimers()

	if err := s.game.BeginSeer(); err != nil {
		s.logger.Error("failed to enter seer phase", "error", err)
		return
	}
	s.enterPhase()
}

// endNight settles the night's deaths and starts the day
func (s *GameSession) endNight() {
	if s.game.Phase != domain.PhaseNightSeer {
		return
	}
	s.cancelTimers()

	dead, err := s.game.SettleNight()
	if err != nil {
		s.logger.Error("failed to settle night", "error", err)
		return
	}

	if len(dead) == 0 {
		s.systemMessage("Dawn breaks. It was a peaceful night")
	} else {
		names := make([]string, 0, len(dead))
		for _, p := range dead {
			names = append(names, p.Name)
		}
		s.systemMessage(fmt.Sprintf("Dawn breaks. Last night %s died", strings.Join(names, " and ")))
	}
	s.logger.Info("night settled", "round", s.game.Round, "deaths", len(dead))

	if s.endIfWon() {
		return
	}
	if err := s.game.BeginDay(); err != nil {
		s.logger.Error("failed to enter day", "error", err)
		return
	}
	s.enterPhase()
}

func (s *GameSession) endDay() {
	if s.game.Phase != domain.PhaseDay {
		return
	}
	s.cancelTimers()

	if err := s.game.BeginVoting(); err != nil {
		s.logger.Error("failed to enter voting", "error", err)
		return
	}
	s.systemMessage("Discussion is over. Vote for who to eliminate")
	s.enterPhase()
}

// endVoting applies the tally and starts the next night
func (s *GameSession) endVoting() {
	if s.game.Phase != domain.PhaseVoting {
		return
	}
	s.cancelTimers()

	_, eliminated, err := s.game.SettleVote()
	if err != nil {
		s.logger.Error("failed to settle vote", "error", err)
		return
	}

	if eliminated == nil {
		s.systemMessage("No majority was reached. Nobody is eliminated")
	} else {
		s.systemMessage(fmt.Sprintf("%s was voted out", eliminated.Name))
	}
	s.logger.Info("vote settled", "round", s.game.Round, "eliminated", eliminated != nil)

	if s.endIfWon() {
		return
	}
	if err := s.game.BeginNight(); err != nil {
		s.logger.Error("failed to enter night", "error", err)
		return
	}
	s.systemMessage("Night falls, everyone close your eyes")
	s.enterPhase()
	s.sendWolfUI()
}

// endIfWon moves to game over if a faction has won
func (s *GameSession) endIfWon() bool {
	if !s.game.Phase.InProgress() {
		return false
	}
	winner, over := s.game.CheckWinner()
	if !over {
		return false
	}

	s.cancelTimers()
	if err := s.game.EndGame(winner); err != nil {
		s.logger.Error("failed to end game", "error", err)
		return false
	}

	payload := &domain.GameOverPayload{Winner: winner, Round: s.game.Round}
	if s.settings.RevealRolesOnGameOver {
		payload.Players = s.game.PlayerInfoList(true)
	}
	s.queueEvent(domain.NewEvent(domain.EventGameOver, s.game.ID, payload))
	s.systemMessage(fmt.Sprintf("Game over: the %s win", winner))
	s.logger.Info("game over", "winner", winner, "rounds", s.game.Round)

	s.record(domain.NewGameRecord(s.game))
	s.enterPhase()
	return true
}

func (s *GameSession) resetToLobby() {
	if s.game.Phase != domain.PhaseGameOver {
		return
	}
	s.cancelTimers()

	if err := s.game.ResetToLobby(); err != nil {
		s.logger.Error("failed to reset room", "error", err)
		return
	}
	s.epoch++
	s.broadcastRoster()
}

// record archives a finished game without holding up the session
func (s *GameSession) record(rec *domain.GameRecord) {
	if s.recorder == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := s.recorder.RecordGame(ctx, rec); err != nil {
			s.logger.Error("failed to record game", "error", err)
		}
	}()
}

// Notifications. Callers hold mu.

func (s *GameSession) broadcastRoster() {
	s.queueEvent(domain.NewEvent(domain.EventUpdatePlayers, s.game.ID, s.game.Snapshot()))
}

func (s *GameSession) systemMessage(text string) {
	s.queueEvent(domain.NewEvent(domain.EventReceiveMessage, s.game.ID, &domain.MessagePayload{
		Name:     domain.SystemName,
		Text:     text,
		IsSystem: true,
	}))
}

func (s *GameSession) privateMessage(playerID, text string) {
	s.queueEvent(domain.NewPlayerEvent(domain.EventReceiveMessage, s.game.ID, playerID, &domain.MessagePayload{
		Name:     domain.SystemName,
		Text:     text,
		IsSystem: true,
	}))
}

// sendWolfUI sends the pack's nominations to every living human werewolf
func (s *GameSession) sendWolfUI() {
	if s.game.Phase != domain.PhaseNightWolf {
		return
	}
	payload := &domain.WolfUIPayload{Nominations: s.game.WolfNominations()}
	for _, p := range s.game.AlivePlayers() {
		if p.IsWerewolf() && p.Human {
			s.queueEvent(domain.NewPlayerEvent(domain.EventUpdateWolfUI, s.game.ID, p.ID, payload))
		}
	}
}

func (s *GameSession) announceSkip(playerID string) {
	player, _ := s.game.GetPlayer(playerID)
	count, required := s.game.SkipProgress()
	s.systemMessage(fmt.Sprintf("%s votes to skip the discussion (%d/%d)", player.Name, count, required))
}

func (s *GameSession) announceVote(playerID string) {
	player, _ := s.game.GetPlayer(playerID)
	alive := s.game.AliveIDs()
	voted := 0
	for _, id := range alive {
		if s.game.Ledger.HasVoted(id) {
			voted++
		}
	}
	s.systemMessage(fmt.Sprintf("%s has voted (%d/%d)", player.Name, voted, len(alive)))
}

// queueEvent adds an event to the broadcast queue
func (s *GameSession) queueEvent(event *domain.GameEvent) {
	s.enqueue(outbound{event: event})
}

func (s *GameSession) enqueue(out outbound) {
	select {
	case s.events <- out:
	default:
		s.logger.Warn("event queue full, dropping event", "type", out.event.Type)
	}
}

// eventLoop processes events and broadcasts to clients
func (s *GameSession) eventLoop() {
	for {
		select {
		case <-s.done:
			return
		case out := <-s.events:
			if out.client != nil {
				if err := out.client.Send(out.event); err != nil {
					s.logger.Debug("failed to send to client", "playerID", out.event.PlayerID, "error", err)
				}
				continue
			}
			s.broadcastEvent(out.event)
		}
	}
}

// broadcastEvent sends an event to appropriate clients
func (s *GameSession) broadcastEvent(event *domain.GameEvent) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	// If player-specific, send only to that player
	if event.IsPrivate() {
		if client, ok := s.clients[event.PlayerID]; ok {
			if err := client.Send(event); err != nil {
				s.logger.Debug("failed to send to client", "playerID", event.PlayerID, "error", err)
			}
		}
		return
	}

	// Broadcast to all clients
	for playerID, client := range s.clients {
		if err := client.Send(event); err != nil {
			s.logger.Debug("failed to send to client", "playerID", playerID, "error", err)
		}
	}
}

// Close shuts down the session. Armed timers are cancelled so no
// continuation runs against a destroyed room.
func (s *GameSession) Close() {
	s.mu.Lock()
	s.closed = true
	s.cancelTimers()
	s.mu.Unlock()

	s.closeOnce.Do(func() { close(s.done) })

	s.clientsMu.Lock()
	s.clients = make(map[string]ClientConnection)
	s.clientsMu.Unlock()
}
