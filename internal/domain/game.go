package domain

import (
	"strings"
	"time"
)

// Rand is the randomness a game needs. *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Float64() float64
	Shuffle(n int, swap func(i, j int))
}

// Game represents a room and the game being played in it. Game is not
// safe for concurrent use; the owning session serializes access.
type Game struct {
	ID        string        `json:"id"`
	HostID    string        `json:"hostId"`
	Players   []*Player     `json:"players"` // seat order
	Phase     Phase         `json:"phase"`
	Catalog   Catalog       `json:"catalog"`
	BotFill   bool          `json:"botFill"` // bots take missing seats at start
	Round     int           `json:"round"`
	Night     *NightScratch `json:"-"`
	Ledger    *VoteLedger   `json:"-"`
	Skips     SkipVotes     `json:"-"`
	Potions   Potions       `json:"potions"`
	Winner    Faction       `json:"winner,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

// NewGame creates a new game with the given ID
func NewGame(id string, catalog Catalog) *Game {
	return &Game{
		ID:        id,
		Players:   make([]*Player, 0, catalog.MaxPlayers),
		Phase:     PhaseWaiting,
		Catalog:   catalog,
		CreatedAt: time.Now(),
	}
}

// GetPlayer returns a player by ID
func (g *Game) GetPlayer(playerID string) (*Player, error) {
	for _, p := range g.Players {
		if p.ID == playerID {
			return p, nil
		}
	}
	return nil, ErrPlayerNotFound
}

// HasName reports whether any seat, alive or not, uses name
func (g *Game) HasName(name string) bool {
	for _, p := range g.Players {
		if p.Name == name {
			return true
		}
	}
	return false
}

// AddPlayer seats a human. The first player to join becomes host.
func (g *Game) AddPlayer(playerID, name string) (*Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if _, err := g.GetPlayer(playerID); err == nil {
		return nil, ErrAlreadyJoined
	}
	if g.HasName(name) {
		return nil, ErrNameTaken
	}
	if g.Phase != PhaseWaiting {
		return nil, ErrGameInProgress
	}
	if len(g.Players) >= g.Catalog.MaxPlayers {
		return nil, ErrGameFull
	}

	player := NewPlayer(playerID, name)
	g.Players = append(g.Players, player)
	g.ensureHost()

	return player, nil
}

// AddBot seats a synthetic player
func (g *Game) AddBot(playerID, name string) (*Player, error) {
	if g.Phase != PhaseWaiting {
		return nil, ErrGameInProgress
	}
	if g.HasName(name) {
		return nil, ErrNameTaken
	}
	if len(g.Players) >= g.Catalog.MaxPlayers {
		return nil, ErrGameFull
	}

	bot := NewBot(playerID, name)
	g.Players = append(g.Players, bot)
	return bot, nil
}

// MissingSeats returns how many seats are short of the minimum table
func (g *Game) MissingSeats() int {
	return max(0, g.Catalog.MinPlayers-len(g.Players))
}

// Leave handles a departing player. In the lobby the seat is removed;
// mid-game the player forfeits and stays seated as dead. Returns true if
// the departure killed the player.
func (g *Game) Leave(playerID string) (bool, error) {
	player, err := g.GetPlayer(playerID)
	if err != nil {
		return false, err
	}

	forfeited := false
	switch {
	case g.Phase == PhaseWaiting:
		g.remove(playerID)
	case g.Phase.InProgress() && player.Alive:
		player.Alive = false
		forfeited = true
		fallthrough
	default:
		player.Disconnect()
	}

	g.ensureHost()
	return forfeited, nil
}

// Kick removes a player from the lobby (host only)
func (g *Game) Kick(hostID, targetID string) error {
	if !g.IsHost(hostID) {
		return ErrNotHost
	}
	if g.Phase != PhaseWaiting {
		return ErrInvalidPhase
	}
	if hostID == targetID {
		return ErrCannotKickSelf
	}
	if _, err := g.GetPlayer(targetID); err != nil {
		return err
	}

	g.remove(targetID)
	g.ensureHost()
	return nil
}

// TransferHost hands the host role to another human (host only)
func (g *Game) TransferHost(hostID, targetID string) error {
	if !g.IsHost(hostID) {
		return ErrNotHost
	}
	if g.Phase != PhaseWaiting {
		return ErrInvalidPhase
	}
	target, err := g.GetPlayer(targetID)
	if err != nil {
		return err
	}
	if !target.Human || !target.IsConnected() {
		return ErrTargetIsBot
	}

	g.setHost(targetID)
	return nil
}

// IsHost checks if the given player is the host
func (g *Game) IsHost(playerID string) bool {
	return playerID != "" && g.HostID == playerID
}

// ConnectedHumans counts humans still attached to the room
func (g *Game) ConnectedHumans() int {
	n := 0
	for _, p := range g.Players {
		if p.Human && p.IsConnected() {
			n++
		}
	}
	return n
}

// CanStart checks if the host may start now. With bot fill any
// non-empty lobby can start.
func (g *Game) CanStart() bool {
	if g.Phase != PhaseWaiting {
		return false
	}
	return g.BotFill || len(g.Players) >= g.Catalog.MinPlayers
}

// Start deals roles and begins the first night (host only)
func (g *Game) Start(hostID string, rng Rand) error {
	if !g.IsHost(hostID) {
		return ErrNotHost
	}
	if g.Phase != PhaseWaiting {
		return ErrInvalidPhase
	}

	roles, err := g.Catalog.Deal(len(g.Players))
	if err != nil {
		return err
	}
	rng.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})

	for i, p := range g.Players {
		p.Role = roles[i]
		p.Alive = true
	}
	g.Potions = FreshPotions()
	g.Round = 0
	g.Winner = ""

	return g.BeginNight()
}

// BeginNight moves to the werewolf sub-phase with a fresh night
func (g *Game) BeginNight() error {
	if err := g.transition(PhaseNightWolf); err != nil {
		return err
	}
	g.Round++
	g.Night = NewNightScratch()
	g.Ledger = nil
	g.Skips = nil
	return nil
}

// Nominate records a werewolf's choice of victim
func (g *Game) Nominate(wolfID, targetID string) error {
	if _, err := g.actor(wolfID, PhaseNightWolf, RoleWerewolf); err != nil {
		return err
	}
	if _, err := g.aliveTarget(targetID); err != nil {
		return err
	}

	g.Night.Nominate(wolfID, targetID)
	return nil
}

// Confirm locks in a werewolf's nomination
func (g *Game) Confirm(wolfID string) error {
	if _, err := g.actor(wolfID, PhaseNightWolf, RoleWerewolf); err != nil {
		return err
	}
	return g.Night.Confirm(wolfID)
}

// ReachConsensus fixes tonight's victim once every living werewolf is
// locked in on the same target.
func (g *Game) ReachConsensus() bool {
	if g.Phase != PhaseNightWolf || g.Night == nil {
		return false
	}
	target, ok := g.Night.Consensus(g.AliveWerewolfIDs())
	if ok {
		g.Night.KillTarget = target
	}
	return ok
}

// BeginWitch moves to the witch sub-phase. Without consensus the victim
// stays empty and nobody is attacked tonight.
func (g *Game) BeginWitch() error {
	return g.transition(PhaseNightWitch)
}

// Witch applies a potion
func (g *Game) Witch(witchID string, action WitchAction, targetID string) error {
	if _, err := g.actor(witchID, PhaseNightWitch, RoleWitch); err != nil {
		return err
	}

	switch action {
	case WitchSave:
		if !g.Potions.SaveAvailable {
			return ErrSavePotionUsed
		}
		if g.Night.KillTarget == "" || targetID != g.Night.KillTarget {
			return ErrNotKillTarget
		}
		g.Night.SaveTarget = targetID
		g.Potions.SaveAvailable = false
	case WitchPoison:
		if !g.Potions.PoisonAvailable {
			return ErrPoisonPotionUsed
		}
		if _, err := g.aliveTarget(targetID); err != nil {
			return err
		}
		g.Night.PoisonTarget = targetID
		g.Potions.PoisonAvailable = false
	default:
		return ErrUnknownWitchAction
	}
	return nil
}

// BeginSeer moves to the seer sub-phase
func (g *Game) BeginSeer() error {
	return g.transition(PhaseNightSeer)
}

// Inspect returns the player the seer looks at. It changes nothing.
func (g *Game) Inspect(seerID, targetID string) (*Player, error) {
	if _, err := g.actor(seerID, PhaseNightSeer, RoleSeer); err != nil {
		return nil, err
	}
	return g.GetPlayer(targetID)
}

// SettleNight kills tonight's victims and returns them in order
func (g *Game) SettleNight() ([]*Player, error) {
	if g.Phase != PhaseNightSeer || g.Night == nil {
		return nil, ErrInvalidPhase
	}

	dead := make([]*Player, 0, 2)
	for _, id := range g.Night.Deaths() {
		p, err := g.GetPlayer(id)
		if err != nil || !p.Alive {
			continue
		}
		p.Alive = false
		dead = append(dead, p)
	}
	return dead, nil
}

// CheckWinner evaluates the living roster
func (g *Game) CheckWinner() (Faction, bool) {
	return EvaluateWinner(g.Players)
}

// BeginDay moves to the discussion phase with no skip votes
func (g *Game) BeginDay() error {
	if err := g.transition(PhaseDay); err != nil {
		return err
	}
	g.Skips = make(SkipVotes)
	return nil
}

// SkipVote records a living player's wish to end the day. It reports
// false when the player had already asked.
func (g *Game) SkipVote(playerID string) (bool, error) {
	player, err := g.GetPlayer(playerID)
	if err != nil {
		return false, err
	}
	if g.Phase != PhaseDay {
		return false, ErrInvalidPhase
	}
	if !player.Alive {
		return false, ErrNotAlive
	}

	return g.Skips.Add(playerID), nil
}

// SkipProgress returns the skip votes of living players and the quorum
func (g *Game) SkipProgress() (int, int) {
	alive := g.AliveIDs()
	return g.Skips.CountAmong(alive), SkipQuorum(len(alive))
}

// SkipQuorumReached checks if the day can end early
func (g *Game) SkipQuorumReached() bool {
	if g.Phase != PhaseDay {
		return false
	}
	count, required := g.SkipProgress()
	return count >= required
}

// BeginVoting moves to the elimination vote with an empty ledger
func (g *Game) BeginVoting() error {
	if err := g.transition(PhaseVoting); err != nil {
		return err
	}
	g.Ledger = NewVoteLedger()
	return nil
}

// CastVote records or replaces a living player's nomination
func (g *Game) CastVote(voterID, targetID string) error {
	voter, err := g.GetPlayer(voterID)
	if err != nil {
		return err
	}
	if g.Phase != PhaseVoting {
		return ErrInvalidPhase
	}
	if !voter.Alive {
		return ErrNotAlive
	}
	if _, err := g.aliveTarget(targetID); err != nil {
		return err
	}

	g.Ledger.Cast(voterID, targetID)
	return nil
}

// AllVoted checks if every living player has a nomination
func (g *Game) AllVoted() bool {
	if g.Phase != PhaseVoting || g.Ledger == nil {
		return false
	}
	return g.Ledger.AllVoted(g.AliveIDs())
}

// SettleVote tallies the ledger and kills the player with a strict majority
func (g *Game) SettleVote() (TallyResult, *Player, error) {
	if g.Phase != PhaseVoting || g.Ledger == nil {
		return TallyResult{}, nil, ErrInvalidPhase
	}

	alive := g.AliveIDs()
	result := g.Ledger.Tally(len(alive), g.isAlive)
	if result.Eliminated == "" {
		return result, nil, nil
	}

	eliminated, err := g.GetPlayer(result.Eliminated)
	if err != nil {
		return result, nil, err
	}
	eliminated.Alive = false
	return result, eliminated, nil
}

// EndGame records the winner and moves to game over
func (g *Game) EndGame(winner Faction) error {
	if err := g.transition(PhaseGameOver); err != nil {
		return err
	}
	g.Winner = winner
	return nil
}

// ResetToLobby returns the room to the lobby. Bots and departed players
// lose their seats; everyone else is reset for a new game.
func (g *Game) ResetToLobby() error {
	if err := g.transition(PhaseWaiting); err != nil {
		return err
	}

	kept := g.Players[:0]
	for _, p := range g.Players {
		if p.Human && p.IsConnected() {
			p.ResetForLobby()
			kept = append(kept, p)
		}
	}
	clear(g.Players[len(kept):])
	g.Players = kept

	g.Round = 0
	g.Night = nil
	g.Ledger = nil
	g.Skips = nil
	g.Winner = ""
	g.ensureHost()
	return nil
}

// AliveIDs returns the IDs of living players in seat order
func (g *Game) AliveIDs() []string {
	ids := make([]string, 0, len(g.Players))
	for _, p := range g.Players {
		if p.Alive {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// AlivePlayers returns living players in seat order
func (g *Game) AlivePlayers() []*Player {
	alive := make([]*Player, 0, len(g.Players))
	for _, p := range g.Players {
		if p.Alive {
			alive = append(alive, p)
		}
	}
	return alive
}

// AliveWerewolfIDs returns the IDs of living werewolves in seat order
func (g *Game) AliveWerewolfIDs() []string {
	ids := make([]string, 0, 2)
	for _, p := range g.Players {
		if p.Alive && p.IsWerewolf() {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// PlayerInfoList returns the roster, with roles when reveal is set
func (g *Game) PlayerInfoList(reveal bool) []PlayerInfo {
	players := make([]PlayerInfo, 0, len(g.Players))
	for _, p := range g.Players {
		if reveal {
			players = append(players, p.ToRevealedInfo())
		} else {
			players = append(players, p.ToInfo())
		}
	}
	return players
}

// Snapshot returns the roster broadcast sent after every change
func (g *Game) Snapshot() *RosterPayload {
	return &RosterPayload{
		Players:    g.PlayerInfoList(false),
		Status:     g.Phase,
		HostID:     g.HostID,
		Round:      g.Round,
		CanStart:   g.CanStart(),
		MinPlayers: g.Catalog.MinPlayers,
	}
}

// WolfNominations returns each living werewolf's current pick
func (g *Game) WolfNominations() []WolfNomination {
	noms := make([]WolfNomination, 0, 2)
	if g.Night == nil {
		return noms
	}
	for _, p := range g.Players {
		if !p.Alive || !p.IsWerewolf() {
			continue
		}
		nom := WolfNomination{WolfID: p.ID, WolfName: p.Name, Locked: g.Night.Locked[p.ID]}
		if targetID, ok := g.Night.Nominations[p.ID]; ok {
			nom.TargetID = targetID
			if target, err := g.GetPlayer(targetID); err == nil {
				nom.TargetName = target.Name
			}
		}
		noms = append(noms, nom)
	}
	return noms
}

func (g *Game) transition(to Phase) error {
	if !g.Phase.CanTransitionTo(to) {
		return ErrInvalidTransition
	}
	g.Phase = to
	return nil
}

// actor resolves a player allowed to use a role ability in phase
func (g *Game) actor(playerID string, phase Phase, role Role) (*Player, error) {
	player, err := g.GetPlayer(playerID)
	if err != nil {
		return nil, err
	}
	if g.Phase != phase {
		return nil, ErrInvalidPhase
	}
	if player.Role != role {
		return nil, ErrWrongRole
	}
	if !player.Alive {
		return nil, ErrNotAlive
	}
	return player, nil
}

func (g *Game) aliveTarget(targetID string) (*Player, error) {
	target, err := g.GetPlayer(targetID)
	if err != nil {
		return nil, err
	}
	if !target.Alive {
		return nil, ErrTargetNotAlive
	}
	return target, nil
}

func (g *Game) isAlive(playerID string) bool {
	p, err := g.GetPlayer(playerID)
	return err == nil && p.Alive
}

func (g *Game) remove(playerID string) {
	for i, p := range g.Players {
		if p.ID == playerID {
			g.Players = append(g.Players[:i], g.Players[i+1:]...)
			return
		}
	}
}

// ensureHost keeps exactly one host: the current one if still a connected
// human, otherwise the first connected human in seat order.
func (g *Game) ensureHost() {
	if host, err := g.GetPlayer(g.HostID); err == nil && host.Human && host.IsConnected() {
		g.setHost(g.HostID)
		return
	}

	for _, p := range g.Players {
		if p.Human && p.IsConnected() {
			g.setHost(p.ID)
			return
		}
	}
	g.setHost("")
}

func (g *Game) setHost(playerID string) {
	g.HostID = playerID
	for _, p := range g.Players {
		p.Host = p.ID == playerID
	}
}
