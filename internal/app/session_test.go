package app

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"werewolf/internal/domain"
)

// fixedRand deals roles in catalog order and always picks the first candidate
type fixedRand struct {
	f float64
}

func (r fixedRand) Intn(int) int                { return 0 }
func (r fixedRand) Float64() float64            { return r.f }
func (r fixedRand) Shuffle(int, func(i, j int)) {}

type recordingClient struct {
	playerID string

	mu     sync.Mutex
	events []*domain.GameEvent
}

func (c *recordingClient) Send(message interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if event, ok := message.(*domain.GameEvent); ok {
		c.events = append(c.events, event)
	}
	return nil
}

func (c *recordingClient) GetPlayerID() string { return c.playerID }
func (c *recordingClient) Close() error        { return nil }

func (c *recordingClient) ofType(eventType domain.EventType) []*domain.GameEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*domain.GameEvent
	for _, e := range c.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (c *recordingClient) hasMessage(text string) bool {
	for _, e := range c.ofType(domain.EventReceiveMessage) {
		if msg, ok := e.Payload.(*domain.MessagePayload); ok && msg.Text == text {
			return true
		}
	}
	return false
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testSettings never fires timers or bots on its own
func testSettings() Settings {
	s := DefaultSettings()
	for _, d := range []*time.Duration{
		&s.NightWolfDuration, &s.NightWitchDuration, &s.NightSeerDuration,
		&s.DayDuration, &s.VotingDuration, &s.GameOverDuration, &s.BotDelay,
	} {
		*d = time.Hour
	}
	s.TickInterval = 0
	s.NewRand = func() domain.Rand { return fixedRand{f: 0.99} }
	return s
}

var names = []string{"Alice", "Bob", "Carol", "Dave", "Erin", "Frank"}

// newTestSession seats humans p1..pN. Once started with six humans,
// p1 and p2 are werewolves, p3 the seer, p4 the witch.
func newTestSession(t *testing.T, settings Settings, humans int) (*GameSession, map[string]*recordingClient) {
	t.Helper()
	s := NewGameSession("room", settings, nil, testLogger())
	t.Cleanup(s.Close)

	clients := make(map[string]*recordingClient)
	for i := 0; i < humans; i++ {
		id := "p" + string(rune('1'+i))
		clients[id] = &recordingClient{playerID: id}
		_, err := s.Join(id, names[i], clients[id])
		require.NoError(t, err)
	}
	return s, clients
}

func startedSession(t *testing.T) (*GameSession, map[string]*recordingClient) {
	t.Helper()
	s, clients := newTestSession(t, testSettings(), 6)
	require.NoError(t, s.StartGame("p1"))
	return s, clients
}

// advance runs the current phase's timeout as the timer would
func advance(s *GameSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expire()
}

func alive(s *GameSession, playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.game.GetPlayer(playerID)
	return err == nil && p.Alive
}

func TestJoinFirstPlayerIsHost(t *testing.T) {
	s, clients := newTestSession(t, testSettings(), 2)

	snap := s.Snapshot()
	assert.Equal(t, "p1", snap.HostID)
	assert.Equal(t, domain.PhaseWaiting, snap.Status)
	assert.Len(t, snap.Players, 2)

	require.Eventually(t, func() bool {
		return len(clients["p2"].ofType(domain.EventJoinedRoom)) == 1
	}, time.Second, 5*time.Millisecond)
	joined := clients["p2"].ofType(domain.EventJoinedRoom)[0].Payload.(*domain.JoinedRoomPayload)
	assert.False(t, joined.Host)
	assert.Equal(t, "room", joined.RoomID)
}

func TestJoinRejections(t *testing.T) {
	s, _ := newTestSession(t, testSettings(), 2)

	_, err := s.Join("p9", "Alice", nil)
	assert.ErrorIs(t, err, domain.ErrNameTaken)

	_, err = s.Join("p1", "Another", nil)
	assert.ErrorIs(t, err, domain.ErrAlreadyJoined)

	require.NoError(t, s.StartGame("p1"))
	_, err = s.Join("p9", "Late", nil)
	assert.ErrorIs(t, err, domain.ErrGameInProgress)
	assert.False(t, s.CanJoin())
}

func TestStartGameRequiresHost(t *testing.T) {
	s, _ := newTestSession(t, testSettings(), 2)

	assert.ErrorIs(t, s.StartGame("p2"), domain.ErrNotHost)
	assert.Equal(t, domain.PhaseWaiting, s.GetPhase())
}

func TestStartGameWithoutBotFill(t *testing.T) {
	settings := testSettings()
	settings.BotFill = false
	s, _ := newTestSession(t, settings, 3)

	assert.ErrorIs(t, s.StartGame("p1"), domain.ErrNotEnoughPlayers)
	assert.Equal(t, domain.PhaseWaiting, s.GetPhase())
	assert.Equal(t, 3, s.GetPlayerCount())
}

func TestLobbyCanStartMatchesStartGame(t *testing.T) {
	tests := []struct {
		name    string
		botFill bool
	}{
		{"bot fill", true},
		{"humans only", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := testSettings()
			settings.BotFill = tt.botFill
			s, _ := newTestSession(t, settings, 1)

			canStart := s.Snapshot().CanStart
			err := s.StartGame("p1")
			assert.Equal(t, canStart, err == nil, "roster canStart=%v but StartGame returned %v", canStart, err)
			assert.Equal(t, tt.botFill, canStart)
		})
	}
}

func TestStartGameFillsBotsAndAssignsRoles(t *testing.T) {
	s, clients := newTestSession(t, testSettings(), 2)
	require.NoError(t, s.StartGame("p1"))

	snap := s.Snapshot()
	assert.Equal(t, domain.PhaseNightWolf, snap.Status)
	assert.Equal(t, 1, snap.Round)
	require.Len(t, snap.Players, 6)
	bots := 0
	for _, p := range snap.Players {
		if p.Bot {
			bots++
			assert.Empty(t, p.Role, "roles stay hidden in the roster")
		}
	}
	assert.Equal(t, 4, bots)

	require.Eventually(t, func() bool {
		return len(clients["p1"].ofType(domain.EventAssignRole)) == 1 &&
			len(clients["p2"].ofType(domain.EventAssignRole)) == 1
	}, time.Second, 5*time.Millisecond)

	wolf := clients["p1"].ofType(domain.EventAssignRole)[0].Payload.(*domain.RoleAssignedPayload)
	assert.Equal(t, domain.RoleWerewolf, wolf.Role)
	require.Len(t, wolf.Packmate, 1)
	assert.Equal(t, "p2", wolf.Packmate[0].ID)
}

func TestWolfConsensusAdvancesToWitch(t *testing.T) {
	s, clients := startedSession(t)

	require.NoError(t, s.WolfKill("p1", "p4"))
	require.NoError(t, s.WolfKill("p2", "p4"))
	require.NoError(t, s.WolfConfirm("p1"))
	assert.Equal(t, domain.PhaseNightWolf, s.GetPhase())

	require.NoError(t, s.WolfConfirm("p2"))
	assert.Equal(t, domain.PhaseNightWitch, s.GetPhase())

	require.Eventually(t, func() bool {
		return len(clients["p4"].ofType(domain.EventWitchPrompt)) == 1
	}, time.Second, 5*time.Millisecond)
	prompt := clients["p4"].ofType(domain.EventWitchPrompt)[0].Payload.(*domain.WitchPromptPayload)
	assert.Equal(t, "p4", prompt.TargetID)
	assert.True(t, prompt.SaveAvailable)

	assert.Empty(t, clients["p5"].ofType(domain.EventUpdateWolfUI), "villagers never see the pack")
	assert.NotEmpty(t, clients["p1"].ofType(domain.EventUpdateWolfUI))
}

func TestWolfRejections(t *testing.T) {
	s, _ := startedSession(t)

	assert.ErrorIs(t, s.WolfKill("p3", "p4"), domain.ErrWrongRole)
	assert.ErrorIs(t, s.WolfConfirm("p1"), domain.ErrNoNomination)
	assert.ErrorIs(t, s.WolfKill("p1", "ghost"), domain.ErrPlayerNotFound)
	assert.ErrorIs(t, s.CastVote("p1", "p2"), domain.ErrInvalidPhase)
}

func TestRenominationRevokesLock(t *testing.T) {
	s, _ := startedSession(t)

	require.NoError(t, s.WolfKill("p1", "p4"))
	require.NoError(t, s.WolfConfirm("p1"))
	require.NoError(t, s.WolfKill("p2", "p4"))
	require.NoError(t, s.WolfKill("p1", "p5"))
	require.NoError(t, s.WolfConfirm("p2"))

	assert.Equal(t, domain.PhaseNightWolf, s.GetPhase())
}

func TestWitchSaveGivesPeacefulNight(t *testing.T) {
	s, clients := startedSession(t)

	require.NoError(t, s.WolfKill("p1", "p4"))
	require.NoError(t, s.WolfKill("p2", "p4"))
	require.NoError(t, s.WolfConfirm("p1"))
	require.NoError(t, s.WolfConfirm("p2"))

	assert.ErrorIs(t, s.WitchAction("p4", domain.WitchSave, "p5"), domain.ErrNotKillTarget)
	require.NoError(t, s.WitchAction("p4", domain.WitchSave, "p4"))
	assert.ErrorIs(t, s.WitchAction("p4", domain.WitchSave, "p4"), domain.ErrSavePotionUsed)

	advance(s)
	assert.Equal(t, domain.PhaseNightSeer, s.GetPhase())
	advance(s)
	assert.Equal(t, domain.PhaseDay, s.GetPhase())

	assert.True(t, alive(s, "p4"))
	require.Eventually(t, func() bool {
		return clients["p6"].hasMessage("Dawn breaks. It was a peaceful night")
	}, time.Second, 5*time.Millisecond)
}

func TestNightWithoutConsensusKillsNobody(t *testing.T) {
	s, _ := startedSession(t)

	require.NoError(t, s.WolfKill("p1", "p4"))
	require.NoError(t, s.WolfKill("p2", "p5"))
	advance(s)
	advance(s)
	advance(s)

	assert.Equal(t, domain.PhaseDay, s.GetPhase())
	for _, id := range []string{"p1", "p2", "p3", "p4", "p5", "p6"} {
		assert.True(t, alive(s, id), id)
	}
}

func TestPoisonAndKillBothDie(t *testing.T) {
	s, clients := startedSession(t)

	require.NoError(t, s.WolfKill("p1", "p5"))
	require.NoError(t, s.WolfKill("p2", "p5"))
	require.NoError(t, s.WolfConfirm("p1"))
	require.NoError(t, s.WolfConfirm("p2"))
	require.NoError(t, s.WitchAction("p4", domain.WitchPoison, "p6"))
	advance(s)
	advance(s)

	assert.False(t, alive(s, "p5"))
	assert.False(t, alive(s, "p6"))
	require.Eventually(t, func() bool {
		return clients["p1"].hasMessage("Dawn breaks. Last night Erin and Frank died")
	}, time.Second, 5*time.Millisecond)
}

func TestSeerCheckIsPrivate(t *testing.T) {
	s, clients := startedSession(t)
	advance(s)
	advance(s)

	assert.ErrorIs(t, s.CheckRole("p1", "p2"), domain.ErrWrongRole)
	require.NoError(t, s.CheckRole("p3", "p2"))
	require.NoError(t, s.CheckRole("p3", "p5"))

	require.Eventually(t, func() bool {
		return len(clients["p3"].ofType(domain.EventCheckResult)) == 2
	}, time.Second, 5*time.Millisecond)
	results := clients["p3"].ofType(domain.EventCheckResult)
	assert.Equal(t, domain.FactionWolves, results[0].Payload.(*domain.CheckResultPayload).Faction)
	assert.Equal(t, domain.FactionVillagers, results[1].Payload.(*domain.CheckResultPayload).Faction)
	assert.Empty(t, clients["p1"].ofType(domain.EventCheckResult))
	assert.Equal(t, domain.PhaseNightSeer, s.GetPhase(), "checking does not end the phase")
}

// toVoting moves a fresh game through a night where p5 dies
func toVoting(t *testing.T, s *GameSession) {
	t.Helper()
	require.NoError(t, s.WolfKill("p1", "p5"))
	require.NoError(t, s.WolfKill("p2", "p5"))
	require.NoError(t, s.WolfConfirm("p1"))
	require.NoError(t, s.WolfConfirm("p2"))
	advance(s)
	advance(s)
	require.Equal(t, domain.PhaseDay, s.GetPhase())
	advance(s)
	require.Equal(t, domain.PhaseVoting, s.GetPhase())
}

func TestVoteMajorityEliminates(t *testing.T) {
	s, _ := startedSession(t)
	toVoting(t, s)

	require.NoError(t, s.CastVote("p1", "p2"))
	require.NoError(t, s.CastVote("p3", "p2"))
	require.NoError(t, s.CastVote("p4", "p2"))
	assert.ErrorIs(t, s.CastVote("p5", "p2"), domain.ErrNotAlive)
	advance(s)

	assert.False(t, alive(s, "p2"))
	assert.Equal(t, domain.PhaseNightWolf, s.GetPhase())
	assert.Equal(t, 2, s.Snapshot().Round)
}

func TestVoteSplitEliminatesNobody(t *testing.T) {
	s, clients := startedSession(t)
	toVoting(t, s)

	require.NoError(t, s.CastVote("p1", "p2"))
	require.NoError(t, s.CastVote("p2", "p2"))
	require.NoError(t, s.CastVote("p3", "p4"))
	require.NoError(t, s.CastVote("p4", "p4"))
	require.NoError(t, s.CastVote("p6", "p1"))

	// everyone alive has voted, so voting ends without the timer
	assert.Equal(t, domain.PhaseNightWolf, s.GetPhase())
	for _, id := range []string{"p1", "p2", "p3", "p4", "p6"} {
		assert.True(t, alive(s, id), id)
	}
	require.Eventually(t, func() bool {
		return clients["p3"].hasMessage("No majority was reached. Nobody is eliminated")
	}, time.Second, 5*time.Millisecond)
}

func TestSkipQuorumEndsDay(t *testing.T) {
	s, _ := startedSession(t)
	advance(s)
	advance(s)
	advance(s)
	require.Equal(t, domain.PhaseDay, s.GetPhase())

	for _, id := range []string{"p1", "p2", "p3", "p4"} {
		require.NoError(t, s.CastSkipVote(id))
	}
	require.NoError(t, s.CastSkipVote("p4"), "repeated skip is a no-op")
	assert.Equal(t, domain.PhaseDay, s.GetPhase())

	require.NoError(t, s.CastSkipVote("p5"))
	assert.Equal(t, domain.PhaseVoting, s.GetPhase())
}

func TestRepeatedSkipIsAnnouncedOnce(t *testing.T) {
	s, clients := startedSession(t)
	advance(s)
	advance(s)
	advance(s)
	require.Equal(t, domain.PhaseDay, s.GetPhase())

	for i := 0; i < 3; i++ {
		require.NoError(t, s.CastSkipVote("p3"))
	}
	require.NoError(t, s.CastSkipVote("p4"))

	const first = "Carol votes to skip the discussion (1/5)"
	require.Eventually(t, func() bool {
		return clients["p1"].hasMessage("Dave votes to skip the discussion (2/5)")
	}, time.Second, 5*time.Millisecond)

	announced := 0
	for _, e := range clients["p1"].ofType(domain.EventReceiveMessage) {
		if msg := e.Payload.(*domain.MessagePayload); msg.Text == first {
			announced++
		}
	}
	assert.Equal(t, 1, announced)
}

func TestLastWolfForfeitEndsGame(t *testing.T) {
	s, clients := startedSession(t)
	advance(s)
	advance(s)
	advance(s)

	remaining, err := s.Leave("p1")
	require.NoError(t, err)
	assert.Equal(t, 5, remaining)
	assert.Equal(t, domain.PhaseDay, s.GetPhase())

	_, err = s.Leave("p2")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseGameOver, s.GetPhase())

	require.Eventually(t, func() bool {
		return len(clients["p3"].ofType(domain.EventGameOver)) == 1
	}, time.Second, 5*time.Millisecond)
	over := clients["p3"].ofType(domain.EventGameOver)[0].Payload.(*domain.GameOverPayload)
	assert.Equal(t, domain.FactionVillagers, over.Winner)
	require.Len(t, over.Players, 6)
	assert.Equal(t, domain.RoleWerewolf, over.Players[0].Role)
}

func TestGameOverResetsToLobby(t *testing.T) {
	s, clients := newTestSession(t, testSettings(), 3)
	require.NoError(t, s.StartGame("p1"))

	// p1 and p2 are the pack; once both leave the villagers win
	_, err := s.Leave("p1")
	require.NoError(t, err)
	_, err = s.Leave("p2")
	require.NoError(t, err)
	require.Equal(t, domain.PhaseGameOver, s.GetPhase())

	advance(s)
	snap := s.Snapshot()
	assert.Equal(t, domain.PhaseWaiting, snap.Status)
	require.Len(t, snap.Players, 1)
	assert.Equal(t, "p3", snap.HostID)
	assert.True(t, snap.Players[0].Alive)
	assert.Equal(t, 0, snap.Round)

	require.Eventually(t, func() bool {
		return len(clients["p3"].ofType(domain.EventGameOver)) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestStaleExpiryIsIgnored(t *testing.T) {
	s, _ := startedSession(t)

	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	require.NoError(t, s.WolfKill("p1", "p4"))
	require.NoError(t, s.WolfKill("p2", "p4"))
	require.NoError(t, s.WolfConfirm("p1"))
	require.NoError(t, s.WolfConfirm("p2"))
	require.Equal(t, domain.PhaseNightWitch, s.GetPhase())

	// the werewolf timer firing late must not end the witch phase
	s.onExpire(domain.PhaseNightWolf, epoch)
	s.onExpire(domain.PhaseNightWitch, epoch)
	assert.Equal(t, domain.PhaseNightWitch, s.GetPhase())
}

func TestKickPlayer(t *testing.T) {
	s, clients := newTestSession(t, testSettings(), 3)

	assert.ErrorIs(t, s.KickPlayer("p2", "p3"), domain.ErrNotHost)
	assert.ErrorIs(t, s.KickPlayer("p1", "p1"), domain.ErrCannotKickSelf)
	require.NoError(t, s.KickPlayer("p1", "p3"))

	assert.False(t, s.HasPlayer("p3"))
	require.Eventually(t, func() bool {
		return len(clients["p3"].ofType(domain.EventKicked)) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestKickedPlayerCanRejoinAtOnce(t *testing.T) {
	s, clients := newTestSession(t, testSettings(), 3)

	require.NoError(t, s.KickPlayer("p1", "p3"))
	_, err := s.Join("p3", "Carol", clients["p3"])
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(clients["p3"].ofType(domain.EventKicked)) == 1
	}, time.Second, 5*time.Millisecond)

	// a later broadcast still reaches the rejoined player
	require.NoError(t, s.TransferHost("p1", "p2"))
	require.Eventually(t, func() bool {
		return clients["p3"].hasMessage("Bob is now the host")
	}, time.Second, 5*time.Millisecond)
	assert.True(t, s.HasPlayer("p3"))
}

func TestTransferHost(t *testing.T) {
	s, _ := newTestSession(t, testSettings(), 2)

	require.NoError(t, s.TransferHost("p1", "p2"))
	assert.Equal(t, "p2", s.Snapshot().HostID)
	assert.ErrorIs(t, s.TransferHost("p1", "p2"), domain.ErrNotHost)
}

func TestLeaveInLobbyMigratesHost(t *testing.T) {
	s, _ := newTestSession(t, testSettings(), 3)

	remaining, err := s.Leave("p1")
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)
	assert.Equal(t, "p2", s.Snapshot().HostID)
	assert.False(t, s.HasPlayer("p1"))
}

func TestTimersDriveTheNight(t *testing.T) {
	settings := testSettings()
	settings.NightWolfDuration = 20 * time.Millisecond
	settings.NightWitchDuration = 20 * time.Millisecond
	settings.NightSeerDuration = 20 * time.Millisecond
	settings.TickInterval = 5 * time.Millisecond
	s, clients := newTestSession(t, settings, 6)
	require.NoError(t, s.StartGame("p1"))

	require.Eventually(t, func() bool {
		return s.GetPhase() == domain.PhaseDay
	}, 2*time.Second, 5*time.Millisecond)
	assert.NotEmpty(t, clients["p1"].ofType(domain.EventTimerUpdate))
}

func TestCloseCancelsTimers(t *testing.T) {
	settings := testSettings()
	settings.NightWolfDuration = 20 * time.Millisecond
	s, _ := newTestSession(t, settings, 6)
	require.NoError(t, s.StartGame("p1"))

	s.Close()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, domain.PhaseNightWolf, s.GetPhase())
}
