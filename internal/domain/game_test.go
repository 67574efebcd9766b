package domain

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// identityRand deals roles in catalog order
type identityRand struct{}

func (identityRand) Intn(int) int                { return 0 }
func (identityRand) Float64() float64            { return 0 }
func (identityRand) Shuffle(int, func(i, j int)) {}

// newLobby seats p1..pn, p1 hosting
func newLobby(t *testing.T, n int) *Game {
	t.Helper()
	g := NewGame("ROOM", DefaultCatalog())
	for i := 1; i <= n; i++ {
		_, err := g.AddPlayer(fmt.Sprintf("p%d", i), fmt.Sprintf("Player %d", i))
		require.NoError(t, err)
	}
	return g
}

// newTable starts a six seat game: p1,p2 werewolves, p3 seer, p4 witch, p5,p6 villagers
func newTable(t *testing.T) *Game {
	t.Helper()
	g := newLobby(t, 6)
	require.NoError(t, g.Start("p1", identityRand{}))
	return g
}

func TestGameAddPlayer(t *testing.T) {
	g := NewGame("ROOM", DefaultCatalog())

	first, err := g.AddPlayer("p1", "Alice")
	require.NoError(t, err)
	assert.True(t, first.Host)
	assert.Equal(t, "p1", g.HostID)

	second, err := g.AddPlayer("p2", "Bob")
	require.NoError(t, err)
	assert.False(t, second.Host)

	_, err = g.AddPlayer("p3", "Alice")
	assert.ErrorIs(t, err, ErrNameTaken)

	// names are case-sensitive
	_, err = g.AddPlayer("p3", "alice")
	assert.NoError(t, err)

	_, err = g.AddPlayer("p4", "   ")
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = g.AddPlayer("p1", "Carol")
	assert.ErrorIs(t, err, ErrAlreadyJoined)
}

func TestGameAddPlayerRejectsFullAndInProgress(t *testing.T) {
	g := newLobby(t, 12)
	_, err := g.AddPlayer("p13", "Late")
	assert.ErrorIs(t, err, ErrGameFull)

	g = newTable(t)
	_, err = g.AddPlayer("p7", "Late")
	assert.ErrorIs(t, err, ErrGameInProgress)

	// a dead player's name stays taken
	g.Players[5].Alive = false
	_, err = g.AddPlayer("p8", "Player 6")
	assert.ErrorIs(t, err, ErrNameTaken)
}

func TestGameStartPreconditions(t *testing.T) {
	g := newLobby(t, 5)
	assert.ErrorIs(t, g.Start("p2", identityRand{}), ErrNotHost)
	assert.ErrorIs(t, g.Start("p1", identityRand{}), ErrNotEnoughPlayers)
	assert.Equal(t, PhaseWaiting, g.Phase)
	for _, p := range g.Players {
		assert.Empty(t, p.Role)
	}
}

func TestGameStartDealsCatalog(t *testing.T) {
	catalog := DefaultCatalog()
	for n := catalog.MinPlayers; n <= catalog.MaxPlayers; n++ {
		t.Run(fmt.Sprintf("%d players", n), func(t *testing.T) {
			g := newLobby(t, n)
			require.NoError(t, g.Start("p1", rand.New(rand.NewSource(int64(n)))))

			want, err := catalog.Deal(n)
			require.NoError(t, err)

			got := make([]Role, 0, n)
			for _, p := range g.Players {
				require.NotEmpty(t, p.Role)
				assert.True(t, p.Alive)
				got = append(got, p.Role)
			}
			sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
			sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
			assert.Equal(t, want, got)

			assert.Equal(t, PhaseNightWolf, g.Phase)
			assert.Equal(t, 1, g.Round)
			assert.Equal(t, FreshPotions(), g.Potions)
		})
	}
}

func TestGameWolfConsensusScenario(t *testing.T) {
	g := newTable(t)

	require.NoError(t, g.Nominate("p1", "p4"))
	require.NoError(t, g.Nominate("p2", "p4"))
	require.NoError(t, g.Confirm("p1"))
	assert.False(t, g.ReachConsensus())

	require.NoError(t, g.Confirm("p2"))
	assert.True(t, g.ReachConsensus())
	assert.Equal(t, "p4", g.Night.KillTarget)
}

func TestGameWolfActionPreconditions(t *testing.T) {
	g := newTable(t)

	assert.ErrorIs(t, g.Nominate("p3", "p4"), ErrWrongRole)
	assert.ErrorIs(t, g.Nominate("p1", "ghost"), ErrPlayerNotFound)
	assert.ErrorIs(t, g.Confirm("p1"), ErrNoNomination)

	g.Players[4].Alive = false
	assert.ErrorIs(t, g.Nominate("p1", "p5"), ErrTargetNotAlive)

	g.Players[1].Alive = false
	assert.ErrorIs(t, g.Nominate("p2", "p4"), ErrNotAlive)

	require.NoError(t, g.BeginWitch())
	assert.ErrorIs(t, g.Nominate("p1", "p4"), ErrInvalidPhase)
}

func TestGameWitchSaveScenario(t *testing.T) {
	g := newTable(t)
	require.NoError(t, g.Nominate("p1", "p4"))
	require.NoError(t, g.Nominate("p2", "p4"))
	require.NoError(t, g.Confirm("p1"))
	require.NoError(t, g.Confirm("p2"))
	require.True(t, g.ReachConsensus())
	require.NoError(t, g.BeginWitch())

	assert.ErrorIs(t, g.Witch("p4", WitchSave, "p5"), ErrNotKillTarget)
	assert.True(t, g.Potions.SaveAvailable, "failed save must not spend the potion")

	require.NoError(t, g.Witch("p4", WitchSave, "p4"))
	assert.False(t, g.Potions.SaveAvailable)
	assert.ErrorIs(t, g.Witch("p4", WitchSave, "p4"), ErrSavePotionUsed)

	require.NoError(t, g.BeginSeer())
	dead, err := g.SettleNight()
	require.NoError(t, err)
	assert.Empty(t, dead)
	assert.True(t, g.Players[3].Alive)
}

func TestGameWitchPoisonOncePerGame(t *testing.T) {
	g := newTable(t)
	require.NoError(t, g.BeginWitch())

	assert.ErrorIs(t, g.Witch("p3", WitchPoison, "p1"), ErrWrongRole)
	assert.ErrorIs(t, g.Witch("p4", WitchSave, "p1"), ErrNotKillTarget)
	assert.ErrorIs(t, g.Witch("p4", WitchAction("brew"), "p1"), ErrUnknownWitchAction)

	require.NoError(t, g.Witch("p4", WitchPoison, "p1"))
	assert.False(t, g.Potions.PoisonAvailable)

	require.NoError(t, g.BeginSeer())
	dead, err := g.SettleNight()
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, "p1", dead[0].ID)

	// the potion stays spent on later nights
	require.NoError(t, g.BeginDay())
	require.NoError(t, g.BeginVoting())
	require.NoError(t, g.BeginNight())
	require.NoError(t, g.BeginWitch())
	assert.ErrorIs(t, g.Witch("p4", WitchPoison, "p2"), ErrPoisonPotionUsed)
	assert.Equal(t, 2, g.Round)
}

func TestGameSeerInspect(t *testing.T) {
	g := newTable(t)
	_, err := g.Inspect("p3", "p1")
	assert.ErrorIs(t, err, ErrInvalidPhase)

	require.NoError(t, g.BeginWitch())
	require.NoError(t, g.BeginSeer())

	target, err := g.Inspect("p3", "p1")
	require.NoError(t, err)
	assert.Equal(t, FactionWolves, target.Role.Faction())

	target, err = g.Inspect("p3", "p6")
	require.NoError(t, err)
	assert.Equal(t, FactionVillagers, target.Role.Faction())

	_, err = g.Inspect("p5", "p1")
	assert.ErrorIs(t, err, ErrWrongRole)
}

func TestGameNightWithoutConsensusKillsNobody(t *testing.T) {
	g := newTable(t)
	require.NoError(t, g.Nominate("p1", "p4"))
	require.NoError(t, g.Nominate("p2", "p5"))
	require.NoError(t, g.Confirm("p1"))
	require.NoError(t, g.Confirm("p2"))
	require.False(t, g.ReachConsensus())

	require.NoError(t, g.BeginWitch())
	require.NoError(t, g.BeginSeer())
	dead, err := g.SettleNight()
	require.NoError(t, err)
	assert.Empty(t, dead)
}

func TestGameVoteScenario(t *testing.T) {
	g := newTable(t)
	g.Night.KillTarget = "p5"
	require.NoError(t, g.BeginWitch())
	require.NoError(t, g.BeginSeer())
	dead, err := g.SettleNight()
	require.NoError(t, err)
	require.Len(t, dead, 1)

	require.NoError(t, g.BeginDay())
	require.NoError(t, g.BeginVoting())

	assert.ErrorIs(t, g.CastVote("p5", "p1"), ErrNotAlive)
	assert.ErrorIs(t, g.CastVote("p1", "p5"), ErrTargetNotAlive)

	for _, voter := range []string{"p1", "p3", "p4"} {
		require.NoError(t, g.CastVote(voter, "p2"))
	}
	require.NoError(t, g.CastVote("p2", "p1"))
	assert.False(t, g.AllVoted())
	require.NoError(t, g.CastVote("p6", "p1"))
	assert.True(t, g.AllVoted())

	result, eliminated, err := g.SettleVote()
	require.NoError(t, err)
	require.NotNil(t, eliminated)
	assert.Equal(t, "p2", eliminated.ID)
	assert.Equal(t, "p2", result.Eliminated)
	assert.False(t, eliminated.Alive)

	_, over := g.CheckWinner()
	assert.False(t, over)
}

func TestGameVoteSplitEliminatesNobody(t *testing.T) {
	g := newTable(t)
	g.Night.KillTarget = "p5"
	require.NoError(t, g.BeginWitch())
	require.NoError(t, g.BeginSeer())
	_, err := g.SettleNight()
	require.NoError(t, err)
	require.NoError(t, g.BeginDay())
	require.NoError(t, g.BeginVoting())

	require.NoError(t, g.CastVote("p1", "p2"))
	require.NoError(t, g.CastVote("p3", "p2"))
	require.NoError(t, g.CastVote("p2", "p1"))
	require.NoError(t, g.CastVote("p4", "p1"))
	require.NoError(t, g.CastVote("p6", "p3"))

	_, eliminated, err := g.SettleVote()
	require.NoError(t, err)
	assert.Nil(t, eliminated)
	assert.Len(t, g.AliveIDs(), 5)
}

func TestGameSkipQuorum(t *testing.T) {
	g := newTable(t)
	_, err := g.SkipVote("p1")
	assert.ErrorIs(t, err, ErrInvalidPhase)

	require.NoError(t, g.BeginWitch())
	require.NoError(t, g.BeginSeer())
	require.NoError(t, g.BeginDay())

	for _, id := range []string{"p1", "p2", "p3", "p4"} {
		added, err := g.SkipVote(id)
		require.NoError(t, err)
		assert.True(t, added)
		assert.False(t, g.SkipQuorumReached())
	}
	added, err := g.SkipVote("p4")
	require.NoError(t, err)
	assert.False(t, added)
	assert.False(t, g.SkipQuorumReached(), "duplicate skip must not count twice")

	_, err = g.SkipVote("p5")
	require.NoError(t, err)
	count, required := g.SkipProgress()
	assert.Equal(t, 5, count)
	assert.Equal(t, 5, required)
	assert.True(t, g.SkipQuorumReached())
}

func TestGameCanStartHonoursBotFill(t *testing.T) {
	g := newLobby(t, 2)
	assert.False(t, g.CanStart())

	g.BotFill = true
	assert.True(t, g.CanStart())
	assert.True(t, g.Snapshot().CanStart)
}

func TestGameLeaveInLobbyMigratesHost(t *testing.T) {
	g := newLobby(t, 3)

	forfeited, err := g.Leave("p1")
	require.NoError(t, err)
	assert.False(t, forfeited)
	assert.Len(t, g.Players, 2)
	assert.Equal(t, "p2", g.HostID)
	assert.True(t, g.Players[0].Host)
	assert.False(t, g.Players[1].Host)

	_, err = g.Leave("p1")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestGameLastWerewolfForfeits(t *testing.T) {
	g := newTable(t)
	g.Players[1].Alive = false

	forfeited, err := g.Leave("p1")
	require.NoError(t, err)
	assert.True(t, forfeited)
	assert.Len(t, g.Players, 6, "mid-game departures keep their seat")
	assert.False(t, g.Players[0].Alive)
	assert.Equal(t, "p2", g.HostID)

	winner, over := g.CheckWinner()
	assert.True(t, over)
	assert.Equal(t, FactionVillagers, winner)
}

func TestGameKickAndTransferHost(t *testing.T) {
	g := newLobby(t, 3)

	assert.ErrorIs(t, g.Kick("p2", "p3"), ErrNotHost)
	assert.ErrorIs(t, g.Kick("p1", "p1"), ErrCannotKickSelf)
	assert.ErrorIs(t, g.Kick("p1", "ghost"), ErrPlayerNotFound)
	require.NoError(t, g.Kick("p1", "p3"))
	assert.Len(t, g.Players, 2)

	_, err := g.AddBot("bot-1", "Bot 1")
	require.NoError(t, err)
	assert.ErrorIs(t, g.TransferHost("p1", "bot-1"), ErrTargetIsBot)

	require.NoError(t, g.TransferHost("p1", "p2"))
	assert.Equal(t, "p2", g.HostID)
	assert.False(t, g.Players[0].Host)
	assert.True(t, g.Players[1].Host)
	assert.ErrorIs(t, g.TransferHost("p1", "p2"), ErrNotHost)
}

func TestGameResetToLobby(t *testing.T) {
	g := newLobby(t, 4)
	_, err := g.AddBot("bot-1", "Bot 1")
	require.NoError(t, err)
	_, err = g.AddBot("bot-2", "Bot 2")
	require.NoError(t, err)
	require.NoError(t, g.Start("p1", identityRand{}))

	_, err = g.Leave("p3")
	require.NoError(t, err)
	require.NoError(t, g.EndGame(FactionWolves))
	assert.Equal(t, FactionWolves, g.Winner)

	require.NoError(t, g.ResetToLobby())
	assert.Equal(t, PhaseWaiting, g.Phase)
	require.Len(t, g.Players, 3)
	for _, p := range g.Players {
		assert.True(t, p.Human)
		assert.True(t, p.Alive)
		assert.Empty(t, p.Role)
	}
	assert.Empty(t, g.Winner)
	assert.Equal(t, "p1", g.HostID)
}

func TestPhaseTransitions(t *testing.T) {
	assert.True(t, PhaseWaiting.CanTransitionTo(PhaseNightWolf))
	assert.True(t, PhaseDay.CanTransitionTo(PhaseGameOver))
	assert.False(t, PhaseWaiting.CanTransitionTo(PhaseGameOver))
	assert.False(t, PhaseNightWolf.CanTransitionTo(PhaseDay))
	assert.False(t, PhaseGameOver.CanTransitionTo(PhaseNightWolf))
}
