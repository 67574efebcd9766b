package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func everyone(string) bool { return true }

func TestVoteLedgerTally(t *testing.T) {
	tests := []struct {
		name  string
		votes map[string]string
		alive int
		want  string
	}{
		{
			name:  "strict majority of five",
			votes: map[string]string{"p1": "p2", "p3": "p2", "p4": "p2", "p2": "p1", "p5": "p1"},
			alive: 5,
			want:  "p2",
		},
		{
			name:  "two two one split",
			votes: map[string]string{"p1": "p2", "p3": "p2", "p2": "p1", "p4": "p1", "p5": "p3"},
			alive: 5,
		},
		{
			name:  "plurality is not enough",
			votes: map[string]string{"p1": "p2", "p3": "p2", "p2": "p1"},
			alive: 5,
		},
		{
			name:  "exactly half is not a majority",
			votes: map[string]string{"p1": "p2", "p3": "p2", "p2": "p1", "p4": "p1"},
			alive: 4,
		},
		{
			name:  "no votes",
			votes: map[string]string{},
			alive: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewVoteLedger()
			for voter, target := range tt.votes {
				l.Cast(voter, target)
			}
			result := l.Tally(tt.alive, everyone)
			assert.Equal(t, tt.want, result.Eliminated)
		})
	}
}

func TestVoteLedgerTallyIgnoresIneligible(t *testing.T) {
	l := NewVoteLedger()
	l.Cast("p1", "p2")
	l.Cast("p3", "p2")
	l.Cast("dead", "p2")

	result := l.Tally(3, func(id string) bool { return id != "dead" })
	assert.Equal(t, "p2", result.Eliminated)
	assert.Equal(t, []VoteCount{{TargetID: "p2", Votes: 2}}, result.Counts)
}

func TestVoteLedgerRecastOverwrites(t *testing.T) {
	l := NewVoteLedger()
	l.Cast("p1", "p2")
	l.Cast("p1", "p3")

	assert.Equal(t, map[string]string{"p1": "p3"}, l.Votes)
	assert.True(t, l.AllVoted([]string{"p1"}))
	assert.False(t, l.AllVoted([]string{"p1", "p2"}))
	assert.False(t, l.AllVoted(nil))
}

func TestSkipQuorum(t *testing.T) {
	assert.Equal(t, 1, SkipQuorum(0))
	assert.Equal(t, 1, SkipQuorum(1))
	assert.Equal(t, 1, SkipQuorum(2))
	assert.Equal(t, 4, SkipQuorum(5))
}

func TestSkipVotes(t *testing.T) {
	s := make(SkipVotes)
	assert.True(t, s.Add("p1"))
	assert.False(t, s.Add("p1"))
	s.Add("dead")
	assert.Equal(t, 1, s.CountAmong([]string{"p1", "p2"}))
}
