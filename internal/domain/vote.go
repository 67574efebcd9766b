package domain

import "sort"

// VoteLedger holds the elimination nominations of one voting phase
type VoteLedger struct {
	Votes map[string]string `json:"-"` // voter ID -> target ID
}

// NewVoteLedger creates an empty ledger
func NewVoteLedger() *VoteLedger {
	return &VoteLedger{Votes: make(map[string]string)}
}

// Cast records or overwrites the voter's nomination
func (l *VoteLedger) Cast(voterID, targetID string) {
	l.Votes[voterID] = targetID
}

// HasVoted checks if a player has a recorded nomination
func (l *VoteLedger) HasVoted(voterID string) bool {
	_, ok := l.Votes[voterID]
	return ok
}

// AllVoted returns true if every listed voter has a nomination
func (l *VoteLedger) AllVoted(voterIDs []string) bool {
	for _, id := range voterIDs {
		if !l.HasVoted(id) {
			return false
		}
	}
	return len(voterIDs) > 0
}

// VoteCount is the number of votes one target received
type VoteCount struct {
	TargetID string `json:"targetId"`
	Votes    int    `json:"votes"`
}

// TallyResult is the outcome of a voting phase
type TallyResult struct {
	Counts     []VoteCount `json:"counts"`
	Eliminated string      `json:"eliminated,omitempty"`
}

// Tally counts the nominations of eligible voters for eligible targets. A
// target is eliminated only with a strict majority of aliveCount; ties and
// pluralities eliminate no one.
func (l *VoteLedger) Tally(aliveCount int, eligible func(id string) bool) TallyResult {
	counts := make(map[string]int)
	for voter, target := range l.Votes {
		if eligible(voter) && eligible(target) {
			counts[target]++
		}
	}

	result := TallyResult{Counts: make([]VoteCount, 0, len(counts))}
	for target, n := range counts {
		result.Counts = append(result.Counts, VoteCount{TargetID: target, Votes: n})
		if n*2 > aliveCount {
			result.Eliminated = target
		}
	}
	sort.Slice(result.Counts, func(i, j int) bool {
		if result.Counts[i].Votes != result.Counts[j].Votes {
			return result.Counts[i].Votes > result.Counts[j].Votes
		}
		return result.Counts[i].TargetID < result.Counts[j].TargetID
	})
	return result
}

// SkipVotes is the set of players who want to end the day early
type SkipVotes map[string]struct{}

// Add records a skip vote, returning false if the player already skipped
func (s SkipVotes) Add(playerID string) bool {
	if _, ok := s[playerID]; ok {
		return false
	}
	s[playerID] = struct{}{}
	return true
}

// CountAmong returns how many of the listed players have skipped
func (s SkipVotes) CountAmong(playerIDs []string) int {
	n := 0
	for _, id := range playerIDs {
		if _, ok := s[id]; ok {
			n++
		}
	}
	return n
}

// SkipQuorum is the number of skip votes needed to end the day early
func SkipQuorum(aliveCount int) int {
	return max(1, aliveCount-1)
}
