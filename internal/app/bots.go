package app

import (
	"time"

	"github.com/google/uuid"

	"werewolf/internal/domain"
)

// newBotID returns a fresh synthetic player identity
func newBotID() string {
	return "bot-" + uuid.NewString()
}

// scheduleBots arms the bot turn for the phase just entered (caller must hold lock)
func (s *GameSession) scheduleBots(phase domain.Phase, epoch uint64) {
	if !s.hasLivingBots() {
		return
	}
	s.botTimer = time.AfterFunc(s.settings.BotDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.stale(phase, epoch) {
			return
		}
		s.runBots()
	})
}

func (s *GameSession) hasLivingBots() bool {
	for _, p := range s.game.Players {
		if p.Alive && !p.Human {
			return true
		}
	}
	return false
}

// runBots acts for every bot still due in the current phase, then runs
// the checks a human action would trigger (caller must hold lock).
func (s *GameSession) runBots() {
	switch s.game.Phase {
	case domain.PhaseNightWolf:
		s.botWolves()
		s.sendWolfUI()
		s.checkWolfConsensus()
	case domain.PhaseNightWitch:
		s.botWitch()
	case domain.PhaseDay:
		s.botSkips()
		if s.game.SkipQuorumReached() {
			s.endDay()
		}
	case domain.PhaseVoting:
		s.botVotes()
		if s.game.AllVoted() {
			s.endVoting()
		}
	}
	// A bot seer's check reveals nothing to anyone, so it is skipped.
}

// packTarget picks the victim bot werewolves agree on: the first locked
// human nomination, else the first locked bot nomination, else a random
// living villager.
func (s *GameSession) packTarget() string {
	if target := s.lockedNomination(true); target != "" {
		return target
	}
	if target := s.lockedNomination(false); target != "" {
		return target
	}

	var candidates []string
	for _, p := range s.game.AlivePlayers() {
		if !p.IsWerewolf() {
			candidates = append(candidates, p.ID)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	return candidates[s.rng.Intn(len(candidates))]
}

func (s *GameSession) lockedNomination(human bool) string {
	for _, p := range s.game.AlivePlayers() {
		if !p.IsWerewolf() || p.Human != human || !s.game.Night.Locked[p.ID] {
			continue
		}
		if target, ok := s.game.Night.Nominations[p.ID]; ok {
			return target
		}
	}
	return ""
}

func (s *GameSession) botWolves() {
	target := s.packTarget()
	if target == "" {
		return
	}
	for _, p := range s.game.AlivePlayers() {
		if p.Human || !p.IsWerewolf() {
			continue
		}
		s.botNominate(p.ID, target)
	}
}

// syncBotWolves moves bots that already nominated onto the first locked
// human nomination (caller must hold lock).
func (s *GameSession) syncBotWolves() {
	target := s.lockedNomination(true)
	if target == "" {
		return
	}
	for _, p := range s.game.AlivePlayers() {
		if p.Human || !p.IsWerewolf() {
			continue
		}
		if current, ok := s.game.Night.Nominations[p.ID]; ok && current != target {
			s.botNominate(p.ID, target)
		}
	}
}

func (s *GameSession) botNominate(botID, target string) {
	if err := s.game.Nominate(botID, target); err != nil {
		s.logger.Debug("bot nomination rejected", "botID", botID, "error", err)
		return
	}
	if err := s.game.Confirm(botID); err != nil {
		s.logger.Debug("bot confirmation rejected", "botID", botID, "error", err)
	}
}

func (s *GameSession) botWitch() {
	for _, p := range s.game.AlivePlayers() {
		if p.Human || p.Role != domain.RoleWitch {
			continue
		}

		victim := s.game.Night.KillTarget
		if victim != "" && s.game.Potions.SaveAvailable && s.rng.Float64() < s.settings.WitchSaveChance {
			if err := s.game.Witch(p.ID, domain.WitchSave, victim); err != nil {
				s.logger.Debug("bot save rejected", "botID", p.ID, "error", err)
			}
		}
		if s.game.Potions.PoisonAvailable && s.rng.Float64() < s.settings.WitchPoisonChance {
			if target := s.randomAliveExcept(p.ID); target != "" {
				if err := s.game.Witch(p.ID, domain.WitchPoison, target); err != nil {
					s.logger.Debug("bot poison rejected", "botID", p.ID, "error", err)
				}
			}
		}
	}
}

func (s *GameSession) botSkips() {
	for _, p := range s.game.AlivePlayers() {
		if p.Human {
			continue
		}
		added, err := s.game.SkipVote(p.ID)
		if err != nil {
			s.logger.Debug("bot skip rejected", "botID", p.ID, "error", err)
			continue
		}
		if added {
			s.announceSkip(p.ID)
		}
	}
}

func (s *GameSession) botVotes() {
	for _, p := range s.game.AlivePlayers() {
		if p.Human || s.game.Ledger.HasVoted(p.ID) {
			continue
		}
		target := s.randomAliveExcept(p.ID)
		if target == "" {
			continue
		}
		if err := s.game.CastVote(p.ID, target); err != nil {
			s.logger.Debug("bot vote rejected", "botID", p.ID, "error", err)
			continue
		}
		s.announceVote(p.ID)
	}
}

// randomAliveExcept picks a uniformly random living player other than self
func (s *GameSession) randomAliveExcept(self string) string {
	var candidates []string
	for _, id := range s.game.AliveIDs() {
		if id != self {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	return candidates[s.rng.Intn(len(candidates))]
}
