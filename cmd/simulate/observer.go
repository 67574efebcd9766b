package main

import (
	"math/rand"

	"werewolf/internal/app"
	"werewolf/internal/domain"
)

// observer holds the one human seat of a simulated room. It follows the
// pack when it is a werewolf, skips every day and votes at random.
type observer struct {
	session *app.GameSession
	rng     *rand.Rand

	events  chan *domain.GameEvent
	results chan *domain.GameOverPayload
	done    chan struct{}

	role   domain.Role
	phase  domain.Phase
	roster []domain.PlayerInfo
	pick   string
}

func newObserver(rng *rand.Rand) *observer {
	return &observer{
		rng:     rng,
		events:  make(chan *domain.GameEvent, 1024),
		results: make(chan *domain.GameOverPayload, 1),
		done:    make(chan struct{}),
	}
}

// Send queues an event; handling happens on the observer's goroutine
func (o *observer) Send(message interface{}) error {
	if event, ok := message.(*domain.GameEvent); ok {
		select {
		case o.events <- event:
		default:
		}
	}
	return nil
}

func (o *observer) GetPlayerID() string { return observerID }
func (o *observer) Close() error        { return nil }

func (o *observer) run() {
	for {
		select {
		case <-o.done:
			return
		case event := <-o.events:
			o.handle(event)
		}
	}
}

func (o *observer) stop() {
	close(o.done)
}

func (o *observer) handle(event *domain.GameEvent) {
	switch payload := event.Payload.(type) {
	case *domain.RoleAssignedPayload:
		o.role = payload.Role
		o.pick = ""
	case *domain.RosterPayload:
		o.roster = payload.Players
		if payload.Status == domain.PhaseWaiting {
			o.phase = domain.PhaseWaiting
		}
	case *domain.WolfUIPayload:
		o.followPack(payload.Nominations)
	case *domain.TimerPayload:
		if payload.Phase != o.phase {
			o.phase = payload.Phase
			o.act()
		}
	case *domain.GameOverPayload:
		o.results <- payload
	}
}

// followPack locks in on the first target another werewolf locked
func (o *observer) followPack(noms []domain.WolfNomination) {
	for _, nom := range noms {
		if nom.WolfID == observerID || !nom.Locked || nom.TargetID == "" {
			continue
		}
		if o.pick == nom.TargetID {
			return
		}
		if o.session.WolfKill(observerID, nom.TargetID) == nil && o.session.WolfConfirm(observerID) == nil {
			o.pick = nom.TargetID
		}
		return
	}
}

func (o *observer) act() {
	switch o.phase {
	case domain.PhaseNightWolf:
		o.pick = ""
	case domain.PhaseNightSeer:
		if target := o.randomTarget(); o.role == domain.RoleSeer && target != "" {
			_ = o.session.CheckRole(observerID, target)
		}
	case domain.PhaseDay:
		_ = o.session.CastSkipVote(observerID)
	case domain.PhaseVoting:
		if target := o.randomTarget(); target != "" {
			_ = o.session.CastVote(observerID, target)
		}
	}
}

// randomTarget picks a living player other than the observer
func (o *observer) randomTarget() string {
	var candidates []string
	for _, p := range o.roster {
		if p.Alive && p.ID != observerID {
			candidates = append(candidates, p.ID)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	return candidates[o.rng.Intn(len(candidates))]
}
