// Package timer provides the cancelable countdown that drives timed phases.
package timer

import (
	"time"

	"github.com/sasha-s/go-deadlock"
)

const (
	stateActive = iota
	stateStopped
	stateExpired
)

// Countdown calls an expiry continuation once its duration elapses and
// reports the time left on every tick until then. A stopped Countdown never
// runs its continuation, even if the underlying timer already fired.
type Countdown struct {
	t    *time.Timer
	stop chan struct{}

	l        *deadlock.Mutex // to synchronize access to the fields below
	state    int
	deadline time.Time
}

// Start arms a countdown of d. onTick, if not nil, runs every interval with
// the time left; onExpire runs once in its own goroutine when d elapses.
func Start(d, interval time.Duration, onTick func(left time.Duration), onExpire func()) *Countdown {
	c := &Countdown{
		stop:     make(chan struct{}),
		l:        new(deadlock.Mutex),
		state:    stateActive,
		deadline: time.Now().Add(d),
	}

	c.l.Lock()
	defer c.l.Unlock()

	c.t = time.AfterFunc(d, func() {
		if c.finish(stateExpired) {
			onExpire()
		}
	})
	if onTick != nil && interval > 0 {
		go c.tick(interval, onTick)
	}
	return c
}

func (c *Countdown) tick(interval time.Duration, onTick func(time.Duration)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if left := c.TimeLeft(); left > 0 {
				onTick(left)
			}
		}
	}
}

// finish moves an active countdown to state, reporting whether it was active
func (c *Countdown) finish(state int) bool {
	c.l.Lock()
	defer c.l.Unlock()
	if c.state != stateActive {
		return false
	}
	c.state = state
	close(c.stop)
	return true
}

// Stop prevents the continuation from running. It returns false if the
// countdown had already expired or been stopped.
func (c *Countdown) Stop() bool {
	if c == nil {
		return false
	}
	if !c.finish(stateStopped) {
		return false
	}
	c.t.Stop()
	return true
}

// Active returns true until the countdown expires or is stopped
func (c *Countdown) Active() bool {
	if c == nil {
		return false
	}
	c.l.Lock()
	defer c.l.Unlock()
	return c.state == stateActive
}

// TimeLeft returns the duration left to run before the countdown expires.
// TimeLeft is safe to be called on a nil countdown and will return 0 in that case.
func (c *Countdown) TimeLeft() time.Duration {
	if c == nil {
		return 0
	}

	c.l.Lock()
	defer c.l.Unlock()

	if c.state != stateActive {
		return 0
	}
	return max(0, time.Until(c.deadline))
}

// Seconds rounds a duration up to whole seconds for display
func Seconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
