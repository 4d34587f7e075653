// Package timer runs the countdown of a timed round on a quartz clock so
// tests can drive it with a mock.
package timer

import (
	"fmt"
	"sync"
	"time"

	"github.com/coder/quartz"
)

// Controller is a restartable one-shot countdown.
type Controller struct {
	clock quartz.Clock

	mu       sync.Mutex
	timer    *quartz.Timer
	deadline time.Time
	running  bool
	// fired is set once the current countdown's callback has started and
	// cleared by the next Start or Stop.
	fired bool
	gen   uint64
}

// New returns a stopped controller. A nil clock uses the real clock.
func New(clock quartz.Clock) *Controller {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Controller{clock: clock}
}

// Start arms the countdown for d, replacing any running one. onTimeout runs
// on the clock's goroutine once d has elapsed, unless Stop or another Start
// happens first.
func (c *Controller) Start(d time.Duration, onTimeout func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.gen++
	gen := c.gen
	c.deadline = c.clock.Now().Add(d)
	c.running = true
	c.timer = c.clock.AfterFunc(d, func() {
		if !c.fire(gen) {
			return
		}
		if onTimeout != nil {
			onTimeout()
		}
	}, "timer", "round")
}

// fire marks the countdown finished if gen is still current.
func (c *Controller) fire(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running || gen != c.gen {
		return false
	}
	c.running = false
	c.fired = true
	c.timer = nil
	return true
}

// Stop cancels a running countdown. Stopping a stopped controller is a no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Controller) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.running {
		c.gen++
	}
	c.running = false
	c.fired = false
}

func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Deadline returns when the running countdown ends, or the zero time.
func (c *Controller) Deadline() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return time.Time{}
	}
	return c.deadline
}

// Remaining returns the time left on a running countdown, never negative.
func (c *Controller) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return 0
	}
	return max(c.deadline.Sub(c.clock.Now()), 0)
}

// Expired reports whether the current countdown has reached its deadline.
// It stays true after the callback starts, until the next Start or Stop.
func (c *Controller) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return (c.running || c.fired) && !c.clock.Now().Before(c.deadline)
}

// FormatClock renders d as m:ss, rounding partial seconds up.
func FormatClock(d time.Duration) string {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// Level returns the display urgency for the remaining time: "warning" at 30
// seconds or less, "danger" at 10 or less.
func Level(remaining time.Duration) string {
	secs := int((remaining + time.Second - 1) / time.Second)
	switch {
	case secs <= 10:
		return "danger"
	case secs <= 30:
		return "warning"
	default:
		return ""
	}
}

// AttemptsLevel returns the display urgency for remaining attempts.
func AttemptsLevel(remaining int) string {
	switch {
	case remaining <= 1:
		return "danger"
	case remaining <= 3:
		return "warning"
	default:
		return ""
	}
}
