// Package countdown implements a one-second countdown with a single expiry notification.
package countdown

import (
	"fmt"
	"sync"
	"time"
)

// Ticker abstracts time.Ticker so tests can drive ticks by hand.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// RealTicker is the wall-clock TickerFunc.
func RealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// Option configures a Countdown.
type Option func(*Countdown)

// WithTicker replaces the wall-clock ticker.
func WithTicker(fn TickerFunc) Option {
	return func(c *Countdown) { c.newTicker = fn }
}

// OnExpire registers the callback fired when the count reaches zero.
func OnExpire(fn func()) Option {
	return func(c *Countdown) { c.onExpire = fn }
}

// OnTick registers a callback receiving the remaining seconds after every decrement.
func OnTick(fn func(remaining int)) Option {
	return func(c *Countdown) { c.onTick = fn }
}

// Countdown counts whole seconds down to zero. Callbacks run on the tick
// goroutine without the countdown lock held, so they may call back into it.
type Countdown struct {
	mu        sync.Mutex
	duration  int
	remaining int
	running   bool
	// run is bumped whenever a tick source is started or stopped; ticks
	// carrying an older value are ignored.
	run  uint64
	stop chan struct{}

	newTicker TickerFunc
	onExpire  func()
	onTick    func(int)
}

// New creates a stopped countdown of the given duration.
func New(seconds int, opts ...Option) *Countdown {
	if seconds < 0 {
		seconds = 0
	}
	c := &Countdown{
		duration:  seconds,
		remaining: seconds,
		newTicker: RealTicker,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins or resumes ticking. It is a no-op while running or at zero.
func (c *Countdown) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startLocked()
}

// Pause stops ticking and keeps the remaining time.
func (c *Countdown) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Reset stops ticking and restores the original duration.
func (c *Countdown) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.remaining = c.duration
}

// Restart stops, restores the original duration and starts ticking again.
func (c *Countdown) Restart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.remaining = c.duration
	c.startLocked()
}

// RestartWith starts ticking again from seconds. The original duration is
// kept for Reset.
func (c *Countdown) RestartWith(seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.remaining = seconds
	c.startLocked()
}

// Remaining returns the seconds left.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Running reports whether a tick source is active.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Duration returns the value Reset restores.
func (c *Countdown) Duration() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration
}

func (c *Countdown) startLocked() {
	if c.running || c.remaining <= 0 {
		return
	}
	c.run++
	c.running = true
	c.stop = make(chan struct{})
	go c.loop(c.run, c.newTicker(time.Second), c.stop)
}

func (c *Countdown) stopLocked() {
	if !c.running {
		return
	}
	c.run++
	c.running = false
	close(c.stop)
	c.stop = nil
}

func (c *Countdown) loop(run uint64, ticker Ticker, stop <-chan struct{}) {
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			remaining, expired, ok := c.tick(run)
			if !ok {
				return
			}
			if c.onTick != nil {
				c.onTick(remaining)
			}
			if expired {
				if c.onExpire != nil {
					c.onExpire()
				}
				return
			}
		}
	}
}

// tick decrements once for the given run. ok is false when the run is stale.
func (c *Countdown) tick(run uint64) (remaining int, expired, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if run != c.run || !c.running {
		return c.remaining, false, false
	}
	c.remaining--
	if c.remaining <= 0 {
		c.remaining = 0
		c.run++
		c.running = false
		c.stop = nil
		return 0, true, true
	}
	return c.remaining, false, true
}

// Format renders seconds as m:ss.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
