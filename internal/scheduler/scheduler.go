package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"quiz-generator-service/internal/app"
)

// Evictor drops live sessions matching a predicate.
type Evictor interface {
	EvictSessions(pred func(*app.Session) bool) int
}

// Scheduler periodically sweeps idle quiz sessions out of the registry.
type Scheduler struct {
	scheduler *gocron.Scheduler
	evictor   Evictor
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
}

// New sweeps every interval, evicting sessions idle for longer than retention.
func New(evictor Evictor, interval, retention time.Duration) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		evictor:   evictor,
		interval:  interval,
		retention: retention,
		now:       time.Now,
	}
}

// Start schedules the sweep and returns immediately.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.interval).Do(s.Sweep); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates scheduled sweeps.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// Sweep evicts idle sessions once and returns how many were removed.
func (s *Scheduler) Sweep() int {
	n := s.evictor.EvictSessions(Idle(s.now(), s.retention))
	if n > 0 {
		log.Printf("evicted %d idle quiz sessions", n)
	}
	return n
}

// Idle matches sessions with no watchers and no pending write. Finished
// sessions always match. An active session with time left never matches,
// since its pending answers live only in memory; loading and expired ones
// match once their last action is older than retention.
func Idle(now time.Time, retention time.Duration) func(*app.Session) bool {
	return func(s *app.Session) bool {
		if s.Busy() || s.Subscribers() > 0 {
			return false
		}
		switch s.State() {
		case app.StateDone:
			return true
		case app.StateActive:
			if !s.Expired() {
				return false
			}
		}
		return now.Sub(s.LastSeen()) > retention
	}
}
