package activity

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hollowaylabs/authgate/internal/background"
)

// Toucher is the narrow slice of the system of record the tracker needs.
type Toucher interface {
	TouchSession(ctx context.Context, sessionID string, at time.Time) error
}

// Config defines a public type used by authgate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	// FlushInterval is the minimum spacing between last-active writes for
	// one session.
	FlushInterval time.Duration
	// SweepThreshold is the map size at which a sweep of stale entries is
	// triggered. Sweeping is size-driven, not timer-driven.
	SweepThreshold int
}

// Tracker records debounced "last seen" timestamps for sessions. Touch is
// attached to the response path of every authenticated request and must
// never block or fail it: the store write runs detached on the background
// runner.
//
// The throttle map is process-local and grows with distinct active
// sessions; entries older than twice the flush interval are evicted when
// the map crosses SweepThreshold.
type Tracker struct {
	mu        sync.Mutex
	lastFlush map[string]time.Time

	store    Toucher
	runner   *background.Runner
	log      *zap.Logger
	interval time.Duration
	sweepAt  int

	now func() time.Time
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New(store Toucher, runner *background.Runner, cfg Config, log *zap.Logger) *Tracker {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Minute
	}
	if cfg.SweepThreshold <= 0 {
		cfg.SweepThreshold = 1024
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Tracker{
		lastFlush: make(map[string]time.Time),
		store:     store,
		runner:    runner,
		log:       log,
		interval:  cfg.FlushInterval,
		sweepAt:   cfg.SweepThreshold,
		now:       time.Now,
	}
}

// Touch records activity for a session. Within the flush interval of the
// previous touch it is a no-op; otherwise the last-active write is
// scheduled on the background runner, detached from the caller.
func (t *Tracker) Touch(sessionID string) {
	if t == nil || sessionID == "" {
		return
	}

	now := t.now()

	t.mu.Lock()
	if last, ok := t.lastFlush[sessionID]; ok && now.Sub(last) < t.interval {
		t.mu.Unlock()
		return
	}
	t.lastFlush[sessionID] = now
	size := len(t.lastFlush)
	t.mu.Unlock()

	if size >= t.sweepAt {
		t.Sweep(now)
	}

	t.runner.Submit(func(ctx context.Context) {
		if err := t.store.TouchSession(ctx, sessionID, now); err != nil {
			t.log.Warn("last-active write failed",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
		}
	})
}

// Sweep evicts throttle entries older than twice the flush interval and
// returns the number removed. Exposed so cleanup is a callable, testable
// operation rather than an ambient timer.
func (t *Tracker) Sweep(now time.Time) int {
	if t == nil {
		return 0
	}

	cutoff := now.Add(-2 * t.interval)

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for sessionID, last := range t.lastFlush {
		if last.Before(cutoff) {
			delete(t.lastFlush, sessionID)
			removed++
		}
	}
	return removed
}

// Len reports the current throttle map size.
func (t *Tracker) Len() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.lastFlush)
}
