package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Config defines the three rolling windows for one upstream service key
type Config struct {
	Burst       int
	BurstWindow time.Duration
	PerMinute   int
	PerHour     int
}

// DefaultConfig returns the product defaults: 10/10s, 100/min, 1000/hr
func DefaultConfig() Config {
	return Config{
		Burst:       10,
		BurstWindow: 10 * time.Second,
		PerMinute:   100,
		PerHour:     1000,
	}
}

// LimitError is the typed hard failure returned when any window is full.
// The limiter never sleeps; callers handle this by skipping the fresh fetch
// and degrading to cached data.
type LimitError struct {
	Service string
	Window  string
	ResetAt time.Time
	wait    time.Duration
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s (%s window), retry in ~%s",
		e.Service, e.Window, e.wait.Round(time.Second))
}

// IsLimitError checks whether an error is a rate-limit rejection
func IsLimitError(err error) bool {
	var le *LimitError
	return errors.As(err, &le)
}

type counter struct {
	count   int
	resetAt time.Time
}

// reset clears the counter if its window has elapsed
func (c *counter) reset(now time.Time, window time.Duration) {
	if c.resetAt.IsZero() || !now.Before(c.resetAt) {
		c.count = 0
		c.resetAt = now.Add(window)
	}
}

type serviceWindows struct {
	burst  counter
	minute counter
	hour   counter
}

// Limiter holds per-service-key rolling counters. State is process-local
// and resets on restart; all access is serialized by a mutex so the
// read-then-increment sequence is atomic across concurrent callers.
type Limiter struct {
	mu        sync.Mutex
	defaults  Config
	overrides map[string]Config
	services  map[string]*serviceWindows
	now       func() time.Time
}

// Option configures the limiter
type Option func(*Limiter)

// WithServiceConfig sets per-service window limits overriding the defaults
func WithServiceConfig(service string, cfg Config) Option {
	return func(l *Limiter) {
		l.overrides[service] = cfg
	}
}

// WithClock sets the time source, used by tests
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// New creates a limiter with the given default window limits
func New(defaults Config, opts ...Option) *Limiter {
	l := &Limiter{
		defaults:  defaults,
		overrides: make(map[string]Config),
		services:  make(map[string]*serviceWindows),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check admits or rejects one call for the given service key. On admission
// all three counters are incremented; on rejection none are, and the
// returned LimitError carries the soonest reset time among the full windows.
func (l *Limiter) Check(service string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cfg, ok := l.overrides[service]
	if !ok {
		cfg = l.defaults
	}

	sw, ok := l.services[service]
	if !ok {
		sw = &serviceWindows{}
		l.services[service] = sw
	}

	now := l.now()
	sw.burst.reset(now, cfg.BurstWindow)
	sw.minute.reset(now, time.Minute)
	sw.hour.reset(now, time.Hour)

	var rejected *LimitError
	note := func(window string, c counter) {
		if rejected == nil || c.resetAt.Before(rejected.ResetAt) {
			rejected = &LimitError{
				Service: service,
				Window:  window,
				ResetAt: c.resetAt,
				wait:    c.resetAt.Sub(now),
			}
		}
	}

	if sw.burst.count >= cfg.Burst {
		note("burst", sw.burst)
	}
	if sw.minute.count >= cfg.PerMinute {
		note("minute", sw.minute)
	}
	if sw.hour.count >= cfg.PerHour {
		note("hour", sw.hour)
	}
	if rejected != nil {
		return rejected
	}

	sw.burst.count++
	sw.minute.count++
	sw.hour.count++
	return nil
}

// Reset clears all counters for a service key
func (l *Limiter) Reset(service string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.services, service)
}
