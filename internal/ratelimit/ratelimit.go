// Package ratelimit throttles requests against an external service with two
// fixed windows: a short one (N requests per second) and a long one
// (M requests per two minutes).
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/goserg/blockcleaner/internal/metrics"
	"k8s.io/utils/clock"
)

// Window caps the number of requests inside a fixed interval.
// A Limit of zero or less disables the window.
type Window struct {
	Limit  int           `toml:"limit"`
	Length time.Duration `toml:"length"`
}

type Config struct {
	Short Window `toml:"short"`
	Long  Window `toml:"long"`
}

// RemoteDefaults matches the public API development key ceilings.
func RemoteDefaults() Config {
	return Config{
		Short: Window{Limit: 20, Length: time.Second},
		Long:  Window{Limit: 100, Length: 2 * time.Minute},
	}
}

// LocalDefaults keeps the local client at one request per 1.2s.
func LocalDefaults() Config {
	return Config{
		Short: Window{Limit: 1, Length: 1200 * time.Millisecond},
	}
}

type window struct {
	Window
	count int
	reset time.Time
}

// Limiter admits callers one at a time. Acquire holds the admission lock
// while sleeping, so waiters are served in arrival order.
type Limiter struct {
	name  string
	clock clock.Clock

	mu      sync.Mutex
	windows []*window
}

type Option func(*Limiter)

func WithClock(c clock.Clock) Option {
	return func(l *Limiter) {
		l.clock = c
	}
}

func WithName(name string) Option {
	return func(l *Limiter) {
		l.name = name
	}
}

func New(cfg Config, opts ...Option) *Limiter {
	l := &Limiter{
		name:  "default",
		clock: clock.RealClock{},
	}
	for _, opt := range opts {
		opt(l)
	}
	now := l.clock.Now()
	for _, w := range []Window{cfg.Short, cfg.Long} {
		if w.Limit <= 0 || w.Length <= 0 {
			continue
		}
		l.windows = append(l.windows, &window{Window: w, reset: now})
	}
	return l
}

// Acquire blocks until one more request fits in every window.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	for {
		slept := false
		for _, w := range l.windows {
			waited, err := l.admit(ctx, w)
			if err != nil {
				return err
			}
			slept = slept || waited
		}
		if !slept {
			break
		}
	}
	for _, w := range l.windows {
		w.count++
	}
	metrics.LimiterAdmitted.WithLabelValues(l.name).Inc()
	return nil
}

func (l *Limiter) admit(ctx context.Context, w *window) (bool, error) {
	now := l.clock.Now()
	elapsed := now.Sub(w.reset)
	if elapsed >= w.Length {
		w.count = 0
		w.reset = now
		return false, nil
	}
	if w.count < w.Limit {
		return false, nil
	}
	wait := w.Length - elapsed
	metrics.LimiterWaitSeconds.WithLabelValues(l.name).Add(wait.Seconds())
	if err := l.sleep(ctx, wait); err != nil {
		return false, err
	}
	w.count = 0
	w.reset = l.clock.Now()
	return true, nil
}

func (l *Limiter) sleep(ctx context.Context, d time.Duration) error {
	t := l.clock.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C():
		return nil
	}
}
