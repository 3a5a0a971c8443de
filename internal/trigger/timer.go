package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// TimerConfig configures timer scheduling. Exactly one of
// IntervalSeconds or Cron must be set.
type TimerConfig struct {
	// IntervalSeconds fires at a fixed wall-clock cadence starting at
	// activation.
	IntervalSeconds int `yaml:"interval_seconds"`

	// Cron is a standard five-field cron expression evaluated against
	// the system clock.
	Cron string `yaml:"cron"`
}

// Validate rejects configs with neither or both schedules set, and
// parses the cron expression eagerly so bad expressions fail at
// configure time.
func (c TimerConfig) Validate() error {
	switch {
	case c.IntervalSeconds > 0 && c.Cron != "":
		return fmt.Errorf("timer: interval_seconds and cron are mutually exclusive")
	case c.IntervalSeconds <= 0 && c.Cron == "":
		return fmt.Errorf("timer: one of interval_seconds or cron is required")
	case c.IntervalSeconds < 0:
		return fmt.Errorf("timer: interval_seconds must be positive")
	}
	if c.Cron != "" {
		if _, err := cron.ParseStandard(c.Cron); err != nil {
			return fmt.Errorf("timer: invalid cron expression %q: %w", c.Cron, err)
		}
	}
	return nil
}

// TimerDispatcher fires TimerEvents at the configured schedule and
// hands them to its target.
//
// Missed fires are never backfilled. The interval path leans on
// time.Ticker, which buffers at most one pending tick; the cron path
// computes the next fire from the current time after every wake, so a
// paused process resumes with at most one fire.
type TimerDispatcher struct {
	cfg    TimerConfig
	target Target
	logger *slog.Logger
	sched  cron.Schedule // nil for interval scheduling
	now    func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// TimerOption configures a TimerDispatcher.
type TimerOption func(*TimerDispatcher)

// WithTimerLogger sets the dispatcher logger.
func WithTimerLogger(logger *slog.Logger) TimerOption {
	return func(d *TimerDispatcher) {
		d.logger = logger
	}
}

// WithNowFunc overrides the wall clock. Tests only.
func WithNowFunc(now func() time.Time) TimerOption {
	return func(d *TimerDispatcher) {
		d.now = now
	}
}

// NewTimerDispatcher creates a dispatcher for a validated config.
func NewTimerDispatcher(cfg TimerConfig, target Target, opts ...TimerOption) (*TimerDispatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := &TimerDispatcher{
		cfg:    cfg,
		target: target,
		logger: slog.Default(),
		now:    time.Now,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}

	if cfg.Cron != "" {
		sched, err := cron.ParseStandard(cfg.Cron)
		if err != nil {
			return nil, fmt.Errorf("timer: invalid cron expression %q: %w", cfg.Cron, err)
		}
		d.sched = sched
	}

	return d, nil
}

// Start begins firing in a background goroutine until Stop or context
// cancellation.
func (d *TimerDispatcher) Start(ctx context.Context) {
	go d.run(ctx)
}

// Stop cancels all pending scheduled fires. Idempotent.
func (d *TimerDispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.stop)
	})
	<-d.done
}

func (d *TimerDispatcher) run(ctx context.Context) {
	defer close(d.done)

	if d.sched != nil {
		d.runCron(ctx)
		return
	}
	d.runInterval(ctx)
}

// runInterval fires at fixed cadence. The ticker buffers at most one
// tick, so a stalled loop resumes with a single fire, never a burst.
func (d *TimerDispatcher) runInterval(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(d.cfg.IntervalSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stop:
			return
		case t := <-ticker.C:
			d.fire(TimerEvent{Timestamp: t.Unix(), IntervalSeconds: d.cfg.IntervalSeconds})
		}
	}
}

// runCron sleeps until the next schedule boundary, fires once, and
// recomputes from the current time - ticks crossed while asleep are
// dropped, not queued.
func (d *TimerDispatcher) runCron(ctx context.Context) {
	for {
		next := d.sched.Next(d.now())
		timer := time.NewTimer(next.Sub(d.now()))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-d.stop:
			timer.Stop()
			return
		case t := <-timer.C:
			d.fire(TimerEvent{Timestamp: t.Unix(), Cron: d.cfg.Cron})
		}
	}
}

// fire dispatches one event. Timer fires are fire-and-forget: a
// rejection (instance deactivating) is logged, never retried.
func (d *TimerDispatcher) fire(ev TimerEvent) {
	if err := d.target.Dispatch(ev); err != nil {
		d.logger.Warn("timer fire rejected", "error", err)
	}
}
