// Package scheduler runs the statement sweep on a cron cadence.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	applog "moneymap/internal/log"
	"moneymap/internal/services"
)

// specParser accepts standard five-field cron expressions plus an
// optional leading seconds field, so short development cadences like
// "*/2 * * * * *" parse alongside production specs like "0 4 1 * *".
var specParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSpec validates a cron expression against the scheduler's parser.
func ParseSpec(spec string) error {
	_, err := specParser.Parse(spec)
	return err
}

// Sweeper is the sweep the scheduler drives on each tick.
type Sweeper interface {
	ProcessAll(ctx context.Context, now time.Time) (services.SweepStats, error)
}

// Scheduler invokes the sweep on a recurring cron schedule. Ticks are
// single-flight: a tick arriving while a sweep is still running is
// skipped, which is safe because sweeps are idempotent per account.
type Scheduler struct {
	spec    string
	sweeper Sweeper
	cron    *cron.Cron

	sweepMu sync.Mutex // held for the duration of one sweep

	mu      sync.Mutex
	running bool
}

// New creates a scheduler for the given cron spec.
func New(spec string, sweeper Sweeper) *Scheduler {
	return &Scheduler{
		spec:    spec,
		sweeper: sweeper,
	}
}

// Start registers the cron entry, runs one sweep immediately, and
// begins ticking. It returns an error for an invalid spec or if the
// scheduler is already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is already running")
	}

	c := cron.New(cron.WithParser(specParser))
	_, err := c.AddFunc(s.spec, func() { s.tick(ctx) })
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("invalid cron spec %q: %w", s.spec, err)
	}
	s.cron = c
	s.running = true
	s.mu.Unlock()

	slog.InfoContext(ctx, "Statement scheduler starting",
		applog.FieldComponent, applog.ComponentScheduler,
		"cron", s.spec)

	// Initial sweep on startup; a failed month is retried naturally on
	// the next tick.
	s.tick(ctx)

	s.cron.Start()
	return nil
}

// Stop halts ticking and waits for an in-flight sweep to finish, or for
// the context to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	c := s.cron
	s.mu.Unlock()

	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	// Drain: once acquired, no sweep is in flight. The acquire happens
	// in a goroutine so a sweep stuck on slow I/O cannot hang Stop past
	// its context.
	drained := make(chan struct{})
	go func() {
		s.sweepMu.Lock()
		s.sweepMu.Unlock()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		return ctx.Err()
	}

	slog.InfoContext(ctx, "Statement scheduler stopped",
		applog.FieldComponent, applog.ComponentScheduler)
	return nil
}

// tick runs one sweep unless another is still in flight.
func (s *Scheduler) tick(ctx context.Context) {
	if !s.sweepMu.TryLock() {
		slog.WarnContext(ctx, "Previous sweep still running, skipping tick",
			applog.FieldComponent, applog.ComponentScheduler)
		return
	}
	defer s.sweepMu.Unlock()

	now := time.Now()
	stats, err := s.sweeper.ProcessAll(ctx, now)
	if err != nil {
		slog.ErrorContext(ctx, "Sweep failed",
			applog.FieldComponent, applog.ComponentScheduler,
			applog.FieldError, err)
		return
	}
	slog.InfoContext(ctx, "Sweep tick finished",
		applog.FieldComponent, applog.ComponentScheduler,
		"generated", stats.Generated,
		"skipped", stats.Skipped,
		"failed", stats.Failed)
}
