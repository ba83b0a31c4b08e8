package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	applog "moneymap/internal/log"
	"moneymap/internal/store"
)

// SweepStats summarizes one full pass over all money maps.
type SweepStats struct {
	MoneyMaps int
	Accounts  int
	Generated int
	Skipped   int // statement already existed for the month
	Failed    int
}

// SweepProcessor runs statement generation for every active account of
// every active money map. Per-account failures are logged and swallowed;
// one account must never abort the sweep for its siblings.
type SweepProcessor struct {
	maps        store.MoneyMapSource
	generator   *StatementGenerator
	maxParallel int

	// Keyed mutexes serialize generation per account so parallel
	// money-map fan-out preserves the single-writer invariant.
	mu           sync.Mutex
	accountLocks map[string]*sync.Mutex
}

// NewSweepProcessor creates a sweep over the given money map source.
// maxParallel bounds the money maps processed concurrently; values
// below 1 fall back to sequential.
func NewSweepProcessor(maps store.MoneyMapSource, generator *StatementGenerator, maxParallel int) *SweepProcessor {
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &SweepProcessor{
		maps:         maps,
		generator:    generator,
		maxParallel:  maxParallel,
		accountLocks: make(map[string]*sync.Mutex),
	}
}

// ProcessAll generates statements for the calendar month containing
// now, for every non-deleted account of every non-deleted money map.
// It returns an error only when the money map enumeration itself fails;
// everything below that is isolated per account.
func (p *SweepProcessor) ProcessAll(ctx context.Context, now time.Time) (SweepStats, error) {
	moneyMaps, err := p.maps.FindMoneyMaps(ctx)
	if err != nil {
		return SweepStats{}, fmt.Errorf("find money maps: %w", err)
	}

	year, month := now.UTC().Year(), now.UTC().Month()
	slog.InfoContext(ctx, "Starting statement sweep",
		applog.FieldComponent, applog.ComponentSweep,
		applog.FieldYear, year,
		applog.FieldMonth, int(month),
		"money_maps", len(moneyMaps))

	var accounts, generated, skipped, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxParallel)
	for _, mm := range moneyMaps {
		mm := mm
		g.Go(func() error {
			for _, acc := range mm.ActiveAccounts() {
				accounts.Add(1)
				switch p.generateOne(gctx, mm.ID, acc.ID, year, month, now) {
				case sweepGenerated:
					generated.Add(1)
				case sweepSkipped:
					skipped.Add(1)
				case sweepFailed:
					failed.Add(1)
				}
			}
			return nil
		})
	}
	// Goroutines never return errors; per-account failures are counted.
	_ = g.Wait()

	stats := SweepStats{
		MoneyMaps: len(moneyMaps),
		Accounts:  int(accounts.Load()),
		Generated: int(generated.Load()),
		Skipped:   int(skipped.Load()),
		Failed:    int(failed.Load()),
	}
	slog.InfoContext(ctx, "Statement sweep complete",
		applog.FieldComponent, applog.ComponentSweep,
		"money_maps", stats.MoneyMaps,
		"accounts", stats.Accounts,
		"generated", stats.Generated,
		"skipped", stats.Skipped,
		"failed", stats.Failed)
	return stats, nil
}

type sweepOutcome int

const (
	sweepGenerated sweepOutcome = iota
	sweepSkipped
	sweepFailed
)

func (p *SweepProcessor) generateOne(ctx context.Context, moneyMapID, accountID string, year int, month time.Month, now time.Time) sweepOutcome {
	lock := p.lockFor(accountID)
	lock.Lock()
	defer lock.Unlock()

	_, err := p.generator.GenerateStatement(ctx, moneyMapID, accountID, year, month, now)
	switch {
	case err == nil:
		return sweepGenerated
	case errors.Is(err, ErrAlreadyExists):
		// Normal after the first successful tick of the month.
		slog.DebugContext(ctx, "Statement already exists, skipping",
			applog.FieldComponent, applog.ComponentSweep,
			applog.FieldMoneyMap, moneyMapID,
			applog.FieldAccount, accountID)
		return sweepSkipped
	default:
		slog.ErrorContext(ctx, "Statement generation failed",
			applog.FieldComponent, applog.ComponentSweep,
			applog.FieldMoneyMap, moneyMapID,
			applog.FieldAccount, accountID,
			applog.FieldYear, year,
			applog.FieldMonth, int(month),
			applog.FieldError, err)
		return sweepFailed
	}
}

func (p *SweepProcessor) lockFor(accountID string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.accountLocks[accountID]
	if !ok {
		l = &sync.Mutex{}
		p.accountLocks[accountID] = l
	}
	return l
}
