package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"moneymap/internal/services"
)

type blockingSweeper struct {
	calls   atomic.Int64
	release chan struct{}
	started chan struct{}
	once    sync.Once
}

func (b *blockingSweeper) ProcessAll(_ context.Context, _ time.Time) (services.SweepStats, error) {
	b.calls.Add(1)
	b.once.Do(func() { close(b.started) })
	if b.release != nil {
		<-b.release
	}
	return services.SweepStats{}, nil
}

func TestParseSpec(t *testing.T) {
	valid := []string{"0 4 1 * *", "*/2 * * * * *", "@monthly", "30 2 * * 1"}
	for _, spec := range valid {
		if err := ParseSpec(spec); err != nil {
			t.Errorf("ParseSpec(%q) = %v, want nil", spec, err)
		}
	}
	invalid := []string{"", "not a cron", "61 * * * *", "* * * * * * *"}
	for _, spec := range invalid {
		if err := ParseSpec(spec); err == nil {
			t.Errorf("ParseSpec(%q) = nil, want error", spec)
		}
	}
}

func TestScheduler_TickSkipsWhileSweepRunning(t *testing.T) {
	sweeper := &blockingSweeper{
		release: make(chan struct{}),
		started: make(chan struct{}),
	}
	s := New("0 4 1 * *", sweeper)

	go s.tick(context.Background())
	<-sweeper.started

	// A tick while the first sweep is in flight must not start a
	// second, overlapping sweep.
	s.tick(context.Background())
	if got := sweeper.calls.Load(); got != 1 {
		t.Errorf("sweep calls = %d, want 1 (overlapping tick must be skipped)", got)
	}

	close(sweeper.release)
}

func TestScheduler_StartRunsInitialSweep(t *testing.T) {
	sweeper := &blockingSweeper{started: make(chan struct{})}
	s := New("0 4 1 * *", sweeper)

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop(ctx)

	if got := sweeper.calls.Load(); got != 1 {
		t.Errorf("sweep calls after Start = %d, want 1 (initial sweep)", got)
	}
}

func TestScheduler_StartTwice(t *testing.T) {
	sweeper := &blockingSweeper{started: make(chan struct{})}
	s := New("0 4 1 * *", sweeper)

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer s.Stop(ctx)

	if err := s.Start(ctx); err == nil {
		t.Error("second Start should fail while running")
	}
}

func TestScheduler_StartRejectsBadSpec(t *testing.T) {
	s := New("not a cron", &blockingSweeper{started: make(chan struct{})})
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("Start should reject an invalid cron spec")
	}
}

func TestScheduler_StopHonorsContextWhileSweepBlocked(t *testing.T) {
	sweeper := &blockingSweeper{
		release: make(chan struct{}),
		started: make(chan struct{}),
	}
	s := New("0 4 1 * *", sweeper)
	defer close(sweeper.release)

	// Start blocks on the initial sweep, so run it in the background and
	// wait until the sweep is in flight.
	go s.Start(context.Background())
	<-sweeper.started

	stopCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Stop(stopCtx) }()

	select {
	case err := <-done:
		if err != context.DeadlineExceeded {
			t.Errorf("Stop = %v, want context.DeadlineExceeded", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after its context expired")
	}
}

func TestScheduler_StopNotRunning(t *testing.T) {
	s := New("0 4 1 * *", &blockingSweeper{started: make(chan struct{})})
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop on a stopped scheduler should be a no-op, got %v", err)
	}
}
