package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"moneymap/internal/core"
	"moneymap/internal/store/memory"
)

func sweepFixture(t *testing.T) (*memory.Store, *SweepProcessor) {
	t.Helper()
	st := memory.New()
	gen := NewStatementGenerator(st, nil)
	return st, NewSweepProcessor(st, gen, 4)
}

func seedAccount(t *testing.T, st *memory.Store, mapID, accountID string, priorBalanceCents int64, priorMonth time.Month) {
	t.Helper()
	bal := core.Money{Cents: priorBalanceCents}
	err := st.CreateStatement(context.Background(), core.Statement{
		StatementDate: time.Date(2024, priorMonth, 3, 0, 0, 0, 0, time.UTC),
		EndingBalance: &bal,
	}, mapID, accountID)
	if err != nil {
		t.Fatalf("seed statement for %s: %v", accountID, err)
	}
}

func TestProcessAll_GeneratesForEveryActiveAccount(t *testing.T) {
	st, sweep := sweepFixture(t)
	st.AddMoneyMap(core.MoneyMap{
		ID: "mm-1",
		Accounts: []core.Account{
			{ID: "acc-1"},
			{ID: "acc-2"},
			{ID: "acc-gone", Deleted: true},
		},
	})
	st.AddMoneyMap(core.MoneyMap{ID: "mm-2", Accounts: []core.Account{{ID: "acc-3"}}})
	seedAccount(t, st, "mm-1", "acc-1", 1000, time.April)
	seedAccount(t, st, "mm-1", "acc-2", 2000, time.April)
	seedAccount(t, st, "mm-2", "acc-3", 3000, time.April)

	now := time.Date(2024, time.May, 1, 4, 0, 0, 0, time.UTC)
	stats, err := sweep.ProcessAll(context.Background(), now)
	if err != nil {
		t.Fatalf("ProcessAll: %v", err)
	}
	if stats.MoneyMaps != 2 || stats.Accounts != 3 || stats.Generated != 3 || stats.Failed != 0 {
		t.Errorf("stats = %+v, want 2 maps, 3 accounts, 3 generated", stats)
	}
	for _, acc := range []string{"acc-1", "acc-2", "acc-3"} {
		if n := st.StatementCount(acc); n != 2 {
			t.Errorf("account %s statement count = %d, want 2", acc, n)
		}
	}
	if n := st.StatementCount("acc-gone"); n != 0 {
		t.Errorf("deleted account got %d statements, want 0", n)
	}
}

func TestProcessAll_FailureIsolation(t *testing.T) {
	// Account A has this month's statement already (AlreadyExists);
	// account B has no prior statement (NoPriorStatement); account C
	// is healthy. C must still be generated and the sweep must not
	// return an error.
	st, sweep := sweepFixture(t)
	st.AddMoneyMap(core.MoneyMap{
		ID:       "mm-1",
		Accounts: []core.Account{{ID: "acc-a"}, {ID: "acc-b"}, {ID: "acc-c"}},
	})
	seedAccount(t, st, "mm-1", "acc-a", 1000, time.April)
	seedAccount(t, st, "mm-1", "acc-a", 1500, time.May) // already generated
	seedAccount(t, st, "mm-1", "acc-c", 3000, time.April)

	now := time.Date(2024, time.May, 20, 4, 0, 0, 0, time.UTC)
	stats, err := sweep.ProcessAll(context.Background(), now)
	if err != nil {
		t.Fatalf("ProcessAll must not propagate per-account failures: %v", err)
	}
	if stats.Generated != 1 {
		t.Errorf("generated = %d, want 1 (acc-c)", stats.Generated)
	}
	if stats.Skipped != 1 {
		t.Errorf("skipped = %d, want 1 (acc-a already has May)", stats.Skipped)
	}
	if stats.Failed != 1 {
		t.Errorf("failed = %d, want 1 (acc-b has no prior)", stats.Failed)
	}
	if n := st.StatementCount("acc-c"); n != 2 {
		t.Errorf("acc-c statement count = %d, want 2", n)
	}
	if n := st.StatementCount("acc-b"); n != 0 {
		t.Errorf("acc-b statement count = %d, want 0", n)
	}
}

func TestProcessAll_SkipsDeletedMoneyMaps(t *testing.T) {
	st, sweep := sweepFixture(t)
	st.AddMoneyMap(core.MoneyMap{ID: "mm-live", Accounts: []core.Account{{ID: "acc-1"}}})
	st.AddMoneyMap(core.MoneyMap{ID: "mm-dead", Deleted: true, Accounts: []core.Account{{ID: "acc-2"}}})
	seedAccount(t, st, "mm-live", "acc-1", 100, time.April)

	stats, err := sweep.ProcessAll(context.Background(), time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ProcessAll: %v", err)
	}
	if stats.MoneyMaps != 1 || stats.Accounts != 1 {
		t.Errorf("stats = %+v, want only the live map's account", stats)
	}
}

func TestProcessAll_EnumerationFailure(t *testing.T) {
	st, sweep := sweepFixture(t)
	st.FailFindMoneyMaps = errors.New("database offline")

	_, err := sweep.ProcessAll(context.Background(), time.Now())
	if err == nil {
		t.Fatal("expected the enumeration failure to surface")
	}
}

func TestProcessAll_RepeatTickIsIdempotent(t *testing.T) {
	st, sweep := sweepFixture(t)
	st.AddMoneyMap(core.MoneyMap{ID: "mm-1", Accounts: []core.Account{{ID: "acc-1"}}})
	seedAccount(t, st, "mm-1", "acc-1", 1000, time.April)

	now := time.Date(2024, time.May, 1, 4, 0, 0, 0, time.UTC)
	if _, err := sweep.ProcessAll(context.Background(), now); err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	stats, err := sweep.ProcessAll(context.Background(), now.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if stats.Generated != 0 || stats.Skipped != 1 {
		t.Errorf("second tick stats = %+v, want 0 generated / 1 skipped", stats)
	}
	if n := st.StatementCount("acc-1"); n != 2 {
		t.Errorf("statement count = %d, want 2", n)
	}
}
