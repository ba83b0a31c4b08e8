package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"moneymap/internal/core"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedAccount(t *testing.T, repo *SQLiteRepository, moneyMapID, accountID string) {
	t.Helper()
	ctx := context.Background()
	if _, err := repo.db.ExecContext(ctx,
		`INSERT INTO money_maps (id, name) VALUES (?, ?)`, moneyMapID, "Household"); err != nil {
		t.Fatalf("insert money map: %v", err)
	}
	if _, err := repo.db.ExecContext(ctx,
		`INSERT INTO accounts (id, money_map_id, name, account_type) VALUES (?, ?, ?, ?)`,
		accountID, moneyMapID, "Checking", "checking"); err != nil {
		t.Fatalf("insert account: %v", err)
	}
}

func statementOn(y int, m time.Month, d int, cents int64) core.Statement {
	bal := core.Money{Cents: cents}
	return core.Statement{
		StatementDate: time.Date(y, m, d, 10, 0, 0, 0, time.UTC),
		EndingBalance: &bal,
	}
}

func TestCreateStatement_RejectsDuplicateMonth(t *testing.T) {
	repo := newTestRepository(t)
	seedAccount(t, repo, "mm-1", "acc-1")
	ctx := context.Background()

	if err := repo.CreateStatement(ctx, statementOn(2024, time.May, 1, 72017), "mm-1", "acc-1"); err != nil {
		t.Fatalf("first CreateStatement: %v", err)
	}

	// Second statement in the same calendar month, different day. The
	// unique index on (account_id, statement_month) must reject it even
	// though no application-level check ran.
	err := repo.CreateStatement(ctx, statementOn(2024, time.May, 28, 80000), "mm-1", "acc-1")
	if err == nil {
		t.Fatal("second CreateStatement in the same month should fail")
	}
	if !isUniqueViolation(err) {
		t.Errorf("error should be a unique violation, got %v", err)
	}

	// A different month for the same account is still writable.
	if err := repo.CreateStatement(ctx, statementOn(2024, time.June, 1, 80000), "mm-1", "acc-1"); err != nil {
		t.Errorf("CreateStatement for the next month: %v", err)
	}
}

func TestCreateStatement_UnknownAccount(t *testing.T) {
	repo := newTestRepository(t)
	seedAccount(t, repo, "mm-1", "acc-1")

	err := repo.CreateStatement(context.Background(), statementOn(2024, time.May, 1, 100), "mm-1", "acc-other")
	if err == nil {
		t.Fatal("CreateStatement for an unmatched account should fail")
	}
}

func TestFindStatements_RangeAndOrder(t *testing.T) {
	repo := newTestRepository(t)
	seedAccount(t, repo, "mm-1", "acc-1")
	ctx := context.Background()

	for _, st := range []core.Statement{
		statementOn(2024, time.April, 3, 100124),
		statementOn(2024, time.May, 3, 72017),
		statementOn(2024, time.June, 3, 80000),
	} {
		if err := repo.CreateStatement(ctx, st, "mm-1", "acc-1"); err != nil {
			t.Fatalf("CreateStatement: %v", err)
		}
	}

	start, end := core.MonthWindow(2024, time.May)
	got, err := repo.FindStatements(ctx, "acc-1", start, end, true)
	if err != nil {
		t.Fatalf("FindStatements: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("statements in May window = %d, want 1", len(got))
	}
	if got[0].Balance().Cents != 72017 {
		t.Errorf("balance = %d, want 72017", got[0].Balance().Cents)
	}
}
