// Package storage implements the store ports on SQLite. The CRUD
// surface that populates money maps, accounts and transactions lives in
// a separate service; this repository owns the statement write path and
// the read paths the engine needs.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"moneymap/internal/core"
	applog "moneymap/internal/log"
	"moneymap/internal/store"

	_ "modernc.org/sqlite"
)

// dateLayout stores instants as sortable UTC strings so range queries
// can compare lexically.
const dateLayout = "2006-01-02T15:04:05.000Z"

type SQLiteRepository struct {
	db *sql.DB
}

var _ store.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// FindMoneyMaps implements store.MoneyMapSource; deleted money maps and
// deleted accounts are filtered out here so the sweep never sees them.
func (r *SQLiteRepository) FindMoneyMaps(ctx context.Context) ([]core.MoneyMap, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name FROM money_maps WHERE deleted = 0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query money maps: %w", err)
	}
	defer rows.Close()

	var maps []core.MoneyMap
	for rows.Next() {
		var mm core.MoneyMap
		if err := rows.Scan(&mm.ID, &mm.Name); err != nil {
			return nil, fmt.Errorf("scan money map: %w", err)
		}
		maps = append(maps, mm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate money maps: %w", err)
	}

	for i := range maps {
		if maps[i].Accounts, err = r.accountsFor(ctx, maps[i].ID); err != nil {
			return nil, err
		}
		if maps[i].Members, err = r.membersFor(ctx, maps[i].ID); err != nil {
			return nil, err
		}
	}
	return maps, nil
}

func (r *SQLiteRepository) accountsFor(ctx context.Context, moneyMapID string) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, account_type FROM accounts
		 WHERE money_map_id = ? AND deleted = 0 ORDER BY id`, moneyMapID)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.AccountType); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *SQLiteRepository) membersFor(ctx context.Context, moneyMapID string) ([]core.Member, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, owner FROM money_map_members
		 WHERE money_map_id = ? ORDER BY user_id`, moneyMapID)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []core.Member
	for rows.Next() {
		var m core.Member
		if err := rows.Scan(&m.UserID, &m.Owner); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// FindStatements implements store.StatementStore.
func (r *SQLiteRepository) FindStatements(ctx context.Context, accountID string, start, end time.Time, ascending bool) ([]core.Statement, error) {
	order := "DESC"
	if ascending {
		order = "ASC"
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT statement_date, ending_balance_cents FROM statements
		 WHERE account_id = ? AND statement_date >= ? AND statement_date < ?
		 ORDER BY statement_date `+order,
		accountID, start.UTC().Format(dateLayout), end.UTC().Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("query statements: %w", err)
	}
	defer rows.Close()

	var statements []core.Statement
	for rows.Next() {
		var (
			dateStr string
			cents   sql.NullInt64
		)
		if err := rows.Scan(&dateStr, &cents); err != nil {
			return nil, fmt.Errorf("scan statement: %w", err)
		}
		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse statement date %q: %w", dateStr, err)
		}
		st := core.Statement{StatementDate: date}
		if cents.Valid {
			bal := core.Money{Cents: cents.Int64}
			st.EndingBalance = &bal
		}
		statements = append(statements, st)
	}
	return statements, rows.Err()
}

// FindTransactions implements store.TransactionSource. Results come
// back in datetime order, which is the fold order the engine uses.
func (r *SQLiteRepository) FindTransactions(ctx context.Context, moneyMapID, accountID string, start, end time.Time) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, datetime, payee, description, amount_cents, transaction_type, status
		 FROM transactions
		 WHERE money_map_id = ? AND account_id = ? AND datetime >= ? AND datetime < ?
		 ORDER BY datetime ASC`,
		moneyMapID, accountID, start.UTC().Format(dateLayout), end.UTC().Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var (
			t       core.Transaction
			dateStr string
			typ     string
			cents   int64
		)
		if err := rows.Scan(&t.ID, &dateStr, &t.Payee, &t.Description, &cents, &typ, &t.Status); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse transaction date %q: %w", dateStr, err)
		}
		t.MoneyMapID = moneyMapID
		t.AccountID = accountID
		t.Date = date
		t.Amount = core.Money{Cents: cents}
		t.Type = core.TransactionType(typ)
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// CreateStatement implements store.StatementStore. The unique index on
// (account_id, statement_month) makes concurrent check-then-insert for
// the same account and month impossible to double-write.
func (r *SQLiteRepository) CreateStatement(ctx context.Context, st core.Statement, moneyMapID, accountID string) error {
	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM accounts WHERE id = ? AND money_map_id = ? AND deleted = 0`,
		accountID, moneyMapID).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("unable to match account %s in money map %s", accountID, moneyMapID)
	}
	if err != nil {
		return fmt.Errorf("match account: %w", err)
	}

	var cents sql.NullInt64
	if st.EndingBalance != nil {
		cents = sql.NullInt64{Int64: st.EndingBalance.Cents, Valid: true}
	}
	date := st.StatementDate.UTC()

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO statements (money_map_id, account_id, statement_date, statement_month, ending_balance_cents)
		 VALUES (?, ?, ?, ?, ?)`,
		moneyMapID, accountID, date.Format(dateLayout), date.Format("2006-01"), cents)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("statement already exists for account %s in %s: %w",
				accountID, date.Format("2006-01"), err)
		}
		return fmt.Errorf("insert statement: %w", err)
	}

	slog.InfoContext(ctx, "Statement saved",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldMoneyMap, moneyMapID,
		applog.FieldAccount, accountID,
		applog.FieldBalanceCents, cents.Int64)
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
