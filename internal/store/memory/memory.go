// Package memory provides an in-process implementation of the store
// ports, used by the memory backend and by unit tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"moneymap/internal/core"
)

// ErrDuplicateStatement mirrors the SQLite backend's uniqueness
// constraint on (account, calendar month).
var ErrDuplicateStatement = errors.New("statement already exists for account and month")

// ErrUnknownAccount is returned when a (money map, account) pair cannot
// be matched on a write.
var ErrUnknownAccount = errors.New("unable to match account")

type statementRecord struct {
	moneyMapID string
	accountID  string
	statement  core.Statement
}

// Store keeps money maps, transactions and statements in memory.
// The zero value is not usable; call New.
type Store struct {
	mu         sync.Mutex
	maps       []core.MoneyMap
	txs        []core.Transaction
	statements []statementRecord

	// Error injection for tests. When set, the corresponding
	// operation fails with the given error.
	FailFindMoneyMaps   error
	FailFindStatements  error
	FailFindTransaction error
	FailCreate          error
}

func New() *Store {
	return &Store{}
}

// AddMoneyMap registers a money map (with its accounts and members).
func (s *Store) AddMoneyMap(mm core.MoneyMap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maps = append(s.maps, mm)
}

// AddTransaction records a transaction for later range queries.
func (s *Store) AddTransaction(t core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = append(s.txs, t)
}

// FindMoneyMaps implements store.MoneyMapSource; deleted maps are
// excluded, matching the data layer's default filter.
func (s *Store) FindMoneyMaps(_ context.Context) ([]core.MoneyMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailFindMoneyMaps != nil {
		return nil, s.FailFindMoneyMaps
	}
	out := make([]core.MoneyMap, 0, len(s.maps))
	for _, mm := range s.maps {
		if !mm.Deleted {
			out = append(out, mm)
		}
	}
	return out, nil
}

// FindStatements implements store.StatementStore.
func (s *Store) FindStatements(_ context.Context, accountID string, start, end time.Time, ascending bool) ([]core.Statement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailFindStatements != nil {
		return nil, s.FailFindStatements
	}
	var out []core.Statement
	for _, rec := range s.statements {
		if rec.accountID != accountID {
			continue
		}
		d := rec.statement.StatementDate
		if d.Before(start) || !d.Before(end) {
			continue
		}
		out = append(out, rec.statement)
	}
	sort.Slice(out, func(i, j int) bool {
		if ascending {
			return out[i].StatementDate.Before(out[j].StatementDate)
		}
		return out[j].StatementDate.Before(out[i].StatementDate)
	})
	return out, nil
}

// FindTransactions implements store.TransactionSource.
func (s *Store) FindTransactions(_ context.Context, moneyMapID, accountID string, start, end time.Time) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailFindTransaction != nil {
		return nil, s.FailFindTransaction
	}
	var out []core.Transaction
	for _, t := range s.txs {
		if t.MoneyMapID != moneyMapID || t.AccountID != accountID {
			continue
		}
		if t.Date.Before(start) || !t.Date.Before(end) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// CreateStatement implements store.StatementStore. The at-most-one
// statement per (account, month) invariant is enforced here the same
// way the SQLite backend's unique index enforces it.
func (s *Store) CreateStatement(_ context.Context, st core.Statement, moneyMapID, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreate != nil {
		return s.FailCreate
	}
	if !s.accountExists(moneyMapID, accountID) {
		return fmt.Errorf("%w: money map %s account %s", ErrUnknownAccount, moneyMapID, accountID)
	}
	month := st.StatementDate.UTC().Format("2006-01")
	for _, rec := range s.statements {
		if rec.accountID == accountID && rec.statement.StatementDate.UTC().Format("2006-01") == month {
			return fmt.Errorf("%w: account %s month %s", ErrDuplicateStatement, accountID, month)
		}
	}
	s.statements = append(s.statements, statementRecord{
		moneyMapID: moneyMapID,
		accountID:  accountID,
		statement:  st,
	})
	return nil
}

// StatementCount returns the number of stored statements for an
// account; test helper.
func (s *Store) StatementCount(accountID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, rec := range s.statements {
		if rec.accountID == accountID {
			n++
		}
	}
	return n
}

func (s *Store) accountExists(moneyMapID, accountID string) bool {
	for _, mm := range s.maps {
		if mm.ID != moneyMapID {
			continue
		}
		for _, acc := range mm.Accounts {
			if acc.ID == accountID {
				return true
			}
		}
	}
	return false
}
