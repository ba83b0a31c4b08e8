// Package store defines the ports the statement engine consumes from
// the data-access layer. Adapters live in subpackages and in
// internal/storage; the engine never sees a concrete database.
package store

import (
	"context"
	"time"

	"moneymap/internal/core"
)

type (
	// MoneyMapSource enumerates money maps eligible for statement
	// generation. The default filter excludes deleted maps.
	MoneyMapSource interface {
		FindMoneyMaps(ctx context.Context) ([]core.MoneyMap, error)
	}

	// StatementStore reads and appends account statements. Range
	// queries are half-open: [start, end) over StatementDate.
	StatementStore interface {
		// FindStatements returns one account's statements whose
		// StatementDate falls in [start, end), sorted ascending by
		// date when ascending is true, descending otherwise.
		FindStatements(ctx context.Context, accountID string, start, end time.Time, ascending bool) ([]core.Statement, error)

		// CreateStatement appends the statement to the account's
		// statement list. It fails if the (money map, account) pair
		// cannot be matched, or if the backend enforces month
		// uniqueness and a statement for that month already exists.
		CreateStatement(ctx context.Context, st core.Statement, moneyMapID, accountID string) error
	}

	// TransactionSource is the read-only view of transactions the
	// engine folds into balances. Range is [start, end) over Date.
	TransactionSource interface {
		FindTransactions(ctx context.Context, moneyMapID, accountID string, start, end time.Time) ([]core.Transaction, error)
	}

	// Store combines every port the statement engine needs.
	Store interface {
		MoneyMapSource
		StatementStore
		TransactionSource
	}
)
