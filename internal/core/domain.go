package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Credit TransactionType = "credit"
	Debit  TransactionType = "debit"
)

type (
	// TransactionType tags a transaction as a credit or a debit.
	// Any other tag is ignored by balance calculations.
	TransactionType string

	// MoneyMap is a budget container owning accounts and member users.
	// The statement engine only ever enumerates it.
	MoneyMap struct {
		ID       string
		Name     string
		Deleted  bool
		Accounts []Account
		Members  []Member
	}

	// Member links a user to a money map. Statement generation runs as
	// a batch principal and never consults the member list.
	Member struct {
		UserID string
		Owner  bool
	}

	// Account is a ledger within a money map.
	Account struct {
		ID          string
		Name        string
		AccountType string
		Deleted     bool
	}

	// Transaction is a single credit or debit against an account.
	// Amounts are always non-negative; the type tag carries the sign.
	Transaction struct {
		ID          string
		MoneyMapID  string
		AccountID   string
		Date        time.Time
		Payee       string
		Description string
		Amount      Money
		Type        TransactionType
		Status      string
	}

	// Statement is a computed monthly snapshot of an account's ending
	// balance. StatementDate is the generation timestamp, not the first
	// of the covered month; the existence-window checks depend on that.
	// EndingBalance is a pointer because historical records may lack it.
	Statement struct {
		StatementDate time.Time
		EndingBalance *Money
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrMissingAccount  = errors.New("missing account id")
	ErrMissingMoneyMap = errors.New("missing money map id")
)

// Recognized reports whether the tag is one the engine acts on.
func (t TransactionType) Recognized() bool {
	return t == Credit || t == Debit
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.MoneyMapID) == "" {
		return ErrMissingMoneyMap
	}
	if strings.TrimSpace(t.AccountID) == "" {
		return ErrMissingAccount
	}
	if t.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if !t.Type.Recognized() {
		return ErrInvalidType
	}
	return nil
}

// Balance returns the statement's ending balance, defaulting to zero
// cents when the stored value is absent.
func (s Statement) Balance() Money {
	if s.EndingBalance == nil {
		return Money{}
	}
	return *s.EndingBalance
}

// ActiveAccounts returns the money map's non-deleted accounts.
func (m MoneyMap) ActiveAccounts() []Account {
	out := make([]Account, 0, len(m.Accounts))
	for _, a := range m.Accounts {
		if !a.Deleted {
			out = append(out, a)
		}
	}
	return out
}
