package services

import (
	"errors"
	"fmt"
)

// Kind classifies a statement generation failure so callers can act on
// it without string matching.
type Kind string

const (
	KindAlreadyExists           Kind = "already_exists"
	KindNoPriorStatement        Kind = "no_prior_statement"
	KindAmbiguousPriorStatement Kind = "ambiguous_prior_statement"
	KindQuery                   Kind = "query_error"
	KindPersistence             Kind = "persistence_error"
)

var (
	// ErrAlreadyExists: a statement for the target month already
	// exists; the idempotence guard for repeated schedule ticks.
	ErrAlreadyExists = errors.New("statement already generated for target month")

	// ErrNoPriorStatement: the previous month has no statement to
	// chain from. The first month of a new account needs a seed
	// statement; this is an explicit bootstrap gap.
	ErrNoPriorStatement = errors.New("no statement found for previous month")

	// ErrAmbiguousPriorStatement: more than one statement in the
	// previous month's window. Should be impossible while the
	// at-most-one invariant holds; checked rather than assumed.
	ErrAmbiguousPriorStatement = errors.New("multiple statements found for previous month")
)

// GenerationError carries the failure kind plus the account context the
// sweep logs. It wraps the underlying cause for errors.Is / errors.As.
type GenerationError struct {
	Kind       Kind
	MoneyMapID string
	AccountID  string
	Err        error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate statement (money map %s, account %s): %s: %v",
		e.MoneyMapID, e.AccountID, e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func (g *StatementGenerator) genErr(kind Kind, moneyMapID, accountID string, err error) *GenerationError {
	return &GenerationError{Kind: kind, MoneyMapID: moneyMapID, AccountID: accountID, Err: err}
}
