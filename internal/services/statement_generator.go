// Package services contains the statement engine: the per-account
// generator and the sweep that drives it across all money maps.
package services

import (
	"context"
	"log/slog"
	"time"

	"moneymap/internal/core"
	applog "moneymap/internal/log"
	"moneymap/internal/store"
)

// StatementPublisher announces a freshly generated statement to
// downstream consumers. Publishing is best-effort; a failed publish
// never fails the generation.
type StatementPublisher interface {
	PublishStatementCreated(ctx context.Context, moneyMapID, accountID string, statementDate time.Time, endingBalanceCents int64) error
}

// StatementGenerator computes and persists monthly account statements,
// chaining each month from the previous month's ending balance.
type StatementGenerator struct {
	store     store.Store
	publisher StatementPublisher
}

// NewStatementGenerator creates a generator over the given store.
// publisher may be nil to disable event publishing.
func NewStatementGenerator(st store.Store, publisher StatementPublisher) *StatementGenerator {
	return &StatementGenerator{
		store:     st,
		publisher: publisher,
	}
}

// GenerateStatement produces the statement for one account and one
// target calendar month. now becomes the stored StatementDate.
//
// The balance chains from the single previous-month statement and folds
// the previous month's transactions over it. Folding the month before
// the target month reproduces the behavior of the system this replaces;
// see DESIGN.md before changing the window.
//
// Failures are returned as *GenerationError with an inspectable Kind.
func (g *StatementGenerator) GenerateStatement(ctx context.Context, moneyMapID, accountID string, year int, month time.Month, now time.Time) (core.Statement, error) {
	// Idempotence guard: at most one statement per account per month.
	targetStart, targetEnd := core.MonthWindow(year, month)
	existing, err := g.store.FindStatements(ctx, accountID, targetStart, targetEnd, true)
	if err != nil {
		return core.Statement{}, g.genErr(KindQuery, moneyMapID, accountID, err)
	}
	if len(existing) > 0 {
		return core.Statement{}, g.genErr(KindAlreadyExists, moneyMapID, accountID, ErrAlreadyExists)
	}

	prevStart, prevEnd := core.PreviousMonthWindow(year, month)
	prior, err := g.store.FindStatements(ctx, accountID, prevStart, prevEnd, true)
	if err != nil {
		return core.Statement{}, g.genErr(KindQuery, moneyMapID, accountID, err)
	}
	switch {
	case len(prior) == 0:
		return core.Statement{}, g.genErr(KindNoPriorStatement, moneyMapID, accountID, ErrNoPriorStatement)
	case len(prior) > 1:
		return core.Statement{}, g.genErr(KindAmbiguousPriorStatement, moneyMapID, accountID, ErrAmbiguousPriorStatement)
	}
	opening := prior[0].Balance()

	txs, err := g.store.FindTransactions(ctx, moneyMapID, accountID, prevStart, prevEnd)
	if err != nil {
		return core.Statement{}, g.genErr(KindQuery, moneyMapID, accountID, err)
	}

	balance := endingBalance(opening, txs)
	st := core.Statement{
		StatementDate: now.UTC(),
		EndingBalance: &balance,
	}

	if err := g.store.CreateStatement(ctx, st, moneyMapID, accountID); err != nil {
		return core.Statement{}, g.genErr(KindPersistence, moneyMapID, accountID, err)
	}

	slog.InfoContext(ctx, "Generated account statement",
		applog.FieldMoneyMap, moneyMapID,
		applog.FieldAccount, accountID,
		applog.FieldYear, year,
		applog.FieldMonth, int(month),
		applog.FieldBalanceCents, balance.Cents)

	g.publish(ctx, moneyMapID, accountID, st)
	return st, nil
}

func (g *StatementGenerator) publish(ctx context.Context, moneyMapID, accountID string, st core.Statement) {
	if g.publisher == nil {
		return
	}
	err := g.publisher.PublishStatementCreated(ctx, moneyMapID, accountID, st.StatementDate, st.Balance().Cents)
	if err != nil {
		slog.WarnContext(ctx, "Failed to publish statement event",
			applog.FieldMoneyMap, moneyMapID,
			applog.FieldAccount, accountID,
			applog.FieldError, err)
	}
}

// endingBalance folds transactions left-to-right, in the order the
// store returned them, over the opening balance. Credits add, debits
// subtract, unrecognized type tags are no-ops.
func endingBalance(opening core.Money, txs []core.Transaction) core.Money {
	balance := opening
	for _, t := range txs {
		switch t.Type {
		case core.Credit:
			balance = balance.Add(t.Amount)
		case core.Debit:
			balance = balance.Sub(t.Amount)
		}
	}
	return balance
}
