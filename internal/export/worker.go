package export

import (
	"context"
	"fmt"
	"log/slog"

	"moneymap/internal/amqp"
	applog "moneymap/internal/log"
)

// StatementAppender writes one statement row to the export target.
type StatementAppender interface {
	AppendStatement(ctx context.Context, msg *amqp.StatementCreatedMessage) error
}

// Worker turns statement-created events into export rows.
type Worker struct {
	appender StatementAppender
}

func NewWorker(appender StatementAppender) *Worker {
	return &Worker{appender: appender}
}

// HandleStatementCreated processes one event. Returning an error makes
// the AMQP consumer requeue the delivery.
func (w *Worker) HandleStatementCreated(ctx context.Context, msg *amqp.StatementCreatedMessage) error {
	if w.appender == nil {
		return fmt.Errorf("no statement appender configured")
	}

	if err := w.appender.AppendStatement(ctx, msg); err != nil {
		return fmt.Errorf("append statement: %w", err)
	}

	slog.InfoContext(ctx, "Exported statement",
		applog.FieldComponent, applog.ComponentExport,
		applog.FieldMoneyMap, msg.MoneyMapID,
		applog.FieldAccount, msg.AccountID,
		applog.FieldBalanceCents, msg.EndingBalanceCents)
	return nil
}
