// Package log wraps log/slog with the component and field names this
// system logs with, so every process emits the same structured shape.
package log

import (
	"log/slog"
	"os"
)

// Common field names for structured logging.
const (
	FieldComponent    = "component"
	FieldError        = "error"
	FieldMoneyMap     = "money_map_id"
	FieldAccount      = "account_id"
	FieldYear         = "year"
	FieldMonth        = "month"
	FieldBalanceCents = "ending_balance_cents"
)

// Standard component names.
const (
	ComponentWorker    = "worker"
	ComponentScheduler = "scheduler"
	ComponentSweep     = "sweep"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentExport    = "export"
)

// Logger wraps slog.Logger with a component attribute.
type Logger struct {
	*slog.Logger
}

// Config holds logger configuration.
type Config struct {
	Level   slog.Level
	Handler slog.Handler
}

// New creates a logger; a nil Handler gets a text handler on stdout.
func New(cfg Config) *Logger {
	handler := cfg.Handler
	if handler == nil {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level})
	}
	return &Logger{Logger: slog.New(handler)}
}

// WithComponent returns a logger tagging every record with a component.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger.With(FieldComponent, component)}
}

// SetDefault installs the logger as the process-wide slog default.
func SetDefault(l *Logger) {
	slog.SetDefault(l.Logger)
}
