package amqp

import (
	"testing"
	"time"
)

func TestStatementCreatedMessage_JSON(t *testing.T) {
	date := time.Date(2024, time.May, 1, 4, 0, 0, 0, time.UTC)
	msg := NewStatementCreatedMessage("mm-1", "acc-1", date, 72017)

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := StatementCreatedMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.MoneyMapID != "mm-1" || got.AccountID != "acc-1" {
		t.Errorf("ids = %s/%s, want mm-1/acc-1", got.MoneyMapID, got.AccountID)
	}
	if !got.StatementDate.Equal(date) {
		t.Errorf("statement date = %v, want %v", got.StatementDate, date)
	}
	if got.EndingBalanceCents != 72017 {
		t.Errorf("balance = %d, want 72017", got.EndingBalanceCents)
	}
	if got.Timestamp.IsZero() {
		t.Error("timestamp should be stamped on creation")
	}
}

func TestStatementCreatedMessageFromJSON_Invalid(t *testing.T) {
	if _, err := StatementCreatedMessageFromJSON([]byte("{not json")); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestNewClient_BadURL(t *testing.T) {
	if _, err := NewClient("amqp://127.0.0.1:1", "x", "y"); err == nil {
		t.Error("expected dial error for unreachable broker")
	}
}
