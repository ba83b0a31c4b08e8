package amqp

import (
	"encoding/json"
	"time"
)

// StatementCreatedMessage announces that a monthly statement was
// generated. It carries everything the export worker needs so the
// worker never has to reach back into the database.
type StatementCreatedMessage struct {
	MoneyMapID         string    `json:"money_map_id"`
	AccountID          string    `json:"account_id"`
	StatementDate      time.Time `json:"statement_date"`
	EndingBalanceCents int64     `json:"ending_balance_cents"`
	Timestamp          time.Time `json:"timestamp"`
}

// NewStatementCreatedMessage builds a message stamped with the current
// time.
func NewStatementCreatedMessage(moneyMapID, accountID string, statementDate time.Time, endingBalanceCents int64) *StatementCreatedMessage {
	return &StatementCreatedMessage{
		MoneyMapID:         moneyMapID,
		AccountID:          accountID,
		StatementDate:      statementDate,
		EndingBalanceCents: endingBalanceCents,
		Timestamp:          time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *StatementCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// StatementCreatedMessageFromJSON parses a message from JSON bytes.
func StatementCreatedMessageFromJSON(data []byte) (*StatementCreatedMessage, error) {
	var msg StatementCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
