package amqp

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"duit/internal/core"
)

// Event kinds carried on the transaction stream.
const (
	EventTransactionCreated = "transaction.created"
	EventTransactionDeleted = "transaction.deleted"
)

// TransactionEventMessage is the wire shape of a transaction lifecycle
// event. It carries enough for a notifier to render a line without a
// database round trip.
type TransactionEventMessage struct {
	Event         string          `json:"event"`
	TransactionID string          `json:"transaction_id"`
	UserID        string          `json:"user_id"`
	Name          string          `json:"name"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Category      string          `json:"category"`
	Datetime      time.Time       `json:"datetime"`
	Timestamp     time.Time       `json:"timestamp"`
}

// NewTransactionEventMessage builds a message for one event kind from a
// stored transaction.
func NewTransactionEventMessage(event string, tx core.Transaction) *TransactionEventMessage {
	return &TransactionEventMessage{
		Event:         event,
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		Name:          tx.Name,
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		Category:      tx.CategoryName,
		Datetime:      tx.Datetime,
		Timestamp:     time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventMessageFromJSON creates a message from JSON bytes
func TransactionEventMessageFromJSON(data []byte) (*TransactionEventMessage, error) {
	var msg TransactionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
