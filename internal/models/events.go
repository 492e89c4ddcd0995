package models

import (
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventTypeTransactionCreated   = "TRANSACTION_CREATED"
	EventTypeTransactionUpdated   = "TRANSACTION_UPDATED"
	EventTypeTransactionDeleted   = "TRANSACTION_DELETED"
	EventTypeTransactionsImported = "TRANSACTIONS_IMPORTED"
	EventTypeTransactionsPruned   = "TRANSACTIONS_PRUNED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// TransactionEvent is published whenever the collection changes
type TransactionEvent struct {
	BaseEvent
	TransactionID string `json:"transaction_id,omitempty"`
	Affected      int64  `json:"affected,omitempty"`
}

// NewTransactionEvent stamps a fresh event of the given type
func NewTransactionEvent(eventType, source, transactionID string, affected int64) *TransactionEvent {
	return &TransactionEvent{
		BaseEvent: BaseEvent{
			EventID:   uuid.New().String(),
			EventType: eventType,
			Timestamp: time.Now().UTC(),
			Source:    source,
		},
		TransactionID: transactionID,
		Affected:      affected,
	}
}
