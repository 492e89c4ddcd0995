package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"transaction-service/internal/models"
	"transaction-service/internal/util"

	"github.com/segmentio/kafka-go"
)

// EventPublisher publishes transaction change events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// Publish sends a change event, keyed by record id when it concerns one record
func (ep *EventPublisher) Publish(ctx context.Context, event *models.TransactionEvent) error {
	err := ep.producer.PublishEvent(ctx, EventKey(event), event)

	status := "ok"
	if err != nil {
		status = "error"
	}
	util.EventsPublishedTotal.WithLabelValues(event.EventType, status).Inc()
	return err
}

// EventKey returns the partition key for an event
func EventKey(event *models.TransactionEvent) string {
	if event.TransactionID != "" {
		return "transaction-" + event.TransactionID
	}
	return "bulk-" + event.EventType
}

// DecodeTransactionEvent parses a change event from a message
func DecodeTransactionEvent(msg kafka.Message) (*models.TransactionEvent, error) {
	var event models.TransactionEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transaction event: %w", err)
	}
	return &event, nil
}

// IsChangeEvent reports whether an event type signals a collection mutation
func IsChangeEvent(eventType string) bool {
	switch eventType {
	case models.EventTypeTransactionCreated,
		models.EventTypeTransactionUpdated,
		models.EventTypeTransactionDeleted,
		models.EventTypeTransactionsImported,
		models.EventTypeTransactionsPruned:
		return true
	}
	return false
}
