// Package batch holds the offline maintenance jobs that run against the record
// store outside the HTTP service: the bulk CSV importer and the retention pruner.
//
// Neither job coordinates with live traffic. When a publisher is configured they
// announce their changes so running servers drop cached responses.
package batch

import (
	"context"

	"transaction-service/internal/models"
)

// Defaults
const (
	DefaultBatchSize = 1000
	DefaultKeep      = 5000
)

// EventPublisher publishes collection change events
type EventPublisher interface {
	Publish(ctx context.Context, event *models.TransactionEvent) error
}
