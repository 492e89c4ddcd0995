package service

import (
	"context"
	"fmt"
	"time"

	"transaction-service/internal/models"
	"transaction-service/internal/query"
	"transaction-service/internal/store"
	"transaction-service/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// DefaultStoreTimeout bounds every store call made by the service
const DefaultStoreTimeout = 10 * time.Second

// EventPublisher publishes collection change events
type EventPublisher interface {
	Publish(ctx context.Context, event *models.TransactionEvent) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, *models.TransactionEvent) error { return nil }

// TransactionService handles transaction queries and mutations
type TransactionService struct {
	store      store.Store
	publisher  EventPublisher
	instanceID string
	timeout    time.Duration
	logger     *zap.Logger
}

// NewTransactionService creates a new transaction service. A nil publisher
// disables change events; a timeout <= 0 selects DefaultStoreTimeout.
func NewTransactionService(s store.Store, publisher EventPublisher, instanceID string, timeout time.Duration) *TransactionService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &TransactionService{
		store:      s,
		publisher:  publisher,
		instanceID: instanceID,
		timeout:    timeout,
		logger:     util.GetLogger(),
	}
}

// List returns one page of transactions matching the request parameters
func (s *TransactionService) List(ctx context.Context, params map[string][]string) (*models.ListResult, error) {
	ctx, span := util.StartSpan(ctx, "TransactionService.List")
	defer span.End()

	spec, err := query.Translate(params)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := s.store.Find(ctx, *spec)
	if err != nil {
		return nil, fmt.Errorf("failed to find transactions: %w", err)
	}
	if data == nil {
		data = []models.Transaction{}
	}

	var total int64
	if spec.Filter.IsEmpty() {
		total, err = s.store.EstimatedCount(ctx)
	} else {
		total, err = s.store.Count(ctx, spec.Filter)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	span.SetAttributes(
		attribute.Int64("transactions.total", total),
		attribute.Int("transactions.page", spec.Page),
	)

	return &models.ListResult{
		Data: data,
		Meta: models.PageMeta{
			Total:      total,
			Page:       spec.Page,
			PerPage:    spec.PerPage,
			TotalPages: spec.TotalPages(total),
		},
	}, nil
}

// FilterOptions returns the distinct regions and categories
func (s *TransactionService) FilterOptions(ctx context.Context) (*models.FilterOptions, error) {
	ctx, span := util.StartSpan(ctx, "TransactionService.FilterOptions")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	regions, err := s.store.Distinct(ctx, "region")
	if err != nil {
		return nil, fmt.Errorf("failed to load regions: %w", err)
	}
	categories, err := s.store.Distinct(ctx, "category")
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	return &models.FilterOptions{Regions: regions, Categories: categories}, nil
}

// Stats returns collection-wide totals
func (s *TransactionService) Stats(ctx context.Context) (*models.Stats, error) {
	ctx, span := util.StartSpan(ctx, "TransactionService.Stats")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stats: %w", err)
	}
	return stats, nil
}

// Create validates and stores a new transaction
func (s *TransactionService) Create(ctx context.Context, input models.TransactionInput) (*models.Transaction, error) {
	ctx, span := util.StartSpan(ctx, "TransactionService.Create")
	defer span.End()

	t, err := input.ToTransaction()
	if err != nil {
		return nil, err
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.Create(storeCtx, t); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	util.TransactionsCreatedTotal.Inc()
	s.logger.Info("Transaction created", zap.String("transaction_id", t.ID))
	s.publish(ctx, models.EventTypeTransactionCreated, t.ID)

	return t, nil
}

// Update applies a partial update to an existing transaction
func (s *TransactionService) Update(ctx context.Context, id string, patch models.TransactionPatch) (*models.Transaction, error) {
	ctx, span := util.StartSpan(ctx, "TransactionService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", id))

	storeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	t, err := s.store.Update(storeCtx, id, patch)
	if err != nil {
		return nil, err
	}

	util.TransactionsUpdatedTotal.Inc()
	s.logger.Info("Transaction updated", zap.String("transaction_id", id))
	s.publish(ctx, models.EventTypeTransactionUpdated, id)

	return t, nil
}

// Delete removes a transaction and returns it
func (s *TransactionService) Delete(ctx context.Context, id string) (*models.Transaction, error) {
	ctx, span := util.StartSpan(ctx, "TransactionService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", id))

	storeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	t, err := s.store.Delete(storeCtx, id)
	if err != nil {
		return nil, err
	}

	util.TransactionsDeletedTotal.Inc()
	s.logger.Info("Transaction deleted", zap.String("transaction_id", id))
	s.publish(ctx, models.EventTypeTransactionDeleted, id)

	return t, nil
}

// Ready checks that the store is reachable
func (s *TransactionService) Ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.store.Ping(ctx)
}

// publish sends a change event; failures are logged and never surface to the caller
func (s *TransactionService) publish(ctx context.Context, eventType, id string) {
	event := models.NewTransactionEvent(eventType, s.instanceID, id, 1)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish transaction event",
			zap.String("event_type", eventType),
			zap.String("transaction_id", id),
			zap.Error(err))
	}
}
