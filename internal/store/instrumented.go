package store

import (
	"context"
	"errors"
	"time"

	"transaction-service/internal/models"
	"transaction-service/internal/query"
	"transaction-service/internal/util"
)

// instrumented records latency and failures of every call on the wrapped store
type instrumented struct {
	next Store
}

// Instrument wraps s with Prometheus latency and error metrics
func Instrument(s Store) Store {
	if _, ok := s.(*instrumented); ok {
		return s
	}
	return &instrumented{next: s}
}

func observe(operation string, start time.Time, err error) {
	util.StoreOperationLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil && !errors.Is(err, ErrNotFound) {
		util.StoreOperationErrors.WithLabelValues(operation).Inc()
	}
}

func (s *instrumented) Create(ctx context.Context, t *models.Transaction) (err error) {
	defer func(start time.Time) { observe("create", start, err) }(time.Now())
	return s.next.Create(ctx, t)
}

func (s *instrumented) Update(ctx context.Context, id string, patch models.TransactionPatch) (_ *models.Transaction, err error) {
	defer func(start time.Time) { observe("update", start, err) }(time.Now())
	return s.next.Update(ctx, id, patch)
}

func (s *instrumented) Delete(ctx context.Context, id string) (_ *models.Transaction, err error) {
	defer func(start time.Time) { observe("delete", start, err) }(time.Now())
	return s.next.Delete(ctx, id)
}

func (s *instrumented) Find(ctx context.Context, spec query.Spec) (_ []models.Transaction, err error) {
	defer func(start time.Time) { observe("find", start, err) }(time.Now())
	return s.next.Find(ctx, spec)
}

func (s *instrumented) Count(ctx context.Context, filter query.Filter) (_ int64, err error) {
	defer func(start time.Time) { observe("count", start, err) }(time.Now())
	return s.next.Count(ctx, filter)
}

func (s *instrumented) EstimatedCount(ctx context.Context) (_ int64, err error) {
	defer func(start time.Time) { observe("estimated_count", start, err) }(time.Now())
	return s.next.EstimatedCount(ctx)
}

func (s *instrumented) Distinct(ctx context.Context, field string) (_ []string, err error) {
	defer func(start time.Time) { observe("distinct", start, err) }(time.Now())
	return s.next.Distinct(ctx, field)
}

func (s *instrumented) Stats(ctx context.Context) (_ *models.Stats, err error) {
	defer func(start time.Time) { observe("stats", start, err) }(time.Now())
	return s.next.Stats(ctx)
}

func (s *instrumented) InsertMany(ctx context.Context, records []models.Transaction) (_ int, err error) {
	defer func(start time.Time) { observe("insert_many", start, err) }(time.Now())
	return s.next.InsertMany(ctx, records)
}

func (s *instrumented) DeleteAll(ctx context.Context) (_ int64, err error) {
	defer func(start time.Time) { observe("delete_all", start, err) }(time.Now())
	return s.next.DeleteAll(ctx)
}

func (s *instrumented) NewestIDs(ctx context.Context, n int) (_ []string, err error) {
	defer func(start time.Time) { observe("newest_ids", start, err) }(time.Now())
	return s.next.NewestIDs(ctx, n)
}

func (s *instrumented) DeleteExcept(ctx context.Context, keep []string) (_ int64, err error) {
	defer func(start time.Time) { observe("delete_except", start, err) }(time.Now())
	return s.next.DeleteExcept(ctx, keep)
}

func (s *instrumented) EnsureIndexes(ctx context.Context) error {
	return s.next.EnsureIndexes(ctx)
}

func (s *instrumented) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

func (s *instrumented) Close(ctx context.Context) error {
	return s.next.Close(ctx)
}
