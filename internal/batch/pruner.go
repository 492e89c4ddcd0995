package batch

import (
	"context"
	"fmt"

	"transaction-service/internal/models"
	"transaction-service/internal/query"
	"transaction-service/internal/store"
	"transaction-service/internal/util"

	"go.uber.org/zap"
)

// PruneResult summarizes a prune run
type PruneResult struct {
	Before  int64 `json:"before"`
	Deleted int64 `json:"deleted"`
}

// Pruner trims the collection down to its newest records by date
type Pruner struct {
	store     store.Store
	publisher EventPublisher
	keep      int
	source    string
	logger    *zap.Logger
}

// NewPruner creates a new pruner. A keep <= 0 selects DefaultKeep; publisher may be nil.
func NewPruner(s store.Store, publisher EventPublisher, keep int, source string) *Pruner {
	if keep <= 0 {
		keep = DefaultKeep
	}
	return &Pruner{
		store:     s,
		publisher: publisher,
		keep:      keep,
		source:    source,
		logger:    util.GetLogger(),
	}
}

// Run deletes everything except the newest keep records. It does nothing when
// the collection already holds keep records or fewer.
func (p *Pruner) Run(ctx context.Context) (*PruneResult, error) {
	ctx, span := util.StartSpan(ctx, "Pruner.Run")
	defer span.End()

	count, err := p.store.Count(ctx, query.Filter{})
	if err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}
	result := &PruneResult{Before: count}
	p.logger.Info("Current count", zap.Int64("count", count), zap.Int("keep", p.keep))

	if count <= int64(p.keep) {
		p.logger.Info("Nothing to prune")
		return result, nil
	}

	ids, err := p.store.NewestIDs(ctx, p.keep)
	if err != nil {
		return result, fmt.Errorf("failed to select records to keep: %w", err)
	}

	deleted, err := p.store.DeleteExcept(ctx, ids)
	if err != nil {
		return result, fmt.Errorf("failed to delete old records: %w", err)
	}
	result.Deleted = deleted
	util.PrunedRecordsTotal.Add(float64(deleted))

	p.logger.Info("Pruned transactions", zap.Int64("deleted", deleted))

	publish(ctx, p.publisher, p.logger,
		models.NewTransactionEvent(models.EventTypeTransactionsPruned, p.source, "", deleted))
	return result, nil
}
