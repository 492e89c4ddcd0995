package worker

import (
	"context"

	"transaction-service/internal/broker"
	"transaction-service/internal/cache"
	"transaction-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// CacheInvalidationWorker flushes the local response cache when another
// process changes the collection: a peer server instance or a batch tool.
type CacheInvalidationWorker struct {
	consumer   *broker.Consumer
	cache      cache.Cache
	instanceID string
	logger     *zap.Logger
}

// NewCacheInvalidationWorker creates a new cache invalidation worker.
// Events published by instanceID itself are ignored; its handlers already flushed.
func NewCacheInvalidationWorker(consumer *broker.Consumer, c cache.Cache, instanceID string) *CacheInvalidationWorker {
	return &CacheInvalidationWorker{
		consumer:   consumer,
		cache:      c,
		instanceID: instanceID,
		logger:     util.GetLogger(),
	}
}

// Start starts the worker
func (w *CacheInvalidationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting cache invalidation worker", zap.String("instance_id", w.instanceID))
	return w.consumer.StartConsuming(ctx, w.HandleMessage)
}

// Stop stops the worker
func (w *CacheInvalidationWorker) Stop() error {
	w.logger.Info("Stopping cache invalidation worker")
	return w.consumer.Close()
}

// HandleMessage flushes the cache for change events from other sources.
// Malformed messages are logged and skipped so they do not block the partition.
func (w *CacheInvalidationWorker) HandleMessage(ctx context.Context, msg kafka.Message) error {
	event, err := broker.DecodeTransactionEvent(msg)
	if err != nil {
		w.logger.Warn("Skipping malformed event", zap.Error(err), zap.Int64("offset", msg.Offset))
		return nil
	}

	if event.Source == w.instanceID || !broker.IsChangeEvent(event.EventType) {
		return nil
	}

	if err := w.cache.Flush(ctx); err != nil {
		return err
	}
	util.CacheFlushesTotal.Inc()

	w.logger.Info("Cache flushed by remote change",
		zap.String("event_type", event.EventType),
		zap.String("event_id", event.EventID),
		zap.String("source", event.Source))
	return nil
}
