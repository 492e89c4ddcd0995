package batch

import (
	"context"
	"fmt"

	"transaction-service/config"
	"transaction-service/internal/broker"
	"transaction-service/internal/store"
)

// Env is the store and publisher a batch job runs against
type Env struct {
	Store     store.Store
	Publisher EventPublisher

	producer *broker.Producer
}

// OpenEnv connects to the configured store and, when Kafka is configured,
// prepares a publisher for change events.
func OpenEnv(ctx context.Context, cfg *config.Config) (*Env, error) {
	s, err := store.Open(ctx, store.Options{
		Driver:        cfg.Store.Driver,
		MongoURI:      cfg.Store.MongoURI,
		MongoDatabase: cfg.Store.MongoDatabase,
		DatabaseURL:   cfg.Store.DatabaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = s.Close(ctx)
		return nil, fmt.Errorf("failed to prepare store: %w", err)
	}

	env := &Env{Store: s}
	if cfg.Kafka.Enabled() {
		env.producer = broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
		env.Publisher = broker.NewEventPublisher(env.producer)
	}
	return env, nil
}

// Close releases the store connection and the producer
func (e *Env) Close(ctx context.Context) error {
	if e.producer != nil {
		_ = e.producer.Close()
	}
	return e.Store.Close(ctx)
}
