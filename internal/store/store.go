// Package store persists transaction records. Every backend executes the same
// query.Spec semantics so that handlers and batch tools never see which one is
// configured.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"transaction-service/internal/models"
	"transaction-service/internal/query"
)

// ErrNotFound is returned when no record has the requested id. Malformed ids
// are reported the same way.
var ErrNotFound = errors.New("transaction not found")

// Supported drivers
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// CollectionName is the collection (or table) holding the records
const CollectionName = "transactions"

// DistinctFields are the fields whose distinct values may be listed
var DistinctFields = map[string]bool{
	"region":        true,
	"category":      true,
	"gender":        true,
	"paymentMethod": true,
}

// Store is the record store used by the service and the batch tools
type Store interface {
	// Create assigns the id and both timestamps, then persists t.
	Create(ctx context.Context, t *models.Transaction) error
	// Update applies patch, refreshes updatedAt and returns the stored result.
	Update(ctx context.Context, id string, patch models.TransactionPatch) (*models.Transaction, error)
	// Delete removes the record and returns it as it was.
	Delete(ctx context.Context, id string) (*models.Transaction, error)
	Find(ctx context.Context, spec query.Spec) ([]models.Transaction, error)
	Count(ctx context.Context, filter query.Filter) (int64, error)
	// EstimatedCount may return a stale total of the whole collection.
	EstimatedCount(ctx context.Context) (int64, error)
	Distinct(ctx context.Context, field string) ([]string, error)
	Stats(ctx context.Context) (*models.Stats, error)

	InsertMany(ctx context.Context, records []models.Transaction) (int, error)
	DeleteAll(ctx context.Context) (int64, error)
	// NewestIDs returns the ids of the n records with the latest date.
	NewestIDs(ctx context.Context, n int) ([]string, error)
	// DeleteExcept removes every record whose id is not in keep.
	DeleteExcept(ctx context.Context, keep []string) (int64, error)

	EnsureIndexes(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Options selects and configures a backend
type Options struct {
	Driver        string
	MongoURI      string
	MongoDatabase string
	DatabaseURL   string
}

// Open connects to the configured backend and wraps it with metrics
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		s   Store
		err error
	)

	switch strings.ToLower(opts.Driver) {
	case DriverMongo, "":
		s, err = NewMongoStore(ctx, opts.MongoURI, opts.MongoDatabase)
	case DriverPostgres:
		s, err = NewPostgresStore(ctx, opts.DatabaseURL)
	case DriverMemory:
		s = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(s), nil
}

func checkDistinctField(field string) error {
	if !DistinctFields[field] {
		return fmt.Errorf("distinct values of %q are not available", field)
	}
	return nil
}

// compactSorted drops empty values and sorts the rest
func compactSorted(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// now is the timestamp assigned on writes. Millisecond precision matches what
// every backend can round-trip.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func stamp(t *models.Transaction, now time.Time) {
	t.CreatedAt = now
	t.UpdatedAt = now
	t.Normalize()
}
