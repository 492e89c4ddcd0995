// Package cache holds the process-wide response cache used by the HTTP handlers.
//
// Entries are serialized response payloads keyed by a canonical form of the
// request. Every mutation of the underlying collection flushes the whole cache;
// there is no per-key invalidation.
package cache

import (
	"context"
	"time"
)

// Fixed keys and namespaces
const (
	NamespaceTransactions = "transactions_"
	KeyFilterOptions      = "filter_options"
	KeyStats              = "transaction_stats"
)

// Lifetimes
const (
	DefaultTTL       = 60 * time.Second
	SweepInterval    = 120 * time.Second
	ListTTL          = time.Hour
	StatsTTL         = time.Hour
	FilterOptionsTTL = 24 * time.Hour
)

// Cache stores serialized payloads with a per-entry time-to-live
type Cache interface {
	// Get returns the live entry for key. Expired entries are reported as absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key; a ttl <= 0 selects the cache default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Flush drops every entry.
	Flush(ctx context.Context) error
	Close() error
}
