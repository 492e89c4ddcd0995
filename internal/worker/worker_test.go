package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"transaction-service/internal/cache"
	"transaction-service/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func message(t *testing.T, event *models.TransactionEvent) kafka.Message {
	t.Helper()
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Value: raw}
}

func TestHandleMessage(t *testing.T) {
	tests := []struct {
		name    string
		msg     func(t *testing.T) kafka.Message
		flushed bool
	}{
		{
			name: "peer change flushes",
			msg: func(t *testing.T) kafka.Message {
				return message(t, models.NewTransactionEvent(models.EventTypeTransactionUpdated, "peer", "abc", 1))
			},
			flushed: true,
		},
		{
			name: "bulk import flushes",
			msg: func(t *testing.T) kafka.Message {
				return message(t, models.NewTransactionEvent(models.EventTypeTransactionsImported, "importer", "", 1000))
			},
			flushed: true,
		},
		{
			name: "own event ignored",
			msg: func(t *testing.T) kafka.Message {
				return message(t, models.NewTransactionEvent(models.EventTypeTransactionCreated, "self", "abc", 1))
			},
		},
		{
			name: "unknown type ignored",
			msg: func(t *testing.T) kafka.Message {
				return message(t, models.NewTransactionEvent("SOMETHING_ELSE", "peer", "", 0))
			},
		},
		{
			name: "malformed skipped",
			msg: func(t *testing.T) kafka.Message {
				return kafka.Message{Value: []byte("{not json")}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cache.NewMemoryCache(time.Minute, 0)
			defer c.Close()
			ctx := context.Background()
			require.NoError(t, c.Set(ctx, cache.KeyStats, []byte("{}"), time.Minute))

			w := NewCacheInvalidationWorker(nil, c, "self")
			require.NoError(t, w.HandleMessage(ctx, tt.msg(t)))

			_, found, err := c.Get(ctx, cache.KeyStats)
			require.NoError(t, err)
			assert.Equal(t, !tt.flushed, found)
		})
	}
}
