package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteByPrefix(t *testing.T) {
	t.Skip("Integration test - requires redis")

	client, err := NewClient("localhost:6379", "", 15)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.SetBytes(ctx, "test:a", []byte("1"), time.Minute))
	require.NoError(t, client.SetBytes(ctx, "test:b", []byte("2"), time.Minute))
	require.NoError(t, client.SetBytes(ctx, "other:c", []byte("3"), time.Minute))

	deleted, err := client.DeleteByPrefix(ctx, "test:")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	_, found, err := client.GetBytes(ctx, "other:c")
	require.NoError(t, err)
	assert.True(t, found)
}
