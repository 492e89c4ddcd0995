package store

import (
	"testing"
	"time"

	"transaction-service/internal/query"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestBuildWhere_Empty(t *testing.T) {
	where, args := buildWhere(query.Filter{})
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestBuildWhere(t *testing.T) {
	minAmount := 100.0
	to := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	where, args := buildWhere(query.Filter{
		Search:      "50%_off",
		In:          []query.InClause{{Field: "gender", Values: []string{"Male", "Female"}}},
		Tags:        []string{"sale"},
		TotalAmount: &query.FloatRange{Min: &minAmount},
		Date:        &query.TimeRange{To: &to},
	})

	assert.Equal(t,
		" WHERE (customer_name ILIKE $1 OR phone_number ILIKE $1 OR product_name ILIKE $1)"+
			" AND gender = ANY($2) AND tags && $3::text[] AND total_amount >= $4 AND date <= $5",
		where)
	assert.Equal(t, []any{
		`%50\%\_off%`,
		pq.Array([]string{"Male", "Female"}),
		pq.Array([]string{"sale"}),
		100.0,
		to,
	}, args)
}

func TestOrderBy(t *testing.T) {
	assert.Equal(t, "date DESC, id DESC", orderBy(query.Sort{Field: "date", Desc: true}))
	assert.Equal(t, "total_amount ASC, id ASC", orderBy(query.Sort{Field: "totalAmount"}))
	assert.Equal(t, "date ASC, id ASC", orderBy(query.Sort{Field: "unknown"}))
	assert.Equal(t, "payment_method DESC, id DESC", orderBy(query.Sort{Field: "paymentMethod", Desc: true}))
	assert.Equal(t, "store_location ASC, id ASC", orderBy(query.Sort{Field: "storeLocation"}))
}

func TestBuildUpdate(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	stmt, args := buildUpdate("abc", map[string]any{
		"region":   "West",
		"tags":     []string{"a"},
		"quantity": 3,
		"bogus":    "ignored",
	}, at)

	assert.Equal(t,
		"UPDATE transactions SET quantity = $1, region = $2, tags = $3, updated_at = $4 WHERE id = $5 RETURNING *",
		stmt)
	assert.Equal(t, []any{3, "West", pq.Array([]string{"a"}), at, "abc"}, args)
}

func TestBuildUpdate_NoChangesStillTouchesUpdatedAt(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	stmt, args := buildUpdate("abc", map[string]any{}, at)
	assert.Equal(t, "UPDATE transactions SET updated_at = $1 WHERE id = $2 RETURNING *", stmt)
	assert.Equal(t, []any{at, "abc"}, args)
}

func TestPostgresStore_Integration(t *testing.T) {
	t.Skip("Integration test - requires database")
}
