package store

import (
	"testing"
	"time"

	"transaction-service/internal/models"
	"transaction-service/internal/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBuildFilter_Empty(t *testing.T) {
	assert.Equal(t, bson.D{}, buildFilter(query.Filter{}))
}

func TestBuildFilter(t *testing.T) {
	maxAmount := 900.0
	from := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	filter := buildFilter(query.Filter{
		Search:      "a+b",
		In:          []query.InClause{{Field: "region", Values: []string{"North"}}},
		Tags:        []string{"sale", "new"},
		TotalAmount: &query.FloatRange{Max: &maxAmount},
		Date:        &query.TimeRange{From: &from},
	})

	pattern := primitive.Regex{Pattern: `a\+b`, Options: "i"}
	assert.Equal(t, bson.D{
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "customerName", Value: pattern}},
			bson.D{{Key: "phoneNumber", Value: pattern}},
			bson.D{{Key: "productName", Value: pattern}},
		}},
		{Key: "region", Value: bson.D{{Key: "$in", Value: []string{"North"}}}},
		{Key: "tags", Value: bson.D{{Key: "$in", Value: []string{"sale", "new"}}}},
		{Key: "totalAmount", Value: bson.D{{Key: "$lte", Value: 900.0}}},
		{Key: "date", Value: bson.D{{Key: "$gte", Value: from}}},
	}, filter)
}

func TestSortDocument(t *testing.T) {
	assert.Equal(t,
		bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}},
		sortDocument(query.Sort{Field: "date", Desc: true}))
	assert.Equal(t,
		bson.D{{Key: "age", Value: 1}, {Key: "_id", Value: 1}},
		sortDocument(query.Sort{Field: "age"}))
	assert.Equal(t,
		bson.D{{Key: "paymentMethod", Value: -1}, {Key: "_id", Value: -1}},
		sortDocument(query.Sort{Field: "paymentMethod", Desc: true}))
}

func TestToDocument(t *testing.T) {
	oid := primitive.NewObjectID()
	tx := &models.Transaction{ID: "ignored", CustomerName: "Asha", Tags: []string{"x"}}

	doc, err := toDocument(oid, tx)
	require.NoError(t, err)

	require.NotEmpty(t, doc)
	assert.Equal(t, "_id", doc[0].Key)
	assert.Equal(t, oid, doc[0].Value)

	ids := 0
	for _, e := range doc {
		if e.Key == "_id" {
			ids++
		}
	}
	assert.Equal(t, 1, ids)
	assert.Equal(t, "ignored", tx.ID, "input must not be modified")

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var decoded models.Transaction
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	assert.Equal(t, oid.Hex(), decoded.ID)
	assert.Equal(t, "Asha", decoded.CustomerName)
	assert.Equal(t, []string{"x"}, decoded.Tags)
}

func TestMongoStore_Integration(t *testing.T) {
	t.Skip("Integration test - requires mongodb")
}
