package store

import (
	"fmt"
	"regexp"

	"transaction-service/internal/models"
	"transaction-service/internal/query"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// buildFilter renders a filter as a query document
func buildFilter(f query.Filter) bson.D {
	filter := bson.D{}

	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		or := make(bson.A, len(query.SearchFields))
		for i, field := range query.SearchFields {
			or[i] = bson.D{{Key: field, Value: pattern}}
		}
		filter = append(filter, bson.E{Key: "$or", Value: or})
	}

	for _, clause := range f.In {
		filter = append(filter, bson.E{Key: clause.Field, Value: bson.D{{Key: "$in", Value: clause.Values}}})
	}

	if len(f.Tags) > 0 {
		filter = append(filter, bson.E{Key: "tags", Value: bson.D{{Key: "$in", Value: f.Tags}}})
	}

	if r := f.TotalAmount; r != nil {
		bounds := bson.D{}
		if r.Min != nil {
			bounds = append(bounds, bson.E{Key: "$gte", Value: *r.Min})
		}
		if r.Max != nil {
			bounds = append(bounds, bson.E{Key: "$lte", Value: *r.Max})
		}
		filter = append(filter, bson.E{Key: "totalAmount", Value: bounds})
	}

	if r := f.Date; r != nil {
		bounds := bson.D{}
		if r.From != nil {
			bounds = append(bounds, bson.E{Key: "$gte", Value: *r.From})
		}
		if r.To != nil {
			bounds = append(bounds, bson.E{Key: "$lte", Value: *r.To})
		}
		filter = append(filter, bson.E{Key: "date", Value: bounds})
	}

	return filter
}

func sortDocument(s query.Sort) bson.D {
	field := s.Field
	if !query.SortableFields[field] {
		field = query.DefaultSortField
	}
	dir := 1
	if s.Desc {
		dir = -1
	}
	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}}
}

// toDocument encodes t with the given ObjectID as its _id
func toDocument(id primitive.ObjectID, t *models.Transaction) (bson.D, error) {
	c := *t
	c.ID = ""

	raw, err := bson.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction: %w", err)
	}
	var doc bson.D
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to encode transaction: %w", err)
	}
	return append(bson.D{{Key: "_id", Value: id}}, doc...), nil
}

// fromDocument normalizes a decoded document; times come back in local time
// and tags may be missing on records written by other tools.
func fromDocument(t models.Transaction) *models.Transaction {
	t.Tags = models.CleanTags(t.Tags)
	t.Date = t.Date.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t
}
