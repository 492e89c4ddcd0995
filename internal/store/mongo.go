package store

import (
	"context"
	"errors"
	"fmt"

	"transaction-service/internal/models"
	"transaction-service/internal/query"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoStore keeps transactions as documents in a MongoDB collection. Ids are
// ObjectIDs, exposed as their hex form.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(CollectionName),
	}, nil
}

// Close disconnects the client
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping checks the connection
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// EnsureIndexes creates the indexes list queries rely on
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "customerName", Value: 1}}},
		{Keys: bson.D{{Key: "phoneNumber", Value: 1}}},
		{Keys: bson.D{{Key: "gender", Value: 1}}},
		{Keys: bson.D{{Key: "region", Value: 1}}},
		{Keys: bson.D{{Key: "productName", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "totalAmount", Value: 1}}},
		{Keys: bson.D{{Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "paymentMethod", Value: 1}}},
		{Keys: bson.D{{Key: "customerName", Value: "text"}, {Key: "phoneNumber", Value: "text"}}},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Create inserts a new transaction
func (s *MongoStore) Create(ctx context.Context, t *models.Transaction) error {
	stamp(t, now())

	oid := primitive.NewObjectID()
	doc, err := toDocument(oid, t)
	if err != nil {
		return err
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	t.ID = oid.Hex()
	return nil
}

// Update applies a patch and returns the document after the update
func (s *MongoStore) Update(ctx context.Context, id string, patch models.TransactionPatch) (*models.Transaction, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	changes, err := patch.Changes()
	if err != nil {
		return nil, err
	}
	changes["updatedAt"] = now()

	var t models.Transaction
	err = s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": changes},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction %s: %w", id, err)
	}
	return fromDocument(t), nil
}

// Delete removes a transaction and returns it
func (s *MongoStore) Delete(ctx context.Context, id string) (*models.Transaction, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var t models.Transaction
	err = s.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete transaction %s: %w", id, err)
	}
	return fromDocument(t), nil
}

// Find returns one page of matching transactions
func (s *MongoStore) Find(ctx context.Context, spec query.Spec) ([]models.Transaction, error) {
	opts := options.Find().
		SetSort(sortDocument(spec.Sort)).
		SetSkip(spec.Skip).
		SetLimit(spec.Limit)

	cursor, err := s.coll.Find(ctx, buildFilter(spec.Filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}

	out := []models.Transaction{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}
	for i := range out {
		out[i] = *fromDocument(out[i])
	}
	return out, nil
}

// Count returns the number of matching transactions
func (s *MongoStore) Count(ctx context.Context, filter query.Filter) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return n, nil
}

// EstimatedCount returns the collection size from its metadata
func (s *MongoStore) EstimatedCount(ctx context.Context) (int64, error) {
	n, err := s.coll.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to estimate transaction count: %w", err)
	}
	return n, nil
}

// Distinct lists the distinct non-empty values of a field
func (s *MongoStore) Distinct(ctx context.Context, field string) ([]string, error) {
	if err := checkDistinctField(field); err != nil {
		return nil, err
	}

	raw, err := s.coll.Distinct(ctx, field, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to list distinct %s: %w", field, err)
	}

	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if str, ok := v.(string); ok {
			values = append(values, str)
		}
	}
	return compactSorted(values), nil
}

// Stats sums units and amounts over the whole collection
func (s *MongoStore) Stats(ctx context.Context) (*models.Stats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "totalUnits", Value: bson.D{{Key: "$sum", Value: "$quantity"}}},
			{Key: "totalAmount", Value: bson.D{{Key: "$sum", Value: "$totalAmount"}}},
		}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stats: %w", err)
	}

	var results []models.Stats
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode stats: %w", err)
	}
	if len(results) == 0 {
		return &models.Stats{}, nil
	}
	return &results[0], nil
}

// InsertMany inserts records with a single ordered bulk write
func (s *MongoStore) InsertMany(ctx context.Context, records []models.Transaction) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	ts := now()
	docs := make([]interface{}, len(records))
	for i := range records {
		t := records[i]
		stamp(&t, ts)
		doc, err := toDocument(primitive.NewObjectID(), &t)
		if err != nil {
			return 0, err
		}
		docs[i] = doc
	}

	res, err := s.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	if err != nil {
		return 0, fmt.Errorf("failed to insert batch: %w", err)
	}
	return len(res.InsertedIDs), nil
}

// DeleteAll removes every transaction
func (s *MongoStore) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to clear transactions: %w", err)
	}
	return res.DeletedCount, nil
}

// NewestIDs returns the ids of the n most recent transactions by date
func (s *MongoStore) NewestIDs(ctx context.Context, n int) ([]string, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(n)).
		SetProjection(bson.D{{Key: "_id", Value: 1}})

	cursor, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list newest transactions: %w", err)
	}

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode ids: %w", err)
	}

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID.Hex()
	}
	return ids, nil
}

// DeleteExcept removes every transaction not listed in keep
func (s *MongoStore) DeleteExcept(ctx context.Context, keep []string) (int64, error) {
	oids := make([]primitive.ObjectID, 0, len(keep))
	for _, id := range keep {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}

	res, err := s.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$nin": oids}})
	if err != nil {
		return 0, fmt.Errorf("failed to prune transactions: %w", err)
	}
	return res.DeletedCount, nil
}
