package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dvloznov/findata/internal/config"
	"github.com/dvloznov/findata/internal/pipeline"
)

// Store is the concrete Repository backed by a MongoDB collection. It holds
// the single process-wide client; all request handlers share it.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var _ Repository = (*Store)(nil)

// New connects to MongoDB and returns a Store bound to the configured
// database and collection.
func New(ctx context.Context, cfg config.Config) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("store.New: connecting: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("store.New: ping: %w", err)
	}

	return &Store{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	if s.client != nil {
		return s.client.Disconnect(ctx)
	}
	return nil
}

// EnsureIndexes creates the secondary indexes the query endpoints rely on.
// CreateMany is a no-op for indexes that already exist, so this is safe to
// run on every startup.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "step", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "fraud", Value: 1}}},
		{Keys: bson.D{{Key: "customer", Value: 1}}},
		{Keys: bson.D{{Key: "merchant", Value: 1}}},
		{Keys: bson.D{{Key: "amount", Value: 1}}},
		{Keys: bson.D{{Key: "customer", Value: 1}, {Key: "step", Value: 1}}},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("EnsureIndexes: %w", err)
	}
	return nil
}

// InsertOne persists a single canonical transaction as-is.
func (s *Store) InsertOne(ctx context.Context, tx *pipeline.Transaction) error {
	if _, err := s.coll.InsertOne(ctx, tx); err != nil {
		return fmt.Errorf("InsertOne: %w", err)
	}
	return nil
}

// InsertBatch bulk-inserts documents with unordered semantics: a failing
// document does not prevent the rest of the batch from being attempted. The
// returned count reflects only documents that were actually persisted.
func (s *Store) InsertBatch(ctx context.Context, docs []any) (int, error) {
	res, err := s.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil {
		var bulkErr mongo.BulkWriteException
		if errors.As(err, &bulkErr) {
			return len(docs) - len(bulkErr.WriteErrors), fmt.Errorf("InsertBatch: %w", err)
		}
		return 0, fmt.Errorf("InsertBatch: %w", err)
	}
	return len(res.InsertedIDs), nil
}
