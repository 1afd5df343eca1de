package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// noID projects the storage-internal identifier out of every read path;
// clients never see _id.
var noID = bson.D{{Key: "_id", Value: 0}}

// List returns the exact matching count plus one page of transactions.
func (s *Store) List(ctx context.Context, f ListFilter) (int64, []bson.M, error) {
	filter := buildListFilter(f)

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, nil, fmt.Errorf("List: count: %w", err)
	}

	opts := options.Find().
		SetProjection(noID).
		SetSkip(f.Offset).
		SetLimit(f.Limit)
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return 0, nil, fmt.Errorf("List: find: %w", err)
	}

	items := []bson.M{}
	if err := cur.All(ctx, &items); err != nil {
		return 0, nil, fmt.Errorf("List: decode: %w", err)
	}
	return total, items, nil
}

// buildListFilter translates a ListFilter into a Mongo filter document.
// Category and gender become anchored case-insensitive regex matches.
func buildListFilter(f ListFilter) bson.D {
	filter := bson.D{}
	if f.Category != "" {
		filter = append(filter, bson.E{Key: "category", Value: exactInsensitive(f.Category)})
	}
	if f.Gender != "" {
		filter = append(filter, bson.E{Key: "gender", Value: exactInsensitive(f.Gender)})
	}
	if f.Fraud != nil {
		filter = append(filter, bson.E{Key: "fraud", Value: *f.Fraud})
	}
	return filter
}

func exactInsensitive(v string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(v) + "$", Options: "i"}
}

// EstimatedCount returns the collection's fast, approximate document count.
func (s *Store) EstimatedCount(ctx context.Context) (int64, error) {
	n, err := s.coll.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("EstimatedCount: %w", err)
	}
	return n, nil
}

// Page returns one window of the full collection in natural cursor order.
func (s *Store) Page(ctx context.Context, limit, offset int64) ([]bson.M, error) {
	opts := options.Find().
		SetProjection(noID).
		SetSkip(offset).
		SetLimit(limit)
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("Page: find: %w", err)
	}

	items := []bson.M{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("Page: decode: %w", err)
	}
	return items, nil
}

// FirstDocument returns the first document in natural order, or nil if the
// collection is empty.
func (s *Store) FirstDocument(ctx context.Context) (bson.D, error) {
	var doc bson.D
	err := s.coll.FindOne(ctx, bson.D{}, options.FindOne().SetProjection(noID)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FirstDocument: %w", err)
	}
	return doc, nil
}

// StreamAll opens a cursor over the whole collection starting at skip, in
// natural order. The cursor is bound to ctx, so a cancelled request releases
// it server-side.
func (s *Store) StreamAll(ctx context.Context, skip int64) (Cursor, error) {
	opts := options.Find().SetProjection(noID)
	if skip > 0 {
		opts = opts.SetSkip(skip)
	}
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("StreamAll: %w", err)
	}
	return cur, nil
}
