package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/dvloznov/findata/internal/pipeline"
)

// Repository is the storage surface the HTTP handlers consume. *Store is
// the production implementation; tests substitute small hand-written mocks.
type Repository interface {
	InsertOne(ctx context.Context, tx *pipeline.Transaction) error
	InsertBatch(ctx context.Context, docs []any) (int, error)

	List(ctx context.Context, f ListFilter) (int64, []bson.M, error)
	EstimatedCount(ctx context.Context) (int64, error)
	Page(ctx context.Context, limit, offset int64) ([]bson.M, error)
	FirstDocument(ctx context.Context) (bson.D, error)
	StreamAll(ctx context.Context, skip int64) (Cursor, error)

	Summary(ctx context.Context) (*SummaryRow, error)
	CategorySpend(ctx context.Context) ([]CategorySpendRow, error)
	FraudTrend(ctx context.Context) ([]FraudTrendRow, error)
	AmountByGender(ctx context.Context) ([]GenderAmountRow, error)
	FraudByCategory(ctx context.Context, limit int64) ([]CategoryFraudRow, error)
	AvgAmountByCategory(ctx context.Context, limit int64) ([]CategoryAvgRow, error)
	TopMerchants(ctx context.Context, limit int64) ([]MerchantRow, error)
	AmountHistogram(ctx context.Context, bins int64, mode string) ([]HistogramBin, error)

	Watch(ctx context.Context) (ChangeStream, error)
}

// Cursor is the slice of *mongo.Cursor the streaming exports need. Keeping
// it narrow lets handler tests drive exports from an in-memory cursor.
type Cursor interface {
	Next(ctx context.Context) bool
	Decode(val any) error
	Err() error
	Close(ctx context.Context) error
}

// ChangeStream is the slice of *mongo.ChangeStream the change notifier
// needs: advance, report the terminal error, release.
type ChangeStream interface {
	Next(ctx context.Context) bool
	Err() error
	Close(ctx context.Context) error
}
