package store

import (
	"context"
	"fmt"
	"math"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Summary computes collection-wide totals. An empty collection yields the
// zero row rather than an error.
func (s *Store) Summary(ctx context.Context) (*SummaryRow, error) {
	pipe := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total_transactions", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "total_amount", Value: bson.D{{Key: "$sum", Value: "$amount"}}},
			{Key: "fraud_cases", Value: bson.D{{Key: "$sum", Value: "$fraud"}}},
			{Key: "customers", Value: bson.D{{Key: "$addToSet", Value: "$customer"}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "total_transactions", Value: 1},
			{Key: "total_amount", Value: 1},
			{Key: "fraud_cases", Value: 1},
			{Key: "unique_customers", Value: bson.D{{Key: "$size", Value: "$customers"}}},
		}}},
	}

	var rows []SummaryRow
	if err := s.aggregate(ctx, pipe, &rows, false); err != nil {
		return nil, fmt.Errorf("Summary: %w", err)
	}
	if len(rows) == 0 {
		return &SummaryRow{}, nil
	}
	return &rows[0], nil
}

// CategorySpend sums amount per category, highest spend first.
func (s *Store) CategorySpend(ctx context.Context) ([]CategorySpendRow, error) {
	pipe := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "amount", Value: bson.D{{Key: "$sum", Value: "$amount"}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "category", Value: "$_id"},
			{Key: "amount", Value: 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "amount", Value: -1}}}},
	}

	rows := []CategorySpendRow{}
	if err := s.aggregate(ctx, pipe, &rows, false); err != nil {
		return nil, fmt.Errorf("CategorySpend: %w", err)
	}
	return rows, nil
}

// FraudTrend sums fraud flags per time step in step order.
func (s *Store) FraudTrend(ctx context.Context) ([]FraudTrendRow, error) {
	pipe := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$step"},
			{Key: "fraud", Value: bson.D{{Key: "$sum", Value: "$fraud"}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "step", Value: "$_id"},
			{Key: "fraud", Value: 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "step", Value: 1}}}},
	}

	rows := []FraudTrendRow{}
	if err := s.aggregate(ctx, pipe, &rows, false); err != nil {
		return nil, fmt.Errorf("FraudTrend: %w", err)
	}
	return rows, nil
}

// AmountByGender sums spend and volume per gender bucket.
func (s *Store) AmountByGender(ctx context.Context) ([]GenderAmountRow, error) {
	pipe := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$gender"},
			{Key: "amount", Value: bson.D{{Key: "$sum", Value: "$amount"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "gender", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$_id", "unknown"}}}},
			{Key: "amount", Value: 1},
			{Key: "count", Value: 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "amount", Value: -1}}}},
	}

	rows := []GenderAmountRow{}
	if err := s.aggregate(ctx, pipe, &rows, false); err != nil {
		return nil, fmt.Errorf("AmountByGender: %w", err)
	}
	return rows, nil
}

// FraudByCategory returns the categories with the most fraud, with the
// fraud rate guarded against empty groups.
func (s *Store) FraudByCategory(ctx context.Context, limit int64) ([]CategoryFraudRow, error) {
	pipe := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "fraud_count", Value: bson.D{{Key: "$sum", Value: "$fraud"}}},
			{Key: "total_tx", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "category", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$_id", "unknown"}}}},
			{Key: "fraud_count", Value: 1},
			{Key: "fraud_rate", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$gt", Value: bson.A{"$total_tx", 0}}},
				bson.D{{Key: "$divide", Value: bson.A{"$fraud_count", "$total_tx"}}},
				0,
			}}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "fraud_count", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
	}

	rows := []CategoryFraudRow{}
	if err := s.aggregate(ctx, pipe, &rows, false); err != nil {
		return nil, fmt.Errorf("FraudByCategory: %w", err)
	}
	return rows, nil
}

// AvgAmountByCategory returns the categories with the highest average
// transaction amount.
func (s *Store) AvgAmountByCategory(ctx context.Context, limit int64) ([]CategoryAvgRow, error) {
	pipe := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "avg_amount", Value: bson.D{{Key: "$avg", Value: "$amount"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "category", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$_id", "unknown"}}}},
			{Key: "avg_amount", Value: 1},
			{Key: "count", Value: 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "avg_amount", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
	}

	rows := []CategoryAvgRow{}
	if err := s.aggregate(ctx, pipe, &rows, false); err != nil {
		return nil, fmt.Errorf("AvgAmountByCategory: %w", err)
	}
	return rows, nil
}

// TopMerchants returns merchants ranked by total spend.
func (s *Store) TopMerchants(ctx context.Context, limit int64) ([]MerchantRow, error) {
	pipe := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$merchant"},
			{Key: "amount", Value: bson.D{{Key: "$sum", Value: "$amount"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "merchant", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$_id", "unknown"}}}},
			{Key: "amount", Value: 1},
			{Key: "count", Value: 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "amount", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
	}

	rows := []MerchantRow{}
	if err := s.aggregate(ctx, pipe, &rows, false); err != nil {
		return nil, fmt.Errorf("TopMerchants: %w", err)
	}
	return rows, nil
}

// AmountHistogram buckets non-negative amounts. Fast mode makes one cheap
// min/max pass and then equal-width buckets; quantile mode delegates to
// $bucketAuto, which reads much better on skewed amounts. An empty
// collection yields an empty slice.
func (s *Store) AmountHistogram(ctx context.Context, bins int64, mode string) ([]HistogramBin, error) {
	match := bson.D{{Key: "$match", Value: bson.D{
		{Key: "amount", Value: bson.D{{Key: "$gte", Value: 0}}},
	}}}

	if mode == HistogramQuantile {
		pipe := mongo.Pipeline{
			match,
			{{Key: "$bucketAuto", Value: bson.D{
				{Key: "groupBy", Value: "$amount"},
				{Key: "buckets", Value: bins},
				{Key: "output", Value: bson.D{{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}},
			}}},
			{{Key: "$project", Value: bson.D{
				{Key: "_id", Value: 0},
				{Key: "bin_min", Value: "$_id.min"},
				{Key: "bin_max", Value: "$_id.max"},
				{Key: "mid", Value: bson.D{{Key: "$divide", Value: bson.A{
					bson.D{{Key: "$add", Value: bson.A{"$_id.min", "$_id.max"}}},
					2,
				}}}},
				{Key: "count", Value: 1},
			}}},
			{{Key: "$sort", Value: bson.D{{Key: "mid", Value: 1}}}},
		}

		rows := []HistogramBin{}
		if err := s.aggregate(ctx, pipe, &rows, true); err != nil {
			return nil, fmt.Errorf("AmountHistogram: %w", err)
		}
		return rows, nil
	}

	// Fast equal-width path: find the range first.
	var bounds []struct {
		Min float64 `bson:"min"`
		Max float64 `bson:"max"`
	}
	rangePipe := mongo.Pipeline{
		match,
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "min", Value: bson.D{{Key: "$min", Value: "$amount"}}},
			{Key: "max", Value: bson.D{{Key: "$max", Value: "$amount"}}},
		}}},
	}
	if err := s.aggregate(ctx, rangePipe, &bounds, false); err != nil {
		return nil, fmt.Errorf("AmountHistogram: range: %w", err)
	}
	if len(bounds) == 0 {
		return []HistogramBin{}, nil
	}

	mn, mx := bounds[0].Min, bounds[0].Max
	width := math.Max((mx-mn)/float64(bins), 1.0)

	pipe := mongo.Pipeline{
		match,
		{{Key: "$project", Value: bson.D{
			{Key: "bin", Value: bson.D{{Key: "$floor", Value: bson.D{{Key: "$divide", Value: bson.A{
				bson.D{{Key: "$subtract", Value: bson.A{"$amount", mn}}},
				width,
			}}}}}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$bin"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "count", Value: 1},
			{Key: "mid", Value: bson.D{{Key: "$add", Value: bson.A{
				mn,
				bson.D{{Key: "$multiply", Value: bson.A{
					bson.D{{Key: "$add", Value: bson.A{"$_id", 0.5}}},
					width,
				}}},
			}}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "mid", Value: 1}}}},
	}

	rows := []HistogramBin{}
	if err := s.aggregate(ctx, pipe, &rows, true); err != nil {
		return nil, fmt.Errorf("AmountHistogram: %w", err)
	}
	return rows, nil
}

// aggregate runs a pipeline and decodes every result row into out.
func (s *Store) aggregate(ctx context.Context, pipe mongo.Pipeline, out any, allowDisk bool) error {
	opts := options.Aggregate()
	if allowDisk {
		opts = opts.SetAllowDiskUse(true)
	}
	cur, err := s.coll.Aggregate(ctx, pipe, opts)
	if err != nil {
		return err
	}
	return cur.All(ctx, out)
}
