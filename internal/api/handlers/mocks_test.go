package handlers

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/dvloznov/findata/internal/pipeline"
	"github.com/dvloznov/findata/internal/store"
)

// mockRepo is a hand-written store.Repository for handler tests. Zero value
// behaves like an empty collection; fields override individual calls.
type mockRepo struct {
	err error // forced failure for every call when set

	insertedTx  *pipeline.Transaction
	batchSizes  []int
	listFilter  store.ListFilter
	listCount   int64
	listItems   []bson.M
	estimated   int64
	pageItems   []bson.M
	firstDoc    bson.D
	streamDocs  []bson.D
	streamSkip  int64
	histogram   []store.HistogramBin
	watchErr    error
	watchEvents int
}

var _ store.Repository = (*mockRepo)(nil)

func (m *mockRepo) InsertOne(ctx context.Context, tx *pipeline.Transaction) error {
	m.insertedTx = tx
	return m.err
}

func (m *mockRepo) InsertBatch(ctx context.Context, docs []any) (int, error) {
	m.batchSizes = append(m.batchSizes, len(docs))
	if m.err != nil {
		return 0, m.err
	}
	return len(docs), nil
}

func (m *mockRepo) List(ctx context.Context, f store.ListFilter) (int64, []bson.M, error) {
	m.listFilter = f
	if m.listItems == nil {
		return m.listCount, []bson.M{}, m.err
	}
	return m.listCount, m.listItems, m.err
}

func (m *mockRepo) EstimatedCount(ctx context.Context) (int64, error) {
	return m.estimated, m.err
}

func (m *mockRepo) Page(ctx context.Context, limit, offset int64) ([]bson.M, error) {
	if m.pageItems == nil {
		return []bson.M{}, m.err
	}
	return m.pageItems, m.err
}

func (m *mockRepo) FirstDocument(ctx context.Context) (bson.D, error) {
	return m.firstDoc, m.err
}

func (m *mockRepo) StreamAll(ctx context.Context, skip int64) (store.Cursor, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.streamSkip = skip
	docs := m.streamDocs
	if skip > 0 && int(skip) <= len(docs) {
		docs = docs[skip:]
	}
	return &fakeCursor{docs: docs}, nil
}

func (m *mockRepo) Summary(ctx context.Context) (*store.SummaryRow, error) {
	return &store.SummaryRow{}, m.err
}

func (m *mockRepo) CategorySpend(ctx context.Context) ([]store.CategorySpendRow, error) {
	return []store.CategorySpendRow{}, m.err
}

func (m *mockRepo) FraudTrend(ctx context.Context) ([]store.FraudTrendRow, error) {
	return []store.FraudTrendRow{}, m.err
}

func (m *mockRepo) AmountByGender(ctx context.Context) ([]store.GenderAmountRow, error) {
	return []store.GenderAmountRow{}, m.err
}

func (m *mockRepo) FraudByCategory(ctx context.Context, limit int64) ([]store.CategoryFraudRow, error) {
	return []store.CategoryFraudRow{}, m.err
}

func (m *mockRepo) AvgAmountByCategory(ctx context.Context, limit int64) ([]store.CategoryAvgRow, error) {
	return []store.CategoryAvgRow{}, m.err
}

func (m *mockRepo) TopMerchants(ctx context.Context, limit int64) ([]store.MerchantRow, error) {
	return []store.MerchantRow{}, m.err
}

func (m *mockRepo) AmountHistogram(ctx context.Context, bins int64, mode string) ([]store.HistogramBin, error) {
	if m.histogram == nil {
		return []store.HistogramBin{}, m.err
	}
	return m.histogram, m.err
}

func (m *mockRepo) Watch(ctx context.Context) (store.ChangeStream, error) {
	if m.watchErr != nil {
		return nil, m.watchErr
	}
	return &fakeChangeStream{events: m.watchEvents}, nil
}

// fakeCursor drives the streaming exports from an in-memory slice.
type fakeCursor struct {
	docs   []bson.D
	pos    int
	closed bool
}

func (c *fakeCursor) Next(ctx context.Context) bool {
	if ctx.Err() != nil || c.pos >= len(c.docs) {
		return false
	}
	c.pos++
	return true
}

func (c *fakeCursor) Decode(val any) error {
	doc := c.docs[c.pos-1]
	switch out := val.(type) {
	case *bson.D:
		*out = doc
	case *bson.M:
		m := bson.M{}
		for _, e := range doc {
			m[e.Key] = e.Value
		}
		*out = m
	default:
		return fmt.Errorf("fakeCursor: unsupported decode target %T", val)
	}
	return nil
}

func (c *fakeCursor) Err() error { return nil }

func (c *fakeCursor) Close(ctx context.Context) error {
	c.closed = true
	return nil
}

// fakeChangeStream yields a fixed number of change events then ends.
type fakeChangeStream struct {
	events int
	pos    int
}

func (s *fakeChangeStream) Next(ctx context.Context) bool {
	if ctx.Err() != nil || s.pos >= s.events {
		return false
	}
	s.pos++
	return true
}

func (s *fakeChangeStream) Err() error { return nil }

func (s *fakeChangeStream) Close(ctx context.Context) error { return nil }
