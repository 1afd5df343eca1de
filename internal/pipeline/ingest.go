package pipeline

import (
	"context"

	"github.com/dvloznov/findata/internal/logger"
)

// insertBatchSize is the number of records handed to the storage engine per
// bulk-insert call.
const insertBatchSize = 50_000

// Inserter is the slice of the storage layer the ingestion pipeline needs.
// InsertBatch persists documents with unordered semantics and reports how
// many of them actually made it, alongside any error for the remainder.
type Inserter interface {
	InsertBatch(ctx context.Context, docs []any) (int, error)
}

// Ingest parses raw CSV bytes, normalizes them into canonical records and
// persists them in unordered batches. It returns the total number of
// successfully inserted records.
//
// A batch that fails wholesale contributes zero to the total but does not
// stop subsequent batches; only a non-tabular body aborts the ingest.
func Ingest(ctx context.Context, raw []byte, ins Inserter) (int, error) {
	log := logger.FromContext(ctx)

	table, err := ParseCSV(raw)
	if err != nil {
		return 0, err
	}
	Normalize(table)

	recs := table.Records()
	if len(recs) == 0 {
		return 0, nil
	}

	docs := make([]any, len(recs))
	for i, r := range recs {
		docs[i] = r
	}

	inserted := 0
	for start := 0; start < len(docs); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(docs) {
			end = len(docs)
		}

		n, err := ins.InsertBatch(ctx, docs[start:end])
		inserted += n
		if err != nil {
			log.Warn().
				Err(err).
				Int("batch_start", start).
				Int("batch_size", end-start).
				Int("batch_inserted", n).
				Msg("Batch insert incomplete, continuing with next batch")
		}
	}

	log.Info().Int("rows", len(docs)).Int("inserted", inserted).Msg("CSV ingest completed")
	return inserted, nil
}
