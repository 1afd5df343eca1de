package handlers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	gojson "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/dvloznov/findata/internal/api/middleware"
	"github.com/dvloznov/findata/internal/store"
)

// ExportHandler handles the full-dump export endpoints. The NDJSON and CSV
// paths stream: at most one record is formatted in memory at a time,
// regardless of collection size.
type ExportHandler struct {
	repo store.Repository
	log  zerolog.Logger
}

// NewExportHandler creates a new export handler.
func NewExportHandler(repo store.Repository, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		repo: repo,
		log:  log,
	}
}

// Everything handles GET /everything: one page of the whole collection plus
// a fast estimated total. The estimate may lag concurrent writes.
func (h *ExportHandler) Everything(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	limit, err := intParam(q, "limit", 1000, 1, 100_000)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := intParam(q, "offset", 0, 0, math.MaxInt64)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	total, err := h.repo.EstimatedCount(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to estimate count")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to read collection")
		return
	}

	items, err := h.repo.Page(ctx, limit, offset)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read page")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to read collection")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":  total,
		"limit":  limit,
		"offset": offset,
		"items":  items,
	})
}

// EverythingNDJSON handles GET /everything.ndjson: the whole collection,
// one JSON object per line, flushed as each record is read. A dropped
// connection cancels the request context, which stops the cursor; the
// stream is not restartable mid-way.
func (h *ExportHandler) EverythingNDJSON(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cur, err := h.repo.StreamAll(ctx, 0)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to open export cursor")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to read collection")
		return
	}
	defer cur.Close(context.Background())

	w.Header().Set("Content-Type", "application/x-ndjson")
	flusher, _ := w.(http.Flusher)

	enc := gojson.NewEncoder(w)
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			h.log.Error().Err(err).Msg("Failed to decode export document")
			return
		}
		if err := enc.Encode(doc); err != nil {
			// Client went away; nobody is listening for an error.
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	if err := cur.Err(); err != nil && !errors.Is(err, context.Canceled) {
		h.log.Error().Err(err).Msg("NDJSON export cursor failed")
	}
}

// EverythingCSV handles GET /everything.csv: a CSV download of the whole
// collection. The header row comes from the first document's fields in
// their natural order; an empty collection produces an empty body. The
// first document costs a second read, which buys bounded memory for the
// rest of the stream.
func (h *ExportHandler) EverythingCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	first, err := h.repo.FirstDocument(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read first document")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to read collection")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="everything.csv"`)

	if first == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	fields := make([]string, len(first))
	for i, e := range first {
		fields[i] = e.Key
	}

	flusher, _ := w.(http.Flusher)
	cw := csv.NewWriter(w)
	writeRow := func(doc bson.D) error {
		row := make([]string, len(fields))
		byKey := make(map[string]any, len(doc))
		for _, e := range doc {
			byKey[e.Key] = e.Value
		}
		for i, f := range fields {
			row[i] = formatCell(byKey[f])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	}

	if err := cw.Write(fields); err != nil {
		return
	}
	if err := writeRow(first); err != nil {
		return
	}

	cur, err := h.repo.StreamAll(ctx, 1)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to open export cursor")
		return
	}
	defer cur.Close(context.Background())

	for cur.Next(ctx) {
		var doc bson.D
		if err := cur.Decode(&doc); err != nil {
			h.log.Error().Err(err).Msg("Failed to decode export document")
			return
		}
		if err := writeRow(doc); err != nil {
			return
		}
	}

	if err := cur.Err(); err != nil && !errors.Is(err, context.Canceled) {
		h.log.Error().Err(err).Msg("CSV export cursor failed")
	}
}

// formatCell renders one document value the way it should appear in a CSV
// cell. Floats keep their shortest decimal rendering.
func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
