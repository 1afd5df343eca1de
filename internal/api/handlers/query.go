package handlers

import (
	"math"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/findata/internal/api/middleware"
	"github.com/dvloznov/findata/internal/store"
)

// TransactionsHandler handles the filtered transaction listing.
type TransactionsHandler struct {
	repo store.Repository
	log  zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(repo store.Repository, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		repo: repo,
		log:  log,
	}
}

// ListTransactions handles GET /transactions.
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	limit, err := intParam(q, "limit", 50, 1, 500)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := intParam(q, "offset", 0, 0, math.MaxInt64)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := store.ListFilter{
		Category: q.Get("category"),
		Gender:   q.Get("gender"),
		Limit:    limit,
		Offset:   offset,
	}
	if q.Get("fraud") != "" {
		fraud, err := intParam(q, "fraud", 0, 0, 1)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		f := int(fraud)
		filter.Fraud = &f
	}

	total, items, err := h.repo.List(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count": total,
		"items": items,
	})
}

// AnalyticsHandler handles the aggregate-summary endpoints. All of the
// actual grouping and bucketing happens inside the storage engine; these
// handlers only shape parameters and relay rows.
type AnalyticsHandler struct {
	repo store.Repository
	log  zerolog.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(repo store.Repository, log zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		repo: repo,
		log:  log,
	}
}

// Summary handles GET /summary.
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	row, err := h.repo.Summary(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute summary")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute summary")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, row)
}

// CategorySpend handles GET /category-spend.
func (h *AnalyticsHandler) CategorySpend(w http.ResponseWriter, r *http.Request) {
	rows, err := h.repo.CategorySpend(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute category spend")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute category spend")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, rows)
}

// FraudTrend handles GET /fraud-trend.
func (h *AnalyticsHandler) FraudTrend(w http.ResponseWriter, r *http.Request) {
	rows, err := h.repo.FraudTrend(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute fraud trend")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute fraud trend")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, rows)
}

// AmountByGender handles GET /amount-by-gender.
func (h *AnalyticsHandler) AmountByGender(w http.ResponseWriter, r *http.Request) {
	rows, err := h.repo.AmountByGender(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute amount by gender")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute amount by gender")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, rows)
}

// FraudByCategory handles GET /fraud-by-category.
func (h *AnalyticsHandler) FraudByCategory(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query(), "limit", 12, 1, 50)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := h.repo.FraudByCategory(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute fraud by category")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute fraud by category")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, rows)
}

// AvgAmountByCategory handles GET /avg-amount-by-category.
func (h *AnalyticsHandler) AvgAmountByCategory(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query(), "limit", 12, 1, 50)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := h.repo.AvgAmountByCategory(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute avg amount by category")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute avg amount by category")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, rows)
}

// TopMerchants handles GET /top-merchants.
func (h *AnalyticsHandler) TopMerchants(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query(), "limit", 10, 1, 50)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := h.repo.TopMerchants(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute top merchants")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute top merchants")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, rows)
}

// AmountHistogram handles GET /amount-histogram.
func (h *AnalyticsHandler) AmountHistogram(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	bins, err := intParam(q, "bins", 20, 5, 60)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	mode := q.Get("mode")
	if mode == "" {
		mode = store.HistogramFast
	}
	if mode != store.HistogramFast && mode != store.HistogramQuantile {
		middleware.WriteError(w, http.StatusBadRequest, "mode must be 'fast' or 'quantile'")
		return
	}

	rows, err := h.repo.AmountHistogram(r.Context(), bins, mode)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute amount histogram")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute amount histogram")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, rows)
}
