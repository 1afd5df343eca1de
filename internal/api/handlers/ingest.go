package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/findata/internal/api/middleware"
	"github.com/dvloznov/findata/internal/logger"
	"github.com/dvloznov/findata/internal/pipeline"
	"github.com/dvloznov/findata/internal/store"
)

// IngestHandler handles the two write paths: bulk CSV upload and single
// structured insert.
type IngestHandler struct {
	repo store.Repository
	log  zerolog.Logger
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(repo store.Repository, log zerolog.Logger) *IngestHandler {
	return &IngestHandler{
		repo: repo,
		log:  log,
	}
}

// IngestCSV handles POST /ingest/csv. The multipart "file" field is parsed,
// normalized and bulk-inserted; the response reports how many records were
// actually persisted.
func (h *IngestHandler) IngestCSV(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithContext(r.Context(), h.log)

	file, _, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Multipart 'file' field is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read upload body")
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read upload")
		return
	}

	inserted, err := pipeline.Ingest(ctx, content, h.repo)
	if err != nil {
		if errors.Is(err, pipeline.ErrNotTabular) {
			middleware.WriteError(w, http.StatusBadRequest, "Upload is not valid CSV")
			return
		}
		h.log.Error().Err(err).Msg("CSV ingest failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Ingest failed")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]int{"inserted": inserted})
}

// transactionRequest is the wire shape of a single insert. Required fields
// are pointers so a missing field is distinguishable from a zero value at
// the decode boundary.
type transactionRequest struct {
	Step        *int     `json:"step"`
	Customer    *string  `json:"customer"`
	Age         *string  `json:"age"`
	Gender      *string  `json:"gender"`
	ZipcodeOri  *string  `json:"zipcodeori"`
	Merchant    *string  `json:"merchant"`
	ZipMerchant *string  `json:"zipmerchant"`
	Category    *string  `json:"category"`
	Amount      *float64 `json:"amount"`
	Fraud       *int     `json:"fraud"`
}

// CreateTransaction handles POST /transactions. The caller is trusted to
// supply already-canonical values; no normalization happens on this path.
func (h *IngestHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Step == nil || req.Customer == nil || req.Amount == nil || req.Fraud == nil {
		middleware.WriteError(w, http.StatusBadRequest, "step, customer, amount and fraud are required")
		return
	}

	tx := &pipeline.Transaction{
		Step:        *req.Step,
		Customer:    *req.Customer,
		Age:         req.Age,
		Gender:      req.Gender,
		ZipcodeOri:  req.ZipcodeOri,
		Merchant:    req.Merchant,
		ZipMerchant: req.ZipMerchant,
		Category:    req.Category,
		Amount:      *req.Amount,
		Fraud:       *req.Fraud,
	}

	if err := h.repo.InsertOne(ctx, tx); err != nil {
		h.log.Error().Err(err).Msg("Failed to insert transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to insert transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
