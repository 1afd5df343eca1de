package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/findata/internal/api/handlers"
	"github.com/dvloznov/findata/internal/api/middleware"
	"github.com/dvloznov/findata/internal/config"
	"github.com/dvloznov/findata/internal/logger"
	"github.com/dvloznov/findata/internal/store"
)

func main() {
	cfg := config.FromEnv()

	// Parse command-line flags
	port := flag.String("port", cfg.Port, "HTTP server port (or set PORT env)")
	flag.Parse()

	// Initialize logger
	log := logger.New()

	ctx := context.Background()

	// Initialize storage: one client shared by every request.
	repo, err := store.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer repo.Close(ctx)

	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure indexes")
	}

	// Initialize handlers
	ingestHandler := handlers.NewIngestHandler(repo, log)
	transactionsHandler := handlers.NewTransactionsHandler(repo, log)
	analyticsHandler := handlers.NewAnalyticsHandler(repo, log)
	exportHandler := handlers.NewExportHandler(repo, log)
	changesHandler := handlers.NewChangesHandler(repo, log)

	requireKey := middleware.APIKey(cfg.APIKey)

	// Create router
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			middleware.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"docs":   "see README.md for the endpoint list",
		})
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	// Write endpoints, guarded by the shared API key
	mux.Handle("/ingest/csv", requireKey(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			ingestHandler.IngestCSV(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})))

	mux.HandleFunc("/transactions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			transactionsHandler.ListTransactions(w, r)
		case http.MethodPost:
			requireKey(http.HandlerFunc(ingestHandler.CreateTransaction)).ServeHTTP(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Aggregate endpoints
	getRoutes := map[string]http.HandlerFunc{
		"/summary":                analyticsHandler.Summary,
		"/category-spend":         analyticsHandler.CategorySpend,
		"/fraud-trend":            analyticsHandler.FraudTrend,
		"/amount-by-gender":       analyticsHandler.AmountByGender,
		"/fraud-by-category":      analyticsHandler.FraudByCategory,
		"/avg-amount-by-category": analyticsHandler.AvgAmountByCategory,
		"/top-merchants":          analyticsHandler.TopMerchants,
		"/amount-histogram":       analyticsHandler.AmountHistogram,
		"/everything":             exportHandler.Everything,
		"/everything.ndjson":      exportHandler.EverythingNDJSON,
		"/everything.csv":         exportHandler.EverythingCSV,
	}
	for path, handlerFn := range getRoutes {
		fn := handlerFn
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				fn(w, r)
			} else {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		})
	}

	mux.HandleFunc("/ws/changes", changesHandler.ServeWS)

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	// Create HTTP server. WriteTimeout stays off: the export streams and
	// the change socket hold the response open indefinitely.
	server := &http.Server{
		Addr:        ":" + *port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
