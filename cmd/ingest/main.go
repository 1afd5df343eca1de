package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/findata/internal/config"
	"github.com/dvloznov/findata/internal/logger"
	"github.com/dvloznov/findata/internal/pipeline"
	"github.com/dvloznov/findata/internal/store"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	file := flag.String("file", "", "Path to the CSV file to ingest")
	flag.Parse()

	if *file == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	content, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read CSV file")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	cfg := config.FromEnv()
	repo, err := store.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer repo.Close(ctx)

	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure indexes")
	}

	log.Info().Str("file", *file).Msg("Starting ingestion")

	inserted, err := pipeline.Ingest(ctx, content, repo)
	if err != nil {
		log.Fatal().Err(err).Msg("Ingestion failed")
	}

	fmt.Printf("Ingestion completed successfully: %d records inserted.\n", inserted)
}
