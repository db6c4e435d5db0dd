// Command importer loads a JSON array of log records into PostgreSQL and announces
// the affected sources on NATS so caches and open dashboards refresh.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/V4T54L/voicewatch/internal/adapter/events"
	"github.com/V4T54L/voicewatch/internal/adapter/repository/postgres"
	"github.com/V4T54L/voicewatch/internal/domain"
	"github.com/V4T54L/voicewatch/internal/pkg/config"
	"github.com/V4T54L/voicewatch/internal/pkg/logger"
	"github.com/V4T54L/voicewatch/internal/usecase"

	_ "github.com/lib/pq"
)

func main() {
	file := flag.String("file", "", "Path to a JSON array of log records (- for stdin)")
	source := flag.String("source", "", "Override the source of every record")
	batchSize := flag.Int("batch", 500, "Records per COPY batch")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	if cfg.PostgresURL == "" || *file == "" {
		log.Error("POSTGRES_URL and -file are required")
		os.Exit(1)
	}

	records, err := readRecords(*file)
	if err != nil {
		log.Error("failed to read records", "file", *file, "error", err)
		os.Exit(1)
	}
	sources := normalize(records, *source)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		log.Error("failed to open postgres connection", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := postgres.NewLogRepository(db, log)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	for batch := range slices.Chunk(records, max(*batchSize, 1)) {
		if err := repo.WriteLogs(ctx, batch); err != nil {
			log.Error("failed to write batch", "error", err)
			os.Exit(1)
		}
	}
	log.Info("imported logs", "count", len(records), "sources", sources)

	if cfg.NATSURL == "" {
		return
	}
	nc, err := events.NewClient(cfg.NATSURL, cfg.NATSToken, log)
	if err != nil {
		log.Error("failed to connect to nats", "error", err)
		os.Exit(1)
	}
	defer nc.Close()
	if err := nc.Publish(cfg.NATSInvalidationSubject, usecase.IngestionEvent{Sources: sources}); err != nil {
		log.Error("failed to publish ingestion event", "error", err)
		os.Exit(1)
	}
	if err := nc.Flush(); err != nil {
		log.Warn("failed to flush nats connection", "error", err)
	}
}

func readRecords(path string) ([]domain.LogRecord, error) {
	in := os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		in = f
	}

	var records []domain.LogRecord
	if err := json.NewDecoder(in).Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}

// normalize fills missing ids and timestamps, applies the source override and returns
// the distinct sources of the batch.
func normalize(records []domain.LogRecord, source string) []string {
	var sources []string
	now := time.Now().UTC()
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.Timestamp.IsZero() {
			rec.Timestamp = now
		}
		if source != "" {
			rec.Source = source
		}
		if rec.Source != "" && !slices.Contains(sources, rec.Source) {
			sources = append(sources, rec.Source)
		}
	}
	return sources
}
