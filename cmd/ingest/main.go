package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/campusqa/askd/internal/config"
	dbRedis "github.com/campusqa/askd/internal/db/redis"
	"github.com/campusqa/askd/internal/domain"
	logpkg "github.com/campusqa/askd/internal/logger"
	"github.com/campusqa/askd/internal/metrics"
	indexrepo "github.com/campusqa/askd/internal/repository/index"
	openaiProvider "github.com/campusqa/askd/internal/transport/openai"
	indexuc "github.com/campusqa/askd/internal/usecase/index"
)

// ingestRecord is one JSONL line. Records without an id get a generated one.
type ingestRecord struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
}

// embedBatchSize bounds how many texts go to the provider per call.
const embedBatchSize = 64

func main() {
	filePath := flag.String("file", "", "path to a JSONL file with records to index")
	reset := flag.Bool("reset", false, "drop and recreate the vector index before ingesting")
	flag.Parse()

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "usage: ingest -file <records.jsonl>")
		os.Exit(2)
	}

	_ = godotenv.Load()

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}

	metrics.RegisterProviderMetrics()

	embedder := openaiProvider.NewEmbedder(&openaiProvider.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Logger:     logger,
	})

	repo := indexrepo.New(store, cfg.Index.Collection, cfg.Embedding.Dimensions, logger).
		WithHNSW(indexrepo.HNSWConfig{
			M:           cfg.Index.HNSWM,
			EFConstruct: cfg.Index.HNSWEFConstruct,
		})
	if *reset {
		if err := repo.Reset(ctx); err != nil {
			logger.Fatal("Failed to reset vector index", zap.Error(err))
		}
	}
	if err := repo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to initialize vector index", zap.Error(err))
	}

	svc := indexuc.NewService(embedder, repo, logger)

	file, err := os.Open(*filePath)
	if err != nil {
		logger.Fatal("Failed to open input file", zap.Error(err))
	}
	defer file.Close()

	indexed, failed := 0, 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	// Batching amortizes provider calls: one embedding request per
	// embedBatchSize documents instead of one per line.
	var batch []domain.Document
	var batchLines []int

	flush := func() {
		if len(batch) == 0 {
			return
		}
		errs := svc.UpsertBatch(ctx, batch)
		for i, err := range errs {
			if err != nil {
				logger.Warn("Failed to index record",
					zap.Int("line", batchLines[i]),
					zap.String("id", batch[i].ID),
					zap.Error(err))
				failed++
				continue
			}
			indexed++
		}
		batch = batch[:0]
		batchLines = batchLines[:0]
	}

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var rec ingestRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			logger.Warn("Skipping malformed record", zap.Int("line", line), zap.Error(err))
			failed++
			continue
		}

		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}

		batch = append(batch, domain.Document{ID: rec.ID, Text: rec.Text, Metadata: rec.Metadata})
		batchLines = append(batchLines, line)
		if len(batch) >= embedBatchSize {
			flush()
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Fatal("Failed to read input file", zap.Error(err))
	}
	flush()

	logger.Info("Ingestion finished",
		zap.Int("indexed", indexed),
		zap.Int("failed", failed),
		zap.String("collection", cfg.Index.Collection))

	if failed > 0 {
		os.Exit(1)
	}
}
