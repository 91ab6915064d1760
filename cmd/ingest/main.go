package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rachitv/framl/backend/internal/config"
	"github.com/rachitv/framl/backend/internal/domain"
	"github.com/rachitv/framl/backend/internal/graph"
	"github.com/rachitv/framl/backend/internal/logging"
	"github.com/rachitv/framl/backend/internal/service"
)

var errMissingDataset = errors.New("dataset not found")

func main() {
	var (
		datasetDir   = flag.String("dataset-dir", "./seed-data", "Directory containing users.json and transactions.json")
		usersPath    = flag.String("users", "", "Path to users.json (overrides dataset-dir)")
		transactions = flag.String("transactions", "", "Path to transactions.json (overrides dataset-dir)")
		mode         = flag.String("mode", "bulk", "Ingestion mode: bulk (group-by rebuild) or stream (incremental per record)")
		workers      = flag.Int("workers", 0, "Number of concurrent workers for stream mode (defaults to INGEST_WORKERS)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).With("component", "ingest")

	if *mode != "bulk" && *mode != "stream" {
		logger.Error("unknown mode", "mode", *mode)
		os.Exit(1)
	}
	if *workers <= 0 {
		*workers = cfg.Ingest.Workers
	}

	userFile, txFile, err := resolveDatasetPaths(*datasetDir, *usersPath, *transactions)
	if err != nil {
		logger.Error("dataset resolution failed", "error", err)
		os.Exit(1)
	}

	var users []domain.User
	if err := loadJSON(userFile, &users); err != nil {
		logger.Error("failed to load users", "error", err, "path", userFile)
		os.Exit(1)
	}
	if len(users) == 0 {
		logger.Error("users dataset empty", "path", userFile)
		os.Exit(1)
	}

	var txs []domain.Transaction
	if err := loadJSON(txFile, &txs); err != nil {
		logger.Error("failed to load transactions", "error", err, "path", txFile)
		os.Exit(1)
	}
	if len(txs) == 0 {
		logger.Error("transactions dataset empty", "path", txFile)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := buildStore(ctx, logger, cfg)
	if err != nil {
		logger.Error("failed to create graph store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Warn("closing graph store failed", "error", err)
		}
	}()

	if err := store.EnsureIndexes(ctx); err != nil {
		logger.Error("failed to ensure graph indexes", "error", err)
		os.Exit(1)
	}

	svc := service.New(store, nil)

	start := time.Now()
	switch *mode {
	case "bulk":
		logger.Info("bulk loading dataset", "users", len(users), "transactions", len(txs))
		if err := svc.BulkLoad(ctx, users, txs); err != nil {
			logger.Error("bulk load failed", "error", err)
			os.Exit(1)
		}
	case "stream":
		if err := svc.HydrateIndex(ctx); err != nil {
			logger.Error("failed to hydrate attribute index", "error", err)
			os.Exit(1)
		}
		ingestor := service.NewStreamIngestor(svc, *workers)

		logger.Info("ingesting users", "count", len(users), "workers", *workers)
		if err := ingestor.IngestUsers(ctx, users); err != nil {
			logger.Error("user ingestion failed", "error", err)
			os.Exit(1)
		}

		logger.Info("ingesting transactions", "count", len(txs))
		if err := ingestor.IngestTransactions(ctx, txs); err != nil {
			logger.Error("transaction ingestion failed", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("ingestion complete", "mode", *mode, "duration", time.Since(start).String(),
		"users", len(users), "transactions", len(txs))
}

func resolveDatasetPaths(baseDir, usersPath, transactionsPath string) (string, string, error) {
	resolve := func(explicitPath, fallbackFile string) (string, error) {
		if explicitPath != "" {
			if _, err := os.Stat(explicitPath); err != nil {
				return "", fmt.Errorf("stat %s: %w", explicitPath, err)
			}
			return explicitPath, nil
		}
		path := filepath.Join(baseDir, fallbackFile)
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: %s", errMissingDataset, path)
		}
		return path, nil
	}

	usersFile, err := resolve(usersPath, "users.json")
	if err != nil {
		return "", "", err
	}
	txsFile, err := resolve(transactionsPath, "transactions.json")
	if err != nil {
		return "", "", err
	}
	return usersFile, txsFile, nil
}

func loadJSON(path string, target any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func buildStore(ctx context.Context, logger *slog.Logger, cfg config.Config) (graph.Store, error) {
	if cfg.Graph.URI == "" {
		return nil, fmt.Errorf("GRAPH_URI is required for ingestion")
	}
	opts := graph.Options{
		URI:            cfg.Graph.URI,
		Database:       cfg.Graph.Database,
		Username:       cfg.Graph.Username,
		Password:       cfg.Graph.Password,
		MaxConnections: cfg.Graph.MaxConnections,
	}
	store, err := graph.NewNeo4jStore(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := store.VerifyConnectivity(ctx); err != nil {
		_ = store.Close(ctx)
		return nil, err
	}
	logger.Info("connected to graph", "uri", cfg.Graph.URI, "database", cfg.Graph.Database)
	return store, nil
}
