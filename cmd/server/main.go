package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rachitv/framl/backend/internal/config"
	"github.com/rachitv/framl/backend/internal/graph"
	"github.com/rachitv/framl/backend/internal/logging"
	"github.com/rachitv/framl/backend/internal/server"
	"github.com/rachitv/framl/backend/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	store, err := buildStore(ctx, logger, cfg)
	if err != nil {
		logger.Error("failed to create graph store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if store != nil {
			if err := store.Close(context.Background()); err != nil {
				logger.Warn("closing graph store failed", "error", err)
			}
		}
	}()

	if err := store.EnsureIndexes(ctx); err != nil {
		logger.Error("failed to ensure graph indexes", "error", err)
		os.Exit(1)
	}

	svc := service.New(store, nil)
	if err := svc.HydrateIndex(ctx); err != nil {
		logger.Error("failed to hydrate attribute index", "error", err)
		os.Exit(1)
	}

	apiHandlers := server.NewAPIHandlers(logger, svc)
	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           server.GraphHealthService{Store: store},
		API:              apiHandlers,
		AllowedOrigins:   parseAllowedOrigins(cfg.HTTP.AllowedOriginsCSV),
		AllowCredentials: true,
	})

	srv := server.New(logger, cfg.HTTP, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server stopped unexpectedly", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func buildStore(ctx context.Context, logger *slog.Logger, cfg config.Config) (graph.Store, error) {
	if cfg.Graph.URI == "" {
		return nil, graph.ErrMissingURI
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
	logger.Info("connected to graph", "uri", cfg.Graph.URI, "database", cfg.Graph.Database)
	return store, nil
}

func parseAllowedOrigins(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	var origins []string
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}
