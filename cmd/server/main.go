package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/recommender/backend/config"
	httpDelivery "github.com/recommender/backend/internal/delivery/http"
	"github.com/recommender/backend/internal/domain"
	"github.com/recommender/backend/internal/infrastructure/catalog"
	"github.com/recommender/backend/internal/infrastructure/llm"
	"github.com/recommender/backend/internal/infrastructure/scoring"
	"github.com/recommender/backend/internal/logging"
	"github.com/recommender/backend/internal/usecase"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:           "recommender",
		Short:         "Serves explained product recommendations",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := run(ctx, configFile); err != nil {
				logging.Error().Err(err).Msg("server exited with error")
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "path to config file (default: ./config.yaml)")

	return cmd
}

func run(ctx context.Context, configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("catalog", cfg.Catalog.Type).
		Str("llm_provider", cfg.LLM.Provider).
		Msg("starting recommender backend")

	catalogRepo, mongoClient, err := newCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	if mongoClient != nil {
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mongoClient.Disconnect(disconnectCtx); err != nil {
				logging.Warn().Err(err).Msg("mongo disconnect failed")
			}
		}()
	}

	generator, err := newGenerator(ctx, cfg)
	if err != nil {
		return err
	}

	scoringClient := scoring.NewClient(scoring.Config{
		BaseURL:          cfg.Scoring.BaseURL,
		Timeout:          cfg.Scoring.Timeout,
		FailureThreshold: cfg.Scoring.FailureThreshold,
		OpenTimeout:      cfg.Scoring.OpenTimeout,
	})

	explainer := usecase.NewExplanationService(generator, usecase.ExplanationServiceConfig{
		Temperature: cfg.Explanation.Temperature,
		Timeout:     cfg.Explanation.Timeout,
		Debug:       cfg.Explanation.Debug,
	})
	recommendations := usecase.NewRecommendationService(scoringClient, catalogRepo, explainer, usecase.RecommendationServiceConfig{
		MaxConcurrency: cfg.Explanation.MaxConcurrency,
	})

	handler := httpDelivery.NewHandler(recommendations)
	router := httpDelivery.SetupRouter(cfg, handler)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newCatalog(ctx context.Context, cfg *config.Config) (domain.CatalogRepository, *mongo.Client, error) {
	if cfg.Catalog.Type == "memory" {
		store, err := catalog.LoadMemoryStore(cfg.Catalog.SeedFile)
		if err != nil {
			return nil, nil, err
		}
		logging.Info().Int("items", store.Size()).Str("file", cfg.Catalog.SeedFile).Msg("loaded in-memory catalog")
		return store, nil, nil
	}

	store, client, err := catalog.ConnectMongo(ctx, catalog.MongoConfig{
		URI:        cfg.Catalog.MongoURI,
		Database:   cfg.Catalog.Database,
		Collection: cfg.Catalog.Collection,
	})
	if err != nil {
		return nil, nil, err
	}
	logging.Info().Str("database", cfg.Catalog.Database).Str("collection", cfg.Catalog.Collection).Msg("mongo connected")
	return store, client, nil
}

func newGenerator(ctx context.Context, cfg *config.Config) (domain.TextGenerator, error) {
	rl := llm.RateConfig{
		RequestsPerSecond: cfg.LLM.RequestsPerSecond,
		Burst:             cfg.LLM.Burst,
	}

	if cfg.LLM.Provider == "ollama" {
		return llm.NewOllamaGenerator(cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.Timeout, rl), nil
	}
	generator, err := llm.NewGeminiGenerator(ctx, cfg.LLM.APIKey, cfg.LLM.Model, rl)
	if err != nil {
		return nil, err
	}
	return generator, nil
}
