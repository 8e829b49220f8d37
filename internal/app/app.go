package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/assessment-engine/internal/analysis"
	"github.com/gokatarajesh/assessment-engine/internal/assessment"
	"github.com/gokatarajesh/assessment-engine/internal/config"
	"github.com/gokatarajesh/assessment-engine/internal/db/repository"
	"github.com/gokatarajesh/assessment-engine/internal/logging"
	"github.com/gokatarajesh/assessment-engine/internal/metrics"
	"github.com/gokatarajesh/assessment-engine/internal/server"
	ws "github.com/gokatarajesh/assessment-engine/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	broadcaster *analysis.Broadcaster
	bgCancels   []context.CancelFunc
}

// New bootstraps configs, logger, Postgres, Redis and HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env, cfg.LogLevel)
	logger.Info().Msg("starting application bootstrap")

	pool, err := pgxpool.New(ctx, cfg.Postgres.ConnString())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	competencyRepo := repository.NewTxCompetencyRepository(pool)

	engine, variant := NewEngine(cfg.Analysis)
	analysisSvc := analysis.NewService(
		engine,
		variant,
		competencyRepo,
		analysis.NewRedisCache(redisClient, cfg.Analysis.CacheTTL),
		analysis.NewRedisPublisher(redisClient, cfg.Analysis.EventsChannel),
		metrics.NewAnalysis(nil),
		analysis.ServiceOptions{PersistResults: cfg.Analysis.PersistResults},
		logger,
	)

	wsHub := ws.NewHub(logger)
	httpHandler := analysis.NewHTTPHandler(analysisSvc, analysis.HTTPOptions{
		MaxBodyBytes:   cfg.Analysis.MaxBodyBytes,
		RequestTimeout: cfg.Analysis.RequestTimeout,
	}, logger)
	wsHandler := analysis.NewWSHandler(wsHub, logger)
	broadcaster := analysis.NewBroadcaster(redisClient, wsHub, cfg.Analysis.EventsChannel, logger)

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, server.Routes{
		Analyze:      httpHandler.HandleAnalyze,
		Competencies: httpHandler.HandleCompetencies,
		AnalysesWS:   wsHandler.HandleWebSocket,
	})

	return &Application{
		cfg:         cfg,
		logger:      logger,
		pool:        pool,
		redis:       redisClient,
		http:        apiServer,
		broadcaster: broadcaster,
		bgCancels:   make([]context.CancelFunc, 0, 1),
	}, nil
}

// NewEngine builds the scoring engine for the configured analysis options
// and returns the cache variant its results belong to.
func NewEngine(cfg config.Analysis) (*assessment.Engine, string) {
	if !cfg.InsightsEnabled {
		return assessment.NewEngine(), "base"
	}
	strategy := assessment.RuleInsight{}
	return assessment.NewEngine(assessment.WithInsight(strategy)), strategy.Name()
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	if a.broadcaster != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.broadcaster.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn().Err(err).Msg("analysis broadcaster stopped")
			}
		}()
	}
}
