package server

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/assessment-engine/internal/config"
	"github.com/gokatarajesh/assessment-engine/internal/logging"
	httperrors "github.com/gokatarajesh/assessment-engine/pkg/http/errors"
)

// Routes carries the feature handlers mounted by NewHandler. Nil handlers
// are answered with 404.
type Routes struct {
	Analyze      http.HandlerFunc
	Competencies http.HandlerFunc
	AnalysesWS   http.HandlerFunc
}

// Pinger checks a dependency.
type Pinger func(ctx context.Context) error

// NewHTTPServer wires the API routes behind the request logging middleware.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, redis *redis.Client, routes Routes) *http.Server {
	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: NewHandler(logger, routes, pool.Ping, func(ctx context.Context) error { return redis.Ping(ctx).Err() }),
	}
}

// NewHandler builds the route table.
func NewHandler(logger zerolog.Logger, routes Routes, pingers ...Pinger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/v1/ping", func(w http.ResponseWriter, r *http.Request) {
		if err := pingDependencies(r.Context(), pingers); err != nil {
			logging.FromContext(r.Context()).Error().Err(err).Msg("dependency ping failed")
			httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeUpstreamError, "upstream error")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	mount(mux, "/v1/analyses", routes.Analyze)
	mount(mux, "/v1/competencies", routes.Competencies)
	mount(mux, "/ws/analyses", routes.AnalysesWS)

	return logging.Middleware(logger, mux)
}

func mount(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	if h == nil {
		return
	}
	mux.HandleFunc(pattern, h)
}

func pingDependencies(ctx context.Context, pingers []Pinger) error {
	for _, ping := range pingers {
		if err := ping(ctx); err != nil {
			return err
		}
	}
	return nil
}
