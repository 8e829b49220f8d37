package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/assessment-engine/internal/assessment"
	"github.com/gokatarajesh/assessment-engine/internal/metrics"
)

// Analysis outcomes reported to metrics.
const (
	outcomeComputed = "computed"
	outcomeCached   = "cached"
	outcomeFailed   = "failed"
)

// ResultStore persists the latest result per (student, test).
type ResultStore interface {
	SaveResult(ctx context.Context, res assessment.Result) error
	ListCompetencies(ctx context.Context, studentID, testID string) ([]assessment.CompetencyResult, error)
}

// ServiceOptions tune the service around the engine.
type ServiceOptions struct {
	PersistResults bool
	Now            func() time.Time
}

// Service wraps the scoring engine with caching, persistence and event
// fan-out. Only persistence failures fail an analysis.
type Service struct {
	engine    *assessment.Engine
	variant   string
	store     ResultStore
	cache     Cache
	publisher Publisher
	metrics   *metrics.Analysis
	opts      ServiceOptions
	logger    zerolog.Logger
}

// NewService builds the analysis service. store, cache, publisher and m may
// be nil to disable the corresponding concern.
func NewService(
	engine *assessment.Engine,
	variant string,
	store ResultStore,
	cache Cache,
	publisher Publisher,
	m *metrics.Analysis,
	opts ServiceOptions,
	logger zerolog.Logger,
) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if variant == "" {
		variant = "base"
	}
	return &Service{
		engine:    engine,
		variant:   variant,
		store:     store,
		cache:     cache,
		publisher: publisher,
		metrics:   m,
		opts:      opts,
		logger:    logger.With().Str("component", "analysis_service").Logger(),
	}
}

// Analyze returns the result for req, served from cache when possible.
func (s *Service) Analyze(ctx context.Context, req assessment.Request) (assessment.Result, error) {
	start := s.opts.Now()
	logger := s.logger.With().Str("student_id", req.StudentID).Str("test_id", req.TestID).Logger()

	key, err := RequestKey(req, s.variant)
	if err != nil {
		logger.Warn().Err(err).Msg("cannot derive cache key")
	}

	// Cache hits are still persisted so the stored session always matches
	// the result most recently served.
	if cached := s.lookup(ctx, key, logger); cached != nil {
		if err := s.persist(ctx, *cached); err != nil {
			s.metrics.ObserveAnalysis(outcomeFailed, s.opts.Now().Sub(start))
			return assessment.Result{}, err
		}
		s.metrics.ObserveAnalysis(outcomeCached, s.opts.Now().Sub(start))
		return *cached, nil
	}

	res := s.engine.Analyze(req)

	if err := s.persist(ctx, res); err != nil {
		s.metrics.ObserveAnalysis(outcomeFailed, s.opts.Now().Sub(start))
		return assessment.Result{}, err
	}

	if s.cache != nil && key != "" {
		if err := s.cache.Set(ctx, key, res); err != nil {
			logger.Warn().Err(err).Msg("cache store failed")
		}
	}

	s.publish(ctx, res, logger)

	levels := make([]int, len(res.Competencies))
	for i, c := range res.Competencies {
		levels[i] = c.CompetencyLevel
	}
	s.metrics.ObserveResult(levels, res.DifficultyAdjustment)
	s.metrics.ObserveAnalysis(outcomeComputed, s.opts.Now().Sub(start))

	logger.Debug().
		Int("objectives", len(res.Competencies)).
		Int("difficulty_adjustment", res.DifficultyAdjustment).
		Int("next_question_id", res.NextQuestionID).
		Msg("analysis computed")
	return res, nil
}

// Competencies returns the stored competencies for a session.
func (s *Service) Competencies(ctx context.Context, studentID, testID string) ([]assessment.CompetencyResult, error) {
	if studentID == "" {
		return nil, &ValidationError{Field: "student_id", Message: "is required"}
	}
	if testID == "" {
		return nil, &ValidationError{Field: "test_id", Message: "is required"}
	}
	if !s.opts.PersistResults || s.store == nil {
		return nil, ErrPersistenceDisabled
	}
	rows, err := s.store.ListCompetencies(ctx, studentID, testID)
	if err != nil {
		return nil, fmt.Errorf("list competencies: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows, nil
}

func (s *Service) lookup(ctx context.Context, key string, logger zerolog.Logger) *assessment.Result {
	if s.cache == nil || key == "" {
		return nil
	}
	cached, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		s.metrics.ObserveCache(metrics.CacheError)
		logger.Warn().Err(err).Msg("cache lookup failed")
		return nil
	case cached == nil:
		s.metrics.ObserveCache(metrics.CacheMiss)
		return nil
	default:
		s.metrics.ObserveCache(metrics.CacheHit)
		return cached
	}
}

func (s *Service) persist(ctx context.Context, res assessment.Result) error {
	if !s.opts.PersistResults || s.store == nil || res.StudentID == "" || res.TestID == "" {
		return nil
	}
	if err := s.store.SaveResult(ctx, res); err != nil {
		return fmt.Errorf("persist result: %w", err)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, res assessment.Result, logger zerolog.Logger) {
	if s.publisher == nil || res.StudentID == "" || res.TestID == "" {
		return
	}
	evt := Event{
		StudentID:  res.StudentID,
		TestID:     res.TestID,
		Result:     res,
		AnalyzedAt: s.opts.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.metrics.PublishFailed()
		logger.Warn().Err(err).Msg("publish analysis event failed")
	}
}
