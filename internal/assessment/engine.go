package assessment

// Engine turns a snapshot of questions and responses into competency
// estimates, guidance and the next question to serve. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	config  ScoringConfig
	insight InsightStrategy
}

// Option configures an Engine.
type Option func(*Engine)

// WithScoringConfig overrides the heuristic constants.
func WithScoringConfig(cfg ScoringConfig) Option {
	return func(e *Engine) { e.config = cfg }
}

// WithInsight enables an insight strategy. Results carry a nil Insight
// unless one is configured.
func WithInsight(s InsightStrategy) Option {
	return func(e *Engine) { e.insight = s }
}

// NewEngine creates an engine with default scoring constants.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{config: DefaultScoringConfig()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the scoring constants in use.
func (e *Engine) Config() ScoringConfig {
	return e.config
}

// Analyze runs the full pipeline. It never fails: unresolvable responses are
// skipped and empty aggregates fall back to zero.
func (e *Engine) Analyze(req Request) Result {
	idx := indexQuestions(req.Questions)

	patterns := analyzePatterns(e.config, req.Responses, idx)
	competencies := scoreCompetencies(e.config, req.Responses, idx)
	recommendations := recommend(competencies, patterns)

	avg := averageCompetency(competencies)
	adjustment := e.config.adjustDifficulty(avg, patterns.Trend)
	next := selectNextQuestion(req.Questions, req.Responses, avg)

	state := StateInProgress
	if next == NoNextQuestion {
		state = StateExhausted
	}

	result := Result{
		StudentID:            req.StudentID,
		TestID:               req.TestID,
		Competencies:         competencies,
		Recommendations:      recommendations,
		DifficultyAdjustment: adjustment,
		NextQuestionID:       next,
		State:                state,
	}

	if e.insight != nil {
		in := e.insight.Derive(InsightInput{
			Patterns:             patterns,
			Competencies:         competencies,
			AverageCompetency:    avg,
			DifficultyAdjustment: adjustment,
		})
		result.Insight = &in
	}

	return result
}
