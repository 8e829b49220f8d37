package assessment

import "math"

// Learning styles derived from response latency.
const (
	StyleRapid      = "rapid"
	StyleDeliberate = "deliberate"
	StyleBalanced   = "balanced"
)

// Readiness labels derived from the difficulty adjustment.
const (
	ReadinessAdvance     = "advance"
	ReadinessHold        = "hold"
	ReadinessConsolidate = "consolidate"
)

// Insight is an optional, strategy-produced extension of a Result.
type Insight struct {
	Strategy             string `json:"strategy"`
	LearningStyle        string `json:"learning_style"`
	PredictedPerformance int    `json:"predicted_performance"` // 0-100
	Readiness            string `json:"readiness"`
}

// InsightInput is everything a strategy may look at.
type InsightInput struct {
	Patterns             Patterns
	Competencies         []CompetencyResult
	AverageCompetency    float64
	DifficultyAdjustment int
}

// InsightStrategy derives an Insight. Implementations must be deterministic:
// identical input yields an identical Insight.
type InsightStrategy interface {
	Name() string
	Derive(in InsightInput) Insight
}

// RuleInsight is the default rule-based strategy.
type RuleInsight struct{}

func (RuleInsight) Name() string { return "rules" }

func (r RuleInsight) Derive(in InsightInput) Insight {
	return Insight{
		Strategy:             r.Name(),
		LearningStyle:        learningStyle(in.Patterns.Buckets),
		PredictedPerformance: clampInt(int(math.Round(in.AverageCompetency+5*float64(trendAdjustment(in.Patterns.Trend)))), 0, 100),
		Readiness:            readiness(in.DifficultyAdjustment),
	}
}

// learningStyle picks the dominant latency bucket; a bucket must hold a
// strict majority of answers to define the style.
func learningStyle(b TimeBuckets) string {
	total := b.Total()
	switch {
	case total == 0:
		return StyleBalanced
	case 2*b.Fast > total:
		return StyleRapid
	case 2*b.Slow > total:
		return StyleDeliberate
	default:
		return StyleBalanced
	}
}

func readiness(adjustment int) string {
	switch {
	case adjustment > 0:
		return ReadinessAdvance
	case adjustment < 0:
		return ReadinessConsolidate
	default:
		return ReadinessHold
	}
}
