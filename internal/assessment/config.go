package assessment

// ScoringConfig holds the heuristic constants (defaults match the engine's
// documented behaviour).
type ScoringConfig struct {
	FastResponseSeconds float64 // default: 30, below is "fast"
	SlowResponseSeconds float64 // default: 60, at or above is "slow"

	QuickAverageSeconds float64 // default: 30
	SlowAverageSeconds  float64 // default: 90
	SpeedBonus          float64 // default: 10
	SlownessPenalty     float64 // default: 15

	HardDifficulty  float64 // default: 7
	EasyDifficulty  float64 // default: 3
	HardBonus       float64 // default: 15
	EasinessPenalty float64 // default: 10

	// Sample confidence grows by ConfidenceStep for every
	// QuestionsPerStep answered questions, capped at 100.
	QuestionsPerStep int     // default: 5
	ConfidenceStep   float64 // default: 20
	SampleWeight     float64 // default: 0.3
	AccuracyWeight   float64 // default: 0.7

	MaxAdjustment int // default: 3
}

// DefaultScoringConfig returns production defaults.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		FastResponseSeconds: 30,
		SlowResponseSeconds: 60,
		QuickAverageSeconds: 30,
		SlowAverageSeconds:  90,
		SpeedBonus:          10,
		SlownessPenalty:     15,
		HardDifficulty:      7,
		EasyDifficulty:      3,
		HardBonus:           15,
		EasinessPenalty:     10,
		QuestionsPerStep:    5,
		ConfidenceStep:      20,
		SampleWeight:        0.3,
		AccuracyWeight:      0.7,
		MaxAdjustment:       3,
	}
}
