package assessment

import "fmt"

// Competency bands used for per-objective guidance.
const (
	weakCompetencyBelow       = 40
	strongCompetencyAtOrAbove = 70
)

const (
	guidanceWeak         = "weak — recommend a full review with progressive exercises."
	guidanceIntermediate = "intermediate — recommend targeted practice on identified weak points."
	guidanceStrong       = "strong — recommend consolidation with advanced challenge material."

	// PacingRecommendation is emitted when slow answers outnumber fast ones.
	PacingRecommendation = "Many answers took a long time: practise timed exercises and stress-management techniques to improve pacing."
	// ReviewRecommendation is emitted when difficulty declined more often than it rose.
	ReviewRecommendation = "Results dipped as questions changed difficulty: review prior concepts before raising difficulty."
)

func guidanceFor(level int) string {
	switch {
	case level < weakCompetencyBelow:
		return guidanceWeak
	case level < strongCompetencyAtOrAbove:
		return guidanceIntermediate
	default:
		return guidanceStrong
	}
}

// recommend fills each result's RecommendationText and returns the full
// list: per-objective lines first, then global pattern lines.
func recommend(results []CompetencyResult, p Patterns) []string {
	lines := make([]string, 0, len(results)+2)
	for i := range results {
		results[i].RecommendationText = guidanceFor(results[i].CompetencyLevel)
		lines = append(lines, fmt.Sprintf("%s: %s", results[i].LearningObjective, results[i].RecommendationText))
	}
	if p.Buckets.Slow > p.Buckets.Fast {
		lines = append(lines, PacingRecommendation)
	}
	if p.Trend.Declining > p.Trend.Improving {
		lines = append(lines, ReviewRecommendation)
	}
	return lines
}
