package assessment

// baseAdjustment maps the average competency onto a coarse step.
func baseAdjustment(avg float64) int {
	switch {
	case avg > 80:
		return 2
	case avg < 40:
		return -2
	case avg < 60:
		return -1
	default:
		return 1
	}
}

// trendAdjustment nudges by one step in the direction difficulty moved most.
func trendAdjustment(t DifficultyTrend) int {
	switch {
	case t.Improving > t.Declining:
		return 1
	case t.Declining > t.Improving:
		return -1
	default:
		return 0
	}
}

func (c ScoringConfig) adjustDifficulty(avgCompetency float64, t DifficultyTrend) int {
	limit := c.MaxAdjustment
	if limit <= 0 {
		limit = 3
	}
	return clampInt(baseAdjustment(avgCompetency)+trendAdjustment(t), -limit, limit)
}
