package assessment

import "math"

// objectiveStats accumulates responses for one learning objective.
type objectiveStats struct {
	objective    string
	correct      int
	total        int
	totalTime    float64
	difficulties []int
}

func (s *objectiveStats) accuracy() float64 {
	if s.total == 0 {
		return 0
	}
	return 100 * float64(s.correct) / float64(s.total)
}

func (s *objectiveStats) avgTime() float64 {
	if s.total == 0 {
		return 0
	}
	return s.totalTime / float64(s.total)
}

func (s *objectiveStats) avgDifficulty() float64 {
	if len(s.difficulties) == 0 {
		return 0
	}
	sum := 0
	for _, d := range s.difficulties {
		sum += d
	}
	return float64(sum) / float64(len(s.difficulties))
}

// aggregateObjectives groups resolved responses by objective, keeping the
// order in which objectives are first seen.
func aggregateObjectives(responses []Response, idx questionIndex) []*objectiveStats {
	var ordered []*objectiveStats
	byName := make(map[string]*objectiveStats)

	for _, r := range responses {
		q, ok := idx.resolve(r.QuestionID)
		if !ok || q.LearningObjective == "" {
			continue
		}
		st, ok := byName[q.LearningObjective]
		if !ok {
			st = &objectiveStats{objective: q.LearningObjective}
			byName[q.LearningObjective] = st
			ordered = append(ordered, st)
		}
		st.total++
		if q.CorrectAnswer.Matches(r.Answer) {
			st.correct++
		}
		st.totalTime += r.ResponseTimeSeconds
		st.difficulties = append(st.difficulties, q.DifficultyLevel)
	}
	return ordered
}

// competencyLevel applies the speed and difficulty adjustments to accuracy.
func (c ScoringConfig) competencyLevel(st *objectiveStats) int {
	level := st.accuracy()

	switch avg := st.avgTime(); {
	case avg < c.QuickAverageSeconds:
		level += c.SpeedBonus
	case avg > c.SlowAverageSeconds:
		level -= c.SlownessPenalty
	}

	switch avg := st.avgDifficulty(); {
	case avg > c.HardDifficulty:
		level += c.HardBonus
	case avg < c.EasyDifficulty:
		level -= c.EasinessPenalty
	}

	return clampInt(int(math.Round(level)), 0, 100)
}

// confidenceScore blends sample size with raw accuracy. The adjusted
// competency level is intentionally not used here.
func (c ScoringConfig) confidenceScore(st *objectiveStats) int {
	per := c.QuestionsPerStep
	if per <= 0 {
		per = 5
	}
	sample := math.Min(100, float64(st.total)/float64(per)*c.ConfidenceStep)
	score := sample*c.SampleWeight + st.accuracy()*c.AccuracyWeight
	return clampInt(int(math.Round(score)), 0, 100)
}

func scoreCompetencies(cfg ScoringConfig, responses []Response, idx questionIndex) []CompetencyResult {
	stats := aggregateObjectives(responses, idx)
	results := make([]CompetencyResult, 0, len(stats))
	for _, st := range stats {
		results = append(results, CompetencyResult{
			LearningObjective: st.objective,
			CompetencyLevel:   cfg.competencyLevel(st),
			ConfidenceScore:   cfg.confidenceScore(st),
		})
	}
	return results
}

func averageCompetency(results []CompetencyResult) float64 {
	if len(results) == 0 {
		return 0
	}
	sum := 0
	for _, r := range results {
		sum += r.CompetencyLevel
	}
	return float64(sum) / float64(len(results))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
