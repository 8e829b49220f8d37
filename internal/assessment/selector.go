package assessment

import "math"

const (
	minDifficulty = 1
	maxDifficulty = 10
)

// targetDifficulty converts an average competency (0-100) to a difficulty
// level (1-10).
func targetDifficulty(avgCompetency float64) int {
	return clampInt(int(math.Round(avgCompetency/10)), minDifficulty, maxDifficulty)
}

// selectNextQuestion picks the unanswered question whose difficulty is
// closest to the target. Ties go to the earliest question in the pool.
// Returns NoNextQuestion when every question has been answered.
func selectNextQuestion(questions []Question, responses []Response, avgCompetency float64) int {
	answered := make(map[int]struct{}, len(responses))
	for _, r := range responses {
		answered[r.QuestionID] = struct{}{}
	}

	target := targetDifficulty(avgCompetency)
	best, found := NoNextQuestion, false
	bestDistance := math.MaxInt

	for _, q := range questions {
		if _, done := answered[q.ID]; done {
			continue
		}
		d := q.DifficultyLevel - target
		if d < 0 {
			d = -d
		}
		if !found || d < bestDistance {
			best, found = q.ID, true
			bestDistance = d
		}
	}
	return best
}
