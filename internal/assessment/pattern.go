package assessment

// TimeBuckets counts resolved responses by latency.
type TimeBuckets struct {
	Fast   int `json:"fast"`
	Medium int `json:"medium"`
	Slow   int `json:"slow"`
}

// Total returns the number of classified responses.
func (b TimeBuckets) Total() int {
	return b.Fast + b.Medium + b.Slow
}

// DifficultyTrend counts how difficulty moved between consecutive resolved
// responses in submission order.
type DifficultyTrend struct {
	Improving int `json:"improving"`
	Declining int `json:"declining"`
	Stable    int `json:"stable"`
}

// Patterns are the aggregate behavioural signals of a response sequence.
type Patterns struct {
	Buckets TimeBuckets     `json:"buckets"`
	Trend   DifficultyTrend `json:"trend"`
}

// questionIndex resolves question ids against the pool. The first entry for
// a duplicated id wins.
type questionIndex map[int]*Question

func indexQuestions(questions []Question) questionIndex {
	idx := make(questionIndex, len(questions))
	for i := range questions {
		if _, dup := idx[questions[i].ID]; dup {
			continue
		}
		idx[questions[i].ID] = &questions[i]
	}
	return idx
}

func (idx questionIndex) resolve(id int) (*Question, bool) {
	q, ok := idx[id]
	return q, ok
}

func (c ScoringConfig) bucketFor(seconds float64) string {
	switch {
	case seconds < c.FastResponseSeconds:
		return "fast"
	case seconds < c.SlowResponseSeconds:
		return "medium"
	default:
		return "slow"
	}
}

// analyzePatterns walks responses in order. Unresolvable responses are
// skipped and do not break the trend chain.
func analyzePatterns(cfg ScoringConfig, responses []Response, idx questionIndex) Patterns {
	var p Patterns
	var prev *Question

	for _, r := range responses {
		q, ok := idx.resolve(r.QuestionID)
		if !ok {
			continue
		}

		switch cfg.bucketFor(r.ResponseTimeSeconds) {
		case "fast":
			p.Buckets.Fast++
		case "medium":
			p.Buckets.Medium++
		default:
			p.Buckets.Slow++
		}

		switch {
		case prev == nil:
			p.Trend.Stable++
		case q.DifficultyLevel > prev.DifficultyLevel:
			p.Trend.Improving++
		case q.DifficultyLevel < prev.DifficultyLevel:
			p.Trend.Declining++
		default:
			p.Trend.Stable++
		}
		prev = q
	}
	return p
}
