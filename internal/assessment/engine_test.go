package assessment

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func question(id, difficulty int, objective, answer string) Question {
	return Question{
		ID:                id,
		DifficultyLevel:   difficulty,
		LearningObjective: objective,
		CorrectAnswer:     TextAnswer(answer),
		Options:           []string{answer, "other"},
	}
}

func answered(id int, answer string, seconds float64) Response {
	return Response{QuestionID: id, Answer: answer, ResponseTimeSeconds: seconds}
}

func TestAnalyze_AllCorrectFastAnswers(t *testing.T) {
	req := Request{
		Questions: []Question{
			question(1, 5, "fractions", "a"),
			question(2, 8, "fractions", "b"),
		},
		Responses: []Response{
			answered(1, "a", 20),
			answered(2, "b", 25),
		},
	}

	res := NewEngine().Analyze(req)

	require.Len(t, res.Competencies, 1)
	c := res.Competencies[0]
	assert.Equal(t, "fractions", c.LearningObjective)
	assert.Equal(t, 100, c.CompetencyLevel, "110 should clamp to 100")
	assert.Equal(t, 72, c.ConfidenceScore)
	assert.Equal(t, guidanceStrong, c.RecommendationText)

	assert.Equal(t, 3, res.DifficultyAdjustment, "base +2 and improving trend +1")
	assert.Equal(t, NoNextQuestion, res.NextQuestionID)
	assert.Equal(t, StateExhausted, res.State)
	assert.True(t, res.Exhausted())
}

func TestAnalyze_AllWrongSlowAnswers(t *testing.T) {
	req := Request{
		Questions: []Question{
			question(1, 5, "fractions", "a"),
			question(2, 8, "fractions", "b"),
		},
		Responses: []Response{
			answered(1, "x", 100),
			answered(2, "y", 110),
		},
	}

	res := NewEngine().Analyze(req)

	require.Len(t, res.Competencies, 1)
	assert.Equal(t, 0, res.Competencies[0].CompetencyLevel, "-15 should clamp to 0")
	assert.Equal(t, 2, res.Competencies[0].ConfidenceScore)
	assert.Equal(t, []string{
		"fractions: " + guidanceWeak,
		PacingRecommendation,
	}, res.Recommendations)
	assert.Equal(t, -1, res.DifficultyAdjustment, "base -2 and improving trend +1")
}

func TestAnalyze_BaseTermOnlyWithFlatTrend(t *testing.T) {
	var qs []Question
	var rs []Response
	id := 0
	add := func(objective string, total, correct int) {
		for i := 0; i < total; i++ {
			id++
			qs = append(qs, question(id, 5, objective, "ok"))
			ans := "ok"
			if i >= correct {
				ans = "nope"
			}
			rs = append(rs, answered(id, ans, 45))
		}
	}
	add("geometry", 5, 3) // 60
	add("algebra", 10, 7) // 70
	qs = append(qs, question(100, 6, "algebra", "ok"), question(101, 7, "algebra", "ok"))

	res := NewEngine().Analyze(Request{Questions: qs, Responses: rs})

	require.Len(t, res.Competencies, 2)
	assert.Equal(t, "geometry", res.Competencies[0].LearningObjective)
	assert.Equal(t, 60, res.Competencies[0].CompetencyLevel)
	assert.Equal(t, 48, res.Competencies[0].ConfidenceScore)
	assert.Equal(t, "algebra", res.Competencies[1].LearningObjective)
	assert.Equal(t, 70, res.Competencies[1].CompetencyLevel)
	assert.Equal(t, 61, res.Competencies[1].ConfidenceScore)

	assert.InDelta(t, 65.0, res.AverageCompetency(), 1e-9)
	assert.Equal(t, 1, res.DifficultyAdjustment)
	assert.Equal(t, 101, res.NextQuestionID, "target difficulty round(6.5) = 7")
	assert.Equal(t, StateInProgress, res.State)
}

func TestAnalyze_IgnoresUnresolvableResponses(t *testing.T) {
	pool := []Question{
		question(1, 4, "reading", "a"),
		question(2, 6, "reading", "b"),
		question(3, 5, "reading", "c"),
	}
	valid := []Response{answered(1, "a", 35), answered(2, "z", 70)}
	withGhost := []Response{valid[0], answered(999, "a", 5), valid[1]}

	e := NewEngine()
	want := e.Analyze(Request{Questions: pool, Responses: valid})
	got := e.Analyze(Request{Questions: pool, Responses: withGhost})

	assert.Equal(t, want, got)
}

func TestAnalyze_NoResponses(t *testing.T) {
	pool := []Question{question(1, 3, "a", "x"), question(2, 1, "a", "x")}

	res := NewEngine().Analyze(Request{Questions: pool})

	assert.Empty(t, res.Competencies)
	assert.NotNil(t, res.Competencies)
	assert.Empty(t, res.Recommendations)
	assert.Equal(t, -2, res.DifficultyAdjustment)
	assert.Equal(t, 2, res.NextQuestionID, "target clamps to 1")
}

func TestAnalyze_EmptyPoolIsExhausted(t *testing.T) {
	res := NewEngine().Analyze(Request{Responses: []Response{answered(1, "a", 10)}})

	assert.Equal(t, NoNextQuestion, res.NextQuestionID)
	assert.Equal(t, StateExhausted, res.State)
	assert.Empty(t, res.Competencies)
}

func TestAnalyze_SkipsObjectivelessQuestions(t *testing.T) {
	pool := []Question{
		question(1, 5, "", "a"),
		question(2, 5, "vocab", "b"),
	}
	res := NewEngine().Analyze(Request{
		Questions: pool,
		Responses: []Response{answered(1, "a", 70), answered(2, "b", 70)},
	})

	require.Len(t, res.Competencies, 1)
	assert.Equal(t, "vocab", res.Competencies[0].LearningObjective)
	assert.Contains(t, res.Recommendations, PacingRecommendation, "untagged responses still count as patterns")
}

func TestAnalyze_EchoesIdentifiers(t *testing.T) {
	res := NewEngine().Analyze(Request{StudentID: "stu-1", TestID: "test-9"})
	assert.Equal(t, "stu-1", res.StudentID)
	assert.Equal(t, "test-9", res.TestID)
	assert.Nil(t, res.Insight)
}

func TestAnalyze_WithInsight(t *testing.T) {
	req := Request{
		Questions: []Question{question(1, 5, "a", "x"), question(2, 8, "a", "y")},
		Responses: []Response{answered(1, "x", 10), answered(2, "y", 12)},
	}
	res := NewEngine(WithInsight(RuleInsight{})).Analyze(req)

	require.NotNil(t, res.Insight)
	assert.Equal(t, "rules", res.Insight.Strategy)
	assert.Equal(t, StyleRapid, res.Insight.LearningStyle)
	assert.Equal(t, 100, res.Insight.PredictedPerformance)
	assert.Equal(t, ReadinessAdvance, res.Insight.Readiness)
}

func TestAnalyze_WithScoringConfig(t *testing.T) {
	cfg := DefaultScoringConfig()
	cfg.MaxAdjustment = 1
	e := NewEngine(WithScoringConfig(cfg))
	assert.Equal(t, 1, e.Config().MaxAdjustment)

	res := e.Analyze(Request{
		Questions: []Question{question(1, 5, "a", "x"), question(2, 8, "a", "y")},
		Responses: []Response{answered(1, "x", 10), answered(2, "y", 12)},
	})
	assert.Equal(t, 1, res.DifficultyAdjustment)
}

func TestAnalyze_Idempotent(t *testing.T) {
	req := randomRequest(rand.New(rand.NewSource(7)))
	e := NewEngine(WithInsight(RuleInsight{}))

	first := e.Analyze(req)

	var wg sync.WaitGroup
	results := make([]Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.Analyze(req)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, first, r)
	}
}

func TestAnalyze_Invariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	e := NewEngine()

	for i := 0; i < 500; i++ {
		req := randomRequest(rng)
		res := e.Analyze(req)

		seen := make(map[string]bool)
		for _, c := range res.Competencies {
			assert.GreaterOrEqual(t, c.CompetencyLevel, 0)
			assert.LessOrEqual(t, c.CompetencyLevel, 100)
			assert.GreaterOrEqual(t, c.ConfidenceScore, 0)
			assert.LessOrEqual(t, c.ConfidenceScore, 100)
			assert.NotEmpty(t, c.LearningObjective)
			assert.False(t, seen[c.LearningObjective], "objective listed twice")
			seen[c.LearningObjective] = true
		}
		assert.GreaterOrEqual(t, res.DifficultyAdjustment, -3)
		assert.LessOrEqual(t, res.DifficultyAdjustment, 3)

		answeredIDs := make(map[int]bool)
		for _, r := range req.Responses {
			answeredIDs[r.QuestionID] = true
		}
		unanswered := 0
		inPool := false
		for _, q := range req.Questions {
			if !answeredIDs[q.ID] {
				unanswered++
			}
			if q.ID == res.NextQuestionID {
				inPool = true
			}
		}
		if unanswered == 0 {
			assert.Equal(t, NoNextQuestion, res.NextQuestionID)
			continue
		}
		assert.True(t, inPool, "next question must come from the pool")
		assert.False(t, answeredIDs[res.NextQuestionID], "next question must be unanswered")
	}
}

func randomRequest(rng *rand.Rand) Request {
	objectives := []string{"fractions", "decimals", "geometry", ""}
	n := rng.Intn(12)
	qs := make([]Question, 0, n)
	for i := 0; i < n; i++ {
		qs = append(qs, question(i+1, 1+rng.Intn(10), objectives[rng.Intn(len(objectives))], "ans"))
	}
	var rs []Response
	count := rng.Intn(n + 3)
	for i := 0; i < count; i++ {
		ans := "ans"
		if rng.Intn(2) == 0 {
			ans = "wrong"
		}
		rs = append(rs, answered(1+rng.Intn(n+2), ans, rng.Float64()*150))
	}
	return Request{Questions: qs, Responses: rs}
}
