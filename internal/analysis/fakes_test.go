package analysis

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/gokatarajesh/assessment-engine/internal/assessment"
)

type memCache struct {
	mu     sync.Mutex
	items  map[string]assessment.Result
	getErr error
	setErr error
	sets   int
}

func newMemCache() *memCache {
	return &memCache{items: make(map[string]assessment.Result)}
}

func (c *memCache) Get(_ context.Context, key string) (*assessment.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	res, ok := c.items[key]
	if !ok {
		return nil, nil
	}
	return &res, nil
}

func (c *memCache) Set(_ context.Context, key string, res assessment.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.items[key] = res
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, evt Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) SaveResult(ctx context.Context, res assessment.Result) error {
	return m.Called(ctx, res).Error(0)
}

func (m *mockStore) ListCompetencies(ctx context.Context, studentID, testID string) ([]assessment.CompetencyResult, error) {
	args := m.Called(ctx, studentID, testID)
	rows, _ := args.Get(0).([]assessment.CompetencyResult)
	return rows, args.Error(1)
}

func sampleRequest() assessment.Request {
	return assessment.Request{
		StudentID: "stu-1",
		TestID:    "test-1",
		Questions: []assessment.Question{
			{ID: 1, DifficultyLevel: 5, LearningObjective: "fractions", CorrectAnswer: assessment.TextAnswer("a")},
			{ID: 2, DifficultyLevel: 8, LearningObjective: "fractions", CorrectAnswer: assessment.TextAnswer("b")},
			{ID: 3, DifficultyLevel: 9, LearningObjective: "decimals", CorrectAnswer: assessment.TextAnswer("c")},
		},
		Responses: []assessment.Response{
			{QuestionID: 1, Answer: "a", ResponseTimeSeconds: 20},
			{QuestionID: 2, Answer: "b", ResponseTimeSeconds: 25},
		},
	}
}
