package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/assessment-engine/internal/assessment"
	"github.com/gokatarajesh/assessment-engine/internal/metrics"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(store *mockStore, cache Cache, pub Publisher, persist bool) *Service {
	var rs ResultStore
	if store != nil {
		rs = store
	}
	return NewService(
		assessment.NewEngine(),
		"",
		rs,
		cache,
		pub,
		metrics.NewAnalysis(prometheus.NewRegistry()),
		ServiceOptions{PersistResults: persist, Now: func() time.Time { return fixedNow }},
		zerolog.Nop(),
	)
}

func TestService_AnalyzeComputesPersistsAndPublishes(t *testing.T) {
	store := new(mockStore)
	cache := newMemCache()
	pub := &fakePublisher{}
	svc := newTestService(store, cache, pub, true)

	want := assessment.NewEngine().Analyze(sampleRequest())
	store.On("SaveResult", mock.Anything, want).Return(nil).Once()

	got, err := svc.Analyze(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.Len(t, pub.events, 1)
	assert.Equal(t, Event{StudentID: "stu-1", TestID: "test-1", Result: want, AnalyzedAt: fixedNow}, pub.events[0])
	assert.Equal(t, 1, cache.sets)
	store.AssertExpectations(t)
}

func TestService_AnalyzeServesCacheHits(t *testing.T) {
	store := new(mockStore)
	cache := newMemCache()
	pub := &fakePublisher{}
	svc := newTestService(store, cache, pub, true)

	store.On("SaveResult", mock.Anything, mock.Anything).Return(nil)

	first, err := svc.Analyze(context.Background(), sampleRequest())
	require.NoError(t, err)
	second, err := svc.Analyze(context.Background(), sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, pub.events, 1, "cache hits are not re-published")
	assert.Equal(t, 1, cache.sets)
	store.AssertNumberOfCalls(t, "SaveResult", 2)
}

func TestService_AnalyzeCacheHitOverwritesNewerStoredResult(t *testing.T) {
	store := new(mockStore)
	cache := newMemCache()
	svc := newTestService(store, cache, nil, true)
	store.On("SaveResult", mock.Anything, mock.Anything).Return(nil)

	older := sampleRequest()
	newer := sampleRequest()
	newer.Responses = append(newer.Responses, assessment.Response{QuestionID: 3, Answer: "x", ResponseTimeSeconds: 100})

	olderRes, err := svc.Analyze(context.Background(), older)
	require.NoError(t, err)
	_, err = svc.Analyze(context.Background(), newer)
	require.NoError(t, err)
	served, err := svc.Analyze(context.Background(), older)
	require.NoError(t, err)
	assert.Equal(t, olderRes, served)

	require.Len(t, store.Calls, 3)
	assert.Equal(t, served, store.Calls[2].Arguments.Get(1), "stored session must match the result just served")
}

func TestService_AnalyzeCacheHitFailsOnPersistenceError(t *testing.T) {
	store := new(mockStore)
	cache := newMemCache()
	svc := newTestService(store, cache, nil, true)

	store.On("SaveResult", mock.Anything, mock.Anything).Return(nil).Once()
	_, err := svc.Analyze(context.Background(), sampleRequest())
	require.NoError(t, err)

	store.On("SaveResult", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()
	_, err = svc.Analyze(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist result")
}

func TestService_AnalyzeFailsOnPersistenceError(t *testing.T) {
	store := new(mockStore)
	cache := newMemCache()
	pub := &fakePublisher{}
	svc := newTestService(store, cache, pub, true)

	store.On("SaveResult", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := svc.Analyze(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist result")
	assert.Zero(t, cache.sets)
	assert.Empty(t, pub.events)
}

func TestService_AnalyzeToleratesCacheAndPublishFailures(t *testing.T) {
	cache := newMemCache()
	cache.getErr = errors.New("redis down")
	cache.setErr = errors.New("redis down")
	pub := &fakePublisher{err: errors.New("redis down")}
	svc := newTestService(nil, cache, pub, true)

	res, err := svc.Analyze(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, assessment.NewEngine().Analyze(sampleRequest()), res)
}

func TestService_AnalyzeSkipsPersistenceWithoutIDs(t *testing.T) {
	store := new(mockStore)
	pub := &fakePublisher{}
	svc := newTestService(store, nil, pub, true)

	req := sampleRequest()
	req.TestID = ""
	_, err := svc.Analyze(context.Background(), req)
	require.NoError(t, err)

	store.AssertNotCalled(t, "SaveResult", mock.Anything, mock.Anything)
	assert.Empty(t, pub.events)
}

func TestService_AnalyzeSkipsPersistenceWhenDisabled(t *testing.T) {
	store := new(mockStore)
	svc := newTestService(store, nil, nil, false)

	_, err := svc.Analyze(context.Background(), sampleRequest())
	require.NoError(t, err)
	store.AssertNotCalled(t, "SaveResult", mock.Anything, mock.Anything)
}

func TestService_Competencies(t *testing.T) {
	store := new(mockStore)
	svc := newTestService(store, nil, nil, true)

	rows := []assessment.CompetencyResult{{LearningObjective: "fractions", CompetencyLevel: 80}}
	store.On("ListCompetencies", mock.Anything, "stu-1", "test-1").Return(rows, nil)
	store.On("ListCompetencies", mock.Anything, "stu-1", "empty").Return(nil, nil)

	got, err := svc.Competencies(context.Background(), "stu-1", "test-1")
	require.NoError(t, err)
	assert.Equal(t, rows, got)

	_, err = svc.Competencies(context.Background(), "stu-1", "empty")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Competencies(context.Background(), "", "test-1")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "student_id", verr.Field)
}

func TestService_CompetenciesWithoutStore(t *testing.T) {
	svc := newTestService(nil, nil, nil, true)
	_, err := svc.Competencies(context.Background(), "a", "b")
	assert.ErrorIs(t, err, ErrPersistenceDisabled)
}

func TestService_CompetenciesWhenPersistenceDisabled(t *testing.T) {
	store := new(mockStore)
	store.On("ListCompetencies", mock.Anything, mock.Anything, mock.Anything).
		Return([]assessment.CompetencyResult{{LearningObjective: "stale"}}, nil)
	svc := newTestService(store, nil, nil, false)

	_, err := svc.Competencies(context.Background(), "a", "b")
	assert.ErrorIs(t, err, ErrPersistenceDisabled)
	store.AssertNotCalled(t, "ListCompetencies", mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestKey_Deterministic(t *testing.T) {
	a, err := RequestKey(sampleRequest(), "base")
	require.NoError(t, err)
	b, err := RequestKey(sampleRequest(), "base")
	require.NoError(t, err)
	c, err := RequestKey(sampleRequest(), "rules")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Regexp(t, `^analysis:base:[0-9a-f]{64}$`, a)

	changed := sampleRequest()
	changed.Responses[0].Answer = "b"
	d, err := RequestKey(changed, "base")
	require.NoError(t, err)
	assert.NotEqual(t, a, d)
}
