package queries

import "time"

type CompetencyResult struct {
	StudentID          string
	TestID             string
	LearningObjective  string
	CompetencyLevel    int16
	ConfidenceScore    int16
	RecommendationText string
	Position           int32
	UpdatedAt          time.Time
}

type AnalysisRun struct {
	StudentID            string
	TestID               string
	DifficultyAdjustment int16
	NextQuestionID       int64
	SelectionState       string
	AnalyzedAt           time.Time
}
