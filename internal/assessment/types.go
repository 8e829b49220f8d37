package assessment

// NoNextQuestion is returned as the next question id once every question in
// the pool has been answered.
const NoNextQuestion = -1

// Question is a read-only snapshot of a question bank entry.
type Question struct {
	ID                int       `json:"id"`
	DifficultyLevel   int       `json:"difficulty_level"` // 1-10
	LearningObjective string    `json:"learning_objective"`
	CorrectAnswer     AnswerKey `json:"correct_answer"`
	Options           []string  `json:"options,omitempty"`
}

// Response is one submitted answer. A response whose QuestionID does not
// resolve against the pool is ignored.
type Response struct {
	QuestionID          int     `json:"question_id"`
	Answer              string  `json:"answer"`
	ResponseTimeSeconds float64 `json:"response_time_seconds"`
}

// Request is the input snapshot for a single analysis. StudentID and TestID
// are opaque correlation ids echoed back in the Result.
type Request struct {
	StudentID string     `json:"student_id,omitempty"`
	TestID    string     `json:"test_id,omitempty"`
	Questions []Question `json:"questions"`
	Responses []Response `json:"responses"`
}

// CompetencyResult is the estimate for one learning objective.
type CompetencyResult struct {
	LearningObjective  string `json:"learning_objective"`
	CompetencyLevel    int    `json:"competency_level"` // 0-100
	ConfidenceScore    int    `json:"confidence_score"` // 0-100
	RecommendationText string `json:"recommendation_text"`
}

// SelectionState describes the question-selection lifecycle.
type SelectionState string

const (
	StateInProgress SelectionState = "in_progress"
	StateExhausted  SelectionState = "exhausted"
)

// Result is the output of Engine.Analyze.
type Result struct {
	StudentID            string             `json:"student_id,omitempty"`
	TestID               string             `json:"test_id,omitempty"`
	Competencies         []CompetencyResult `json:"competencies"`
	Recommendations      []string           `json:"recommendations"`
	DifficultyAdjustment int                `json:"difficulty_adjustment"` // -3..3
	NextQuestionID       int                `json:"next_question_id"`
	State                SelectionState     `json:"selection_state"`
	Insight              *Insight           `json:"insight,omitempty"`
}

// Exhausted reports whether no unanswered question remains.
func (r Result) Exhausted() bool {
	return r.NextQuestionID == NoNextQuestion
}

// AverageCompetency returns the mean competency level, or 0 with no results.
func (r Result) AverageCompetency() float64 {
	return averageCompetency(r.Competencies)
}
