package queries

import (
	"context"
)

const upsertCompetencyResult = `
INSERT INTO competency_results (
    student_id, test_id, learning_objective, competency_level,
    confidence_score, recommendation_text, position, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, now())
ON CONFLICT (student_id, test_id, learning_objective) DO UPDATE SET
    competency_level = EXCLUDED.competency_level,
    confidence_score = EXCLUDED.confidence_score,
    recommendation_text = EXCLUDED.recommendation_text,
    position = EXCLUDED.position,
    updated_at = now()
`

type UpsertCompetencyResultParams struct {
	StudentID          string
	TestID             string
	LearningObjective  string
	CompetencyLevel    int16
	ConfidenceScore    int16
	RecommendationText string
	Position           int32
}

func (q *Queries) UpsertCompetencyResult(ctx context.Context, arg UpsertCompetencyResultParams) error {
	_, err := q.db.Exec(ctx, upsertCompetencyResult,
		arg.StudentID,
		arg.TestID,
		arg.LearningObjective,
		arg.CompetencyLevel,
		arg.ConfidenceScore,
		arg.RecommendationText,
		arg.Position,
	)
	return err
}

const deleteStaleCompetencyResults = `
DELETE FROM competency_results
WHERE student_id = $1 AND test_id = $2 AND NOT (learning_objective = ANY($3::text[]))
`

type DeleteStaleCompetencyResultsParams struct {
	StudentID  string
	TestID     string
	Objectives []string
}

// DeleteStaleCompetencyResults removes objectives absent from the latest run.
func (q *Queries) DeleteStaleCompetencyResults(ctx context.Context, arg DeleteStaleCompetencyResultsParams) error {
	_, err := q.db.Exec(ctx, deleteStaleCompetencyResults, arg.StudentID, arg.TestID, arg.Objectives)
	return err
}

const listCompetencyResults = `
SELECT student_id, test_id, learning_objective, competency_level,
       confidence_score, recommendation_text, position, updated_at
FROM competency_results
WHERE student_id = $1 AND test_id = $2
ORDER BY position
`

type ListCompetencyResultsParams struct {
	StudentID string
	TestID    string
}

func (q *Queries) ListCompetencyResults(ctx context.Context, arg ListCompetencyResultsParams) ([]CompetencyResult, error) {
	rows, err := q.db.Query(ctx, listCompetencyResults, arg.StudentID, arg.TestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CompetencyResult
	for rows.Next() {
		var i CompetencyResult
		if err := rows.Scan(
			&i.StudentID,
			&i.TestID,
			&i.LearningObjective,
			&i.CompetencyLevel,
			&i.ConfidenceScore,
			&i.RecommendationText,
			&i.Position,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const upsertAnalysisRun = `
INSERT INTO analysis_runs (
    student_id, test_id, difficulty_adjustment, next_question_id, selection_state, analyzed_at
) VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (student_id, test_id) DO UPDATE SET
    difficulty_adjustment = EXCLUDED.difficulty_adjustment,
    next_question_id = EXCLUDED.next_question_id,
    selection_state = EXCLUDED.selection_state,
    analyzed_at = now()
`

type UpsertAnalysisRunParams struct {
	StudentID            string
	TestID               string
	DifficultyAdjustment int16
	NextQuestionID       int64
	SelectionState       string
}

func (q *Queries) UpsertAnalysisRun(ctx context.Context, arg UpsertAnalysisRunParams) error {
	_, err := q.db.Exec(ctx, upsertAnalysisRun,
		arg.StudentID,
		arg.TestID,
		arg.DifficultyAdjustment,
		arg.NextQuestionID,
		arg.SelectionState,
	)
	return err
}

const lockAnalysisSession = `
SELECT pg_advisory_xact_lock(hashtextextended($1 || '|' || $2, 0))
`

type LockAnalysisSessionParams struct {
	StudentID string
	TestID    string
}

// LockAnalysisSession serialises writers of one session until the
// surrounding transaction ends.
func (q *Queries) LockAnalysisSession(ctx context.Context, arg LockAnalysisSessionParams) error {
	_, err := q.db.Exec(ctx, lockAnalysisSession, arg.StudentID, arg.TestID)
	return err
}
