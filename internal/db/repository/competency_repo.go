package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gokatarajesh/assessment-engine/internal/assessment"
	"github.com/gokatarajesh/assessment-engine/internal/db/queries"
)

type competencyStore interface {
	LockAnalysisSession(ctx context.Context, arg queries.LockAnalysisSessionParams) error
	UpsertCompetencyResult(ctx context.Context, arg queries.UpsertCompetencyResultParams) error
	DeleteStaleCompetencyResults(ctx context.Context, arg queries.DeleteStaleCompetencyResultsParams) error
	ListCompetencyResults(ctx context.Context, arg queries.ListCompetencyResultsParams) ([]queries.CompetencyResult, error)
	UpsertAnalysisRun(ctx context.Context, arg queries.UpsertAnalysisRunParams) error
}

// TxDB is a database handle that can also open transactions.
// *pgxpool.Pool satisfies it.
type TxDB interface {
	queries.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CompetencyRepository stores the latest analysis per (student, test).
type CompetencyRepository struct {
	store competencyStore
	inTx  func(ctx context.Context, fn func(competencyStore) error) error
}

// NewCompetencyRepository constructs a repository whose writes go straight
// to store.
func NewCompetencyRepository(store competencyStore) *CompetencyRepository {
	return &CompetencyRepository{
		store: store,
		inTx: func(_ context.Context, fn func(competencyStore) error) error {
			return fn(store)
		},
	}
}

// NewTxCompetencyRepository constructs a repository that saves each result
// in a single transaction on db.
func NewTxCompetencyRepository(db TxDB) *CompetencyRepository {
	q := queries.New(db)
	return &CompetencyRepository{
		store: q,
		inTx: func(ctx context.Context, fn func(competencyStore) error) error {
			tx, err := db.Begin(ctx)
			if err != nil {
				return fmt.Errorf("begin transaction: %w", err)
			}
			defer tx.Rollback(ctx) //nolint:errcheck

			if err := fn(q.WithTx(tx)); err != nil {
				return err
			}
			if err := tx.Commit(ctx); err != nil {
				return fmt.Errorf("commit transaction: %w", err)
			}
			return nil
		},
	}
}

// SaveResult replaces the stored competencies for the result's student and
// test with the ones it carries, keeping their order. Writers of the same
// session are serialised.
func (r *CompetencyRepository) SaveResult(ctx context.Context, res assessment.Result) error {
	return r.inTx(ctx, func(store competencyStore) error {
		return saveResult(ctx, store, res)
	})
}

func saveResult(ctx context.Context, store competencyStore, res assessment.Result) error {
	if err := store.LockAnalysisSession(ctx, queries.LockAnalysisSessionParams{
		StudentID: res.StudentID,
		TestID:    res.TestID,
	}); err != nil {
		return fmt.Errorf("lock analysis session: %w", err)
	}

	objectives := make([]string, 0, len(res.Competencies))
	for i, c := range res.Competencies {
		err := store.UpsertCompetencyResult(ctx, queries.UpsertCompetencyResultParams{
			StudentID:          res.StudentID,
			TestID:             res.TestID,
			LearningObjective:  c.LearningObjective,
			CompetencyLevel:    int16(c.CompetencyLevel),
			ConfidenceScore:    int16(c.ConfidenceScore),
			RecommendationText: c.RecommendationText,
			Position:           int32(i),
		})
		if err != nil {
			return fmt.Errorf("upsert competency %q: %w", c.LearningObjective, err)
		}
		objectives = append(objectives, c.LearningObjective)
	}

	if err := store.DeleteStaleCompetencyResults(ctx, queries.DeleteStaleCompetencyResultsParams{
		StudentID:  res.StudentID,
		TestID:     res.TestID,
		Objectives: objectives,
	}); err != nil {
		return fmt.Errorf("delete stale competencies: %w", err)
	}

	if err := store.UpsertAnalysisRun(ctx, queries.UpsertAnalysisRunParams{
		StudentID:            res.StudentID,
		TestID:               res.TestID,
		DifficultyAdjustment: int16(res.DifficultyAdjustment),
		NextQuestionID:       int64(res.NextQuestionID),
		SelectionState:       string(res.State),
	}); err != nil {
		return fmt.Errorf("upsert analysis run: %w", err)
	}
	return nil
}

// ListCompetencies returns the stored competencies in their analysis order.
func (r *CompetencyRepository) ListCompetencies(ctx context.Context, studentID, testID string) ([]assessment.CompetencyResult, error) {
	rows, err := r.store.ListCompetencyResults(ctx, queries.ListCompetencyResultsParams{
		StudentID: studentID,
		TestID:    testID,
	})
	if err != nil {
		return nil, err
	}
	out := make([]assessment.CompetencyResult, 0, len(rows))
	for _, row := range rows {
		out = append(out, assessment.CompetencyResult{
			LearningObjective:  row.LearningObjective,
			CompetencyLevel:    int(row.CompetencyLevel),
			ConfidenceScore:    int(row.ConfidenceScore),
			RecommendationText: row.RecommendationText,
		})
	}
	return out, nil
}
