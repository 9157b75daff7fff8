package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/trust-erp-api/internal/models"
)

// EvaluationRepository stores staff evaluations.
type EvaluationRepository struct {
	db *sqlx.DB
}

// NewEvaluationRepository creates a new repository.
func NewEvaluationRepository(db *sqlx.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// ListByTeacher returns the evaluations recorded for a teacher.
func (r *EvaluationRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.StaffEvaluation, error) {
	var rows []models.StaffEvaluation
	const query = `SELECT id, teacher_id, evaluator_id, period, ratings, comments, created_at FROM staff_evaluations WHERE teacher_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &rows, query, teacherID); err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	return rows, nil
}

// Create stores an evaluation.
func (r *EvaluationRepository) Create(ctx context.Context, q sqlx.ExtContext, e *models.StaffEvaluation) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO staff_evaluations (id, teacher_id, evaluator_id, period, ratings, comments, created_at)
        VALUES (:id, :teacher_id, :evaluator_id, :period, :ratings, :comments, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, q, query, e); err != nil {
		return fmt.Errorf("create evaluation: %w", err)
	}
	return nil
}
