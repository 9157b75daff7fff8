package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/trust-erp-api/internal/models"
)

// EnrollmentRepository handles persistence of program enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Create persists a new enrollment record.
func (r *EnrollmentRepository) Create(ctx context.Context, q sqlx.ExtContext, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusActive
	}
	const query = `INSERT INTO enrollments (id, student_id, program, status, created_at) VALUES (:id, :student_id, :program, :status, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, q, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// CurrentProgram returns the program of the student's most recent active enrollment,
// or an empty program when none is active.
func (r *EnrollmentRepository) CurrentProgram(ctx context.Context, q sqlx.ExtContext, studentID string) (models.Program, error) {
	if q == nil {
		q = r.db
	}
	const query = `SELECT program FROM enrollments WHERE student_id = $1 AND status = $2 ORDER BY created_at DESC LIMIT 1`
	var program models.Program
	if err := sqlx.GetContext(ctx, q, &program, query, studentID, models.EnrollmentStatusActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("current enrollment: %w", err)
	}
	return program, nil
}
