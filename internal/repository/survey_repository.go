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

// SurveyRepository persists surveys, submission markers and anonymous feedback.
type SurveyRepository struct {
	db *sqlx.DB
}

// NewSurveyRepository creates a new repository.
func NewSurveyRepository(db *sqlx.DB) *SurveyRepository {
	return &SurveyRepository{db: db}
}

// FindByID fetches a survey.
func (r *SurveyRepository) FindByID(ctx context.Context, id string) (*models.Survey, error) {
	var survey models.Survey
	if err := r.db.GetContext(ctx, &survey, `SELECT id, title, metrics, active, created_by, created_at FROM surveys WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get survey: %w", err)
	}
	return &survey, nil
}

// Create stores a survey.
func (r *SurveyRepository) Create(ctx context.Context, q sqlx.ExtContext, survey *models.Survey) error {
	if survey.ID == "" {
		survey.ID = uuid.NewString()
	}
	if survey.CreatedAt.IsZero() {
		survey.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO surveys (id, title, metrics, active, created_by, created_at) VALUES (:id, :title, :metrics, :active, :created_by, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, q, query, survey); err != nil {
		return fmt.Errorf("create survey: %w", err)
	}
	return nil
}

// SubmissionExists reports whether the student already answered for the evaluatee.
func (r *SurveyRepository) SubmissionExists(ctx context.Context, q sqlx.ExtContext, surveyID, studentID, evaluateeID string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS(SELECT 1 FROM survey_submissions WHERE survey_id = $1 AND student_id = $2 AND evaluatee_id = $3)`
	if err := sqlx.GetContext(ctx, q, &exists, query, surveyID, studentID, evaluateeID); err != nil {
		return false, fmt.Errorf("check submission: %w", err)
	}
	return exists, nil
}

// CreateSubmission records the (survey, student, evaluatee) marker. The unique index on the triple
// rejects concurrent duplicates.
func (r *SurveyRepository) CreateSubmission(ctx context.Context, q sqlx.ExtContext, s *models.SurveySubmission) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO survey_submissions (id, survey_id, student_id, evaluatee_id, created_at) VALUES (:id, :survey_id, :student_id, :evaluatee_id, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, q, query, s); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// CreateFeedback stores an anonymous response.
func (r *SurveyRepository) CreateFeedback(ctx context.Context, q sqlx.ExtContext, f *models.Feedback) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	// Feedback timestamps are truncated to the day so ordering cannot be joined back to submissions.
	f.CreatedAt = time.Now().UTC().Truncate(24 * time.Hour)
	const query = `INSERT INTO feedback (id, survey_id, evaluatee_id, ratings, comment, created_at) VALUES (:id, :survey_id, :evaluatee_id, :ratings, :comment, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, q, query, f); err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}

// ListFeedback returns every response for an evaluatee in a survey.
func (r *SurveyRepository) ListFeedback(ctx context.Context, surveyID, evaluateeID string) ([]models.Feedback, error) {
	var rows []models.Feedback
	const query = `SELECT id, survey_id, evaluatee_id, ratings, comment, created_at FROM feedback WHERE survey_id = $1 AND evaluatee_id = $2 ORDER BY id`
	if err := r.db.SelectContext(ctx, &rows, query, surveyID, evaluateeID); err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return rows, nil
}
