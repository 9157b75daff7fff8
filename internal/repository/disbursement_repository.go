package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/trust-erp-api/internal/models"
)

// DisbursementRepository records scholarship payouts.
type DisbursementRepository struct {
	db *sqlx.DB
}

// NewDisbursementRepository creates a new repository.
func NewDisbursementRepository(db *sqlx.DB) *DisbursementRepository {
	return &DisbursementRepository{db: db}
}

// ListByStudent returns a student's disbursements, most recent first.
func (r *DisbursementRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Disbursement, error) {
	var rows []models.Disbursement
	const query = `SELECT id, student_id, amount, purpose, disbursed_on, recorded_by, created_at FROM disbursements WHERE student_id = $1 ORDER BY disbursed_on DESC`
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list disbursements: %w", err)
	}
	return rows, nil
}

// Create stores a disbursement.
func (r *DisbursementRepository) Create(ctx context.Context, q sqlx.ExtContext, d *models.Disbursement) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO disbursements (id, student_id, amount, purpose, disbursed_on, recorded_by, created_at)
        VALUES (:id, :student_id, :amount, :purpose, :disbursed_on, :recorded_by, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, q, query, d); err != nil {
		return fmt.Errorf("create disbursement: %w", err)
	}
	return nil
}
