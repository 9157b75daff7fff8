package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/trust-erp-api/internal/models"
)

const voucherColumns = `v.id, v.student_id, v.month, v.amount, v.fine, v.status, v.due_date, v.paid_at, v.created_at`

// FeeRepository persists fee structures and monthly vouchers.
type FeeRepository struct {
	db *sqlx.DB
}

// NewFeeRepository creates a new repository.
func NewFeeRepository(db *sqlx.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

// UpsertStructure creates or replaces a class's fee structure.
func (r *FeeRepository) UpsertStructure(ctx context.Context, q sqlx.ExtContext, structure *models.FeeStructure) error {
	structure.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO fee_structures (class_id, tuition, hostel_fee, updated_at) VALUES (:class_id, :tuition, :hostel_fee, :updated_at)
        ON CONFLICT (class_id) DO UPDATE SET tuition = EXCLUDED.tuition, hostel_fee = EXCLUDED.hostel_fee, updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, q, query, structure); err != nil {
		return fmt.Errorf("upsert fee structure: %w", err)
	}
	return nil
}

// FindStructure returns the fee structure for a class.
func (r *FeeRepository) FindStructure(ctx context.Context, q sqlx.ExtContext, classID string) (*models.FeeStructure, error) {
	var structure models.FeeStructure
	if err := sqlx.GetContext(ctx, q, &structure, `SELECT class_id, tuition, hostel_fee, updated_at FROM fee_structures WHERE class_id = $1`, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get fee structure: %w", err)
	}
	return &structure, nil
}

// ListBillable returns the class's students that should receive a voucher for month: not beneficiaries,
// holding an active enrollment and without a voucher for that month. Student rows stay locked until commit.
func (r *FeeRepository) ListBillable(ctx context.Context, q sqlx.ExtContext, classID string, month time.Time) ([]models.BillableStudent, error) {
	const query = `SELECT s.id AS student_id, s.needs_hostel
FROM students s
WHERE s.class_id = $1
  AND s.is_beneficiary = FALSE
  AND EXISTS (SELECT 1 FROM enrollments e WHERE e.student_id = s.id AND e.status = 'ACTIVE')
  AND NOT EXISTS (SELECT 1 FROM fee_vouchers v WHERE v.student_id = s.id AND v.month = $2)
ORDER BY s.id
FOR UPDATE OF s`
	var students []models.BillableStudent
	if err := sqlx.SelectContext(ctx, q, &students, query, classID, month); err != nil {
		return nil, fmt.Errorf("list billable students: %w", err)
	}
	return students, nil
}

// CreateVoucherIfAbsent inserts a voucher unless one already exists for (student, month).
// It reports whether a row was written.
func (r *FeeRepository) CreateVoucherIfAbsent(ctx context.Context, q sqlx.ExtContext, voucher *models.FeeVoucher) (bool, error) {
	if voucher.ID == "" {
		voucher.ID = uuid.NewString()
	}
	if voucher.CreatedAt.IsZero() {
		voucher.CreatedAt = time.Now().UTC()
	}
	if voucher.Status == "" {
		voucher.Status = models.VoucherStatusUnpaid
	}
	const query = `INSERT INTO fee_vouchers (id, student_id, month, amount, fine, status, due_date, paid_at, created_at)
        VALUES (:id, :student_id, :month, :amount, :fine, :status, :due_date, :paid_at, :created_at)
        ON CONFLICT (student_id, month) DO NOTHING`
	res, err := sqlx.NamedExecContext(ctx, q, query, voucher)
	if err != nil {
		return false, fmt.Errorf("create voucher: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create voucher: %w", err)
	}
	return n == 1, nil
}

// LockVoucher loads a voucher and holds its row lock until commit.
func (r *FeeRepository) LockVoucher(ctx context.Context, q sqlx.ExtContext, id string) (*models.FeeVoucher, error) {
	var voucher models.FeeVoucher
	if err := sqlx.GetContext(ctx, q, &voucher, `SELECT `+voucherColumns+` FROM fee_vouchers v WHERE v.id = $1 FOR UPDATE`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("lock voucher: %w", err)
	}
	return &voucher, nil
}

// MarkPaid settles a voucher.
func (r *FeeRepository) MarkPaid(ctx context.Context, q sqlx.ExtContext, id string, paidAt time.Time) error {
	if _, err := q.ExecContext(ctx, `UPDATE fee_vouchers SET status = $2, paid_at = $3 WHERE id = $1`, id, models.VoucherStatusPaid, paidAt); err != nil {
		return fmt.Errorf("mark voucher paid: %w", err)
	}
	return nil
}

// FindVoucherDetail returns a voucher with student context.
func (r *FeeRepository) FindVoucherDetail(ctx context.Context, id string) (*models.VoucherDetail, error) {
	var detail models.VoucherDetail
	query := `SELECT ` + voucherColumns + `, s.full_name AS student_name, s.registration_no, s.class_id
FROM fee_vouchers v JOIN students s ON s.id = v.student_id WHERE v.id = $1`
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get voucher: %w", err)
	}
	return &detail, nil
}

// ListVouchers returns vouchers matching filter, newest month first.
func (r *FeeRepository) ListVouchers(ctx context.Context, filter models.VoucherFilter) ([]models.VoucherDetail, error) {
	var conditions []string
	var args []interface{}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("v.student_id = $%d", len(args)))
	}
	if filter.ClassID != "" {
		args = append(args, filter.ClassID)
		conditions = append(conditions, fmt.Sprintf("s.class_id = $%d", len(args)))
	}
	if filter.Month != nil {
		args = append(args, *filter.Month)
		conditions = append(conditions, fmt.Sprintf("v.month = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("v.status = $%d", len(args)))
	}

	query := `SELECT ` + voucherColumns + `, s.full_name AS student_name, s.registration_no, s.class_id
FROM fee_vouchers v JOIN students s ON s.id = v.student_id`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY v.month DESC, s.full_name ASC"

	var vouchers []models.VoucherDetail
	if err := r.db.SelectContext(ctx, &vouchers, query, args...); err != nil {
		return nil, fmt.Errorf("list vouchers: %w", err)
	}
	return vouchers, nil
}
