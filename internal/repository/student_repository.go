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

// currentProgramExpr selects the most recently created active enrollment's program.
const currentProgramExpr = `(SELECT e.program FROM enrollments e WHERE e.student_id = s.id AND e.status = 'ACTIVE' ORDER BY e.created_at DESC LIMIT 1)`

const studentDetailSelect = `SELECT s.id, s.user_id, s.registration_no, s.full_name, s.class_id, s.needs_hostel, s.is_beneficiary, s.guardian, s.created_at, s.updated_at,
       u.email, ` + currentProgramExpr + ` AS current_program
FROM students s
JOIN users u ON u.id = s.user_id`

// StudentRepository persists student profiles and remarks.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student with account and current-program context.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	return r.findDetail(ctx, studentDetailSelect+` WHERE s.id = $1`, id)
}

// FindByUserID returns the student profile owned by an account.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error) {
	return r.findDetail(ctx, studentDetailSelect+` WHERE s.user_id = $1`, userID)
}

func (r *StudentRepository) findDetail(ctx context.Context, query, arg string) (*models.StudentDetail, error) {
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &detail, nil
}

// List returns students matching filter with the total count.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.ClassID != "" {
		args = append(args, filter.ClassID)
		conditions = append(conditions, fmt.Sprintf("s.class_id = $%d", len(args)))
	}
	if filter.Program != "" {
		args = append(args, filter.Program)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", currentProgramExpr, len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.full_name) LIKE $%d OR LOWER(s.registration_no) LIKE $%d)", len(args), len(args)))
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}

	query := fmt.Sprintf("%s%s ORDER BY s.full_name ASC LIMIT %d OFFSET %d", studentDetailSelect, clause, size, (page-1)*size)
	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM students s"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// RegistrationNoExists reports whether a registration number is taken.
func (r *StudentRepository) RegistrationNoExists(ctx context.Context, q sqlx.ExtContext, regNo string) (bool, error) {
	var exists bool
	if err := sqlx.GetContext(ctx, q, &exists, `SELECT EXISTS(SELECT 1 FROM students WHERE registration_no = $1)`, regNo); err != nil {
		return false, fmt.Errorf("check registration no: %w", err)
	}
	return exists, nil
}

// Create inserts a student profile.
func (r *StudentRepository) Create(ctx context.Context, q sqlx.ExtContext, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, user_id, registration_no, full_name, class_id, needs_hostel, is_beneficiary, guardian, created_at, updated_at)
        VALUES (:id, :user_id, :registration_no, :full_name, :class_id, :needs_hostel, :is_beneficiary, :guardian, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, q, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// SetBeneficiary flags or unflags free tuition.
func (r *StudentRepository) SetBeneficiary(ctx context.Context, q sqlx.ExtContext, id string, beneficiary bool) error {
	res, err := q.ExecContext(ctx, `UPDATE students SET is_beneficiary = $2, updated_at = $3 WHERE id = $1`, id, beneficiary, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set beneficiary: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListIDsByClass returns the ids of students currently placed in a class.
func (r *StudentRepository) ListIDsByClass(ctx context.Context, q sqlx.ExtContext, classID string) ([]string, error) {
	var ids []string
	if err := sqlx.SelectContext(ctx, q, &ids, `SELECT id FROM students WHERE class_id = $1`, classID); err != nil {
		return nil, fmt.Errorf("list class students: %w", err)
	}
	return ids, nil
}

// CreateRemark stores a teacher remark.
func (r *StudentRepository) CreateRemark(ctx context.Context, q sqlx.ExtContext, remark *models.StudentRemark) error {
	if remark.ID == "" {
		remark.ID = uuid.NewString()
	}
	if remark.CreatedAt.IsZero() {
		remark.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO student_remarks (id, student_id, teacher_id, remark, created_at) VALUES (:id, :student_id, :teacher_id, :remark, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, q, query, remark); err != nil {
		return fmt.Errorf("create remark: %w", err)
	}
	return nil
}
