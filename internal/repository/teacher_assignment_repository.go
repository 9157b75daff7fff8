package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/trust-erp-api/internal/models"
)

// TeacherAssignmentRepository manages teacher to class/subject links.
type TeacherAssignmentRepository struct {
	db *sqlx.DB
}

// NewTeacherAssignmentRepository constructs the repository.
func NewTeacherAssignmentRepository(db *sqlx.DB) *TeacherAssignmentRepository {
	return &TeacherAssignmentRepository{db: db}
}

// ListByTeacher returns all assignments held by a teacher.
func (r *TeacherAssignmentRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherAssignment, error) {
	var assignments []models.TeacherAssignment
	const query = `SELECT id, teacher_id, class_id, subject_id, created_at FROM teacher_assignments WHERE teacher_id = $1 ORDER BY created_at ASC`
	if err := r.db.SelectContext(ctx, &assignments, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher assignments: %w", err)
	}
	return assignments, nil
}

// IsClassTeacher reports whether the teacher holds the subject-less assignment for a class.
func (r *TeacherAssignmentRepository) IsClassTeacher(ctx context.Context, teacherID, classID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM teacher_assignments WHERE teacher_id = $1 AND class_id = $2 AND subject_id IS NULL)`
	return r.exists(ctx, query, teacherID, classID)
}

// TeachesClass reports whether the teacher holds any assignment in a class.
func (r *TeacherAssignmentRepository) TeachesClass(ctx context.Context, teacherID, classID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM teacher_assignments WHERE teacher_id = $1 AND class_id = $2)`
	return r.exists(ctx, query, teacherID, classID)
}

func (r *TeacherAssignmentRepository) exists(ctx context.Context, query, teacherID, classID string) (bool, error) {
	var ok bool
	if err := r.db.GetContext(ctx, &ok, query, teacherID, classID); err != nil {
		return false, fmt.Errorf("check teacher assignment: %w", err)
	}
	return ok, nil
}

// Create stores a new assignment. A nil subject makes it a class-teacher assignment.
func (r *TeacherAssignmentRepository) Create(ctx context.Context, q sqlx.ExtContext, assignment *models.TeacherAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO teacher_assignments (id, teacher_id, class_id, subject_id, created_at) VALUES (:id, :teacher_id, :class_id, :subject_id, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, q, query, assignment); err != nil {
		return fmt.Errorf("create teacher assignment: %w", err)
	}
	return nil
}
