package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/trust-erp-api/internal/models"
)

const insertMark = `INSERT INTO student_marks (id, student_id, class_id, subject_id, exam_title, total_marks, marks_obtained, recorded_by, created_at)
        VALUES (:id, :student_id, :class_id, :subject_id, :exam_title, :total_marks, :marks_obtained, :recorded_by, :created_at)`

// MarkRepository stores exam marks keyed by (student, subject, exam title).
type MarkRepository struct {
	db *sqlx.DB
}

// NewMarkRepository creates a new repository.
func NewMarkRepository(db *sqlx.DB) *MarkRepository {
	return &MarkRepository{db: db}
}

// ListByExam returns the marks recorded for a class, subject and exam.
func (r *MarkRepository) ListByExam(ctx context.Context, classID, subjectID, examTitle string) ([]models.StudentMark, error) {
	var marks []models.StudentMark
	const query = `SELECT id, student_id, class_id, subject_id, exam_title, total_marks, marks_obtained, recorded_by, created_at
        FROM student_marks WHERE class_id = $1 AND subject_id = $2 AND exam_title = $3 ORDER BY student_id`
	if err := r.db.SelectContext(ctx, &marks, query, classID, subjectID, examTitle); err != nil {
		return nil, fmt.Errorf("list marks: %w", err)
	}
	return marks, nil
}

// ReplaceForExam clears marks for (class, subject, exam) and for the submitted students under that
// subject and exam, then inserts marks.
func (r *MarkRepository) ReplaceForExam(ctx context.Context, q sqlx.ExtContext, classID, subjectID, examTitle string, marks []models.StudentMark) error {
	studentIDs := make([]string, 0, len(marks))
	for _, m := range marks {
		studentIDs = append(studentIDs, m.StudentID)
	}
	const clear = `DELETE FROM student_marks WHERE subject_id = $1 AND exam_title = $2 AND (class_id = $3 OR student_id = ANY($4))`
	if _, err := q.ExecContext(ctx, clear, subjectID, examTitle, classID, pq.Array(studentIDs)); err != nil {
		return fmt.Errorf("clear marks: %w", err)
	}

	now := time.Now().UTC()
	for i := range marks {
		m := &marks[i]
		m.ClassID = classID
		m.SubjectID = subjectID
		m.ExamTitle = examTitle
		if err := r.insert(ctx, q, m, now); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceForStudent deletes then recreates a single mark on its natural key.
func (r *MarkRepository) ReplaceForStudent(ctx context.Context, q sqlx.ExtContext, mark *models.StudentMark) error {
	const clear = `DELETE FROM student_marks WHERE student_id = $1 AND subject_id = $2 AND exam_title = $3`
	if _, err := q.ExecContext(ctx, clear, mark.StudentID, mark.SubjectID, mark.ExamTitle); err != nil {
		return fmt.Errorf("clear mark: %w", err)
	}
	return r.insert(ctx, q, mark, time.Now().UTC())
}

func (r *MarkRepository) insert(ctx context.Context, q sqlx.ExtContext, mark *models.StudentMark, now time.Time) error {
	if mark.ID == "" {
		mark.ID = uuid.NewString()
	}
	mark.CreatedAt = now
	if _, err := sqlx.NamedExecContext(ctx, q, insertMark, mark); err != nil {
		return fmt.Errorf("insert mark: %w", err)
	}
	return nil
}
