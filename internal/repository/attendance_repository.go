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

// AttendanceRepository persists daily attendance rows.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates a new repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListByClassAndDate returns the attendance sheet for a class on a date.
func (r *AttendanceRepository) ListByClassAndDate(ctx context.Context, classID string, date time.Time) ([]models.Attendance, error) {
	var rows []models.Attendance
	const query = `SELECT id, student_id, class_id, date, status, marked_by, created_at FROM attendance WHERE class_id = $1 AND date = $2 ORDER BY student_id`
	if err := r.db.SelectContext(ctx, &rows, query, classID, date); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return rows, nil
}

// ReplaceForDate deletes existing rows for the date and student set, then inserts records.
func (r *AttendanceRepository) ReplaceForDate(ctx context.Context, q sqlx.ExtContext, date time.Time, records []models.Attendance) error {
	if len(records) == 0 {
		return nil
	}
	studentIDs := make([]string, 0, len(records))
	for _, rec := range records {
		studentIDs = append(studentIDs, rec.StudentID)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM attendance WHERE date = $1 AND student_id = ANY($2)`, date, pq.Array(studentIDs)); err != nil {
		return fmt.Errorf("clear attendance: %w", err)
	}

	now := time.Now().UTC()
	const insert = `INSERT INTO attendance (id, student_id, class_id, date, status, marked_by, created_at) VALUES (:id, :student_id, :class_id, :date, :status, :marked_by, :created_at)`
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		rec.Date = date
		rec.CreatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, q, insert, rec); err != nil {
			return fmt.Errorf("insert attendance: %w", err)
		}
	}
	return nil
}
