package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/trust-erp-api/internal/dto"
	"github.com/noah-isme/trust-erp-api/internal/models"
	"github.com/noah-isme/trust-erp-api/internal/policy"
	"github.com/noah-isme/trust-erp-api/internal/validation"
	appErrors "github.com/noah-isme/trust-erp-api/pkg/errors"
)

type attendanceStore interface {
	ListByClassAndDate(ctx context.Context, classID string, date time.Time) ([]models.Attendance, error)
	ReplaceForDate(ctx context.Context, q sqlx.ExtContext, date time.Time, records []models.Attendance) error
}

type classRoster interface {
	ListIDsByClass(ctx context.Context, q sqlx.ExtContext, classID string) ([]string, error)
}

// AttendanceService records daily class attendance.
type AttendanceService struct {
	attendance attendanceStore
	roster     classRoster
	classes    classFinder
	scope      scopeResolver
	mutations  mutationRunner
}

// NewAttendanceService constructs the service.
func NewAttendanceService(attendance attendanceStore, roster classRoster, classes classFinder, scope scopeResolver, mutations mutationRunner) *AttendanceService {
	return &AttendanceService{attendance: attendance, roster: roster, classes: classes, scope: scope, mutations: mutations}
}

// MarkAttendance replaces the attendance of the submitted students for the date, so resubmitting
// the same sheet is idempotent. Teachers must be the class teacher.
func (s *AttendanceService) MarkAttendance(ctx context.Context, actor models.Actor, req dto.MarkAttendanceRequest) ([]models.Attendance, error) {
	var records []models.Attendance
	err := s.mutations.Run(ctx, Mutation{
		Actor:       actor,
		Action:      policy.ActionMarkAttendance,
		AuditAction: models.AuditActionMarkAttendance,
		Input:       req,
		Resolve: func(ctx context.Context) (policy.Resource, error) {
			return s.scope.ForClass(ctx, actor, req.ClassID)
		},
	}, func(ctx context.Context, tx *sqlx.Tx) (string, error) {
		date, err := validation.ParseDate("date", req.Date)
		if err != nil {
			return "", err
		}
		if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
			return "", notFound(err, "class not found")
		}
		studentIDs := make([]string, 0, len(req.Attendance))
		for _, entry := range req.Attendance {
			studentIDs = append(studentIDs, entry.StudentID)
		}
		if err := requireClassMembers(ctx, s.roster, tx, req.ClassID, studentIDs, "attendance"); err != nil {
			return "", err
		}

		records = make([]models.Attendance, 0, len(req.Attendance))
		for _, entry := range req.Attendance {
			records = append(records, models.Attendance{
				StudentID: entry.StudentID,
				ClassID:   req.ClassID,
				Status:    entry.Status,
				MarkedBy:  actor.ID,
			})
		}
		if err := s.attendance.ReplaceForDate(ctx, tx, date, records); err != nil {
			return "", err
		}
		return req.ClassID, nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ListAttendance returns the class sheet for a date to actors allowed to mark it.
func (s *AttendanceService) ListAttendance(ctx context.Context, actor models.Actor, classID, rawDate string) ([]models.Attendance, error) {
	res, err := s.scope.ForClass(ctx, actor, classID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actor, policy.ActionMarkAttendance, res); err != nil {
		return nil, err
	}
	date, err := validation.ParseDate("date", rawDate)
	if err != nil {
		return nil, err
	}
	rows, err := s.attendance.ListByClassAndDate(ctx, classID, date)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list attendance")
	}
	return rows, nil
}

// requireClassMembers rejects student ids that are not placed in the class. Field keys follow listField[i].studentId.
func requireClassMembers(ctx context.Context, roster classRoster, q sqlx.ExtContext, classID string, studentIDs []string, listField string) error {
	members, err := roster.ListIDsByClass(ctx, q, classID)
	if err != nil {
		return err
	}
	inClass := make(map[string]struct{}, len(members))
	for _, id := range members {
		inClass[id] = struct{}{}
	}
	fields := map[string]string{}
	for i, id := range studentIDs {
		if _, ok := inClass[id]; !ok {
			fields[fmt.Sprintf("%s[%d].studentId", listField, i)] = "student is not in this class"
		}
	}
	if len(fields) == 0 {
		return nil
	}
	e := appErrors.Clone(appErrors.ErrBusinessRule, "some students are not in this class")
	e.Fields = fields
	return e
}
