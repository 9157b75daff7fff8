package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/trust-erp-api/internal/dto"
	"github.com/noah-isme/trust-erp-api/internal/models"
	"github.com/noah-isme/trust-erp-api/internal/policy"
	appErrors "github.com/noah-isme/trust-erp-api/pkg/errors"
)

type markStore interface {
	ListByExam(ctx context.Context, classID, subjectID, examTitle string) ([]models.StudentMark, error)
	ReplaceForExam(ctx context.Context, q sqlx.ExtContext, classID, subjectID, examTitle string, marks []models.StudentMark) error
	ReplaceForStudent(ctx context.Context, q sqlx.ExtContext, mark *models.StudentMark) error
}

type subjectFinder interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type programLookup interface {
	CurrentProgram(ctx context.Context, q sqlx.ExtContext, studentID string) (models.Program, error)
}

type studentFinder interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

// GradeService records exam marks. Marks are keyed by (student, subject, exam title).
type GradeService struct {
	marks       markStore
	roster      classRoster
	classes     classFinder
	subjects    subjectFinder
	students    studentFinder
	enrollments programLookup
	scope       scopeResolver
	mutations   mutationRunner
}

// NewGradeService constructs the service.
func NewGradeService(marks markStore, roster classRoster, classes classFinder, subjects subjectFinder, students studentFinder, enrollments programLookup, scope scopeResolver, mutations mutationRunner) *GradeService {
	return &GradeService{
		marks:       marks,
		roster:      roster,
		classes:     classes,
		subjects:    subjects,
		students:    students,
		enrollments: enrollments,
		scope:       scope,
		mutations:   mutations,
	}
}

// UploadMarks replaces the marks of a class for (subject, exam title) with the submitted set.
func (s *GradeService) UploadMarks(ctx context.Context, actor models.Actor, req dto.UploadMarksRequest) ([]models.StudentMark, error) {
	req.ExamTitle = strings.TrimSpace(req.ExamTitle)
	var marks []models.StudentMark
	err := s.mutations.Run(ctx, Mutation{
		Actor:       actor,
		Action:      policy.ActionUploadMarks,
		AuditAction: models.AuditActionUploadMarks,
		Input:       req,
	}, func(ctx context.Context, tx *sqlx.Tx) (string, error) {
		fields := map[string]string{}
		studentIDs := make([]string, 0, len(req.Marks))
		for i, entry := range req.Marks {
			if entry.MarksObtained > req.TotalMarks {
				fields[fmt.Sprintf("marks[%d].marksObtained", i)] = "exceeds total marks"
			}
			studentIDs = append(studentIDs, entry.StudentID)
		}
		if len(fields) > 0 {
			return "", marksExceedTotal(fields)
		}
		if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
			return "", notFound(err, "class not found")
		}
		if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
			return "", notFound(err, "subject not found")
		}
		if err := requireClassMembers(ctx, s.roster, tx, req.ClassID, studentIDs, "marks"); err != nil {
			return "", err
		}

		marks = make([]models.StudentMark, 0, len(req.Marks))
		for _, entry := range req.Marks {
			marks = append(marks, models.StudentMark{
				StudentID:     entry.StudentID,
				TotalMarks:    req.TotalMarks,
				MarksObtained: entry.MarksObtained,
				RecordedBy:    actor.ID,
			})
		}
		if err := s.marks.ReplaceForExam(ctx, tx, req.ClassID, req.SubjectID, req.ExamTitle, marks); err != nil {
			return "", err
		}
		return req.ClassID, nil
	})
	if err != nil {
		return nil, err
	}
	return marks, nil
}

// SetAcademicPerformance records one scholarship student's result, replacing any prior mark for
// the same subject and exam. The student must hold an active scholarship enrollment at write time.
func (s *GradeService) SetAcademicPerformance(ctx context.Context, actor models.Actor, req dto.AcademicPerformanceRequest) (*models.StudentMark, error) {
	req.ExamTitle = strings.TrimSpace(req.ExamTitle)
	var mark *models.StudentMark
	err := s.mutations.Run(ctx, Mutation{
		Actor:       actor,
		Action:      policy.ActionSetAcademicPerformance,
		AuditAction: models.AuditActionSetAcademicPerformance,
		Input:       req,
		Resolve: func(ctx context.Context) (policy.Resource, error) {
			return s.scope.ForStudent(ctx, actor, req.StudentID)
		},
	}, func(ctx context.Context, tx *sqlx.Tx) (string, error) {
		if req.MarksObtained > req.TotalMarks {
			return "", marksExceedTotal(map[string]string{"marksObtained": "exceeds total marks"})
		}
		program, err := s.enrollments.CurrentProgram(ctx, tx, req.StudentID)
		if err != nil {
			return "", err
		}
		if program != models.ScholarshipProgram {
			return "", appErrors.Clone(appErrors.ErrBusinessRule, fmt.Sprintf("student is not actively enrolled in %s", models.ScholarshipProgram))
		}
		student, err := s.students.FindByID(ctx, req.StudentID)
		if err != nil {
			return "", notFound(err, "student not found")
		}
		if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
			return "", notFound(err, "subject not found")
		}

		mark = &models.StudentMark{
			StudentID:     req.StudentID,
			ClassID:       student.ClassID,
			SubjectID:     req.SubjectID,
			ExamTitle:     req.ExamTitle,
			TotalMarks:    req.TotalMarks,
			MarksObtained: req.MarksObtained,
			RecordedBy:    actor.ID,
		}
		if err := s.marks.ReplaceForStudent(ctx, tx, mark); err != nil {
			return "", err
		}
		return req.StudentID, nil
	})
	if err != nil {
		return nil, err
	}
	return mark, nil
}

// ListMarks returns the marks recorded for an exam.
func (s *GradeService) ListMarks(ctx context.Context, actor models.Actor, classID, subjectID, examTitle string) ([]models.StudentMark, error) {
	if err := Authorize(actor, policy.ActionUploadMarks, policy.Resource{}); err != nil {
		return nil, err
	}
	marks, err := s.marks.ListByExam(ctx, classID, subjectID, strings.TrimSpace(examTitle))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list marks")
	}
	return marks, nil
}

func marksExceedTotal(fields map[string]string) error {
	e := appErrors.Clone(appErrors.ErrBusinessRule, "marks exceed total")
	e.Fields = fields
	return e
}
