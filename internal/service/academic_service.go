package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/trust-erp-api/internal/dto"
	"github.com/noah-isme/trust-erp-api/internal/models"
	"github.com/noah-isme/trust-erp-api/internal/policy"
	"github.com/noah-isme/trust-erp-api/internal/validation"
	appErrors "github.com/noah-isme/trust-erp-api/pkg/errors"
)

type classStore interface {
	List(ctx context.Context) ([]models.Class, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
	Create(ctx context.Context, q sqlx.ExtContext, class *models.Class) error
}

type subjectStore interface {
	List(ctx context.Context) ([]models.Subject, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	Create(ctx context.Context, q sqlx.ExtContext, subject *models.Subject) error
}

type assignmentStore interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherAssignment, error)
	Create(ctx context.Context, q sqlx.ExtContext, assignment *models.TeacherAssignment) error
}

// AcademicService manages classes, subjects and teacher assignments.
type AcademicService struct {
	classes     classStore
	subjects    subjectStore
	assignments assignmentStore
	users       userReader
	mutations   mutationRunner
}

// NewAcademicService constructs the service.
func NewAcademicService(classes classStore, subjects subjectStore, assignments assignmentStore, users userReader, mutations mutationRunner) *AcademicService {
	return &AcademicService{classes: classes, subjects: subjects, assignments: assignments, users: users, mutations: mutations}
}

// ListClasses returns all classes.
func (s *AcademicService) ListClasses(ctx context.Context, actor models.Actor) ([]models.Class, error) {
	if err := Authorize(actor, policy.ActionViewAcademics, policy.Resource{}); err != nil {
		return nil, err
	}
	classes, err := s.classes.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list classes")
	}
	return classes, nil
}

// ListSubjects returns all subjects.
func (s *AcademicService) ListSubjects(ctx context.Context, actor models.Actor) ([]models.Subject, error) {
	if err := Authorize(actor, policy.ActionViewAcademics, policy.Resource{}); err != nil {
		return nil, err
	}
	subjects, err := s.subjects.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list subjects")
	}
	return subjects, nil
}

// CreateClass creates a class. Name and section must be unique together.
func (s *AcademicService) CreateClass(ctx context.Context, actor models.Actor, req dto.CreateClassRequest) (*models.Class, error) {
	class := &models.Class{Name: strings.TrimSpace(req.Name), Section: strings.TrimSpace(req.Section)}
	err := s.mutations.Run(ctx, Mutation{
		Actor:       actor,
		Action:      policy.ActionCreateClass,
		AuditAction: models.AuditActionCreateClass,
		Input:       req,
	}, func(ctx context.Context, tx *sqlx.Tx) (string, error) {
		if err := s.classes.Create(ctx, tx, class); err != nil {
			return "", err
		}
		return class.ID, nil
	})
	if err != nil {
		return nil, err
	}
	return class, nil
}

// CreateSubject creates a subject with a unique code.
func (s *AcademicService) CreateSubject(ctx context.Context, actor models.Actor, req dto.CreateSubjectRequest) (*models.Subject, error) {
	subject := &models.Subject{Code: req.Code, Name: strings.TrimSpace(req.Name)}
	err := s.mutations.Run(ctx, Mutation{
		Actor:       actor,
		Action:      policy.ActionCreateSubject,
		AuditAction: models.AuditActionCreateSubject,
		Input:       req,
	}, func(ctx context.Context, tx *sqlx.Tx) (string, error) {
		if err := s.subjects.Create(ctx, tx, subject); err != nil {
			return "", err
		}
		return subject.ID, nil
	})
	if err != nil {
		return nil, err
	}
	return subject, nil
}

// AssignTeacher links a teacher to a class, as class teacher when no subject is given.
func (s *AcademicService) AssignTeacher(ctx context.Context, actor models.Actor, req dto.AssignTeacherRequest) (*models.TeacherAssignment, error) {
	req.SubjectID = validation.OptionalID(req.SubjectID)
	assignment := &models.TeacherAssignment{TeacherID: req.TeacherID, ClassID: req.ClassID, SubjectID: req.SubjectID}
	err := s.mutations.Run(ctx, Mutation{
		Actor:       actor,
		Action:      policy.ActionAssignTeacher,
		AuditAction: models.AuditActionAssignTeacher,
		Input:       req,
	}, func(ctx context.Context, tx *sqlx.Tx) (string, error) {
		teacher, err := s.users.FindByID(ctx, req.TeacherID)
		if err != nil {
			return "", notFound(err, "teacher not found")
		}
		if teacher.Role != models.RoleTeacher {
			return "", appErrors.Clone(appErrors.ErrBusinessRule, "assignee is not a teacher")
		}
		if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
			return "", notFound(err, "class not found")
		}
		if req.SubjectID != nil {
			if _, err := s.subjects.FindByID(ctx, *req.SubjectID); err != nil {
				return "", notFound(err, "subject not found")
			}
		}
		if err := s.assignments.Create(ctx, tx, assignment); err != nil {
			return "", err
		}
		return assignment.ID, nil
	})
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

// ListAssignments returns any teacher's assignments to an actor who manages them.
func (s *AcademicService) ListAssignments(ctx context.Context, actor models.Actor, teacherID string) ([]models.TeacherAssignment, error) {
	if err := Authorize(actor, policy.ActionAssignTeacher, policy.Resource{}); err != nil {
		return nil, err
	}
	return s.listAssignments(ctx, teacherID)
}

// MyAssignments returns the calling teacher's own assignments.
func (s *AcademicService) MyAssignments(ctx context.Context, actor models.Actor) ([]models.TeacherAssignment, error) {
	if err := Authorize(actor, policy.ActionViewOwnAssignments, policy.Resource{}); err != nil {
		return nil, err
	}
	return s.listAssignments(ctx, actor.ID)
}

func (s *AcademicService) listAssignments(ctx context.Context, teacherID string) ([]models.TeacherAssignment, error) {
	assignments, err := s.assignments.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list assignments")
	}
	return assignments, nil
}

// notFound turns sql.ErrNoRows into a NOT_FOUND error with message and passes other errors through.
func notFound(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, message)
	}
	return err
}
