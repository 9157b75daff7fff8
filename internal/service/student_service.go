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

type studentStore interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	RegistrationNoExists(ctx context.Context, q sqlx.ExtContext, regNo string) (bool, error)
	Create(ctx context.Context, q sqlx.ExtContext, student *models.Student) error
	CreateRemark(ctx context.Context, q sqlx.ExtContext, remark *models.StudentRemark) error
}

type enrollmentStore interface {
	Create(ctx context.Context, q sqlx.ExtContext, enrollment *models.Enrollment) error
}

type classFinder interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

// StudentService handles admissions, student listings and remarks.
type StudentService struct {
	users          userStore
	students       studentStore
	enrollments    enrollmentStore
	classes        classFinder
	scope          scopeResolver
	mutations      mutationRunner
	passwordLength int
}

// NewStudentService constructs the service.
func NewStudentService(users userStore, students studentStore, enrollments enrollmentStore, classes classFinder, scope scopeResolver, mutations mutationRunner, passwordLength int) *StudentService {
	return &StudentService{
		users:          users,
		students:       students,
		enrollments:    enrollments,
		classes:        classes,
		scope:          scope,
		mutations:      mutations,
		passwordLength: passwordLength,
	}
}

// RegisterStudent creates the account, profile and enrollment in one transaction and returns the
// one-time credential. Boarding students are always enrolled in the hostel program.
func (s *StudentService) RegisterStudent(ctx context.Context, actor models.Actor, req dto.RegisterStudentRequest) (*dto.RegisterStudentResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	program := validation.ResolveProgram(req.ProgramType, req.NeedsHostel)

	var resp *dto.RegisterStudentResponse
	err := s.mutations.Run(ctx, Mutation{
		Actor:       actor,
		Action:      policy.ActionRegisterStudent,
		AuditAction: models.AuditActionRegisterStudent,
		Input:       req,
	}, func(ctx context.Context, tx *sqlx.Tx) (string, error) {
		if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
			return "", notFound(err, "class not found")
		}
		exists, err := s.users.EmailExists(ctx, tx, req.Email)
		if err != nil {
			return "", err
		}
		if exists {
			return "", appErrors.Clone(appErrors.ErrDuplicate, "email already registered")
		}
		if exists, err = s.students.RegistrationNoExists(ctx, tx, req.RegistrationNo); err != nil {
			return "", err
		}
		if exists {
			return "", appErrors.Clone(appErrors.ErrDuplicate, "registration number already exists")
		}

		plain, hash, err := newCredential(s.passwordLength)
		if err != nil {
			return "", err
		}
		user := &models.User{Email: req.Email, PasswordHash: hash, FullName: req.FullName, Role: models.RoleStudent, Active: true}
		if err := s.users.Create(ctx, tx, user); err != nil {
			return "", err
		}
		student := &models.Student{
			UserID:         user.ID,
			RegistrationNo: req.RegistrationNo,
			FullName:       req.FullName,
			ClassID:        req.ClassID,
			NeedsHostel:    req.NeedsHostel,
			Guardian:       req.Guardian,
		}
		if err := s.students.Create(ctx, tx, student); err != nil {
			return "", err
		}
		enrollment := &models.Enrollment{StudentID: student.ID, Program: program, Status: models.EnrollmentStatusActive}
		if err := s.enrollments.Create(ctx, tx, enrollment); err != nil {
			return "", err
		}

		resp = &dto.RegisterStudentResponse{
			Student:    *student,
			Enrollment: *enrollment,
			Credential: models.Credential{Email: user.Email, Password: plain},
		}
		return student.ID, nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ListStudents returns students visible to actor. Trust managers only ever see scholarship students.
func (s *StudentService) ListStudents(ctx context.Context, actor models.Actor, query dto.StudentQuery) ([]models.StudentDetail, *models.Pagination, error) {
	if err := Authorize(actor, policy.ActionViewStudents, policy.Resource{}); err != nil {
		return nil, nil, err
	}
	filter := models.StudentFilter{
		Search:   strings.TrimSpace(query.Search),
		ClassID:  query.ClassID,
		Program:  models.Program(strings.ToUpper(query.Program)),
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if filter.Program != "" && !filter.Program.Valid() {
		return nil, nil, appErrors.Validation("invalid student filter", map[string]string{"program": "must be one of [MRHSS MRA RFL]"})
	}
	if program, scoped := policy.StudentScope(actor.Role); scoped {
		filter.Program = program
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list students")
	}
	return students, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// GetStudent returns a single student, applying the same visibility scope as listings.
func (s *StudentService) GetStudent(ctx context.Context, actor models.Actor, id string) (*models.StudentDetail, error) {
	if err := Authorize(actor, policy.ActionViewStudents, policy.Resource{}); err != nil {
		return nil, err
	}
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}
	if program, scoped := policy.StudentScope(actor.Role); scoped {
		if student.CurrentProgram == nil || *student.CurrentProgram != program {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
	}
	return student, nil
}

// AddRemark records a note about a student. Teachers must teach in the student's class.
func (s *StudentService) AddRemark(ctx context.Context, actor models.Actor, req dto.AddRemarkRequest) (*models.StudentRemark, error) {
	remark := &models.StudentRemark{StudentID: req.StudentID, TeacherID: actor.ID, Remark: strings.TrimSpace(req.Remark)}
	err := s.mutations.Run(ctx, Mutation{
		Actor:       actor,
		Action:      policy.ActionAddRemark,
		AuditAction: models.AuditActionAddRemark,
		Input:       req,
		Resolve: func(ctx context.Context) (policy.Resource, error) {
			return s.scope.ForStudent(ctx, actor, req.StudentID)
		},
	}, func(ctx context.Context, tx *sqlx.Tx) (string, error) {
		if err := s.students.CreateRemark(ctx, tx, remark); err != nil {
			return "", err
		}
		return remark.ID, nil
	})
	if err != nil {
		return nil, err
	}
	return remark, nil
}
