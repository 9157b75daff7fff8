package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/trust-erp-api/internal/models"
	"github.com/noah-isme/trust-erp-api/internal/policy"
	appErrors "github.com/noah-isme/trust-erp-api/pkg/errors"
)

type assignmentChecker interface {
	IsClassTeacher(ctx context.Context, teacherID, classID string) (bool, error)
	TeachesClass(ctx context.Context, teacherID, classID string) (bool, error)
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error)
}

// ScopeService resolves the resource facts the policy engine needs for scoped rules.
type ScopeService struct {
	assignments assignmentChecker
	users       userReader
	students    studentReader
}

// NewScopeService constructs the resolver.
func NewScopeService(assignments assignmentChecker, users userReader, students studentReader) *ScopeService {
	return &ScopeService{assignments: assignments, users: users, students: students}
}

// ForClass resolves facts for class-wide actions such as attendance.
func (s *ScopeService) ForClass(ctx context.Context, actor models.Actor, classID string) (policy.Resource, error) {
	var res policy.Resource
	if actor.Role != models.RoleTeacher || classID == "" {
		return res, nil
	}
	ok, err := s.assignments.IsClassTeacher(ctx, actor.ID, classID)
	if err != nil {
		return res, appErrors.Internal(err, "failed to check class assignment")
	}
	res.ClassTeacher = ok
	return res, nil
}

// ForStudent resolves the target student's current program and, for teachers, class membership.
func (s *ScopeService) ForStudent(ctx context.Context, actor models.Actor, studentID string) (policy.Resource, error) {
	var res policy.Resource
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return res, err
	}
	res.TargetRole = models.RoleStudent
	if student.CurrentProgram != nil {
		res.StudentProgram = *student.CurrentProgram
	}
	if actor.Role == models.RoleTeacher {
		ok, err := s.assignments.TeachesClass(ctx, actor.ID, student.ClassID)
		if err != nil {
			return res, appErrors.Internal(err, "failed to check class assignment")
		}
		res.TeachesStudentClass = ok
	}
	return res, nil
}

// ForUser resolves the target account's role and, for student accounts, their current program.
func (s *ScopeService) ForUser(ctx context.Context, userID string, newRole models.Role) (policy.Resource, error) {
	res := policy.Resource{NewRole: newRole}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return res, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return res, appErrors.Internal(err, "failed to load user")
	}
	res.TargetRole = user.Role
	if user.Role != models.RoleStudent {
		return res, nil
	}
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return res, nil
		}
		return res, appErrors.Internal(err, "failed to load student profile")
	}
	if student.CurrentProgram != nil {
		res.StudentProgram = *student.CurrentProgram
	}
	return res, nil
}

func (s *ScopeService) loadStudent(ctx context.Context, studentID string) (*models.StudentDetail, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}
	return student, nil
}
