package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/trust-erp-api/internal/dto"
	"github.com/noah-isme/trust-erp-api/internal/models"
	"github.com/noah-isme/trust-erp-api/internal/policy"
	appErrors "github.com/noah-isme/trust-erp-api/pkg/errors"
)

type userStore interface {
	LockByID(ctx context.Context, q sqlx.ExtContext, id string) (*models.User, error)
	EmailExists(ctx context.Context, q sqlx.ExtContext, email string) (bool, error)
	Create(ctx context.Context, q sqlx.ExtContext, user *models.User) error
	UpdateRole(ctx context.Context, q sqlx.ExtContext, id string, role models.Role) error
	UpdateStatus(ctx context.Context, q sqlx.ExtContext, id string, active bool) error
	UpdatePassword(ctx context.Context, q sqlx.ExtContext, id, passwordHash string) error
}

type scopeResolver interface {
	ForClass(ctx context.Context, actor models.Actor, classID string) (policy.Resource, error)
	ForStudent(ctx context.Context, actor models.Actor, studentID string) (policy.Resource, error)
	ForUser(ctx context.Context, userID string, newRole models.Role) (policy.Resource, error)
}

type mutationRunner interface {
	Run(ctx context.Context, m Mutation, body MutationBody) error
}

type studentAccountFinder interface {
	FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error)
}

type sessionRevoker interface {
	Revoke(ctx context.Context, userID string) error
}

// UserService manages staff accounts, roles, status and credentials.
type UserService struct {
	users          userStore
	students       studentAccountFinder
	enrollments    programLookup
	scope          scopeResolver
	mutations      mutationRunner
	revoker        sessionRevoker
	logger         *zap.Logger
	passwordLength int
}

// NewUserService constructs a UserService.
func NewUserService(users userStore, students studentAccountFinder, enrollments programLookup, scope scopeResolver, mutations mutationRunner, revoker sessionRevoker, logger *zap.Logger, passwordLength int) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		users:          users,
		students:       students,
		enrollments:    enrollments,
		scope:          scope,
		mutations:      mutations,
		revoker:        revoker,
		logger:         logger,
		passwordLength: passwordLength,
	}
}

// CreateStaff creates a non-student account and returns its one-time credential.
func (s *UserService) CreateStaff(ctx context.Context, actor models.Actor, req dto.CreateStaffRequest) (*models.User, *models.Credential, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)

	var user *models.User
	var credential *models.Credential
	err := s.mutations.Run(ctx, Mutation{
		Actor:       actor,
		Action:      policy.ActionCreateStaff,
		AuditAction: models.AuditActionCreateUser,
		Input:       req,
		Resolve: func(context.Context) (policy.Resource, error) {
			return policy.Resource{NewRole: req.Role}, nil
		},
	}, func(ctx context.Context, tx *sqlx.Tx) (string, error) {
		exists, err := s.users.EmailExists(ctx, tx, req.Email)
		if err != nil {
			return "", err
		}
		if exists {
			return "", appErrors.Clone(appErrors.ErrDuplicate, "email already registered")
		}
		plain, hash, err := newCredential(s.passwordLength)
		if err != nil {
			return "", err
		}
		user = &models.User{Email: req.Email, PasswordHash: hash, FullName: req.FullName, Role: req.Role, Active: true}
		if err := s.users.Create(ctx, tx, user); err != nil {
			return "", err
		}
		credential = &models.Credential{Email: user.Email, Password: plain}
		return user.ID, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return user, credential, nil
}

// ChangeRole moves an account to another role. Student accounts never change role.
func (s *UserService) ChangeRole(ctx context.Context, actor models.Actor, req dto.ChangeRoleRequest) error {
	err := s.mutations.Run(ctx, Mutation{
		Actor:       actor,
		Action:      policy.ActionChangeRole,
		AuditAction: models.AuditActionChangeRole(req.Role),
		Input:       req,
		Resolve: func(ctx context.Context) (policy.Resource, error) {
			return s.scope.ForUser(ctx, req.UserID, req.Role)
		},
	}, func(ctx context.Context, tx *sqlx.Tx) (string, error) {
		user, err := s.lockUser(ctx, tx, req.UserID)
		if err != nil {
			return "", err
		}
		if err := Authorize(actor, policy.ActionChangeRole, policy.Resource{TargetRole: user.Role, NewRole: req.Role}); err != nil {
			return "", err
		}
		if user.Role == req.Role {
			return "", appErrors.Clone(appErrors.ErrBusinessRule, "user already has role "+string(req.Role))
		}
		if err := s.users.UpdateRole(ctx, tx, user.ID, req.Role); err != nil {
			return "", err
		}
		return user.ID, nil
	})
	if err != nil {
		return err
	}
	s.revoke(ctx, req.UserID)
	return nil
}

// SetUserStatus activates or deactivates an account.
func (s *UserService) SetUserStatus(ctx context.Context, actor models.Actor, req dto.SetUserStatusRequest) error {
	auditAction := models.AuditActionDeactivateUser
	if req.Active != nil && *req.Active {
		auditAction = models.AuditActionActivateUser
	}
	err := s.mutations.Run(ctx, Mutation{
		Actor:       actor,
		Action:      policy.ActionSetUserStatus,
		AuditAction: auditAction,
		Input:       req,
	}, func(ctx context.Context, tx *sqlx.Tx) (string, error) {
		if req.UserID == actor.ID && !*req.Active {
			return "", appErrors.Clone(appErrors.ErrBusinessRule, "cannot deactivate your own account")
		}
		user, err := s.lockUser(ctx, tx, req.UserID)
		if err != nil {
			return "", err
		}
		if user.Active == *req.Active {
			return "", appErrors.Clone(appErrors.ErrBusinessRule, "user status is unchanged")
		}
		if err := s.users.UpdateStatus(ctx, tx, user.ID, *req.Active); err != nil {
			return "", err
		}
		return user.ID, nil
	})
	if err != nil {
		return err
	}
	if !*req.Active {
		s.revoke(ctx, req.UserID)
	}
	return nil
}

// ResetPassword replaces a credential within the actor's reset authority. When no password is
// supplied one is generated and returned once. Authority is checked again against the locked
// account and, for students, the enrollment visible to the transaction.
func (s *UserService) ResetPassword(ctx context.Context, actor models.Actor, req dto.ResetPasswordRequest) (*models.Credential, error) {
	var credential *models.Credential
	err := s.mutations.Run(ctx, Mutation{
		Actor:       actor,
		Action:      policy.ActionResetPassword,
		AuditAction: models.AuditActionResetPassword,
		Input:       req,
		Resolve: func(ctx context.Context) (policy.Resource, error) {
			return s.scope.ForUser(ctx, req.UserID, "")
		},
	}, func(ctx context.Context, tx *sqlx.Tx) (string, error) {
		user, err := s.lockUser(ctx, tx, req.UserID)
		if err != nil {
			return "", err
		}
		current := policy.Resource{TargetRole: user.Role}
		if user.Role == models.RoleStudent {
			if current.StudentProgram, err = s.studentProgram(ctx, tx, user.ID); err != nil {
				return "", err
			}
		}
		if err := Authorize(actor, policy.ActionResetPassword, current); err != nil {
			return "", err
		}

		plain := req.NewPassword
		generated := plain == ""
		if generated {
			if plain, err = generatePassword(s.passwordLength); err != nil {
				return "", appErrors.Internal(err, "failed to generate password")
			}
		}
		hash, err := hashPassword(plain)
		if err != nil {
			return "", err
		}
		if err := s.users.UpdatePassword(ctx, tx, user.ID, hash); err != nil {
			return "", err
		}
		credential = &models.Credential{Email: user.Email}
		if generated {
			credential.Password = plain
		}
		return user.ID, nil
	})
	if err != nil {
		return nil, err
	}
	s.revoke(ctx, req.UserID)
	return credential, nil
}

// studentProgram returns the current program of the student owning userID, or "" without a profile.
func (s *UserService) studentProgram(ctx context.Context, tx *sqlx.Tx, userID string) (models.Program, error) {
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return s.enrollments.CurrentProgram(ctx, tx, student.ID)
}

func (s *UserService) lockUser(ctx context.Context, tx *sqlx.Tx, id string) (*models.User, error) {
	user, err := s.users.LockByID(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) revoke(ctx context.Context, userID string) {
	if s.revoker == nil {
		return
	}
	if err := s.revoker.Revoke(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke sessions", zap.String("user_id", userID), zap.Error(err))
	}
}
