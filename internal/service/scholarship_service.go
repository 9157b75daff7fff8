package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/trust-erp-api/internal/dto"
	"github.com/noah-isme/trust-erp-api/internal/models"
	"github.com/noah-isme/trust-erp-api/internal/policy"
	"github.com/noah-isme/trust-erp-api/internal/validation"
	appErrors "github.com/noah-isme/trust-erp-api/pkg/errors"
)

type disbursementStore interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Disbursement, error)
	Create(ctx context.Context, q sqlx.ExtContext, d *models.Disbursement) error
}

// ScholarshipService tracks trust payouts to scholarship students.
type ScholarshipService struct {
	disbursements disbursementStore
	enrollments   programLookup
	scope         scopeResolver
	mutations     mutationRunner
}

// NewScholarshipService constructs the service.
func NewScholarshipService(disbursements disbursementStore, enrollments programLookup, scope scopeResolver, mutations mutationRunner) *ScholarshipService {
	return &ScholarshipService{disbursements: disbursements, enrollments: enrollments, scope: scope, mutations: mutations}
}

// RecordDisbursement records a payout. The student must be actively enrolled in the scholarship program.
func (s *ScholarshipService) RecordDisbursement(ctx context.Context, actor models.Actor, req dto.RecordDisbursementRequest) (*models.Disbursement, error) {
	var disbursement *models.Disbursement
	err := s.mutations.Run(ctx, Mutation{
		Actor:       actor,
		Action:      policy.ActionRecordDisbursement,
		AuditAction: models.AuditActionRecordDisbursement,
		Input:       req,
		Resolve: func(ctx context.Context) (policy.Resource, error) {
			return s.scope.ForStudent(ctx, actor, req.StudentID)
		},
	}, func(ctx context.Context, tx *sqlx.Tx) (string, error) {
		disbursedOn, err := validation.ParseDate("disbursedOn", req.DisbursedOn)
		if err != nil {
			return "", err
		}
		program, err := s.enrollments.CurrentProgram(ctx, tx, req.StudentID)
		if err != nil {
			return "", err
		}
		if program != models.ScholarshipProgram {
			return "", appErrors.Clone(appErrors.ErrBusinessRule, fmt.Sprintf("student is not actively enrolled in %s", models.ScholarshipProgram))
		}
		disbursement = &models.Disbursement{
			StudentID:   req.StudentID,
			Amount:      req.Amount,
			Purpose:     strings.TrimSpace(req.Purpose),
			DisbursedOn: disbursedOn,
			RecordedBy:  actor.ID,
		}
		if err := s.disbursements.Create(ctx, tx, disbursement); err != nil {
			return "", err
		}
		return disbursement.ID, nil
	})
	if err != nil {
		return nil, err
	}
	return disbursement, nil
}

// ListDisbursements returns a student's payouts to actors allowed to record them.
func (s *ScholarshipService) ListDisbursements(ctx context.Context, actor models.Actor, studentID string) ([]models.Disbursement, error) {
	if err := Authorize(actor, policy.ActionRecordDisbursement, policy.Resource{StudentProgram: models.ScholarshipProgram}); err != nil {
		return nil, err
	}
	res, err := s.scope.ForStudent(ctx, actor, studentID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actor, policy.ActionRecordDisbursement, res); err != nil {
		return nil, err
	}
	rows, err := s.disbursements.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list disbursements")
	}
	return rows, nil
}
