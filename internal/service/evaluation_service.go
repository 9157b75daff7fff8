package service

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/trust-erp-api/internal/dto"
	"github.com/noah-isme/trust-erp-api/internal/models"
	"github.com/noah-isme/trust-erp-api/internal/policy"
	"github.com/noah-isme/trust-erp-api/internal/validation"
	appErrors "github.com/noah-isme/trust-erp-api/pkg/errors"
)

// EvaluationMetrics is the fixed staff evaluation form.
var EvaluationMetrics = []string{
	"punctuality",
	"subject_knowledge",
	"classroom_management",
	"communication",
	"professionalism",
}

type evaluationStore interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.StaffEvaluation, error)
	Create(ctx context.Context, q sqlx.ExtContext, e *models.StaffEvaluation) error
}

// EvaluationService records section heads' evaluations of teachers.
type EvaluationService struct {
	evaluations evaluationStore
	users       userReader
	mutations   mutationRunner
}

// NewEvaluationService constructs the service.
func NewEvaluationService(evaluations evaluationStore, users userReader, mutations mutationRunner) *EvaluationService {
	return &EvaluationService{evaluations: evaluations, users: users, mutations: mutations}
}

// SubmitEvaluation rates a teacher on every metric of the evaluation form.
func (s *EvaluationService) SubmitEvaluation(ctx context.Context, actor models.Actor, req dto.SubmitEvaluationRequest) (*models.StaffEvaluation, error) {
	var evaluation *models.StaffEvaluation
	err := s.mutations.Run(ctx, Mutation{
		Actor:       actor,
		Action:      policy.ActionSubmitEvaluation,
		AuditAction: models.AuditActionSubmitEvaluation,
		Input:       req,
	}, func(ctx context.Context, tx *sqlx.Tx) (string, error) {
		if err := validation.Ratings(req.Ratings, EvaluationMetrics, "ratings"); err != nil {
			return "", err
		}
		teacher, err := s.users.FindByID(ctx, req.TeacherID)
		if err != nil {
			return "", notFound(err, "teacher not found")
		}
		if teacher.Role != models.RoleTeacher {
			return "", appErrors.Clone(appErrors.ErrBusinessRule, "only teachers can be evaluated")
		}
		evaluation = &models.StaffEvaluation{
			TeacherID:   req.TeacherID,
			EvaluatorID: actor.ID,
			Period:      strings.TrimSpace(req.Period),
			Ratings:     models.Ratings(req.Ratings),
			Comments:    strings.TrimSpace(req.Comments),
		}
		if err := s.evaluations.Create(ctx, tx, evaluation); err != nil {
			return "", err
		}
		return evaluation.ID, nil
	})
	if err != nil {
		return nil, err
	}
	return evaluation, nil
}

// ListEvaluations returns a teacher's evaluations to actors allowed to submit them.
func (s *EvaluationService) ListEvaluations(ctx context.Context, actor models.Actor, teacherID string) ([]models.StaffEvaluation, error) {
	if err := Authorize(actor, policy.ActionSubmitEvaluation, policy.Resource{}); err != nil {
		return nil, err
	}
	rows, err := s.evaluations.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list evaluations")
	}
	return rows, nil
}
