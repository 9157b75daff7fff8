package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/trust-erp-api/internal/dto"
	"github.com/noah-isme/trust-erp-api/internal/models"
	"github.com/noah-isme/trust-erp-api/internal/policy"
	"github.com/noah-isme/trust-erp-api/internal/validation"
	"github.com/noah-isme/trust-erp-api/pkg/database"
	appErrors "github.com/noah-isme/trust-erp-api/pkg/errors"
)

const alreadySubmittedMessage = "feedback already submitted for this teacher"

type surveyStore interface {
	FindByID(ctx context.Context, id string) (*models.Survey, error)
	Create(ctx context.Context, q sqlx.ExtContext, survey *models.Survey) error
	SubmissionExists(ctx context.Context, q sqlx.ExtContext, surveyID, studentID, evaluateeID string) (bool, error)
	CreateSubmission(ctx context.Context, q sqlx.ExtContext, s *models.SurveySubmission) error
	CreateFeedback(ctx context.Context, q sqlx.ExtContext, f *models.Feedback) error
	ListFeedback(ctx context.Context, surveyID, evaluateeID string) ([]models.Feedback, error)
}

// SurveyService runs anonymous student feedback. Responses never reference the student; a separate
// submission marker enforces one response per (survey, student, teacher).
type SurveyService struct {
	surveys     surveyStore
	profiles    studentReader
	assignments assignmentChecker
	mutations   mutationRunner
}

// NewSurveyService constructs the service.
func NewSurveyService(surveys surveyStore, profiles studentReader, assignments assignmentChecker, mutations mutationRunner) *SurveyService {
	return &SurveyService{surveys: surveys, profiles: profiles, assignments: assignments, mutations: mutations}
}

// CreateSurvey declares a survey and its metric set.
func (s *SurveyService) CreateSurvey(ctx context.Context, actor models.Actor, req dto.CreateSurveyRequest) (*models.Survey, error) {
	metrics := make(pq.StringArray, 0, len(req.Metrics))
	for _, m := range req.Metrics {
		metrics = append(metrics, strings.ToLower(m))
	}
	survey := &models.Survey{Title: strings.TrimSpace(req.Title), Metrics: metrics, Active: true, CreatedBy: actor.ID}
	err := s.mutations.Run(ctx, Mutation{
		Actor:       actor,
		Action:      policy.ActionCreateSurvey,
		AuditAction: models.AuditActionCreateSurvey,
		Input:       req,
	}, func(ctx context.Context, tx *sqlx.Tx) (string, error) {
		if err := s.surveys.Create(ctx, tx, survey); err != nil {
			return "", err
		}
		return survey.ID, nil
	})
	if err != nil {
		return nil, err
	}
	return survey, nil
}

// SubmitFeedback stores a student's anonymous response about a teacher of their class.
// The audit entry targets the survey, not the response.
func (s *SurveyService) SubmitFeedback(ctx context.Context, actor models.Actor, req dto.SubmitFeedbackRequest) error {
	return s.mutations.Run(ctx, Mutation{
		Actor:       actor,
		Action:      policy.ActionSubmitFeedback,
		AuditAction: models.AuditActionSubmitFeedback,
		Input:       req,
	}, func(ctx context.Context, tx *sqlx.Tx) (string, error) {
		survey, err := s.surveys.FindByID(ctx, req.SurveyID)
		if err != nil {
			return "", notFound(err, "survey not found")
		}
		if !survey.Active {
			return "", appErrors.Clone(appErrors.ErrBusinessRule, "survey is closed")
		}
		if err := validation.Ratings(req.Ratings, survey.Metrics, "ratings"); err != nil {
			return "", err
		}
		student, err := s.profiles.FindByUserID(ctx, actor.ID)
		if err != nil {
			return "", notFound(err, "student profile not found")
		}
		teaches, err := s.assignments.TeachesClass(ctx, req.EvaluateeID, student.ClassID)
		if err != nil {
			return "", err
		}
		if !teaches {
			return "", appErrors.Clone(appErrors.ErrBusinessRule, "teacher is not assigned to your class")
		}

		exists, err := s.surveys.SubmissionExists(ctx, tx, survey.ID, student.ID, req.EvaluateeID)
		if err != nil {
			return "", err
		}
		if exists {
			return "", appErrors.Clone(appErrors.ErrDuplicate, alreadySubmittedMessage)
		}
		marker := &models.SurveySubmission{SurveyID: survey.ID, StudentID: student.ID, EvaluateeID: req.EvaluateeID}
		if err := s.surveys.CreateSubmission(ctx, tx, marker); err != nil {
			if database.IsUniqueViolation(err) {
				return "", appErrors.Clone(appErrors.ErrDuplicate, alreadySubmittedMessage)
			}
			return "", err
		}
		feedback := &models.Feedback{
			SurveyID:    survey.ID,
			EvaluateeID: req.EvaluateeID,
			Ratings:     models.Ratings(req.Ratings),
			Comment:     strings.TrimSpace(req.Comment),
		}
		if err := s.surveys.CreateFeedback(ctx, tx, feedback); err != nil {
			return "", err
		}
		return survey.ID, nil
	})
}

// FeedbackSummary aggregates the responses about one teacher in a survey.
func (s *SurveyService) FeedbackSummary(ctx context.Context, actor models.Actor, surveyID, evaluateeID string) (*models.FeedbackSummary, error) {
	if err := Authorize(actor, policy.ActionViewFeedback, policy.Resource{}); err != nil {
		return nil, err
	}
	survey, err := s.surveys.FindByID(ctx, surveyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "survey not found")
		}
		return nil, appErrors.Internal(err, "failed to load survey")
	}
	responses, err := s.surveys.ListFeedback(ctx, surveyID, evaluateeID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load feedback")
	}
	return summarizeFeedback(survey, evaluateeID, responses), nil
}

func summarizeFeedback(survey *models.Survey, evaluateeID string, responses []models.Feedback) *models.FeedbackSummary {
	summary := &models.FeedbackSummary{
		SurveyID:    survey.ID,
		EvaluateeID: evaluateeID,
		Responses:   len(responses),
		Averages:    make(map[string]float64, len(survey.Metrics)),
	}
	totals := make(map[string]int, len(survey.Metrics))
	counts := make(map[string]int, len(survey.Metrics))
	for _, f := range responses {
		for metric, score := range f.Ratings {
			totals[metric] += score
			counts[metric]++
		}
		if f.Comment != "" {
			summary.Comments = append(summary.Comments, f.Comment)
		}
	}
	for _, metric := range survey.Metrics {
		if counts[metric] > 0 {
			summary.Averages[metric] = float64(totals[metric]) / float64(counts[metric])
		}
	}
	sort.Strings(summary.Comments)
	return summary
}
