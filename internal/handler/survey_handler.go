package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/trust-erp-api/internal/dto"
	"github.com/noah-isme/trust-erp-api/internal/models"
	"github.com/noah-isme/trust-erp-api/pkg/response"
)

type evaluationService interface {
	SubmitEvaluation(ctx context.Context, actor models.Actor, req dto.SubmitEvaluationRequest) (*models.StaffEvaluation, error)
	ListEvaluations(ctx context.Context, actor models.Actor, teacherID string) ([]models.StaffEvaluation, error)
}

type surveyService interface {
	CreateSurvey(ctx context.Context, actor models.Actor, req dto.CreateSurveyRequest) (*models.Survey, error)
	SubmitFeedback(ctx context.Context, actor models.Actor, req dto.SubmitFeedbackRequest) error
	FeedbackSummary(ctx context.Context, actor models.Actor, surveyID, evaluateeID string) (*models.FeedbackSummary, error)
}

// SurveyHandler exposes staff evaluations and anonymous student feedback.
type SurveyHandler struct {
	evaluations evaluationService
	surveys     surveyService
}

// NewSurveyHandler builds a new handler.
func NewSurveyHandler(evaluations evaluationService, surveys surveyService) *SurveyHandler {
	return &SurveyHandler{evaluations: evaluations, surveys: surveys}
}

// SubmitEvaluation godoc
// @Summary Submit staff evaluation
// @Tags Surveys
// @Accept json
// @Produce json
// @Param payload body dto.SubmitEvaluationRequest true "Evaluation payload"
// @Success 201 {object} response.Envelope
// @Router /evaluations [post]
func (h *SurveyHandler) SubmitEvaluation(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.SubmitEvaluationRequest
	if !bindJSON(c, &req) {
		return
	}
	evaluation, err := h.evaluations.SubmitEvaluation(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "evaluation submitted", evaluation)
}

// ListEvaluations godoc
// @Summary List a teacher's evaluations
// @Tags Surveys
// @Produce json
// @Param teacherId path string true "Teacher user ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{teacherId}/evaluations [get]
func (h *SurveyHandler) ListEvaluations(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	rows, err := h.evaluations.ListEvaluations(c.Request.Context(), actor, c.Param("teacherId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", rows, nil)
}

// CreateSurvey godoc
// @Summary Create feedback survey
// @Tags Surveys
// @Accept json
// @Produce json
// @Param payload body dto.CreateSurveyRequest true "Survey payload"
// @Success 201 {object} response.Envelope
// @Router /surveys [post]
func (h *SurveyHandler) CreateSurvey(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.CreateSurveyRequest
	if !bindJSON(c, &req) {
		return
	}
	survey, err := h.surveys.CreateSurvey(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "survey created", survey)
}

// SubmitFeedback godoc
// @Summary Submit anonymous feedback
// @Description The stored response carries no reference to the submitting student
// @Tags Surveys
// @Accept json
// @Produce json
// @Param id path string true "Survey ID"
// @Param payload body dto.SubmitFeedbackRequest true "Feedback payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /surveys/{id}/feedback [post]
func (h *SurveyHandler) SubmitFeedback(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.SubmitFeedbackRequest
	if !bindJSON(c, &req) {
		return
	}
	req.SurveyID = c.Param("id")

	if err := h.surveys.SubmitFeedback(c.Request.Context(), actor, req); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "feedback submitted", nil)
}

// Summary godoc
// @Summary Feedback summary for a teacher
// @Tags Surveys
// @Produce json
// @Param id path string true "Survey ID"
// @Param evaluateeId path string true "Teacher user ID"
// @Success 200 {object} response.Envelope
// @Router /surveys/{id}/feedback/{evaluateeId} [get]
func (h *SurveyHandler) Summary(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	summary, err := h.surveys.FeedbackSummary(c.Request.Context(), actor, c.Param("id"), c.Param("evaluateeId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", summary, nil)
}
