package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/trust-erp-api/internal/dto"
	"github.com/noah-isme/trust-erp-api/internal/models"
	"github.com/noah-isme/trust-erp-api/pkg/response"
)

type scholarshipService interface {
	RecordDisbursement(ctx context.Context, actor models.Actor, req dto.RecordDisbursementRequest) (*models.Disbursement, error)
	ListDisbursements(ctx context.Context, actor models.Actor, studentID string) ([]models.Disbursement, error)
}

// ScholarshipHandler exposes payouts to scholarship students.
type ScholarshipHandler struct {
	service scholarshipService
}

// NewScholarshipHandler builds a new handler.
func NewScholarshipHandler(service scholarshipService) *ScholarshipHandler {
	return &ScholarshipHandler{service: service}
}

// Record godoc
// @Summary Record disbursement
// @Tags Scholarships
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.RecordDisbursementRequest true "Disbursement payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /students/{id}/disbursements [post]
func (h *ScholarshipHandler) Record(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.RecordDisbursementRequest
	if !bindJSON(c, &req) {
		return
	}
	req.StudentID = c.Param("id")

	disbursement, err := h.service.RecordDisbursement(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "disbursement recorded", disbursement)
}

// List godoc
// @Summary List student disbursements
// @Tags Scholarships
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/disbursements [get]
func (h *ScholarshipHandler) List(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	rows, err := h.service.ListDisbursements(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", rows, nil)
}
