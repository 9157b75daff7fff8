package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/trust-erp-api/internal/dto"
	"github.com/noah-isme/trust-erp-api/internal/models"
	"github.com/noah-isme/trust-erp-api/pkg/response"
)

type gradeService interface {
	UploadMarks(ctx context.Context, actor models.Actor, req dto.UploadMarksRequest) ([]models.StudentMark, error)
	SetAcademicPerformance(ctx context.Context, actor models.Actor, req dto.AcademicPerformanceRequest) (*models.StudentMark, error)
	ListMarks(ctx context.Context, actor models.Actor, classID, subjectID, examTitle string) ([]models.StudentMark, error)
}

// GradeHandler exposes exam mark endpoints.
type GradeHandler struct {
	service gradeService
}

// NewGradeHandler builds a new handler.
func NewGradeHandler(service gradeService) *GradeHandler {
	return &GradeHandler{service: service}
}

// Upload godoc
// @Summary Upload exam marks
// @Description Replaces previously uploaded marks for the same class, subject and exam
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body dto.UploadMarksRequest true "Marks payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /marks [post]
func (h *GradeHandler) Upload(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.UploadMarksRequest
	if !bindJSON(c, &req) {
		return
	}
	marks, err := h.service.UploadMarks(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "marks saved", marks, nil)
}

// List godoc
// @Summary List exam marks
// @Tags Grades
// @Produce json
// @Param classId query string true "Class ID"
// @Param subjectId query string true "Subject ID"
// @Param examTitle query string true "Exam title"
// @Success 200 {object} response.Envelope
// @Router /marks [get]
func (h *GradeHandler) List(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	marks, err := h.service.ListMarks(c.Request.Context(), actor, c.Query("classId"), c.Query("subjectId"), c.Query("examTitle"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", marks, nil)
}

// AcademicPerformance godoc
// @Summary Record scholarship student performance
// @Tags Grades
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.AcademicPerformanceRequest true "Performance payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /students/{id}/performance [post]
func (h *GradeHandler) AcademicPerformance(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.AcademicPerformanceRequest
	if !bindJSON(c, &req) {
		return
	}
	req.StudentID = c.Param("id")

	mark, err := h.service.SetAcademicPerformance(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "performance recorded", mark, nil)
}
