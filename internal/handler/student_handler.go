package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/trust-erp-api/internal/dto"
	"github.com/noah-isme/trust-erp-api/internal/models"
	"github.com/noah-isme/trust-erp-api/pkg/response"
)

type studentService interface {
	RegisterStudent(ctx context.Context, actor models.Actor, req dto.RegisterStudentRequest) (*dto.RegisterStudentResponse, error)
	ListStudents(ctx context.Context, actor models.Actor, query dto.StudentQuery) ([]models.StudentDetail, *models.Pagination, error)
	GetStudent(ctx context.Context, actor models.Actor, id string) (*models.StudentDetail, error)
	AddRemark(ctx context.Context, actor models.Actor, req dto.AddRemarkRequest) (*models.StudentRemark, error)
}

// StudentHandler manages admissions and student records.
type StudentHandler struct {
	service studentService
}

// NewStudentHandler constructs a new student handler.
func NewStudentHandler(service studentService) *StudentHandler {
	return &StudentHandler{service: service}
}

// Register godoc
// @Summary Register student
// @Description Create the student account, profile and enrollment in one step. Hostel students are always enrolled as MRA.
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body dto.RegisterStudentRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Register(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.RegisterStudentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.RegisterStudent(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "student registered", result)
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param search query string false "Name or registration number"
// @Param classId query string false "Class filter"
// @Param program query string false "Program filter"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var query dto.StudentQuery
	if !bindQuery(c, &query) {
		return
	}

	students, pagination, err := h.service.ListStudents(c.Request.Context(), actor, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", students, pagination)
}

// Get godoc
// @Summary Get student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	student, err := h.service.GetStudent(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", student, nil)
}

// AddRemark godoc
// @Summary Add remark about student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.AddRemarkRequest true "Remark payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students/{id}/remarks [post]
func (h *StudentHandler) AddRemark(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.AddRemarkRequest
	if !bindJSON(c, &req) {
		return
	}
	req.StudentID = c.Param("id")

	remark, err := h.service.AddRemark(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "remark recorded", remark)
}
