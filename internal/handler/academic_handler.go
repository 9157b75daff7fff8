package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/trust-erp-api/internal/dto"
	"github.com/noah-isme/trust-erp-api/internal/models"
	"github.com/noah-isme/trust-erp-api/pkg/response"
)

type academicService interface {
	ListClasses(ctx context.Context, actor models.Actor) ([]models.Class, error)
	ListSubjects(ctx context.Context, actor models.Actor) ([]models.Subject, error)
	CreateClass(ctx context.Context, actor models.Actor, req dto.CreateClassRequest) (*models.Class, error)
	CreateSubject(ctx context.Context, actor models.Actor, req dto.CreateSubjectRequest) (*models.Subject, error)
	AssignTeacher(ctx context.Context, actor models.Actor, req dto.AssignTeacherRequest) (*models.TeacherAssignment, error)
	ListAssignments(ctx context.Context, actor models.Actor, teacherID string) ([]models.TeacherAssignment, error)
	MyAssignments(ctx context.Context, actor models.Actor) ([]models.TeacherAssignment, error)
}

// AcademicHandler exposes class, subject and teacher assignment endpoints.
type AcademicHandler struct {
	service academicService
}

// NewAcademicHandler builds a new handler.
func NewAcademicHandler(service academicService) *AcademicHandler {
	return &AcademicHandler{service: service}
}

// ListClasses godoc
// @Summary List classes
// @Tags Academics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *AcademicHandler) ListClasses(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	classes, err := h.service.ListClasses(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", classes, nil)
}

// CreateClass godoc
// @Summary Create class
// @Tags Academics
// @Accept json
// @Produce json
// @Param payload body dto.CreateClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /classes [post]
func (h *AcademicHandler) CreateClass(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.CreateClassRequest
	if !bindJSON(c, &req) {
		return
	}
	class, err := h.service.CreateClass(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "class created", class)
}

// ListSubjects godoc
// @Summary List subjects
// @Tags Academics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *AcademicHandler) ListSubjects(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	subjects, err := h.service.ListSubjects(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", subjects, nil)
}

// CreateSubject godoc
// @Summary Create subject
// @Tags Academics
// @Accept json
// @Produce json
// @Param payload body dto.CreateSubjectRequest true "Subject payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /subjects [post]
func (h *AcademicHandler) CreateSubject(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.CreateSubjectRequest
	if !bindJSON(c, &req) {
		return
	}
	subject, err := h.service.CreateSubject(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "subject created", subject)
}

// AssignTeacher godoc
// @Summary Assign teacher to class
// @Description Omit subjectId (or send "none") to make the teacher the class teacher
// @Tags Academics
// @Accept json
// @Produce json
// @Param payload body dto.AssignTeacherRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /assignments [post]
func (h *AcademicHandler) AssignTeacher(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.AssignTeacherRequest
	if !bindJSON(c, &req) {
		return
	}
	assignment, err := h.service.AssignTeacher(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "teacher assigned", assignment)
}

// ListAssignments godoc
// @Summary List a teacher's assignments
// @Tags Academics
// @Produce json
// @Param teacherId path string true "Teacher user ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{teacherId}/assignments [get]
func (h *AcademicHandler) ListAssignments(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	assignments, err := h.service.ListAssignments(c.Request.Context(), actor, c.Param("teacherId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", assignments, nil)
}

// MyAssignments godoc
// @Summary List the current teacher's assignments
// @Tags Academics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /me/assignments [get]
func (h *AcademicHandler) MyAssignments(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	assignments, err := h.service.MyAssignments(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", assignments, nil)
}
