package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/trust-erp-api/internal/dto"
	"github.com/noah-isme/trust-erp-api/internal/models"
	"github.com/noah-isme/trust-erp-api/pkg/response"
)

type attendanceService interface {
	MarkAttendance(ctx context.Context, actor models.Actor, req dto.MarkAttendanceRequest) ([]models.Attendance, error)
	ListAttendance(ctx context.Context, actor models.Actor, classID, rawDate string) ([]models.Attendance, error)
}

// AttendanceHandler exposes the daily attendance sheet.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler builds a new handler.
func NewAttendanceHandler(service attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

// Mark godoc
// @Summary Mark class attendance
// @Description Replaces any existing records for the same date and students
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.MarkAttendanceRequest true "Attendance sheet"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.MarkAttendanceRequest
	if !bindJSON(c, &req) {
		return
	}
	records, err := h.service.MarkAttendance(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "attendance saved", records, nil)
}

// List godoc
// @Summary Get class attendance for a date
// @Tags Attendance
// @Produce json
// @Param classId query string true "Class ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	records, err := h.service.ListAttendance(c.Request.Context(), actor, c.Query("classId"), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", records, nil)
}
