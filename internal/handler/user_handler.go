package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/trust-erp-api/internal/dto"
	"github.com/noah-isme/trust-erp-api/internal/models"
	"github.com/noah-isme/trust-erp-api/pkg/response"
)

type userService interface {
	CreateStaff(ctx context.Context, actor models.Actor, req dto.CreateStaffRequest) (*models.User, *models.Credential, error)
	ChangeRole(ctx context.Context, actor models.Actor, req dto.ChangeRoleRequest) error
	SetUserStatus(ctx context.Context, actor models.Actor, req dto.SetUserStatusRequest) error
	ResetPassword(ctx context.Context, actor models.Actor, req dto.ResetPasswordRequest) (*models.Credential, error)
}

// UserHandler handles account administration endpoints.
type UserHandler struct {
	service userService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// CreateStaff godoc
// @Summary Create staff account
// @Description Create a non-student account and return its one-time credential
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body dto.CreateStaffRequest true "Staff payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /users [post]
func (h *UserHandler) CreateStaff(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.CreateStaffRequest
	if !bindJSON(c, &req) {
		return
	}

	user, credential, err := h.service.CreateStaff(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "staff account created", gin.H{"user": user, "credential": credential})
}

// ChangeRole godoc
// @Summary Change account role
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body dto.ChangeRoleRequest true "Role payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /users/{id}/role [put]
func (h *UserHandler) ChangeRole(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.ChangeRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	req.UserID = c.Param("id")

	if err := h.service.ChangeRole(c.Request.Context(), actor, req); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "role updated", nil)
}

// SetStatus godoc
// @Summary Activate or deactivate account
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body dto.SetUserStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /users/{id}/status [put]
func (h *UserHandler) SetStatus(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.SetUserStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	req.UserID = c.Param("id")

	if err := h.service.SetUserStatus(c.Request.Context(), actor, req); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "status updated", nil)
}

// ResetPassword godoc
// @Summary Reset account password
// @Description Replace the password. A generated password is returned once when none is supplied.
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body dto.ResetPasswordRequest false "Optional new password"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /users/{id}/password-reset [post]
func (h *UserHandler) ResetPassword(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.ResetPasswordRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	req.UserID = c.Param("id")

	credential, err := h.service.ResetPassword(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, "password reset", credential, nil)
}
