package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/trust-erp-api/internal/models"
	appErrors "github.com/noah-isme/trust-erp-api/pkg/errors"
)

// Envelope represents the uniform result shape returned to the UI layer.
type Envelope struct {
	Success     bool               `json:"success"`
	Message     string             `json:"message"`
	Code        string             `json:"code,omitempty"`
	Retryable   bool               `json:"retryable,omitempty"`
	Data        interface{}        `json:"data,omitempty"`
	FieldErrors map[string]string  `json:"fieldErrors,omitempty"`
	Pagination  *models.Pagination `json:"pagination,omitempty"`
}

// JSON sends a success response with optional pagination metadata.
func JSON(c *gin.Context, status int, message string, data interface{}, pagination *models.Pagination) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	if message == "" {
		message = "ok"
	}
	c.JSON(status, Envelope{Success: true, Message: message, Data: data, Pagination: pagination})
}

// OK responds with HTTP 200.
func OK(c *gin.Context, message string, data interface{}) {
	JSON(c, http.StatusOK, message, data, nil)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, message string, data interface{}) {
	JSON(c, http.StatusCreated, message, data, nil)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	message := appErr.Message
	if appErr.Code == appErrors.ErrInternal.Code {
		// never leak driver errors
		message = appErrors.ErrInternal.Message
	}
	c.JSON(appErr.Status, Envelope{
		Success:     false,
		Message:     message,
		Code:        appErr.Code,
		Retryable:   appErr.Retryable,
		FieldErrors: appErr.Fields,
	})
}

// Abort writes the error and stops the middleware chain.
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}
