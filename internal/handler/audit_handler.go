package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/trust-erp-api/internal/dto"
	"github.com/noah-isme/trust-erp-api/internal/models"
	"github.com/noah-isme/trust-erp-api/pkg/response"
)

type auditService interface {
	Query(ctx context.Context, actor models.Actor, query dto.AuditQuery) ([]models.AuditLogEntry, error)
	ExportCSV(ctx context.Context, actor models.Actor, query dto.AuditQuery, w io.Writer) error
}

// AuditHandler exposes the audit trail to super admins.
type AuditHandler struct {
	service auditService
}

// NewAuditHandler builds a new handler.
func NewAuditHandler(service auditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// List godoc
// @Summary Query audit log
// @Tags Audit
// @Produce json
// @Param actorEmail query string false "Actor email contains"
// @Param actionType query string false "Action type contains"
// @Param limit query int false "Max entries (1-500, default 100)"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var query dto.AuditQuery
	if !bindQuery(c, &query) {
		return
	}
	entries, err := h.service.Query(c.Request.Context(), actor, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", entries, nil)
}

// Export godoc
// @Summary Export audit log as CSV
// @Tags Audit
// @Produce text/csv
// @Param actorEmail query string false "Actor email contains"
// @Param actionType query string false "Action type contains"
// @Param limit query int false "Max entries (1-500, default 100)"
// @Success 200 {file} binary
// @Router /audit-logs/export [get]
func (h *AuditHandler) Export(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var query dto.AuditQuery
	if !bindQuery(c, &query) {
		return
	}
	var buf bytes.Buffer
	if err := h.service.ExportCSV(c.Request.Context(), actor, query, &buf); err != nil {
		response.Error(c, err)
		return
	}
	filename := "audit-log-" + time.Now().UTC().Format("20060102-150405") + ".csv"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
