package service

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/noah-isme/trust-erp-api/internal/dto"
	"github.com/noah-isme/trust-erp-api/internal/models"
	"github.com/noah-isme/trust-erp-api/internal/policy"
	appErrors "github.com/noah-isme/trust-erp-api/pkg/errors"
	"github.com/noah-isme/trust-erp-api/pkg/export"
)

// Audit query limits.
const (
	DefaultAuditLimit = 100
	MaxAuditLimit     = 500
)

type auditReader interface {
	Query(ctx context.Context, filter models.AuditFilter) ([]models.AuditLogEntry, error)
}

// AuditService exposes the read side of the audit log. Entries are written only by MutationService.
type AuditService struct {
	logs auditReader
}

// NewAuditService constructs the service.
func NewAuditService(logs auditReader) *AuditService {
	return &AuditService{logs: logs}
}

// Query returns entries newest first.
func (s *AuditService) Query(ctx context.Context, actor models.Actor, query dto.AuditQuery) ([]models.AuditLogEntry, error) {
	if err := Authorize(actor, policy.ActionViewAuditLog, policy.Resource{}); err != nil {
		return nil, err
	}
	filter, err := auditFilter(query)
	if err != nil {
		return nil, err
	}
	entries, err := s.logs.Query(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to query audit log")
	}
	return entries, nil
}

// ExportCSV writes the matching entries as CSV.
func (s *AuditService) ExportCSV(ctx context.Context, actor models.Actor, query dto.AuditQuery, w io.Writer) error {
	entries, err := s.Query(ctx, actor, query)
	if err != nil {
		return err
	}
	table := export.Table{Headers: []string{"timestamp", "actor_id", "actor_email", "action_type", "target_id"}}
	for _, e := range entries {
		target := ""
		if e.TargetID != nil {
			target = *e.TargetID
		}
		table.Rows = append(table.Rows, []string{
			e.CreatedAt.UTC().Format(time.RFC3339),
			e.ActorID,
			e.ActorEmail,
			e.ActionType,
			target,
		})
	}
	if err := export.WriteCSV(w, table); err != nil {
		return appErrors.Internal(err, "failed to export audit log")
	}
	return nil
}

func auditFilter(query dto.AuditQuery) (models.AuditFilter, error) {
	limit := query.Limit
	switch {
	case limit == 0:
		limit = DefaultAuditLimit
	case limit < 0 || limit > MaxAuditLimit:
		return models.AuditFilter{}, appErrors.Validation("invalid audit query", map[string]string{"limit": "must be between 1 and 500"})
	}
	return models.AuditFilter{
		ActorEmailContains: strings.TrimSpace(query.ActorEmail),
		ActionTypeContains: strings.TrimSpace(query.ActionType),
		Limit:              limit,
	}, nil
}
