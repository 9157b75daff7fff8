package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/trust-erp-api/internal/models"
)

// AuditRepository appends and reads audit log entries. It exposes no update or delete.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create appends an entry using q, normally the mutation's transaction.
func (r *AuditRepository) Create(ctx context.Context, q sqlx.ExtContext, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, actor_id, action_type, target_id, created_at) VALUES (:id, :actor_id, :action_type, :target_id, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, q, query, entry); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// Query returns entries matching filter ordered newest first.
func (r *AuditRepository) Query(ctx context.Context, filter models.AuditFilter) ([]models.AuditLogEntry, error) {
	var conditions []string
	var args []interface{}
	if filter.ActorEmailContains != "" {
		args = append(args, "%"+escapeLike(filter.ActorEmailContains)+"%")
		conditions = append(conditions, fmt.Sprintf("u.email ILIKE $%d", len(args)))
	}
	if filter.ActionTypeContains != "" {
		args = append(args, "%"+escapeLike(filter.ActionTypeContains)+"%")
		conditions = append(conditions, fmt.Sprintf("a.action_type ILIKE $%d", len(args)))
	}

	query := `SELECT a.id, a.actor_id, a.action_type, a.target_id, a.created_at, COALESCE(u.email, '') AS actor_email
FROM audit_logs a LEFT JOIN users u ON u.id = a.actor_id`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, filter.Limit)
	query += fmt.Sprintf(" ORDER BY a.created_at DESC, a.id DESC LIMIT $%d", len(args))

	var entries []models.AuditLogEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}
	return entries, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
