package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/trust-erp-api/internal/models"
)

func TestAuditQueryFiltersAndOrders(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "actor_id", "action_type", "target_id", "created_at", "actor_email"}).
		AddRow("a2", "u1", "CHANGE_ROLE_TEACHER", "u9", now, "root@school.test").
		AddRow("a1", "u1", "CREATE_USER", nil, now.Add(-time.Minute), "root@school.test")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE u.email ILIKE $1 AND a.action_type ILIKE $2 ORDER BY a.created_at DESC, a.id DESC LIMIT $3")).
		WithArgs("%root%", `%CHANGE\_ROLE%`, 50).
		WillReturnRows(rows)

	entries, err := repo.Query(context.Background(), models.AuditFilter{ActorEmailContains: "root", ActionTypeContains: "CHANGE_ROLE", Limit: 50})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "root@school.test", entries[0].ActorEmail)
	require.NotNil(t, entries[0].TargetID)
	assert.Nil(t, entries[1].TargetID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.AuditLog{ActorID: "u1", ActionType: models.AuditActionCreateClass}
	require.NoError(t, repo.Create(context.Background(), db, entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
