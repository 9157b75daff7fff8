package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/trust-erp-api/internal/models"
)

func TestFeeListBillable(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	month := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`(?s)SELECT s.id AS student_id, s.needs_hostel.*s.is_beneficiary = FALSE.*NOT EXISTS \(SELECT 1 FROM fee_vouchers.*FOR UPDATE OF s`).
		WithArgs("c1", month).
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "needs_hostel"}).AddRow("s1", false).AddRow("s2", true))

	students, err := repo.ListBillable(context.Background(), db, "c1", month)
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.True(t, students[1].NeedsHostel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeCreateVoucherIfAbsent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	mock.ExpectExec(`(?s)INSERT INTO fee_vouchers .* ON CONFLICT \(student_id, month\) DO NOTHING`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`(?s)INSERT INTO fee_vouchers .* ON CONFLICT \(student_id, month\) DO NOTHING`).WillReturnResult(sqlmock.NewResult(0, 0))

	voucher := &models.FeeVoucher{StudentID: "s1", Month: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), Amount: 1500}
	created, err := repo.CreateVoucherIfAbsent(context.Background(), db, voucher)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.VoucherStatusUnpaid, voucher.Status)

	created, err = repo.CreateVoucherIfAbsent(context.Background(), db, &models.FeeVoucher{StudentID: "s1", Month: voucher.Month, Amount: 1500})
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeFindStructureMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT class_id, tuition, hostel_fee, updated_at FROM fee_structures WHERE class_id = $1")).
		WithArgs("c9").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindStructure(context.Background(), db, "c9")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeListVouchersFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "month", "amount", "fine", "status", "due_date", "paid_at", "created_at", "student_name", "registration_no", "class_id"}).
		AddRow("v1", "s1", now, 1500.0, 0.0, "UNPAID", nil, nil, now, "Ali", "REG-1", "c1")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE v.student_id = $1 AND v.status = $2 ORDER BY v.month DESC")).
		WithArgs("s1", models.VoucherStatusUnpaid).
		WillReturnRows(rows)

	vouchers, err := repo.ListVouchers(context.Background(), models.VoucherFilter{StudentID: "s1", Status: models.VoucherStatusUnpaid})
	require.NoError(t, err)
	require.Len(t, vouchers, 1)
	assert.Equal(t, "REG-1", vouchers[0].RegistrationNo)
	assert.Equal(t, 1500.0, vouchers[0].Total())
	assert.NoError(t, mock.ExpectationsWereMet())
}
