package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/trust-erp-api/internal/dto"
	"github.com/noah-isme/trust-erp-api/internal/models"
	"github.com/noah-isme/trust-erp-api/internal/policy"
	"github.com/noah-isme/trust-erp-api/internal/validation"
	appErrors "github.com/noah-isme/trust-erp-api/pkg/errors"
	"github.com/noah-isme/trust-erp-api/pkg/export"
)

type feeStore interface {
	UpsertStructure(ctx context.Context, q sqlx.ExtContext, structure *models.FeeStructure) error
	FindStructure(ctx context.Context, q sqlx.ExtContext, classID string) (*models.FeeStructure, error)
	ListBillable(ctx context.Context, q sqlx.ExtContext, classID string, month time.Time) ([]models.BillableStudent, error)
	CreateVoucherIfAbsent(ctx context.Context, q sqlx.ExtContext, voucher *models.FeeVoucher) (bool, error)
	LockVoucher(ctx context.Context, q sqlx.ExtContext, id string) (*models.FeeVoucher, error)
	MarkPaid(ctx context.Context, q sqlx.ExtContext, id string, paidAt time.Time) error
	FindVoucherDetail(ctx context.Context, id string) (*models.VoucherDetail, error)
	ListVouchers(ctx context.Context, filter models.VoucherFilter) ([]models.VoucherDetail, error)
}

type beneficiaryStore interface {
	SetBeneficiary(ctx context.Context, q sqlx.ExtContext, id string, beneficiary bool) error
}

// FeeService handles fee structures, monthly vouchers and payments.
type FeeService struct {
	fees      feeStore
	students  beneficiaryStore
	profiles  studentReader
	classes   classFinder
	mutations mutationRunner
	now       func() time.Time
}

// NewFeeService constructs the service.
func NewFeeService(fees feeStore, students beneficiaryStore, profiles studentReader, classes classFinder, mutations mutationRunner) *FeeService {
	return &FeeService{fees: fees, students: students, profiles: profiles, classes: classes, mutations: mutations, now: time.Now}
}

// DefineFeeStructure creates or replaces the monthly charges of a class.
func (s *FeeService) DefineFeeStructure(ctx context.Context, actor models.Actor, req dto.DefineFeeStructureRequest) (*models.FeeStructure, error) {
	structure := &models.FeeStructure{ClassID: req.ClassID, Tuition: req.Tuition, HostelFee: req.HostelFee}
	err := s.mutations.Run(ctx, Mutation{
		Actor:       actor,
		Action:      policy.ActionDefineFeeStructure,
		AuditAction: models.AuditActionDefineFeeStructure,
		Input:       req,
	}, func(ctx context.Context, tx *sqlx.Tx) (string, error) {
		if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
			return "", notFound(err, "class not found")
		}
		if err := s.fees.UpsertStructure(ctx, tx, structure); err != nil {
			return "", err
		}
		return req.ClassID, nil
	})
	if err != nil {
		return nil, err
	}
	return structure, nil
}

// GenerateVouchers bills every eligible student of a class for a month. Beneficiaries, students
// without an active enrollment and students already billed for the month are skipped, so reruns
// create nothing new. One audit entry covers the whole batch.
func (s *FeeService) GenerateVouchers(ctx context.Context, actor models.Actor, req dto.GenerateVouchersRequest) (*dto.GenerateVouchersResponse, error) {
	resp := &dto.GenerateVouchersResponse{ClassID: req.ClassID, Month: req.Month}
	err := s.mutations.Run(ctx, Mutation{
		Actor:       actor,
		Action:      policy.ActionGenerateVouchers,
		AuditAction: models.AuditActionGenerateBulkVouchers,
		Input:       req,
		Bulk:        true,
	}, func(ctx context.Context, tx *sqlx.Tx) (string, error) {
		month, err := validation.ParseMonth(req.Month)
		if err != nil {
			return "", err
		}
		var dueDate *time.Time
		if req.DueDate != "" {
			due, err := validation.ParseDate("dueDate", req.DueDate)
			if err != nil {
				return "", err
			}
			dueDate = &due
		}

		structure, err := s.fees.FindStructure(ctx, tx, req.ClassID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return "", appErrors.Clone(appErrors.ErrBusinessRule, "fee structure not defined for this class")
			}
			return "", err
		}
		billable, err := s.fees.ListBillable(ctx, tx, req.ClassID, month)
		if err != nil {
			return "", err
		}
		for _, student := range billable {
			amount := structure.Tuition
			if student.NeedsHostel {
				amount += structure.HostelFee
			}
			created, err := s.fees.CreateVoucherIfAbsent(ctx, tx, &models.FeeVoucher{
				StudentID: student.StudentID,
				Month:     month,
				Amount:    amount,
				Fine:      req.Fine,
				Status:    models.VoucherStatusUnpaid,
				DueDate:   dueDate,
			})
			if err != nil {
				return "", err
			}
			if created {
				resp.Created++
			}
		}
		return req.ClassID, nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// PayVoucher marks an unpaid voucher as paid.
func (s *FeeService) PayVoucher(ctx context.Context, actor models.Actor, req dto.PayVoucherRequest) (*models.FeeVoucher, error) {
	var voucher *models.FeeVoucher
	err := s.mutations.Run(ctx, Mutation{
		Actor:       actor,
		Action:      policy.ActionPayVoucher,
		AuditAction: models.AuditActionPayVoucher,
		Input:       req,
	}, func(ctx context.Context, tx *sqlx.Tx) (string, error) {
		v, err := s.fees.LockVoucher(ctx, tx, req.VoucherID)
		if err != nil {
			return "", notFound(err, "voucher not found")
		}
		if v.Status == models.VoucherStatusPaid {
			return "", appErrors.Clone(appErrors.ErrBusinessRule, "voucher already paid")
		}
		paidAt := s.now().UTC()
		if err := s.fees.MarkPaid(ctx, tx, v.ID, paidAt); err != nil {
			return "", err
		}
		v.Status = models.VoucherStatusPaid
		v.PaidAt = &paidAt
		voucher = v
		return v.ID, nil
	})
	if err != nil {
		return nil, err
	}
	return voucher, nil
}

// SetBeneficiary flags or unflags a student for free tuition.
func (s *FeeService) SetBeneficiary(ctx context.Context, actor models.Actor, req dto.SetBeneficiaryRequest) error {
	return s.mutations.Run(ctx, Mutation{
		Actor:       actor,
		Action:      policy.ActionSetBeneficiary,
		AuditAction: models.AuditActionSetBeneficiary,
		Input:       req,
	}, func(ctx context.Context, tx *sqlx.Tx) (string, error) {
		if err := s.students.SetBeneficiary(ctx, tx, req.StudentID, *req.Beneficiary); err != nil {
			return "", notFound(err, "student not found")
		}
		return req.StudentID, nil
	})
}

// ListVouchers returns vouchers visible to actor. Students only see their own.
func (s *FeeService) ListVouchers(ctx context.Context, actor models.Actor, query dto.VoucherQuery) ([]models.VoucherDetail, error) {
	if err := Authorize(actor, policy.ActionViewVouchers, policy.Resource{}); err != nil {
		return nil, err
	}
	filter := models.VoucherFilter{StudentID: query.StudentID, ClassID: query.ClassID}
	if query.Month != "" {
		month, err := validation.ParseMonth(query.Month)
		if err != nil {
			return nil, err
		}
		filter.Month = &month
	}
	if query.Status != "" {
		status := models.VoucherStatus(strings.ToUpper(query.Status))
		if status != models.VoucherStatusPaid && status != models.VoucherStatusUnpaid {
			return nil, appErrors.Validation("invalid voucher filter", map[string]string{"status": "must be one of [PAID UNPAID]"})
		}
		filter.Status = status
	}
	if actor.Role == models.RoleStudent {
		own, err := s.ownProfile(ctx, actor)
		if err != nil {
			return nil, err
		}
		filter.StudentID = own.ID
		filter.ClassID = ""
	}

	vouchers, err := s.fees.ListVouchers(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list vouchers")
	}
	return vouchers, nil
}

// WriteVoucherPDF renders a printable voucher into w.
func (s *FeeService) WriteVoucherPDF(ctx context.Context, actor models.Actor, voucherID string, w io.Writer) error {
	if err := Authorize(actor, policy.ActionViewVouchers, policy.Resource{}); err != nil {
		return err
	}
	voucher, err := s.fees.FindVoucherDetail(ctx, voucherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "voucher not found")
		}
		return appErrors.Internal(err, "failed to load voucher")
	}
	if actor.Role == models.RoleStudent {
		own, err := s.ownProfile(ctx, actor)
		if err != nil {
			return err
		}
		if own.ID != voucher.StudentID {
			return appErrors.Clone(appErrors.ErrNotFound, "voucher not found")
		}
	}

	doc := export.Document{
		Title: "Fee Voucher",
		Fields: []export.Field{
			{Label: "Voucher", Value: voucher.ID},
			{Label: "Student", Value: voucher.StudentName},
			{Label: "Registration No", Value: voucher.RegistrationNo},
			{Label: "Month", Value: voucher.Month.Format("January 2006")},
			{Label: "Status", Value: string(voucher.Status)},
		},
		Table: &export.Table{
			Headers: []string{"Item", "Amount"},
			Rows: [][]string{
				{"Monthly fee", money(voucher.Amount)},
				{"Fine", money(voucher.Fine)},
				{"Total", money(voucher.Total())},
			},
		},
	}
	if voucher.DueDate != nil {
		doc.Footer = "Payable on or before " + voucher.DueDate.Format("02 Jan 2006") + "."
	}
	if err := export.WritePDF(w, doc); err != nil {
		return appErrors.Internal(err, "failed to render voucher")
	}
	return nil
}

func (s *FeeService) ownProfile(ctx context.Context, actor models.Actor) (*models.StudentDetail, error) {
	own, err := s.profiles.FindByUserID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Internal(err, "failed to load student profile")
	}
	return own, nil
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
