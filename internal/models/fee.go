package models

import "time"

// FeeStructure holds the monthly charges for a class.
type FeeStructure struct {
	ClassID   string    `db:"class_id" json:"class_id"`
	Tuition   float64   `db:"tuition" json:"tuition"`
	HostelFee float64   `db:"hostel_fee" json:"hostel_fee"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// VoucherStatus is the payment state of a voucher.
type VoucherStatus string

const (
	VoucherStatusUnpaid VoucherStatus = "UNPAID"
	VoucherStatusPaid   VoucherStatus = "PAID"
)

// FeeVoucher is a monthly bill. At most one exists per (student, month).
type FeeVoucher struct {
	ID        string        `db:"id" json:"id"`
	StudentID string        `db:"student_id" json:"student_id"`
	Month     time.Time     `db:"month" json:"month"`
	Amount    float64       `db:"amount" json:"amount"`
	Fine      float64       `db:"fine" json:"fine"`
	Status    VoucherStatus `db:"status" json:"status"`
	DueDate   *time.Time    `db:"due_date" json:"due_date,omitempty"`
	PaidAt    *time.Time    `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

// Total is the amount payable including fine.
func (v FeeVoucher) Total() float64 {
	return v.Amount + v.Fine
}

// VoucherDetail enriches a voucher with student info.
type VoucherDetail struct {
	FeeVoucher
	StudentName    string `db:"student_name" json:"student_name"`
	RegistrationNo string `db:"registration_no" json:"registration_no"`
	ClassID        string `db:"class_id" json:"class_id"`
}

// VoucherFilter scopes voucher listings.
type VoucherFilter struct {
	StudentID string
	ClassID   string
	Month     *time.Time
	Status    VoucherStatus
}

// BillableStudent is a student eligible for a voucher in a given month.
type BillableStudent struct {
	StudentID   string `db:"student_id"`
	NeedsHostel bool   `db:"needs_hostel"`
}

// Disbursement is a recorded outgoing payment to a scholarship student.
type Disbursement struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	Amount      float64   `db:"amount" json:"amount"`
	Purpose     string    `db:"purpose" json:"purpose"`
	DisbursedOn time.Time `db:"disbursed_on" json:"disbursed_on"`
	RecordedBy  string    `db:"recorded_by" json:"recorded_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
