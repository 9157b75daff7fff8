package dto

// DefineFeeStructureRequest sets a class's monthly charges.
type DefineFeeStructureRequest struct {
	ClassID   string  `json:"classId" validate:"required,uuid"`
	Tuition   float64 `json:"tuition" validate:"gte=0"`
	HostelFee float64 `json:"hostelFee" validate:"gte=0"`
}

// GenerateVouchersRequest bills a class for a month.
type GenerateVouchersRequest struct {
	ClassID string  `json:"classId" validate:"required,uuid"`
	Month   string  `json:"month" validate:"required,month"`
	Fine    float64 `json:"fine" validate:"gte=0"`
	DueDate string  `json:"dueDate,omitempty" validate:"omitempty,isodate"`
}

// GenerateVouchersResponse reports how many vouchers were created.
type GenerateVouchersResponse struct {
	ClassID string `json:"classId"`
	Month   string `json:"month"`
	Created int    `json:"created"`
}

// PayVoucherRequest settles a voucher.
type PayVoucherRequest struct {
	VoucherID string `json:"voucherId" validate:"required,uuid"`
}

// RecordDisbursementRequest records a payout to a scholarship student.
type RecordDisbursementRequest struct {
	StudentID   string  `json:"studentId" validate:"required,uuid"`
	Amount      float64 `json:"amount" validate:"gt=0"`
	Purpose     string  `json:"purpose" validate:"required,notblank,min=3,max=255"`
	DisbursedOn string  `json:"disbursedOn" validate:"required,isodate"`
}

// VoucherQuery filters voucher listings.
type VoucherQuery struct {
	StudentID string `form:"studentId"`
	ClassID   string `form:"classId"`
	Month     string `form:"month"`
	Status    string `form:"status"`
}
