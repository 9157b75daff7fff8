package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/trust-erp-api/internal/dto"
	"github.com/noah-isme/trust-erp-api/internal/models"
	"github.com/noah-isme/trust-erp-api/pkg/response"
)

type feeService interface {
	DefineFeeStructure(ctx context.Context, actor models.Actor, req dto.DefineFeeStructureRequest) (*models.FeeStructure, error)
	GenerateVouchers(ctx context.Context, actor models.Actor, req dto.GenerateVouchersRequest) (*dto.GenerateVouchersResponse, error)
	PayVoucher(ctx context.Context, actor models.Actor, req dto.PayVoucherRequest) (*models.FeeVoucher, error)
	SetBeneficiary(ctx context.Context, actor models.Actor, req dto.SetBeneficiaryRequest) error
	ListVouchers(ctx context.Context, actor models.Actor, query dto.VoucherQuery) ([]models.VoucherDetail, error)
	WriteVoucherPDF(ctx context.Context, actor models.Actor, voucherID string, w io.Writer) error
}

// FeeHandler exposes fee structure and voucher endpoints.
type FeeHandler struct {
	service feeService
}

// NewFeeHandler builds a new handler.
func NewFeeHandler(service feeService) *FeeHandler {
	return &FeeHandler{service: service}
}

// DefineStructure godoc
// @Summary Define class fee structure
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body dto.DefineFeeStructureRequest true "Fee structure"
// @Success 200 {object} response.Envelope
// @Router /fees/structures [put]
func (h *FeeHandler) DefineStructure(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.DefineFeeStructureRequest
	if !bindJSON(c, &req) {
		return
	}
	structure, err := h.service.DefineFeeStructure(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "fee structure saved", structure, nil)
}

// GenerateVouchers godoc
// @Summary Generate monthly vouchers for a class
// @Description Beneficiaries and students already billed for the month are skipped
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body dto.GenerateVouchersRequest true "Generation payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /fees/vouchers/generate [post]
func (h *FeeHandler) GenerateVouchers(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.GenerateVouchersRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.service.GenerateVouchers(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "vouchers generated", result)
}

// Pay godoc
// @Summary Mark voucher paid
// @Tags Fees
// @Produce json
// @Param id path string true "Voucher ID"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /fees/vouchers/{id}/pay [post]
func (h *FeeHandler) Pay(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	voucher, err := h.service.PayVoucher(c.Request.Context(), actor, dto.PayVoucherRequest{VoucherID: c.Param("id")})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "voucher paid", voucher, nil)
}

// SetBeneficiary godoc
// @Summary Flag student for free tuition
// @Tags Fees
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.SetBeneficiaryRequest true "Beneficiary flag"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/beneficiary [put]
func (h *FeeHandler) SetBeneficiary(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.SetBeneficiaryRequest
	if !bindJSON(c, &req) {
		return
	}
	req.StudentID = c.Param("id")

	if err := h.service.SetBeneficiary(c.Request.Context(), actor, req); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "beneficiary updated", nil)
}

// ListVouchers godoc
// @Summary List vouchers
// @Description Students only receive their own vouchers
// @Tags Fees
// @Produce json
// @Param studentId query string false "Student filter"
// @Param classId query string false "Class filter"
// @Param month query string false "Month (YYYY-MM)"
// @Param status query string false "PAID or UNPAID"
// @Success 200 {object} response.Envelope
// @Router /fees/vouchers [get]
func (h *FeeHandler) ListVouchers(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var query dto.VoucherQuery
	if !bindQuery(c, &query) {
		return
	}
	vouchers, err := h.service.ListVouchers(c.Request.Context(), actor, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", vouchers, nil)
}

// VoucherPDF godoc
// @Summary Download printable voucher
// @Tags Fees
// @Produce application/pdf
// @Param id path string true "Voucher ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /fees/vouchers/{id}/pdf [get]
func (h *FeeHandler) VoucherPDF(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.service.WriteVoucherPDF(c.Request.Context(), actor, c.Param("id"), &buf); err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="voucher-`+c.Param("id")+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
