package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ledgerapp "github.com/ledgerline/backend/internal/application/ledger"
	"github.com/ledgerline/backend/internal/domain/ledger"
	"github.com/ledgerline/backend/internal/interfaces/http/dto"
)

// PaymentHandler handles payment recording, preview, reversal and listing
type PaymentHandler struct {
	BaseHandler
	paymentService *ledgerapp.PaymentService
	writeRetries   int
}

// NewPaymentHandler creates a new PaymentHandler. writeRetries bounds
// how often a conflicted write is retried before the 409 surfaces.
func NewPaymentHandler(paymentService *ledgerapp.PaymentService, writeRetries int) *PaymentHandler {
	if writeRetries < 0 {
		writeRetries = 0
	}
	return &PaymentHandler{
		paymentService: paymentService,
		writeRetries:   writeRetries,
	}
}

// RegisterRoutes registers payment routes
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/payments")
	{
		payments.POST("", h.Record)
		payments.POST("/preview", h.Preview)
		payments.POST("/:id/reverse", h.Reverse)
		payments.GET("", h.List)
		payments.GET("/:id", h.Get)
	}
}

// RecordPaymentRequest is the request body for recording a payment
type RecordPaymentRequest struct {
	PartyID         string          `json:"party_id" binding:"required,uuid"`
	Direction       string          `json:"direction" binding:"required,oneof=IN OUT"`
	Method          string          `json:"method" binding:"required,oneof=CASH BANK_TRANSFER CHEQUE UPI CARD"`
	Amount          decimal.Decimal `json:"amount" binding:"required,gt=0"`
	Policy          string          `json:"policy" binding:"required,oneof=AGAINST_INVOICE ADVANCE"`
	TargetInvoiceID string          `json:"target_invoice_id" binding:"omitempty,uuid"`
	BankAccountID   string          `json:"bank_account_id" binding:"omitempty,uuid"`
	PaymentNumber   string          `json:"payment_number" binding:"max=50"`
	Reference       string          `json:"reference" binding:"max=100"`
	Remark          string          `json:"remark" binding:"max=500"`
	PaidAt          *time.Time      `json:"paid_at"`
}

func (r *RecordPaymentRequest) toServiceRequest(companyID uuid.UUID) (ledgerapp.RecordPaymentRequest, error) {
	partyID, err := uuid.Parse(r.PartyID)
	if err != nil {
		return ledgerapp.RecordPaymentRequest{}, err
	}

	req := ledgerapp.RecordPaymentRequest{
		CompanyID:     companyID,
		PartyID:       partyID,
		Direction:     ledger.PaymentDirection(r.Direction),
		Method:        ledger.PaymentMethod(r.Method),
		Amount:        r.Amount,
		Policy:        ledger.AllocationPolicy(r.Policy),
		PaymentNumber: r.PaymentNumber,
		Reference:     r.Reference,
		Remark:        r.Remark,
	}
	if r.TargetInvoiceID != "" {
		if req.TargetInvoiceID, err = uuid.Parse(r.TargetInvoiceID); err != nil {
			return ledgerapp.RecordPaymentRequest{}, err
		}
	}
	if r.BankAccountID != "" {
		accountID, err := uuid.Parse(r.BankAccountID)
		if err != nil {
			return ledgerapp.RecordPaymentRequest{}, err
		}
		req.BankAccountID = &accountID
	}
	if r.PaidAt != nil {
		req.PaidAt = *r.PaidAt
	}
	return req, nil
}

// Record creates a payment, allocates it and applies all balance
// effects. Write conflicts are retried a bounded number of times
// before the 409 reaches the client.
func (h *PaymentHandler) Record(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.Unauthorized(c, "Company identity required")
		return
	}

	var body RecordPaymentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	req, err := body.toServiceRequest(companyID)
	if err != nil {
		h.BadRequest(c, "Invalid UUID in request")
		return
	}

	var result *ledgerapp.PaymentResult
	for attempt := 0; ; attempt++ {
		result, err = h.paymentService.RecordPayment(c.Request.Context(), req)
		if err == nil || !ledger.IsWriteConflict(err) || attempt >= h.writeRetries {
			break
		}
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// PreviewAllocationRequest is the request body for an allocation preview
type PreviewAllocationRequest struct {
	PartyID         string          `json:"party_id" binding:"required,uuid"`
	Amount          decimal.Decimal `json:"amount" binding:"required,gt=0"`
	Policy          string          `json:"policy" binding:"required,oneof=AGAINST_INVOICE ADVANCE"`
	TargetInvoiceID string          `json:"target_invoice_id" binding:"omitempty,uuid"`
}

// Preview computes the allocation plan without writing anything
func (h *PaymentHandler) Preview(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.Unauthorized(c, "Company identity required")
		return
	}

	var body PreviewAllocationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	partyID, err := uuid.Parse(body.PartyID)
	if err != nil {
		h.BadRequest(c, "Invalid party ID format")
		return
	}
	req := ledgerapp.PreviewAllocationRequest{
		CompanyID: companyID,
		PartyID:   partyID,
		Amount:    body.Amount,
		Policy:    ledger.AllocationPolicy(body.Policy),
	}
	if body.TargetInvoiceID != "" {
		if req.TargetInvoiceID, err = uuid.Parse(body.TargetInvoiceID); err != nil {
			h.BadRequest(c, "Invalid invoice ID format")
			return
		}
	}

	plan, err := h.paymentService.PreviewAllocation(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, plan)
}

// ReversePaymentRequest is the request body for reversing a payment
type ReversePaymentRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// Reverse undoes a payment's allocations and balance effects.
// Reversing an already reversed payment is a no-op success.
func (h *PaymentHandler) Reverse(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.Unauthorized(c, "Company identity required")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	var body ReversePaymentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	req := ledgerapp.ReversePaymentRequest{
		CompanyID: companyID,
		PaymentID: paymentID,
		Reason:    body.Reason,
	}

	var result *ledgerapp.ReversePaymentResult
	for attempt := 0; ; attempt++ {
		result, err = h.paymentService.ReversePayment(c.Request.Context(), req)
		if err == nil || !ledger.IsWriteConflict(err) || attempt >= h.writeRetries {
			break
		}
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Get returns one payment with its allocations
func (h *PaymentHandler) Get(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.Unauthorized(c, "Company identity required")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), companyID, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payment)
}

// ListPaymentsFilter holds the query parameters for listing payments
type ListPaymentsFilter struct {
	dto.ListRequest
	PartyID   string `form:"party_id" binding:"omitempty,uuid"`
	Direction string `form:"direction" binding:"omitempty,oneof=IN OUT"`
	Method    string `form:"method" binding:"omitempty,oneof=CASH BANK_TRANSFER CHEQUE UPI CARD"`
	State     string `form:"state" binding:"omitempty,oneof=COMPLETED REVERSED"`
	DateFrom  string `form:"date_from" binding:"omitempty,datetime=2006-01-02"`
	DateTo    string `form:"date_to" binding:"omitempty,datetime=2006-01-02"`
}

// List returns payments for the company with filters and pagination
func (h *PaymentHandler) List(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.Unauthorized(c, "Company identity required")
		return
	}

	var query ListPaymentsFilter
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	query.Normalize()

	filter := ledger.PaymentFilter{}
	filter.Page = query.Page
	filter.PageSize = query.PageSize
	if query.PartyID != "" {
		partyID, err := uuid.Parse(query.PartyID)
		if err != nil {
			h.BadRequest(c, "Invalid party ID format")
			return
		}
		filter.PartyID = &partyID
	}
	if query.Direction != "" {
		direction := ledger.PaymentDirection(query.Direction)
		filter.Direction = &direction
	}
	if query.Method != "" {
		method := ledger.PaymentMethod(query.Method)
		filter.Method = &method
	}
	if query.State != "" {
		state := ledger.PaymentState(query.State)
		filter.State = &state
	}
	if query.DateFrom != "" {
		from, _ := time.Parse("2006-01-02", query.DateFrom)
		filter.FromDate = &from
	}
	if query.DateTo != "" {
		// Inclusive upper bound: end of the named day
		to, _ := time.Parse("2006-01-02", query.DateTo)
		to = to.Add(24*time.Hour - time.Nanosecond)
		filter.ToDate = &to
	}

	page, err := h.paymentService.ListPayments(c.Request.Context(), companyID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}
