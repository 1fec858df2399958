package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ledgerapp "github.com/ledgerline/backend/internal/application/ledger"
	"github.com/ledgerline/backend/internal/domain/ledger"
)

// ReconciliationHandler handles document-to-payment matching
type ReconciliationHandler struct {
	BaseHandler
	reconciliationService *ledgerapp.ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(reconciliationService *ledgerapp.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliationService: reconciliationService}
}

// RegisterRoutes registers reconciliation routes
func (h *ReconciliationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/reconciliation/match", h.Match)
}

// MatchRequest is the request body for reconciling a document
type MatchRequest struct {
	PartyID        string          `json:"party_id" binding:"required,uuid"`
	DocumentNumber string          `json:"document_number" binding:"required,max=50"`
	TotalAmount    decimal.Decimal `json:"total_amount" binding:"required,gt=0"`
	DocumentDate   time.Time       `json:"document_date" binding:"required"`
	Method         string          `json:"method" binding:"omitempty,oneof=CASH BANK_TRANSFER CHEQUE UPI CARD"`
	BankAccountID  string          `json:"bank_account_id" binding:"omitempty,uuid"`
}

// Match looks for the completed payment most likely to settle the
// document. A miss is a valid answer, returned with matched=false.
func (h *ReconciliationHandler) Match(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.Unauthorized(c, "Company identity required")
		return
	}

	var body MatchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	partyID, err := uuid.Parse(body.PartyID)
	if err != nil {
		h.BadRequest(c, "Invalid party ID format")
		return
	}

	req := ledgerapp.MatchRequest{
		CompanyID:      companyID,
		PartyID:        partyID,
		DocumentNumber: body.DocumentNumber,
		TotalAmount:    body.TotalAmount,
		DocumentDate:   body.DocumentDate,
		Method:         ledger.PaymentMethod(body.Method),
	}
	if body.BankAccountID != "" {
		accountID, err := uuid.Parse(body.BankAccountID)
		if err != nil {
			h.BadRequest(c, "Invalid bank account ID format")
			return
		}
		req.BankAccountID = &accountID
	}

	result, err := h.reconciliationService.FindMatch(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
