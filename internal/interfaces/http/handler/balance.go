package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	ledgerapp "github.com/ledgerline/backend/internal/application/ledger"
	"github.com/ledgerline/backend/internal/domain/ledger"
)

// BalanceHandler exposes party balance rollups and audit checks
type BalanceHandler struct {
	BaseHandler
	balanceService *ledgerapp.BalanceService
}

// NewBalanceHandler creates a new BalanceHandler
func NewBalanceHandler(balanceService *ledgerapp.BalanceService) *BalanceHandler {
	return &BalanceHandler{balanceService: balanceService}
}

// RegisterRoutes registers balance routes
func (h *BalanceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	parties := rg.Group("/parties")
	{
		parties.GET("/balance-summary", h.Summary)
		parties.GET("/:id/balance-audit", h.Audit)
	}
}

// balanceSummaryQuery holds optional filters for the summary
type balanceSummaryQuery struct {
	PartyType string `form:"party_type" binding:"omitempty,oneof=CUSTOMER VENDOR SUPPLIER BOTH"`
}

// Summary rolls up stored balances into receivable/payable totals
func (h *BalanceHandler) Summary(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.Unauthorized(c, "Company identity required")
		return
	}

	var query balanceSummaryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var partyType *ledger.PartyType
	if query.PartyType != "" {
		pt := ledger.PartyType(query.PartyType)
		partyType = &pt
	}

	summary, err := h.balanceService.Summarize(c.Request.Context(), companyID, partyType)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// Audit recomputes one party's balance from invoices and advances and
// reports any drift against the stored rollup
func (h *BalanceHandler) Audit(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.Unauthorized(c, "Company identity required")
		return
	}

	partyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid party ID format")
		return
	}

	audit, err := h.balanceService.AuditParty(c.Request.Context(), companyID, partyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, audit)
}
