package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appsettlement "github.com/retailos/backoffice/internal/application/settlement"
	"github.com/retailos/backoffice/internal/domain/settlement"
	"github.com/retailos/backoffice/internal/domain/shared"
	"github.com/retailos/backoffice/internal/domain/shared/valueobject"
	"github.com/retailos/backoffice/internal/interfaces/http/dto"
)

// SettlementHandler handles payment allocation API endpoints
type SettlementHandler struct {
	BaseHandler
	customers *appsettlement.CustomerPaymentService
	suppliers *appsettlement.SupplierPaymentService
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(customers *appsettlement.CustomerPaymentService, suppliers *appsettlement.SupplierPaymentService) *SettlementHandler {
	return &SettlementHandler{
		customers: customers,
		suppliers: suppliers,
	}
}

// ReceiveCustomerPayment allocates a customer's lump payment across
// their outstanding receivables, oldest first.
func (h *SettlementHandler) ReceiveCustomerPayment(c *gin.Context) {
	req, ok := h.bindPaymentRequest(c)
	if !ok {
		return
	}

	result, err := h.customers.ReceivePayment(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// MakeSupplierPayment allocates a payment to a supplier across the
// outstanding payables owed to them, oldest first.
func (h *SettlementHandler) MakeSupplierPayment(c *gin.Context) {
	req, ok := h.bindPaymentRequest(c)
	if !ok {
		return
	}

	result, err := h.suppliers.MakePayment(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// PayObligation settles one obligation directly. An omitted or zero
// amount pays off the full outstanding remainder.
func (h *SettlementHandler) PayObligation(c *gin.Context) {
	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		h.BadRequest(c, "Invalid obligation ID")
		return
	}
	obligationID, err := uuid.Parse(idReq.ID)
	if err != nil {
		h.BadRequest(c, "Invalid obligation ID")
		return
	}

	var req dto.SinglePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidJSON, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.customers.PayObligation(c.Request.Context(), appsettlement.AllocateSingleRequest{
		ObligationID:  obligationID,
		Amount:        valueobject.NewMoney(req.Amount),
		PaymentMethod: req.PaymentMethod,
		Note:          req.Note,
		OperatorID:    operatorID(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// CreateObligation registers a new receivable or payable from an
// upstream order or purchase.
func (h *SettlementHandler) CreateObligation(c *gin.Context) {
	var req dto.CreateObligationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidJSON, "Invalid request body: "+err.Error())
		return
	}

	payerID, err := uuid.Parse(req.PayerID)
	if err != nil {
		h.BadRequest(c, "Invalid payer ID")
		return
	}

	appReq := appsettlement.CreateObligationRequest{
		PayerID:   payerID,
		Reference: req.Reference,
		Amount:    valueobject.NewMoney(req.Amount),
		Note:      req.Note,
	}
	if req.IncurredAt != nil {
		appReq.IncurredAt = *req.IncurredAt
	}
	if req.SourceID != "" {
		sourceID, err := uuid.Parse(req.SourceID)
		if err != nil {
			h.BadRequest(c, "Invalid source ID")
			return
		}
		appReq.SourceID = &sourceID
	}

	var result *appsettlement.ObligationResult
	switch settlement.Kind(req.Kind) {
	case settlement.KindPayable:
		result, err = h.suppliers.CreateObligation(c.Request.Context(), appReq)
	default:
		result, err = h.customers.CreateObligation(c.Request.Context(), appReq)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// ListObligations returns a page of a payer's outstanding obligations,
// oldest first
func (h *SettlementHandler) ListObligations(c *gin.Context) {
	payerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payer ID")
		return
	}

	var query dto.ObligationListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	kind := settlement.KindReceivable
	if query.Kind != "" {
		kind = settlement.Kind(query.Kind)
		if !kind.IsValid() {
			h.BadRequest(c, "Invalid kind, expected RECEIVABLE or PAYABLE")
			return
		}
	}

	filter := shared.DefaultFilter()
	filter.OrderBy = "incurred_at"
	if query.Page > 0 {
		filter.Page = query.Page
	}
	if query.PageSize > 0 {
		filter.PageSize = query.PageSize
	}

	var page shared.Paginated[appsettlement.ObligationResult]
	if kind == settlement.KindPayable {
		page, err = h.suppliers.ListOutstanding(c.Request.Context(), payerID, filter)
	} else {
		page, err = h.customers.ListOutstanding(c.Request.Context(), payerID, filter)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, page)
}

// ObligationSummary returns a payer's outstanding count and total
func (h *SettlementHandler) ObligationSummary(c *gin.Context) {
	payerID, kind, ok := h.bindPayerQuery(c)
	if !ok {
		return
	}

	var (
		result *appsettlement.OutstandingSummaryResult
		err    error
	)
	if kind == settlement.KindPayable {
		result, err = h.suppliers.OutstandingSummary(c.Request.Context(), payerID)
	} else {
		result, err = h.customers.OutstandingSummary(c.Request.Context(), payerID)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

func (h *SettlementHandler) bindPaymentRequest(c *gin.Context) (appsettlement.AllocateRequest, bool) {
	var req dto.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidJSON, "Invalid request body: "+err.Error())
		return appsettlement.AllocateRequest{}, false
	}

	payerID, err := uuid.Parse(req.PayerID)
	if err != nil {
		h.BadRequest(c, "Invalid payer ID")
		return appsettlement.AllocateRequest{}, false
	}

	selected := make([]uuid.UUID, 0, len(req.SelectedObligationIDs))
	for _, raw := range req.SelectedObligationIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid obligation ID in selection: "+raw)
			return appsettlement.AllocateRequest{}, false
		}
		selected = append(selected, id)
	}

	return appsettlement.AllocateRequest{
		PayerID:       payerID,
		Amount:        valueobject.NewMoney(req.Amount),
		SelectedIDs:   selected,
		PaymentMethod: req.PaymentMethod,
		Note:          req.Note,
		OperatorID:    operatorID(c),
	}, true
}

func (h *SettlementHandler) bindPayerQuery(c *gin.Context) (uuid.UUID, settlement.Kind, bool) {
	payerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payer ID")
		return uuid.Nil, "", false
	}

	kind := settlement.Kind(c.DefaultQuery("kind", string(settlement.KindReceivable)))
	if !kind.IsValid() {
		h.BadRequest(c, "Invalid kind, expected RECEIVABLE or PAYABLE")
		return uuid.Nil, "", false
	}

	return payerID, kind, true
}

// operatorID reads the acting operator from the X-Operator-ID header.
// Back-office callers are behind the store gateway, which injects it.
func operatorID(c *gin.Context) *uuid.UUID {
	raw := c.GetHeader("X-Operator-ID")
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}
