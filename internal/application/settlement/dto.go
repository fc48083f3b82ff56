package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailos/backoffice/internal/domain/settlement"
	"github.com/retailos/backoffice/internal/domain/shared/valueobject"
)

// AllocateRequest asks for a lump payment to be distributed across a
// payer's outstanding obligations.
type AllocateRequest struct {
	PayerID       uuid.UUID
	Kind          settlement.Kind
	Amount        valueobject.Money
	SelectedIDs   []uuid.UUID
	PaymentMethod string
	Note          string
	OperatorID    *uuid.UUID
}

// AllocateSingleRequest pays one obligation directly. A zero Amount
// means "pay off the full outstanding remainder".
type AllocateSingleRequest struct {
	ObligationID  uuid.UUID
	Amount        valueobject.Money
	PaymentMethod string
	Note          string
	OperatorID    *uuid.UUID
}

// OutcomeResult is one obligation's share in the response
type OutcomeResult struct {
	ObligationID uuid.UUID       `json:"obligation_id"`
	Reference    string          `json:"reference"`
	Allocated    int64           `json:"allocated"`
	PaidAfter    int64           `json:"paid_after"`
	Status       string          `json:"status"`
	Display      decimal.Decimal `json:"display_amount"`
}

// AllocationResult is the committed outcome of a payment run
type AllocationResult struct {
	SettlementID     uuid.UUID       `json:"settlement_id"`
	PayerID          uuid.UUID       `json:"payer_id"`
	Kind             settlement.Kind `json:"kind"`
	Outcomes         []OutcomeResult `json:"outcomes"`
	TotalAllocated   int64           `json:"total_allocated"`
	ExcessPayment    int64           `json:"excess_payment"`
	RemainingBalance int64           `json:"remaining_balance"`
	CompletedAt      time.Time       `json:"completed_at"`
}

// CreateObligationRequest opens a new obligation for a payer
type CreateObligationRequest struct {
	PayerID    uuid.UUID
	Reference  string
	SourceID   *uuid.UUID
	Amount     valueobject.Money
	IncurredAt time.Time
	Note       string
}

// ObligationResult is the read model for one obligation
type ObligationResult struct {
	ID          uuid.UUID       `json:"id"`
	Kind        settlement.Kind `json:"kind"`
	PayerID     uuid.UUID       `json:"payer_id"`
	Reference   string          `json:"reference"`
	SourceID    *uuid.UUID      `json:"source_id,omitempty"`
	TotalAmount int64           `json:"total_amount"`
	PaidAmount  int64           `json:"paid_amount"`
	Outstanding int64           `json:"outstanding"`
	Status      string          `json:"status"`
	IncurredAt  time.Time       `json:"incurred_at"`
	Display     decimal.Decimal `json:"display_outstanding"`
}

// OutstandingSummaryResult aggregates a payer's open position
type OutstandingSummaryResult struct {
	PayerID          uuid.UUID       `json:"payer_id"`
	Kind             settlement.Kind `json:"kind"`
	ObligationCount  int             `json:"obligation_count"`
	TotalOutstanding int64           `json:"total_outstanding"`
	Display          decimal.Decimal `json:"display_outstanding"`
}

func toObligationResult(o *settlement.Obligation) ObligationResult {
	return ObligationResult{
		ID:          o.ID,
		Kind:        o.Kind,
		PayerID:     o.PayerID,
		Reference:   o.DisplayReference(),
		SourceID:    o.SourceID,
		TotalAmount: o.TotalAmount.Cents(),
		PaidAmount:  o.PaidAmount.Cents(),
		Outstanding: o.Outstanding().Cents(),
		Status:      string(o.Status()),
		IncurredAt:  o.IncurredAt,
		Display:     o.Outstanding().Decimal(),
	}
}
