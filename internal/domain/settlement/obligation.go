package settlement

import (
	"time"

	"github.com/google/uuid"

	"github.com/retailos/backoffice/internal/domain/shared"
	"github.com/retailos/backoffice/internal/domain/shared/valueobject"
)

// Kind distinguishes money owed to us from money we owe
type Kind string

const (
	// KindReceivable is a customer debt owed to the business
	KindReceivable Kind = "RECEIVABLE"
	// KindPayable is a business debt owed to a supplier
	KindPayable Kind = "PAYABLE"
)

// IsValid checks if the kind is valid
func (k Kind) IsValid() bool {
	return k == KindReceivable || k == KindPayable
}

// Status is derived from the paid/total relationship, never stored
type Status string

const (
	StatusUnpaid        Status = "UNPAID"
	StatusPartiallyPaid Status = "PARTIALLY_PAID"
	StatusPaid          Status = "PAID"
)

// Obligation is an outstanding debt between the business and a payer,
// produced by a credit sale or a credit purchase. The settlement engine
// only ever moves PaidAmount toward TotalAmount; the row itself is the
// running record of how much of the debt remains.
type Obligation struct {
	shared.BaseAggregateRoot
	Kind        Kind              `json:"kind"`
	PayerID     uuid.UUID         `json:"payer_id"`
	Reference   string            `json:"reference"`
	SourceID    *uuid.UUID        `json:"source_id,omitempty"`
	TotalAmount valueobject.Money `json:"total_amount"`
	PaidAmount  valueobject.Money `json:"paid_amount"`
	IncurredAt  time.Time         `json:"incurred_at"`
	Note        string            `json:"note"`
}

// NewObligation creates an open obligation for a payer
func NewObligation(kind Kind, payerID uuid.UUID, reference string, total valueobject.Money, incurredAt time.Time) (*Obligation, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", "Obligation kind must be RECEIVABLE or PAYABLE")
	}
	if payerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PAYER", "Payer ID cannot be empty")
	}
	if !total.IsPositive() {
		return nil, NewInvalidAmountError("Obligation total must be positive")
	}
	if incurredAt.IsZero() {
		incurredAt = time.Now()
	}

	obligation := &Obligation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Kind:              kind,
		PayerID:           payerID,
		Reference:         reference,
		TotalAmount:       total,
		PaidAmount:        valueobject.Zero(),
		IncurredAt:        incurredAt,
	}

	obligation.AddDomainEvent(NewObligationCreatedEvent(obligation))
	return obligation, nil
}

// Outstanding returns the unpaid remainder of the obligation
func (o *Obligation) Outstanding() valueobject.Money {
	return o.TotalAmount.Sub(o.PaidAmount)
}

// Status derives the settlement state from the amounts
func (o *Obligation) Status() Status {
	switch {
	case o.PaidAmount.IsZero():
		return StatusUnpaid
	case o.PaidAmount.GreaterThanOrEqual(o.TotalAmount):
		return StatusPaid
	default:
		return StatusPartiallyPaid
	}
}

// IsSettled reports whether nothing remains outstanding
func (o *Obligation) IsSettled() bool {
	return !o.Outstanding().IsPositive()
}

// DisplayReference returns the human reference, falling back to the ID
func (o *Obligation) DisplayReference() string {
	if o.Reference != "" {
		return o.Reference
	}
	return o.ID.String()
}

// ApplyAllocation records a payment portion against the obligation.
// The amount must be positive and must not exceed the outstanding
// remainder; an obligation can never be paid past its total.
func (o *Obligation) ApplyAllocation(amount valueobject.Money) error {
	if !amount.IsPositive() {
		return NewInvalidAmountError("Allocation amount must be positive")
	}
	if amount.GreaterThan(o.Outstanding()) {
		return NewOverAllocationError(o.ID, amount, o.Outstanding())
	}

	o.PaidAmount = o.PaidAmount.Add(amount)
	o.Touch()

	if o.IsSettled() {
		o.AddDomainEvent(NewObligationSettledEvent(o))
	} else {
		o.AddDomainEvent(NewObligationPartiallySettledEvent(o, amount))
	}
	return nil
}
