package settlement

import (
	"github.com/google/uuid"

	"github.com/retailos/backoffice/internal/domain/shared"
	"github.com/retailos/backoffice/internal/domain/shared/valueobject"
)

// ObligationCreatedEvent is published when a new obligation is opened
type ObligationCreatedEvent struct {
	shared.BaseDomainEvent
	Kind        Kind              `json:"kind"`
	PayerID     uuid.UUID         `json:"payer_id"`
	TotalAmount valueobject.Money `json:"total_amount"`
}

func NewObligationCreatedEvent(o *Obligation) *ObligationCreatedEvent {
	return &ObligationCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("obligation.created", "Obligation", o.ID),
		Kind:            o.Kind,
		PayerID:         o.PayerID,
		TotalAmount:     o.TotalAmount,
	}
}

// ObligationPartiallySettledEvent is published when a payment moves an
// obligation forward without fully settling it
type ObligationPartiallySettledEvent struct {
	shared.BaseDomainEvent
	Kind      Kind              `json:"kind"`
	PayerID   uuid.UUID         `json:"payer_id"`
	Allocated valueobject.Money `json:"allocated"`
	Remaining valueobject.Money `json:"remaining"`
}

func NewObligationPartiallySettledEvent(o *Obligation, allocated valueobject.Money) *ObligationPartiallySettledEvent {
	return &ObligationPartiallySettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("obligation.partially_settled", "Obligation", o.ID),
		Kind:            o.Kind,
		PayerID:         o.PayerID,
		Allocated:       allocated,
		Remaining:       o.Outstanding(),
	}
}

// ObligationSettledEvent is published when an obligation reaches fully paid
type ObligationSettledEvent struct {
	shared.BaseDomainEvent
	Kind    Kind      `json:"kind"`
	PayerID uuid.UUID `json:"payer_id"`
}

func NewObligationSettledEvent(o *Obligation) *ObligationSettledEvent {
	return &ObligationSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("obligation.settled", "Obligation", o.ID),
		Kind:            o.Kind,
		PayerID:         o.PayerID,
	}
}

// SettlementCompletedEvent is published after a payment run commits
type SettlementCompletedEvent struct {
	shared.BaseDomainEvent
	PayerID        uuid.UUID         `json:"payer_id"`
	Kind           Kind              `json:"kind"`
	TotalAllocated valueobject.Money `json:"total_allocated"`
	ExcessPayment  valueobject.Money `json:"excess_payment"`
	ObligationIDs  []uuid.UUID       `json:"obligation_ids"`
}

func NewSettlementCompletedEvent(settlementID uuid.UUID, payerID uuid.UUID, kind Kind, totalAllocated, excess valueobject.Money, obligationIDs []uuid.UUID) *SettlementCompletedEvent {
	return &SettlementCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("settlement.completed", "Settlement", settlementID),
		PayerID:         payerID,
		Kind:            kind,
		TotalAllocated:  totalAllocated,
		ExcessPayment:   excess,
		ObligationIDs:   obligationIDs,
	}
}
