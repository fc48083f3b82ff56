package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/retailos/backoffice/internal/domain/settlement"
	"github.com/retailos/backoffice/internal/domain/shared"
	"github.com/retailos/backoffice/internal/domain/shared/valueobject"
)

// ObligationModel is the persistence model for the Obligation aggregate.
// Amounts are stored as BIGINT minor currency units. Settlement status
// is derived from the amounts, never stored.
type ObligationModel struct {
	AggregateModel
	Kind        settlement.Kind   `gorm:"type:varchar(20);not null;index:idx_obligations_payer_kind,priority:2"`
	PayerID     uuid.UUID         `gorm:"type:uuid;not null;index:idx_obligations_payer_kind,priority:1"`
	Reference   string            `gorm:"type:varchar(100)"`
	SourceID    *uuid.UUID        `gorm:"type:uuid;index"`
	TotalAmount valueobject.Money `gorm:"type:bigint;not null"`
	PaidAmount  valueobject.Money `gorm:"type:bigint;not null;default:0"`
	IncurredAt  time.Time         `gorm:"not null;index"`
	Note        string            `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ObligationModel) TableName() string {
	return "obligations"
}

// ToDomain converts the persistence model to a domain Obligation
func (m *ObligationModel) ToDomain() *settlement.Obligation {
	return &settlement.Obligation{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		Kind:        m.Kind,
		PayerID:     m.PayerID,
		Reference:   m.Reference,
		SourceID:    m.SourceID,
		TotalAmount: m.TotalAmount,
		PaidAmount:  m.PaidAmount,
		IncurredAt:  m.IncurredAt,
		Note:        m.Note,
	}
}

// FromDomain populates the persistence model from a domain Obligation
func (m *ObligationModel) FromDomain(o *settlement.Obligation) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.Kind = o.Kind
	m.PayerID = o.PayerID
	m.Reference = o.Reference
	m.SourceID = o.SourceID
	m.TotalAmount = o.TotalAmount
	m.PaidAmount = o.PaidAmount
	m.IncurredAt = o.IncurredAt
	m.Note = o.Note
}
