package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/retailos/backoffice/internal/domain/settlement"
	"github.com/retailos/backoffice/internal/domain/shared/valueobject"
)

// AuditEntryModel is the persistence model for settlement audit lines.
// Rows are append-only. The per-obligation breakdown is stored as a
// JSONB document; the money columns are denormalized for querying.
type AuditEntryModel struct {
	ID               uuid.UUID         `gorm:"type:uuid;primary_key"`
	SettlementID     uuid.UUID         `gorm:"type:uuid;not null;index"`
	PayerID          uuid.UUID         `gorm:"type:uuid;not null;index"`
	Kind             settlement.Kind   `gorm:"type:varchar(20);not null"`
	Action           string            `gorm:"type:varchar(50);not null"`
	PaymentAmount    valueobject.Money `gorm:"type:bigint;not null"`
	TotalAllocated   valueobject.Money `gorm:"type:bigint;not null"`
	ExcessPayment    valueobject.Money `gorm:"type:bigint;not null"`
	RemainingBalance valueobject.Money `gorm:"type:bigint;not null"`
	Outcomes         string            `gorm:"type:jsonb;default:'[]'"`
	Detail           string            `gorm:"type:text"`
	RecordedAt       time.Time         `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditEntryModel) TableName() string {
	return "settlement_audit_entries"
}

// ToDomain converts the persistence model to a domain audit entry
func (m *AuditEntryModel) ToDomain() (*settlement.AuditEntry, error) {
	var outcomes []settlement.AuditOutcome
	if m.Outcomes != "" {
		if err := json.Unmarshal([]byte(m.Outcomes), &outcomes); err != nil {
			return nil, err
		}
	}
	return &settlement.AuditEntry{
		ID:               m.ID,
		SettlementID:     m.SettlementID,
		PayerID:          m.PayerID,
		Kind:             m.Kind,
		Action:           m.Action,
		PaymentAmount:    m.PaymentAmount,
		TotalAllocated:   m.TotalAllocated,
		ExcessPayment:    m.ExcessPayment,
		RemainingBalance: m.RemainingBalance,
		Outcomes:         outcomes,
		Detail:           m.Detail,
		RecordedAt:       m.RecordedAt,
	}, nil
}

// FromDomain populates the persistence model from a domain audit entry
func (m *AuditEntryModel) FromDomain(e *settlement.AuditEntry) error {
	outcomes, err := json.Marshal(e.Outcomes)
	if err != nil {
		return err
	}
	m.ID = e.ID
	m.SettlementID = e.SettlementID
	m.PayerID = e.PayerID
	m.Kind = e.Kind
	m.Action = e.Action
	m.PaymentAmount = e.PaymentAmount
	m.TotalAllocated = e.TotalAllocated
	m.ExcessPayment = e.ExcessPayment
	m.RemainingBalance = e.RemainingBalance
	m.Outcomes = string(outcomes)
	m.Detail = e.Detail
	m.RecordedAt = e.RecordedAt
	return nil
}
