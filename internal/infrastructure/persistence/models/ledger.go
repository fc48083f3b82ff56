package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/retailos/backoffice/internal/domain/ledger"
	"github.com/retailos/backoffice/internal/domain/shared"
	"github.com/retailos/backoffice/internal/domain/shared/valueobject"
)

// LedgerEntryModel is the persistence model for a ledger entry header
type LedgerEntryModel struct {
	BaseModel
	SourceType  string            `gorm:"type:varchar(30);not null;index"`
	ReferenceID uuid.UUID         `gorm:"type:uuid;not null;index"`
	PayerID     uuid.UUID         `gorm:"type:uuid;not null;index"`
	Amount      valueobject.Money `gorm:"type:bigint;not null"`
	OccurredAt  time.Time         `gorm:"not null;index"`
	Lines       []LedgerLineModel `gorm:"foreignKey:EntryID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// LedgerLineModel is one posting line of a ledger entry
type LedgerLineModel struct {
	ID          uuid.UUID          `gorm:"type:uuid;primary_key"`
	EntryID     uuid.UUID          `gorm:"type:uuid;not null;index"`
	AccountCode ledger.AccountCode `gorm:"type:varchar(50);not null;index"`
	Direction   ledger.Direction   `gorm:"type:varchar(10);not null"`
	Amount      valueobject.Money  `gorm:"type:bigint;not null"`
}

// TableName returns the table name for GORM
func (LedgerLineModel) TableName() string {
	return "ledger_entry_lines"
}

// ToDomain converts the persistence model to a domain ledger entry
func (m *LedgerEntryModel) ToDomain() *ledger.Entry {
	lines := make([]ledger.EntryLine, 0, len(m.Lines))
	for _, l := range m.Lines {
		lines = append(lines, ledger.EntryLine{
			ID:          l.ID,
			AccountCode: l.AccountCode,
			Direction:   l.Direction,
			Amount:      l.Amount,
		})
	}

	return &ledger.Entry{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		SourceType:  m.SourceType,
		ReferenceID: m.ReferenceID,
		PayerID:     m.PayerID,
		Amount:      m.Amount,
		OccurredAt:  m.OccurredAt,
		Lines:       lines,
	}
}

// FromDomain populates the persistence model from a domain ledger entry
func (m *LedgerEntryModel) FromDomain(e *ledger.Entry) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.SourceType = e.SourceType
	m.ReferenceID = e.ReferenceID
	m.PayerID = e.PayerID
	m.Amount = e.Amount
	m.OccurredAt = e.OccurredAt

	m.Lines = make([]LedgerLineModel, 0, len(e.Lines))
	for _, l := range e.Lines {
		m.Lines = append(m.Lines, LedgerLineModel{
			ID:          l.ID,
			EntryID:     e.ID,
			AccountCode: l.AccountCode,
			Direction:   l.Direction,
			Amount:      l.Amount,
		})
	}
}
