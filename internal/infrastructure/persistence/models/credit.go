package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/retailos/backoffice/internal/domain/settlement"
	"github.com/retailos/backoffice/internal/domain/shared/valueobject"
)

// CreditStatsModel accumulates repayment statistics per payer and kind.
// One row per (payer, kind), upserted on every settlement.
type CreditStatsModel struct {
	PayerID        uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Kind           settlement.Kind   `gorm:"type:varchar(20);primaryKey"`
	TotalRepaid    valueobject.Money `gorm:"type:bigint;not null;default:0"`
	RepaymentCount int64             `gorm:"not null;default:0"`
	LastBalance    valueobject.Money `gorm:"type:bigint;not null;default:0"`
	LastPaidAt     time.Time         `gorm:"not null"`
	UpdatedAt      time.Time         `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CreditStatsModel) TableName() string {
	return "payer_credit_stats"
}
