package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/retailos/backoffice/internal/domain/settlement"
	"github.com/retailos/backoffice/internal/domain/shared/valueobject"
	"github.com/retailos/backoffice/internal/infrastructure/persistence/models"
)

// GormCreditStatsRepository implements settlement.CreditTracker using GORM
type GormCreditStatsRepository struct {
	db *gorm.DB
}

// NewGormCreditStatsRepository creates a new GormCreditStatsRepository
func NewGormCreditStatsRepository(db *gorm.DB) *GormCreditStatsRepository {
	return &GormCreditStatsRepository{db: db}
}

// RecordRepayment upserts the payer's repayment statistics: a new row
// on the first settlement, accumulated counters afterwards.
func (r *GormCreditStatsRepository) RecordRepayment(ctx context.Context, payerID uuid.UUID, kind settlement.Kind, amount, remainingBalance valueobject.Money, paidAt time.Time) error {
	row := models.CreditStatsModel{
		PayerID:        payerID,
		Kind:           kind,
		TotalRepaid:    amount,
		RepaymentCount: 1,
		LastBalance:    remainingBalance,
		LastPaidAt:     paidAt,
		UpdatedAt:      time.Now(),
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "payer_id"}, {Name: "kind"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"total_repaid":    gorm.Expr("payer_credit_stats.total_repaid + ?", amount.Cents()),
				"repayment_count": gorm.Expr("payer_credit_stats.repayment_count + 1"),
				"last_balance":    remainingBalance.Cents(),
				"last_paid_at":    paidAt,
				"updated_at":      time.Now(),
			}),
		}).
		Create(&row).Error
}

// FindByPayer returns the payer's accumulated repayment statistics,
// or nil when no settlement has been recorded yet.
func (r *GormCreditStatsRepository) FindByPayer(ctx context.Context, payerID uuid.UUID, kind settlement.Kind) (*models.CreditStatsModel, error) {
	var row models.CreditStatsModel
	err := r.db.WithContext(ctx).
		Where("payer_id = ? AND kind = ?", payerID, kind).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
