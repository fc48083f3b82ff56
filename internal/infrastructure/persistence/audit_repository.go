package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retailos/backoffice/internal/domain/settlement"
	"github.com/retailos/backoffice/internal/infrastructure/persistence/models"
)

// GormAuditRepository implements settlement.AuditRecorder using GORM
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// Record appends one line to the settlement audit trail
func (r *GormAuditRepository) Record(ctx context.Context, entry *settlement.AuditEntry) error {
	var model models.AuditEntryModel
	if err := model.FromDomain(entry); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// ListBySettlement returns the audit lines for one settlement, oldest first
func (r *GormAuditRepository) ListBySettlement(ctx context.Context, settlementID uuid.UUID) ([]*settlement.AuditEntry, error) {
	var rows []models.AuditEntryModel
	err := r.db.WithContext(ctx).
		Where("settlement_id = ?", settlementID).
		Order("recorded_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]*settlement.AuditEntry, 0, len(rows))
	for i := range rows {
		entry, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
