package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/retailos/backoffice/internal/domain/ledger"
	"github.com/retailos/backoffice/internal/infrastructure/persistence/models"
)

// GormLedgerRepository implements settlement.LedgerPoster using GORM
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// Post persists a balanced ledger entry with its lines. Unbalanced
// entries are rejected before touching the database.
func (r *GormLedgerRepository) Post(ctx context.Context, entry *ledger.Entry) error {
	if !entry.IsBalanced() {
		return fmt.Errorf("ledger entry %s is not balanced", entry.ID)
	}

	var model models.LedgerEntryModel
	model.FromDomain(entry)
	return r.db.WithContext(ctx).Create(&model).Error
}
