package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/retailos/backoffice/internal/domain/settlement"
)

// GormTransactionManager implements settlement.TransactionManager on a
// single database transaction: the obligation updates and the ledger
// posting of one settlement commit or roll back together.
type GormTransactionManager struct {
	database *Database
}

// NewGormTransactionManager creates a new GormTransactionManager
func NewGormTransactionManager(database *Database) *GormTransactionManager {
	return &GormTransactionManager{database: database}
}

// WithinTransaction runs fn inside one database transaction, handing
// it repositories bound to that transaction.
func (m *GormTransactionManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos *settlement.TxRepositories) error) error {
	return m.database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &settlement.TxRepositories{
			Obligations: NewGormObligationRepository(tx),
			Ledger:      NewGormLedgerRepository(tx),
		}
		return fn(ctx, repos)
	})
}
