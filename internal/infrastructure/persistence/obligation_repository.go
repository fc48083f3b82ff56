package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/retailos/backoffice/internal/domain/settlement"
	"github.com/retailos/backoffice/internal/domain/shared"
	"github.com/retailos/backoffice/internal/domain/shared/valueobject"
	"github.com/retailos/backoffice/internal/infrastructure/persistence/models"
)

// GormObligationRepository implements settlement.ObligationRepository using GORM
type GormObligationRepository struct {
	db *gorm.DB
}

// NewGormObligationRepository creates a new GormObligationRepository
func NewGormObligationRepository(db *gorm.DB) *GormObligationRepository {
	return &GormObligationRepository{db: db}
}

// outstandingCondition filters to rows that still carry an unpaid remainder
const outstandingCondition = "paid_amount < total_amount"

// Save persists an obligation
func (r *GormObligationRepository) Save(ctx context.Context, obligation *settlement.Obligation) error {
	var model models.ObligationModel
	model.FromDomain(obligation)
	return r.db.WithContext(ctx).Save(&model).Error
}

// FindByID finds an obligation by its ID
func (r *GormObligationRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.Obligation, error) {
	var model models.ObligationModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// LockOutstandingForPayer loads the payer's open obligations of the
// given kind under FOR UPDATE row locks, oldest first. The ordering is
// total: ties on incurred_at fall back to the ID so concurrent
// transactions always acquire locks in the same sequence.
func (r *GormObligationRepository) LockOutstandingForPayer(ctx context.Context, payerID uuid.UUID, kind settlement.Kind) ([]*settlement.Obligation, error) {
	var rows []models.ObligationModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("payer_id = ? AND kind = ? AND "+outstandingCondition, payerID, kind).
		Order("incurred_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	obligations := make([]*settlement.Obligation, 0, len(rows))
	for i := range rows {
		obligations = append(obligations, rows[i].ToDomain())
	}
	return obligations, nil
}

// LockByID loads one obligation under a FOR UPDATE row lock.
// Returns nil without error when the obligation does not exist.
func (r *GormObligationRepository) LockByID(ctx context.Context, id uuid.UUID) (*settlement.Obligation, error) {
	var model models.ObligationModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ApplyAllocation advances paid_amount by the allocated portion. The
// UPDATE is guarded in SQL so a row can never be paid past its total,
// regardless of what the caller computed.
func (r *GormObligationRepository) ApplyAllocation(ctx context.Context, id uuid.UUID, amount valueobject.Money) error {
	if !amount.IsPositive() {
		return settlement.NewInvalidAmountError("Allocation amount must be positive")
	}

	result := r.db.WithContext(ctx).
		Model(&models.ObligationModel{}).
		Where("id = ? AND paid_amount + ? <= total_amount", id, amount.Cents()).
		Updates(map[string]interface{}{
			"paid_amount": gorm.Expr("paid_amount + ?", amount.Cents()),
			"version":     gorm.Expr("version + 1"),
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Distinguish a missing row from a guard rejection
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.ObligationModel{}).
			Where("id = ?", id).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return settlement.NewObligationNotFoundError(id)
		}
		obligation, err := r.FindByID(ctx, id)
		if err != nil {
			return err
		}
		return settlement.NewOverAllocationError(id, amount, obligation.Outstanding())
	}
	return nil
}

// ListOutstandingForPayer returns the payer's open obligations of the
// given kind, oldest first, without locking.
func (r *GormObligationRepository) ListOutstandingForPayer(ctx context.Context, payerID uuid.UUID, kind settlement.Kind) ([]*settlement.Obligation, error) {
	var rows []models.ObligationModel
	err := r.db.WithContext(ctx).
		Where("payer_id = ? AND kind = ? AND "+outstandingCondition, payerID, kind).
		Order("incurred_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	obligations := make([]*settlement.Obligation, 0, len(rows))
	for i := range rows {
		obligations = append(obligations, rows[i].ToDomain())
	}
	return obligations, nil
}

// FindByPayer returns one page of the payer's open obligations of the
// given kind, ordered and sliced per the filter.
func (r *GormObligationRepository) FindByPayer(ctx context.Context, payerID uuid.UUID, kind settlement.Kind, filter shared.Filter) (shared.Paginated[*settlement.Obligation], error) {
	if filter.Page <= 0 {
		filter.Page = shared.DefaultFilter().Page
	}
	if filter.PageSize <= 0 {
		filter.PageSize = shared.DefaultFilter().PageSize
	}
	condition := "payer_id = ? AND kind = ? AND " + outstandingCondition

	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.ObligationModel{}).
		Where(condition, payerID, kind).
		Count(&total).Error
	if err != nil {
		return shared.Paginated[*settlement.Obligation]{}, err
	}

	var rows []models.ObligationModel
	query := r.applyFilter(r.db.WithContext(ctx).Where(condition, payerID, kind), filter)
	if err := query.Find(&rows).Error; err != nil {
		return shared.Paginated[*settlement.Obligation]{}, err
	}

	obligations := make([]*settlement.Obligation, 0, len(rows))
	for i := range rows {
		obligations = append(obligations, rows[i].ToDomain())
	}
	return shared.NewPaginated(obligations, total, filter.Page, filter.PageSize), nil
}

// applyFilter applies ordering and pagination to the query
func (r *GormObligationRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	}
	return query
}

// SumOutstandingForPayer totals the unpaid remainder across the
// payer's open obligations of the given kind.
func (r *GormObligationRepository) SumOutstandingForPayer(ctx context.Context, payerID uuid.UUID, kind settlement.Kind) (valueobject.Money, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.ObligationModel{}).
		Where("payer_id = ? AND kind = ? AND "+outstandingCondition, payerID, kind).
		Select("COALESCE(SUM(total_amount - paid_amount), 0)").
		Scan(&total).Error
	if err != nil {
		return valueobject.Zero(), err
	}
	return valueobject.NewMoney(total), nil
}
