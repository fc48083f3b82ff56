package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/retailos/backoffice/internal/domain/settlement"
	"github.com/retailos/backoffice/internal/domain/shared"
	"github.com/retailos/backoffice/internal/domain/shared/valueobject"
)

// newMockObligationRepository creates a GormObligationRepository with a mocked SQL connection
func newMockObligationRepository(t *testing.T) (*GormObligationRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormObligationRepository(gormDB), mock, mockDB
}

func obligationColumns() []string {
	return []string{"id", "created_at", "updated_at", "version", "kind", "payer_id", "reference", "total_amount", "paid_amount", "incurred_at", "note"}
}

func TestGormObligationRepository_FindByID(t *testing.T) {
	t.Run("finds existing obligation", func(t *testing.T) {
		repo, mock, mockDB := newMockObligationRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		payerID := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows(obligationColumns()).
			AddRow(id, now, now, 1, "RECEIVABLE", payerID, "INV-1", int64(1000), int64(400), now, "")

		mock.ExpectQuery(`SELECT \* FROM "obligations" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(id, 1).
			WillReturnRows(rows)

		obligation, err := repo.FindByID(context.Background(), id)

		require.NoError(t, err)
		assert.Equal(t, id, obligation.ID)
		assert.Equal(t, settlement.KindReceivable, obligation.Kind)
		assert.Equal(t, valueobject.NewMoney(600), obligation.Outstanding())
		assert.Equal(t, settlement.StatusPartiallyPaid, obligation.Status())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found error", func(t *testing.T) {
		repo, mock, mockDB := newMockObligationRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "obligations" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(id, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		obligation, err := repo.FindByID(context.Background(), id)

		assert.Nil(t, obligation)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormObligationRepository_LockOutstandingForPayer(t *testing.T) {
	repo, mock, mockDB := newMockObligationRepository(t)
	defer mockDB.Close()

	payerID := uuid.New()
	older := uuid.New()
	newer := uuid.New()
	t1 := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	rows := sqlmock.NewRows(obligationColumns()).
		AddRow(older, t1, t1, 1, "RECEIVABLE", payerID, "", int64(1000), int64(0), t1, "").
		AddRow(newer, t2, t2, 1, "RECEIVABLE", payerID, "", int64(500), int64(0), t2, "")

	mock.ExpectQuery(`SELECT \* FROM "obligations" WHERE payer_id = \$1 AND kind = \$2 AND paid_amount < total_amount ORDER BY incurred_at ASC, id ASC FOR UPDATE`).
		WithArgs(payerID, "RECEIVABLE").
		WillReturnRows(rows)

	obligations, err := repo.LockOutstandingForPayer(context.Background(), payerID, settlement.KindReceivable)

	require.NoError(t, err)
	require.Len(t, obligations, 2)
	assert.Equal(t, older, obligations[0].ID)
	assert.Equal(t, newer, obligations[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormObligationRepository_LockByID(t *testing.T) {
	t.Run("locks existing row", func(t *testing.T) {
		repo, mock, mockDB := newMockObligationRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		now := time.Now()
		rows := sqlmock.NewRows(obligationColumns()).
			AddRow(id, now, now, 1, "PAYABLE", uuid.New(), "PO-7", int64(2000), int64(0), now, "")

		mock.ExpectQuery(`SELECT \* FROM "obligations" WHERE id = \$1 ORDER BY .* LIMIT .* FOR UPDATE`).
			WithArgs(id, 1).
			WillReturnRows(rows)

		obligation, err := repo.LockByID(context.Background(), id)

		require.NoError(t, err)
		assert.Equal(t, settlement.KindPayable, obligation.Kind)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row returns nil without error", func(t *testing.T) {
		repo, mock, mockDB := newMockObligationRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "obligations" WHERE id = \$1 ORDER BY .* LIMIT .* FOR UPDATE`).
			WithArgs(id, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		obligation, err := repo.LockByID(context.Background(), id)

		assert.NoError(t, err)
		assert.Nil(t, obligation)
	})
}

func TestGormObligationRepository_ApplyAllocation(t *testing.T) {
	t.Run("advances paid amount", func(t *testing.T) {
		repo, mock, mockDB := newMockObligationRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		mock.ExpectExec(`UPDATE "obligations" SET .* WHERE id = \$\d+ AND paid_amount \+ \$\d+ <= total_amount`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.ApplyAllocation(context.Background(), id, valueobject.NewMoney(300))

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("guard rejection on existing row is over-allocation", func(t *testing.T) {
		repo, mock, mockDB := newMockObligationRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		now := time.Now()

		mock.ExpectExec(`UPDATE "obligations" SET .* WHERE id = \$\d+ AND paid_amount \+ \$\d+ <= total_amount`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "obligations" WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(`SELECT \* FROM "obligations" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(id, 1).
			WillReturnRows(sqlmock.NewRows(obligationColumns()).
				AddRow(id, now, now, 1, "RECEIVABLE", uuid.New(), "", int64(1000), int64(900), now, ""))

		err := repo.ApplyAllocation(context.Background(), id, valueobject.NewMoney(200))

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, settlement.CodeOverAllocation, domainErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row is not found", func(t *testing.T) {
		repo, mock, mockDB := newMockObligationRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		mock.ExpectExec(`UPDATE "obligations" SET .* WHERE id = \$\d+ AND paid_amount \+ \$\d+ <= total_amount`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "obligations" WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		err := repo.ApplyAllocation(context.Background(), id, valueobject.NewMoney(100))

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, settlement.CodeObligationNotFound, domainErr.Code)
	})

	t.Run("rejects non-positive amount without touching the database", func(t *testing.T) {
		repo, _, mockDB := newMockObligationRepository(t)
		defer mockDB.Close()

		err := repo.ApplyAllocation(context.Background(), uuid.New(), valueobject.Zero())

		assert.Error(t, err)
	})
}

func TestGormObligationRepository_FindByPayer(t *testing.T) {
	repo, mock, mockDB := newMockObligationRepository(t)
	defer mockDB.Close()

	payerID := uuid.New()
	id := uuid.New()
	t1 := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "obligations" WHERE payer_id = \$1 AND kind = \$2 AND paid_amount < total_amount`).
		WithArgs(payerID, "RECEIVABLE").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(11)))

	rows := sqlmock.NewRows(obligationColumns()).
		AddRow(id, t1, t1, 1, "RECEIVABLE", payerID, "INV-11", int64(1000), int64(0), t1, "")
	mock.ExpectQuery(`SELECT \* FROM "obligations" WHERE payer_id = \$1 AND kind = \$2 AND paid_amount < total_amount ORDER BY incurred_at ASC LIMIT \$3 OFFSET \$4`).
		WithArgs(payerID, "RECEIVABLE", 5, 10).
		WillReturnRows(rows)

	filter := shared.Filter{Page: 3, PageSize: 5, OrderBy: "incurred_at", OrderDir: "asc"}
	page, err := repo.FindByPayer(context.Background(), payerID, settlement.KindReceivable, filter)

	require.NoError(t, err)
	assert.Equal(t, int64(11), page.Total)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, id, page.Items[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormObligationRepository_SumOutstandingForPayer(t *testing.T) {
	repo, mock, mockDB := newMockObligationRepository(t)
	defer mockDB.Close()

	payerID := uuid.New()
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(total_amount - paid_amount\), 0\) FROM "obligations" WHERE payer_id = \$1 AND kind = \$2 AND paid_amount < total_amount`).
		WithArgs(payerID, "PAYABLE").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(int64(4200)))

	total, err := repo.SumOutstandingForPayer(context.Background(), payerID, settlement.KindPayable)

	require.NoError(t, err)
	assert.Equal(t, valueobject.NewMoney(4200), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
