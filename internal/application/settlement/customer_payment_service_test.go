package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/retailos/backoffice/internal/domain/settlement"
	"github.com/retailos/backoffice/internal/domain/shared"
	"github.com/retailos/backoffice/internal/domain/shared/valueobject"
)

func newCustomerFixture() (*CustomerPaymentService, *allocationFixture, *MockObligationRepository) {
	f := newAllocationFixture()
	repo := new(MockObligationRepository)
	return NewCustomerPaymentService(f.service, repo), f, repo
}

func TestCustomerCreateObligation(t *testing.T) {
	ctx := context.Background()
	payerID := uuid.New()

	t.Run("opens a receivable", func(t *testing.T) {
		service, _, repo := newCustomerFixture()
		repo.On("Save", mock.Anything, mock.MatchedBy(func(o *settlement.Obligation) bool {
			return o.Kind == settlement.KindReceivable && o.PayerID == payerID
		})).Return(nil)

		result, err := service.CreateObligation(ctx, CreateObligationRequest{
			PayerID:    payerID,
			Reference:  "INV-100",
			Amount:     valueobject.NewMoney(5000),
			IncurredAt: time.Now(),
		})

		require.NoError(t, err)
		assert.Equal(t, settlement.KindReceivable, result.Kind)
		assert.Equal(t, "INV-100", result.Reference)
		assert.Equal(t, int64(5000), result.Outstanding)
		assert.Equal(t, string(settlement.StatusUnpaid), result.Status)
		repo.AssertExpectations(t)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		service, _, repo := newCustomerFixture()

		_, err := service.CreateObligation(ctx, CreateObligationRequest{
			PayerID: payerID,
			Amount:  valueobject.Zero(),
		})

		assert.Error(t, err)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestCustomerReceivePaymentForcesReceivableKind(t *testing.T) {
	ctx := context.Background()
	payerID := uuid.New()
	service, f, _ := newCustomerFixture()

	obligation := newTestObligation(t, settlement.KindReceivable, payerID, 1000, 0, time.Now())
	f.obligationRepo.On("LockOutstandingForPayer", mock.Anything, payerID, settlement.KindReceivable).
		Return([]*settlement.Obligation{obligation}, nil)
	f.obligationRepo.On("ApplyAllocation", mock.Anything, obligation.ID, valueobject.NewMoney(1000)).Return(nil)
	f.ledgerPoster.On("Post", mock.Anything, mock.Anything).Return(nil)
	f.obligationRepo.On("SumOutstandingForPayer", mock.Anything, payerID, settlement.KindReceivable).
		Return(valueobject.Zero(), nil)
	f.creditTracker.On("RecordRepayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.auditRecorder.On("Record", mock.Anything, mock.Anything).Return(nil)

	// Kind in the request is overridden even when set wrongly
	result, err := service.ReceivePayment(ctx, AllocateRequest{
		PayerID: payerID,
		Kind:    settlement.KindPayable,
		Amount:  valueobject.NewMoney(1000),
	})

	require.NoError(t, err)
	assert.Equal(t, settlement.KindReceivable, result.Kind)
}

func TestCustomerListOutstanding(t *testing.T) {
	ctx := context.Background()
	payerID := uuid.New()
	service, _, repo := newCustomerFixture()

	older := newTestObligation(t, settlement.KindReceivable, payerID, 1000, 300, time.Now().Add(-time.Hour))
	newer := newTestObligation(t, settlement.KindReceivable, payerID, 500, 0, time.Now())
	filter := shared.DefaultFilter()
	filter.OrderBy = "incurred_at"
	repo.On("FindByPayer", mock.Anything, payerID, settlement.KindReceivable, filter).
		Return(shared.NewPaginated([]*settlement.Obligation{older, newer}, 2, filter.Page, filter.PageSize), nil)

	page, err := service.ListOutstanding(ctx, payerID, filter)

	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, int64(700), page.Items[0].Outstanding)
	assert.Equal(t, string(settlement.StatusPartiallyPaid), page.Items[0].Status)
	assert.Equal(t, int64(500), page.Items[1].Outstanding)
}

func TestCustomerOutstandingSummary(t *testing.T) {
	ctx := context.Background()
	payerID := uuid.New()
	service, _, repo := newCustomerFixture()

	obligations := []*settlement.Obligation{
		newTestObligation(t, settlement.KindReceivable, payerID, 1000, 0, time.Now()),
		newTestObligation(t, settlement.KindReceivable, payerID, 500, 200, time.Now()),
	}
	repo.On("ListOutstandingForPayer", mock.Anything, payerID, settlement.KindReceivable).
		Return(obligations, nil)
	repo.On("SumOutstandingForPayer", mock.Anything, payerID, settlement.KindReceivable).
		Return(valueobject.NewMoney(1300), nil)

	summary, err := service.OutstandingSummary(ctx, payerID)

	require.NoError(t, err)
	assert.Equal(t, 2, summary.ObligationCount)
	assert.Equal(t, int64(1300), summary.TotalOutstanding)
	assert.Equal(t, "13", summary.Display.String())
}
