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
	"github.com/retailos/backoffice/internal/domain/shared/valueobject"
)

func newSupplierFixture() (*SupplierPaymentService, *allocationFixture, *MockObligationRepository) {
	f := newAllocationFixture()
	repo := new(MockObligationRepository)
	return NewSupplierPaymentService(f.service, repo), f, repo
}

func TestSupplierCreateObligation(t *testing.T) {
	ctx := context.Background()
	payerID := uuid.New()
	service, _, repo := newSupplierFixture()

	repo.On("Save", mock.Anything, mock.MatchedBy(func(o *settlement.Obligation) bool {
		return o.Kind == settlement.KindPayable && o.PayerID == payerID
	})).Return(nil)

	result, err := service.CreateObligation(ctx, CreateObligationRequest{
		PayerID:    payerID,
		Reference:  "PO-31",
		Amount:     valueobject.NewMoney(20000),
		IncurredAt: time.Now(),
	})

	require.NoError(t, err)
	assert.Equal(t, settlement.KindPayable, result.Kind)
	assert.Equal(t, int64(20000), result.TotalAmount)
	repo.AssertExpectations(t)
}

func TestSupplierMakePaymentForcesPayableKind(t *testing.T) {
	ctx := context.Background()
	payerID := uuid.New()
	service, f, _ := newSupplierFixture()

	obligation := newTestObligation(t, settlement.KindPayable, payerID, 600, 0, time.Now())
	f.obligationRepo.On("LockOutstandingForPayer", mock.Anything, payerID, settlement.KindPayable).
		Return([]*settlement.Obligation{obligation}, nil)
	f.obligationRepo.On("ApplyAllocation", mock.Anything, obligation.ID, valueobject.NewMoney(600)).Return(nil)
	f.ledgerPoster.On("Post", mock.Anything, mock.Anything).Return(nil)
	f.obligationRepo.On("SumOutstandingForPayer", mock.Anything, payerID, settlement.KindPayable).
		Return(valueobject.Zero(), nil)
	f.creditTracker.On("RecordRepayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.auditRecorder.On("Record", mock.Anything, mock.Anything).Return(nil)

	result, err := service.MakePayment(ctx, AllocateRequest{
		PayerID: payerID,
		Amount:  valueobject.NewMoney(600),
	})

	require.NoError(t, err)
	assert.Equal(t, settlement.KindPayable, result.Kind)
	assert.Equal(t, int64(600), result.TotalAllocated)
}

func TestSupplierOutstandingSummary(t *testing.T) {
	ctx := context.Background()
	payerID := uuid.New()
	service, _, repo := newSupplierFixture()

	repo.On("ListOutstandingForPayer", mock.Anything, payerID, settlement.KindPayable).
		Return([]*settlement.Obligation{}, nil)
	repo.On("SumOutstandingForPayer", mock.Anything, payerID, settlement.KindPayable).
		Return(valueobject.Zero(), nil)

	summary, err := service.OutstandingSummary(ctx, payerID)

	require.NoError(t, err)
	assert.Equal(t, 0, summary.ObligationCount)
	assert.Equal(t, int64(0), summary.TotalOutstanding)
}
