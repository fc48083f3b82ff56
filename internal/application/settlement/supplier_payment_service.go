package settlement

import (
	"context"

	"github.com/google/uuid"

	"github.com/retailos/backoffice/internal/domain/settlement"
	"github.com/retailos/backoffice/internal/domain/shared"
	"github.com/retailos/backoffice/internal/infrastructure/telemetry"
)

// SupplierPaymentService settles supplier payables: payments the
// business makes against debts from credit purchases.
type SupplierPaymentService struct {
	allocator      *AllocationService
	obligationRepo settlement.ObligationRepository
}

// NewSupplierPaymentService creates a new SupplierPaymentService
func NewSupplierPaymentService(allocator *AllocationService, obligationRepo settlement.ObligationRepository) *SupplierPaymentService {
	return &SupplierPaymentService{
		allocator:      allocator,
		obligationRepo: obligationRepo,
	}
}

// MakePayment distributes a payment to a supplier across the
// outstanding payables owed to them, oldest first.
func (s *SupplierPaymentService) MakePayment(ctx context.Context, req AllocateRequest) (*AllocationResult, error) {
	req.Kind = settlement.KindPayable
	return s.allocator.Allocate(ctx, req)
}

// PayObligation settles a single payable directly
func (s *SupplierPaymentService) PayObligation(ctx context.Context, req AllocateSingleRequest) (*AllocationResult, error) {
	return s.allocator.AllocateSingle(ctx, req)
}

// CreateObligation opens a new payable from a credit purchase
func (s *SupplierPaymentService) CreateObligation(ctx context.Context, req CreateObligationRequest) (*ObligationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "supplier_payment", "create_obligation")
	defer span.End()

	obligation, err := settlement.NewObligation(settlement.KindPayable, req.PayerID, req.Reference, req.Amount, req.IncurredAt)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	obligation.Note = req.Note
	obligation.SourceID = req.SourceID

	if err := s.obligationRepo.Save(ctx, obligation); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result := toObligationResult(obligation)
	return &result, nil
}

// ListOutstanding returns one page of the open payables owed to a supplier
func (s *SupplierPaymentService) ListOutstanding(ctx context.Context, payerID uuid.UUID, filter shared.Filter) (shared.Paginated[ObligationResult], error) {
	page, err := s.obligationRepo.FindByPayer(ctx, payerID, settlement.KindPayable, filter)
	if err != nil {
		return shared.Paginated[ObligationResult]{}, err
	}

	results := make([]ObligationResult, 0, len(page.Items))
	for _, o := range page.Items {
		results = append(results, toObligationResult(o))
	}
	return shared.NewPaginated(results, page.Total, page.Page, page.PageSize), nil
}

// OutstandingSummary aggregates the open payable position for a supplier
func (s *SupplierPaymentService) OutstandingSummary(ctx context.Context, payerID uuid.UUID) (*OutstandingSummaryResult, error) {
	obligations, err := s.obligationRepo.ListOutstandingForPayer(ctx, payerID, settlement.KindPayable)
	if err != nil {
		return nil, err
	}
	total, err := s.obligationRepo.SumOutstandingForPayer(ctx, payerID, settlement.KindPayable)
	if err != nil {
		return nil, err
	}

	return &OutstandingSummaryResult{
		PayerID:          payerID,
		Kind:             settlement.KindPayable,
		ObligationCount:  len(obligations),
		TotalOutstanding: total.Cents(),
		Display:          total.Decimal(),
	}, nil
}
