package settlement

import (
	"context"

	"github.com/google/uuid"

	"github.com/retailos/backoffice/internal/domain/settlement"
	"github.com/retailos/backoffice/internal/domain/shared"
	"github.com/retailos/backoffice/internal/infrastructure/telemetry"
)

// CustomerPaymentService settles customer receivables: payments
// collected from customers against their credit-sale debts.
type CustomerPaymentService struct {
	allocator      *AllocationService
	obligationRepo settlement.ObligationRepository
}

// NewCustomerPaymentService creates a new CustomerPaymentService
func NewCustomerPaymentService(allocator *AllocationService, obligationRepo settlement.ObligationRepository) *CustomerPaymentService {
	return &CustomerPaymentService{
		allocator:      allocator,
		obligationRepo: obligationRepo,
	}
}

// ReceivePayment distributes a customer's payment across their
// outstanding receivables, oldest first.
func (s *CustomerPaymentService) ReceivePayment(ctx context.Context, req AllocateRequest) (*AllocationResult, error) {
	req.Kind = settlement.KindReceivable
	return s.allocator.Allocate(ctx, req)
}

// PayObligation settles a single receivable directly
func (s *CustomerPaymentService) PayObligation(ctx context.Context, req AllocateSingleRequest) (*AllocationResult, error) {
	return s.allocator.AllocateSingle(ctx, req)
}

// CreateObligation opens a new receivable from a credit sale
func (s *CustomerPaymentService) CreateObligation(ctx context.Context, req CreateObligationRequest) (*ObligationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customer_payment", "create_obligation")
	defer span.End()

	obligation, err := settlement.NewObligation(settlement.KindReceivable, req.PayerID, req.Reference, req.Amount, req.IncurredAt)
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

// ListOutstanding returns one page of the customer's open receivables
func (s *CustomerPaymentService) ListOutstanding(ctx context.Context, payerID uuid.UUID, filter shared.Filter) (shared.Paginated[ObligationResult], error) {
	page, err := s.obligationRepo.FindByPayer(ctx, payerID, settlement.KindReceivable, filter)
	if err != nil {
		return shared.Paginated[ObligationResult]{}, err
	}

	results := make([]ObligationResult, 0, len(page.Items))
	for _, o := range page.Items {
		results = append(results, toObligationResult(o))
	}
	return shared.NewPaginated(results, page.Total, page.Page, page.PageSize), nil
}

// OutstandingSummary aggregates the customer's open receivable position
func (s *CustomerPaymentService) OutstandingSummary(ctx context.Context, payerID uuid.UUID) (*OutstandingSummaryResult, error) {
	obligations, err := s.obligationRepo.ListOutstandingForPayer(ctx, payerID, settlement.KindReceivable)
	if err != nil {
		return nil, err
	}
	total, err := s.obligationRepo.SumOutstandingForPayer(ctx, payerID, settlement.KindReceivable)
	if err != nil {
		return nil, err
	}

	return &OutstandingSummaryResult{
		PayerID:          payerID,
		Kind:             settlement.KindReceivable,
		ObligationCount:  len(obligations),
		TotalOutstanding: total.Cents(),
		Display:          total.Decimal(),
	}, nil
}
