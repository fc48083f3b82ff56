package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retailos/backoffice/internal/domain/ledger"
	"github.com/retailos/backoffice/internal/domain/settlement"
	"github.com/retailos/backoffice/internal/domain/shared/valueobject"
	"github.com/retailos/backoffice/internal/infrastructure/telemetry"
)

// AllocationService distributes lump payments across a payer's
// outstanding obligations. Obligation updates and ledger postings
// happen in one transaction; credit tracking and the audit trail are
// recorded after commit and never fail a settlement.
type AllocationService struct {
	txManager     settlement.TransactionManager
	calculator    *settlement.AllocationCalculator
	creditTracker settlement.CreditTracker
	auditRecorder settlement.AuditRecorder
	logger        *zap.Logger
}

// AllocationServiceOption configures an AllocationService
type AllocationServiceOption func(*AllocationService)

// WithCreditTracker enables per-payer repayment statistics
func WithCreditTracker(tracker settlement.CreditTracker) AllocationServiceOption {
	return func(s *AllocationService) {
		s.creditTracker = tracker
	}
}

// WithAuditRecorder enables the settlement audit trail
func WithAuditRecorder(recorder settlement.AuditRecorder) AllocationServiceOption {
	return func(s *AllocationService) {
		s.auditRecorder = recorder
	}
}

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) AllocationServiceOption {
	return func(s *AllocationService) {
		s.logger = logger
	}
}

// NewAllocationService creates a new AllocationService
func NewAllocationService(txManager settlement.TransactionManager, opts ...AllocationServiceOption) *AllocationService {
	s := &AllocationService{
		txManager:  txManager,
		calculator: settlement.NewAllocationCalculator(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// accountsFor maps an obligation kind to the ledger accounts a
// settlement of that kind moves money between. Collecting a receivable
// debits the cash clearing account; settling a payable debits the
// payables account.
func accountsFor(kind settlement.Kind) ledger.AccountPair {
	if kind == settlement.KindPayable {
		return ledger.AccountPair{
			Debit:  ledger.AccountAccountsPayable,
			Credit: ledger.AccountCashClearing,
		}
	}
	return ledger.AccountPair{
		Debit:  ledger.AccountCashClearing,
		Credit: ledger.AccountAccountsReceivable,
	}
}

// Allocate distributes req.Amount across the payer's outstanding
// obligations, oldest first, inside one row-locked transaction.
func (s *AllocationService) Allocate(ctx context.Context, req AllocateRequest) (*AllocationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "allocate",
		telemetry.WithAttribute(telemetry.SpanAttrPayerID, req.PayerID.String()),
	)
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrKind, string(req.Kind),
		telemetry.SpanAttrAmount, req.Amount.Cents(),
	)
	if req.PaymentMethod != "" {
		telemetry.SetAttribute(span, telemetry.SpanAttrPaymentMethod, req.PaymentMethod)
	}

	if !req.Amount.IsPositive() {
		err := settlement.NewInvalidAmountError("Payment amount must be positive")
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !req.Kind.IsValid() {
		err := settlement.NewInvalidAmountError("Obligation kind must be RECEIVABLE or PAYABLE")
		telemetry.RecordError(span, err)
		return nil, err
	}

	settlementID := uuid.New()
	var result *AllocationResult

	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context, repos *settlement.TxRepositories) error {
		obligations, err := repos.Obligations.LockOutstandingForPayer(txCtx, req.PayerID, req.Kind)
		if err != nil {
			return fmt.Errorf("failed to lock outstanding obligations: %w", err)
		}

		computation, err := s.calculator.Compute(obligations, req.Amount, req.SelectedIDs)
		if err != nil {
			return err
		}
		if len(computation.Outcomes) == 0 {
			return settlement.NewNoOutstandingError(req.PayerID)
		}

		for _, outcome := range computation.Outcomes {
			if err := repos.Obligations.ApplyAllocation(txCtx, outcome.ObligationID, outcome.Allocated); err != nil {
				return err
			}
		}

		entry, err := ledger.NewSettlementEntry(req.PayerID, computation.TotalAllocated, accountsFor(req.Kind), settlementID)
		if err != nil {
			return err
		}
		if err := repos.Ledger.Post(txCtx, entry); err != nil {
			return settlement.NewLedgerPostingError(err)
		}
		telemetry.AddEvent(span, "ledger.posted",
			telemetry.SpanAttrAmount, computation.TotalAllocated.Cents(),
		)

		remaining, err := repos.Obligations.SumOutstandingForPayer(txCtx, req.PayerID, req.Kind)
		if err != nil {
			return fmt.Errorf("failed to compute remaining balance: %w", err)
		}

		result = s.buildResult(settlementID, req.PayerID, req.Kind, computation, remaining)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrSettlementID, settlementID.String(),
		telemetry.SpanAttrAllocated, result.TotalAllocated,
		telemetry.SpanAttrExcess, result.ExcessPayment,
		telemetry.SpanAttrOutcomeCount, len(result.Outcomes),
	)
	telemetry.SetOK(span)

	s.recordSideEffects(ctx, req.PayerID, req.Kind, result, req.Note)

	s.logger.Info("Settlement completed",
		zap.String("settlement_id", settlementID.String()),
		zap.String("payer_id", req.PayerID.String()),
		zap.String("kind", string(req.Kind)),
		zap.Int64("total_allocated", result.TotalAllocated),
		zap.Int64("excess_payment", result.ExcessPayment),
		zap.Int("outcomes", len(result.Outcomes)),
	)

	return result, nil
}

// AllocateSingle pays one obligation directly. A zero amount settles
// the full outstanding remainder.
func (s *AllocationService) AllocateSingle(ctx context.Context, req AllocateSingleRequest) (*AllocationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "allocate_single")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrObligationID, req.ObligationID.String(),
		telemetry.SpanAttrAmount, req.Amount.Cents(),
	)

	if req.Amount.IsNegative() {
		err := settlement.NewInvalidAmountError("Payment amount must be positive")
		telemetry.RecordError(span, err)
		return nil, err
	}

	settlementID := uuid.New()
	var result *AllocationResult
	var payerID uuid.UUID
	var kind settlement.Kind

	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context, repos *settlement.TxRepositories) error {
		obligation, err := repos.Obligations.LockByID(txCtx, req.ObligationID)
		if err != nil {
			return err
		}
		if obligation == nil || obligation.IsSettled() {
			return settlement.NewObligationNotFoundError(req.ObligationID)
		}
		payerID = obligation.PayerID
		kind = obligation.Kind

		amount := req.Amount
		if amount.IsZero() {
			amount = obligation.Outstanding()
		}

		computation, err := s.calculator.Compute([]*settlement.Obligation{obligation}, amount, []uuid.UUID{obligation.ID})
		if err != nil {
			return err
		}
		if computation.ExcessPayment.IsPositive() {
			return settlement.NewOverAllocationError(obligation.ID, amount, obligation.Outstanding())
		}

		if err := repos.Obligations.ApplyAllocation(txCtx, obligation.ID, computation.TotalAllocated); err != nil {
			return err
		}

		entry, err := ledger.NewSettlementEntry(obligation.PayerID, computation.TotalAllocated, accountsFor(obligation.Kind), settlementID)
		if err != nil {
			return err
		}
		if err := repos.Ledger.Post(txCtx, entry); err != nil {
			return settlement.NewLedgerPostingError(err)
		}

		remaining, err := repos.Obligations.SumOutstandingForPayer(txCtx, obligation.PayerID, obligation.Kind)
		if err != nil {
			return fmt.Errorf("failed to compute remaining balance: %w", err)
		}

		result = s.buildResult(settlementID, obligation.PayerID, obligation.Kind, computation, remaining)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrSettlementID, settlementID.String(),
		telemetry.SpanAttrPayerID, payerID.String(),
		telemetry.SpanAttrKind, string(kind),
	)
	telemetry.SetOK(span)

	s.recordSideEffects(ctx, payerID, kind, result, req.Note)

	s.logger.Info("Single obligation settled",
		zap.String("settlement_id", settlementID.String()),
		zap.String("obligation_id", req.ObligationID.String()),
		zap.Int64("total_allocated", result.TotalAllocated),
	)

	return result, nil
}

func (s *AllocationService) buildResult(settlementID, payerID uuid.UUID, kind settlement.Kind, computation *settlement.Computation, remaining valueobject.Money) *AllocationResult {
	outcomes := make([]OutcomeResult, 0, len(computation.Outcomes))
	for _, o := range computation.Outcomes {
		status := settlement.StatusPartiallyPaid
		if o.Settled {
			status = settlement.StatusPaid
		}
		outcomes = append(outcomes, OutcomeResult{
			ObligationID: o.ObligationID,
			Reference:    o.Reference,
			Allocated:    o.Allocated.Cents(),
			PaidAfter:    o.PaidAfter.Cents(),
			Status:       string(status),
			Display:      o.Allocated.Decimal(),
		})
	}

	return &AllocationResult{
		SettlementID:     settlementID,
		PayerID:          payerID,
		Kind:             kind,
		Outcomes:         outcomes,
		TotalAllocated:   computation.TotalAllocated.Cents(),
		ExcessPayment:    computation.ExcessPayment.Cents(),
		RemainingBalance: remaining.Cents(),
		CompletedAt:      time.Now(),
	}
}

// recordSideEffects updates credit statistics and the audit trail for
// a committed settlement. Failures here are logged, never returned:
// the money has already moved.
func (s *AllocationService) recordSideEffects(ctx context.Context, payerID uuid.UUID, kind settlement.Kind, result *AllocationResult, note string) {
	if s.creditTracker != nil {
		err := s.creditTracker.RecordRepayment(ctx, payerID, kind,
			valueobject.NewMoney(result.TotalAllocated),
			valueobject.NewMoney(result.RemainingBalance),
			result.CompletedAt,
		)
		if err != nil {
			s.logger.Warn("Failed to record credit statistics",
				zap.String("settlement_id", result.SettlementID.String()),
				zap.String("payer_id", payerID.String()),
				zap.Error(err),
			)
		}
	}

	if s.auditRecorder != nil {
		detail := fmt.Sprintf("Allocated across %d obligation(s)", len(result.Outcomes))
		if note != "" {
			detail = fmt.Sprintf("%s: %s", detail, note)
		}
		outcomes := make([]settlement.AuditOutcome, 0, len(result.Outcomes))
		for _, o := range result.Outcomes {
			outcomes = append(outcomes, settlement.AuditOutcome{
				ObligationID: o.ObligationID,
				Reference:    o.Reference,
				Allocated:    valueobject.NewMoney(o.Allocated),
				PaidAfter:    valueobject.NewMoney(o.PaidAfter),
				Settled:      o.Status == string(settlement.StatusPaid),
			})
		}
		err := s.auditRecorder.Record(ctx, &settlement.AuditEntry{
			ID:               uuid.New(),
			SettlementID:     result.SettlementID,
			PayerID:          payerID,
			Kind:             kind,
			Action:           "settlement.allocate",
			PaymentAmount:    valueobject.NewMoney(result.TotalAllocated + result.ExcessPayment),
			TotalAllocated:   valueobject.NewMoney(result.TotalAllocated),
			ExcessPayment:    valueobject.NewMoney(result.ExcessPayment),
			RemainingBalance: valueobject.NewMoney(result.RemainingBalance),
			Outcomes:         outcomes,
			Detail:           detail,
			RecordedAt:       result.CompletedAt,
		})
		if err != nil {
			s.logger.Warn("Failed to record audit entry",
				zap.String("settlement_id", result.SettlementID.String()),
				zap.Error(err),
			)
		}
	}
}
