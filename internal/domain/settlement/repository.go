package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/retailos/backoffice/internal/domain/ledger"
	"github.com/retailos/backoffice/internal/domain/shared"
	"github.com/retailos/backoffice/internal/domain/shared/valueobject"
)

// ObligationRepository is the persistence port for obligations
type ObligationRepository interface {
	Save(ctx context.Context, obligation *Obligation) error
	FindByID(ctx context.Context, id uuid.UUID) (*Obligation, error)

	// LockOutstandingForPayer loads the payer's open obligations of the
	// given kind ordered oldest first, holding row locks until the
	// surrounding transaction ends.
	LockOutstandingForPayer(ctx context.Context, payerID uuid.UUID, kind Kind) ([]*Obligation, error)

	// LockByID loads one obligation under a row lock
	LockByID(ctx context.Context, id uuid.UUID) (*Obligation, error)

	// ApplyAllocation advances paid_amount by the allocated portion,
	// guarded so the row can never be paid past its total.
	ApplyAllocation(ctx context.Context, id uuid.UUID, amount valueobject.Money) error

	ListOutstandingForPayer(ctx context.Context, payerID uuid.UUID, kind Kind) ([]*Obligation, error)

	// FindByPayer returns one page of the payer's open obligations of
	// the given kind, ordered and sliced per the filter.
	FindByPayer(ctx context.Context, payerID uuid.UUID, kind Kind, filter shared.Filter) (shared.Paginated[*Obligation], error)

	SumOutstandingForPayer(ctx context.Context, payerID uuid.UUID, kind Kind) (valueobject.Money, error)
}

// LedgerPoster posts balanced entries to the financial ledger
type LedgerPoster interface {
	Post(ctx context.Context, entry *ledger.Entry) error
}

// CreditTracker accumulates per-payer repayment statistics
type CreditTracker interface {
	RecordRepayment(ctx context.Context, payerID uuid.UUID, kind Kind, amount valueobject.Money, remainingBalance valueobject.Money, paidAt time.Time) error
}

// AuditOutcome is one obligation's share of a payment run as written
// to the audit trail.
type AuditOutcome struct {
	ObligationID uuid.UUID         `json:"obligation_id"`
	Reference    string            `json:"reference"`
	Allocated    valueobject.Money `json:"allocated"`
	PaidAfter    valueobject.Money `json:"paid_after"`
	Settled      bool              `json:"settled"`
}

// AuditEntry is one immutable line in the settlement audit trail. It
// carries the full reconciliation of the run: payment in, allocation
// out, excess, and the balance left behind, with the per-obligation
// breakdown.
type AuditEntry struct {
	ID               uuid.UUID         `json:"id"`
	SettlementID     uuid.UUID         `json:"settlement_id"`
	PayerID          uuid.UUID         `json:"payer_id"`
	Kind             Kind              `json:"kind"`
	Action           string            `json:"action"`
	PaymentAmount    valueobject.Money `json:"payment_amount"`
	TotalAllocated   valueobject.Money `json:"total_allocated"`
	ExcessPayment    valueobject.Money `json:"excess_payment"`
	RemainingBalance valueobject.Money `json:"remaining_balance"`
	Outcomes         []AuditOutcome    `json:"outcomes"`
	Detail           string            `json:"detail"`
	RecordedAt       time.Time         `json:"recorded_at"`
}

// AuditRecorder appends settlement actions to the audit trail
type AuditRecorder interface {
	Record(ctx context.Context, entry *AuditEntry) error
}

// TxRepositories bundles the ports bound to one open transaction
type TxRepositories struct {
	Obligations ObligationRepository
	Ledger      LedgerPoster
}

// TransactionManager runs a unit of work atomically: every repository
// call made through the provided TxRepositories commits or rolls back
// together.
type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos *TxRepositories) error) error
}
