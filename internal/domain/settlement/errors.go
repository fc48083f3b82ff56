package settlement

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/retailos/backoffice/internal/domain/shared"
	"github.com/retailos/backoffice/internal/domain/shared/valueobject"
)

// Error codes for the settlement domain
const (
	CodeInvalidAmount          = "INVALID_AMOUNT"
	CodeNoOutstanding          = "NO_OUTSTANDING_OBLIGATIONS"
	CodeObligationNotFound     = "OBLIGATION_NOT_FOUND"
	CodeOverAllocation         = "OVER_ALLOCATION"
	CodeLedgerPostingFailed    = "LEDGER_POSTING_FAILED"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
)

// NewInvalidAmountError reports a non-positive or malformed payment amount
func NewInvalidAmountError(message string) *shared.DomainError {
	return shared.NewDomainError(CodeInvalidAmount, message)
}

// NewNoOutstandingError reports that the payer has nothing to allocate against
func NewNoOutstandingError(payerID uuid.UUID) *shared.DomainError {
	return shared.NewDomainError(CodeNoOutstanding,
		fmt.Sprintf("Payer %s has no outstanding obligations", payerID))
}

// NewObligationNotFoundError reports a missing or already settled obligation
func NewObligationNotFoundError(id uuid.UUID) *shared.DomainError {
	return shared.NewDomainError(CodeObligationNotFound,
		fmt.Sprintf("Obligation %s not found or already settled", id))
}

// NewOverAllocationError reports an attempt to pay past an obligation's total
func NewOverAllocationError(id uuid.UUID, amount, outstanding valueobject.Money) *shared.DomainError {
	return shared.NewDomainError(CodeOverAllocation,
		fmt.Sprintf("Allocation of %s exceeds outstanding %s on obligation %s", amount, outstanding, id))
}

// NewLedgerPostingError wraps a failure to post the settlement to the ledger
func NewLedgerPostingError(cause error) *shared.DomainError {
	return shared.NewDomainError(CodeLedgerPostingFailed,
		fmt.Sprintf("Failed to post settlement to ledger: %v", cause))
}
