package settlement

import (
	"sort"

	"github.com/google/uuid"

	"github.com/retailos/backoffice/internal/domain/shared/valueobject"
)

// Outcome is one obligation's share of an allocation run
type Outcome struct {
	ObligationID uuid.UUID         `json:"obligation_id"`
	Reference    string            `json:"reference"`
	Allocated    valueobject.Money `json:"allocated"`
	PaidBefore   valueobject.Money `json:"paid_before"`
	PaidAfter    valueobject.Money `json:"paid_after"`
	Settled      bool              `json:"settled"`
}

// Computation is the full result of distributing a payment. The amounts
// always conserve: TotalAllocated + ExcessPayment equals the payment.
type Computation struct {
	Outcomes       []Outcome         `json:"outcomes"`
	TotalAllocated valueobject.Money `json:"total_allocated"`
	ExcessPayment  valueobject.Money `json:"excess_payment"`
}

// AllocationCalculator distributes a payment across outstanding
// obligations. It is pure: no storage, no clocks, no side effects, so
// the same inputs always yield the same distribution.
type AllocationCalculator struct{}

// NewAllocationCalculator creates an allocation calculator
func NewAllocationCalculator() *AllocationCalculator {
	return &AllocationCalculator{}
}

// Compute distributes amount across the outstanding obligations,
// oldest first. If selectedIDs is non-empty, only those obligations
// are eligible; unknown or already settled selections are skipped.
// Each eligible obligation absorbs up to its outstanding remainder and
// whatever the payment cannot cover is reported as ExcessPayment.
func (c *AllocationCalculator) Compute(obligations []*Obligation, amount valueobject.Money, selectedIDs []uuid.UUID) (*Computation, error) {
	if !amount.IsPositive() {
		return nil, NewInvalidAmountError("Payment amount must be positive")
	}

	eligible := c.eligible(obligations, selectedIDs)
	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].IncurredAt.Equal(eligible[j].IncurredAt) {
			return eligible[i].ID.String() < eligible[j].ID.String()
		}
		return eligible[i].IncurredAt.Before(eligible[j].IncurredAt)
	})

	remaining := amount
	outcomes := make([]Outcome, 0, len(eligible))
	total := valueobject.Zero()

	for _, o := range eligible {
		if !remaining.IsPositive() {
			break
		}
		portion := valueobject.Min(remaining, o.Outstanding())
		paidAfter := o.PaidAmount.Add(portion)
		outcomes = append(outcomes, Outcome{
			ObligationID: o.ID,
			Reference:    o.DisplayReference(),
			Allocated:    portion,
			PaidBefore:   o.PaidAmount,
			PaidAfter:    paidAfter,
			Settled:      paidAfter.GreaterThanOrEqual(o.TotalAmount),
		})
		remaining = remaining.Sub(portion)
		total = total.Add(portion)
	}

	return &Computation{
		Outcomes:       outcomes,
		TotalAllocated: total,
		ExcessPayment:  remaining,
	}, nil
}

// eligible filters to obligations that still carry an outstanding
// balance, restricted to selectedIDs when a selection was given.
func (c *AllocationCalculator) eligible(obligations []*Obligation, selectedIDs []uuid.UUID) []*Obligation {
	var selected map[uuid.UUID]struct{}
	if len(selectedIDs) > 0 {
		selected = make(map[uuid.UUID]struct{}, len(selectedIDs))
		for _, id := range selectedIDs {
			selected[id] = struct{}{}
		}
	}

	out := make([]*Obligation, 0, len(obligations))
	for _, o := range obligations {
		if !o.Outstanding().IsPositive() {
			continue
		}
		if selected != nil {
			if _, ok := selected[o.ID]; !ok {
				continue
			}
		}
		out = append(out, o)
	}
	return out
}
