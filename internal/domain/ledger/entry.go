package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/retailos/backoffice/internal/domain/shared"
	"github.com/retailos/backoffice/internal/domain/shared/valueobject"
)

// Direction represents the side of a double-entry posting line
type Direction string

const (
	DirectionDebit  Direction = "DEBIT"
	DirectionCredit Direction = "CREDIT"
)

// IsValid checks if the direction is valid
func (d Direction) IsValid() bool {
	return d == DirectionDebit || d == DirectionCredit
}

// AccountCode identifies a chart-of-accounts entry
type AccountCode string

const (
	AccountCashClearing       AccountCode = "CASH_CLEARING"
	AccountAccountsReceivable AccountCode = "ACCOUNTS_RECEIVABLE"
	AccountAccountsPayable    AccountCode = "ACCOUNTS_PAYABLE"
)

// IsValid checks if the account code is one of the known accounts
func (c AccountCode) IsValid() bool {
	switch c {
	case AccountCashClearing, AccountAccountsReceivable, AccountAccountsPayable:
		return true
	}
	return false
}

// AccountPair names the two accounts a settlement movement touches
type AccountPair struct {
	Debit  AccountCode
	Credit AccountCode
}

// IsValid checks both accounts are known and distinct
func (p AccountPair) IsValid() bool {
	return p.Debit.IsValid() && p.Credit.IsValid() && p.Debit != p.Credit
}

// EntryLine is a single posting line within an entry
type EntryLine struct {
	ID          uuid.UUID         `json:"id"`
	AccountCode AccountCode       `json:"account_code"`
	Direction   Direction         `json:"direction"`
	Amount      valueobject.Money `json:"amount"`
}

// Entry is the immutable header for one financial movement. An entry is
// always balanced: the sum of debit lines equals the sum of credit lines.
// How account balances are derived from entries is the ledger service's
// concern, not modeled here.
type Entry struct {
	shared.BaseEntity
	SourceType  string            `json:"source_type"`
	ReferenceID uuid.UUID         `json:"reference_id"`
	PayerID     uuid.UUID         `json:"payer_id"`
	Amount      valueobject.Money `json:"amount"`
	OccurredAt  time.Time         `json:"occurred_at"`
	Lines       []EntryLine       `json:"lines"`
}

// SourceTypeSettlement marks entries produced by the payment allocation engine
const SourceTypeSettlement = "SETTLEMENT"

// NewSettlementEntry creates a balanced two-line entry for a settlement
// movement: one debit and one credit of the same amount.
func NewSettlementEntry(payerID uuid.UUID, amount valueobject.Money, accounts AccountPair, referenceID uuid.UUID) (*Entry, error) {
	if payerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PAYER", "Payer ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Entry amount must be positive")
	}
	if !accounts.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACCOUNTS", "Debit and credit accounts must be known and distinct")
	}
	if referenceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Reference ID cannot be empty")
	}

	return &Entry{
		BaseEntity:  shared.NewBaseEntity(),
		SourceType:  SourceTypeSettlement,
		ReferenceID: referenceID,
		PayerID:     payerID,
		Amount:      amount,
		OccurredAt:  time.Now(),
		Lines: []EntryLine{
			{ID: uuid.New(), AccountCode: accounts.Debit, Direction: DirectionDebit, Amount: amount},
			{ID: uuid.New(), AccountCode: accounts.Credit, Direction: DirectionCredit, Amount: amount},
		},
	}, nil
}

// IsBalanced verifies the debit and credit sides of the entry are equal
func (e *Entry) IsBalanced() bool {
	debits := valueobject.Zero()
	credits := valueobject.Zero()
	for _, l := range e.Lines {
		switch l.Direction {
		case DirectionDebit:
			debits = debits.Add(l.Amount)
		case DirectionCredit:
			credits = credits.Add(l.Amount)
		}
	}
	return debits.Equal(credits)
}
