package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// minorUnitExponent is the number of decimal places carried by the minor
// currency unit (cents).
const minorUnitExponent = 2

// Money is a value object representing a monetary amount in integer minor
// currency units (cents). Using integers keeps allocation arithmetic exact.
// It is immutable - all operations return new Money instances.
type Money struct {
	cents int64
}

// NewMoney creates Money from an amount in minor units (cents)
func NewMoney(cents int64) Money {
	return Money{cents: cents}
}

// Zero returns a zero-value Money
func Zero() Money {
	return Money{}
}

// NewMoneyFromDecimal creates Money from a decimal major-unit amount.
// Returns an error if the amount has more precision than the minor unit.
func NewMoneyFromDecimal(amount decimal.Decimal) (Money, error) {
	scaled := amount.Shift(minorUnitExponent)
	if !scaled.IsInteger() {
		return Money{}, fmt.Errorf("amount %s has sub-cent precision", amount)
	}
	return Money{cents: scaled.IntPart()}, nil
}

// NewMoneyFromString creates Money from a major-unit string such as "12.50"
func NewMoneyFromString(amount string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return NewMoneyFromDecimal(d)
}

// Cents returns the amount in minor units
func (m Money) Cents() int64 {
	return m.cents
}

// Decimal returns the amount in major units for display and reporting
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.cents, -minorUnitExponent)
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.cents == 0
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.cents > 0
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.cents < 0
}

// Add returns a new Money with the sum of both amounts
func (m Money) Add(other Money) Money {
	return Money{cents: m.cents + other.cents}
}

// Sub returns a new Money with the difference of both amounts
func (m Money) Sub(other Money) Money {
	return Money{cents: m.cents - other.cents}
}

// Min returns the smaller of the two amounts
func Min(a, b Money) Money {
	if a.cents < b.cents {
		return a
	}
	return b
}

// LessThan returns true if m < other
func (m Money) LessThan(other Money) bool {
	return m.cents < other.cents
}

// LessThanOrEqual returns true if m <= other
func (m Money) LessThanOrEqual(other Money) bool {
	return m.cents <= other.cents
}

// GreaterThan returns true if m > other
func (m Money) GreaterThan(other Money) bool {
	return m.cents > other.cents
}

// GreaterThanOrEqual returns true if m >= other
func (m Money) GreaterThanOrEqual(other Money) bool {
	return m.cents >= other.cents
}

// Equal returns true if both amounts are equal
func (m Money) Equal(other Money) bool {
	return m.cents == other.cents
}

// String returns the major-unit representation, e.g. "12.50"
func (m Money) String() string {
	return m.Decimal().StringFixed(minorUnitExponent)
}

// MarshalJSON serializes Money as its minor-unit integer value
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.cents)
}

// UnmarshalJSON deserializes Money from a minor-unit integer value
func (m *Money) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &m.cents)
}

// Value implements driver.Valuer so Money is stored as BIGINT
func (m Money) Value() (driver.Value, error) {
	return m.cents, nil
}

// Scan implements sql.Scanner to read Money from a BIGINT column
func (m *Money) Scan(value interface{}) error {
	if value == nil {
		m.cents = 0
		return nil
	}
	switch v := value.(type) {
	case int64:
		m.cents = v
		return nil
	case int:
		m.cents = int64(v)
		return nil
	default:
		return errors.New("failed to scan Money: unsupported type")
	}
}
