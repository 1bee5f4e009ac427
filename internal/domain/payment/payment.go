package payment

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount     = errors.New("payment: amount must be greater than zero")
	ErrInsufficientFunds = errors.New("payment: insufficient funds")
)

type Kind string

const KindCash Kind = "cash"

// Method is a balance that can be topped up, charged and paid out.
// Implementations guard their balance with their own lock.
type Method interface {
	Kind() Kind
	// Insert adds a positive amount to the balance.
	Insert(amount decimal.Decimal) error
	// Charge subtracts amount when the balance covers it. The balance is
	// left untouched when it reports false.
	Charge(amount decimal.Decimal) bool
	Balance() decimal.Decimal
	// ReturnChange pays out the whole balance and resets it to zero.
	ReturnChange() decimal.Decimal
}
