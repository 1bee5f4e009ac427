package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ReasonInserted = "inserted"
	ReasonCharged  = "charged"
	ReasonReturned = "returned"
)

// BalanceChangedEvent is emitted after money was inserted, charged for a sale or paid out.
type BalanceChangedEvent struct {
	Balance    decimal.Decimal
	Delta      decimal.Decimal
	Reason     string
	OccurredAt time.Time
}

func (BalanceChangedEvent) EventName() string { return "payment.balance_changed" }

func NewBalanceChangedEvent(balance, delta decimal.Decimal, reason string) BalanceChangedEvent {
	return BalanceChangedEvent{
		Balance:    balance,
		Delta:      delta,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
}
