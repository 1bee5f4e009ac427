package payment

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Cash accumulates inserted money.
type Cash struct {
	mu      sync.Mutex
	balance decimal.Decimal
}

var _ Method = (*Cash)(nil)

func NewCash() *Cash {
	return &Cash{balance: decimal.Zero}
}

func (c *Cash) Kind() Kind { return KindCash }

func (c *Cash) Insert(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	c.mu.Lock()
	c.balance = c.balance.Add(amount)
	c.mu.Unlock()
	return nil
}

func (c *Cash) Charge(amount decimal.Decimal) bool {
	if amount.IsNegative() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.balance.LessThan(amount) {
		return false
	}
	c.balance = c.balance.Sub(amount)
	return true
}

func (c *Cash) Balance() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balance
}

func (c *Cash) ReturnChange() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	change := c.balance
	c.balance = decimal.Zero
	return change
}
