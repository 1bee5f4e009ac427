package transaction

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is one completed sale.
type Record struct {
	ID        string
	ItemName  string
	Price     decimal.Decimal
	Timestamp time.Time
}

// Log is an append-only sale history. History returns records in append order.
type Log interface {
	Append(itemName string, price decimal.Decimal) Record
	History() []Record
}
