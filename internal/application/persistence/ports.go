package persistence

import (
	"context"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/item"
	"github.com/shopspring/decimal"
)

// StateSource is the read side of the machine that gets persisted.
type StateSource interface {
	Catalog(ctx context.Context) []item.Item
	Balance(ctx context.Context) decimal.Decimal
}

// StateTarget receives a restored state through the machine's regular operations.
type StateTarget interface {
	AddItem(ctx context.Context, it item.Item) error
	InsertMoney(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error)
}
