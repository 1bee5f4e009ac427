package inventory

import (
	"errors"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/item"
)

var (
	ErrNotFound   = errors.New("inventory: item not found")
	ErrOutOfStock = errors.New("inventory: out of stock")
	// ErrStockOverflow is returned when a refill would exceed the int range.
	ErrStockOverflow = errors.New("inventory: stock overflow")
)

// Repository is the catalog store. Every operation runs under one exclusion
// domain for the whole catalog, so a lookup followed by TryDecrement by the
// same caller can only be interleaved between calls, never inside one.
type Repository interface {
	// Add inserts the item or replaces the entry with the same name.
	Add(it item.Item)
	Lookup(name string) (item.Item, bool)
	// TryDecrement removes one unit when the item exists with stock left.
	TryDecrement(name string) bool
	// Refill adds extra units to an existing item. It returns ErrNotFound for an
	// unknown name and ErrStockOverflow, leaving the stock untouched, when the
	// sum does not fit in an int.
	Refill(name string, extra int) error
	// Snapshot returns copies of all entries ordered by name.
	Snapshot() []item.Item
}
