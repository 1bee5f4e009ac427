package inventory

import "time"

const (
	ReasonAdded     = "added"
	ReasonRefilled  = "refilled"
	ReasonPurchased = "purchased"
)

// StockChangedEvent is emitted after a catalog entry was added, refilled or sold.
type StockChangedEvent struct {
	ItemName   string
	Quantity   int
	Reason     string
	OccurredAt time.Time
}

func (StockChangedEvent) EventName() string { return "inventory.stock_changed" }

func NewStockChangedEvent(itemName string, quantity int, reason string) StockChangedEvent {
	return StockChangedEvent{
		ItemName:   itemName,
		Quantity:   quantity,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
}
