package vending

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/item"
	"github.com/shopspring/decimal"
)

func mustPrice(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// DefaultCatalog is the stock a fresh machine is loaded with.
func DefaultCatalog() []item.Item {
	return []item.Item{
		item.NewBeverage("Coke", mustPrice("1.50"), 10, 330),
		item.NewBeverage("Pepsi", mustPrice("1.20"), 8, 330),
		item.NewBeverage("Water", mustPrice("1.00"), 15, 500),
		item.NewBeverage("Sprite", mustPrice("1.50"), 10, 330),
		item.NewBeverage("Fanta", mustPrice("1.50"), 10, 330),
		item.NewBeverage("Mountain Dew", mustPrice("1.20"), 8, 355),
		item.NewSnack("Chips", mustPrice("1.80"), 12, 45),
		item.NewSnack("Candy", mustPrice("1.00"), 20, 30),
		item.NewSnack("Doritos", mustPrice("1.80"), 12, 50),
		item.NewSnack("Snickers", mustPrice("1.20"), 15, 50),
		item.NewSnack("Twix", mustPrice("1.20"), 15, 50),
		item.NewSnack("KitKat", mustPrice("1.20"), 15, 45),
	}
}

// Seed adds every item of DefaultCatalog through AddItem.
func (m *Machine) Seed(ctx context.Context) error {
	for _, it := range DefaultCatalog() {
		if err := m.AddItem(ctx, it); err != nil {
			return fmt.Errorf("seed %q: %w", it.Name, err)
		}
	}
	return nil
}
