package memory

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/inventory"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/item"
	"github.com/shopspring/decimal"
)

func TestInventoryRepository_AddReplaces(t *testing.T) {
	repo := NewInventoryRepository()
	repo.Add(item.NewBeverage("Coke", decimal.RequireFromString("1.50"), 10, 330))
	repo.Add(item.NewBeverage("Coke", decimal.RequireFromString("1.75"), 3, 500))

	got, ok := repo.Lookup("Coke")
	if !ok {
		t.Fatal("expected Coke to exist")
	}
	if got.Quantity != 3 || !got.Price.Equal(decimal.RequireFromString("1.75")) || got.Attribute != 500 {
		t.Errorf("entry was not replaced: %+v", got)
	}
	if n := len(repo.Snapshot()); n != 1 {
		t.Errorf("expected 1 entry, got %d", n)
	}
}

func TestInventoryRepository_TryDecrement(t *testing.T) {
	repo := NewInventoryRepository()
	repo.Add(item.New("Water", decimal.RequireFromString("1.00"), 1))

	if !repo.TryDecrement("Water") {
		t.Fatal("expected first decrement to succeed")
	}
	if repo.TryDecrement("Water") {
		t.Fatal("decrement at zero stock must fail")
	}
	if repo.TryDecrement("Fanta") {
		t.Fatal("decrement of unknown item must fail")
	}
	if got, _ := repo.Lookup("Water"); got.Quantity != 0 {
		t.Errorf("expected stock 0, got %d", got.Quantity)
	}
}

func TestInventoryRepository_Refill(t *testing.T) {
	repo := NewInventoryRepository()
	repo.Add(item.New("Candy", decimal.RequireFromString("0.75"), 2))

	if err := repo.Refill("Candy", 5); err != nil {
		t.Fatalf("refill Candy: %v", err)
	}
	if got, _ := repo.Lookup("Candy"); got.Quantity != 7 {
		t.Errorf("expected 7, got %d", got.Quantity)
	}
	if err := repo.Refill("Fanta", 5); !errors.Is(err, inventory.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown item, got %v", err)
	}
	if _, ok := repo.Lookup("Fanta"); ok {
		t.Fatal("refill must not create entries")
	}
}

func TestInventoryRepository_RefillRejectsOverflow(t *testing.T) {
	repo := NewInventoryRepository()
	repo.Add(item.New("Candy", decimal.RequireFromString("0.75"), 2))

	if err := repo.Refill("Candy", math.MaxInt); !errors.Is(err, inventory.ErrStockOverflow) {
		t.Fatalf("expected ErrStockOverflow, got %v", err)
	}
	if got, _ := repo.Lookup("Candy"); got.Quantity != 2 {
		t.Fatalf("stock must be untouched after a rejected refill, got %d", got.Quantity)
	}

	if err := repo.Refill("Candy", math.MaxInt-2); err != nil {
		t.Fatalf("refill up to MaxInt: %v", err)
	}
	if got, _ := repo.Lookup("Candy"); got.Quantity != math.MaxInt {
		t.Fatalf("expected MaxInt, got %d", got.Quantity)
	}
}

func TestInventoryRepository_SnapshotIsOrderedCopy(t *testing.T) {
	repo := NewInventoryRepository()
	for _, name := range []string{"Twix", "Chips", "Pepsi"} {
		repo.Add(item.New(name, decimal.RequireFromString("1.20"), 1))
	}

	snap := repo.Snapshot()
	want := []string{"Chips", "Pepsi", "Twix"}
	for i, it := range snap {
		if it.Name != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], it.Name)
		}
	}

	snap[0].Quantity = 99
	if got, _ := repo.Lookup("Chips"); got.Quantity != 1 {
		t.Error("mutating the snapshot leaked into the repository")
	}
}

func TestInventoryRepository_ConcurrentDecrementNeverOversells(t *testing.T) {
	const stock, buyers = 25, 200
	repo := NewInventoryRepository()
	repo.Add(item.New("KitKat", decimal.RequireFromString("1.20"), stock))

	var sold atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if repo.TryDecrement("KitKat") {
				sold.Add(1)
			}
		}()
	}
	wg.Wait()

	if sold.Load() != stock {
		t.Errorf("expected %d sales, got %d", stock, sold.Load())
	}
	if got, _ := repo.Lookup("KitKat"); got.Quantity != 0 {
		t.Errorf("expected stock 0, got %d", got.Quantity)
	}
}
