package memory

import (
	"math"
	"sort"
	"sync"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/inventory"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/item"
)

// InventoryRepository keeps the catalog in memory behind a single mutex.
type InventoryRepository struct {
	mu    sync.Mutex
	items map[string]item.Item
}

var _ inventory.Repository = (*InventoryRepository)(nil)

func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{
		items: make(map[string]item.Item),
	}
}

func (r *InventoryRepository) Add(it item.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[it.Name] = it
}

func (r *InventoryRepository) Lookup(name string) (item.Item, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[name]
	return it, ok
}

func (r *InventoryRepository) TryDecrement(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[name]
	if !ok || it.Quantity <= 0 {
		return false
	}
	it.Quantity--
	r.items[name] = it
	return true
}

func (r *InventoryRepository) Refill(name string, extra int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[name]
	if !ok {
		return inventory.ErrNotFound
	}
	if (extra > 0 && it.Quantity > math.MaxInt-extra) || (extra < 0 && it.Quantity < math.MinInt-extra) {
		return inventory.ErrStockOverflow
	}
	it.Quantity += extra
	r.items[name] = it
	return nil
}

func (r *InventoryRepository) Snapshot() []item.Item {
	r.mu.Lock()
	out := make([]item.Item, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, it)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
