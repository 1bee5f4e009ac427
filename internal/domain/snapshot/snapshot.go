package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/item"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("snapshot: no saved state")

// State is the restorable part of a machine: its catalog and held balance.
type State struct {
	Items   []item.Item
	Balance decimal.Decimal
	SavedAt time.Time
}

type Repository interface {
	Save(ctx context.Context, s State) error
	// Load returns ErrNotFound when nothing was saved yet.
	Load(ctx context.Context) (State, error)
}
