package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/snapshot"
)

// Restore replays a saved state into target. It reports false when the store
// has nothing saved yet.
func Restore(ctx context.Context, repo snapshot.Repository, target StateTarget) (bool, error) {
	if repo == nil {
		return false, nil
	}
	state, err := repo.Load(ctx)
	if errors.Is(err, snapshot.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("persistence: load: %w", err)
	}

	for _, it := range state.Items {
		if err := target.AddItem(ctx, it); err != nil {
			return false, fmt.Errorf("persistence: restore item %q: %w", it.Name, err)
		}
	}
	if state.Balance.IsPositive() {
		if _, err := target.InsertMoney(ctx, state.Balance); err != nil {
			return false, fmt.Errorf("persistence: restore balance: %w", err)
		}
	}
	return true, nil
}
