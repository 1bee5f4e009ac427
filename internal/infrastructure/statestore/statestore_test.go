package statestore

import (
	"context"
	"testing"
	"time"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/item"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/snapshot"
	"github.com/shopspring/decimal"
)

func sampleState() snapshot.State {
	return snapshot.State{
		Items: []item.Item{
			item.NewSnack("Chips", decimal.RequireFromString("1.80"), 12, 45),
			item.NewBeverage("Coke", decimal.RequireFromString("1.50"), 0, 330),
			item.New("Gum", decimal.RequireFromString("0.10"), 3),
		},
		Balance: decimal.RequireFromString("3.35"),
		SavedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func assertSameState(t *testing.T, want, got snapshot.State) {
	t.Helper()
	if !got.Balance.Equal(want.Balance) {
		t.Errorf("balance: want %s, got %s", want.Balance, got.Balance)
	}
	if !got.SavedAt.Equal(want.SavedAt) {
		t.Errorf("saved_at: want %s, got %s", want.SavedAt, got.SavedAt)
	}
	if len(got.Items) != len(want.Items) {
		t.Fatalf("items: want %d, got %d", len(want.Items), len(got.Items))
	}
	for i := range want.Items {
		w, g := want.Items[i], got.Items[i]
		if w.Name != g.Name || !w.Price.Equal(g.Price) || w.Quantity != g.Quantity ||
			w.Category != g.Category || w.Attribute != g.Attribute {
			t.Errorf("item %d: want %+v, got %+v", i, w, g)
		}
	}
}

func TestDecodeState_RejectsUnknownVersion(t *testing.T) {
	if _, err := decodeState([]byte(`{"version":99,"items":[],"balance":"0"}`)); err == nil {
		t.Fatal("expected version error")
	}
}

func TestDecodeState_RejectsUnknownCategory(t *testing.T) {
	doc := `{"version":1,"items":[{"name":"Apple","price":"1","quantity":1,"category":"fruit"}],"balance":"0"}`
	if _, err := decodeState([]byte(doc)); err == nil {
		t.Fatal("expected category error")
	}
}

func TestEncodeState_KeepsPriceExact(t *testing.T) {
	b, err := encodeState(sampleState())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := decodeState(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	assertSameState(t, sampleState(), got)
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(t.TempDir() + "/nested/state.json")

	if _, err := store.Load(ctx); err != snapshot.ErrNotFound {
		t.Fatalf("expected ErrNotFound before first save, got %v", err)
	}

	if err := store.Save(ctx, sampleState()); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assertSameState(t, sampleState(), got)

	next := sampleState()
	next.Items = next.Items[:1]
	next.Balance = decimal.Zero
	if err := store.Save(ctx, next); err != nil {
		t.Fatalf("second save: %v", err)
	}
	got, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	assertSameState(t, next, got)
}

func TestFileStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewFileStore(t.TempDir() + "/state.json").Save(ctx, sampleState()); err == nil {
		t.Fatal("expected error for canceled context")
	}
}
