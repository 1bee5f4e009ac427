package item

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseCategory(t *testing.T) {
	cases := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{"", CategoryBase, false},
		{"Beverage", CategoryBeverage, false},
		{" snack ", CategorySnack, false},
		{"base", CategoryBase, false},
		{"fruit", "", true},
	}
	for _, tc := range cases {
		got, err := ParseCategory(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrUnknownCategory) {
				t.Errorf("ParseCategory(%q): expected ErrUnknownCategory, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCategory(%q): unexpected error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseCategory(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestVariantAttributes(t *testing.T) {
	coke := NewBeverage("Coke", decimal.RequireFromString("1.50"), 10, 330)
	if ml, ok := coke.Volume(); !ok || ml != 330 {
		t.Errorf("expected volume 330, got %d (ok=%v)", ml, ok)
	}
	if _, ok := coke.Weight(); ok {
		t.Error("beverage must not report a weight")
	}

	chips := NewSnack("Chips", decimal.RequireFromString("1.80"), 12, 45)
	if g, ok := chips.Weight(); !ok || g != 45 {
		t.Errorf("expected weight 45, got %d (ok=%v)", g, ok)
	}
	if _, ok := chips.Volume(); ok {
		t.Error("snack must not report a volume")
	}

	if CategoryBeverage.AttributeName() != "volume_ml" || CategorySnack.AttributeName() != "weight_g" {
		t.Error("unexpected attribute names")
	}
	if CategoryBase.AttributeName() != "" {
		t.Error("base items carry no attribute")
	}
}

func TestValidate(t *testing.T) {
	price := decimal.RequireFromString("1.00")
	cases := []struct {
		name string
		item Item
		want error
	}{
		{"valid", New("Water", price, 1), nil},
		{"empty name", New("  ", price, 1), ErrNameRequired},
		{"negative price", New("Water", decimal.RequireFromString("-0.01"), 1), ErrInvalidPrice},
		{"negative quantity", New("Water", price, -1), ErrInvalidQuantity},
		{"negative attribute", NewSnack("Candy", price, 1, -5), ErrInvalidAttribute},
		{"unknown category", Item{Name: "X", Price: price, Category: "fruit"}, ErrUnknownCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.item.Validate()
			if tc.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
