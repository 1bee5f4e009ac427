package item

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrNameRequired     = errors.New("item: name is required")
	ErrInvalidPrice     = errors.New("item: price must be zero or greater")
	ErrInvalidQuantity  = errors.New("item: quantity must be zero or greater")
	ErrInvalidAttribute = errors.New("item: attribute must be zero or greater")
	ErrUnknownCategory  = errors.New("item: unknown category")
)

// Category tags the variant an Item belongs to.
type Category string

const (
	CategoryBase     Category = "base"
	CategoryBeverage Category = "beverage"
	CategorySnack    Category = "snack"
)

// ParseCategory accepts the category name case-insensitively. An empty string maps to CategoryBase.
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case "", CategoryBase:
		return CategoryBase, nil
	case CategoryBeverage:
		return CategoryBeverage, nil
	case CategorySnack:
		return CategorySnack, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
}

// AttributeName is the key used when the category attribute is reported externally.
func (c Category) AttributeName() string {
	switch c {
	case CategoryBeverage:
		return "volume_ml"
	case CategorySnack:
		return "weight_g"
	default:
		return ""
	}
}

// Item is a catalog entry. Name is its identity; Attribute carries the
// category-specific value (volume in ml for beverages, weight in grams for snacks).
type Item struct {
	Name      string
	Price     decimal.Decimal
	Quantity  int
	Category  Category
	Attribute int
}

func New(name string, price decimal.Decimal, quantity int) Item {
	return Item{Name: name, Price: price, Quantity: quantity, Category: CategoryBase}
}

func NewBeverage(name string, price decimal.Decimal, quantity, volumeML int) Item {
	return Item{Name: name, Price: price, Quantity: quantity, Category: CategoryBeverage, Attribute: volumeML}
}

func NewSnack(name string, price decimal.Decimal, quantity, weightG int) Item {
	return Item{Name: name, Price: price, Quantity: quantity, Category: CategorySnack, Attribute: weightG}
}

// Volume reports the beverage volume in ml; ok is false for other categories.
func (i Item) Volume() (ml int, ok bool) {
	if i.Category != CategoryBeverage {
		return 0, false
	}
	return i.Attribute, true
}

// Weight reports the snack weight in grams; ok is false for other categories.
func (i Item) Weight() (grams int, ok bool) {
	if i.Category != CategorySnack {
		return 0, false
	}
	return i.Attribute, true
}

func (i Item) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrNameRequired
	}
	if i.Price.IsNegative() {
		return ErrInvalidPrice
	}
	if i.Quantity < 0 {
		return ErrInvalidQuantity
	}
	if i.Attribute < 0 {
		return ErrInvalidAttribute
	}
	if _, err := ParseCategory(string(i.Category)); err != nil {
		return err
	}
	return nil
}
