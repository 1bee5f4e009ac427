package httppresentation

import (
	"time"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/item"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/transaction"
	"github.com/shopspring/decimal"
)

// Request amounts are decimal.Decimal, which accepts both JSON numbers and
// numeric strings. Responses render money as plain JSON numbers.

type itemResponse struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Category string  `json:"category"`
	VolumeML *int    `json:"volume_ml,omitempty"`
	WeightG  *int    `json:"weight_g,omitempty"`
}

func toItemResponse(it item.Item) itemResponse {
	resp := itemResponse{
		Name:     it.Name,
		Price:    it.Price.InexactFloat64(),
		Quantity: it.Quantity,
		Category: string(it.Category),
	}
	if ml, ok := it.Volume(); ok {
		resp.VolumeML = &ml
	}
	if g, ok := it.Weight(); ok {
		resp.WeightG = &g
	}
	return resp
}

type addItemRequest struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Category string          `json:"category"`
	VolumeML int             `json:"volume_ml"`
	WeightG  int             `json:"weight_g"`
}

func (r addItemRequest) toItem() (item.Item, error) {
	category, err := item.ParseCategory(r.Category)
	if err != nil {
		return item.Item{}, err
	}
	switch category {
	case item.CategoryBeverage:
		return item.NewBeverage(r.Name, r.Price, r.Quantity, r.VolumeML), nil
	case item.CategorySnack:
		return item.NewSnack(r.Name, r.Price, r.Quantity, r.WeightG), nil
	default:
		return item.New(r.Name, r.Price, r.Quantity), nil
	}
}

type refillRequest struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type refillResponse struct {
	Name     string `json:"name"`
	Found    bool   `json:"found"`
	Quantity int    `json:"quantity"`
}

type insertMoneyRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type balanceResponse struct {
	Balance float64 `json:"balance"`
}

type purchaseRequest struct {
	Item string `json:"item"`
}

type purchaseResponse struct {
	TransactionID string    `json:"transaction_id"`
	Item          string    `json:"item"`
	Price         float64   `json:"price"`
	Timestamp     time.Time `json:"timestamp"`
	Balance       float64   `json:"balance"`
}

type returnChangeResponse struct {
	Change  float64 `json:"change"`
	Balance float64 `json:"balance"`
}

type transactionResponse struct {
	ID        string    `json:"id"`
	Item      string    `json:"item"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

func toTransactionResponse(r transaction.Record) transactionResponse {
	return transactionResponse{
		ID:        r.ID,
		Item:      r.ItemName,
		Price:     r.Price.InexactFloat64(),
		Timestamp: r.Timestamp,
	}
}
