package statestore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/item"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/snapshot"
	"github.com/shopspring/decimal"
)

const formatVersion = 1

// stateDoc is the JSON layout shared by the file and redis stores.
// decimal.Decimal marshals as a quoted string, so prices round-trip exactly.
type stateDoc struct {
	Version int             `json:"version"`
	Items   []itemDoc       `json:"items"`
	Balance decimal.Decimal `json:"balance"`
	SavedAt time.Time       `json:"saved_at"`
}

type itemDoc struct {
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Category  string          `json:"category"`
	Attribute int             `json:"attribute,omitempty"`
}

func encodeState(s snapshot.State) ([]byte, error) {
	doc := stateDoc{
		Version: formatVersion,
		Items:   make([]itemDoc, 0, len(s.Items)),
		Balance: s.Balance,
		SavedAt: s.SavedAt,
	}
	for _, it := range s.Items {
		doc.Items = append(doc.Items, itemDoc{
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Category:  string(it.Category),
			Attribute: it.Attribute,
		})
	}
	return json.Marshal(doc)
}

func decodeState(b []byte) (snapshot.State, error) {
	var doc stateDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return snapshot.State{}, fmt.Errorf("decode state: %w", err)
	}
	if doc.Version != formatVersion {
		return snapshot.State{}, fmt.Errorf("decode state: unsupported version %d", doc.Version)
	}

	s := snapshot.State{
		Items:   make([]item.Item, 0, len(doc.Items)),
		Balance: doc.Balance,
		SavedAt: doc.SavedAt,
	}
	for _, d := range doc.Items {
		cat, err := item.ParseCategory(d.Category)
		if err != nil {
			return snapshot.State{}, fmt.Errorf("decode state: item %q: %w", d.Name, err)
		}
		s.Items = append(s.Items, item.Item{
			Name:      d.Name,
			Price:     d.Price,
			Quantity:  d.Quantity,
			Category:  cat,
			Attribute: d.Attribute,
		})
	}
	return s, nil
}
