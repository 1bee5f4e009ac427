package memory

import (
	"sync"
	"time"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/transaction"
	"github.com/shopspring/decimal"
)

type IDGenerator interface {
	NewID() string
}

// TransactionLog is an unbounded append-only sale history.
type TransactionLog struct {
	mu      sync.Mutex
	records []transaction.Record
	ids     IDGenerator
	now     func() time.Time
}

var _ transaction.Log = (*TransactionLog)(nil)

func NewTransactionLog(ids IDGenerator) *TransactionLog {
	return &TransactionLog{
		ids: ids,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (l *TransactionLog) Append(itemName string, price decimal.Decimal) transaction.Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.now()
	// Timestamps never go backwards relative to append order.
	if n := len(l.records); n > 0 && ts.Before(l.records[n-1].Timestamp) {
		ts = l.records[n-1].Timestamp
	}

	rec := transaction.Record{
		ItemName:  itemName,
		Price:     price,
		Timestamp: ts,
	}
	if l.ids != nil {
		rec.ID = l.ids.NewID()
	}
	l.records = append(l.records, rec)
	return rec
}

func (l *TransactionLog) History() []transaction.Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]transaction.Record, len(l.records))
	copy(out, l.records)
	return out
}
