package memory

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type seqIDs struct{ n int }

func (s *seqIDs) NewID() string {
	s.n++
	return fmt.Sprintf("tx-%d", s.n)
}

func TestTransactionLog_AppendOrder(t *testing.T) {
	log := NewTransactionLog(&seqIDs{})
	log.Append("Coke", decimal.RequireFromString("1.50"))
	log.Append("Chips", decimal.RequireFromString("1.80"))

	hist := log.History()
	if len(hist) != 2 {
		t.Fatalf("expected 2 records, got %d", len(hist))
	}
	if hist[0].ItemName != "Coke" || hist[1].ItemName != "Chips" {
		t.Errorf("unexpected order: %+v", hist)
	}
	if hist[0].ID != "tx-1" || hist[1].ID != "tx-2" {
		t.Errorf("unexpected ids: %s, %s", hist[0].ID, hist[1].ID)
	}

	hist[0].ItemName = "mutated"
	if log.History()[0].ItemName != "Coke" {
		t.Error("history must be a copy")
	}
}

func TestTransactionLog_TimestampsNeverGoBackwards(t *testing.T) {
	log := NewTransactionLog(nil)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	times := []time.Time{base, base.Add(-time.Second), base.Add(time.Second)}
	i := 0
	log.now = func() time.Time {
		ts := times[i]
		i++
		return ts
	}

	for range times {
		log.Append("Water", decimal.RequireFromString("1.00"))
	}

	hist := log.History()
	if !hist[1].Timestamp.Equal(base) {
		t.Errorf("expected clamped timestamp %v, got %v", base, hist[1].Timestamp)
	}
	if !hist[2].Timestamp.Equal(base.Add(time.Second)) {
		t.Errorf("unexpected third timestamp %v", hist[2].Timestamp)
	}
}
