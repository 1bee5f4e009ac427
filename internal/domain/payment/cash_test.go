package payment

import (
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCash_InsertRejectsNonPositive(t *testing.T) {
	c := NewCash()
	for _, amount := range []string{"0", "-1.25"} {
		if err := c.Insert(d(amount)); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Insert(%s): expected ErrInvalidAmount, got %v", amount, err)
		}
	}
	if !c.Balance().IsZero() {
		t.Errorf("expected zero balance, got %s", c.Balance())
	}
}

func TestCash_Charge(t *testing.T) {
	c := NewCash()
	if err := c.Insert(d("2.00")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if c.Charge(d("2.50")) {
		t.Fatal("charge above balance must fail")
	}
	if !c.Balance().Equal(d("2.00")) {
		t.Fatalf("failed charge mutated balance: %s", c.Balance())
	}

	if !c.Charge(d("1.50")) {
		t.Fatal("expected charge to succeed")
	}
	if !c.Balance().Equal(d("0.50")) {
		t.Fatalf("expected 0.50, got %s", c.Balance())
	}

	if c.Charge(d("-1")) {
		t.Fatal("negative charge must be refused")
	}
	if !c.Charge(d("0.50")) {
		t.Fatal("charging the exact balance must succeed")
	}
	if !c.Balance().IsZero() {
		t.Fatalf("expected zero balance, got %s", c.Balance())
	}
}

func TestCash_ReturnChangeTwice(t *testing.T) {
	c := NewCash()
	_ = c.Insert(d("1.10"))
	_ = c.Insert(d("0.20"))

	if got := c.ReturnChange(); !got.Equal(d("1.30")) {
		t.Fatalf("expected 1.30, got %s", got)
	}
	if got := c.ReturnChange(); !got.IsZero() {
		t.Fatalf("expected 0 on second call, got %s", got)
	}
}

func TestCash_ConcurrentInsertAndCharge(t *testing.T) {
	c := NewCash()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Insert(d("0.10"))
		}()
	}
	wg.Wait()

	charged := 0
	var mu sync.Mutex
	for i := 0; i < 150; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Charge(d("0.10")) {
				mu.Lock()
				charged++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if charged != 100 {
		t.Errorf("expected 100 successful charges, got %d", charged)
	}
	if !c.Balance().IsZero() {
		t.Errorf("expected zero balance, got %s", c.Balance())
	}
}
