package vending

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/inventory"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/item"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/outbox"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/payment"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/transaction"
	"github.com/Zhima-Mochi/vending-machine/internal/observability"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

const (
	machineService = "vending-machine"
	spanPrefix     = "UC."
	publishPeer    = "outbox"
	publishTimeout = 300 * time.Millisecond

	useCaseInsertMoney  = "vending.insert_money"
	useCaseReturnChange = "vending.return_change"
	useCasePurchase     = "vending.purchase"
	useCaseAddItem      = "vending.add_item"
	useCaseRefillItem   = "vending.refill_item"
)

var (
	ErrItemNotFound      = inventory.ErrNotFound
	ErrOutOfStock        = inventory.ErrOutOfStock
	ErrInsufficientFunds = payment.ErrInsufficientFunds
	ErrInvalidAmount     = payment.ErrInvalidAmount
	ErrInvalidItem       = errors.New("vending: invalid item")
	ErrInvalidQuantity   = errors.New("vending: refill quantity must be zero or greater")
)

// PurchaseResult is returned for a completed sale.
type PurchaseResult struct {
	Record  transaction.Record
	Balance decimal.Decimal
}

// Machine coordinates one inventory, one payment method and one transaction
// log. It holds no state of its own; each collaborator guards itself, and
// Purchase compensates instead of locking more than one of them at a time.
type Machine struct {
	inv       inventory.Repository
	pay       payment.Method
	txlog     transaction.Log
	publisher outbox.Publisher

	log    observability.Logger
	tracer observability.Tracer

	reqCounter    observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram  observability.Histogram // usecase_duration_seconds{use_case}
	extCounter    observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram  observability.Histogram // external_request_duration_seconds{peer,endpoint}
	compensations observability.Counter   // vending_purchase_compensations_total{item}
}

// NewMachine takes ownership of the collaborators. publisher and tel may be nil.
func NewMachine(
	inv inventory.Repository,
	pay payment.Method,
	txlog transaction.Log,
	publisher outbox.Publisher,
	tel observability.Observability,
) *Machine {
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()

	return &Machine{
		inv:           inv,
		pay:           pay,
		txlog:         txlog,
		publisher:     publisher,
		log:           tel.Logger().With(observability.F("service", machineService)),
		tracer:        tel.Tracer(),
		reqCounter:    metrics.Counter(observability.MUsecaseRequests),
		durHistogram:  metrics.Histogram(observability.MUsecaseDuration),
		extCounter:    metrics.Counter(observability.MExternalRequests),
		extHistogram:  metrics.Histogram(observability.MExternalRequestDuration),
		compensations: metrics.Counter(observability.MPurchaseCompensations),
	}
}

// InsertMoney adds a positive amount to the balance and returns the new balance.
func (m *Machine) InsertMoney(ctx context.Context, amount decimal.Decimal) (_ decimal.Decimal, err error) {
	ctx, op := m.begin(ctx, useCaseInsertMoney, "InsertMoney",
		attribute.String("payment.amount", amount.String()),
		attribute.String("payment.kind", string(m.pay.Kind())),
	)
	defer func() { op.end(err) }()
	op.with(observability.F("amount", amount.String()))

	if err = m.pay.Insert(amount); err != nil {
		op.reject("AMOUNT_INVALID")
		return m.pay.Balance(), err
	}

	balance := m.pay.Balance()
	op.with(observability.F("balance", balance.String()))
	m.publish(ctx, payment.NewBalanceChangedEvent(balance, amount, payment.ReasonInserted))
	return balance, nil
}

// Balance reports the money currently held.
func (m *Machine) Balance(_ context.Context) decimal.Decimal {
	return m.pay.Balance()
}

// ReturnChange pays out everything held and leaves a zero balance.
func (m *Machine) ReturnChange(ctx context.Context) decimal.Decimal {
	ctx, op := m.begin(ctx, useCaseReturnChange, "ReturnChange")
	defer op.end(nil)

	change := m.pay.ReturnChange()
	op.with(observability.F("change", change.String()))
	if change.IsPositive() {
		m.publish(ctx, payment.NewBalanceChangedEvent(decimal.Zero, change.Neg(), payment.ReasonReturned))
	}
	return change
}

// Catalog returns a consistent copy of every item, ordered by name.
func (m *Machine) Catalog(_ context.Context) []item.Item {
	return m.inv.Snapshot()
}

// TransactionHistory returns every completed sale in append order.
func (m *Machine) TransactionHistory(_ context.Context) []transaction.Record {
	return m.txlog.History()
}

// Purchase sells one unit of itemName.
//
// An item already sold out at lookup is rejected before any money moves. The
// price read at lookup is charged first; stock is committed second. When
// stock is gone by then (a concurrent buyer won, or the item was replaced) the
// same price is refunded and ErrOutOfStock is returned, so a failed purchase
// never changes the balance. Only a committed sale is logged and published.
func (m *Machine) Purchase(ctx context.Context, itemName string) (_ *PurchaseResult, err error) {
	ctx, op := m.begin(ctx, useCasePurchase, "Purchase",
		attribute.String("item.name", itemName),
	)
	defer func() { op.end(err) }()
	op.with(observability.F("item", itemName))

	it, ok := m.inv.Lookup(itemName)
	if !ok {
		op.reject("ITEM_NOT_FOUND")
		return nil, ErrItemNotFound
	}
	price := it.Price
	op.with(observability.F("price", price.String()))
	if it.Quantity <= 0 {
		op.reject("OUT_OF_STOCK")
		return nil, ErrOutOfStock
	}

	if !m.pay.Charge(price) {
		op.reject("INSUFFICIENT_FUNDS")
		return nil, ErrInsufficientFunds
	}
	op.event("payment.charged", attribute.String("payment.amount", price.String()))

	if !m.inv.TryDecrement(itemName) {
		m.refund(op, itemName, price)
		op.reject("OUT_OF_STOCK")
		return nil, ErrOutOfStock
	}
	op.event("inventory.decremented")

	rec := m.txlog.Append(itemName, price)
	op.event("transaction.recorded", attribute.String("transaction.id", rec.ID))
	op.with(observability.F("transaction_id", rec.ID))

	balance := m.pay.Balance()
	m.publish(ctx, payment.NewBalanceChangedEvent(balance, price.Neg(), payment.ReasonCharged))
	remaining := 0
	if after, found := m.inv.Lookup(itemName); found {
		remaining = after.Quantity
	}
	m.publish(ctx, inventory.NewStockChangedEvent(itemName, remaining, inventory.ReasonPurchased))
	m.publish(ctx, transaction.NewRecordedEvent(rec))

	return &PurchaseResult{Record: rec, Balance: balance}, nil
}

// refund undoes the charge of a purchase whose stock could not be committed.
func (m *Machine) refund(op *operation, itemName string, price decimal.Decimal) {
	m.compensations.Add(1, observability.L("item", itemName))
	if !price.IsPositive() {
		// Nothing was taken for a free item.
		return
	}
	if err := m.pay.Insert(price); err != nil {
		op.logger.Error("purchase_compensation_failed",
			observability.F("item", itemName),
			observability.F("price", price.String()),
			observability.F("error", err.Error()),
		)
		return
	}
	op.event("payment.refunded", attribute.String("payment.amount", price.String()))
	op.with(observability.F("refunded", price.String()))
}

// AddItem validates and upserts a catalog entry.
func (m *Machine) AddItem(ctx context.Context, it item.Item) (err error) {
	ctx, op := m.begin(ctx, useCaseAddItem, "AddItem",
		attribute.String("item.name", it.Name),
		attribute.String("item.category", string(it.Category)),
	)
	defer func() { op.end(err) }()
	op.with(
		observability.F("item", it.Name),
		observability.F("quantity", it.Quantity),
		observability.F("price", it.Price.String()),
	)

	if it.Category == "" {
		it.Category = item.CategoryBase
	}
	if verr := it.Validate(); verr != nil {
		op.reject("ITEM_INVALID")
		return fmt.Errorf("%w: %w", ErrInvalidItem, verr)
	}

	m.inv.Add(it)
	m.publish(ctx, inventory.NewStockChangedEvent(it.Name, it.Quantity, inventory.ReasonAdded))
	return nil
}

// RefillItem adds qty units to an existing item. Refilling an unknown item is a no-op.
func (m *Machine) RefillItem(ctx context.Context, name string, qty int) (err error) {
	ctx, op := m.begin(ctx, useCaseRefillItem, "RefillItem",
		attribute.String("item.name", name),
		attribute.Int("item.refill_quantity", qty),
	)
	defer func() { op.end(err) }()
	op.with(observability.F("item", name), observability.F("quantity", qty))

	if qty < 0 {
		op.reject("QUANTITY_INVALID")
		return ErrInvalidQuantity
	}

	switch rerr := m.inv.Refill(name, qty); {
	case errors.Is(rerr, inventory.ErrNotFound):
		op.status = "ITEM_UNKNOWN_NOOP"
		op.logger.Warn("refill_unknown_item", observability.F("item", name))
		return nil
	case errors.Is(rerr, inventory.ErrStockOverflow):
		op.reject("QUANTITY_TOO_LARGE")
		return fmt.Errorf("%w: %w", ErrInvalidQuantity, rerr)
	case rerr != nil:
		op.reject("REFILL_FAILED")
		return rerr
	}

	remaining := qty
	if after, ok := m.inv.Lookup(name); ok {
		remaining = after.Quantity
	}
	m.publish(ctx, inventory.NewStockChangedEvent(name, remaining, inventory.ReasonRefilled))
	return nil
}
