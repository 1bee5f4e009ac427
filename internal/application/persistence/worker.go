package persistence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/inventory"
	domoutbox "github.com/Zhima-Mochi/vending-machine/internal/domain/outbox"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/payment"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/snapshot"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/transaction"
	"github.com/Zhima-Mochi/vending-machine/internal/observability"
	"github.com/Zhima-Mochi/vending-machine/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	workerService  = "persistence_worker"
	useCaseSave    = "persistence.save_state"
	spanPrefix     = "UC."
	storePeer      = "state_store"
	storeEndpoint  = "save"
	defaultTimeout = 5 * time.Second
)

// Worker writes a fresh snapshot of the machine after every state change
// event. It always reads the current state, so a save triggered by an older
// event still stores the newest catalog and balance.
type Worker struct {
	source StateSource
	repo   snapshot.Repository
	now    func() time.Time

	mu sync.Mutex

	log          observability.Logger
	tracer       observability.Tracer
	saveCounter  observability.Counter   // vending_state_saves_total{outcome}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewWorker(source StateSource, repo snapshot.Repository, tel observability.Observability) *Worker {
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()
	return &Worker{
		source:       source,
		repo:         repo,
		now:          func() time.Time { return time.Now().UTC() },
		log:          tel.Logger().With(observability.F("service", workerService)),
		tracer:       tel.Tracer(),
		saveCounter:  metrics.Counter(observability.MStateSaves),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
}

// Events lists the event names that trigger a save.
func (w *Worker) Events() []string {
	return []string{
		payment.BalanceChangedEvent{}.EventName(),
		inventory.StockChangedEvent{}.EventName(),
		transaction.RecordedEvent{}.EventName(),
	}
}

// Start subscribes Handle to every event in Events, wrapped by the given
// middlewares (outermost first).
func (w *Worker) Start(sub domoutbox.Subscriber, middlewares ...func(domoutbox.Handler) domoutbox.Handler) {
	if sub == nil || w.repo == nil {
		return
	}
	var h domoutbox.Handler = w.Handle
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	for _, name := range w.Events() {
		sub.Subscribe(name, h)
	}
}

func (w *Worker) Handle(ctx context.Context, e domoutbox.Event) error {
	if e == nil {
		return nil
	}
	ctx = logctx.With(ctx, logctx.FromOr(ctx, w.log).With(observability.F("event", e.EventName())))
	return w.Save(ctx)
}

// Save persists the current catalog and balance.
func (w *Worker) Save(ctx context.Context) (err error) {
	if w.repo == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	logger := logctx.FromOr(ctx, w.log).With(observability.F("use_case", useCaseSave))
	ctx, span := w.tracer.Start(ctx, spanPrefix+"SaveState", attribute.String("use_case", useCaseSave))
	start := time.Now()
	outcome := "success"

	state := snapshot.State{
		Items:   w.source.Catalog(ctx),
		Balance: w.source.Balance(ctx),
		SavedAt: w.now(),
	}

	defer func() {
		latency := time.Since(start).Seconds()
		w.saveCounter.Add(1, observability.L("outcome", outcome))
		w.extCounter.Add(1,
			observability.L("peer", storePeer),
			observability.L("endpoint", storeEndpoint),
			observability.L("outcome", outcome),
		)
		w.extHistogram.Observe(latency,
			observability.L("peer", storePeer),
			observability.L("endpoint", storeEndpoint),
		)
		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "SAVE_FAILED")
			} else {
				span.SetStatus(codes.Ok, "OK")
			}
			span.End()
		}
		if err != nil {
			logger.Error("state_save_failed",
				observability.F("error", err.Error()),
				observability.F("latency_seconds", latency),
			)
			return
		}
		logger.Debug("state_saved",
			observability.F("items", len(state.Items)),
			observability.F("balance", state.Balance.String()),
			observability.F("latency_seconds", latency),
		)
	}()

	saveCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err = w.repo.Save(saveCtx, state); err != nil {
		outcome = "error"
		return fmt.Errorf("persistence: save: %w", err)
	}
	return nil
}
