package outbox

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	domoutbox "github.com/Zhima-Mochi/vending-machine/internal/domain/outbox"
	"github.com/Zhima-Mochi/vending-machine/internal/observability"
	"github.com/Zhima-Mochi/vending-machine/internal/observability/logctx"
)

const (
	componentOutbox    = "outbox"
	defaultQueueSize   = 1024
	defaultConcurrency = 8
	handlerTimeout     = 30 * time.Second
)

var ErrBusClosed = errors.New("outbox: bus is stopped")

// Bus is an in-memory, non-durable event bus. Events are dispatched in
// publish order by a single loop; handlers of one event run concurrently.
type Bus struct {
	subsMu      sync.RWMutex
	subs        map[string][]domoutbox.Handler
	stateMu     sync.RWMutex
	queue       chan domoutbox.Event
	closed      bool
	startOnce   sync.Once
	stopOnce    sync.Once
	done        chan struct{}
	concurrency int
	log         observability.Logger
}

var _ domoutbox.PubSub = (*Bus)(nil)

func NewBus(logger observability.Logger) *Bus {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Bus{
		subs:        make(map[string][]domoutbox.Handler),
		queue:       make(chan domoutbox.Event, defaultQueueSize),
		done:        make(chan struct{}),
		concurrency: defaultConcurrency,
		log:         logger.With(observability.F("component", componentOutbox)),
	}
}

func (b *Bus) Subscribe(eventName string, h domoutbox.Handler) {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()
	b.subs[eventName] = append(b.subs[eventName], h)
}

func (b *Bus) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		go b.dispatchLoop(context.WithoutCancel(ctx))
		logctx.FromOr(ctx, b.log).Info("event_bus_started")
	})
}

// Stop refuses new events, lets the dispatcher drain what is queued and
// waits for it until ctx expires.
func (b *Bus) Stop(ctx context.Context) error {
	var err error
	b.stopOnce.Do(func() {
		b.stateMu.Lock()
		b.closed = true
		close(b.queue)
		b.stateMu.Unlock()
		// Never started: nothing will drain the queue.
		b.startOnce.Do(func() { close(b.done) })

		select {
		case <-b.done:
			logctx.FromOr(ctx, b.log).Info("event_bus_stopped")
		case <-ctx.Done():
			err = ctx.Err()
			logctx.FromOr(ctx, b.log).Warn("event_bus_stop_timeout", observability.F("error", err))
		}
	})
	return err
}

func (b *Bus) Publish(ctx context.Context, e domoutbox.Event) error {
	if e == nil {
		return nil
	}
	logger := logctx.FromOr(ctx, b.log).With(observability.F("event", e.EventName()))

	b.stateMu.RLock()
	defer b.stateMu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	select {
	case b.queue <- e:
		logger.Debug("event_enqueued")
		return nil
	case <-ctx.Done():
		logger.Warn("event_enqueue_aborted", observability.F("error", ctx.Err()))
		return ctx.Err()
	}
}

func (b *Bus) dispatchLoop(ctx context.Context) {
	defer close(b.done)
	for e := range b.queue {
		b.fanout(ctx, e)
	}
}

func (b *Bus) fanout(ctx context.Context, e domoutbox.Event) {
	name := e.EventName()

	b.subsMu.RLock()
	handlers := append([]domoutbox.Handler(nil), b.subs[name]...)
	b.subsMu.RUnlock()

	logger := b.log.With(observability.F("event", name))
	if len(handlers) == 0 {
		logger.Debug("event_dropped_no_subscriber")
		return
	}

	sem := make(chan struct{}, b.concurrency)
	var wg sync.WaitGroup

	for _, h := range handlers {
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("event_handler_panic",
						observability.F("panic", r),
						observability.F("stack", string(debug.Stack())),
					)
				}
				<-sem
				wg.Done()
			}()

			hctx, cancel := context.WithTimeout(ctx, handlerTimeout)
			defer cancel()
			hctx = logctx.With(hctx, logger)
			if err := h(hctx, e); err != nil {
				logger.Warn("event_handler_error", observability.F("error", err))
			}
		}()
	}

	wg.Wait()
	logger.Debug("event_fanned_out", observability.F("handlers", len(handlers)))
}
