package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Zhima-Mochi/vending-machine/internal/application/vending"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/item"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/transaction"
	"github.com/Zhima-Mochi/vending-machine/internal/observability"
	"github.com/Zhima-Mochi/vending-machine/internal/observability/logctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Machine is the part of the vending machine exposed over HTTP.
type Machine interface {
	Catalog(ctx context.Context) []item.Item
	AddItem(ctx context.Context, it item.Item) error
	RefillItem(ctx context.Context, name string, qty int) error
	Balance(ctx context.Context) decimal.Decimal
	InsertMoney(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error)
	Purchase(ctx context.Context, itemName string) (*vending.PurchaseResult, error)
	ReturnChange(ctx context.Context) decimal.Decimal
	TransactionHistory(ctx context.Context) []transaction.Record
}

type Options struct {
	// CORSOrigin is sent as Access-Control-Allow-Origin; empty disables CORS headers.
	CORSOrigin string
}

type Handler struct {
	machine Machine
	opts    Options
	log     observability.Logger

	httpRequests observability.Counter   // http_requests_total{method,route,status}
	httpDuration observability.Histogram // http_request_duration_seconds{method,route,status}
}

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	headerTenantID       = "X-Tenant-ID"
	tracerName           = "vending-machine.http"
	maxBodyBytes         = 1 << 20
)

func NewHandler(machine Machine, tel observability.Observability, opts Options) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()
	return &Handler{
		machine:      machine,
		opts:         opts,
		log:          tel.Logger().With(observability.F("component", componentHTTPHandler)),
		httpRequests: metrics.Counter(observability.MHTTPRequests),
		httpDuration: metrics.Histogram(observability.MHTTPRequestDuration),
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// Trace → ObservabilityMiddleware (request logger) → HTTP metrics → Access log → Handler
	h.muxHandle(mux, http.MethodGet, "/api/items", h.handleListItems)
	h.muxHandle(mux, http.MethodPost, "/api/items", h.handleAddItem)
	h.muxHandle(mux, http.MethodPost, "/api/items/refill", h.handleRefillItem)
	h.muxHandle(mux, http.MethodGet, "/api/balance", h.handleBalance)
	h.muxHandle(mux, http.MethodPost, "/api/insert-money", h.handleInsertMoney)
	h.muxHandle(mux, http.MethodPost, "/api/purchase", h.handlePurchase)
	h.muxHandle(mux, http.MethodPost, "/api/return-change", h.handleReturnChange)
	h.muxHandle(mux, http.MethodGet, "/api/transactions", h.handleTransactions)
	h.muxHandle(mux, http.MethodGet, "/health", h.handleHealth)

	return h.withCORS(mux)
}

func (h *Handler) muxHandle(mux *http.ServeMux, method, path string, handler http.HandlerFunc) {
	route := method + " " + path
	wrapped := h.withTrace(
		ObservabilityMiddleware(
			h.log,
			func(r *http.Request) string {
				return r.Header.Get(headerRequestID)
			},
			func(r *http.Request) string {
				return r.Header.Get(headerTenantID)
			},
		)(
			h.withHTTPMetrics(
				h.withAccessLog(http.HandlerFunc(handler)),
			),
		),
	)

	mux.HandleFunc(route, func(w http.ResponseWriter, r *http.Request) {
		// Stable route template for low-cardinality labels.
		wrapped.ServeHTTP(w, r.WithContext(contextWithRoute(r.Context(), route)))
	})
}

func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	items := h.machine.Catalog(r.Context())
	resp := make([]itemResponse, 0, len(items))
	for _, it := range items {
		resp = append(resp, toItemResponse(it))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	it, err := req.toItem()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.machine.AddItem(r.Context(), it); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemResponse(it))
}

func (h *Handler) handleRefillItem(w http.ResponseWriter, r *http.Request) {
	var req refillRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.machine.RefillItem(r.Context(), req.Name, req.Quantity); err != nil {
		writeDomainError(w, err)
		return
	}

	resp := refillResponse{Name: req.Name}
	for _, it := range h.machine.Catalog(r.Context()) {
		if it.Name == req.Name {
			resp.Found, resp.Quantity = true, it.Quantity
			break
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, balanceResponse{
		Balance: h.machine.Balance(r.Context()).InexactFloat64(),
	})
}

func (h *Handler) handleInsertMoney(w http.ResponseWriter, r *http.Request) {
	var req insertMoneyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	balance, err := h.machine.InsertMoney(r.Context(), req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Balance: balance.InexactFloat64()})
}

func (h *Handler) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.machine.Purchase(r.Context(), req.Item)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, purchaseResponse{
		TransactionID: result.Record.ID,
		Item:          result.Record.ItemName,
		Price:         result.Record.Price.InexactFloat64(),
		Timestamp:     result.Record.Timestamp,
		Balance:       result.Balance.InexactFloat64(),
	})
}

func (h *Handler) handleReturnChange(w http.ResponseWriter, r *http.Request) {
	change := h.machine.ReturnChange(r.Context())
	writeJSON(w, http.StatusOK, returnChangeResponse{
		Change:  change.InexactFloat64(),
		Balance: h.machine.Balance(r.Context()).InexactFloat64(),
	})
}

func (h *Handler) handleTransactions(w http.ResponseWriter, r *http.Request) {
	records := h.machine.TransactionHistory(r.Context())
	resp := make([]transactionResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, toTransactionResponse(rec))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// withCORS answers preflight requests before routing so that OPTIONS never
// reaches the method-qualified patterns.
func (h *Handler) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.opts.CORSOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", h.opts.CORSOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+headerRequestID+", "+headerTenantID)
			w.Header().Set("Access-Control-Expose-Headers", headerRequestID)
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withAccessLog writes a single access log after the handler completes.
// It relies on the request-scoped logger already injected by ObservabilityMiddleware.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeFromContext(r.Context())),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withTrace creates a server span for the request using OTel and W3C propagation.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer(tracerName)
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := routeFromContext(parentCtx)
		spanName := route
		if spanName == "unknown" {
			spanName = r.Method + " " + r.URL.Path
		}
		template := route
		if idx := strings.Index(template, " "); idx >= 0 {
			template = template[idx+1:]
		}
		if template == "unknown" || template == "" {
			template = r.URL.Path
		}

		ctxWithSpan, span := tracer.Start(parentCtx,
			spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", template),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lrw, r.WithContext(ctxWithSpan))

		span.SetAttributes(attribute.Int("http.status_code", lrw.status))
		if lrw.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(lrw.status))
		}
	})
}

// withHTTPMetrics records RED-ish HTTP metrics using injected vectors.
// DO NOT new metrics inside the middleware.
func (h *Handler) withHTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		route := routeFromContext(r.Context())
		status := strconv.Itoa(lrw.status)
		h.httpRequests.Add(1,
			observability.L("method", r.Method),
			observability.L("route", route),
			observability.L("status", status),
		)
		h.httpDuration.Observe(time.Since(start).Seconds(),
			observability.L("method", r.Method),
			observability.L("route", route),
			observability.L("status", status),
		)
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, vending.ErrItemNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, vending.ErrInsufficientFunds):
		writeError(w, http.StatusPaymentRequired, err)
	case errors.Is(err, vending.ErrOutOfStock):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, vending.ErrInvalidAmount),
		errors.Is(err, vending.ErrInvalidItem),
		errors.Is(err, vending.ErrInvalidQuantity),
		errors.Is(err, item.ErrUnknownCategory):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

type routeKey struct{}

// contextWithRoute stores the stable route template in the context so downstream
// metrics/logging can rely on low-cardinality values.
func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}
