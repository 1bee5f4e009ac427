package httppresentation

import (
	"net/http"

	"github.com/Zhima-Mochi/vending-machine/internal/observability"
	"github.com/Zhima-Mochi/vending-machine/internal/observability/logctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// ObservabilityMiddleware injects a request-scoped logger carrying the
// request id, the optional tenant id and the ids of the active span, and
// echoes the request id in the X-Request-ID response header. A missing
// request id is generated.
func ObservabilityMiddleware(
	base observability.Logger,
	requestID func(*http.Request) string,
	tenantID func(*http.Request) string,
) func(http.Handler) http.Handler {
	if base == nil {
		base = observability.NopLogger()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sc := trace.SpanContextFromContext(ctx)

			rid := ""
			if requestID != nil {
				rid = requestID(r)
			}
			if rid == "" {
				rid = uuid.NewString()
			}
			tid := ""
			if tenantID != nil {
				tid = tenantID(r)
			}
			w.Header().Set(headerRequestID, rid)

			fields := []observability.Field{observability.F("request_id", rid)}
			if tid != "" {
				fields = append(fields, observability.F("tenant_id", tid))
			}
			if sc.IsValid() {
				fields = append(fields,
					observability.F("trace_id", sc.TraceID().String()),
					observability.F("span_id", sc.SpanID().String()),
				)
			}
			ctx = logctx.With(ctx, base.With(fields...))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusRecorder) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}
