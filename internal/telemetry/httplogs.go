package telemetry

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	otelLog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
)

// ChiLogMiddleware emits one record per request. Health probes are only
// logged when they fail.
func ChiLogMiddleware(serviceName string) func(http.Handler) http.Handler {
	logger := global.Logger(serviceName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lw := newStatusWriter(w)

			next.ServeHTTP(lw, r)

			route := routePattern(r)
			if route == "/health" && lw.status < 400 {
				return
			}

			attrs := []otelLog.KeyValue{
				otelLog.String("http.method", r.Method),
				otelLog.String("http.route", route),
				otelLog.String("http.target", r.URL.Path),
				otelLog.String("http.client_ip", r.RemoteAddr),
				otelLog.Int("http.status_code", lw.status),
				otelLog.Int64("http.duration_ms", time.Since(start).Milliseconds()),
			}
			if reqID := middleware.GetReqID(r.Context()); reqID != "" {
				attrs = append(attrs, otelLog.String("http.request_id", reqID))
			}
			rec := newRecord(r.Context(), "http.request", severityForStatus(lw.status), "request completed", attrs...)

			logger.Emit(r.Context(), rec)
		})
	}
}

func severityForStatus(status int) otelLog.Severity {
	switch {
	case status >= 500:
		return otelLog.SeverityError
	case status >= 400:
		return otelLog.SeverityWarn
	default:
		return otelLog.SeverityInfo
	}
}
