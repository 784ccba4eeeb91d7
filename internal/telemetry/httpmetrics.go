package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type httpInstruments struct {
	requests metric.Int64Counter
	inFlight metric.Int64UpDownCounter
	duration metric.Float64Histogram
}

// nil until InitMetrics has run
var httpMetrics *httpInstruments

func initHTTPMetricsInstruments(serviceName string) {
	meter := otel.Meter(serviceName)

	requests, err := meter.Int64Counter(
		"cobit_http_requests_total",
		metric.WithDescription("HTTP requests served"),
	)
	if err != nil {
		return
	}
	inFlight, err := meter.Int64UpDownCounter(
		"cobit_http_requests_in_flight",
		metric.WithDescription("HTTP requests currently being served"),
	)
	if err != nil {
		return
	}
	duration, err := meter.Float64Histogram(
		"cobit_http_request_duration_seconds",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return
	}

	httpMetrics = &httpInstruments{requests: requests, inFlight: inFlight, duration: duration}
}

func ChiMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpMetrics
		if m == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		m.inFlight.Add(r.Context(), 1)
		defer m.inFlight.Add(r.Context(), -1)

		mw := newStatusWriter(w)
		next.ServeHTTP(mw, r)

		attrs := metric.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", routePattern(r)),
			attribute.String("http.status_class", strconv.Itoa(mw.status/100)+"xx"),
		)
		m.requests.Add(r.Context(), 1, attrs)
		m.duration.Record(r.Context(), time.Since(start).Seconds(), attrs)
	})
}
