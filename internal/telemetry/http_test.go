package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	otelLog "go.opentelemetry.io/otel/log"
)

func TestRoutePatternAfterRouting(t *testing.T) {
	var route string
	var status int

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, req)
			route = routePattern(req)
			status = sw.status
		})
	})
	r.Use(ChiTraceMiddleware("cobit-test"), ChiMetricsMiddleware, ChiLogMiddleware("cobit-test"))
	r.Get("/api/snippets/{id}", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/snippets/abc12345", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "/api/snippets/{id}", route)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRoutePatternOutsideChi(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	assert.Equal(t, unknownRoute, routePattern(req))
}

func TestSeverityForStatus(t *testing.T) {
	assert.Equal(t, otelLog.SeverityInfo, severityForStatus(http.StatusOK))
	assert.Equal(t, otelLog.SeverityWarn, severityForStatus(http.StatusTooManyRequests))
	assert.Equal(t, otelLog.SeverityError, severityForStatus(http.StatusBadGateway))
	assert.Equal(t, "WARN", severityText(severityForStatus(http.StatusNotFound)))
}
