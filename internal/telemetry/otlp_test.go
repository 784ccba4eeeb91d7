package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otelLog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/trace"
)

func TestOTLPConfig(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "")

	cfg := otlpConfig("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT")
	assert.Equal(t, exporterConfig{Endpoint: defaultOTLPEndpoint, Insecure: true}, cfg)

	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://collector:4317")
	assert.Equal(t, "collector:4317", otlpConfig("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT").Endpoint)

	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "traces:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "false")
	cfg = otlpConfig("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT")
	assert.Equal(t, "traces:4317", cfg.Endpoint)
	assert.False(t, cfg.Insecure)
}

func TestEnabled(t *testing.T) {
	cases := map[string]bool{
		"":      true,
		"false": true,
		"junk":  true,
		"true":  false,
		"1":     false,
	}
	for val, want := range cases {
		t.Setenv("OTEL_SDK_DISABLED", val)
		assert.Equal(t, want, Enabled(), "OTEL_SDK_DISABLED=%q", val)
	}
}

func TestSetupDisabledIsNoop(t *testing.T) {
	t.Setenv("OTEL_SDK_DISABLED", "true")

	shutdown, err := Setup(context.Background(), "cobit-test")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSeverityText(t *testing.T) {
	assert.Equal(t, "INFO", severityText(otelLog.SeverityInfo))
	assert.Equal(t, "WARN", severityText(otelLog.SeverityWarn))
	assert.Equal(t, "ERROR", severityText(otelLog.SeverityError))
	assert.Equal(t, "ERROR", severityText(otelLog.SeverityFatal))
}

func TestLogErr(t *testing.T) {
	assert.Equal(t, "boom", LogErr(errors.New("boom")).Value.AsString())
	assert.Equal(t, "", LogErr(nil).Value.AsString())
}

func TestNewRecordCarriesTraceID(t *testing.T) {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		SpanID:  trace.SpanID{1, 2, 3, 4, 5, 6, 7, 8},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	rec := newRecord(ctx, "app.log", otelLog.SeverityWarn, "cache unavailable", LogString("cache.key", "snippets:item:a"))
	assert.Equal(t, "app.log", rec.EventName())
	assert.Equal(t, "WARN", rec.SeverityText())
	assert.Equal(t, "cache unavailable", rec.Body().AsString())

	attrs := map[string]string{}
	rec.WalkAttributes(func(kv otelLog.KeyValue) bool {
		attrs[kv.Key] = kv.Value.AsString()
		return true
	})
	assert.Equal(t, "snippets:item:a", attrs["cache.key"])
	assert.Equal(t, sc.TraceID().String(), attrs["trace_id"])

	plain := newRecord(context.Background(), "app.log", otelLog.SeverityInfo, "x")
	assert.Equal(t, 0, plain.AttributesLen())
}
