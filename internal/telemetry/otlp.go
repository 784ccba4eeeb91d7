package telemetry

import (
	"os"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

const defaultOTLPEndpoint = "localhost:4317"

// exporterConfig is where one signal is shipped. Each signal may override
// the shared OTEL_EXPORTER_OTLP_* settings with its own endpoint variable.
type exporterConfig struct {
	Endpoint string
	Insecure bool
}

func otlpConfig(signalEnv string) exporterConfig {
	endpoint := strings.TrimSpace(os.Getenv(signalEnv))
	if endpoint == "" {
		endpoint = strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	}
	if endpoint == "" {
		endpoint = defaultOTLPEndpoint
	}
	// collectors usually sit next to the api
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "http://"), "https://")

	insecure := true
	if v := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			insecure = b
		}
	}
	return exporterConfig{Endpoint: endpoint, Insecure: insecure}
}

// Enabled reports whether exporters should be started. OTEL_SDK_DISABLED
// follows the OpenTelemetry convention; the global no-op providers stay in
// place when it is true.
func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("OTEL_SDK_DISABLED"))
	if v == "" {
		return true
	}
	disabled, err := strconv.ParseBool(v)
	return err != nil || !disabled
}

func serviceResource(serviceName string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	)
}
