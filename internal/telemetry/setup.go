package telemetry

import (
	"context"
	"errors"
)

// Setup starts traces, metrics and logs for serviceName and returns one
// shutdown func for all of them. When telemetry is disabled nothing is
// started and the returned func is a no-op.
func Setup(ctx context.Context, serviceName string) (func(context.Context) error, error) {
	var shutdowns []func(context.Context) error
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			errs = append(errs, shutdowns[i](ctx))
		}
		return errors.Join(errs...)
	}

	if !Enabled() {
		return shutdown, nil
	}

	for _, start := range []func(context.Context, string) (func(context.Context) error, error){
		InitTracer,
		InitMetrics,
		InitLogger,
	} {
		stop, err := start(ctx, serviceName)
		if err != nil {
			return nil, errors.Join(err, shutdown(ctx))
		}
		shutdowns = append(shutdowns, stop)
	}
	return shutdown, nil
}
