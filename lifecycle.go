package main

import (
	"context"
	"fmt"

	"PiBot/logger"
)

// service is a component runServe starts and stops with the process
type service struct {
	name  string
	start func(ctx context.Context) error
	stop  func(ctx context.Context) error
}

// startAll starts services in order. When one fails, the ones already
// started are stopped again before the error is returned.
func startAll(ctx context.Context, services []service) error {
	for n, svc := range services {
		if err := svc.start(ctx); err != nil {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			stopAll(stopCtx, services[:n])
			return fmt.Errorf("error starting %s: %w", svc.name, err)
		}
	}
	return nil
}

// stopAll stops services in reverse order, logging failures
func stopAll(ctx context.Context, services []service) {
	for n := len(services) - 1; n >= 0; n-- {
		if err := services[n].stop(ctx); err != nil {
			logger.WithField("service", services[n].name).WithError(err).Warn("error-stopping-service")
		}
	}
}
