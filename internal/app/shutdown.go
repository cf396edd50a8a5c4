package app

import (
	"context"

	"github.com/cockroachdb/errors"

	"ghostline/pkg/logger"
)

// Shutdown stops the http server first so no request observes a closed
// store, then the retention loop, then the store itself.
func (a *App) Shutdown(ctx context.Context) error {
	a.state = "shutting_down"
	logger.Info("shutdown_started")

	var errs []error
	if a.srvFast != nil {
		if err := a.srvFast.ShutdownWithContext(ctx); err != nil {
			logger.Error("http_shutdown_failed", "error", err)
			errs = append(errs, errors.Wrap(err, "http shutdown"))
		}
	}
	if a.retention != nil {
		a.retention.Stop()
	}
	if a.sensor != nil {
		a.sensor.Stop()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Error("store_close_failed", "error", err)
			errs = append(errs, errors.Wrap(err, "store close"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	a.state = "stopped"
	logger.Info("shutdown_complete")
	logger.Sync()
	return nil
}

// State reports the lifecycle phase.
func (a *App) State() string { return a.state }
