package app

import (
	"context"

	"github.com/vk/graft/internal/ctxlog"
	"github.com/vk/graft/internal/progress"
)

// Run loads the configured documents once and, in watch mode, keeps
// reloading changed documents until ctx ends.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		a.healthCheckServer(ctx)
		defer a.closeHealthCheckServer(ctx)
	}

	report := progress.LogSink(ctx)
	if a.config.ProgressSocket != "" {
		sink, err := progress.Dial(ctx, a.config.ProgressSocket, progress.SocketOptions{})
		if err != nil {
			a.logger.Warn("Progress socket unavailable, reporting to the log only.", "url", a.config.ProgressSocket, "error", err)
		} else {
			defer sink.Close()
			report = progress.Multi(report, sink.Func(ctx))
		}
	}

	err := a.loadAll(ctx, report)
	if !a.config.Watch {
		a.logger.Debug("App.Run method finished.")
		return err
	}
	if err != nil {
		a.logger.Error("Initial load failed, watching for changes.", "error", err)
	}
	return a.watch(ctx, report)
}
