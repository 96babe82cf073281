package app

import (
	"context"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dashlink/dashlink/pkg/logging"
)

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// everything down. It returns the first error of the server or watcher.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer func() {
		if err := a.services.Close(); err != nil {
			logging.Error("Bootstrap", err, "Shutdown incomplete")
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.services.Server.Run(ctx)
	})
	if w := a.services.Watcher; w != nil {
		g.Go(func() error {
			return w.Run(ctx)
		})
	}

	logging.Info("Bootstrap", "dashlink started with %d OAuth providers. Press Ctrl+C to stop.", len(a.services.Registry.List()))
	err := g.Wait()
	logging.Info("Bootstrap", "dashlink stopped")
	return err
}
