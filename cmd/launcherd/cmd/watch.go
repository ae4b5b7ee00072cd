package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pkdesk/launcherd/internal/watcher"
)

// newWatchCmd creates the watch command.
func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch application directories and revalidate changed launcher files",
		Long: `Watch runs until interrupted, observing the configured application
directories. A created or modified launcher file is fingerprinted and
its owner re-resolved; a deleted one has its cache row dropped. Bursts
of events, as produced by a package install, are debounced so each file
is handled once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			rec := buildReconciler(cfg)
			defer rec.Close()
			if !rec.Enabled() {
				return fmt.Errorf("launcher cache is disabled")
			}

			w, err := watcher.New(cfg.ApplicationDirs, watcher.Options{
				DebounceWindow: cfg.Watch.Debounce,
			})
			if err != nil {
				return fmt.Errorf("failed to start watcher: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			slog.Info("watching application directories",
				slog.Any("dirs", cfg.ApplicationDirs))

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return w.Run(ctx)
			})
			g.Go(func() error {
				return consumeEvents(ctx, rec, w.Events())
			})

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

// consumeEvents revalidates every debounced launcher path until ctx is
// cancelled.
func consumeEvents(ctx context.Context, rec revalidator, events <-chan []watcher.FileEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch := <-events:
			for _, ev := range batch {
				slog.Debug("launcher file changed",
					slog.String("path", ev.Path),
					slog.String("op", ev.Operation.String()))
				rec.RevalidateFile(ctx, ev.Path)
			}
		}
	}
}

// revalidator is the slice of the reconciler watch mode needs.
type revalidator interface {
	RevalidateFile(ctx context.Context, path string)
}
