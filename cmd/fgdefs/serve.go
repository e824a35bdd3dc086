package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fgdefs/internal/api"
	"fgdefs/internal/engine"
	"fgdefs/internal/metrics"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr    string
		archive bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load the definitions in the background and serve the query API",
		Long: `Starts the HTTP API immediately; data routes answer 503 until the load
completes. A failed load shuts the server down and exits non-zero.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			if archive {
				a.cfg.Archive.Enabled = true
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides server.addr")
	cmd.Flags().BoolVar(&archive, "archive", false, "Archive the definitions file after a successful load")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	m := metrics.New()
	lc := engine.NewLifecycle()
	e := api.NewServer(api.NewHandler(lc), m, a.logger)
	path := a.cfg.DefinitionsPath()

	g, gctx := errgroup.WithContext(ctx)

	// The API is live at once and answers 503 until the load lands.
	g.Go(func() error {
		a.logger.Info("server listening", zap.String("addr", a.cfg.Server.Addr))
		if err := e.Start(a.cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		defs, err := lc.Load(gctx, a.source(), path, a.logger)
		if err != nil {
			m.ObserveLoad(0, 0, 0, time.Since(start), err)
			return fmt.Errorf("load definitions: %w", err)
		}
		m.ObserveLoad(defs.EntityCount(), len(defs.TraitNames()), len(defs.PropertyNames()), time.Since(start), nil)

		if a.cfg.Archive.Enabled {
			if _, err := a.archive(gctx, path); err != nil {
				a.logger.Error("archive definitions failed", zap.String("path", path), zap.Error(err))
			}
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GetShutdownTimeout())
		defer cancel()
		a.logger.Info("shutting down server")
		return e.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
