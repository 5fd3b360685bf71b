package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dotcommander/carousel/internal/core"
	"github.com/dotcommander/carousel/internal/server"
	"github.com/dotcommander/carousel/internal/wizard"
)

func (c *cli) serveCmd() *cobra.Command {
	var addr, brandPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Starts the HTTP API:

  POST /api/runs               start a run from a wizard submission
  GET  /api/runs/{id}          state, progress, events and result
  POST /api/runs/{id}/abort    stop after the current stage
  GET  /api/runs/{id}/preview  rendered slides as one HTML document`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, brandPath)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVar(&brandPath, "brand", "", "stored brand profile used when a submission has none")
	return cmd
}

func (c *cli) runServe(ctx context.Context, addr, brandPath string) error {
	if addr == "" {
		addr = c.cfg.Server.Addr
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := c.buildPipeline(ctx)
	if err != nil {
		return err
	}

	opts := []server.Option{
		server.WithLogger(c.logger),
		server.WithRecorder(p.recorder),
		server.WithMaxConcurrentRuns(c.cfg.Limits.MaxConcurrentRuns),
		server.WithStageTimeout(c.cfg.Limits.StageTimeout),
		server.WithRunTTL(c.cfg.Server.RunTTL),
	}
	if brandPath != "" {
		brand, err := wizard.LoadBrand(brandPath)
		if err != nil {
			return err
		}
		if err := wizard.ValidateBrand(brand); err != nil {
			return err
		}
		opts = append(opts, server.WithBrand(brand))
	}

	srv, err := server.New(func() []core.Stage { return p.stages }, p.engine, opts...)
	if err != nil {
		return err
	}
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.logger.Info("listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		c.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return errors.Join(httpSrv.Shutdown(shutdownCtx), srv.Shutdown(shutdownCtx))
	})
	return g.Wait()
}
