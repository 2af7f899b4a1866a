package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mrbrightsides/sentinel/internal/config"
	"github.com/mrbrightsides/sentinel/internal/httpserver"
	"github.com/mrbrightsides/sentinel/internal/observability"
	"github.com/mrbrightsides/sentinel/internal/page"
	"github.com/mrbrightsides/sentinel/internal/probe"
	"github.com/mrbrightsides/sentinel/internal/render"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard page over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, nil)
		},
	}
}

// runServe blocks until parent is cancelled or a shutdown signal arrives. When ln is nil
// the server listens on cfg.Server.Addr().
func runServe(parent context.Context, cfg config.Config, ln net.Listener) error {
	if ln != nil {
		defer func() { _ = ln.Close() }()
	}
	logger, err := observability.NewLogger(cfg.LogLevel,
		zap.String("service", "sentinel"),
		zap.String("environment", cfg.Environment),
	)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	renderer, err := render.New(render.WithPublicOrigin(cfg.PublicOrigin), render.WithLogger(logger))
	if err != nil {
		return err
	}
	store := page.NewStore(cfg.Page)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var prober *probe.Client
	if cfg.Probe.Enabled {
		prober = probe.NewClient(cfg.Probe.Timeout,
			probe.WithPublicOrigin(cfg.PublicOrigin),
			probe.WithCacheTTL(cfg.Probe.CacheTTL),
		)
		go logProbe(ctx, logger, prober, cfg.Page.Embed.SourceURL)
	}

	if cfg.Dev && cfg.PageFile != "" {
		watcher, err := page.Watch(cfg.PageFile, cfg.PageBase, store, func(next page.Config, err error) {
			if err != nil {
				logger.Warn("page reload rejected", zap.String("file", cfg.PageFile), zap.Error(err))
				return
			}
			logger.Info("page reloaded", zap.String("file", cfg.PageFile), zap.String("embed_url", next.Embed.SourceURL))
			if prober != nil {
				prober.Invalidate(next.Embed.SourceURL)
			}
		})
		if err != nil {
			return err
		}
		defer func() { _ = watcher.Close() }()
		logger.Info("watching page file", zap.String("file", cfg.PageFile))
	}

	srv := httpserver.New(httpserver.Config{
		Address:      cfg.Server.Addr(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		Logger:       logger,
		Renderer:     renderer,
		Pages:        store,
		Probe:        prober,
	})

	if ln == nil {
		if ln, err = net.Listen("tcp", srv.Addr); err != nil {
			logger.Error("listen", zap.String("addr", srv.Addr), zap.Error(err))
			return err
		}
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	logger.Info("sentinel listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("layout", string(cfg.Page.Metadata.Layout)),
		zap.String("embed_mode", string(cfg.Page.Embed.Mode)),
	)

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("http server failed", zap.Error(err))
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		return err
	}
	logger.Info("sentinel stopped")
	return nil
}

// logProbe reports once at startup whether the embed target is likely to render.
func logProbe(ctx context.Context, logger *zap.Logger, client *probe.Client, url string) {
	started := time.Now()
	report := client.Check(ctx, url)
	if failure, ok := report.Failure(); ok {
		logger.Warn("embed may not display",
			zap.String("url", failure.URL),
			zap.String("reason", failure.Reason),
			zap.NamedError("cause", failure.Err),
		)
		return
	}
	logger.Info("embed target reachable",
		zap.String("url", report.URL),
		zap.Int("status_code", report.StatusCode),
		zap.Duration("took", time.Since(started)),
	)
}
