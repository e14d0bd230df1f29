package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/burns-20/bwrank/internal/adapters/http/api"
	"github.com/burns-20/bwrank/internal/adapters/http/openapi"
	"github.com/burns-20/bwrank/internal/adapters/http/site"
	"github.com/burns-20/bwrank/pkg/logger"
	"github.com/spf13/cobra"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func (c *cli) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the progression API and the generated report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				c.cfg.Addr = addr
			}
			return c.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default addr)")
	return cmd
}

func (c *cli) serve(ctx context.Context) error {
	svc, closeStore, err := c.loadService(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	siteRoot := os.DirFS(filepath.Dir(c.cfg.ReportPath))
	if err := site.Check(siteRoot); err != nil {
		c.log.Warn(ctx, "no report to serve yet, run generate", logger.Error(err))
	}

	mux := http.NewServeMux()
	openapi.Register(ctx, mux)
	api.NewServer(svc, svc, c.log.Named("api")).Register(ctx, mux)
	site.Register(ctx, mux, siteRoot)

	srv := &http.Server{
		Addr:              c.cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		c.log.Info(ctx, "starting HTTP server", logger.String("addr", c.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	c.log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		c.log.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}
	c.log.Info(ctx, "server stopped")
	return nil
}
