package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"library-backend/pkg/container"
)

const (
	poolMonitorInterval = time.Minute
	shutdownTimeout     = 10 * time.Second
)

// Serve builds the container and blocks until SIGINT or SIGTERM.
func Serve() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := container.NewContainer()
	if err != nil {
		return fmt.Errorf("initialize container: %w", err)
	}
	defer app.Cleanup()

	if app.DB != nil {
		go app.DB.MonitorPoolHealth(ctx, poolMonitorInterval)
	}

	srv := newHTTPServer(app)

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("storage", app.Config.Storage.Driver).
			Str("cache", app.Config.Storage.CacheDriver).
			Msg("library api listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

func newHTTPServer(app *container.Container) *http.Server {
	return &http.Server{
		Addr:              ":" + app.Config.App.Port,
		Handler:           SetupRouter(app),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}
