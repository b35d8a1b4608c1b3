package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// emailRetryBackoff is the first delay between delivery attempts; later
// delays grow exponentially.
const emailRetryBackoff = 2 * time.Second

// serve starts the email workers and the HTTP server, and blocks until ctx
// is cancelled or the server fails. Shutdown stops accepting requests first,
// then lets queued confirmations drain within the shutdown timeout.
func (app *application) serve(ctx context.Context) error {
	routerCtx, cancelRouter := context.WithCancel(ctx)
	defer cancelRouter()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:      app.setupRouter(routerCtx),
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
	}

	app.emailPool.Start()

	serverErr := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		app.logger.Info("shutting down server")
	case err := <-serverErr:
		if err != nil {
			app.logger.Error("server failed", "error", err)
			runErr = fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server shutdown failed", "error", err)
		runErr = errors.Join(runErr, fmt.Errorf("server shutdown failed: %w", err))
	}

	app.emailQueue.Close()
	if err := app.emailPool.Drain(shutdownCtx); err != nil {
		app.logger.Warn("pending email confirmations abandoned", "error", err)
	}

	app.logger.Info("server shutdown completed")
	return runErr
}
