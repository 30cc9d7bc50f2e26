package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"slices"
)

// Run listens on server.address and serves until ctx is canceled or the
// server fails. The caller still owns Stop.
func (a *App) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "http server listening", "address", l.Addr().String())

	select {
	case err := <-a.Serve(l):
		return err
	case <-ctx.Done():
		slog.InfoContext(ctx, "shutdown requested")
		return nil
	}
}

// Serve runs the HTTP server on l. The channel yields the result of
// http.Server.Serve, http.ErrServerClosed after Stop.
func (a *App) Serve(l net.Listener) <-chan error {
	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		errChan <- a.httpServer.Serve(l)
	}()
	return errChan
}

// Stop drains in-flight requests, waits for pending event publishes and
// closes resources in reverse order of creation. It also works outside
// server mode.
func (a *App) Stop(ctx context.Context) {
	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "failed to close resources", "name", "HTTP Server", "error", err)
		}
	}

	a.close(ctx)

	if a.cancel != nil {
		a.cancel()
	}
	slog.InfoContext(ctx, "application stopped")
}

// close is shared by Stop and a failing New.
func (a *App) close(ctx context.Context) {
	slog.DebugContext(ctx, "waiting for background publishes")
	if err := a.goroutine.Wait(); err != nil {
		slog.WarnContext(ctx, "background tasks finished with errors", "error", err)
	}

	for _, c := range slices.Backward(a.closers) {
		if err := c.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", c.name, "error", err)
		}
	}
	a.closers = nil
}
