package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taq-bars/internal/observability"
)

// HandleSignals cancels the returned context on SIGINT/SIGTERM. A second
// signal, or a shutdown exceeding grace, exits the process. Call the
// returned stop when the command finishes normally.
func HandleSignals(parent context.Context, logger *slog.Logger, grace time.Duration) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, initiating graceful shutdown", "signal", sig.String())
			cancel()
		case <-done:
			return
		}

		select {
		case sig := <-sigCh:
			logger.Warn("received second signal, forcing immediate shutdown", "signal", sig.String())
			os.Exit(1)
		case <-time.After(grace):
			logger.Warn("graceful shutdown timed out, forcing exit", "grace", grace)
			os.Exit(1)
		case <-done:
		}
	}()

	stop := func() {
		signal.Stop(sigCh)
		close(done)
		cancel()
	}
	return ctx, stop
}

// ServeMetrics starts a /metrics and /health listener on addr in the
// background. An empty addr disables it.
func ServeMetrics(addr string, logger *slog.Logger) {
	if addr == "" {
		return
	}
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		})
		logger.Info("starting metrics server", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()
}
