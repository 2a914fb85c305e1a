package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", os.Getenv("TODO_CONFIG"), "path to a TOML config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath, os.Getenv)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// JSON logs to stdout, optionally shipped to a webhook as well
	level, _ := cfg.slogLevel()
	shipper := newLogShipper(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}),
		cfg.LogWebhookURL,
		cfg.LogWebhookToken,
	)
	slog.SetDefault(slog.New(shipper))

	if err := run(cfg); err != nil {
		slog.Error("server stopped", "error", err)
		flushLogs(shipper)
		os.Exit(1)
	}
	flushLogs(shipper)
}

// run opens storage and serves until SIGINT/SIGTERM
func run(cfg Config) error {
	storage, err := openStorage(cfg.StorageDriver, cfg.DBPath, cfg.StorageQuotaBytes)
	if err != nil {
		return err
	}
	defer storage.Close()

	coll, err := newCollator(cfg.SortLocale)
	if err != nil {
		return err
	}

	store := NewTodoStore(storage, cfg.StorageKey, WithCollator(coll))
	// First read creates the empty map if needed and primes the items gauge
	store.Load()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(store, newTodoView(store)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			"port", cfg.Port,
			"storage_driver", cfg.StorageDriver,
			"storage_key", store.Key(),
			"version", version,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newRouter mounts the page, the JSON API, health and metrics
// Every route goes through the logging/metrics middleware
func newRouter(store *TodoStore, view *todoView) http.Handler {
	api := &todosAPI{store: store}

	mux := http.NewServeMux()
	mux.Handle("/api/todos", api)
	mux.Handle("/api/todos/", api)
	mux.HandleFunc("GET /health", healthHandler(store))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("/", view.Handler())

	return withRequestLogging(mux)
}

func flushLogs(shipper *logShipper) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shipper.Flush(ctx); err != nil {
		os.Stderr.WriteString("log webhook: flush: " + err.Error() + "\n")
	}
}
