// Command isnadd is the trust attestation ledger daemon: it loads
// configuration, wires the ledger and supporting engines, mounts the REST
// API, and runs a periodic platform scan alongside the HTTP server.
// Grounded on the teacher's cmd/gateway/main.go flag/config/logging
// bootstrap sequence, trimmed of the OpenTelemetry wiring since this
// service's ambient stack doesn't carry that dependency.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"isnad/api"
	"isnad/config"
	"isnad/observability/logging"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "path to daemon configuration")
	flag.Parse()

	if cfgPath == "" {
		cfgPath = strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	}
	if cfgPath == "" {
		cfgPath = "./isnad.toml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	level := logging.ParseLevel(os.Getenv("LOG_LEVEL"))
	logFile := logging.RotatingFile(cfg.DataDir, "isnadd.log")
	logger := logging.Setup("isnadd", level, logFile)

	app, err := api.New(cfg)
	if err != nil {
		logger.Error("init app", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := &http.Server{
		Addr:    cfg.ListenAddress,
		Handler: app.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interval := time.Duration(cfg.WorkerInterval) * time.Second
	if interval <= 0 {
		interval = 300 * time.Second
	}
	go runScanWorker(ctx, app, interval, logger)

	go func() {
		logger.Info("listening", "address", cfg.ListenAddress)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("serve", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}

// runScanWorker periodically sweeps every discovered agent's declared
// platform URL, honoring WORKER_INTERVAL. Mirrors the suspension-point
// mapping from the concurrency model: the ticker is the cooperative
// scheduler's tick, the scan itself suspends on network I/O.
func runScanWorker(ctx context.Context, app *api.App, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := app.ScanDiscoveredAgents(ctx)
			logger.Info("scan cycle complete", "targets", n)
		}
	}
}
