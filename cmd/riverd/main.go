// riverd runs a validation river against a NATS server: it subscribes to
// the configured subjects, validates every inbound message against the
// configured rules, and hands outcomes to the configured listeners.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360/riverkit/busclient"
	"github.com/c360/riverkit/config"
	"github.com/c360/riverkit/health"
	"github.com/c360/riverkit/input/websocket"
	"github.com/c360/riverkit/metric"
	"github.com/c360/riverkit/river"
)

// Version is set at build time via ldflags
var Version = "dev"

const appName = "riverd"

func main() {
	cli := parseFlags()

	if cli.ShowVersion {
		fmt.Printf("%s %s\n", appName, Version)
		return
	}

	if err := run(cli); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}

func run(cli *CLIConfig) error {
	cfg, err := config.Load(cli.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", cli.ConfigPath, err)
	}

	if cli.Validate {
		fmt.Printf("%s: configuration valid (%d subjects, %d rules)\n",
			appName, len(cfg.Subjects), len(cfg.Rules))
		return nil
	}

	// CLI flags win over the config file for logging.
	level := cli.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	format := cli.LogFormat
	if format == "" {
		format = cfg.Logging.Format
	}
	logger := setupLogger(level, format)

	logger.Info("Starting riverd",
		"config", cli.ConfigPath,
		"subjects", cfg.Subjects,
		"rules", len(cfg.Rules))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := metric.NewMetricsRegistry()

	clientOpts := []busclient.Option{
		busclient.WithLogger(logger.With("component", "busclient")),
		busclient.WithClientName(appName),
		busclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
		busclient.WithReconnectWait(cfg.NATS.ReconnectWait.Std()),
		busclient.WithTimeout(cfg.NATS.Timeout.Std()),
	}
	if cfg.NATS.Username != "" {
		clientOpts = append(clientOpts, busclient.WithCredentials(cfg.NATS.Username, cfg.NATS.Password))
	}
	if cfg.NATS.Token != "" {
		clientOpts = append(clientOpts, busclient.WithToken(cfg.NATS.Token))
	}

	client, err := busclient.NewClient(cfg.NATS.URL, clientOpts...)
	if err != nil {
		return fmt.Errorf("create bus client: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.NATS.Timeout.Std())
	err = client.Connect(connectCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.NATS.URL, err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Close(closeCtx); err != nil {
			logger.Warn("Bus client close failed", "error", err)
		}
	}()

	r := river.New(client,
		river.WithLogger(logger.With("component", "river")),
		river.WithMetrics(registry),
	)
	if err := cfg.ConfigureRiver(r); err != nil {
		return fmt.Errorf("configure river: %w", err)
	}

	if cfg.Listeners.Log {
		r.Register(river.NewLogListener(logger.With("component", "loglistener")))
	}
	if cfg.Listeners.DeadLetterSubject != "" {
		r.Register(river.NewDeadLetterListener(
			cfg.Listeners.DeadLetterSubject,
			logger.With("component", "deadletter")))
	}

	if err := r.Bind(ctx, cfg.Subjects...); err != nil {
		return fmt.Errorf("bind subjects: %w", err)
	}

	if cfg.WebSocket.Enabled {
		ingress, err := websocket.NewInput(websocket.Config{
			Addr:            cfg.WebSocket.Addr,
			Path:            cfg.WebSocket.Path,
			MaxMessageBytes: cfg.WebSocket.MaxMessageBytes,
		}, r, logger.With("component", "websocket"), registry)
		if err != nil {
			return fmt.Errorf("create websocket ingress: %w", err)
		}
		if err := ingress.Start(ctx); err != nil {
			return fmt.Errorf("start websocket ingress: %w", err)
		}
		defer func() {
			if err := ingress.Stop(5 * time.Second); err != nil {
				logger.Warn("WebSocket ingress stop failed", "error", err)
			}
		}()
	}

	var httpServer *http.Server
	if cfg.Metrics.Enabled {
		httpServer = serveHTTP(cfg.Metrics.Addr, registry, client, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("HTTP server shutdown failed", "error", err)
			}
		}()
	}

	logger.Info("riverd running", "version", Version)
	<-ctx.Done()
	logger.Info("Shutdown signal received")

	return nil
}

// serveHTTP exposes /metrics and /healthz on addr.
func serveHTTP(addr string, registry *metric.MetricsRegistry, client *busclient.Client, logger *slog.Logger) *http.Server {
	monitor := health.NewMonitor(appName)
	monitor.RegisterCheck("busclient", func() health.Status {
		status := client.Status()
		switch status {
		case busclient.StatusConnected:
			return health.NewHealthy("busclient", "connected")
		case busclient.StatusReconnecting, busclient.StatusConnecting:
			return health.NewDegraded("busclient", status.String())
		default:
			return health.NewUnhealthy("busclient", status.String())
		}
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(
		registry.PrometheusRegistry(),
		promhttp.HandlerOpts{},
	))
	mux.Handle("/healthz", monitor)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Metrics endpoint listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server failed", "addr", addr, "error", err)
		}
	}()

	return server
}
