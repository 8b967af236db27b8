package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/datar-psa/evalservice"
	"github.com/datar-psa/evalservice/config"
	"github.com/datar-psa/evalservice/observability"
	"github.com/datar-psa/evalservice/server"
)

func buildServeCmd() *cobra.Command {
	var (
		configPath string
		addr       string
		logFormat  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the evaluation HTTP server",
		Long: `Start the evaluation HTTP server.

The metric timeout is re-read from the config file whenever it changes.
Graceful shutdown is handled on SIGINT/SIGTERM signals.`,
		Example: `  evalserver serve --config /etc/evalserver.yaml
  METRIC_TIMEOUT=2.5 evalserver serve --addr :9000 --log-format text`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath, addr, logFormat)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides server.addr")
	cmd.Flags().StringVar(&logFormat, "log-format", "", "Log format (json|text), overrides log.format")
	return cmd
}

func buildMetricsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "List the metrics the server would register",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			svc, err := evalservice.FromConfig(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range svc.Registry.Names() {
				fmt.Fprintln(out, name)
			}
			fmt.Fprintf(out, "timeout: %s\n", svc.Executor.Timeout())
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	return cmd
}

func runServe(ctx context.Context, configPath, addr, logFormat string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}

	logger, err := observability.NewLogger(os.Stderr, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, observability.TraceConfig{
		ServiceName:    "evalservice",
		ServiceVersion: version,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
		Insecure:       cfg.Tracing.Insecure,
	})
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			slog.Warn("tracing shutdown failed", "error", err)
		}
	}()

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(promReg)

	svc, err := evalservice.FromConfig(ctx, cfg, metrics)
	if err != nil {
		return fmt.Errorf("failed to build service: %w", err)
	}

	slog.Info("evalserver starting",
		"version", version,
		"addr", cfg.Server.Addr,
		"metrics", svc.Registry.Names(),
		"metric_timeout", svc.Executor.Timeout(),
		"fault_policy", svc.Executor.FaultPolicy(),
		"translation", svc.Preprocessor != nil,
	)

	if configPath != "" {
		go func() {
			err := config.Watch(ctx, configPath, func(next *config.Config) {
				svc.Executor.SetTimeout(next.Metrics.Timeout)
			})
			if err != nil {
				slog.Warn("config watch stopped", "error", err)
			}
		}()
	}

	httpSrv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: server.New(server.Config{
			Registry:     svc.Registry,
			Executor:     svc.Executor,
			Pipeline:     svc.Pipeline,
			Preprocessor: svc.Preprocessor,
			Metrics:      metrics,
			Gatherer:     promReg,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}
	slog.Info("HTTP server listening", "addr", ln.Addr().String())
	return serve(observability.NewContext(ctx, logger), httpSrv, ln, cfg.Server.ShutdownTimeout)
}

// serve runs srv on ln until ctx is done, then lets in-flight requests finish
// for up to drain. Requests still running after that have their contexts
// cancelled, which the handler answers with 499.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, drain time.Duration) error {
	// Request contexts outlive the signal; they are cancelled only once draining gives up.
	base, cancelBase := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelBase()
	srv.BaseContext = func(net.Listener) context.Context { return base }

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("evalserver shutting down", "drain", drain)
	sctx, cancel := context.WithTimeout(context.Background(), drain)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		if !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		slog.Warn("drain timeout elapsed, cancelling in-flight requests")
		cancelBase()
		return srv.Close()
	}
	return nil
}
