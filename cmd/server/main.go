// Package main is the entry point for the price dashboard API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"crypto-dash/internal/api"
	"crypto-dash/internal/config"
	"crypto-dash/internal/domain"
	athenaengine "crypto-dash/internal/engine/athena"
	"crypto-dash/internal/engine/local"
	"crypto-dash/internal/metrics"
	"crypto-dash/internal/middleware"
	"crypto-dash/internal/service/prices"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// options are the command-line flags of the server binary.
type options struct {
	envFile     string
	addr        string
	showVersion bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	flags := pflag.NewFlagSet("crypto-dash", pflag.ContinueOnError)
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	flags.StringVar(&opts.addr, "addr", "", "listen address, overrides LISTEN_ADDR")
	flags.BoolVar(&opts.showVersion, "version", false, "print the version and exit")
	err := flags.Parse(args)
	return opts, err
}

// loadConfig reads the dotenv file, then the environment, then applies flag
// overrides.
func loadConfig(opts options) (*config.Config, error) {
	// Load .env file if present (env vars take precedence)
	if err := config.LoadDotEnv(opts.envFile); err != nil {
		return nil, fmt.Errorf("load %s: %w", opts.envFile, err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if opts.addr != "" {
		cfg.ListenAddr = opts.addr
	}
	return cfg, nil
}

func run(args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if opts.showVersion {
		_, _ = fmt.Fprintln(stdout, version)
		return nil
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn("config warning", "warning", w)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	eng, closeEngine, err := openEngine(ctx, cfg, logger.With("component", "engine"))
	if err != nil {
		return err
	}
	defer closeEngine()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	svc := prices.NewPriceService(eng, prices.Settings{
		Table:              cfg.PriceTable,
		Database:           cfg.Athena.Database,
		OutputLocation:     cfg.Athena.OutputLocation,
		PollInterval:       cfg.PollInterval,
		QueryTimeout:       cfg.QueryTimeout,
		StatusCheckRetries: cfg.StatusCheckRetries,
	}, logger.With("component", "prices"), m)

	router := api.NewRouter(api.RouterConfig{
		Prices:         svc,
		Engine:         cfg.Engine,
		Version:        version,
		Logger:         logger.With("component", "http"),
		Metrics:        m,
		Gatherer:       reg,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimit: middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		},
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.QueryTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP API listening", "addr", cfg.ListenAddr, "engine", cfg.Engine, "version", version)
		logger.Info("try it", "curl", "curl '"+localURL(cfg.ListenAddr, "/crypto?days=7")+"'")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openEngine constructs the configured query engine and a func that releases it.
func openEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (domain.QueryEngine, func(), error) {
	switch cfg.Engine {
	case config.EngineLocal:
		eng, err := local.Open(ctx, cfg.LocalSeedPath, cfg.PriceTable, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open local engine: %w", err)
		}
		return eng, func() {
			if err := eng.Close(); err != nil {
				logger.Warn("close local engine", "error", err)
			}
		}, nil
	default:
		eng, err := athenaengine.New(ctx, cfg.Athena)
		if err != nil {
			return nil, nil, fmt.Errorf("create athena engine: %w", err)
		}
		logger.Info("athena engine ready",
			"database", cfg.Athena.Database,
			"region", cfg.Athena.Region,
			"workgroup", cfg.Athena.WorkGroup,
			"result_source", cfg.Athena.ResultSource,
		)
		return eng, func() {}, nil
	}
}

// localURL builds a URL on this machine for the given listen address, so the
// startup log can print something that works when pasted into a shell.
func localURL(listenAddr, path string) string {
	host, port, err := net.SplitHostPort(strings.TrimSpace(listenAddr))
	if err != nil || port == "" {
		host, port = "", "8080"
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + path
}
