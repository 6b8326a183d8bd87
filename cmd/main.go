package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	app "github.com/okian/bullseye/internal/app"
	"github.com/okian/bullseye/internal/config"
	"github.com/okian/bullseye/pkg/logger"

	"github.com/urfave/cli/v2"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

const (
	configFlag = "config"
	addrFlag   = "addr"
	queryFlag  = "query"
)

var build string
var semanticVersion = "v0.1.0-dev" + build

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		os.Stderr.WriteString("bullseye: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "bullseye",
		Usage:   "Control layer for the target scoring backend",
		Version: semanticVersion,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    configFlag,
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
				EnvVars: []string{"BULLSEYE_CONFIG"},
			},
		},
		Before: func(cCtx *cli.Context) error {
			// config.Load reads the file location from the environment.
			if path := cCtx.String(configFlag); path != "" {
				return os.Setenv("BULLSEYE_CONFIG", path)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the control HTTP API",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  addrFlag,
						Usage: "Listen address, overrides the configured addr",
					},
				},
				Action: serve,
			},
			{
				Name:  "analytics",
				Usage: "Fetch analytics once for a filter query and print the summary",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    queryFlag,
						Aliases: []string{"q"},
						Usage:   "Filter query, e.g. athlete_ids=1,2&modes=training",
					},
				},
				Action: analyticsOnce,
			},
		},
	}
}

// setup loads configuration and initializes logging on the app's error stream.
func setup(cCtx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(cCtx.Context)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(logger.WithOutput(cCtx.App.ErrWriter), logger.WithJSON(cfg.LogJSON)); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(cCtx.Context, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

func serve(cCtx *cli.Context) error {
	cfg, err := setup(cCtx)
	if err != nil {
		return err
	}
	if addr := cCtx.String(addrFlag); addr != "" {
		cfg.Addr = addr
	}
	ctx := cCtx.Context
	log := logger.Get()

	svc := app.New(app.WithConfig(cfg), app.WithLogger(log.Named("service")))
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := svc.Stop(stopCtx); err != nil {
			log.Error(stopCtx, "service stop failed", logger.Error(err))
		}
	}()

	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           svc.Handler(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// analyticsOnce reconciles the query with the stored filter, fetches once and
// prints the summary as JSON.
func analyticsOnce(cCtx *cli.Context) error {
	cfg, err := setup(cCtx)
	if err != nil {
		return err
	}
	ctx := cCtx.Context

	svc := app.New(app.WithConfig(cfg), app.WithLogger(logger.Get().Named("service")))
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer func() { _ = svc.Stop(context.Background()) }()

	orch := svc.Analytics()
	err = svc.Submit(ctx, "cli.analytics", func(ctx context.Context) error {
		s, err := orch.Load(ctx, cCtx.String(queryFlag))
		if err != nil {
			logger.Get().Warn(ctx, "filter defaults unavailable", logger.Error(err))
		}
		return orch.Apply(ctx, s)
	})
	if err != nil {
		return err
	}

	snap := orch.Snapshot()
	out := struct {
		URL     string `json:"url"`
		Query   string `json:"query"`
		Summary any    `json:"summary"`
	}{URL: snap.URL, Query: snap.Query}
	if snap.Views != nil {
		out.Summary = snap.Views.Summary
	}
	enc := json.NewEncoder(cCtx.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// startServiceMetricsUpdater refreshes service gauges until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// GetStats publishes the queue gauge as a side effect.
			_ = svc.GetStats()
		}
	}
}
