// Command server runs the teamflow HTTP API: team scope selection, the task
// succession graph, the audit log and realtime event streams.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/teamflow/internal/app"
	"github.com/charlesng35/teamflow/pkg/logger"
)

const (
	defaultShutdownTimeout = 15 * time.Second
	readHeaderTimeout      = 10 * time.Second
	idleTimeout            = 2 * time.Minute
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout)
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
	default:
		fmt.Fprintf(os.Stderr, "teamflow: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath  string
	checkConfig bool
}

func parseFlags(args []string, out io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("teamflow-server", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&opts.configPath, "config", "", "config directory, or a .yaml file")
	fs.BoolVar(&opts.checkConfig, "check-config", false, "validate the configuration and exit")
	err := fs.Parse(args)
	opts.configPath = strings.TrimSpace(opts.configPath)
	return opts, err
}

func run(ctx context.Context, args []string, out io.Writer) error {
	opts, err := parseFlags(args, out)
	if err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.checkConfig {
		fmt.Fprintf(out, "configuration ok (database=%s, redis=%t, port=%d)\n",
			cfg.Database.Driver, cfg.Cache.Redis.Enabled, cfg.Server.Port)
		return nil
	}

	if err := app.ConfigureLogging(cfg.Server); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.WithModule("bootstrap")
	stack, err := bootstrapRuntime(ctx, cfg, log)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           stack.Router,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	runErr := serve(ctx, server, log)

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("graceful shutdown: %w", err)
	}
	stack.Shutdown(shutdownCtx, log)

	if runErr == nil {
		log.Info("server stopped")
	}
	return runErr
}

// serve runs server until ctx is cancelled or the listener fails.
func serve(ctx context.Context, server *http.Server, log *zap.Logger) error {
	failed := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		return nil
	case err := <-failed:
		return fmt.Errorf("listen: %w", err)
	}
}

// loadApplicationConfig reads configuration from path, or from the default
// search locations when path is empty.
func loadApplicationConfig(path string) (*app.Config, error) {
	if path == "" {
		return app.LoadConfig()
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
	return app.LoadConfig(path)
}
