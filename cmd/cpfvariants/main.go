package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cpfvariants/internal/config"
	logpkg "github.com/kailas-cloud/cpfvariants/internal/logger"
	"github.com/kailas-cloud/cpfvariants/internal/metrics"
	chiTransport "github.com/kailas-cloud/cpfvariants/internal/transport/chi"
	"github.com/kailas-cloud/cpfvariants/internal/transport/cli"
	healthuc "github.com/kailas-cloud/cpfvariants/internal/usecase/health"
	searchuc "github.com/kailas-cloud/cpfvariants/internal/usecase/search"
	"github.com/kailas-cloud/cpfvariants/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	globals := &cli.GlobalOptions{Env: config.GetEnv()}
	render := cli.NewRenderer(os.Stdout, os.Stderr)

	runServe := func(ctx context.Context, opts cli.ServeOptions) error {
		cfg, err := loadConfig(globals, true)
		if err != nil {
			return err
		}
		if opts.Port > 0 {
			cfg.HTTP.Port = opts.Port
		}

		logger, err := logpkg.NewLogger(globals.Env, cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		return serve(ctx, cfg, globals.Env, logger)
	}

	runSearch := func(ctx context.Context, opts cli.SearchOptions) error {
		cfg, err := loadConfig(globals, false)
		if err != nil {
			return err
		}

		logger, err := logpkg.NewCLILogger(globals.Verbose)
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		svc := newSearchService(cfg.Search, logger)
		if opts.Workers > 0 {
			svc.WithWorkers(opts.Workers)
		}
		return cli.NewSearcher(svc, render).Run(ctx, opts)
	}

	root := cli.NewRootCmd(version.String(), globals)
	root.AddCommand(
		cli.NewServeCmd(runServe),
		cli.NewSearchCmd(runSearch),
		cli.NewValidateCmd(render),
		cli.NewFormatCmd(render),
		cli.NewRegionsCmd(render),
	)

	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		render.Error(err)
		os.Exit(1)
	}
}

// loadConfig reads --config, or config/<env>.yaml. One-shot commands fall
// back to defaults when no file exists; the server requires one.
func loadConfig(globals *cli.GlobalOptions, required bool) (config.Config, error) {
	if globals.ConfigPath != "" {
		return config.LoadFile(globals.ConfigPath)
	}
	cfg, err := config.Load(globals.Env)
	if err != nil && !required && errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

func newSearchService(cfg config.SearchConfig, logger *zap.Logger) *searchuc.Service {
	return searchuc.New(logger).
		WithMaxChanges(cfg.MaxChanges).
		WithProgressEvery(cfg.ProgressEvery).
		WithYieldEvery(cfg.YieldEvery).
		WithWorkers(cfg.Workers).
		WithYielder(searchuc.GoschedYielder{})
}

func serve(ctx context.Context, cfg config.Config, env string, logger *zap.Logger) error {
	logger.Info("Starting cpfvariants API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Int("max_changes", cfg.Search.MaxChanges),
		zap.Int("workers", cfg.Search.Workers),
	)

	// Register metrics explicitly (no init())
	metrics.Register()

	searchSvc := newSearchService(cfg.Search, logger).
		WithRecorder(metrics.SearchRecorder{})
	healthSvc := healthuc.New().
		WithChecker("search_engine", searchuc.NewSelfTest())

	server := chiTransport.NewServer(searchSvc, healthSvc, logger).
		WithTimeout(time.Duration(cfg.Search.TimeoutSec) * time.Second)

	r := chi.NewRouter()
	r.Use(chiTransport.JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.WideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
		return err
	}

	logger.Info("Server stopped gracefully")
	return nil
}
