package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/prasenjit/servicevirt/internal/api"
	"github.com/prasenjit/servicevirt/internal/audit"
	"github.com/prasenjit/servicevirt/internal/catalog"
	"github.com/prasenjit/servicevirt/internal/condition"
	"github.com/prasenjit/servicevirt/internal/config"
	"github.com/prasenjit/servicevirt/internal/dispatch"
	"github.com/prasenjit/servicevirt/internal/expression"
	"github.com/prasenjit/servicevirt/internal/logging"
	"github.com/prasenjit/servicevirt/internal/proxy"
	"github.com/prasenjit/servicevirt/internal/selector"
	"github.com/prasenjit/servicevirt/internal/stats"
	"github.com/prasenjit/servicevirt/internal/storage"
	"github.com/prasenjit/servicevirt/internal/transport"
	"github.com/prasenjit/servicevirt/internal/xpath"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the servicevirt server",
	Long: `Starts the service virtualization server.

The server will:
  - Load services and operations from the configured storage
  - Expose the Admin API at /_api/
  - Serve every other request from the matching virtual operation

Configuration is loaded from config.yaml in the current directory,
or specify a custom config file with the --config flag.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "Override server port")
	serveCmd.Flags().Bool("demo", false, "Serve forwarding operations from their mock responses")
	serveCmd.Flags().String("storage", "", "Override storage type (memory or file)")

	// Bind flags to viper
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("dispatch.demoMode", serveCmd.Flags().Lookup("demo"))
	viper.BindPFlag("storage.type", serveCmd.Flags().Lookup("storage"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := openStorage(cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage", zap.Error(err))
		}
	}()

	metrics := stats.NewMetrics()
	collector := stats.NewCollector(metrics)

	auditService := audit.NewService(cfg.Audit.MaxEvents, cfg.Audit.BufferSize, logger.Named("audit"))
	defer auditService.Close()

	forwarder := transport.NewForwarder(nil, transport.BreakerSettings{
		Failures:         cfg.Dispatch.Breaker.Failures,
		Timeout:          cfg.Dispatch.Breaker.Timeout,
		HalfOpenRequests: cfg.Dispatch.Breaker.HalfOpenRequests,
	}, logger.Named("transport"))

	cat := catalog.New(store, logger.Named("catalog"))

	dispatcher := dispatch.New(dispatch.Options{
		Resolver:       cat,
		Repository:     store,
		Forwarder:      forwarder,
		Auditor:        auditService,
		Observer:       collector,
		Rewriter:       expression.NewEvaluator(expression.DefaultRegistry(nil, nil), logger.Named("expression")),
		Selector:       selector.New(xpath.NewMatcher(logger.Named("xpath")), condition.NewEvaluator()),
		Logger:         logger.Named("dispatch"),
		DemoMode:       cfg.Dispatch.DemoMode,
		ForwardTimeout: cfg.Dispatch.ForwardTimeout,
	})

	router := api.NewRouter(api.Options{
		Store:      store,
		Catalog:    cat,
		Dispatcher: dispatcher,
		Collector:  collector,
		Metrics:    metrics,
		Audit:      auditService,
		Forwarder:  forwarder,
		Proxy:      proxy.NewHandler(dispatcher, logger.Named("proxy")),
		Logger:     logger.Named("api"),
	})

	server := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting servicevirt server",
			zap.String("addr", server.Addr),
			zap.String("storage", cfg.Storage.Type),
			zap.Bool("demoMode", cfg.Dispatch.DemoMode))
		logger.Info("Admin API available", zap.String("url", fmt.Sprintf("http://%s/_api/", server.Addr)))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("Shutting down server", zap.String("signal", sig.String()))
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	logger.Info("Server stopped")
	return nil
}

// openStorage creates the configured storage backend
func openStorage(cfg config.StorageConfig, logger *zap.Logger) (storage.Storage, error) {
	if cfg.Type != "file" {
		return storage.NewMemoryStorage(), nil
	}

	path := cfg.Path
	if !filepath.IsAbs(path) {
		if cwd, err := os.Getwd(); err == nil {
			path = filepath.Join(cwd, path)
		}
	}
	logger.Info("Using data directory", zap.String("path", path))

	store, err := storage.NewFileStorage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}
	return store, nil
}
