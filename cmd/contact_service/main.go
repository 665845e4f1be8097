package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jeremiasbittencourt/sistema-agendamento/internal/contact_service/app"
	"github.com/jeremiasbittencourt/sistema-agendamento/internal/contact_service/domain"
	"github.com/jeremiasbittencourt/sistema-agendamento/internal/contact_service/repository/memory"
	"github.com/jeremiasbittencourt/sistema-agendamento/internal/contact_service/repository/postgres"
	httptransport "github.com/jeremiasbittencourt/sistema-agendamento/internal/contact_service/transport/http"
	"github.com/jeremiasbittencourt/sistema-agendamento/internal/platform/config"
	"github.com/jeremiasbittencourt/sistema-agendamento/internal/platform/database"
	"github.com/jeremiasbittencourt/sistema-agendamento/internal/platform/logger"
)

const serviceName = "contact_service"

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configDir string

	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Contact management HTTP API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configDir, "config", "", "directory containing config.defaults.yaml")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withConfig(cmd.Context(), configDir, runServe)
		},
	}
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withConfig(cmd.Context(), configDir, runMigrate)
		},
	}

	root.AddCommand(serve, migrate)
	root.RunE = serve.RunE
	return root
}

func withConfig(ctx context.Context, configDir string, fn func(context.Context, *config.Config, *slog.Logger) error) error {
	var paths []string
	if configDir != "" {
		paths = append(paths, configDir)
	}
	cfg, err := config.Load(serviceName, paths...)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		return err
	}

	appLogger := logger.New(cfg.LogLevel, cfg.LogFormat).With("service", serviceName)
	if err := fn(ctx, cfg, appLogger); err != nil {
		appLogger.Error("Command failed", "error", err)
		return err
	}
	return nil
}

func runMigrate(ctx context.Context, cfg *config.Config, appLogger *slog.Logger) error {
	if cfg.StorageDriver != config.StorageDriverPostgres {
		appLogger.Info("Memory storage selected, nothing to migrate")
		return nil
	}
	dbPool, err := database.NewDBPool(ctx, cfg.PostgresDSN, database.PoolOptions{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns}, appLogger)
	if err != nil {
		return err
	}
	defer dbPool.Close()
	return database.RunMigrations(ctx, dbPool, appLogger)
}

// openRepository builds the configured storage. The returned cleanup is never nil.
func openRepository(ctx context.Context, cfg *config.Config, appLogger *slog.Logger) (domain.ContactRepository, func(), error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		repo, err := memory.NewMemContactRepository(appLogger)
		if err != nil {
			return nil, func() {}, err
		}
		appLogger.Warn("Using in-memory storage; data is lost on restart")
		return repo, func() {}, nil
	}

	dbPool, err := database.NewDBPool(ctx, cfg.PostgresDSN, database.PoolOptions{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns}, appLogger)
	if err != nil {
		return nil, func() {}, err
	}
	if cfg.RunMigrations {
		if err := database.RunMigrations(ctx, dbPool, appLogger); err != nil {
			dbPool.Close()
			return nil, func() {}, fmt.Errorf("running migrations: %w", err)
		}
	}
	return postgres.NewPgContactRepository(dbPool, appLogger), dbPool.Close, nil
}

func runServe(ctx context.Context, cfg *config.Config, appLogger *slog.Logger) error {
	mainCtx, mainCancel := context.WithCancel(ctx)
	defer mainCancel()

	repo, closeRepo, err := openRepository(mainCtx, cfg, appLogger)
	if err != nil {
		return err
	}
	defer closeRepo()

	application := app.NewApplication(repo, appLogger)
	handler := httptransport.NewContactHandler(application, appLogger)
	router := httptransport.NewRouter(httptransport.RouterConfig{
		RequestTimeout: cfg.HTTPRequestTimeout,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}, handler, application, appLogger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: cfg.HTTPReadHeaderTimeout,
	}

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		appLogger.Info("HTTP server starting", "address", httpServer.Addr, "storage", cfg.StorageDriver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server failed to serve", "error", err)
			return err
		}
		return nil
	})

	g.Go(func() error {
		stopSignal := make(chan os.Signal, 1)
		signal.Notify(stopSignal, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(stopSignal)
		select {
		case sig := <-stopSignal:
			appLogger.Info("Received termination signal", "signal", sig.String())
			mainCancel()
		case <-groupCtx.Done():
		}
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		appLogger.Info("Initiating graceful shutdown of HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("HTTP server shutdown failed", "error", err)
			return err
		}
		appLogger.Info("HTTP server has been shut down gracefully.")
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	appLogger.Info("Service shut down.")
	return nil
}
