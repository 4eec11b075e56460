package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eion/usersdb/internal/api"
	"github.com/eion/usersdb/internal/config"
	"github.com/eion/usersdb/internal/database"
	"github.com/eion/usersdb/internal/users"
)

// InitServeCommand registers the HTTP server command
func InitServeCommand(rootCmd *cobra.Command, opts *GlobalOptions) {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the user operations over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context(), opts)
		},
	})
}

func runServer(ctx context.Context, opts *GlobalOptions) error {
	cfg, logger, err := opts.load()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Database configuration",
		zap.String("driver", cfg.Database.Driver),
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("database", cfg.Database.Database),
		zap.String("delete_mode", cfg.Database.DeleteMode))

	handle, err := database.Acquire(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := handle.Release(); err != nil {
			logger.Error("Error releasing database connection", zap.Error(err))
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := users.Migrate(ctx, handle.DB); err != nil {
			return err
		}
	}

	health := database.NewHealth(logger, database.NewPoolProbe(handle.DB))
	if err := health.Startup(ctx); err != nil {
		return err
	}

	store := users.NewUserStore(handle.DB, users.WithCascadeDeletes(cfg.Database.CascadeDeletes()))
	router := api.SetupRouter(users.NewUserService(store), health, cfg.HTTP, logger)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := setupSignalHandler(server, cfg.HTTP, logger)

	logger.Info("Starting usersdb server", zap.String("address", addr))

	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	<-done
	logger.Info("Server shutdown complete")
	return nil
}

func setupSignalHandler(server *http.Server, httpConfig config.HTTPConfig, logger *zap.Logger) chan struct{} {
	done := make(chan struct{}, 1)

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signalCh

		logger.Info("Shutting down server...")

		timeout := time.Duration(httpConfig.ShutdownTimeout) * time.Second
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Error during server shutdown", zap.Error(err))
		}

		done <- struct{}{}
	}()

	return done
}
