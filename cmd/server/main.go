package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hangspot/internal/config"
	"hangspot/internal/db"
	"hangspot/internal/logger"
	"hangspot/internal/router"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	rootCmd = &cobra.Command{
		Use:   "hangspot",
		Short: "Share Wifi and Hangout spots with other people",
		// 不带子命令时直接启动服务
		RunE: runServe,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Migrate the database and start the HTTP server",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE:  runMigrate,
	}
)

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
	rootCmd.SilenceUsage = true
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration, builds the logger and opens a migrated database.
func setup() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg := config.Load()

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	conn, err := db.Open(cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := db.Migrate(conn); err != nil {
		_ = db.Close(conn)
		return nil, nil, nil, err
	}
	log.Info("database ready", zap.String("driver", cfg.Database.Driver))

	return cfg, log, conn, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	_, log, conn, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()
	return db.Close(conn)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, conn, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer db.Close(conn)

	r, err := router.New(cfg, conn, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("Hangspot server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
