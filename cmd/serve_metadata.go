package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kleoslabs/kleos/internal/metastore"
	"github.com/kleoslabs/kleos/pkg/config"
	"github.com/kleoslabs/kleos/pkg/healthprobe"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveMetadataCmd = &cobra.Command{
	Use:   "serve-metadata",
	Short: "Run the metadata bridge service",
	Long: `Run the metadata bridge: the HTTP API over PostgreSQL that
stores market questions keyed by on-chain market index. The CLI and any
other client persist and read questions through this service.

Exposes /markets for metadata, /metrics for Prometheus, /health and
/ready for probes. Shuts down gracefully on SIGINT/SIGTERM.`,
	RunE: runServeMetadata,
}

func init() {
	rootCmd.AddCommand(serveMetadataCmd)
}

func runServeMetadata(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found\n")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	store, err := metastore.NewPostgresStore(&metastore.PostgresConfig{
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPass,
		Database: cfg.PostgresDB,
		SSLMode:  cfg.PostgresSSL,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("connect metastore: %w", err)
	}

	healthChecker := healthprobe.New()
	healthChecker.SetDependencyCheck(func() error {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return store.Ping(pingCtx)
	})
	server := metastore.NewServer(&metastore.ServerConfig{
		Port:          cfg.HTTPPort,
		Store:         store,
		Logger:        logger,
		HealthChecker: healthChecker,
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Start(); err != nil {
			logger.Error("metastore-server-error", zap.Error(err))
		}
	}()

	healthChecker.SetReady(true)
	logger.Info("metadata-bridge-ready", zap.String("http-addr", ":"+cfg.HTTPPort))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))

	healthChecker.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("metastore-server-shutdown-error", zap.Error(err))
	}
	if err := store.Close(); err != nil {
		logger.Error("metastore-close-error", zap.Error(err))
	}

	wg.Wait()
	logger.Info("metadata-bridge-shutdown-complete")

	return nil
}
