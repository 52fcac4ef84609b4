package cmd

import (
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kleoslabs/kleos/internal/epoch"
	"github.com/kleoslabs/kleos/internal/oracle"
	"github.com/kleoslabs/kleos/pkg/config"
	"github.com/spf13/cobra"
)

var watchFeedCmd = &cobra.Command{
	Use:   "watch-feed <feed-id> [feed-id...]",
	Short: "Stream live oracle feed prices",
	Long: `Subscribe to oracle price feeds over websocket and print each
update with its epoch. Reconnects automatically with backoff when the
connection drops. Stop with Ctrl+C.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatchFeed,
}

func init() {
	rootCmd.AddCommand(watchFeedCmd)
}

func runWatchFeed(cmd *cobra.Command, args []string) error {
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

	stream, err := oracle.NewStream(oracle.StreamConfig{
		URL:               cfg.OracleWSURL,
		FeedIDs:           args,
		DialTimeout:       cfg.WSDialTimeout,
		PingInterval:      cfg.WSPingInterval,
		ReconnectInitial:  cfg.WSReconnectInitialDelay,
		ReconnectMax:      cfg.WSReconnectMaxDelay,
		ReconnectMultiply: cfg.WSReconnectBackoffMult,
		BufferSize:        cfg.WSMessageBufferSize,
		Logger:            logger,
	})
	if err != nil {
		return err
	}

	if err := stream.Start(); err != nil {
		return fmt.Errorf("start stream: %w", err)
	}
	defer stream.Stop()

	fmt.Printf("Watching %d feed(s). Ctrl+C to stop.\n\n", len(args))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case feed, ok := <-stream.Updates():
			if !ok {
				return nil
			}
			epochID, err := epoch.Compute(feed.Timestamp, 0, int64(cfg.EpochLengthSeconds))
			if err != nil {
				continue
			}

			display := feed.Price
			if raw, ok := new(big.Int).SetString(feed.Price, 10); ok {
				display = epoch.FormatThreshold(raw, feed.Decimals)
			}
			fmt.Printf("%-24s %-12s price=%-14s epoch=%d\n",
				feed.ReadAt().Format(time.RFC3339),
				feed.FeedID,
				display,
				epochID)

		case <-sigChan:
			fmt.Printf("\nStopping.\n")
			return nil
		}
	}
}
