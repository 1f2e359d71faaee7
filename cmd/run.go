package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"botflow/pkg/channel"
	"botflow/pkg/channel/telegram"
	"botflow/pkg/config"
	"botflow/pkg/logger"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the Telegram bot",
	Long:  "Loads botflow configuration, connects to the Telegram Bot API, and echoes incoming text messages until interrupted.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = args

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("failed to load config: %v\n", err)
			return
		}

		appLogger, err := logger.New(cfg.Logging)
		if err != nil {
			fmt.Printf("failed to initialize logger: %v\n", err)
			return
		}
		slog.SetDefault(appLogger)
		log := slog.Default().With("component", "cmd.run")

		adapter, err := telegram.NewAdapter(cfg.Telegram, cfg.Polling, log)
		if err != nil {
			log.Error("Telegram configuration invalid", "error", err)
			return
		}

		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info("Bot started", "channel", adapter.Name())
		if err := adapter.Run(runCtx, echoHandler); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Error("Bot runtime failed", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// echoHandler replies to every inbound message with its own content.
func echoHandler(_ context.Context, inbound channel.Inbound) (channel.Outbound, error) {
	return channel.Outbound{Content: inbound.Content}, nil
}
