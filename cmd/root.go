package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "botflow",
	Short: "Telegram bot runtime with long polling and handler dispatch",
	Long:  "botflow runs a Telegram bot: it long-polls the Bot API for updates, routes them to registered handlers, and sends replies through the generic call surface.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
