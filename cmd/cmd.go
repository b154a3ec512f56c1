package cmd

import (
	"context"
	"log/slog"

	"github.com/gaze-network/btcname-indexer/internal/config"
	"github.com/gaze-network/btcname-indexer/pkg/logger"
	"github.com/gaze-network/btcname-indexer/pkg/logger/slogx"
	"github.com/spf13/cobra"
)

var cmd = &cobra.Command{
	Use:  "gaze-btcname",
	Long: `Gaze BTC name indexer, registers inscribed name claims into first come first served collections`,
}

func init() {
	var configFile string

	// Add global flags
	flags := cmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file, E.g. `./config.yaml`")
	flags.String("network", "mainnet", "network to connect to, E.g. `mainnet` or `testnet`")

	// Bind flags to configuration
	config.BindPFlag("network", flags.Lookup("network"))

	// Initialize configuration and logger on start command
	cobra.OnInitialize(func() {
		// Initialize configuration
		config := config.Parse(configFile)

		// Initialize logger
		if err := logger.Init(config.Logger); err != nil {
			logger.Panic("Failed to initialize logger: %v", slogx.Error(err), slog.Any("config", config.Logger))
		}
	})

	// Register sub-commands
	cmd.AddCommand(
		NewVersionCommand(),
		NewRunCommand(),
		NewMigrateCommand(),
		NewParseCommand(),
	)
}

func Execute(ctx context.Context) {
	if err := cmd.ExecuteContext(ctx); err != nil {
		logger.Error("Failed to execute root command", slogx.Error(err))
	}
}
