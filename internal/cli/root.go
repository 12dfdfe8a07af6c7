// Package cli implements the simsync command line: the simulated list
// API, the view bridge, and one-shot commands against a list API.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"sim-sync/internal/config"
	"sim-sync/internal/logger"
)

var (
	// Version is set at build time via ldflags.
	Version = "dev"

	cfg *config.Config
	log zerolog.Logger

	resourceFlag string
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "simsync",
	Short: "Keep game shopping and wish lists in sync with the list API",
	Long: `simsync keeps a local copy of a game's lists, and of the aggregate
"All Items" list the server derives from them, in step with the list API.

It can also run a simulated list API for development and tests.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&resourceFlag, "resource", "", "list resource: shopping_lists or wish_lists (default from LIST_RESOURCE)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level (default from LOG_LEVEL)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(bridgeCmd)
	rootCmd.AddCommand(gamesCmd)
	rootCmd.AddCommand(listsCmd)
	rootCmd.AddCommand(itemsCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if resourceFlag != "" {
		loaded.API.ListResource = resourceFlag
	}
	if logLevelFlag != "" {
		loaded.Logging.Level = logLevelFlag
	}

	cfg = loaded
	log = logger.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Pretty)
	return nil
}
