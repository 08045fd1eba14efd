// Command serfsim runs and inspects settlement economy games.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/serfworks/internal/config"
)

func main() {
	var configPath string
	var cfg *config.Config

	rootCmd := &cobra.Command{
		Use:   "serfsim",
		Short: "Settlement economy simulator",
		Long: `serfsim drives the settlement economy core: buildings request
materials and workers, flags route resources along roads, and the game is
saved to SQLite and to zstd snapshots as it runs.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
			logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: cfg.Logging.SlogLevel(),
			}))
			slog.SetDefault(logger)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./configs/serfsim.yaml)")

	rootCmd.AddCommand(newRunCmd(&cfg), newInspectCmd(&cfg))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
