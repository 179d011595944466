// Package cli provides the CLI command structure for go_paysec.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/andrei-cloud/go_paysec/internal/config"
	"github.com/andrei-cloud/go_paysec/internal/logging"
)

// NewRootCommand creates and returns the root command with all subcommands.
func NewRootCommand() (*cobra.Command, error) {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "go_paysec",
		Short: "Terminal message security: PIN blocks and MACs",
		Long: `Message security subsystem for payment terminals. Unwraps working keys
under the terminal master key, builds encrypted PIN blocks and computes
message authentication codes, locally or as a TCP host command server.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Initialize configuration before running any command.
			if err := config.Initialize(cfgFile, cmd.Flags()); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			cfg := config.Get()
			logging.InitLogger(
				strings.EqualFold(strings.TrimSpace(cfg.Log.Level), "debug"),
				strings.EqualFold(strings.TrimSpace(cfg.Log.Format), "human"),
			)

			return nil
		},
	}

	// Add persistent flags that affect all commands.
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.go_paysec/config.yaml)")

	// Add global flags that can override config file settings.
	flags.String("log-level", "info", "logging level (debug, info, warn, error)")
	flags.String("log-format", "human", "logging format (human, json)")
	flags.String("tmk", "", "terminal master key, clear hex (32 or 48 characters)")
	flags.String("pik", "", "PIN key under the TMK, hex")
	flags.String("mak", "", "MAC key under the TMK, hex")

	// Register all commands.
	if err := RegisterCommands(rootCmd); err != nil {
		return nil, fmt.Errorf("failed to register commands: %w", err)
	}

	return rootCmd, nil
}
