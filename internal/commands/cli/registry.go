// Package cli provides centralized command registration.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andrei-cloud/go_paysec/internal/commands/cli/keys"
	"github.com/andrei-cloud/go_paysec/internal/commands/cli/mac"
	"github.com/andrei-cloud/go_paysec/internal/commands/cli/pb"
	"github.com/andrei-cloud/go_paysec/internal/commands/cli/server"
)

// RegisterCommands registers all root commands.
func RegisterCommands(root *cobra.Command) error {
	keysCmd, err := keys.NewKeysCommand()
	if err != nil {
		return fmt.Errorf("failed to create keys command: %w", err)
	}
	root.AddCommand(keysCmd)

	pinblockCmd, err := pb.NewPinBlockCommand()
	if err != nil {
		return fmt.Errorf("failed to create pinblock command: %w", err)
	}
	root.AddCommand(pinblockCmd)

	macCmd, err := mac.NewMACCommand()
	if err != nil {
		return fmt.Errorf("failed to create mac command: %w", err)
	}
	root.AddCommand(macCmd)

	root.AddCommand(server.NewServeCommand())

	return nil
}
