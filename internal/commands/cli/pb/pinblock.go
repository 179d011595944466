// Package pb provides PIN block related commands.
package pb

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andrei-cloud/go_paysec/internal/config"
)

// NewPinBlockCommand creates the pinblock command with subcommands.
func NewPinBlockCommand() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "pinblock",
		Short: "PIN block operations",
		Long: `PIN block operations using ISO 9564-1 Format 0 with the fixed "06" control
field. The PIN key is unwrapped under the configured TMK for every call.`,
		Example: `  # Encrypt a PIN block
  go_paysec pinblock encode --pan 6212142000000000012 --pin 123456 \
    --tmk 159D86C7C1F779EA29F77A6858E0DA2A --pik 75CAD854C2E59A5EEDD7CA7410C2C215

  # Recover the PIN from a PIN block
  go_paysec pinblock decode --pinblock 9CA4E8A0FA2C49B3 --pan 6212142000000000012`,
	}

	encodeCmd, err := newEncodeCommand()
	if err != nil {
		return nil, fmt.Errorf("failed to create 'encode' subcommand: %w", err)
	}
	cmd.AddCommand(encodeCmd)

	decodeCmd, err := newDecodeCommand()
	if err != nil {
		return nil, fmt.Errorf("failed to create 'decode' subcommand: %w", err)
	}
	cmd.AddCommand(decodeCmd)

	return cmd, nil
}

func newEncodeCommand() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Generate an encrypted PIN block",
		Long: `Generate an encrypted PIN block for the given PAN and PIN.
The PIN must be 1 to 6 digits and the PAN at least 13 digits.`,
		RunE: runEncode,
	}

	cmd.Flags().String("pin", "", "PIN (1-6 digits)")
	cmd.Flags().String("pan", "", "Primary Account Number (card number)")

	if err := cmd.MarkFlagRequired("pin"); err != nil {
		return nil, fmt.Errorf("failed to mark pin flag as required: %w", err)
	}
	if err := cmd.MarkFlagRequired("pan"); err != nil {
		return nil, fmt.Errorf("failed to mark pan flag as required: %w", err)
	}

	return cmd, nil
}

func newDecodeCommand() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Extract the PIN from an encrypted PIN block",
		Long: `Decrypt a PIN block under the configured PIN key and recover the PIN.
Requires the PIN block as a hex string and the PAN used during generation.`,
		RunE: runDecode,
	}

	cmd.Flags().String("pinblock", "", "PIN block hex string")
	cmd.Flags().String("pan", "", "Primary Account Number (card number)")

	if err := cmd.MarkFlagRequired("pinblock"); err != nil {
		return nil, fmt.Errorf("failed to mark pinblock flag as required: %w", err)
	}
	if err := cmd.MarkFlagRequired("pan"); err != nil {
		return nil, fmt.Errorf("failed to mark pan flag as required: %w", err)
	}

	return cmd, nil
}

func runEncode(cmd *cobra.Command, _ []string) error {
	pin, _ := cmd.Flags().GetString("pin")
	pan, _ := cmd.Flags().GetString("pan")

	keys, err := config.Get().Keys.TerminalKeys()
	if err != nil {
		return err
	}

	result, err := keys.PinBlock(pan, pin)
	if err != nil {
		return err
	}

	cmd.Printf("PIN block: %s\n", result)

	return nil
}

func runDecode(cmd *cobra.Command, _ []string) error {
	pinBlockHex, _ := cmd.Flags().GetString("pinblock")
	pan, _ := cmd.Flags().GetString("pan")

	keys, err := config.Get().Keys.TerminalKeys()
	if err != nil {
		return err
	}

	result, err := keys.ExtractPin(pinBlockHex, pan)
	if err != nil {
		return err
	}

	cmd.Printf("PIN: %s\n", result)

	return nil
}
