// Package mac provides MAC computation commands.
package mac

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andrei-cloud/go_paysec/internal/config"
	pkgmac "github.com/andrei-cloud/go_paysec/pkg/mac"
)

var errBodyFlags = errors.New("exactly one of --body or --body-hex is required")

// NewMACCommand creates the mac command with subcommands.
func NewMACCommand() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "mac",
		Short: "Message authentication codes",
		Long: `Compute or verify message MACs under the MAC key unwrapped with the TMK.
cbc produces a 16 character CBC-MAC. ecb produces the 8 character ECB fold
MAC, or its 16 digit double hex form with --reference-double-hex.`,
		Example: `  # CBC MAC of an ASCII body
  go_paysec mac cbc --body 0200702406C020C0 --tmk <tmk> --mak <mak>

  # ECB fold MAC as produced by the reference terminal
  go_paysec mac ecb --body-hex 30323030 --reference-double-hex

  # Verify using the mode from configuration
  go_paysec mac compute --body 0200702406C020C0 --verify 7F14B0835DB73F24`,
	}

	cmd.AddCommand(newModeCommand("cbc", "Compute a CBC MAC", func(_ *cobra.Command) (pkgmac.Mode, error) {
		return pkgmac.CBC, nil
	}))
	cmd.AddCommand(newModeCommand("ecb", "Compute an ECB fold MAC", func(_ *cobra.Command) (pkgmac.Mode, error) {
		return pkgmac.ECBFold, nil
	}))

	computeCmd := newModeCommand("compute", "Compute a MAC in the configured mode", func(_ *cobra.Command) (pkgmac.Mode, error) {
		return pkgmac.ParseMode(config.Get().MAC.Mode)
	})
	computeCmd.Flags().String("mac-mode", "", "MAC mode (cbc, ecb), overrides mac.mode")
	cmd.AddCommand(computeCmd)

	return cmd, nil
}

func newModeCommand(
	use, short string,
	mode func(cmd *cobra.Command) (pkgmac.Mode, error),
) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := mode(cmd)
			if err != nil {
				return err
			}

			return runMAC(cmd, m)
		},
	}

	cmd.Flags().String("body", "", "message body as text")
	cmd.Flags().String("body-hex", "", "message body as hex")
	cmd.Flags().String("verify", "", "expected MAC; the command fails on mismatch")
	cmd.Flags().Bool("legacy-padding", false, "always append 1-8 zero bytes")
	if use != "ecb" {
		cmd.Flags().String("iv", "0000000000000000", "CBC initial vector, 16 hex characters")
	}
	if use != "cbc" {
		cmd.Flags().Bool("reference-double-hex", false, "hex encode the ECB fold MAC a second time")
	}

	return cmd
}

func runMAC(cmd *cobra.Command, mode pkgmac.Mode) error {
	body, err := readBody(cmd)
	if err != nil {
		return err
	}

	cfg := config.Get()
	keys, err := cfg.Keys.TerminalKeys()
	if err != nil {
		return err
	}
	opts, err := cfg.MAC.Options(mode)
	if err != nil {
		return err
	}

	if expected, _ := cmd.Flags().GetString("verify"); expected != "" {
		if err := keys.VerifyMAC(mode, body, expected, opts...); err != nil {
			return err
		}
		cmd.Printf("MAC verified (%s)\n", mode)

		return nil
	}

	result, err := keys.MAC(mode, body, opts...)
	if err != nil {
		return err
	}
	cmd.Printf("MAC (%s): %s\n", mode, result)

	return nil
}

func readBody(cmd *cobra.Command) ([]byte, error) {
	text, _ := cmd.Flags().GetString("body")
	hexBody, _ := cmd.Flags().GetString("body-hex")

	switch {
	case text != "" && hexBody != "":
		return nil, errBodyFlags
	case text != "":
		return []byte(text), nil
	case hexBody != "":
		body, err := hex.DecodeString(hexBody)
		if err != nil {
			return nil, fmt.Errorf("body-hex: %w", err)
		}

		return body, nil
	default:
		return nil, errBodyFlags
	}
}
