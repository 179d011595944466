// Package keys provides key inspection commands.
package keys

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/andrei-cloud/go_paysec/internal/config"
	"github.com/andrei-cloud/go_paysec/pkg/cryptoutils"
	"github.com/andrei-cloud/go_paysec/pkg/keyderive"
)

const kcvLength = 6

// NewKeysCommand creates the keys command group.
func NewKeysCommand() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Working key operations under the TMK",
		Long: `Working key operations under the terminal master key (TMK).
Clear working keys are never printed; unwrap reports the key check value only.`,
	}

	unwrapCmd, err := newUnwrapCommand()
	if err != nil {
		return nil, fmt.Errorf("failed to create 'unwrap' subcommand: %w", err)
	}
	cmd.AddCommand(unwrapCmd)

	wrapCmd, err := newWrapCommand()
	if err != nil {
		return nil, fmt.Errorf("failed to create 'wrap' subcommand: %w", err)
	}
	cmd.AddCommand(wrapCmd)

	cmd.AddCommand(newKCVCommand())

	return cmd, nil
}

func newUnwrapCommand() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "unwrap",
		Short: "Unwrap a working key and print its check value",
		RunE:  runUnwrap,
	}
	cmd.Flags().String("key", "", "working key under the TMK, hex (16, 32 or 48 characters)")
	if err := cmd.MarkFlagRequired("key"); err != nil {
		return nil, fmt.Errorf("failed to mark key flag as required: %w", err)
	}

	return cmd, nil
}

func newWrapCommand() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "wrap",
		Short: "Encrypt a clear working key under the TMK",
		RunE:  runWrap,
	}
	cmd.Flags().String("key", "", "clear working key, hex (16, 32 or 48 characters)")
	if err := cmd.MarkFlagRequired("key"); err != nil {
		return nil, fmt.Errorf("failed to mark key flag as required: %w", err)
	}

	return cmd, nil
}

func newKCVCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "kcv",
		Short: "Print check values of the configured keys",
		RunE:  runKCV,
	}
}

func masterKey() ([]byte, error) {
	tmk := strings.TrimSpace(config.Get().Keys.TMK)
	if tmk == "" {
		return nil, errors.New("tmk is required (--tmk, keys.tmk or GOPAYSEC_KEYS_TMK)")
	}
	raw, err := hex.DecodeString(tmk)
	if err != nil {
		return nil, fmt.Errorf("tmk: %w", err)
	}

	return raw, nil
}

func runUnwrap(cmd *cobra.Command, _ []string) error {
	tmk, err := masterKey()
	if err != nil {
		return err
	}
	defer cryptoutils.Zero(tmk)

	keyHex, _ := cmd.Flags().GetString("key")
	wrapped, err := hex.DecodeString(keyHex)
	if err != nil {
		return fmt.Errorf("key: %w", err)
	}

	clearKey, err := keyderive.Unwrap(tmk, wrapped)
	if err != nil {
		return err
	}
	defer cryptoutils.Zero(clearKey)

	kcv, err := cryptoutils.KeyCV(clearKey, kcvLength)
	if err != nil {
		return err
	}
	cmd.Printf("KCV: %s\n", kcv)

	return nil
}

func runWrap(cmd *cobra.Command, _ []string) error {
	tmk, err := masterKey()
	if err != nil {
		return err
	}
	defer cryptoutils.Zero(tmk)

	keyHex, _ := cmd.Flags().GetString("key")
	clearKey, err := hex.DecodeString(keyHex)
	if err != nil {
		return fmt.Errorf("key: %w", err)
	}
	defer cryptoutils.Zero(clearKey)

	if !cryptoutils.CheckKeyParity(clearKey) {
		cmd.PrintErrln("warning: key does not have odd parity")
	}

	wrapped, err := keyderive.Wrap(tmk, clearKey)
	if err != nil {
		return err
	}
	kcv, err := cryptoutils.KeyCV(clearKey, kcvLength)
	if err != nil {
		return err
	}

	cmd.Printf("Key under TMK: %s\n", cryptoutils.Raw2Str(wrapped))
	cmd.Printf("KCV: %s\n", kcv)

	return nil
}

func runKCV(cmd *cobra.Command, _ []string) error {
	keys, err := config.Get().Keys.TerminalKeys()
	if err != nil {
		return err
	}
	cv, err := keys.CheckValues()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tKCV")
	for _, row := range [][2]string{{"TMK", cv.TMK}, {"PIK", cv.PIK}, {"MAK", cv.MAK}} {
		if row[1] == "" {
			row[1] = "-"
		}
		fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
	}

	return w.Flush()
}
