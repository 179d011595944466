package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrei-cloud/go_paysec/pkg/mac"
	"github.com/andrei-cloud/go_paysec/pkg/pinblock"
)

const (
	testTMK  = "159D86C7C1F779EA29F77A6858E0DA2A"
	testPIK  = "75CAD854C2E59A5EEDD7CA7410C2C215"
	testMAK  = "E6218EF29513B143"
	testPAN  = "6212142000000000012"
	testBody = "0200702406C020C09811196212142000000000012300000"
)

func executeCommand(root *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	err := root.Execute()

	return buf.String(), err
}

// run executes args against a fresh root command using an isolated config file.
func run(t *testing.T, configBody string, args ...string) (string, error) {
	t.Helper()

	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(configBody), 0o600))

	root, err := NewRootCommand()
	require.NoError(t, err)

	return executeCommand(root, append(args, "--config", cfgFile, "--log-format", "json")...)
}

func TestPinBlockCommands(t *testing.T) {
	out, err := run(t, "", "pinblock", "encode", "--pan", testPAN, "--pin", "123456", "--tmk", testTMK, "--pik", testPIK)
	require.NoError(t, err)
	assert.Equal(t, "PIN block: 9CA4E8A0FA2C49B3\n", out)

	out, err = run(t, "", "pinblock", "decode", "--pinblock", "9CA4E8A0FA2C49B3", "--pan", testPAN, "--tmk", testTMK, "--pik", testPIK)
	require.NoError(t, err)
	assert.Equal(t, "PIN: 123456\n", out)

	_, err = run(t, "", "pinblock", "encode", "--pan", testPAN, "--pin", "1234567", "--tmk", testTMK, "--pik", testPIK)
	require.ErrorIs(t, err, pinblock.ErrInvalidPinLength)

	_, err = run(t, "", "pinblock", "encode", "--pan", testPAN)
	require.Error(t, err, "missing --pin")
}

func TestPinBlockKeysFromConfigFile(t *testing.T) {
	cfg := "keys:\n  tmk: " + testTMK + "\n  pik: " + testPIK + "\n"

	out, err := run(t, cfg, "pinblock", "encode", "--pan", testPAN, "--pin", "1234")
	require.NoError(t, err)
	assert.Equal(t, "PIN block: C65863FCBDA23E3B\n", out)
}

func TestMACCommands(t *testing.T) {
	keyArgs := []string{"--tmk", testTMK, "--mak", testMAK}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "cbc", args: []string{"mac", "cbc", "--body", testBody}, want: "MAC (cbc): 7F14B0835DB73F24\n"},
		{name: "cbc iv", args: []string{"mac", "cbc", "--body", testBody, "--iv", "0102030405060708"}, want: "MAC (cbc): C7825DCAD04B071E\n"},
		{name: "cbc hex body legacy", args: []string{"mac", "cbc", "--body-hex", "41424344454647483132333435363738", "--legacy-padding"}, want: "MAC (cbc): 13A76E485F870515\n"},
		{name: "ecb single", args: []string{"mac", "ecb", "--body", testBody}, want: "MAC (ecb): 880D4A67\n"},
		{name: "ecb double", args: []string{"mac", "ecb", "--body", testBody, "--reference-double-hex"}, want: "MAC (ecb): 3838304434413637\n"},
		{name: "compute default mode", args: []string{"mac", "compute", "--body", testBody}, want: "MAC (cbc): 7F14B0835DB73F24\n"},
		{name: "compute ecb", args: []string{"mac", "compute", "--body", testBody, "--mac-mode", "ecb"}, want: "MAC (ecb): 880D4A67\n"},
		{name: "verify", args: []string{"mac", "cbc", "--body", testBody, "--verify", "7f14b0835db73f24"}, want: "MAC verified (cbc)\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, "", append(tt.args, keyArgs...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestMACCommandErrors(t *testing.T) {
	_, err := run(t, "", "mac", "cbc", "--body", testBody, "--verify", "7F14B0835DB73F25", "--tmk", testTMK, "--mak", testMAK)
	require.ErrorIs(t, err, mac.ErrMACMismatch)

	_, err = run(t, "", "mac", "cbc", "--tmk", testTMK, "--mak", testMAK)
	require.Error(t, err, "no body")

	_, err = run(t, "", "mac", "cbc", "--body", "a", "--body-hex", "61", "--tmk", testTMK, "--mak", testMAK)
	require.Error(t, err, "two bodies")

	_, err = run(t, "", "mac", "cbc", "--body", testBody)
	require.Error(t, err, "no keys")

	_, err = run(t, "", "mac", "compute", "--body", testBody, "--mac-mode", "x9.19", "--tmk", testTMK, "--mak", testMAK)
	require.ErrorIs(t, err, mac.ErrUnknownMode)
}

func TestKeysCommands(t *testing.T) {
	out, err := run(t, "", "keys", "unwrap", "--key", testPIK, "--tmk", testTMK)
	require.NoError(t, err)
	assert.Equal(t, "KCV: 46DD73\n", out)
	assert.NotContains(t, out, "64F2451F", "clear key must not be printed")

	out, err = run(t, "", "keys", "wrap", "--key", "0123456789ABCDEFFEDCBA9876543210", "--tmk", testTMK)
	require.NoError(t, err)
	assert.Equal(t, "Key under TMK: 20A69927F177219944F8F3688FADD35E\nKCV: 08D7B4\n", out)

	out, err = run(t, "", "keys", "kcv", "--tmk", testTMK, "--mak", testMAK)
	require.NoError(t, err)
	assert.Contains(t, out, "TMK  6C0721")
	assert.Contains(t, out, "PIK  -")
	assert.Contains(t, out, "MAK  DC451C")

	_, err = run(t, "", "keys", "unwrap", "--key", testPIK)
	require.Error(t, err, "missing tmk")
}

func TestBadConfigFile(t *testing.T) {
	_, err := run(t, "keys: [", "keys", "kcv")
	require.Error(t, err)
}
