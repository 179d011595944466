package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrei-cloud/go_paysec/internal/terminal"
	"github.com/andrei-cloud/go_paysec/pkg/mac"
)

const testConfig = `server:
  host: 0.0.0.0
  port: 1600
log:
  level: debug
  format: json
keys:
  tmk: 159D86C7C1F779EA29F77A6858E0DA2A
  pik: 75CAD854C2E59A5EEDD7CA7410C2C215
mac:
  mode: ecb
  reference_double_hex: true
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestInitializeFromFile(t *testing.T) {
	require.NoError(t, Initialize(writeConfig(t, testConfig), nil))

	cfg := Get()
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 1600, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "159D86C7C1F779EA29F77A6858E0DA2A", cfg.Keys.TMK)
	assert.Equal(t, "75CAD854C2E59A5EEDD7CA7410C2C215", cfg.Keys.PIK)
	assert.Empty(t, cfg.Keys.MAK, "keys have no defaults")
	assert.Equal(t, "ecb", cfg.MAC.Mode)
	assert.Equal(t, "0000000000000000", cfg.MAC.IV)
	assert.False(t, cfg.MAC.LegacyPadding)
	assert.True(t, cfg.MAC.ReferenceDoubleHex)
	require.NoError(t, cfg.Validate())
}

func TestInitializeEnvAndFlags(t *testing.T) {
	t.Setenv("GOPAYSEC_KEYS_MAK", "E6218EF29513B143")
	t.Setenv("GOPAYSEC_SERVER_PORT", "1700")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("tmk", "", "")
	flags.String("log-level", "info", "")
	require.NoError(t, flags.Parse([]string{"--tmk", "00112233445566778899AABBCCDDEEFF"}))

	require.NoError(t, Initialize(writeConfig(t, testConfig), flags))

	cfg := Get()
	assert.Equal(t, "E6218EF29513B143", cfg.Keys.MAK)
	assert.Equal(t, 1700, cfg.Server.Port)
	assert.Equal(t, "00112233445566778899AABBCCDDEEFF", cfg.Keys.TMK, "changed flag overrides file")
	assert.Equal(t, "debug", cfg.Log.Level, "unchanged flag keeps file value")
	assert.Equal(t, "E6218EF29513B143", GetViper().GetString("keys.mak"))
}

func TestInitializeDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	require.NoError(t, Initialize("", nil))

	cfg := Get()
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 1500, cfg.Server.Port)
	assert.Equal(t, "cbc", cfg.MAC.Mode)
	assert.Empty(t, cfg.Keys.TMK)
	assert.FileExists(t, filepath.Join(os.Getenv("HOME"), dirName, "config.yaml"))
}

func TestInitializeBadFile(t *testing.T) {
	err := Initialize(writeConfig(t, "server: [unterminated"), nil)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() Config {
		var c Config
		c.Server.Host = "localhost"
		c.Server.Port = 1500
		c.Log.Level = "info"
		c.Log.Format = "human"
		c.Keys = Keys{TMK: "159D86C7C1F779EA29F77A6858E0DA2A", MAK: "E6218EF29513B143"}
		c.MAC = MAC{Mode: "cbc", IV: "0000000000000000"}

		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no keys", mutate: func(c *Config) { c.Keys = Keys{} }},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: "server"},
		{name: "bad level", mutate: func(c *Config) { c.Log.Level = "trace" }, wantErr: "log"},
		{name: "single length tmk", mutate: func(c *Config) { c.Keys.TMK = "159D86C7C1F779EA" }, wantErr: "keys"},
		{name: "non hex pik", mutate: func(c *Config) { c.Keys.PIK = "ZZ" }, wantErr: "must be valid hex"},
		{name: "bad mac mode", mutate: func(c *Config) { c.MAC.Mode = "x9.19" }, wantErr: "must be cbc or ecb"},
		{name: "short iv", mutate: func(c *Config) { c.MAC.IV = "00" }, wantErr: "mac"},
	}

	for _, tt := range tests {
		tt := tt // capture range variable.
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTerminalKeys(t *testing.T) {
	t.Parallel()

	k := Keys{TMK: "159D86C7C1F779EA29F77A6858E0DA2A", PIK: "75CAD854C2E59A5EEDD7CA7410C2C215"}
	keys, err := k.TerminalKeys()
	require.NoError(t, err)
	assert.True(t, keys.HasPIK())
	assert.False(t, keys.HasMAK())

	_, err = (&Keys{}).TerminalKeys()
	require.ErrorIs(t, err, terminal.ErrKeyNotConfigured)

	_, err = (&Keys{TMK: "159D86C7C1F779EA29F77A6858E0DA2A", MAK: "123"}).TerminalKeys()
	require.Error(t, err)
}

func TestMACOptions(t *testing.T) {
	t.Parallel()

	keys, err := terminal.NewKeys("159D86C7C1F779EA29F77A6858E0DA2A", "", "E6218EF29513B143")
	require.NoError(t, err)
	body := []byte("0200702406C020C09811196212142000000000012300000")

	tests := []struct {
		name string
		cfg  MAC
		mode mac.Mode
		want string
	}{
		{name: "cbc default iv", cfg: MAC{IV: "0000000000000000"}, mode: mac.CBC, want: "7F14B0835DB73F24"},
		{name: "cbc custom iv", cfg: MAC{IV: "0102030405060708"}, mode: mac.CBC, want: "C7825DCAD04B071E"},
		{name: "ecb single hex", cfg: MAC{IV: "0102030405060708"}, mode: mac.ECBFold, want: "880D4A67"},
		{name: "ecb double hex", cfg: MAC{ReferenceDoubleHex: true}, mode: mac.ECBFold, want: "3838304434413637"},
	}

	for _, tt := range tests {
		tt := tt // capture range variable.
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts, err := tt.cfg.Options(tt.mode)
			require.NoError(t, err)
			got, err := keys.MAC(tt.mode, body, opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err = (&MAC{IV: "XYZ"}).Options(mac.CBC)
	require.Error(t, err)
}
