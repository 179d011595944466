// Package config loads go_paysec settings from file, environment and flags.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/jellydator/validation"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/andrei-cloud/go_paysec/internal/terminal"
	"github.com/andrei-cloud/go_paysec/pkg/mac"
)

const (
	envPrefix = "GOPAYSEC"
	dirName   = ".go_paysec"
)

var (
	configData Config
	v          = viper.New()
)

// Config holds all configuration settings.
type Config struct {
	// Server configuration
	Server struct {
		Host string
		Port int
	}
	// Logging configuration
	Log struct {
		Level  string
		Format string
	}
	// Terminal key set, hex encoded. TMK is clear, PIK and MAK are under TMK.
	Keys Keys
	// MAC defaults
	MAC MAC
}

// Keys is the hex encoded terminal key set.
type Keys struct {
	TMK string
	PIK string
	MAK string
}

// MAC holds the defaults applied to MAC operations.
type MAC struct {
	Mode               string
	IV                 string
	LegacyPadding      bool `mapstructure:"legacy_padding"`
	ReferenceDoubleHex bool `mapstructure:"reference_double_hex"`
}

// flagKeys maps command line flag names to configuration keys.
var flagKeys = map[string]string{
	"host":                 "server.host",
	"port":                 "server.port",
	"log-level":            "log.level",
	"log-format":           "log.format",
	"tmk":                  "keys.tmk",
	"pik":                  "keys.pik",
	"mak":                  "keys.mak",
	"mac-mode":             "mac.mode",
	"iv":                   "mac.iv",
	"legacy-padding":       "mac.legacy_padding",
	"reference-double-hex": "mac.reference_double_hex",
}

// Initialize sets up the configuration system. An empty cfgFile searches
// the default locations. Known flags present in flags override file and
// environment values.
func Initialize(cfgFile string, flags *pflag.FlagSet) error {
	v = viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/" + dirName)
		v.AddConfigPath("/etc/go_paysec/")
	}

	setDefaults()

	// Environment variables
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// keys have no defaults, so Unmarshal only sees them when bound explicitly.
	for _, key := range []string{"keys.tmk", "keys.pik", "keys.mak"} {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("error binding %s: %w", key, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return fmt.Errorf("error binding flag %s: %w", name, err)
				}
			}
		}
	}

	if cfgFile == "" {
		if err := ensureConfig(); err != nil {
			return fmt.Errorf("error creating config file: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("unable to decode into config struct: %w", err)
	}
	configData = cfg

	return nil
}

// setDefaults sets default values for all configuration options. Key
// material deliberately has none.
func setDefaults() {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 1500)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "human")

	v.SetDefault("mac.mode", mac.CBC.String())
	v.SetDefault("mac.iv", "0000000000000000")
	v.SetDefault("mac.legacy_padding", false)
	v.SetDefault("mac.reference_double_hex", false)
}

// ensureConfig creates a default config file if none exists.
func ensureConfig() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	dir := filepath.Join(home, dirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	configFile := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		defaultConfig := `# GO PAYSEC Configuration File
server:
  host: localhost
  port: 1500

log:
  level: info
  format: human

# keys:
#   tmk: <32 or 48 hex, clear>
#   pik: <PIK under TMK>
#   mak: <MAK under TMK>

mac:
  mode: cbc
  iv: "0000000000000000"
  legacy_padding: false
  reference_double_hex: false
`
		if err := os.WriteFile(configFile, []byte(defaultConfig), 0o600); err != nil {
			return err
		}
	}

	return nil
}

// Validate checks the loaded settings. Key material is validated for format
// only; commands that need a key enforce its presence.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(&c.Server,
		validation.Field(&c.Server.Host, validation.Required),
		validation.Field(&c.Server.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	if err := validation.ValidateStruct(&c.Log,
		validation.Field(&c.Log.Level, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Log.Format, validation.In("human", "json")),
	); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	if err := c.Keys.Validate(); err != nil {
		return fmt.Errorf("keys: %w", err)
	}

	if err := c.MAC.Validate(); err != nil {
		return fmt.Errorf("mac: %w", err)
	}

	return nil
}

// Validate checks key hex and lengths.
func (k *Keys) Validate() error {
	return validation.ValidateStruct(k,
		validation.Field(&k.TMK, hexKey(32, 48)),
		validation.Field(&k.PIK, hexKey(16, 32, 48)),
		validation.Field(&k.MAK, hexKey(16, 32, 48)),
	)
}

// Validate checks the MAC mode and IV.
func (m *MAC) Validate() error {
	return validation.ValidateStruct(m,
		validation.Field(&m.Mode, validation.By(func(value interface{}) error {
			s, _ := value.(string)
			if s == "" {
				return nil
			}
			if _, err := mac.ParseMode(s); err != nil {
				return validation.NewError("validation_mac_mode", "must be cbc or ecb")
			}

			return nil
		})),
		validation.Field(&m.IV, hexKey(16)),
	)
}

// TerminalKeys validates the key set and decodes it.
func (k *Keys) TerminalKeys() (*terminal.Keys, error) {
	if err := validation.ValidateStruct(k, validation.Field(&k.TMK, validation.Required)); err != nil {
		return nil, fmt.Errorf("%w: %v", terminal.ErrKeyNotConfigured, err)
	}
	if err := k.Validate(); err != nil {
		return nil, err
	}

	return terminal.NewKeys(k.TMK, k.PIK, k.MAK)
}

// Options converts the MAC settings into options for mode.
func (m *MAC) Options(mode mac.Mode) ([]mac.Option, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	var opts []mac.Option
	if m.LegacyPadding {
		opts = append(opts, mac.WithLegacyPadding())
	}
	switch mode {
	case mac.CBC:
		if m.IV != "" {
			var iv [8]byte
			if _, err := hex.Decode(iv[:], []byte(m.IV)); err != nil {
				return nil, fmt.Errorf("iv: %w", err)
			}
			opts = append(opts, mac.WithIV(iv))
		}
	case mac.ECBFold:
		if m.ReferenceDoubleHex {
			opts = append(opts, mac.WithReferenceDoubleHex())
		}
	}

	return opts, nil
}

// hexKey validates an optional hex string of one of the given lengths.
func hexKey(lengths ...int) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, ok := value.(string)
		if !ok {
			return validation.NewError("validation_hex_type", "must be a string")
		}
		if s == "" {
			return nil // Let Required handle empty strings
		}
		if _, err := hex.DecodeString(s); err != nil {
			return validation.NewError("validation_hex", "must be valid hex")
		}
		for _, l := range lengths {
			if len(s) == l {
				return nil
			}
		}

		return validation.NewError(
			"validation_hex_length",
			fmt.Sprintf("must be %s hex characters", joinInts(lengths)),
		)
	})
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprint(n)
	}

	return strings.Join(parts, " or ")
}

// Get returns the current configuration.
func Get() *Config {
	return &configData
}

// GetViper returns the viper instance.
func GetViper() *viper.Viper {
	return v
}
