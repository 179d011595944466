// Package server provides server-related CLI commands.
package server

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/andrei-cloud/go_paysec/internal/config"
	"github.com/andrei-cloud/go_paysec/internal/logic"
	"github.com/andrei-cloud/go_paysec/internal/server"
	"github.com/andrei-cloud/go_paysec/internal/terminal"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the host command server",
		Long: `Start the TCP host command server answering PB, MC, ME and NC commands
with the configured terminal key set. SIGHUP reloads the key set from
configuration; SIGINT and SIGTERM stop the server.`,
		RunE: runServe,
	}

	// Add serve command specific flags that can override config.
	cmd.Flags().String("host", "localhost", "Server host")
	cmd.Flags().Int("port", 1500, "Server port")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.Get()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	keys, err := cfg.Keys.TerminalKeys()
	if err != nil {
		return fmt.Errorf("failed to load terminal keys: %w", err)
	}
	logCheckValues(keys)

	registry := logic.NewDefaultRegistry()
	for _, info := range registry.List() {
		log.Debug().
			Str("command", info.CommandCode).
			Str("description", info.Description).
			Msg("command registered")
	}

	serverAddr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	srv, err := server.NewServer(serverAddr, registry, keys)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	// Reload keys on SIGHUP until runServe returns.
	cfgFile, _ := cmd.Flags().GetString("config")
	reloadChan := make(chan os.Signal, 1)
	signal.Notify(reloadChan, syscall.SIGHUP)
	defer signal.Stop(reloadChan)

	done := make(chan struct{})
	defer close(done)
	go reloadOnSignal(reloadChan, done, func() {
		log.Info().Msg("reloading terminal keys...")

		if err := config.Initialize(cfgFile, cmd.Flags()); err != nil {
			log.Error().Err(err).Msg("failed to reload configuration")
			return
		}
		newKeys, err := config.Get().Keys.TerminalKeys()
		if err != nil {
			log.Error().Err(err).Msg("failed to reload terminal keys")
			return
		}

		srv.SetKeys(newKeys)
		logCheckValues(newKeys)
		log.Info().Msg("terminal keys reloaded")
	})

	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stopChan)

	select {
	case <-stopChan:
	case <-cmd.Context().Done():
	}
	log.Info().Msg("shutting down server...")

	if err := srv.Stop(); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	return nil
}

// reloadOnSignal calls reload for every value received on sig and returns
// once done is closed.
func reloadOnSignal(sig <-chan os.Signal, done <-chan struct{}, reload func()) {
	for {
		select {
		case <-sig:
			reload()
		case <-done:
			return
		}
	}
}

func logCheckValues(keys *terminal.Keys) {
	cv, err := keys.CheckValues()
	if err != nil {
		log.Warn().Err(err).Msg("failed to compute key check values")
		return
	}
	log.Info().
		Str("tmk_kcv", cv.TMK).
		Str("pik_kcv", cv.PIK).
		Str("mak_kcv", cv.MAK).
		Msg("terminal keys loaded")
}
