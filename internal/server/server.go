// Package server exposes the host command handlers over TCP.
package server

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	anetserver "github.com/andrei-cloud/anet/server"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/andrei-cloud/go_paysec/internal/errorcodes"
	"github.com/andrei-cloud/go_paysec/internal/logging"
	"github.com/andrei-cloud/go_paysec/internal/logic"
	"github.com/andrei-cloud/go_paysec/internal/terminal"
)

// logAdapter implements anet.Logger using zerolog.
type logAdapter struct{}

// Server wraps the anet TCP server and the command registry.
type Server struct {
	address     string
	srv         *anetserver.Server
	registry    *logic.Registry
	keysHolder  atomic.Pointer[terminal.Keys]
	activeConns int32
}

func (l logAdapter) Print(v ...any) {
	log.Info().Msg(fmt.Sprint(v...))
}

func (l logAdapter) Printf(format string, v ...any) {
	log.Info().Msgf(format, v...)
}

func (l logAdapter) Infof(format string, v ...any) {
	log.Info().Msgf(format, v...)
}

func (l logAdapter) Warnf(format string, v ...any) {
	log.Warn().Msgf(format, v...)
}

func (l logAdapter) Errorf(format string, v ...any) {
	log.Error().Msgf(format, v...)
}

// NewServer configures a server answering commands from registry with keys.
func NewServer(address string, registry *logic.Registry, keys *terminal.Keys) (*Server, error) {
	if registry == nil {
		return nil, errors.New("server setup failed: nil registry")
	}
	if keys == nil {
		return nil, errors.New("server setup failed: nil key set")
	}

	cfg := &anetserver.ServerConfig{
		MaxConns:        100,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     0 * time.Second, // disable idle connection closure.
		ShutdownTimeout: 5 * time.Second,
		Logger:          logAdapter{},
	}

	s := &Server{
		address:  address,
		registry: registry,
	}
	s.keysHolder.Store(keys)

	srv, err := anetserver.NewServer(address, anetserver.HandlerFunc(s.handle), cfg)
	if err != nil {
		return nil, fmt.Errorf("server setup failed: %w", err)
	}
	s.srv = srv

	return s, nil
}

// Start begins listening for connections.
func (s *Server) Start() error {
	log.Info().Str("address", s.address).Msg("server started")
	return s.srv.Start()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	return s.srv.Stop()
}

// SetKeys swaps the terminal key set atomically. In-flight requests finish
// with the key set they started with.
func (s *Server) SetKeys(keys *terminal.Keys) {
	if keys == nil {
		log.Error().Msg("refusing to install nil key set")
		return
	}
	s.keysHolder.Store(keys)
}

// incrementCode returns the next command code by incrementing the second character.
func incrementCode(cmd string) string {
	b := []byte(cmd)
	if len(b) < 2 {
		return cmd
	}
	if b[1] == 'Z' {
		b[1] = 'A'
	} else {
		b[1]++
	}

	return string(b)
}

// errorResponse constructs "<next code><error code>".
func errorResponse(cmd string, code errorcodes.ResponseError) []byte {
	return []byte(incrementCode(cmd) + code.CodeOnly())
}

func (s *Server) handle(conn *anetserver.ServerConn, data []byte) ([]byte, error) {
	client := conn.Conn.RemoteAddr().String()
	active := int(atomic.AddInt32(&s.activeConns, 1))
	defer atomic.AddInt32(&s.activeConns, -1)

	requestID := uuid.NewString()
	start := time.Now()

	if len(data) < 2 {
		log.Error().Str("request_id", requestID).Str("client_ip", client).Msg("malformed request")
		return nil, errors.New("malformed request")
	}

	cmd := string(data[:2])
	description := "unknown"
	if info, ok := s.registry.Get(cmd); ok {
		description = info.Description
	}
	logging.LogRequest(requestID, client, cmd, description, len(data), active)

	resp, err := s.registry.Execute(cmd, s.keysHolder.Load(), data[2:])
	code := errorcodes.Err00
	switch {
	case errors.Is(err, logic.ErrUnknownCommand):
		code = errorcodes.Err68
		log.Warn().
			Str("event", "unknown_command").
			Str("request_id", requestID).
			Str("command", cmd).
			Msg("command not recognized, responding with error code")
		resp = errorResponse(cmd, code)
	case err != nil:
		code = errorcodes.FromError(err)
		log.Error().
			Str("event", "command_error").
			Str("request_id", requestID).
			Str("command", cmd).
			Str("error_code", code.CodeOnly()).
			Err(err).
			Msg("command execution failed")
		resp = errorResponse(cmd, code)
	}

	respCmd := ""
	if len(resp) >= 2 {
		respCmd = string(resp[:2])
	}
	logging.LogResponse(requestID, client, cmd, respCmd, len(resp), code.CodeOnly(),
		int(atomic.LoadInt32(&s.activeConns)))

	log.Debug().
		Str("event", "handle_done").
		Str("request_id", requestID).
		Str("duration", time.Since(start).String()).
		Msg("completed request handling")

	return resp, nil
}
