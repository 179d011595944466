// Package logging configures zerolog and emits request and response events.
// Payloads are never logged: they carry PINs, PANs and MAC bodies.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger initializes the zerolog logger with the specified debug mode and output format.
func InitLogger(debug, human bool) {
	initLogger(os.Stdout, debug, human)
}

func initLogger(out io.Writer, debug, human bool) {
	zerolog.TimeFieldFormat = time.RFC3339Nano           // always initialize base logger with timestamp.
	base := zerolog.New(out).With().Timestamp().Logger() // initialize base logger.
	if human {
		log.Logger = base.Output(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339Nano,
		}) // select output format.
	} else {
		log.Logger = base // use JSON logger.
	}
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel) // set debug level.
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel) // set info level.
	}
}

// LogRequest logs a received command with structured fields.
func LogRequest(
	requestID string,
	clientIP string,
	command string,
	description string,
	requestLen int,
	activeConns int,
) {
	log.Info().
		Str("event", "request_received").
		Str("request_id", requestID).
		Str("client_ip", clientIP).
		Str("command", command).
		Str("description", description).
		Int("request_length", requestLen).
		Int("active_connections", activeConns).
		Msg("received command")
}

// LogResponse logs a sent response with structured fields.
func LogResponse(
	requestID string,
	clientIP string,
	command string,
	responseCommand string,
	responseLen int,
	errorCode string,
	activeConns int,
) {
	log.Info().
		Str("event", "response_sent").
		Str("request_id", requestID).
		Str("client_ip", clientIP).
		Str("command", command).
		Str("response_command", responseCommand).
		Int("response_length", responseLen).
		Str("error_code", errorCode).
		Int("active_connections", activeConns).
		Msg("sent response")
}

// MaskPAN keeps the first six and last four digits of pan. Shorter values
// are masked entirely.
func MaskPAN(pan string) string {
	const head, tail = 6, 4
	if len(pan) <= head+tail {
		return strings.Repeat("*", len(pan))
	}

	return pan[:head] + strings.Repeat("*", len(pan)-head-tail) + pan[len(pan)-tail:]
}
