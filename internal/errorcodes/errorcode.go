// Package errorcodes defines host command errors using a structured type.
// ResponseError holds the two-character code and human-readable description.
package errorcodes

import (
	"errors"

	"github.com/andrei-cloud/go_paysec/internal/terminal"
	"github.com/andrei-cloud/go_paysec/pkg/keyderive"
	"github.com/andrei-cloud/go_paysec/pkg/mac"
	"github.com/andrei-cloud/go_paysec/pkg/pinblock"
)

// Predefined host error instances.
var (
	Err00 = ResponseError{"00", "No error"}
	Err01 = ResponseError{"01", "Verification failure"}
	Err02 = ResponseError{"02", "Key inappropriate length for algorithm"}
	Err12 = ResponseError{"12", "Key not configured for this terminal"}
	Err15 = ResponseError{
		"15",
		"Invalid input data (invalid format, invalid characters, or not enough data provided)",
	}
	Err20 = ResponseError{"20", "PIN block does not contain valid values"}
	Err22 = ResponseError{"22", "Invalid account number"}
	Err24 = ResponseError{"24", "PIN is empty or longer than 6 digits"}
	Err41 = ResponseError{"41", "Internal error"}
	Err68 = ResponseError{"68", "Command has been disabled"}
	Err80 = ResponseError{"80", "Data length error"}
)

// ResponseError represents a host error with its code and description.
type ResponseError struct {
	Code        string // two-character error code
	Description string // human-readable description
}

// Error implements the Go error interface: "<Code>: <Description>".
func (e ResponseError) Error() string {
	return e.Code + ": " + e.Description
}

// CodeOnly returns only the error code (e.g., "68"), for embedding in responses.
func (e ResponseError) CodeOnly() string {
	return e.Code
}

// FromError maps an error returned by the crypto packages to a response error.
// A ResponseError anywhere in the chain is returned as is.
func FromError(err error) ResponseError {
	if err == nil {
		return Err00
	}

	var re ResponseError
	if errors.As(err, &re) {
		return re
	}

	switch {
	case errors.Is(err, keyderive.ErrInvalidKeyLength):
		return Err02
	case errors.Is(err, terminal.ErrKeyNotConfigured):
		return Err12
	case errors.Is(err, pinblock.ErrInvalidPanLength):
		return Err22
	case errors.Is(err, pinblock.ErrInvalidPinLength):
		return Err24
	case errors.Is(err, pinblock.ErrInvalidPinBlock):
		return Err20
	case errors.Is(err, mac.ErrEmptyBody):
		return Err80
	case errors.Is(err, mac.ErrMACMismatch):
		return Err01
	case errors.Is(err, mac.ErrUnknownMode):
		return Err15
	default:
		return Err41
	}
}
