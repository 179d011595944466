package pinblock

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/andrei-cloud/go_paysec/pkg/cryptoutils"
)

// pinField returns control field + PIN right padded with 'F' to one block.
func pinField(pin string) (cryptoutils.Block, error) {
	var field cryptoutils.Block
	if err := validatePin(pin); err != nil {
		return field, err
	}

	fieldHex := ControlField + pin + strings.Repeat("F", BlockHexLength-len(ControlField)-len(pin))
	if _, err := hex.Decode(field[:], []byte(fieldHex)); err != nil {
		return cryptoutils.Block{}, fmt.Errorf("%w: %v", ErrInvalidPinLength, err)
	}

	return field, nil
}

// accountField returns "0000" followed by the 12 rightmost PAN digits
// excluding the check digit.
func accountField(pan string) (cryptoutils.Block, error) {
	var field cryptoutils.Block

	digits, err := get12PanDigits(pan)
	if err != nil {
		return field, err
	}
	if _, err := hex.Decode(field[:], []byte("0000"+digits)); err != nil {
		return cryptoutils.Block{}, fmt.Errorf("%w: %v", ErrInvalidPanLength, err)
	}

	return field, nil
}

// get12PanDigits returns pan[len-13:len-1].
func get12PanDigits(pan string) (string, error) {
	if len(pan) < MinPanLength {
		return "", fmt.Errorf(
			"%w: pan must be at least %d digits, got %d",
			ErrInvalidPanLength,
			MinPanLength,
			len(pan),
		)
	}
	if !isDigits(pan) {
		return "", fmt.Errorf("pan contains non-digit characters: %w", ErrInvalidPanLength)
	}

	return pan[len(pan)-MinPanLength : len(pan)-1], nil
}

func validatePin(pin string) error {
	if len(pin) == 0 || len(pin) > MaxPinLength {
		return fmt.Errorf(
			"%w: pin must be 1-%d digits, got %d",
			ErrInvalidPinLength,
			MaxPinLength,
			len(pin),
		)
	}
	if !isDigits(pin) {
		return fmt.Errorf("pin contains non-digit characters: %w", ErrInvalidPinLength)
	}

	return nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
