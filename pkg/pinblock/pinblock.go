// Package pinblock builds and encrypts the ISO 9564-1 Format 0 PIN block
// used by the terminal integration, where the control field is fixed to
// "06" rather than carrying the actual PIN length.
package pinblock

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/andrei-cloud/go_paysec/pkg/cryptoutils"
	"github.com/andrei-cloud/go_paysec/pkg/keyderive"
)

const (
	// ControlField is the fixed leading byte of the PIN field.
	ControlField = "06"
	// MaxPinLength is the number of PIN digits the fixed control field allows.
	MaxPinLength = 6
	// MinPanLength covers 12 account digits plus the check digit.
	MinPanLength = 13
	// BlockHexLength is the size of an encoded PIN block in hex characters.
	BlockHexLength = 2 * cryptoutils.BLOCK_SIZE
)

var (
	ErrInvalidPinLength = errors.New("invalid pin length")
	ErrInvalidPanLength = errors.New("invalid pan length")
	ErrInvalidPinBlock  = errors.New("invalid pin block")
)

// Encode formats pin and pan into a Format 0 block, encrypts it with the PIK
// recovered from wrappedPIK under masterKey, and returns 16 uppercase hex
// characters.
func Encode(pan, pin string, masterKey, wrappedPIK []byte) (string, error) {
	plain, err := PlainBlock(pan, pin)
	if err != nil {
		return "", err
	}
	defer cryptoutils.ZeroBlock(&plain)

	var out cryptoutils.Block
	err = withPinKey(masterKey, wrappedPIK, func(enc, _ func(dst, src []byte)) {
		enc(out[:], plain[:])
	})
	if err != nil {
		return "", err
	}

	return cryptoutils.Raw2Str(out[:]), nil
}

// Decode reverses Encode and returns the clear PIN. It is meant for
// verification of blocks produced with the same key set.
func Decode(pinBlockHex, pan string, masterKey, wrappedPIK []byte) (string, error) {
	if len(pinBlockHex) != BlockHexLength {
		return "", fmt.Errorf(
			"%w: must be %d hex characters, got %d",
			ErrInvalidPinBlock,
			BlockHexLength,
			len(pinBlockHex),
		)
	}
	raw, err := hex.DecodeString(pinBlockHex)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPinBlock, err)
	}
	var cipherBlock cryptoutils.Block
	copy(cipherBlock[:], raw)

	account, err := accountField(pan)
	if err != nil {
		return "", err
	}

	var plain cryptoutils.Block
	defer cryptoutils.ZeroBlock(&plain)
	err = withPinKey(masterKey, wrappedPIK, func(_, dec func(dst, src []byte)) {
		dec(plain[:], cipherBlock[:])
	})
	if err != nil {
		return "", err
	}

	field := cryptoutils.XORBlock(plain, account)
	defer cryptoutils.ZeroBlock(&field)

	return parsePinField(field)
}

// PlainBlock returns the clear PIN block: the PIN field XOR the account field.
func PlainBlock(pan, pin string) (cryptoutils.Block, error) {
	pinBlock, err := pinField(pin)
	if err != nil {
		return cryptoutils.Block{}, err
	}
	defer cryptoutils.ZeroBlock(&pinBlock)

	account, err := accountField(pan)
	if err != nil {
		return cryptoutils.Block{}, err
	}

	return cryptoutils.XORBlock(pinBlock, account), nil
}

// withPinKey unwraps the PIK, hands fn its encrypt and decrypt functions and
// zeroes the clear key on every return path.
func withPinKey(masterKey, wrappedPIK []byte, fn func(enc, dec func(dst, src []byte))) error {
	clearKey, err := keyderive.Unwrap(masterKey, wrappedPIK)
	if err != nil {
		return fmt.Errorf("failed to unwrap pin key: %w", err)
	}
	defer cryptoutils.Zero(clearKey)

	pik, err := keyderive.DoubleLength(clearKey)
	if err != nil {
		return fmt.Errorf("pin key: %w", err)
	}

	block, err := cryptoutils.NewTripleDESCipher(pik)
	if err != nil {
		return fmt.Errorf("%w: %v", keyderive.ErrInvalidKeyLength, err)
	}
	fn(block.Encrypt, block.Decrypt)

	return nil
}

func parsePinField(field cryptoutils.Block) (string, error) {
	fieldHex := cryptoutils.Raw2Str(field[:])
	if !strings.HasPrefix(fieldHex, ControlField) {
		return "", fmt.Errorf("%w: unexpected control field", ErrInvalidPinBlock)
	}

	body := fieldHex[len(ControlField):]
	pinLen := strings.IndexByte(body, 'F')
	if pinLen < 0 {
		pinLen = len(body)
	}
	pin := body[:pinLen]
	if strings.Trim(body[pinLen:], "F") != "" {
		return "", fmt.Errorf("%w: invalid padding", ErrInvalidPinBlock)
	}
	if err := validatePin(pin); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPinBlock, err)
	}

	return pin, nil
}
