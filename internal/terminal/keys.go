// Package terminal holds the key set provisioned for one terminal and
// exposes the PIN block and MAC operations bound to it.
package terminal

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/andrei-cloud/go_paysec/pkg/cryptoutils"
	"github.com/andrei-cloud/go_paysec/pkg/keyderive"
	"github.com/andrei-cloud/go_paysec/pkg/mac"
	"github.com/andrei-cloud/go_paysec/pkg/pinblock"
)

const kcvLength = 6

var (
	ErrKeyNotConfigured = errors.New("key not configured")
	ErrInvalidKeyHex    = errors.New("invalid key hex")
)

// Keys is an immutable TMK, wrapped PIK and wrapped MAK triple. It is safe
// for concurrent use; every operation unwraps its working key per call.
type Keys struct {
	tmk []byte
	pik []byte
	mak []byte
}

// CheckValues holds key check values of the configured keys. Working key
// values are computed over the unwrapped keys.
type CheckValues struct {
	TMK string
	PIK string
	MAK string
}

// NewKeys decodes hex key material. The TMK is required, PIK and MAK may be
// empty when the terminal does not use the corresponding operation.
func NewKeys(tmkHex, pikHex, makHex string) (*Keys, error) {
	tmk, err := decodeKey("tmk", tmkHex)
	if err != nil {
		return nil, err
	}
	if tmk == nil {
		return nil, fmt.Errorf("tmk: %w", ErrKeyNotConfigured)
	}
	if len(tmk) != cryptoutils.KEY_LENGTH_DOUBLE && len(tmk) != cryptoutils.KEY_LENGTH_TRIPLE {
		return nil, fmt.Errorf("tmk: %w: got %d bytes", keyderive.ErrInvalidKeyLength, len(tmk))
	}

	pik, err := decodeKey("pik", pikHex)
	if err != nil {
		return nil, err
	}
	mak, err := decodeKey("mak", makHex)
	if err != nil {
		return nil, err
	}

	return &Keys{tmk: tmk, pik: pik, mak: mak}, nil
}

// HasPIK reports whether a wrapped PIN key is configured.
func (k *Keys) HasPIK() bool { return len(k.pik) > 0 }

// HasMAK reports whether a wrapped MAC key is configured.
func (k *Keys) HasMAK() bool { return len(k.mak) > 0 }

// PinBlock returns the encrypted PIN block for pan and pin.
func (k *Keys) PinBlock(pan, pin string) (string, error) {
	if !k.HasPIK() {
		return "", fmt.Errorf("pik: %w", ErrKeyNotConfigured)
	}

	return pinblock.Encode(pan, pin, k.tmk, k.pik)
}

// ExtractPin decrypts a PIN block produced with this key set.
func (k *Keys) ExtractPin(pinBlockHex, pan string) (string, error) {
	if !k.HasPIK() {
		return "", fmt.Errorf("pik: %w", ErrKeyNotConfigured)
	}

	return pinblock.Decode(pinBlockHex, pan, k.tmk, k.pik)
}

// MAC computes the MAC of body in the given mode.
func (k *Keys) MAC(mode mac.Mode, body []byte, opts ...mac.Option) (string, error) {
	if !k.HasMAK() {
		return "", fmt.Errorf("mak: %w", ErrKeyNotConfigured)
	}

	return mac.Compute(mode, body, k.tmk, k.mak, opts...)
}

// VerifyMAC checks expected against the MAC of body.
func (k *Keys) VerifyMAC(mode mac.Mode, body []byte, expected string, opts ...mac.Option) error {
	if !k.HasMAK() {
		return fmt.Errorf("mak: %w", ErrKeyNotConfigured)
	}

	return mac.Verify(mode, body, k.tmk, k.mak, expected, opts...)
}

// CheckValues computes six character check values for every configured key.
func (k *Keys) CheckValues() (CheckValues, error) {
	var cv CheckValues

	tmkKCV, err := cryptoutils.KeyCV(k.tmk, kcvLength)
	if err != nil {
		return cv, fmt.Errorf("tmk: %w", err)
	}
	cv.TMK = tmkKCV

	if cv.PIK, err = k.workingKCV(k.pik); err != nil {
		return cv, fmt.Errorf("pik: %w", err)
	}
	if cv.MAK, err = k.workingKCV(k.mak); err != nil {
		return cv, fmt.Errorf("mak: %w", err)
	}

	return cv, nil
}

// MasterCheckValue returns the TMK check value truncated to length hex characters.
func (k *Keys) MasterCheckValue(length int) (string, error) {
	return cryptoutils.KeyCV(k.tmk, length)
}

func (k *Keys) workingKCV(wrapped []byte) (string, error) {
	if len(wrapped) == 0 {
		return "", nil
	}
	clearKey, err := keyderive.Unwrap(k.tmk, wrapped)
	if err != nil {
		return "", err
	}
	defer cryptoutils.Zero(clearKey)

	return cryptoutils.KeyCV(clearKey, kcvLength)
}

func decodeKey(name, keyHex string) ([]byte, error) {
	keyHex = strings.TrimSpace(keyHex)
	if keyHex == "" {
		return nil, nil
	}
	raw, err := cryptoutils.B2Raw([]byte(keyHex))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", name, ErrInvalidKeyHex, err)
	}

	return slices.Clip(raw), nil
}
