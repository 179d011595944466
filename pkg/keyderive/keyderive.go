// Package keyderive recovers working keys (PIK, MAK) that are stored
// encrypted under a Terminal Master Key.
package keyderive

import (
	"errors"
	"fmt"

	"github.com/andrei-cloud/go_paysec/pkg/cryptoutils"
)

// ErrInvalidKeyLength is returned when a master key, wrapped key or working
// key is not a usable size for the cipher that consumes it.
var ErrInvalidKeyLength = errors.New("invalid key length")

// Unwrap decrypts wrappedKey under masterKey with triple-DES in ECB mode.
// masterKey must be 16 (K1K2K1) or 24 bytes. wrappedKey must be a single,
// double or triple length key cryptogram (8, 16 or 24 bytes).
// The caller owns the returned slice and should zero it once done.
func Unwrap(masterKey, wrappedKey []byte) ([]byte, error) {
	if err := checkMasterKey(masterKey); err != nil {
		return nil, err
	}
	if err := checkWorkingKeyLength(wrappedKey, "wrapped key"); err != nil {
		return nil, err
	}

	block, err := cryptoutils.NewTripleDESCipher(masterKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyLength, err)
	}

	clearKey := make([]byte, len(wrappedKey))
	cryptoutils.NewECBDecrypter(block).CryptBlocks(clearKey, wrappedKey)

	return clearKey, nil
}

// Wrap encrypts workingKey under masterKey with triple-DES in ECB mode.
// It is the inverse of Unwrap.
func Wrap(masterKey, workingKey []byte) ([]byte, error) {
	if err := checkMasterKey(masterKey); err != nil {
		return nil, err
	}
	if err := checkWorkingKeyLength(workingKey, "working key"); err != nil {
		return nil, err
	}

	block, err := cryptoutils.NewTripleDESCipher(masterKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyLength, err)
	}

	wrapped := make([]byte, len(workingKey))
	cryptoutils.NewECBEncrypter(block).CryptBlocks(wrapped, workingKey)

	return wrapped, nil
}

// SingleLength takes the first 8 bytes of unwrapped key material as a
// single-length DES key.
func SingleLength(workingKey []byte) (cryptoutils.Block, error) {
	var key cryptoutils.Block
	if len(workingKey) < cryptoutils.KEY_LENGTH_SINGLE {
		return key, fmt.Errorf(
			"%w: single length key needs %d bytes, got %d",
			ErrInvalidKeyLength,
			cryptoutils.KEY_LENGTH_SINGLE,
			len(workingKey),
		)
	}
	copy(key[:], workingKey[:cryptoutils.KEY_LENGTH_SINGLE])

	return key, nil
}

// DoubleLength checks that unwrapped key material can be used directly as a
// double or triple length triple-DES key.
func DoubleLength(workingKey []byte) ([]byte, error) {
	switch len(workingKey) {
	case cryptoutils.KEY_LENGTH_DOUBLE, cryptoutils.KEY_LENGTH_TRIPLE:
		return workingKey, nil
	default:
		return nil, fmt.Errorf(
			"%w: triple des working key must be 16 or 24 bytes, got %d",
			ErrInvalidKeyLength,
			len(workingKey),
		)
	}
}

func checkMasterKey(masterKey []byte) error {
	switch len(masterKey) {
	case cryptoutils.KEY_LENGTH_DOUBLE, cryptoutils.KEY_LENGTH_TRIPLE:
		return nil
	default:
		return fmt.Errorf(
			"%w: master key must be 16 or 24 bytes, got %d",
			ErrInvalidKeyLength,
			len(masterKey),
		)
	}
}

func checkWorkingKeyLength(key []byte, what string) error {
	switch len(key) {
	case cryptoutils.KEY_LENGTH_SINGLE, cryptoutils.KEY_LENGTH_DOUBLE, cryptoutils.KEY_LENGTH_TRIPLE:
		return nil
	default:
		return fmt.Errorf(
			"%w: %s must be 8, 16 or 24 bytes, got %d",
			ErrInvalidKeyLength,
			what,
			len(key),
		)
	}
}
