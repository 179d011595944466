// Package mac computes message authentication codes over terminal message
// bodies with a single-length DES key recovered from the MAK.
//
// Two chaining variants are supported:
//   - CBC: plain CBC-MAC with a configurable IV (ISO/IEC 9797-1 algorithm 1
//     with single DES and zero padding).
//   - ECB fold: all blocks are XOR folded into one, the hex form of the fold
//     is split into two ASCII halves which are chained through DES twice.
package mac

import (
	"crypto/des"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/andrei-cloud/go_paysec/pkg/cryptoutils"
	"github.com/andrei-cloud/go_paysec/pkg/keyderive"
)

// Mode selects the chaining variant.
type Mode int

const (
	CBC Mode = iota
	ECBFold
)

// ECBFoldLength is the number of raw MAC bytes the ECB fold variant keeps.
const ECBFoldLength = 4

var (
	ErrEmptyBody    = errors.New("mac body is empty")
	ErrUnknownMode  = errors.New("unknown mac mode")
	ErrMACMismatch  = errors.New("mac mismatch")
	errBadMACLength = errors.New("unexpected mac length")
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case CBC:
		return "cbc"
	case ECBFold:
		return "ecb"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode maps "cbc" and "ecb" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cbc":
		return CBC, nil
	case "ecb", "ecb-fold", "ecb_fold":
		return ECBFold, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Compute returns the MAC of body in the requested mode as an uppercase hex
// string. The MAK is unwrapped under masterKey for the duration of the call.
func Compute(mode Mode, body, masterKey, wrappedMAK []byte, opts ...Option) (string, error) {
	o := newOptions(opts)

	switch mode {
	case CBC:
		return computeCBC(body, masterKey, wrappedMAK, o)
	case ECBFold:
		return computeECBFold(body, masterKey, wrappedMAK, o)
	default:
		return "", fmt.Errorf("%w: %d", ErrUnknownMode, int(mode))
	}
}

// CBCMAC is Compute in CBC mode.
func CBCMAC(body, masterKey, wrappedMAK []byte, opts ...Option) (string, error) {
	return Compute(CBC, body, masterKey, wrappedMAK, opts...)
}

// ECBFoldMAC is Compute in ECB fold mode with a single hex encoding of the
// four MAC bytes (8 characters).
func ECBFoldMAC(body, masterKey, wrappedMAK []byte, opts ...Option) (string, error) {
	return Compute(ECBFold, body, masterKey, wrappedMAK, append(opts[:len(opts):len(opts)], withEncoding(singleHex))...)
}

// ECBFoldReferenceMAC is Compute in ECB fold mode returning the value hex
// encoded twice (16 characters), as the switch integration has always sent
// it.
func ECBFoldReferenceMAC(body, masterKey, wrappedMAK []byte, opts ...Option) (string, error) {
	return Compute(ECBFold, body, masterKey, wrappedMAK, append(opts[:len(opts):len(opts)], withEncoding(doubleHex))...)
}

// Verify recomputes the MAC and compares it with expected in constant time.
func Verify(mode Mode, body, masterKey, wrappedMAK []byte, expected string, opts ...Option) error {
	got, err := Compute(mode, body, masterKey, wrappedMAK, opts...)
	if err != nil {
		return err
	}
	if len(got) != len(expected) {
		return fmt.Errorf(
			"%w: %w: expected %d characters, computed %d",
			ErrMACMismatch,
			errBadMACLength,
			len(expected),
			len(got),
		)
	}
	if subtle.ConstantTimeCompare([]byte(got), []byte(strings.ToUpper(expected))) != 1 {
		return ErrMACMismatch
	}

	return nil
}

func computeCBC(body, masterKey, wrappedMAK []byte, o options) (string, error) {
	blocks, err := prepareBody(body, o)
	if err != nil {
		return "", err
	}
	defer cryptoutils.ZeroBlocks(blocks)

	var result cryptoutils.Block
	err = withMACKey(masterKey, wrappedMAK, func(encrypt func(cryptoutils.Block) cryptoutils.Block) {
		result = chainCBC(encrypt, o.iv, blocks)
	})
	if err != nil {
		return "", err
	}

	return cryptoutils.Raw2Str(result[:]), nil
}

func computeECBFold(body, masterKey, wrappedMAK []byte, o options) (string, error) {
	blocks, err := prepareBody(body, o)
	if err != nil {
		return "", err
	}
	defer cryptoutils.ZeroBlocks(blocks)

	folded := fold(blocks)
	defer cryptoutils.ZeroBlock(&folded)

	var result cryptoutils.Block
	err = withMACKey(masterKey, wrappedMAK, func(encrypt func(cryptoutils.Block) cryptoutils.Block) {
		result = chainFold(encrypt, folded)
	})
	if err != nil {
		return "", err
	}

	mac := cryptoutils.Raw2Str(result[:ECBFoldLength])
	if o.encoding == doubleHex {
		mac = cryptoutils.Raw2Str([]byte(mac))
	}

	return mac, nil
}

// prepareBody pads body with NUL bytes and splits it into blocks.
func prepareBody(body []byte, o options) ([]cryptoutils.Block, error) {
	if len(body) == 0 {
		return nil, ErrEmptyBody
	}

	var padded []byte
	if o.legacyPadding {
		padded = cryptoutils.PadNullAlways(body)
	} else {
		padded = cryptoutils.PadNull(body)
	}
	defer cryptoutils.Zero(padded)

	return cryptoutils.SplitBlocks(padded)
}

// withMACKey unwraps the MAK, reduces it to a single-length DES key and
// passes fn an encrypt function bound to it. Clear key bytes are zeroed on
// every return path.
func withMACKey(masterKey, wrappedMAK []byte, fn func(encrypt func(cryptoutils.Block) cryptoutils.Block)) error {
	clearKey, err := keyderive.Unwrap(masterKey, wrappedMAK)
	if err != nil {
		return fmt.Errorf("failed to unwrap mac key: %w", err)
	}
	defer cryptoutils.Zero(clearKey)

	macKey, err := keyderive.SingleLength(clearKey)
	if err != nil {
		return fmt.Errorf("mac key: %w", err)
	}
	defer cryptoutils.ZeroBlock(&macKey)

	c, err := des.NewCipher(macKey[:])
	if err != nil {
		return fmt.Errorf("%w: %v", keyderive.ErrInvalidKeyLength, err)
	}

	fn(func(in cryptoutils.Block) cryptoutils.Block {
		var out cryptoutils.Block
		c.Encrypt(out[:], in[:])

		return out
	})

	return nil
}
