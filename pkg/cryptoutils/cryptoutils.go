// Package cryptoutils provides block-level helpers shared by the key
// derivation, PIN block and MAC packages.
package cryptoutils

import (
	"crypto/cipher"
	"crypto/des"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	BLOCK_SIZE        = des.BlockSize
	KEY_LENGTH_SINGLE = 8
	KEY_LENGTH_DOUBLE = 16
	KEY_LENGTH_TRIPLE = 24
	KCV_MAX_LENGTH    = 16
)

var errNotBlockAligned = errors.New("data length is not a multiple of the block size")

// Block is a single 8-byte DES block.
type Block [BLOCK_SIZE]byte

// ecb wraps a cipher.Block to provide ECB mode.
type ecb struct{ b cipher.Block }

type ecbEncrypter ecb

type ecbDecrypter ecb

// Raw2Str converts raw binary data to an uppercase hex string.
func Raw2Str(raw []byte) string {
	return strings.ToUpper(hex.EncodeToString(raw))
}

// B2Raw decodes hex bytes into raw binary.
func B2Raw(data []byte) ([]byte, error) {
	raw, err := hex.DecodeString(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode hex data: %w", err)
	}

	return raw, nil
}

// PrepareTripleDESKey extends a single or double length key to triple length
// (K1K1K1 or K1K2K1). Triple length keys are returned unchanged.
// The result never aliases key, so callers can zero it independently.
func PrepareTripleDESKey(key []byte) []byte {
	key24 := make([]byte, KEY_LENGTH_TRIPLE)
	switch len(key) {
	case KEY_LENGTH_SINGLE:
		copy(key24, key)
		copy(key24[KEY_LENGTH_SINGLE:], key)
		copy(key24[KEY_LENGTH_DOUBLE:], key)
	case KEY_LENGTH_DOUBLE:
		copy(key24, key)
		copy(key24[KEY_LENGTH_DOUBLE:], key[:KEY_LENGTH_SINGLE])
	default:
		return slices.Clone(key)
	}

	return key24
}

// NewTripleDESCipher builds a triple-DES cipher from a 16 or 24 byte key.
func NewTripleDESCipher(key []byte) (cipher.Block, error) {
	if len(key) != KEY_LENGTH_DOUBLE && len(key) != KEY_LENGTH_TRIPLE {
		return nil, fmt.Errorf("triple des key must be 16 or 24 bytes, got %d", len(key))
	}
	key24 := PrepareTripleDESKey(key)
	defer Zero(key24)

	return des.NewTripleDESCipher(key24)
}

// NewECBEncrypter returns a cipher.BlockMode for ECB encryption.
func NewECBEncrypter(b cipher.Block) cipher.BlockMode {
	return (*ecbEncrypter)(&ecb{b: b})
}

func (x *ecbEncrypter) BlockSize() int { return x.b.BlockSize() }

func (x *ecbEncrypter) CryptBlocks(dst, src []byte) {
	if len(src)%x.BlockSize() != 0 {
		panic(fmt.Sprintf(
			"cryptoutils: input length %d not a multiple of block size %d",
			len(src),
			x.BlockSize(),
		))
	}
	for len(src) > 0 {
		x.b.Encrypt(dst[:x.BlockSize()], src[:x.BlockSize()])
		src = src[x.BlockSize():]
		dst = dst[x.BlockSize():]
	}
}

// NewECBDecrypter returns a cipher.BlockMode for ECB decryption.
func NewECBDecrypter(b cipher.Block) cipher.BlockMode {
	return (*ecbDecrypter)(&ecb{b: b})
}

func (x *ecbDecrypter) BlockSize() int { return x.b.BlockSize() }

func (x *ecbDecrypter) CryptBlocks(dst, src []byte) {
	if len(src)%x.BlockSize() != 0 {
		panic(fmt.Sprintf(
			"cryptoutils: input length %d not a multiple of block size %d",
			len(src),
			x.BlockSize(),
		))
	}
	for len(src) > 0 {
		x.b.Decrypt(dst[:x.BlockSize()], src[:x.BlockSize()])
		src = src[x.BlockSize():]
		dst = dst[x.BlockSize():]
	}
}

// XORBlock returns a^b.
func XORBlock(a, b Block) Block {
	var out Block
	for i := range out {
		out[i] = a[i] ^ b[i]
	}

	return out
}

// PadNull appends the smallest number of 0x00 bytes needed to make data a
// multiple of the block size. Aligned data is returned as a copy.
func PadNull(data []byte) []byte {
	padLen := (BLOCK_SIZE - len(data)%BLOCK_SIZE) % BLOCK_SIZE

	return slices.Concat(data, make([]byte, padLen))
}

// PadNullAlways appends between 1 and 8 0x00 bytes, adding a whole block when
// data is already aligned.
func PadNullAlways(data []byte) []byte {
	return slices.Concat(data, make([]byte, BLOCK_SIZE-len(data)%BLOCK_SIZE))
}

// SplitBlocks splits block-aligned data into 8-byte blocks.
func SplitBlocks(data []byte) ([]Block, error) {
	if len(data)%BLOCK_SIZE != 0 {
		return nil, fmt.Errorf("%w: %d", errNotBlockAligned, len(data))
	}
	out := make([]Block, len(data)/BLOCK_SIZE)
	for i := range out {
		copy(out[i][:], data[i*BLOCK_SIZE:(i+1)*BLOCK_SIZE])
	}

	return out, nil
}

// Zero overwrites b with zero bytes.
func Zero(b []byte) {
	clear(b)
}

// ZeroBlock overwrites a single block with zero bytes.
func ZeroBlock(b *Block) {
	*b = Block{}
}

// ZeroBlocks overwrites every block with zero bytes.
func ZeroBlocks(blocks []Block) {
	for i := range blocks {
		blocks[i] = Block{}
	}
}

// KeyCV returns the first kcvLen hex characters of the key encrypted over
// a zero block. Single length keys are computed with single DES.
func KeyCV(key []byte, kcvLen int) (string, error) {
	if kcvLen <= 0 || kcvLen > KCV_MAX_LENGTH {
		return "", fmt.Errorf("keycv: kcv length %d out of range", kcvLen)
	}
	switch len(key) {
	case KEY_LENGTH_SINGLE, KEY_LENGTH_DOUBLE, KEY_LENGTH_TRIPLE:
	default:
		return "", fmt.Errorf("keycv: invalid key length %d", len(key))
	}

	key24 := PrepareTripleDESKey(key)
	defer Zero(key24)

	block, err := des.NewTripleDESCipher(key24)
	if err != nil {
		return "", err
	}

	var zero, dst Block
	block.Encrypt(dst[:], zero[:])

	return Raw2Str(dst[:])[:kcvLen], nil
}

// ParityOf returns -1 if x has an odd number of set bits and 0 otherwise.
func ParityOf(x int) int {
	parity := 0
	for x != 0 {
		parity = ^parity
		x &= (x - 1)
	}

	return parity
}

// CheckKeyParity returns true if every byte in key has ODD parity.
func CheckKeyParity(key []byte) bool {
	for _, b := range key {
		if ParityOf(int(b)) != -1 {
			return false
		}
	}

	return true
}
