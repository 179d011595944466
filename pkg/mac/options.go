package mac

import "github.com/andrei-cloud/go_paysec/pkg/cryptoutils"

type encoding int

const (
	singleHex encoding = iota
	doubleHex
)

type options struct {
	iv            cryptoutils.Block
	legacyPadding bool
	encoding      encoding
}

// Option customises a MAC computation.
type Option func(*options)

// WithIV sets the CBC initial vector. The default is eight zero bytes.
// ECB fold ignores it.
func WithIV(iv [cryptoutils.BLOCK_SIZE]byte) Option {
	return func(o *options) {
		o.iv = iv
	}
}

// WithLegacyPadding always appends 1 to 8 NUL bytes, a whole block when the
// body is already aligned. Only CBC results are affected by the extra block.
func WithLegacyPadding() Option {
	return func(o *options) {
		o.legacyPadding = true
	}
}

// WithReferenceDoubleHex makes ECB fold return the double hex encoded MAC.
func WithReferenceDoubleHex() Option {
	return withEncoding(doubleHex)
}

func withEncoding(e encoding) Option {
	return func(o *options) {
		o.encoding = e
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	return o
}
