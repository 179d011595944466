package mac

import (
	"encoding/hex"
	"strings"

	"github.com/andrei-cloud/go_paysec/pkg/cryptoutils"
)

// chainCBC computes vec = E(vec ^ B) over every block, starting from iv.
func chainCBC(
	encrypt func(cryptoutils.Block) cryptoutils.Block,
	iv cryptoutils.Block,
	blocks []cryptoutils.Block,
) cryptoutils.Block {
	vec := iv
	for _, b := range blocks {
		vec = encrypt(cryptoutils.XORBlock(vec, b))
	}

	return vec
}

// fold XORs all blocks together.
func fold(blocks []cryptoutils.Block) cryptoutils.Block {
	var acc cryptoutils.Block
	for _, b := range blocks {
		acc = cryptoutils.XORBlock(acc, b)
	}

	return acc
}

// chainFold runs the fold-then-MAC step: the uppercase hex form of folded is
// split into two 8-byte ASCII halves H1, H2 and the result is
// E(E(H1) ^ H2).
func chainFold(
	encrypt func(cryptoutils.Block) cryptoutils.Block,
	folded cryptoutils.Block,
) cryptoutils.Block {
	var ascii [2 * cryptoutils.BLOCK_SIZE]byte
	hex.Encode(ascii[:], folded[:])
	copy(ascii[:], strings.ToUpper(string(ascii[:])))
	defer clear(ascii[:])

	var h1, h2 cryptoutils.Block
	copy(h1[:], ascii[:cryptoutils.BLOCK_SIZE])
	copy(h2[:], ascii[cryptoutils.BLOCK_SIZE:])
	defer cryptoutils.ZeroBlock(&h1)
	defer cryptoutils.ZeroBlock(&h2)

	c1 := encrypt(h1)
	c2 := cryptoutils.XORBlock(c1, h2)

	return encrypt(c2)
}
