// Package bip39 encodes entropy as checksummed mnemonic sentences and
// stretches sentences into 64-byte seeds, as defined by BIP-39.
package bip39

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-hdwallet/pkg/crypto"
)

const (
	bitsPerWord = 11

	// MinStrength and MaxStrength bound the entropy size in bits.
	MinStrength = 128
	MaxStrength = 256
)

var (
	ErrInvalidEntropyLength = errors.New("entropy must be 128, 160, 192, 224 or 256 bits")
	ErrInvalidWordCount     = errors.New("mnemonic must have 12, 15, 18, 21 or 24 words")
	ErrUnknownWord          = errors.New("word not in wordlist")
	ErrChecksumMismatch     = errors.New("mnemonic checksum mismatch")
)

// ValidStrength reports whether bits is an allowed entropy size.
func ValidStrength(bits int) bool {
	return bits >= MinStrength && bits <= MaxStrength && bits%32 == 0
}

// checksumBits returns the checksum length for a given entropy size.
func checksumBits(entropyBits int) int {
	return entropyBits / 32
}

// WordCount returns the mnemonic length for an entropy size, or 0 if invalid.
func WordCount(entropyBits int) int {
	if !ValidStrength(entropyBits) {
		return 0
	}
	return (entropyBits + checksumBits(entropyBits)) / bitsPerWord
}

// StrengthForWords returns the entropy size implied by a word count, or 0.
func StrengthForWords(words int) int {
	switch words {
	case 12, 15, 18, 21, 24:
		return words * bitsPerWord * 32 / 33
	}
	return 0
}

// NewEntropy draws bits of entropy from the system CSPRNG.
func NewEntropy(bits int) ([]byte, error) {
	if !ValidStrength(bits) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidEntropyLength, bits)
	}
	entropy := make([]byte, bits/8)
	if _, err := rand.Read(entropy); err != nil {
		return nil, fmt.Errorf("read entropy: %w", err)
	}
	return entropy, nil
}

// checksumByte returns the leading byte of SHA-256(entropy); the checksum is
// its top entropy_bits/32 bits.
func checksumByte(entropy []byte) byte {
	sum := sha256.Sum256(entropy)
	b := sum[0]
	crypto.Zero(sum[:])
	return b
}

// readBits reads n bits starting at bit offset off, most significant first.
func readBits(buf []byte, off, n int) int {
	v := 0
	for i := 0; i < n; i++ {
		pos := off + i
		bit := (buf[pos/8] >> (7 - uint(pos%8))) & 1
		v = v<<1 | int(bit)
	}
	return v
}

// writeBits writes the low n bits of v at bit offset off, most significant first.
func writeBits(buf []byte, off, n, v int) {
	for i := 0; i < n; i++ {
		pos := off + i
		if (v>>(n-1-i))&1 == 1 {
			buf[pos/8] |= 1 << (7 - uint(pos%8))
		}
	}
}
