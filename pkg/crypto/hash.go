// Package crypto provides the hash primitives shared by the key tree and the
// address encoders.
package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // BIP-32 fingerprints are defined over RIPEMD-160.
	"golang.org/x/crypto/sha3"
)

// Hash160Size is the length of a Hash160 digest in bytes.
const Hash160Size = ripemd160.Size

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) [32]byte {
	return blake3.Sum256(data)
}

// Sha256 computes a single SHA-256 digest.
func Sha256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// Hash160 computes RIPEMD160(SHA256(data)).
// Used for BIP-32 key identifiers and parent fingerprints.
func Hash160(data []byte) []byte {
	sum := sha256.Sum256(data)
	h := ripemd160.New()
	h.Write(sum[:])
	return h.Sum(nil)
}

// Keccak256 computes the legacy (pre-FIPS) Keccak-256 digest used by Ethereum.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// HMACSHA512 computes HMAC-SHA512(key, data...) and returns the 64-byte MAC
// split into its left and right halves.
func HMACSHA512(key []byte, data ...[]byte) (left, right [32]byte) {
	mac := hmac.New(sha512.New, key)
	for _, d := range data {
		mac.Write(d)
	}
	var sum [sha512.Size]byte
	mac.Sum(sum[:0])
	copy(left[:], sum[:32])
	copy(right[:], sum[32:])
	Zero(sum[:])
	return left, right
}
