package bip39

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Klingon-tech/klingnet-hdwallet/pkg/crypto"
	"golang.org/x/crypto/pbkdf2"
)

// SeedSize is the length of a derived seed in bytes (512 bits).
const SeedSize = 64

// seedIterations is the PBKDF2 round count fixed by BIP-39.
const seedIterations = 2048

// Seed is the 64-byte output of the BIP-39 key stretch.
type Seed [SeedSize]byte

// NewSeed stretches a mnemonic sentence and optional passphrase into a seed
// with PBKDF2-HMAC-SHA512. Words are NFKD-normalised and re-joined with single
// spaces; the salt is "mnemonic" + passphrase. The sentence is not checked
// against any wordlist, so any input yields a deterministic seed.
func NewSeed(sentence, passphrase string) Seed {
	password := []byte(strings.Join(splitWords(sentence), " "))
	salt := []byte(nfkd("mnemonic" + passphrase))
	defer crypto.Zero(password)
	defer crypto.Zero(salt)

	key := pbkdf2.Key(password, salt, seedIterations, SeedSize, sha512.New)
	defer crypto.Zero(key)

	var s Seed
	copy(s[:], key)
	return s
}

// ParseSeed decodes a hex-encoded 64-byte seed.
func ParseSeed(s string) (Seed, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return Seed{}, fmt.Errorf("decode seed: %w", err)
	}
	defer crypto.Zero(b)
	if len(b) != SeedSize {
		return Seed{}, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(b))
	}
	var seed Seed
	copy(seed[:], b)
	return seed, nil
}

// Bytes returns a copy of the seed bytes.
func (s *Seed) Bytes() []byte {
	out := make([]byte, SeedSize)
	copy(out, s[:])
	return out
}

// String returns the hex encoding of the seed.
func (s *Seed) String() string {
	return hex.EncodeToString(s[:])
}

// Zero wipes the seed in place.
func (s *Seed) Zero() {
	crypto.Zero(s[:])
}
