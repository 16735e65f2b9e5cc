package wallet

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-hdwallet/internal/log"
	"github.com/Klingon-tech/klingnet-hdwallet/pkg/crypto"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// ErrDecrypt is returned when a sealed blob cannot be opened: wrong password
// or tampered data.
var ErrDecrypt = errors.New("decryption failed (wrong password or corrupted data)")

// Sealed blob layout:
//
//	version(1) | salt(32) | memory(4) | iterations(4) | parallelism(1) | nonce(24) | ciphertext
//
// The header through the nonce is authenticated as associated data.
const (
	sealVersion = 1
	SaltSize    = 32
	headerSize  = 1 + SaltSize + 4 + 4 + 1
	sealedMin   = headerSize + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead

	// maxKDFMemory bounds the work a crafted file can demand (4 GiB).
	maxKDFMemory uint32 = 4 * 1024 * 1024
)

// EncryptionParams holds Argon2id parameters.
type EncryptionParams struct {
	Memory      uint32 // in KiB
	Iterations  uint32
	Parallelism uint8
}

// DefaultParams returns recommended Argon2id parameters.
func DefaultParams() EncryptionParams {
	return EncryptionParams{
		Memory:      64 * 1024, // 64 MiB
		Iterations:  3,
		Parallelism: 4,
	}
}

func (p EncryptionParams) validate() error {
	if p.Memory == 0 || p.Iterations == 0 || p.Parallelism == 0 {
		return fmt.Errorf("argon2id parameters must be non-zero")
	}
	if p.Memory > maxKDFMemory {
		return fmt.Errorf("argon2id memory %d KiB exceeds limit %d KiB", p.Memory, maxKDFMemory)
	}
	return nil
}

func deriveKey(password, salt []byte, params EncryptionParams) []byte {
	defer log.Benchmark("argon2id")()
	return argon2.IDKey(password, salt, params.Iterations, params.Memory, params.Parallelism, chacha20poly1305.KeySize)
}

// Seal encrypts data under password with Argon2id and XChaCha20-Poly1305.
func Seal(data, password []byte, params EncryptionParams) ([]byte, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	header := make([]byte, 0, headerSize+chacha20poly1305.NonceSizeX)
	header = append(header, sealVersion)
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	header = append(header, salt...)
	header = binary.BigEndian.AppendUint32(header, params.Memory)
	header = binary.BigEndian.AppendUint32(header, params.Iterations)
	header = append(header, params.Parallelism)

	key := deriveKey(password, salt, params)
	defer crypto.Zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	header = append(header, nonce...)

	aad := make([]byte, len(header))
	copy(aad, header)
	return aead.Seal(header, nonce, data, aad), nil
}

// Open decrypts a blob produced by Seal.
func Open(sealed, password []byte) ([]byte, error) {
	if len(sealed) < sealedMin {
		return nil, fmt.Errorf("%w: sealed data too short (%d bytes)", ErrDecrypt, len(sealed))
	}
	if sealed[0] != sealVersion {
		return nil, fmt.Errorf("unsupported seal version %d", sealed[0])
	}

	salt := sealed[1 : 1+SaltSize]
	params, _ := ParamsOf(sealed)
	if err := params.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}

	aad := sealed[:headerSize+chacha20poly1305.NonceSizeX]
	nonce := aad[headerSize:]
	ciphertext := sealed[len(aad):]

	key := deriveKey(password, salt, params)
	defer crypto.Zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

// ParamsOf reports the Argon2id parameters recorded in a sealed blob.
func ParamsOf(sealed []byte) (EncryptionParams, error) {
	if len(sealed) < headerSize {
		return EncryptionParams{}, fmt.Errorf("sealed data too short (%d bytes)", len(sealed))
	}
	return EncryptionParams{
		Memory:      binary.BigEndian.Uint32(sealed[1+SaltSize:]),
		Iterations:  binary.BigEndian.Uint32(sealed[1+SaltSize+4:]),
		Parallelism: sealed[1+SaltSize+8],
	}, nil
}
