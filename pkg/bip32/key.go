// Package bip32 implements hierarchical deterministic key derivation over
// secp256k1 as defined by BIP-32.
//
// An ExtendedKey is an immutable node of the key tree. Deriving a child never
// touches the parent; the only mutating method is Zero, which wipes private
// material once the caller is done with a node.
package bip32

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-hdwallet/pkg/crypto"
	"github.com/Klingon-tech/klingnet-hdwallet/pkg/hdpath"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

const (
	ChainCodeSize   = 32
	PrivateKeySize  = 32
	PublicKeySize   = 33
	FingerprintSize = 4

	// MaxDepth is the deepest node a serialized key can describe.
	MaxDepth = 255

	// MinSeedSize and MaxSeedSize bound the master seed in bytes.
	MinSeedSize = 16
	MaxSeedSize = 64
)

// masterKey is the HMAC key used to derive the master node.
var masterKey = []byte("Bitcoin seed")

var (
	ErrInvalidMasterKey   = errors.New("seed produces an invalid master key")
	ErrKeyOutOfRange      = errors.New("derived key is out of range for this index")
	ErrDerivationOverflow = errors.New("cannot derive a hardened child from a public key")
	ErrDepthExceeded      = errors.New("maximum derivation depth exceeded")
	ErrInvalidSeedLength  = errors.New("seed must be between 16 and 64 bytes")
	ErrInvalidKeyData     = errors.New("invalid key data")
)

// ExtendedKey is a node of the key tree: a key, its chain code and its
// position below the master.
type ExtendedKey struct {
	chainCode   [ChainCodeSize]byte
	priv        *secp256k1.ModNScalar // nil for public-only keys
	pub         *secp256k1.PublicKey
	depth       uint8
	childNum    uint32
	parentPrint [FingerprintSize]byte
}

// NewMaster derives the master node from a seed.
func NewMaster(seed []byte) (*ExtendedKey, error) {
	if len(seed) < MinSeedSize || len(seed) > MaxSeedSize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSeedLength, len(seed))
	}

	il, ir := crypto.HMACSHA512(masterKey, seed)
	defer crypto.Zero(il[:])

	var k secp256k1.ModNScalar
	if overflow := k.SetBytes(&il); overflow != 0 || k.IsZero() {
		k.Zero()
		return nil, ErrInvalidMasterKey
	}
	return newPrivate(&k, ir, 0, 0, [FingerprintSize]byte{}), nil
}

// NewExtendedKey builds a node from raw parts. key is either a 32-byte
// private scalar or a 33-byte compressed public point.
func NewExtendedKey(key, chainCode []byte, depth uint8, childNum uint32, parentFingerprint []byte) (*ExtendedKey, error) {
	if len(chainCode) != ChainCodeSize {
		return nil, fmt.Errorf("%w: chain code must be %d bytes", ErrInvalidKeyData, ChainCodeSize)
	}
	if len(parentFingerprint) != FingerprintSize {
		return nil, fmt.Errorf("%w: fingerprint must be %d bytes", ErrInvalidKeyData, FingerprintSize)
	}
	var cc [ChainCodeSize]byte
	var fp [FingerprintSize]byte
	copy(cc[:], chainCode)
	copy(fp[:], parentFingerprint)

	switch len(key) {
	case PrivateKeySize:
		var k secp256k1.ModNScalar
		if overflow := k.SetByteSlice(key); overflow || k.IsZero() {
			k.Zero()
			return nil, fmt.Errorf("%w: private key out of range", ErrInvalidKeyData)
		}
		return newPrivate(&k, cc, depth, childNum, fp), nil
	case PublicKeySize:
		pub, err := secp256k1.ParsePubKey(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKeyData, err)
		}
		return &ExtendedKey{chainCode: cc, pub: pub, depth: depth, childNum: childNum, parentPrint: fp}, nil
	}
	return nil, fmt.Errorf("%w: key must be %d or %d bytes, got %d",
		ErrInvalidKeyData, PrivateKeySize, PublicKeySize, len(key))
}

func newPrivate(k *secp256k1.ModNScalar, chainCode [ChainCodeSize]byte, depth uint8, childNum uint32, parent [FingerprintSize]byte) *ExtendedKey {
	priv := new(secp256k1.ModNScalar)
	priv.Set(k)
	k.Zero()
	return &ExtendedKey{
		chainCode:   chainCode,
		priv:        priv,
		pub:         secp256k1.NewPrivateKey(priv).PubKey(),
		depth:       depth,
		childNum:    childNum,
		parentPrint: parent,
	}
}

// IsPrivate reports whether the node holds a private scalar.
func (k *ExtendedKey) IsPrivate() bool {
	return k.priv != nil
}

// Neuter returns a public-only copy of the node. Neutering a public node
// returns an equal node.
func (k *ExtendedKey) Neuter() *ExtendedKey {
	return &ExtendedKey{
		chainCode:   k.chainCode,
		pub:         k.pub,
		depth:       k.depth,
		childNum:    k.childNum,
		parentPrint: k.parentPrint,
	}
}

// PrivateKey returns a copy of the 32-byte private scalar, or nil for a
// public-only node.
func (k *ExtendedKey) PrivateKey() []byte {
	if k.priv == nil {
		return nil
	}
	b := k.priv.Bytes()
	out := make([]byte, PrivateKeySize)
	copy(out, b[:])
	crypto.Zero(b[:])
	return out
}

// PublicKey returns the 33-byte compressed public point.
func (k *ExtendedKey) PublicKey() []byte {
	return k.pub.SerializeCompressed()
}

// ECPublicKey returns the curve point.
func (k *ExtendedKey) ECPublicKey() *secp256k1.PublicKey {
	return k.pub
}

// ChainCode returns a copy of the chain code.
func (k *ExtendedKey) ChainCode() []byte {
	out := make([]byte, ChainCodeSize)
	copy(out, k.chainCode[:])
	return out
}

// Depth returns the number of derivations from the master (0 for master).
func (k *ExtendedKey) Depth() uint8 {
	return k.depth
}

// ChildNumber returns the 32-bit child number, hardened bit included.
func (k *ExtendedKey) ChildNumber() uint32 {
	return k.childNum
}

// Index returns the child index without the hardened bit.
func (k *ExtendedKey) Index() uint32 {
	return k.childNum &^ hdpath.HardenedOffset
}

// IsHardened reports whether this node was derived as a hardened child.
func (k *ExtendedKey) IsHardened() bool {
	return k.childNum&hdpath.HardenedOffset != 0
}

// ParentFingerprint returns the parent's fingerprint (zero for master).
func (k *ExtendedKey) ParentFingerprint() []byte {
	out := make([]byte, FingerprintSize)
	copy(out, k.parentPrint[:])
	return out
}

// Identifier returns Hash160 of the compressed public key.
func (k *ExtendedKey) Identifier() []byte {
	return crypto.Hash160(k.PublicKey())
}

// Fingerprint returns the first four bytes of the identifier.
func (k *ExtendedKey) Fingerprint() []byte {
	return k.Identifier()[:FingerprintSize]
}

// FingerprintUint32 returns the fingerprint as a big-endian integer.
func (k *ExtendedKey) FingerprintUint32() uint32 {
	return binary.BigEndian.Uint32(k.Fingerprint())
}

// Equal reports whether two nodes describe the same key at the same position.
func (k *ExtendedKey) Equal(other *ExtendedKey) bool {
	if k == nil || other == nil {
		return k == other
	}
	if k.IsPrivate() != other.IsPrivate() {
		return false
	}
	if k.IsPrivate() && !k.priv.Equals(other.priv) {
		return false
	}
	return k.chainCode == other.chainCode &&
		k.depth == other.depth &&
		k.childNum == other.childNum &&
		k.parentPrint == other.parentPrint &&
		bytes.Equal(k.PublicKey(), other.PublicKey())
}

// String describes the node's position and public key. It never includes
// private material.
func (k *ExtendedKey) String() string {
	kind := "public"
	if k.IsPrivate() {
		kind = "private"
	}
	return fmt.Sprintf("%s key depth=%d child=%s pub=%s", kind, k.depth,
		hdpath.StepFromChildNumber(k.childNum), hex.EncodeToString(k.PublicKey()))
}

// Zero wipes the private scalar and chain code. The node must not be used
// afterwards.
func (k *ExtendedKey) Zero() {
	if k.priv != nil {
		k.priv.Zero()
		k.priv = nil
	}
	crypto.Zero(k.chainCode[:])
}
