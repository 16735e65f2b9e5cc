package bip32

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/Klingon-tech/klingnet-hdwallet/pkg/crypto"
)

// SerializedSize is the length of a serialized extended key, before any
// checksum or text encoding.
const SerializedSize = 78

var (
	ErrUnknownVersion       = errors.New("unknown extended key version")
	ErrInvalidSerialization = errors.New("invalid serialized extended key")
)

// Network holds the version bytes that tag serialized keys.
type Network struct {
	Name           string
	PrivateVersion [4]byte
	PublicVersion  [4]byte
}

var (
	// BitcoinMainnet produces xprv/xpub keys.
	BitcoinMainnet = Network{
		Name:           "mainnet",
		PrivateVersion: [4]byte{0x04, 0x88, 0xad, 0xe4},
		PublicVersion:  [4]byte{0x04, 0x88, 0xb2, 0x1e},
	}

	// BitcoinTestnet produces tprv/tpub keys.
	BitcoinTestnet = Network{
		Name:           "testnet",
		PrivateVersion: [4]byte{0x04, 0x35, 0x83, 0x94},
		PublicVersion:  [4]byte{0x04, 0x35, 0x87, 0xcf},
	}
)

// Networks lists the networks recognised by ParseExtendedKey.
func Networks() []Network {
	return []Network{BitcoinMainnet, BitcoinTestnet}
}

// NetworkByName returns the network with the given name.
func NetworkByName(name string) (Network, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, n := range Networks() {
		if n.Name == name {
			return n, nil
		}
	}
	return Network{}, fmt.Errorf("unknown network %q", name)
}

// Serialize encodes the node in the 78-byte interchange layout:
//
//	version(4) depth(1) parent fingerprint(4) child number(4)
//	chain code(32) key data(33)
//
// Private key data is 0x00 followed by the scalar.
func (k *ExtendedKey) Serialize(net Network) [SerializedSize]byte {
	var out [SerializedSize]byte
	if k.IsPrivate() {
		copy(out[0:4], net.PrivateVersion[:])
	} else {
		copy(out[0:4], net.PublicVersion[:])
	}
	out[4] = k.depth
	copy(out[5:9], k.parentPrint[:])
	binary.BigEndian.PutUint32(out[9:13], k.childNum)
	copy(out[13:45], k.chainCode[:])
	if k.IsPrivate() {
		priv := k.priv.Bytes()
		out[45] = 0x00
		copy(out[46:78], priv[:])
		crypto.Zero(priv[:])
	} else {
		copy(out[45:78], k.PublicKey())
	}
	return out
}

// ParseExtendedKey decodes a 78-byte serialized key and reports which
// network its version bytes belong to.
func ParseExtendedKey(b []byte) (*ExtendedKey, Network, error) {
	if len(b) != SerializedSize {
		return nil, Network{}, fmt.Errorf("%w: length %d, want %d", ErrInvalidSerialization, len(b), SerializedSize)
	}

	var version [4]byte
	copy(version[:], b[0:4])
	net, private, ok := lookupVersion(version)
	if !ok {
		return nil, Network{}, fmt.Errorf("%w: %x", ErrUnknownVersion, version)
	}

	depth := b[4]
	fingerprint := b[5:9]
	childNum := binary.BigEndian.Uint32(b[9:13])
	chainCode := b[13:45]
	keyData := b[45:78]

	if depth == 0 {
		if binary.BigEndian.Uint32(fingerprint) != 0 {
			return nil, Network{}, fmt.Errorf("%w: master key with non-zero parent fingerprint", ErrInvalidSerialization)
		}
		if childNum != 0 {
			return nil, Network{}, fmt.Errorf("%w: master key with non-zero child number", ErrInvalidSerialization)
		}
	}

	var key []byte
	if private {
		if keyData[0] != 0x00 {
			return nil, Network{}, fmt.Errorf("%w: private key data must start with 0x00", ErrInvalidSerialization)
		}
		key = keyData[1:]
	} else {
		if keyData[0] != 0x02 && keyData[0] != 0x03 {
			return nil, Network{}, fmt.Errorf("%w: public key must be compressed", ErrInvalidSerialization)
		}
		key = keyData
	}

	ek, err := NewExtendedKey(key, chainCode, depth, childNum, fingerprint)
	if err != nil {
		return nil, Network{}, fmt.Errorf("%w: %w", ErrInvalidSerialization, err)
	}
	return ek, net, nil
}

func lookupVersion(v [4]byte) (net Network, private, ok bool) {
	for _, n := range Networks() {
		switch v {
		case n.PrivateVersion:
			return n, true, true
		case n.PublicVersion:
			return n, false, true
		}
	}
	return Network{}, false, false
}
