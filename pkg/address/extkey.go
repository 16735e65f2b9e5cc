package address

import (
	"bytes"
	"fmt"

	"github.com/Klingon-tech/klingnet-hdwallet/pkg/bip32"
	"github.com/Klingon-tech/klingnet-hdwallet/pkg/crypto"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const checksumSize = 4

// EncodeExtendedKey returns the base58check form of k (xprv/xpub, tprv/tpub).
func EncodeExtendedKey(k *bip32.ExtendedKey, net bip32.Network) string {
	ser := k.Serialize(net)
	defer crypto.Zero(ser[:])

	buf := make([]byte, 0, bip32.SerializedSize+checksumSize)
	buf = append(buf, ser[:]...)
	buf = append(buf, chainhash.DoubleHashB(ser[:])[:checksumSize]...)
	defer crypto.Zero(buf)
	return base58.Encode(buf)
}

// DecodeExtendedKey parses a base58check extended key.
func DecodeExtendedKey(s string) (*bip32.ExtendedKey, bip32.Network, error) {
	raw := base58.Decode(s)
	defer crypto.Zero(raw)
	if len(raw) != bip32.SerializedSize+checksumSize {
		return nil, bip32.Network{}, fmt.Errorf("%w: decoded length %d", bip32.ErrInvalidSerialization, len(raw))
	}

	payload := raw[:bip32.SerializedSize]
	sum := chainhash.DoubleHashB(payload)[:checksumSize]
	if !bytes.Equal(sum, raw[bip32.SerializedSize:]) {
		return nil, bip32.Network{}, ErrChecksum
	}
	return bip32.ParseExtendedKey(payload)
}
