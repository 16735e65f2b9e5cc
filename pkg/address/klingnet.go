package address

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-hdwallet/pkg/crypto"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Klingnet address HRP (human-readable part) constants.
const (
	KlingnetMainnetHRP = "kgx"
	KlingnetTestnetHRP = "tkgx"
)

// KlingnetAddressSize is the length of a Klingnet address payload.
const KlingnetAddressSize = 20

// Klingnet returns the bech32 address of a public key: the first 20 bytes
// of BLAKE3(compressed pubkey) under hrp.
func Klingnet(pub []byte, hrp string) (string, error) {
	pk, err := secp256k1.ParsePubKey(pub)
	if err != nil {
		return "", fmt.Errorf("parse public key: %w", err)
	}
	h := crypto.Hash(pk.SerializeCompressed())

	conv, err := bech32.ConvertBits(h[:KlingnetAddressSize], 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("bech32: convert bits: %w", err)
	}
	s, err := bech32.Encode(hrp, conv)
	if err != nil {
		return "", fmt.Errorf("bech32: %w", err)
	}
	return s, nil
}

// ParseKlingnet decodes a Klingnet address into its HRP and 20-byte payload.
func ParseKlingnet(s string) (string, []byte, error) {
	hrp, data, err := bech32.Decode(s)
	if err != nil {
		var ce bech32.ErrInvalidChecksum
		if errors.As(err, &ce) {
			return "", nil, fmt.Errorf("%w: %v", ErrChecksum, err)
		}
		return "", nil, fmt.Errorf("invalid bech32 address: %w", err)
	}
	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", nil, fmt.Errorf("bech32: convert bits: %w", err)
	}
	if len(payload) != KlingnetAddressSize {
		return "", nil, fmt.Errorf("address must be %d bytes, got %d", KlingnetAddressSize, len(payload))
	}
	return hrp, payload, nil
}
