package address

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Klingon-tech/klingnet-hdwallet/pkg/crypto"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// EthereumAddressSize is the length of an Ethereum account address.
const EthereumAddressSize = 20

// Ethereum returns the EIP-55 checksummed account address of a public key
// (compressed or uncompressed).
func Ethereum(pub []byte) (string, error) {
	pk, err := secp256k1.ParsePubKey(pub)
	if err != nil {
		return "", fmt.Errorf("parse public key: %w", err)
	}
	// The address is the low 20 bytes of Keccak-256(X || Y).
	h := crypto.Keccak256(pk.SerializeUncompressed()[1:])
	return ChecksumEthereum(h[len(h)-EthereumAddressSize:]), nil
}

// ChecksumEthereum formats a 20-byte address with EIP-55 mixed-case hex.
func ChecksumEthereum(addr []byte) string {
	lower := hex.EncodeToString(addr)
	hash := hex.EncodeToString(crypto.Keccak256([]byte(lower)))

	out := []byte(lower)
	for i, c := range out {
		if c >= 'a' && c <= 'f' && hash[i] >= '8' {
			out[i] = c - 'a' + 'A'
		}
	}
	return "0x" + string(out)
}

// ParseEthereum decodes a hex address. Mixed-case input must carry a valid
// EIP-55 checksum; all-lowercase and all-uppercase input is accepted as is.
func ParseEthereum(s string) ([]byte, error) {
	body := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(body) != EthereumAddressSize*2 {
		return nil, fmt.Errorf("ethereum address must be %d hex characters, got %d", EthereumAddressSize*2, len(body))
	}
	addr, err := hex.DecodeString(body)
	if err != nil {
		return nil, fmt.Errorf("decode ethereum address: %w", err)
	}
	if body != strings.ToLower(body) && body != strings.ToUpper(body) {
		if ChecksumEthereum(addr) != "0x"+body {
			return nil, ErrChecksum
		}
	}
	return addr, nil
}
