// Package address turns key tree nodes into display strings: base58check
// extended keys and per-chain addresses.
package address

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Klingon-tech/klingnet-hdwallet/pkg/bip32"
	"github.com/btcsuite/btcd/chaincfg"
)

var (
	ErrChecksum      = errors.New("address checksum mismatch")
	ErrUnknownFormat = errors.New("unknown address format")
)

// Address format names.
const (
	FormatEthereum = "ethereum"
	FormatBitcoin  = "bitcoin"
	FormatKlingnet = "klingnet"
)

// Formats returns the supported format names.
func Formats() []string {
	return []string{FormatEthereum, FormatBitcoin, FormatKlingnet}
}

// Formatter renders a public key as an address.
type Formatter interface {
	Format(pub []byte) (string, error)
}

// FormatterFunc adapts a function to Formatter.
type FormatterFunc func(pub []byte) (string, error)

// Format calls f(pub).
func (f FormatterFunc) Format(pub []byte) (string, error) {
	return f(pub)
}

// Lookup returns the formatter for a format name on net.
func Lookup(name string, net bip32.Network) (Formatter, error) {
	testnet := net.Name == bip32.BitcoinTestnet.Name
	switch strings.ToLower(strings.TrimSpace(name)) {
	case FormatEthereum:
		return FormatterFunc(Ethereum), nil
	case FormatBitcoin:
		params := &chaincfg.MainNetParams
		if testnet {
			params = &chaincfg.TestNet3Params
		}
		return FormatterFunc(func(pub []byte) (string, error) {
			return BitcoinP2PKH(pub, params)
		}), nil
	case FormatKlingnet:
		hrp := KlingnetMainnetHRP
		if testnet {
			hrp = KlingnetTestnetHRP
		}
		return FormatterFunc(func(pub []byte) (string, error) {
			return Klingnet(pub, hrp)
		}), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// ForKey formats the public key of k with f.
func ForKey(f Formatter, k *bip32.ExtendedKey) (string, error) {
	return f.Format(k.PublicKey())
}
