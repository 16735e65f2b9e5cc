package address

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// BitcoinP2PKH returns the pay-to-pubkey-hash address of a compressed key.
func BitcoinP2PKH(pub []byte, params *chaincfg.Params) (string, error) {
	pk, err := secp256k1.ParsePubKey(pub)
	if err != nil {
		return "", fmt.Errorf("parse public key: %w", err)
	}
	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(pk.SerializeCompressed()), params)
	if err != nil {
		return "", fmt.Errorf("p2pkh address: %w", err)
	}
	return addr.EncodeAddress(), nil
}
