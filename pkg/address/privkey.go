package address

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-hdwallet/pkg/bip32"
	"github.com/Klingon-tech/klingnet-hdwallet/pkg/crypto"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

var errPublicOnly = errors.New("key has no private material")

// PrivateKeyHex returns the raw private scalar of k as hex.
func PrivateKeyHex(k *bip32.ExtendedKey) (string, error) {
	priv := k.PrivateKey()
	if priv == nil {
		return "", errPublicOnly
	}
	defer crypto.Zero(priv)
	return hex.EncodeToString(priv), nil
}

// PrivateKeyWIF returns the compressed wallet-import-format encoding of
// k's private scalar.
func PrivateKeyWIF(k *bip32.ExtendedKey, params *chaincfg.Params) (string, error) {
	priv := k.PrivateKey()
	if priv == nil {
		return "", errPublicOnly
	}
	defer crypto.Zero(priv)

	pk := secp256k1.PrivKeyFromBytes(priv)
	defer pk.Zero()
	wif, err := btcutil.NewWIF(pk, params, true)
	if err != nil {
		return "", fmt.Errorf("encode wif: %w", err)
	}
	return wif.String(), nil
}
