// Package wallet composes the key tree into named, password-protected wallets:
// an encrypted on-disk keystore plus an index of derived accounts.
package wallet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Klingon-tech/klingnet-hdwallet/pkg/bip39"
)

// DefaultStrength is the entropy size for 24-word mnemonics.
const DefaultStrength = 256

// ErrInvalidMnemonic wraps every mnemonic decoding failure reported here.
var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// GenerateMnemonic creates a new BIP-39 mnemonic with the given entropy size.
func GenerateMnemonic(strength int, lang bip39.Language) (bip39.Mnemonic, error) {
	m, err := bip39.Generate(strength, lang)
	if err != nil {
		return bip39.Mnemonic{}, fmt.Errorf("generate mnemonic: %w", err)
	}
	return m, nil
}

// ValidateMnemonic checks word count, wordlist membership and checksum. The
// wordlist is detected from the words; sentences matching no wordlist are
// checked against English so the error names the first unknown position.
func ValidateMnemonic(sentence string) (bip39.Mnemonic, error) {
	lang, ok := bip39.Detect(strings.Fields(sentence))
	if !ok {
		lang = bip39.English
	}
	m, err := bip39.ParseMnemonic(sentence, lang)
	if err != nil {
		return bip39.Mnemonic{}, fmt.Errorf("%w: %w", ErrInvalidMnemonic, err)
	}
	return m, nil
}
