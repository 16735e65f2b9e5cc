package wallet

import (
	"github.com/Klingon-tech/klingnet-hdwallet/internal/log"
	"github.com/Klingon-tech/klingnet-hdwallet/pkg/bip39"
)

// SeedFromMnemonic validates a mnemonic and stretches it into a 64-byte seed.
// The raw seed function accepts any sentence, so validation happens first.
func SeedFromMnemonic(sentence, passphrase string) (bip39.Seed, error) {
	m, err := ValidateMnemonic(sentence)
	if err != nil {
		return bip39.Seed{}, err
	}
	done := log.Benchmark("pbkdf2-seed")
	seed := m.Seed(passphrase)
	done()
	return seed, nil
}
