package config

import (
	"fmt"
	"slices"

	"github.com/Klingon-tech/klingnet-hdwallet/internal/log"
	"github.com/Klingon-tech/klingnet-hdwallet/pkg/address"
	"github.com/Klingon-tech/klingnet-hdwallet/pkg/bip39"
	"github.com/Klingon-tech/klingnet-hdwallet/pkg/hdpath"
)

// Validate checks the config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != Mainnet && cfg.Network != Testnet {
		return fmt.Errorf("network must be %q or %q", Mainnet, Testnet)
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("datadir must not be empty")
	}

	if _, err := bip39.ParseLanguage(cfg.Wallet.Language); err != nil {
		return fmt.Errorf("wallet.language: %w", err)
	}
	if !bip39.ValidStrength(cfg.Wallet.Strength) {
		return fmt.Errorf("wallet.strength: %w", bip39.ErrInvalidEntropyLength)
	}
	p, err := hdpath.Parse(cfg.Wallet.DefaultPath)
	if err != nil {
		return fmt.Errorf("wallet.path: %w", err)
	}
	if p.PublicOnly {
		return fmt.Errorf("wallet.path must start with m/")
	}
	if !slices.Contains(address.Formats(), cfg.Wallet.AddressFormat) {
		return fmt.Errorf("wallet.address: %w %q", address.ErrUnknownFormat, cfg.Wallet.AddressFormat)
	}

	if cfg.KDF.Memory == 0 || cfg.KDF.Iterations == 0 || cfg.KDF.Parallelism == 0 {
		return fmt.Errorf("kdf.memory, kdf.iterations and kdf.parallelism must be non-zero")
	}

	if !log.ValidLevel(cfg.Log.Level) {
		return fmt.Errorf("log.level must be debug, info, warn or error")
	}
	return nil
}
