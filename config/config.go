// Package config handles application configuration.
//
// Settings come from three layers, later ones winning:
//   - Built-in defaults for the selected network
//   - The config file (key = value lines)
//   - Command-line flags
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/Klingon-tech/klingnet-hdwallet/pkg/bip32"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// Config holds the wallet tool's runtime configuration.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// Wallet defaults for new wallets and derivations
	Wallet WalletConfig

	// Keystore key derivation
	KDF KDFConfig

	// Logging
	Log LogConfig
}

// WalletConfig holds wallet defaults.
type WalletConfig struct {
	Language      string `conf:"wallet.language"` // Mnemonic wordlist
	Strength      int    `conf:"wallet.strength"` // Entropy bits for new mnemonics
	DefaultPath   string `conf:"wallet.path"`     // Account root used by "next"
	AddressFormat string `conf:"wallet.address"`  // ethereum, bitcoin or klingnet
}

// KDFConfig holds Argon2id parameters used to seal keystore files.
type KDFConfig struct {
	Memory      uint32 `conf:"kdf.memory"` // KiB
	Iterations  uint32 `conf:"kdf.iterations"`
	Parallelism uint8  `conf:"kdf.parallelism"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// KeyNetwork returns the extended key version bytes for the configured network.
func (c *Config) KeyNetwork() bip32.Network {
	if c.Network == Testnet {
		return bip32.BitcoinTestnet
	}
	return bip32.BitcoinMainnet
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.klingnet-hdwallet
//	macOS:   ~/Library/Application Support/KlingnetHDWallet
//	Windows: %APPDATA%\KlingnetHDWallet
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".klingnet-hdwallet"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "KlingnetHDWallet")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "KlingnetHDWallet")
		}
		return filepath.Join(home, "AppData", "Roaming", "KlingnetHDWallet")
	default:
		return filepath.Join(home, ".klingnet-hdwallet")
	}
}

// NetworkDir returns the network-specific data directory.
func (c *Config) NetworkDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// KeystoreDir returns the directory holding encrypted wallet files.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.NetworkDir(), "keystore")
}

// IndexDir returns the account index database directory.
func (c *Config) IndexDir() string {
	return filepath.Join(c.NetworkDir(), "index")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "hdwallet.conf")
}
