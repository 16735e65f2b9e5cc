package config

import "github.com/Klingon-tech/klingnet-hdwallet/pkg/hdpath"

// Argon2id defaults for keystore sealing.
const (
	DefaultKDFMemory      uint32 = 64 * 1024 // 64 MiB
	DefaultKDFIterations  uint32 = 3
	DefaultKDFParallelism uint8  = 4
)

// DefaultMainnet returns the default configuration for mainnet.
func DefaultMainnet() *Config {
	return &Config{
		Network: Mainnet,
		DataDir: DefaultDataDir(),
		Wallet: WalletConfig{
			Language:      "english",
			Strength:      256,
			DefaultPath:   hdpath.DefaultEthereum,
			AddressFormat: "ethereum",
		},
		KDF: KDFConfig{
			Memory:      DefaultKDFMemory,
			Iterations:  DefaultKDFIterations,
			Parallelism: DefaultKDFParallelism,
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// DefaultTestnet returns the default configuration for testnet.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Testnet
	cfg.Wallet.DefaultPath = "m/44'/1'/0'/0"
	cfg.Wallet.AddressFormat = "bitcoin"
	return cfg
}

// Default returns the default configuration for the given network.
func Default(network NetworkType) *Config {
	switch network {
	case Testnet:
		return DefaultTestnet()
	default:
		return DefaultMainnet()
	}
}
