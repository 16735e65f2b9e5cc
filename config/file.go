package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadFile loads configuration values from a .conf file.
// Format: key = value (one per line, # for comments). A missing file yields
// an empty map.
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file configuration to a Config struct.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	// Core
	case "network":
		cfg.Network = NetworkType(strings.ToLower(value))
	case "datadir":
		cfg.DataDir = value

	// Wallet
	case "wallet.language":
		cfg.Wallet.Language = value
	case "wallet.strength":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Wallet.Strength = n
	case "wallet.path":
		cfg.Wallet.DefaultPath = value
	case "wallet.address":
		cfg.Wallet.AddressFormat = strings.ToLower(value)

	// Keystore KDF
	case "kdf.memory":
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return err
		}
		cfg.KDF.Memory = uint32(n)
	case "kdf.iterations":
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return err
		}
		cfg.KDF.Iterations = uint32(n)
	case "kdf.parallelism":
		n, err := strconv.ParseUint(value, 10, 8)
		if err != nil {
			return err
		}
		cfg.KDF.Parallelism = uint8(n)

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored
	}
	return nil
}

func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// WriteDefaultConfig writes a commented default configuration file.
func WriteDefaultConfig(path string, network NetworkType) error {
	def := Default(network)
	content := `# Klingnet HD Wallet Configuration

# Network: mainnet or testnet (selects xprv/xpub or tprv/tpub)
network = ` + string(network) + `

# Data directory (default: ~/.klingnet-hdwallet)
# datadir = ~/.klingnet-hdwallet

# ============================================================================
# Wallet defaults
# ============================================================================

# Mnemonic wordlist: english, chinese_simplified, chinese_traditional,
# czech, french, italian, japanese, korean, spanish
wallet.language = ` + def.Wallet.Language + `

# Entropy bits for new mnemonics: 128, 160, 192, 224 or 256
wallet.strength = ` + strconv.Itoa(def.Wallet.Strength) + `

# Account root used when handing out new addresses
# (mainnet: m/44'/60'/0'/0, testnet: m/44'/1'/0'/0)
# wallet.path = ` + def.Wallet.DefaultPath + `

# Address format: ethereum, bitcoin or klingnet
# (mainnet: ethereum, testnet: bitcoin)
# wallet.address = ` + def.Wallet.AddressFormat + `

# ============================================================================
# Keystore encryption (Argon2id)
# ============================================================================

# Memory in KiB
kdf.memory = ` + strconv.FormatUint(uint64(def.KDF.Memory), 10) + `
kdf.iterations = ` + strconv.FormatUint(uint64(def.KDF.Iterations), 10) + `
kdf.parallelism = ` + strconv.FormatUint(uint64(def.KDF.Parallelism), 10) + `

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0600)
}
