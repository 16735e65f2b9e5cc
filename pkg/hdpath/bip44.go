package hdpath

// BIP-44 layout: m/purpose'/coin_type'/account'/change/address_index
const (
	// PurposeBIP44 is the BIP-44 purpose field (applied hardened).
	PurposeBIP44 uint32 = 44

	// ChangeExternal is for receiving addresses.
	ChangeExternal uint32 = 0

	// ChangeInternal is for change addresses.
	ChangeInternal uint32 = 1
)

// SLIP-44 coin types used by this module.
const (
	CoinTypeBitcoin  uint32 = 0
	CoinTypeTestnet  uint32 = 1
	CoinTypeEthereum uint32 = 60
	// CoinTypeKlingnet is a placeholder; not registered with SLIP-44.
	CoinTypeKlingnet uint32 = 8888
)

// DefaultEthereum is the conventional Ethereum account root.
const DefaultEthereum = "m/44'/60'/0'/0"

// BIP44Account returns m/44'/coinType'/account'.
func BIP44Account(coinType, account uint32) Path {
	return Path{Steps: []Step{
		Hardened(PurposeBIP44),
		Hardened(coinType),
		Hardened(account),
	}}
}

// BIP44 returns m/44'/coinType'/account'/change/index.
func BIP44(coinType, account, change, index uint32) Path {
	return BIP44Account(coinType, account).Child(Normal(change), Normal(index))
}
