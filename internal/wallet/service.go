package wallet

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Klingon-tech/klingnet-hdwallet/internal/log"
	"github.com/Klingon-tech/klingnet-hdwallet/pkg/address"
	"github.com/Klingon-tech/klingnet-hdwallet/pkg/bip32"
	"github.com/Klingon-tech/klingnet-hdwallet/pkg/bip39"
	"github.com/Klingon-tech/klingnet-hdwallet/pkg/hdpath"
)

// ErrNetworkMismatch is returned when a wallet file belongs to another network.
var ErrNetworkMismatch = errors.New("wallet belongs to a different network")

// Options configures a Service.
type Options struct {
	Network       bip32.Network
	KDF           EncryptionParams
	Language      bip39.Language
	AddressFormat string // used when a coin type has no native format
}

// Service ties the keystore, the account index and the key tree together.
// Callers pass the password on every call; no key material outlives a call.
type Service struct {
	ks    *Keystore
	index *AccountIndex
	opts  Options

	// mu serialises cursor updates in NextAddress.
	mu sync.Mutex

	// deriveChild is replaceable so the skip policy can be exercised.
	deriveChild func(k *bip32.ExtendedKey, index uint32) (*bip32.ExtendedKey, error)
}

// NewService creates a wallet service.
func NewService(ks *Keystore, index *AccountIndex, opts Options) *Service {
	if opts.Network.Name == "" {
		opts.Network = bip32.BitcoinMainnet
	}
	if opts.AddressFormat == "" {
		opts.AddressFormat = address.FormatEthereum
	}
	return &Service{
		ks:    ks,
		index: index,
		opts:  opts,
		deriveChild: func(k *bip32.ExtendedKey, index uint32) (*bip32.ExtendedKey, error) {
			return k.Child(index, false)
		},
	}
}

// Network returns the network the service serialises keys for.
func (s *Service) Network() bip32.Network {
	return s.opts.Network
}

// Create generates a fresh mnemonic, stores its sealed seed under name and
// returns the mnemonic for the user to back up.
func (s *Service) Create(name string, password []byte, strength int, passphrase string) (bip39.Mnemonic, error) {
	if err := ValidateName(name); err != nil {
		return bip39.Mnemonic{}, err
	}
	if s.ks.Exists(name) {
		return bip39.Mnemonic{}, fmt.Errorf("%w: %q", ErrWalletExists, name)
	}
	m, err := GenerateMnemonic(strength, s.opts.Language)
	if err != nil {
		return bip39.Mnemonic{}, err
	}
	if err := s.store(name, m, passphrase, password); err != nil {
		return bip39.Mnemonic{}, err
	}
	return m, nil
}

// Import validates an existing mnemonic and stores its sealed seed.
func (s *Service) Import(name, sentence, passphrase string, password []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	m, err := ValidateMnemonic(sentence)
	if err != nil {
		return err
	}
	return s.store(name, m, passphrase, password)
}

func (s *Service) store(name string, m bip39.Mnemonic, passphrase string, password []byte) error {
	done := log.Benchmark("pbkdf2-seed")
	seed := m.Seed(passphrase)
	done()
	defer seed.Zero()

	master, err := bip32.NewMaster(seed[:])
	if err != nil {
		return err
	}
	fp := hex.EncodeToString(master.Fingerprint())
	master.Zero()

	info := Info{
		Name:              name,
		Network:           s.opts.Network.Name,
		Language:          m.Language(),
		MasterFingerprint: fp,
	}
	if err := s.ks.Create(info, &seed, password, s.opts.KDF); err != nil {
		return err
	}
	logger := log.WithWallet(name)
	logger.Info().
		Str("fingerprint", fp).
		Str("language", m.Language().String()).
		Int("words", m.WordCount()).
		Msg("Wallet stored")
	return nil
}

// Unlock opens the named wallet and returns its master key. The caller must
// Zero it when done.
func (s *Service) Unlock(name string, password []byte) (*bip32.ExtendedKey, error) {
	info, err := s.ks.Info(name)
	if err != nil {
		return nil, err
	}
	if info.Network != s.opts.Network.Name {
		return nil, fmt.Errorf("%w: %q is %s, service is %s", ErrNetworkMismatch, name, info.Network, s.opts.Network.Name)
	}
	seed, err := s.ks.Load(name, password)
	if err != nil {
		return nil, err
	}
	defer seed.Zero()
	return bip32.NewMaster(seed[:])
}

// Derive unlocks the wallet and returns the key at path. The caller must Zero
// it when done.
func (s *Service) Derive(name string, password []byte, path string) (*bip32.ExtendedKey, error) {
	p, err := hdpath.Parse(path)
	if err != nil {
		return nil, err
	}
	master, err := s.Unlock(name, password)
	if err != nil {
		return nil, err
	}
	defer master.Zero()
	return bip32.DerivePath(master, p)
}

// DeriveAccount derives path, records its public data in the index and
// returns the record.
func (s *Service) DeriveAccount(name string, password []byte, path, label string) (*Account, error) {
	p, err := hdpath.Parse(path)
	if err != nil {
		return nil, err
	}
	if p.PublicOnly {
		return nil, fmt.Errorf("account path must start with m/: %w", hdpath.ErrMalformedPath)
	}
	key, err := s.Derive(name, password, path)
	if err != nil {
		return nil, err
	}
	defer key.Zero()

	acct, err := s.describe(name, key, p, s.opts.Network, s.formatFor(p), label)
	if err != nil {
		return nil, err
	}
	if err := s.index.Put(*acct); err != nil {
		return nil, fmt.Errorf("record account: %w", err)
	}
	logger := log.WithWallet(name)
	logger.Info().Str("path", acct.Path).Str("address", acct.Address).Msg("Account derived")
	return acct, nil
}

// NextAddress hands out the next unused address on
// m/44'/coinType'/account'/change. Indices whose child key is invalid are
// skipped and never handed out.
func (s *Service) NextAddress(name string, password []byte, coinType, account, change uint32) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	branchPath := hdpath.BIP44Account(coinType, account).Child(hdpath.Normal(change))
	for _, st := range branchPath.Steps {
		if st.Index > hdpath.MaxIndex {
			return nil, fmt.Errorf("branch %d/%d/%d: %w", coinType, account, change, hdpath.ErrIndexOverflow)
		}
	}

	next, err := s.index.NextIndex(name, branchPath)
	if err != nil {
		return nil, err
	}
	master, err := s.Unlock(name, password)
	if err != nil {
		return nil, err
	}
	defer master.Zero()
	branch, err := bip32.DerivePath(master, branchPath)
	if err != nil {
		return nil, err
	}
	defer branch.Zero()

	logger := log.WithWallet(name)
	format := s.formatFor(branchPath)
	for i := next; ; i++ {
		if i > hdpath.MaxIndex {
			return nil, fmt.Errorf("branch %s exhausted: %w", branchPath, hdpath.ErrIndexOverflow)
		}
		child, err := s.deriveChild(branch, i)
		if errors.Is(err, bip32.ErrKeyOutOfRange) {
			logger.Warn().Str("branch", branchPath.String()).Uint32("index", i).Msg("Skipping index with invalid child key")
			continue
		}
		if err != nil {
			return nil, err
		}

		acct, err := s.describe(name, child, branchPath.Child(hdpath.Normal(i)), s.opts.Network, format, "")
		child.Zero()
		if err != nil {
			return nil, err
		}
		if err := s.index.Record(*acct, branchPath, i+1); err != nil {
			return nil, fmt.Errorf("record address: %w", err)
		}
		logger.Info().Str("path", acct.Path).Str("address", acct.Address).Msg("Address handed out")
		return acct, nil
	}
}

// WatchOnly derives normal descendants of an encoded extended key without any
// private material. Private keys passed in are neutered first, and path is
// always walked as public-only, so hardened steps fail. Nothing is recorded.
func (s *Service) WatchOnly(encoded, path, format string) (*Account, error) {
	key, net, err := address.DecodeExtendedKey(encoded)
	if err != nil {
		return nil, err
	}
	if key.IsPrivate() {
		pub := key.Neuter()
		key.Zero()
		key = pub
	}
	p, err := hdpath.Parse(path)
	if err != nil {
		return nil, err
	}
	p.PublicOnly = true

	child, err := bip32.DerivePath(key, p)
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = s.opts.AddressFormat
	}
	return s.describe("", child, p, net, format, "")
}

// Accounts lists the recorded accounts of a wallet in path order.
func (s *Service) Accounts(name string) ([]Account, error) {
	if !s.ks.Exists(name) {
		return nil, fmt.Errorf("%w: %q", ErrWalletNotFound, name)
	}
	return s.index.List(name)
}

// Wallets returns the public metadata of every stored wallet.
func (s *Service) Wallets() ([]Info, error) {
	names, err := s.ks.List()
	if err != nil {
		return nil, err
	}
	out := make([]Info, 0, len(names))
	for _, name := range names {
		info, err := s.ks.Info(name)
		if err != nil {
			log.Keystore.Warn().Err(err).Str("wallet", name).Msg("Skipping unreadable wallet file")
			continue
		}
		out = append(out, *info)
	}
	return out, nil
}

// Delete removes a wallet file and its index records.
func (s *Service) Delete(name string) error {
	if err := s.ks.Delete(name); err != nil {
		return err
	}
	if err := s.index.DeleteWallet(name); err != nil {
		return fmt.Errorf("delete account index: %w", err)
	}
	return nil
}

func (s *Service) describe(wallet string, k *bip32.ExtendedKey, p hdpath.Path, net bip32.Network, format, label string) (*Account, error) {
	f, err := address.Lookup(format, net)
	if err != nil {
		return nil, err
	}
	addr, err := address.ForKey(f, k)
	if err != nil {
		return nil, err
	}
	return &Account{
		Wallet:    wallet,
		Path:      p.String(),
		PublicKey: hex.EncodeToString(k.PublicKey()),
		XPub:      address.EncodeExtendedKey(k.Neuter(), net),
		Address:   addr,
		Format:    format,
		Label:     label,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// formatFor picks the address format native to a BIP-44 coin type, falling
// back to the configured default.
func (s *Service) formatFor(p hdpath.Path) string {
	if len(p.Steps) >= 2 && p.Steps[0] == hdpath.Hardened(hdpath.PurposeBIP44) && p.Steps[1].Hardened {
		switch p.Steps[1].Index {
		case hdpath.CoinTypeEthereum:
			return address.FormatEthereum
		case hdpath.CoinTypeBitcoin, hdpath.CoinTypeTestnet:
			return address.FormatBitcoin
		case hdpath.CoinTypeKlingnet:
			return address.FormatKlingnet
		}
	}
	return s.opts.AddressFormat
}
