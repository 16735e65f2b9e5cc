package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Klingon-tech/klingnet-hdwallet/internal/log"
	"github.com/Klingon-tech/klingnet-hdwallet/pkg/bip39"
	"github.com/Klingon-tech/klingnet-hdwallet/pkg/crypto"
)

// Keystore errors.
var (
	ErrWalletExists   = errors.New("wallet already exists")
	ErrWalletNotFound = errors.New("wallet not found")
	ErrInvalidName    = errors.New("invalid wallet name")
)

const (
	keystoreVersion = 2
	walletExt       = ".wallet"
	maxNameLen      = 64
)

// keystoreFile is the on-disk JSON format for an encrypted wallet.
type keystoreFile struct {
	Version    int       `json:"version"`
	Name       string    `json:"name"`
	Network    string    `json:"network"`
	Language   string    `json:"language"`
	CreatedAt  time.Time `json:"created_at"`
	MasterFP   string    `json:"master_fingerprint"` // hex, public
	SealedSeed []byte    `json:"sealed_seed"`
}

// Info is the public metadata of a stored wallet. It is readable without the
// password.
type Info struct {
	Name              string
	Network           string
	Language          bip39.Language
	CreatedAt         time.Time
	MasterFingerprint string
	KDF               EncryptionParams
}

// Keystore manages encrypted seed files on disk, one file per wallet.
type Keystore struct {
	path string
}

// NewKeystore creates a keystore that reads/writes to the given directory.
// The directory is created if it doesn't exist.
func NewKeystore(path string) (*Keystore, error) {
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &Keystore{path: path}, nil
}

// ValidateName rejects names that are empty, too long, or not made of
// letters, digits, '-', '_' and '.'.
func ValidateName(name string) error {
	if name == "" || len(name) > maxNameLen || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	for _, r := range name {
		ok := r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' ||
			r == '-' || r == '_' || r == '.'
		if !ok {
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return nil
}

func (ks *Keystore) walletPath(name string) string {
	return filepath.Join(ks.path, name+walletExt)
}

// Exists reports whether a wallet file with this name exists.
func (ks *Keystore) Exists(name string) bool {
	if ValidateName(name) != nil {
		return false
	}
	_, err := os.Stat(ks.walletPath(name))
	return err == nil
}

// Create seals seed under password and writes a new wallet file.
func (ks *Keystore) Create(info Info, seed *bip39.Seed, password []byte, params EncryptionParams) error {
	if err := ValidateName(info.Name); err != nil {
		return err
	}
	path := ks.walletPath(info.Name)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %q", ErrWalletExists, info.Name)
	}

	raw := seed.Bytes()
	defer crypto.Zero(raw)
	sealed, err := Seal(raw, password, params)
	if err != nil {
		return fmt.Errorf("seal seed: %w", err)
	}

	created := info.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	kf := keystoreFile{
		Version:    keystoreVersion,
		Name:       info.Name,
		Network:    info.Network,
		Language:   info.Language.String(),
		CreatedAt:  created,
		MasterFP:   info.MasterFingerprint,
		SealedSeed: sealed,
	}
	if err := ks.writeFile(path, &kf); err != nil {
		return err
	}
	log.Keystore.Info().Str("wallet", info.Name).Str("network", info.Network).Msg("Wallet file created")
	return nil
}

// Load opens the wallet's sealed seed with password.
func (ks *Keystore) Load(name string, password []byte) (bip39.Seed, error) {
	kf, err := ks.read(name)
	if err != nil {
		return bip39.Seed{}, err
	}
	raw, err := Open(kf.SealedSeed, password)
	if err != nil {
		log.Keystore.Warn().Str("wallet", name).Msg("Unlock failed")
		return bip39.Seed{}, fmt.Errorf("open wallet %q: %w", name, err)
	}
	defer crypto.Zero(raw)
	if len(raw) != bip39.SeedSize {
		return bip39.Seed{}, fmt.Errorf("wallet %q: sealed seed is %d bytes", name, len(raw))
	}
	var seed bip39.Seed
	copy(seed[:], raw)
	return seed, nil
}

// Info returns a wallet's public metadata.
func (ks *Keystore) Info(name string) (*Info, error) {
	kf, err := ks.read(name)
	if err != nil {
		return nil, err
	}
	return kf.info()
}

// List returns the names of all wallet files in the keystore, sorted.
func (ks *Keystore) List() ([]string, error) {
	entries, err := os.ReadDir(ks.path)
	if err != nil {
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if ext := filepath.Ext(name); ext == walletExt {
			names = append(names, name[:len(name)-len(ext)])
		}
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a wallet file.
func (ks *Keystore) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	path := ks.walletPath(name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("%w: %q", ErrWalletNotFound, name)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove wallet: %w", err)
	}
	log.Keystore.Info().Str("wallet", name).Msg("Wallet file deleted")
	return nil
}

// writeFile writes kf to a new file at path with mode 0600. An existing file
// is never replaced.
func (ks *Keystore) writeFile(path string, kf *keystoreFile) error {
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal wallet: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %q", ErrWalletExists, kf.Name)
		}
		return fmt.Errorf("write wallet: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write wallet: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write wallet: %w", err)
	}
	return nil
}

func (ks *Keystore) read(name string) (*keystoreFile, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(ks.walletPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrWalletNotFound, name)
		}
		return nil, fmt.Errorf("read wallet: %w", err)
	}
	var kf keystoreFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse wallet: %w", err)
	}
	if kf.Version != keystoreVersion {
		return nil, fmt.Errorf("unsupported wallet version: %d", kf.Version)
	}
	return &kf, nil
}

func (kf *keystoreFile) info() (*Info, error) {
	lang, err := bip39.ParseLanguage(kf.Language)
	if err != nil {
		return nil, fmt.Errorf("wallet %q: %w", kf.Name, err)
	}
	params, err := ParamsOf(kf.SealedSeed)
	if err != nil {
		return nil, fmt.Errorf("wallet %q: %w", kf.Name, err)
	}
	return &Info{
		Name:              kf.Name,
		Network:           kf.Network,
		Language:          lang,
		CreatedAt:         kf.CreatedAt,
		MasterFingerprint: kf.MasterFP,
		KDF:               params,
	}, nil
}
