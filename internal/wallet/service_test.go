package wallet

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/Klingon-tech/klingnet-hdwallet/internal/log"
	"github.com/Klingon-tech/klingnet-hdwallet/internal/storage"
	"github.com/Klingon-tech/klingnet-hdwallet/pkg/address"
	"github.com/Klingon-tech/klingnet-hdwallet/pkg/bip32"
	"github.com/Klingon-tech/klingnet-hdwallet/pkg/bip39"
	"github.com/Klingon-tech/klingnet-hdwallet/pkg/hdpath"
)

const abandonEthAddress = "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"

func testService(t *testing.T, net bip32.Network) *Service {
	t.Helper()
	db, err := storage.NewBadgerInMemory()
	if err != nil {
		t.Fatalf("NewBadgerInMemory() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewService(testKeystore(t), NewAccountIndex(db), Options{
		Network:       net,
		KDF:           fastParams(),
		Language:      bip39.English,
		AddressFormat: address.FormatEthereum,
	})
}

func importAbandon(t *testing.T, s *Service, name string) {
	t.Helper()
	if err := s.Import(name, abandonMnemonic, "", []byte("pw")); err != nil {
		t.Fatalf("Import() error: %v", err)
	}
}

func TestService_CreateAndUnlock(t *testing.T) {
	s := testService(t, bip32.BitcoinMainnet)

	m, err := s.Create("fresh", []byte("pw"), 128, "")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if m.WordCount() != 12 {
		t.Errorf("WordCount() = %d, want 12", m.WordCount())
	}

	master, err := s.Unlock("fresh", []byte("pw"))
	if err != nil {
		t.Fatalf("Unlock() error: %v", err)
	}
	defer master.Zero()

	seed := m.Seed("")
	want, err := bip32.NewMaster(seed[:])
	if err != nil {
		t.Fatalf("NewMaster() error: %v", err)
	}
	if !master.Equal(want) {
		t.Error("unlocked master does not match the returned mnemonic")
	}

	if _, err := s.Create("fresh", []byte("pw"), 128, ""); !errors.Is(err, ErrWalletExists) {
		t.Errorf("duplicate Create() error = %v, want ErrWalletExists", err)
	}
}

func TestService_ImportInvalid(t *testing.T) {
	s := testService(t, bip32.BitcoinMainnet)
	err := s.Import("bad", strings.Replace(abandonMnemonic, "about", "abandon", 1), "", []byte("pw"))
	if !errors.Is(err, bip39.ErrChecksumMismatch) {
		t.Fatalf("Import() error = %v, want ErrChecksumMismatch", err)
	}
	if s.ks.Exists("bad") {
		t.Error("invalid import left a wallet file behind")
	}
}

func TestService_UnlockErrors(t *testing.T) {
	s := testService(t, bip32.BitcoinMainnet)
	importAbandon(t, s, "main")

	if _, err := s.Unlock("main", []byte("wrong")); !errors.Is(err, ErrDecrypt) {
		t.Errorf("Unlock() wrong password error = %v, want ErrDecrypt", err)
	}
	if _, err := s.Unlock("absent", []byte("pw")); !errors.Is(err, ErrWalletNotFound) {
		t.Errorf("Unlock() missing wallet error = %v, want ErrWalletNotFound", err)
	}

	testnet := NewService(s.ks, s.index, Options{Network: bip32.BitcoinTestnet, KDF: fastParams()})
	if _, err := testnet.Unlock("main", []byte("pw")); !errors.Is(err, ErrNetworkMismatch) {
		t.Errorf("Unlock() on other network error = %v, want ErrNetworkMismatch", err)
	}
}

func TestService_DeriveAccount(t *testing.T) {
	s := testService(t, bip32.BitcoinMainnet)
	importAbandon(t, s, "main")

	acct, err := s.DeriveAccount("main", []byte("pw"), "m/44'/60'/0'/0/0", "first")
	if err != nil {
		t.Fatalf("DeriveAccount() error: %v", err)
	}
	if acct.Address != abandonEthAddress {
		t.Errorf("Address = %s, want %s", acct.Address, abandonEthAddress)
	}
	if acct.Format != address.FormatEthereum {
		t.Errorf("Format = %s, want ethereum", acct.Format)
	}
	if !strings.HasPrefix(acct.XPub, "xpub") {
		t.Errorf("XPub = %s, want xpub prefix", acct.XPub)
	}

	accts, err := s.Accounts("main")
	if err != nil {
		t.Fatalf("Accounts() error: %v", err)
	}
	if len(accts) != 1 || accts[0].Label != "first" || accts[0].Address != abandonEthAddress {
		t.Errorf("Accounts() = %+v", accts)
	}

	if _, err := s.DeriveAccount("main", []byte("pw"), "M/0", ""); !errors.Is(err, hdpath.ErrMalformedPath) {
		t.Errorf("DeriveAccount(M/0) error = %v, want ErrMalformedPath", err)
	}
}

func TestService_FormatByCoinType(t *testing.T) {
	s := testService(t, bip32.BitcoinMainnet)
	importAbandon(t, s, "main")

	tests := []struct {
		path   string
		format string
		prefix string
	}{
		{"m/44'/0'/0'/0/0", address.FormatBitcoin, "1"},
		{"m/44'/8888'/0'/0/0", address.FormatKlingnet, address.KlingnetMainnetHRP + "1"},
		{"m/44'/60'/0'/0/1", address.FormatEthereum, "0x"},
		{"m/0/1", address.FormatEthereum, "0x"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			acct, err := s.DeriveAccount("main", []byte("pw"), tt.path, "")
			if err != nil {
				t.Fatalf("DeriveAccount() error: %v", err)
			}
			if acct.Format != tt.format || !strings.HasPrefix(acct.Address, tt.prefix) {
				t.Errorf("got %s %s, want format %s prefix %s", acct.Format, acct.Address, tt.format, tt.prefix)
			}
		})
	}
}

func TestService_NextAddress(t *testing.T) {
	s := testService(t, bip32.BitcoinMainnet)
	importAbandon(t, s, "main")

	first, err := s.NextAddress("main", []byte("pw"), hdpath.CoinTypeEthereum, 0, hdpath.ChangeExternal)
	if err != nil {
		t.Fatalf("NextAddress() error: %v", err)
	}
	if first.Path != "m/44'/60'/0'/0/0" || first.Address != abandonEthAddress {
		t.Errorf("first address = %s %s", first.Path, first.Address)
	}

	second, err := s.NextAddress("main", []byte("pw"), hdpath.CoinTypeEthereum, 0, hdpath.ChangeExternal)
	if err != nil {
		t.Fatalf("NextAddress() error: %v", err)
	}
	if second.Path != "m/44'/60'/0'/0/1" || second.Address == first.Address {
		t.Errorf("second address = %s %s", second.Path, second.Address)
	}

	change, err := s.NextAddress("main", []byte("pw"), hdpath.CoinTypeEthereum, 0, hdpath.ChangeInternal)
	if err != nil {
		t.Fatalf("NextAddress() change error: %v", err)
	}
	if change.Path != "m/44'/60'/0'/1/0" {
		t.Errorf("change path = %s, want m/44'/60'/0'/1/0", change.Path)
	}

	accts, _ := s.Accounts("main")
	if len(accts) != 3 {
		t.Errorf("Accounts() = %d, want 3", len(accts))
	}
}

func TestService_NextAddressSkipsInvalidChild(t *testing.T) {
	s := testService(t, bip32.BitcoinMainnet)
	importAbandon(t, s, "main")

	orig := s.deriveChild
	s.deriveChild = func(k *bip32.ExtendedKey, index uint32) (*bip32.ExtendedKey, error) {
		if index == 0 {
			return nil, bip32.ErrKeyOutOfRange
		}
		return orig(k, index)
	}

	acct, err := s.NextAddress("main", []byte("pw"), hdpath.CoinTypeEthereum, 0, 0)
	if err != nil {
		t.Fatalf("NextAddress() error: %v", err)
	}
	if acct.Path != "m/44'/60'/0'/0/1" {
		t.Errorf("Path = %s, want index 1 after skipping 0", acct.Path)
	}
	next, _ := s.index.NextIndex("main", hdpath.MustParse("m/44'/60'/0'/0"))
	if next != 2 {
		t.Errorf("NextIndex() = %d, want 2", next)
	}
}

func TestService_NextAddressOtherErrors(t *testing.T) {
	s := testService(t, bip32.BitcoinMainnet)
	importAbandon(t, s, "main")

	s.deriveChild = func(*bip32.ExtendedKey, uint32) (*bip32.ExtendedKey, error) {
		return nil, bip32.ErrDepthExceeded
	}
	if _, err := s.NextAddress("main", []byte("pw"), 60, 0, 0); !errors.Is(err, bip32.ErrDepthExceeded) {
		t.Errorf("NextAddress() error = %v, want ErrDepthExceeded", err)
	}
	if _, err := s.NextAddress("main", []byte("pw"), 60, hdpath.MaxIndex+1, 0); !errors.Is(err, hdpath.ErrIndexOverflow) {
		t.Errorf("NextAddress() overflow error = %v, want ErrIndexOverflow", err)
	}
}

func TestService_NextAddressConcurrent(t *testing.T) {
	s := testService(t, bip32.BitcoinMainnet)
	importAbandon(t, s, "main")

	const n = 8
	var wg sync.WaitGroup
	paths := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			acct, err := s.NextAddress("main", []byte("pw"), 60, 0, 0)
			errs[i] = err
			if err == nil {
				paths[i] = acct.Path
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i := range paths {
		if errs[i] != nil {
			t.Fatalf("NextAddress() error: %v", errs[i])
		}
		if seen[paths[i]] {
			t.Errorf("path %s handed out twice", paths[i])
		}
		seen[paths[i]] = true
	}
}

func TestService_WatchOnly(t *testing.T) {
	s := testService(t, bip32.BitcoinMainnet)
	importAbandon(t, s, "main")

	branch, err := s.DeriveAccount("main", []byte("pw"), "m/44'/60'/0'/0", "")
	if err != nil {
		t.Fatalf("DeriveAccount() error: %v", err)
	}

	acct, err := s.WatchOnly(branch.XPub, "M/0", address.FormatEthereum)
	if err != nil {
		t.Fatalf("WatchOnly() error: %v", err)
	}
	if acct.Address != abandonEthAddress {
		t.Errorf("watch-only address = %s, want %s", acct.Address, abandonEthAddress)
	}
	if acct.Path != "M/0" {
		t.Errorf("Path = %s, want M/0", acct.Path)
	}

	// Lowercase m is walked as public-only too, so hardened steps fail.
	_, err = s.WatchOnly(branch.XPub, "m/0'", "")
	var pe *bip32.PathError
	if !errors.As(err, &pe) || !errors.Is(err, bip32.ErrDerivationOverflow) {
		t.Errorf("WatchOnly(m/0') error = %v, want PathError with ErrDerivationOverflow", err)
	}
}

func TestService_WatchOnlyNeutersPrivate(t *testing.T) {
	s := testService(t, bip32.BitcoinMainnet)
	importAbandon(t, s, "main")

	key, err := s.Derive("main", []byte("pw"), "m/44'/60'/0'/0")
	if err != nil {
		t.Fatalf("Derive() error: %v", err)
	}
	xprv := address.EncodeExtendedKey(key, bip32.BitcoinMainnet)
	key.Zero()

	acct, err := s.WatchOnly(xprv, "M/0", "")
	if err != nil {
		t.Fatalf("WatchOnly() error: %v", err)
	}
	if !strings.HasPrefix(acct.XPub, "xpub") || acct.Address != abandonEthAddress {
		t.Errorf("WatchOnly() = %+v", acct)
	}
}

func TestService_WalletsAndDelete(t *testing.T) {
	s := testService(t, bip32.BitcoinTestnet)
	importAbandon(t, s, "a")
	importAbandon(t, s, "b")
	if _, err := s.NextAddress("a", []byte("pw"), hdpath.CoinTypeTestnet, 0, 0); err != nil {
		t.Fatalf("NextAddress() error: %v", err)
	}

	infos, err := s.Wallets()
	if err != nil {
		t.Fatalf("Wallets() error: %v", err)
	}
	if len(infos) != 2 || infos[0].Name != "a" || infos[0].Network != "testnet" {
		t.Errorf("Wallets() = %+v", infos)
	}
	if infos[0].MasterFingerprint != infos[1].MasterFingerprint {
		t.Error("same mnemonic should give the same master fingerprint")
	}

	if err := s.Delete("a"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := s.Accounts("a"); !errors.Is(err, ErrWalletNotFound) {
		t.Errorf("Accounts() after delete error = %v, want ErrWalletNotFound", err)
	}
	if accts, _ := s.index.List("a"); len(accts) != 0 {
		t.Error("Delete() left index records behind")
	}
}

func TestService_LogsWalletEvents(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf, "info")
	t.Cleanup(func() { log.SetOutput(os.Stderr, "info") })

	s := testService(t, bip32.BitcoinMainnet)
	importAbandon(t, s, "logged")
	if _, err := s.DeriveAccount("logged", []byte("pw"), "m/44'/60'/0'/0/0", ""); err != nil {
		t.Fatalf("DeriveAccount() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Wallet stored", "Account derived", `"wallet":"logged"`, abandonEthAddress} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "abandon") {
		t.Error("log output contains mnemonic words")
	}
}
