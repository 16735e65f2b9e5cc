package wallet

import (
	"errors"
	"testing"

	"github.com/Klingon-tech/klingnet-hdwallet/internal/storage"
	"github.com/Klingon-tech/klingnet-hdwallet/pkg/hdpath"
)

func TestAccountIndex_PutGet(t *testing.T) {
	ix := NewAccountIndex(storage.NewMemory())
	acct := Account{Wallet: "main", Path: "m/44'/60'/0'/0/3", Address: "0xabc", Label: "savings"}

	if err := ix.Put(acct); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	got, err := ix.Get("main", hdpath.MustParse("m/44h/60h/0h/0/3"))
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Address != "0xabc" || got.Label != "savings" {
		t.Errorf("Get() = %+v", got)
	}

	_, err = ix.Get("main", hdpath.MustParse("m/0"))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get() missing error = %v, want ErrNotFound", err)
	}
}

func TestAccountIndex_ListNumericOrder(t *testing.T) {
	ix := NewAccountIndex(storage.NewMemory())
	for _, p := range []string{"m/0/10", "m/0/2", "m/1", "m/0", "m/0'/0"} {
		if err := ix.Put(Account{Wallet: "w", Path: p}); err != nil {
			t.Fatalf("Put(%s) error: %v", p, err)
		}
	}
	ix.Put(Account{Wallet: "other", Path: "m/5"})

	accts, err := ix.List("w")
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	want := []string{"m/0", "m/0/2", "m/0/10", "m/1", "m/0'/0"}
	if len(accts) != len(want) {
		t.Fatalf("List() returned %d accounts, want %d", len(accts), len(want))
	}
	for i, a := range accts {
		if a.Path != want[i] {
			t.Errorf("List()[%d] = %s, want %s", i, a.Path, want[i])
		}
	}
}

func TestAccountIndex_NextIndex(t *testing.T) {
	db, err := storage.NewBadgerInMemory()
	if err != nil {
		t.Fatalf("NewBadgerInMemory() error: %v", err)
	}
	defer db.Close()
	ix := NewAccountIndex(db)
	branch := hdpath.MustParse("m/44'/60'/0'/0")

	next, err := ix.NextIndex("w", branch)
	if err != nil {
		t.Fatalf("NextIndex() error: %v", err)
	}
	if next != 0 {
		t.Errorf("fresh NextIndex() = %d, want 0", next)
	}

	if err := ix.Record(Account{Wallet: "w", Path: "m/44'/60'/0'/0/0"}, branch, 1); err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	if next, _ = ix.NextIndex("w", branch); next != 1 {
		t.Errorf("NextIndex() after Record = %d, want 1", next)
	}
	if next, _ = ix.NextIndex("w", hdpath.MustParse("m/44'/60'/0'/1")); next != 0 {
		t.Errorf("other branch NextIndex() = %d, want 0", next)
	}

	// Cursor records are not accounts.
	accts, _ := ix.List("w")
	if len(accts) != 1 {
		t.Errorf("List() = %d accounts, want 1", len(accts))
	}
}

func TestAccountIndex_DeleteWallet(t *testing.T) {
	ix := NewAccountIndex(storage.NewMemory())
	branch := hdpath.MustParse("m/0")
	ix.Record(Account{Wallet: "gone", Path: "m/0/0"}, branch, 1)
	ix.Put(Account{Wallet: "kept", Path: "m/0/0"})

	if err := ix.DeleteWallet("gone"); err != nil {
		t.Fatalf("DeleteWallet() error: %v", err)
	}
	if accts, _ := ix.List("gone"); len(accts) != 0 {
		t.Errorf("List(gone) = %v, want empty", accts)
	}
	if next, _ := ix.NextIndex("gone", branch); next != 0 {
		t.Errorf("NextIndex(gone) = %d, want 0", next)
	}
	if accts, _ := ix.List("kept"); len(accts) != 1 {
		t.Errorf("List(kept) = %d accounts, want 1", len(accts))
	}
}

func TestAccountIndex_PutBadPath(t *testing.T) {
	ix := NewAccountIndex(storage.NewMemory())
	if err := ix.Put(Account{Wallet: "w", Path: "not/a/path"}); !errors.Is(err, hdpath.ErrMalformedPath) {
		t.Errorf("Put() error = %v, want ErrMalformedPath", err)
	}
}
