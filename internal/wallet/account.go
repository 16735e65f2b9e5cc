package wallet

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Klingon-tech/klingnet-hdwallet/internal/storage"
	"github.com/Klingon-tech/klingnet-hdwallet/pkg/hdpath"
)

// Account is a derived key recorded in the index. It holds public data only.
type Account struct {
	Wallet    string    `json:"wallet"`
	Path      string    `json:"path"`
	PublicKey string    `json:"public_key"` // hex, compressed
	XPub      string    `json:"xpub"`
	Address   string    `json:"address"`
	Format    string    `json:"format"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Key layout inside each wallet namespace ("w/<name>/"):
//
//	a/<child numbers, 4 bytes BE each>  -> Account JSON
//	n/<child numbers of the branch>     -> next address index, 4 bytes BE
//
// Big-endian child numbers make prefix iteration yield numeric path order.
var (
	accountPrefix = []byte("a/")
	nextPrefix    = []byte("n/")
)

// AccountIndex stores derived accounts per wallet on top of a storage.DB.
type AccountIndex struct {
	db storage.DB
}

// NewAccountIndex creates an index over db.
func NewAccountIndex(db storage.DB) *AccountIndex {
	return &AccountIndex{db: db}
}

func (ix *AccountIndex) wallet(name string) *storage.PrefixDB {
	return storage.NewPrefixDB(ix.db, []byte("w/"+name+"/"))
}

func pathKey(prefix []byte, p hdpath.Path) []byte {
	nums := p.ChildNumbers()
	key := make([]byte, len(prefix), len(prefix)+4*len(nums))
	copy(key, prefix)
	for _, n := range nums {
		key = binary.BigEndian.AppendUint32(key, n)
	}
	return key
}

// Put records acct, replacing any record at the same path.
func (ix *AccountIndex) Put(acct Account) error {
	p, err := hdpath.Parse(acct.Path)
	if err != nil {
		return fmt.Errorf("account path: %w", err)
	}
	data, err := json.Marshal(acct)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	return ix.wallet(acct.Wallet).Put(pathKey(accountPrefix, p), data)
}

// Get returns the account recorded at path. Missing records return an error
// wrapping storage.ErrNotFound.
func (ix *AccountIndex) Get(wallet string, p hdpath.Path) (*Account, error) {
	data, err := ix.wallet(wallet).Get(pathKey(accountPrefix, p))
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", p, err)
	}
	var acct Account
	if err := json.Unmarshal(data, &acct); err != nil {
		return nil, fmt.Errorf("parse account %s: %w", p, err)
	}
	return &acct, nil
}

// List returns every account of wallet in path order.
func (ix *AccountIndex) List(wallet string) ([]Account, error) {
	var out []Account
	err := ix.wallet(wallet).ForEach(accountPrefix, func(_, value []byte) error {
		var acct Account
		if err := json.Unmarshal(value, &acct); err != nil {
			return fmt.Errorf("parse account: %w", err)
		}
		out = append(out, acct)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// NextIndex returns the next unused address index on branch, 0 if none was
// handed out yet.
func (ix *AccountIndex) NextIndex(wallet string, branch hdpath.Path) (uint32, error) {
	data, err := ix.wallet(wallet).Get(pathKey(nextPrefix, branch))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(data) != 4 {
		return 0, fmt.Errorf("next index for %s: corrupt record (%d bytes)", branch, len(data))
	}
	return binary.BigEndian.Uint32(data), nil
}

// Record stores acct and moves the branch cursor to next in one batch.
func (ix *AccountIndex) Record(acct Account, branch hdpath.Path, next uint32) error {
	p, err := hdpath.Parse(acct.Path)
	if err != nil {
		return fmt.Errorf("account path: %w", err)
	}
	data, err := json.Marshal(acct)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}

	batch := ix.wallet(acct.Wallet).NewBatch()
	if err := batch.Put(pathKey(accountPrefix, p), data); err != nil {
		return err
	}
	if err := batch.Put(pathKey(nextPrefix, branch), binary.BigEndian.AppendUint32(nil, next)); err != nil {
		return err
	}
	return batch.Commit()
}

// DeleteWallet removes every record of wallet.
func (ix *AccountIndex) DeleteWallet(wallet string) error {
	return ix.wallet(wallet).DeleteAll()
}
