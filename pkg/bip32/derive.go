package bip32

import (
	"encoding/binary"
	"fmt"

	"github.com/Klingon-tech/klingnet-hdwallet/pkg/crypto"
	"github.com/Klingon-tech/klingnet-hdwallet/pkg/hdpath"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// PathError reports the step of a path walk that failed.
type PathError struct {
	Step int // zero-based position in the path
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("derive step %d: %v", e.Step, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// Child derives the child at index. Hardened children need a private parent.
// An index whose derived scalar is out of range fails with ErrKeyOutOfRange;
// no substitute index is tried.
func (k *ExtendedKey) Child(index uint32, hardened bool) (*ExtendedKey, error) {
	if hardened && k.priv == nil {
		return nil, ErrDerivationOverflow
	}
	if index > hdpath.MaxIndex {
		return nil, fmt.Errorf("%w: %d", hdpath.ErrIndexOverflow, index)
	}
	if k.depth == MaxDepth {
		return nil, ErrDepthExceeded
	}

	childNum := index
	if hardened {
		childNum |= hdpath.HardenedOffset
	}
	var ser [4]byte
	binary.BigEndian.PutUint32(ser[:], childNum)

	var il, ir [32]byte
	if hardened {
		priv := k.priv.Bytes()
		il, ir = crypto.HMACSHA512(k.chainCode[:], []byte{0x00}, priv[:], ser[:])
		crypto.Zero(priv[:])
	} else {
		il, ir = crypto.HMACSHA512(k.chainCode[:], k.PublicKey(), ser[:])
	}
	defer crypto.Zero(il[:])

	var tweak secp256k1.ModNScalar
	defer tweak.Zero()
	if overflow := tweak.SetBytes(&il); overflow != 0 {
		return nil, fmt.Errorf("%w: index %d", ErrKeyOutOfRange, index)
	}

	var parent [FingerprintSize]byte
	copy(parent[:], k.Fingerprint())
	depth := k.depth + 1

	if k.priv != nil {
		var childKey secp256k1.ModNScalar
		childKey.Set(&tweak).Add(k.priv)
		if childKey.IsZero() {
			return nil, fmt.Errorf("%w: index %d", ErrKeyOutOfRange, index)
		}
		return newPrivate(&childKey, ir, depth, childNum, parent), nil
	}

	// Public parent: child point = il*G + K.
	var tweakPoint, parentPoint, result secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&tweak, &tweakPoint)
	k.pub.AsJacobian(&parentPoint)
	secp256k1.AddNonConst(&tweakPoint, &parentPoint, &result)
	if (result.X.IsZero() && result.Y.IsZero()) || result.Z.IsZero() {
		return nil, fmt.Errorf("%w: index %d", ErrKeyOutOfRange, index)
	}
	result.ToAffine()

	return &ExtendedKey{
		chainCode:   ir,
		pub:         secp256k1.NewPublicKey(&result.X, &result.Y),
		depth:       depth,
		childNum:    childNum,
		parentPrint: parent,
	}, nil
}

// ChildStep derives the child described by a path step.
func (k *ExtendedKey) ChildStep(s hdpath.Step) (*ExtendedKey, error) {
	return k.Child(s.Index, s.Hardened)
}

// DerivePath walks path from root. The first failing step is reported as a
// *PathError. Intermediate nodes are wiped as the walk advances.
//
// A public-only path ("M/...") containing a hardened step is rejected before
// any derivation, and its result is always neutered.
func DerivePath(root *ExtendedKey, path hdpath.Path) (*ExtendedKey, error) {
	if path.PublicOnly {
		if i := path.FirstHardened(); i >= 0 {
			return nil, &PathError{Step: i, Err: ErrDerivationOverflow}
		}
	}

	node := root
	for i, step := range path.Steps {
		child, err := node.ChildStep(step)
		if node != root {
			node.Zero()
		}
		if err != nil {
			return nil, &PathError{Step: i, Err: err}
		}
		node = child
	}

	if path.PublicOnly && node.IsPrivate() {
		pub := node.Neuter()
		if node != root {
			node.Zero()
		}
		return pub, nil
	}
	if node == root {
		return root.clone(), nil
	}
	return node, nil
}

// DeriveString parses text and derives it from root.
func DeriveString(root *ExtendedKey, text string) (*ExtendedKey, error) {
	path, err := hdpath.Parse(text)
	if err != nil {
		return nil, err
	}
	return DerivePath(root, path)
}

// clone returns an independent copy, so wiping one does not affect the other.
func (k *ExtendedKey) clone() *ExtendedKey {
	c := *k
	if k.priv != nil {
		c.priv = new(secp256k1.ModNScalar).Set(k.priv)
	}
	return &c
}
