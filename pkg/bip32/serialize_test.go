package bip32

import (
	"bytes"
	"errors"
	"testing"
)

func TestSerialize_Layout(t *testing.T) {
	m := mustMaster(t, tv1Seed)
	c, err := m.Child(3, true)
	if err != nil {
		t.Fatalf("Child() error: %v", err)
	}

	b := c.Serialize(BitcoinMainnet)
	if !bytes.Equal(b[0:4], BitcoinMainnet.PrivateVersion[:]) {
		t.Errorf("version = %x, want xprv", b[0:4])
	}
	if b[4] != 1 {
		t.Errorf("depth = %d, want 1", b[4])
	}
	if !bytes.Equal(b[5:9], m.Fingerprint()) {
		t.Errorf("parent fingerprint = %x, want %x", b[5:9], m.Fingerprint())
	}
	if !bytes.Equal(b[9:13], []byte{0x80, 0, 0, 3}) {
		t.Errorf("child number = %x, want 80000003", b[9:13])
	}
	if !bytes.Equal(b[13:45], c.ChainCode()) {
		t.Error("chain code mismatch")
	}
	if b[45] != 0 || !bytes.Equal(b[46:], c.PrivateKey()) {
		t.Error("private key data mismatch")
	}

	pb := c.Neuter().Serialize(BitcoinTestnet)
	if !bytes.Equal(pb[0:4], BitcoinTestnet.PublicVersion[:]) {
		t.Errorf("version = %x, want tpub", pb[0:4])
	}
	if !bytes.Equal(pb[45:], c.PublicKey()) {
		t.Error("public key data mismatch")
	}
}

func TestParseExtendedKey_RoundTrip(t *testing.T) {
	m := mustMaster(t, tv2Seed)
	k, err := DeriveString(m, "m/0/2147483647'/1")
	if err != nil {
		t.Fatalf("DeriveString() error: %v", err)
	}

	for _, net := range Networks() {
		for _, key := range []*ExtendedKey{m, k, m.Neuter(), k.Neuter()} {
			b := key.Serialize(net)
			got, gotNet, err := ParseExtendedKey(b[:])
			if err != nil {
				t.Fatalf("ParseExtendedKey() error: %v", err)
			}
			if gotNet.Name != net.Name {
				t.Errorf("network = %s, want %s", gotNet.Name, net.Name)
			}
			if !got.Equal(key) {
				t.Errorf("round trip on %s changed the key", net.Name)
			}
		}
	}
}

func TestParseExtendedKey_Errors(t *testing.T) {
	m := mustMaster(t, tv1Seed)
	priv := m.Serialize(BitcoinMainnet)
	child, err := m.Child(1, false)
	if err != nil {
		t.Fatalf("Child() error: %v", err)
	}
	pub := child.Neuter().Serialize(BitcoinMainnet)

	mutate := func(src [SerializedSize]byte, f func(b []byte)) []byte {
		b := make([]byte, SerializedSize)
		copy(b, src[:])
		f(b)
		return b
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"short", priv[:77], ErrInvalidSerialization},
		{"long", append(priv[:], 0), ErrInvalidSerialization},
		{"unknown version", mutate(priv, func(b []byte) { copy(b[0:4], []byte{1, 2, 3, 4}) }), ErrUnknownVersion},
		{"master with fingerprint", mutate(priv, func(b []byte) { b[5] = 1 }), ErrInvalidSerialization},
		{"master with child number", mutate(priv, func(b []byte) { b[12] = 1 }), ErrInvalidSerialization},
		{"private prefix", mutate(priv, func(b []byte) { b[45] = 0x01 }), ErrInvalidSerialization},
		{"private key zero", mutate(priv, func(b []byte) { copy(b[46:], make([]byte, 32)) }), ErrInvalidKeyData},
		{"private key above order", mutate(priv, func(b []byte) { copy(b[46:], bytes.Repeat([]byte{0xff}, 32)) }), ErrInvalidKeyData},
		{"uncompressed prefix", mutate(pub, func(b []byte) { b[45] = 0x04 }), ErrInvalidSerialization},
		{"point off curve", mutate(pub, func(b []byte) { copy(b[46:], bytes.Repeat([]byte{0xff}, 32)) }), ErrInvalidKeyData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ParseExtendedKey(tt.data); !errors.Is(err, tt.want) {
				t.Errorf("ParseExtendedKey() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNetworkByName(t *testing.T) {
	n, err := NetworkByName("Testnet")
	if err != nil {
		t.Fatalf("NetworkByName() error: %v", err)
	}
	if n.PrivateVersion != BitcoinTestnet.PrivateVersion {
		t.Errorf("NetworkByName(testnet) = %+v", n)
	}
	if _, err := NetworkByName("regtest"); err == nil {
		t.Error("NetworkByName should reject unknown networks")
	}
}
