package wallet

import (
	"bytes"
	"errors"
	"testing"
)

// fastParams returns low-cost Argon2 params for fast tests.
func fastParams() EncryptionParams {
	return EncryptionParams{
		Memory:      64, // 64 KiB (minimal)
		Iterations:  1,
		Parallelism: 1,
	}
}

func TestSealOpen_Roundtrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"seed", bytes.Repeat([]byte{0xab}, 64)},
		{"empty", []byte{}},
		{"large", make([]byte, 10000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := Seal(tt.data, []byte("strong-password-123"), fastParams())
			if err != nil {
				t.Fatalf("Seal() error: %v", err)
			}
			opened, err := Open(sealed, []byte("strong-password-123"))
			if err != nil {
				t.Fatalf("Open() error: %v", err)
			}
			if !bytes.Equal(opened, tt.data) {
				t.Error("opened data does not match")
			}
		})
	}
}

func TestOpen_WrongPassword(t *testing.T) {
	sealed, err := Seal([]byte("secret data"), []byte("correct"), fastParams())
	if err != nil {
		t.Fatalf("Seal() error: %v", err)
	}
	if _, err := Open(sealed, []byte("wrong")); !errors.Is(err, ErrDecrypt) {
		t.Errorf("Open() wrong password error = %v, want ErrDecrypt", err)
	}
}

func TestOpen_Truncated(t *testing.T) {
	if _, err := Open([]byte("too short"), []byte("pass")); !errors.Is(err, ErrDecrypt) {
		t.Errorf("Open() truncated error = %v, want ErrDecrypt", err)
	}
}

func TestOpen_Tampered(t *testing.T) {
	sealed, err := Seal([]byte("data"), []byte("pass"), fastParams())
	if err != nil {
		t.Fatalf("Seal() error: %v", err)
	}

	tests := []struct {
		name string
		pos  int
	}{
		{"auth tag", len(sealed) - 1},
		{"salt", 1},
		{"nonce", headerSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := append([]byte(nil), sealed...)
			bad[tt.pos] ^= 0xFF
			if _, err := Open(bad, []byte("pass")); !errors.Is(err, ErrDecrypt) {
				t.Errorf("Open() error = %v, want ErrDecrypt", err)
			}
		})
	}
}

func TestOpen_ParamsAuthenticated(t *testing.T) {
	sealed, err := Seal([]byte("data"), []byte("pass"), fastParams())
	if err != nil {
		t.Fatalf("Seal() error: %v", err)
	}
	// Bump the iteration count; the header is associated data.
	sealed[1+SaltSize+4+3]++
	if _, err := Open(sealed, []byte("pass")); !errors.Is(err, ErrDecrypt) {
		t.Errorf("Open() error = %v, want ErrDecrypt", err)
	}
}

func TestOpen_RejectsHugeMemory(t *testing.T) {
	sealed, err := Seal([]byte("data"), []byte("pass"), fastParams())
	if err != nil {
		t.Fatalf("Seal() error: %v", err)
	}
	sealed[1+SaltSize] = 0xFF
	if _, err := Open(sealed, []byte("pass")); !errors.Is(err, ErrDecrypt) {
		t.Errorf("Open() error = %v, want ErrDecrypt", err)
	}
}

func TestSeal_RejectsZeroParams(t *testing.T) {
	if _, err := Seal([]byte("x"), []byte("p"), EncryptionParams{}); err == nil {
		t.Error("Seal() with zero params should fail")
	}
}

func TestSeal_DifferentEachTime(t *testing.T) {
	enc1, err := Seal([]byte("same data"), []byte("same pass"), fastParams())
	if err != nil {
		t.Fatalf("Seal() error: %v", err)
	}
	enc2, err := Seal([]byte("same data"), []byte("same pass"), fastParams())
	if err != nil {
		t.Fatalf("Seal() error: %v", err)
	}
	if bytes.Equal(enc1, enc2) {
		t.Error("sealing twice should produce different output (random salt/nonce)")
	}
}

func TestSeal_Format(t *testing.T) {
	params := EncryptionParams{Memory: 128, Iterations: 2, Parallelism: 1}
	sealed, err := Seal([]byte("test"), []byte("pass"), params)
	if err != nil {
		t.Fatalf("Seal() error: %v", err)
	}
	if sealed[0] != sealVersion {
		t.Errorf("version byte = %d, want %d", sealed[0], sealVersion)
	}
	if want := headerSize + 24 + 4 + 16; len(sealed) != want {
		t.Errorf("sealed length = %d, want %d", len(sealed), want)
	}
	got, err := ParamsOf(sealed)
	if err != nil {
		t.Fatalf("ParamsOf() error: %v", err)
	}
	if got != params {
		t.Errorf("ParamsOf() = %+v, want %+v", got, params)
	}
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	if p.Memory != 64*1024 || p.Iterations != 3 || p.Parallelism != 4 {
		t.Errorf("DefaultParams() = %+v", p)
	}
}
