package hdpath

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	p, err := Parse("m/44'/60'/0'/0/0")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if p.PublicOnly {
		t.Error("path with m marker should be private-capable")
	}

	want := []Step{{44, true}, {60, true}, {0, true}, {0, false}, {0, false}}
	if len(p.Steps) != len(want) {
		t.Fatalf("step count = %d, want %d", len(p.Steps), len(want))
	}
	for i := range want {
		if p.Steps[i] != want[i] {
			t.Errorf("step %d = %+v, want %+v", i, p.Steps[i], want[i])
		}
	}
}

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		publicOnly bool
		steps      []Step
	}{
		{"master only", "m", false, nil},
		{"public master", "M", true, nil},
		{"single normal", "m/0", false, []Step{{0, false}}},
		{"max index", "m/2147483647", false, []Step{{MaxIndex, false}}},
		{"max hardened", "m/2147483647'", false, []Step{{MaxIndex, true}}},
		{"h marker", "m/44h/0H", false, []Step{{44, true}, {0, true}}},
		{"public normal", "M/0/1/2", true, []Step{{0, false}, {1, false}, {2, false}}},
		{"public hardened parses", "M/0'", true, []Step{{0, true}}},
		{"leading zeros", "m/007", false, []Step{{7, false}}},
		{"bip32 vector path", "m/0'/1/2'/2/1000000000", false,
			[]Step{{0, true}, {1, false}, {2, true}, {2, false}, {1000000000, false}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.text)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.text, err)
			}
			if p.PublicOnly != tt.publicOnly {
				t.Errorf("PublicOnly = %v, want %v", p.PublicOnly, tt.publicOnly)
			}
			if !p.Equal(Path{PublicOnly: tt.publicOnly, Steps: tt.steps}) {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.text, p.Steps, tt.steps)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		text string
		want error
	}{
		{"empty", "", ErrMalformedPath},
		{"bad marker", "x/0", ErrMalformedPath},
		{"missing marker", "0/1", ErrMalformedPath},
		{"lowercase word marker", "master/0", ErrMalformedPath},
		{"negative", "m/-1", ErrMalformedPath},
		{"plus sign", "m/+1", ErrMalformedPath},
		{"trailing slash", "m/", ErrMalformedPath},
		{"double slash", "m//0", ErrMalformedPath},
		{"only marker char", "m/'", ErrMalformedPath},
		{"double hardened", "m/44''", ErrMalformedPath},
		{"letters", "m/abc", ErrMalformedPath},
		{"space", "m/ 1", ErrMalformedPath},
		{"hex", "m/0x10", ErrMalformedPath},
		{"overflow", "m/2147483648", ErrIndexOverflow},
		{"overflow hardened", "m/2147483648'", ErrIndexOverflow},
		{"huge", "m/99999999999999999999999", ErrIndexOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.text)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Parse(%q) error = %v, want %v", tt.text, err, tt.want)
			}
			if p.Steps != nil || p.PublicOnly {
				t.Errorf("Parse(%q) returned partial path %+v", tt.text, p)
			}
		})
	}
}

func TestPathString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"m", "m"},
		{"M", "M"},
		{"m/44'/60'/0'/0", "m/44'/60'/0'/0"},
		{"m/44h/60H/0", "m/44'/60'/0"},
		{"M/0/1", "M/0/1"},
		{"m/007", "m/7"},
	}
	for _, tt := range tests {
		p := MustParse(tt.in)
		if got := p.String(); got != tt.want {
			t.Errorf("Parse(%q).String() = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMustParse_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParse should panic on an invalid path")
		}
	}()
	MustParse("nope")
}

func TestChildNumber(t *testing.T) {
	if got := Hardened(44).ChildNumber(); got != 0x8000002C {
		t.Errorf("Hardened(44).ChildNumber() = %#x, want 0x8000002c", got)
	}
	if got := Normal(7).ChildNumber(); got != 7 {
		t.Errorf("Normal(7).ChildNumber() = %d, want 7", got)
	}

	for _, n := range []uint32{0, 1, MaxIndex, HardenedOffset, HardenedOffset + 44, 0xFFFFFFFF} {
		if got := StepFromChildNumber(n).ChildNumber(); got != n {
			t.Errorf("StepFromChildNumber(%#x) round trip = %#x", n, got)
		}
	}
}

func TestChild_DoesNotAlias(t *testing.T) {
	base := MustParse("m/44'/60'")
	a := base.Child(Hardened(0))
	b := base.Child(Hardened(1))

	if base.Len() != 2 {
		t.Errorf("base modified: %s", base)
	}
	if a.String() != "m/44'/60'/0'" || b.String() != "m/44'/60'/1'" {
		t.Errorf("children = %s, %s", a, b)
	}
}

func TestFirstHardened(t *testing.T) {
	if got := MustParse("M/0/1").FirstHardened(); got != -1 {
		t.Errorf("FirstHardened() = %d, want -1", got)
	}
	p := MustParse("m/0/1'/2'")
	if got := p.FirstHardened(); got != 1 {
		t.Errorf("FirstHardened() = %d, want 1", got)
	}
	if !p.HasHardened() {
		t.Error("HasHardened() = false")
	}
}

func TestBIP44(t *testing.T) {
	p := BIP44(CoinTypeEthereum, 0, ChangeExternal, 0)
	if got := p.String(); got != "m/44'/60'/0'/0/0" {
		t.Errorf("BIP44() = %s", got)
	}
	if !BIP44Account(CoinTypeEthereum, 0).Child(Normal(0)).Equal(MustParse(DefaultEthereum)) {
		t.Error("BIP44Account + change should equal DefaultEthereum")
	}
	want := []uint32{0x8000002C, 0x80000000 + 8888, 0x80000002, 1, 5}
	got := BIP44(CoinTypeKlingnet, 2, ChangeInternal, 5).ChildNumbers()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ChildNumbers()[%d] = %#x, want %#x", i, got[i], want[i])
		}
	}
}
