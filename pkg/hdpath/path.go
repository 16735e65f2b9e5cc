// Package hdpath parses and formats hierarchical derivation paths such as
// "m/44'/60'/0'/0/0".
//
// A path starts with a capability marker: "m" for a walk from a
// private-capable root, "M" for a walk that must stay public-only. Each
// "/"-separated segment is a decimal child index below 2^31, optionally
// followed by a hardened marker ("'", or the alternative "h"/"H").
package hdpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// HardenedOffset is the first hardened child number (2^31).
const HardenedOffset uint32 = 1 << 31

// MaxIndex is the largest child index accepted before the hardened bit is applied.
const MaxIndex = HardenedOffset - 1

// Path markers.
const (
	PrivateMarker = "m"
	PublicMarker  = "M"
)

var (
	ErrMalformedPath = errors.New("malformed derivation path")
	ErrIndexOverflow = errors.New("child index must be below 2^31")
)

// Step is one child derivation in a path.
type Step struct {
	Index    uint32
	Hardened bool
}

// Hardened returns a hardened step for index.
func Hardened(index uint32) Step {
	return Step{Index: index, Hardened: true}
}

// Normal returns a non-hardened step for index.
func Normal(index uint32) Step {
	return Step{Index: index}
}

// ChildNumber returns the 32-bit BIP-32 child number: the index with the
// high bit set when hardened.
func (s Step) ChildNumber() uint32 {
	if s.Hardened {
		return s.Index | HardenedOffset
	}
	return s.Index
}

// String formats the step as it appears inside a path.
func (s Step) String() string {
	if s.Hardened {
		return strconv.FormatUint(uint64(s.Index), 10) + "'"
	}
	return strconv.FormatUint(uint64(s.Index), 10)
}

// StepFromChildNumber splits a 32-bit child number into a Step.
func StepFromChildNumber(n uint32) Step {
	return Step{Index: n &^ HardenedOffset, Hardened: n&HardenedOffset != 0}
}

// Path is an ordered walk from a root key.
// PublicOnly is set for paths written with the "M" marker.
type Path struct {
	PublicOnly bool
	Steps      []Step
}

// Parse parses a textual derivation path.
func Parse(text string) (Path, error) {
	if text == "" {
		return Path{}, fmt.Errorf("%w: empty path", ErrMalformedPath)
	}

	segments := strings.Split(text, "/")

	var p Path
	switch segments[0] {
	case PrivateMarker:
	case PublicMarker:
		p.PublicOnly = true
	default:
		return Path{}, fmt.Errorf("%w: path must start with %q or %q", ErrMalformedPath, PrivateMarker, PublicMarker)
	}

	if len(segments) > 1 {
		p.Steps = make([]Step, 0, len(segments)-1)
	}
	for i, seg := range segments[1:] {
		step, err := parseSegment(seg)
		if err != nil {
			return Path{}, fmt.Errorf("segment %d %q: %w", i+1, seg, err)
		}
		p.Steps = append(p.Steps, step)
	}
	return p, nil
}

// MustParse is like Parse but panics on error. Intended for constants.
func MustParse(text string) Path {
	p, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return p
}

func parseSegment(seg string) (Step, error) {
	var step Step
	if n := len(seg); n > 0 {
		switch seg[n-1] {
		case '\'', 'h', 'H':
			step.Hardened = true
			seg = seg[:n-1]
		}
	}
	if seg == "" {
		return Step{}, ErrMalformedPath
	}

	// Only plain decimal digits: no sign, no whitespace, no underscores.
	var value uint64
	overflow := false
	for i := 0; i < len(seg); i++ {
		c := seg[i]
		if c < '0' || c > '9' {
			return Step{}, ErrMalformedPath
		}
		if !overflow {
			value = value*10 + uint64(c-'0')
			if value > uint64(MaxIndex) {
				overflow = true
			}
		}
	}
	if overflow {
		return Step{}, ErrIndexOverflow
	}

	step.Index = uint32(value)
	return step, nil
}

// String returns the canonical textual form, using "'" for hardened steps.
func (p Path) String() string {
	var sb strings.Builder
	if p.PublicOnly {
		sb.WriteString(PublicMarker)
	} else {
		sb.WriteString(PrivateMarker)
	}
	for _, s := range p.Steps {
		sb.WriteByte('/')
		sb.WriteString(s.String())
	}
	return sb.String()
}

// Len returns the number of steps.
func (p Path) Len() int {
	return len(p.Steps)
}

// HasHardened reports whether any step is hardened.
func (p Path) HasHardened() bool {
	return p.FirstHardened() >= 0
}

// FirstHardened returns the position of the first hardened step, or -1.
func (p Path) FirstHardened() int {
	for i, s := range p.Steps {
		if s.Hardened {
			return i
		}
	}
	return -1
}

// Child returns a new path with the given steps appended.
// The receiver is not modified.
func (p Path) Child(steps ...Step) Path {
	out := Path{PublicOnly: p.PublicOnly, Steps: make([]Step, 0, len(p.Steps)+len(steps))}
	out.Steps = append(out.Steps, p.Steps...)
	out.Steps = append(out.Steps, steps...)
	return out
}

// ChildNumbers returns the 32-bit child numbers of every step.
func (p Path) ChildNumbers() []uint32 {
	out := make([]uint32, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = s.ChildNumber()
	}
	return out
}

// Equal reports whether two paths have the same marker and steps.
func (p Path) Equal(other Path) bool {
	if p.PublicOnly != other.PublicOnly || len(p.Steps) != len(other.Steps) {
		return false
	}
	for i := range p.Steps {
		if p.Steps[i] != other.Steps[i] {
			return false
		}
	}
	return true
}
