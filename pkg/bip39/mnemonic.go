package bip39

import (
	"fmt"
	"strings"

	"github.com/Klingon-tech/klingnet-hdwallet/pkg/crypto"
	"golang.org/x/text/unicode/norm"
)

// Mnemonic is a checksummed word sequence drawn from one wordlist.
// Values are only produced by Generate, FromEntropy and ParseMnemonic,
// so a Mnemonic always carries a valid checksum.
type Mnemonic struct {
	lang  Language
	words []string
}

// Generate creates a mnemonic from fresh entropy of the given strength.
func Generate(strength int, lang Language) (Mnemonic, error) {
	entropy, err := NewEntropy(strength)
	if err != nil {
		return Mnemonic{}, err
	}
	defer crypto.Zero(entropy)
	return FromEntropy(entropy, lang)
}

// FromEntropy encodes entropy as a mnemonic: entropy ‖ checksum is sliced
// into 11-bit groups, most significant first, each mapped to a word.
func FromEntropy(entropy []byte, lang Language) (Mnemonic, error) {
	bits := len(entropy) * 8
	if !ValidStrength(bits) {
		return Mnemonic{}, fmt.Errorf("%w: got %d", ErrInvalidEntropyLength, bits)
	}
	wl, err := WordlistFor(lang)
	if err != nil {
		return Mnemonic{}, err
	}

	buf := make([]byte, len(entropy)+1)
	defer crypto.Zero(buf)
	copy(buf, entropy)
	buf[len(entropy)] = checksumByte(entropy)

	count := WordCount(bits)
	words := make([]string, count)
	for i := range words {
		words[i], _ = wl.Word(readBits(buf, i*bitsPerWord, bitsPerWord))
	}
	return Mnemonic{lang: lang, words: words}, nil
}

// ParseMnemonic normalises sentence, checks every word and the checksum,
// and returns the mnemonic.
func ParseMnemonic(sentence string, lang Language) (Mnemonic, error) {
	words := splitWords(sentence)
	entropy, err := wordsToEntropy(words, lang)
	if err != nil {
		return Mnemonic{}, err
	}
	crypto.Zero(entropy)
	return Mnemonic{lang: lang, words: words}, nil
}

// EntropyFromMnemonic decodes a sentence back to its entropy.
func EntropyFromMnemonic(sentence string, lang Language) ([]byte, error) {
	return wordsToEntropy(splitWords(sentence), lang)
}

// ToEntropy recovers the entropy a mnemonic encodes.
func ToEntropy(m Mnemonic) ([]byte, error) {
	return m.Entropy()
}

// IsValid reports whether sentence is a well-formed mnemonic in lang.
func IsValid(sentence string, lang Language) bool {
	entropy, err := EntropyFromMnemonic(sentence, lang)
	if err != nil {
		return false
	}
	crypto.Zero(entropy)
	return true
}

func wordsToEntropy(words []string, lang Language) ([]byte, error) {
	strength := StrengthForWords(len(words))
	if strength == 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWordCount, len(words))
	}
	wl, err := WordlistFor(lang)
	if err != nil {
		return nil, err
	}

	total := len(words) * bitsPerWord
	buf := make([]byte, (total+7)/8)
	defer crypto.Zero(buf)
	for i, w := range words {
		idx, ok := wl.Index(w)
		if !ok {
			// The word itself is secret material; report only its position.
			return nil, fmt.Errorf("%w: word %d", ErrUnknownWord, i+1)
		}
		writeBits(buf, i*bitsPerWord, bitsPerWord, idx)
	}

	entLen := strength / 8
	cs := checksumBits(strength)
	got := buf[entLen] >> (8 - cs)
	want := checksumByte(buf[:entLen]) >> (8 - cs)
	if got != want {
		return nil, ErrChecksumMismatch
	}

	entropy := make([]byte, entLen)
	copy(entropy, buf[:entLen])
	return entropy, nil
}

// splitWords NFKD-normalises s and splits it on any whitespace.
func splitWords(s string) []string {
	return strings.Fields(nfkd(s))
}

func nfkd(s string) string {
	return norm.NFKD.String(s)
}

// Entropy decodes the mnemonic back to its entropy.
func (m Mnemonic) Entropy() ([]byte, error) {
	return wordsToEntropy(m.words, m.lang)
}

// Words returns a copy of the word sequence.
func (m Mnemonic) Words() []string {
	out := make([]string, len(m.words))
	copy(out, m.words)
	return out
}

// WordCount returns the number of words.
func (m Mnemonic) WordCount() int {
	return len(m.words)
}

// Strength returns the entropy size in bits.
func (m Mnemonic) Strength() int {
	return StrengthForWords(len(m.words))
}

// Language returns the wordlist language.
func (m Mnemonic) Language() Language {
	return m.lang
}

// Sentence returns the words joined by single spaces.
func (m Mnemonic) Sentence() string {
	return strings.Join(m.words, " ")
}

// String returns the sentence.
func (m Mnemonic) String() string {
	return m.Sentence()
}

// Seed derives the 64-byte seed for this mnemonic and passphrase.
func (m Mnemonic) Seed(passphrase string) Seed {
	return NewSeed(m.Sentence(), passphrase)
}
