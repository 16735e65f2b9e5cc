package bip39

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tyler-smith/go-bip39/wordlists"
)

// WordlistSize is the number of words in every BIP-39 wordlist (2^11).
const WordlistSize = 1 << bitsPerWord

// Language identifies a BIP-39 wordlist.
type Language int

const (
	English Language = iota
	ChineseSimplified
	ChineseTraditional
	Czech
	French
	Italian
	Japanese
	Korean
	Spanish
)

var languageNames = map[Language]string{
	English:            "english",
	ChineseSimplified:  "chinese_simplified",
	ChineseTraditional: "chinese_traditional",
	Czech:              "czech",
	French:             "french",
	Italian:            "italian",
	Japanese:           "japanese",
	Korean:             "korean",
	Spanish:            "spanish",
}

// Languages returns every supported language in declaration order.
func Languages() []Language {
	return []Language{English, ChineseSimplified, ChineseTraditional, Czech, French, Italian, Japanese, Korean, Spanish}
}

// String returns the lowercase language name.
func (l Language) String() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return fmt.Sprintf("language(%d)", int(l))
}

// ParseLanguage maps a language name (case-insensitive) to a Language.
func ParseLanguage(name string) (Language, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for l, n := range languageNames {
		if n == name {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown wordlist language %q", name)
}

// Wordlist is an immutable table of 2048 words addressable by 11-bit index.
type Wordlist struct {
	lang   Language
	words  []string
	index  map[string]int
	sorted []string // sorted copy for prefix lookup
}

// NewWordlist builds a table from exactly 2048 distinct words.
// Any other input is a build-time data error and panics.
func NewWordlist(lang Language, words []string) *Wordlist {
	if len(words) != WordlistSize {
		panic(fmt.Sprintf("bip39: %s wordlist has %d words, want %d", lang, len(words), WordlistSize))
	}
	wl := &Wordlist{
		lang:  lang,
		words: make([]string, len(words)),
		index: make(map[string]int, len(words)),
	}
	copy(wl.words, words)
	for i, w := range wl.words {
		if _, dup := wl.index[w]; dup {
			panic(fmt.Sprintf("bip39: %s wordlist has duplicate word %q", lang, w))
		}
		wl.index[w] = i
	}
	wl.sorted = make([]string, len(wl.words))
	copy(wl.sorted, wl.words)
	sort.Strings(wl.sorted)
	return wl
}

// Language returns the table's language.
func (wl *Wordlist) Language() Language {
	return wl.lang
}

// Len returns the number of words (always 2048).
func (wl *Wordlist) Len() int {
	return len(wl.words)
}

// Word returns the word at index.
func (wl *Wordlist) Word(index int) (string, bool) {
	if index < 0 || index >= len(wl.words) {
		return "", false
	}
	return wl.words[index], true
}

// Index returns the 11-bit index of word. Lookup is exact.
func (wl *Wordlist) Index(word string) (int, bool) {
	i, ok := wl.index[word]
	return i, ok
}

// Contains reports whether word is in the table.
func (wl *Wordlist) Contains(word string) bool {
	_, ok := wl.index[word]
	return ok
}

// WithPrefix returns every word starting with prefix, in sorted order.
func (wl *Wordlist) WithPrefix(prefix string) []string {
	start := sort.SearchStrings(wl.sorted, prefix)
	end := start
	for end < len(wl.sorted) && strings.HasPrefix(wl.sorted[end], prefix) {
		end++
	}
	out := make([]string, end-start)
	copy(out, wl.sorted[start:end])
	return out
}

const numLanguages = int(Spanish) + 1

var (
	tableOnce [numLanguages]sync.Once
	tables    [numLanguages]*Wordlist
)

func sourceWords(lang Language) ([]string, bool) {
	switch lang {
	case English:
		return wordlists.English, true
	case ChineseSimplified:
		return wordlists.ChineseSimplified, true
	case ChineseTraditional:
		return wordlists.ChineseTraditional, true
	case Czech:
		return wordlists.Czech, true
	case French:
		return wordlists.French, true
	case Italian:
		return wordlists.Italian, true
	case Japanese:
		return wordlists.Japanese, true
	case Korean:
		return wordlists.Korean, true
	case Spanish:
		return wordlists.Spanish, true
	}
	return nil, false
}

// WordlistFor returns the shared table for lang, building it on first use.
func WordlistFor(lang Language) (*Wordlist, error) {
	words, ok := sourceWords(lang)
	if !ok {
		return nil, fmt.Errorf("no wordlist for %s", lang)
	}
	tableOnce[lang].Do(func() {
		tables[lang] = NewWordlist(lang, normalizeWords(words))
	})
	return tables[lang], nil
}

// normalizeWords applies NFKD to each word so lookups match normalised input.
func normalizeWords(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = nfkd(w)
	}
	return out
}

// Detect returns the first language whose table contains every word.
func Detect(words []string) (Language, bool) {
	if len(words) == 0 {
		return 0, false
	}
	for _, lang := range Languages() {
		wl, err := WordlistFor(lang)
		if err != nil {
			continue
		}
		all := true
		for _, w := range words {
			if !wl.Contains(nfkd(w)) {
				all = false
				break
			}
		}
		if all {
			return lang, true
		}
	}
	return 0, false
}
