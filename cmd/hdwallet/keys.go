package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"strings"

	"github.com/Klingon-tech/klingnet-hdwallet/config"
	"github.com/Klingon-tech/klingnet-hdwallet/internal/wallet"
	"github.com/Klingon-tech/klingnet-hdwallet/pkg/address"
	"github.com/Klingon-tech/klingnet-hdwallet/pkg/bip32"
	"github.com/Klingon-tech/klingnet-hdwallet/pkg/bip39"
	"github.com/Klingon-tech/klingnet-hdwallet/pkg/crypto"
	"github.com/Klingon-tech/klingnet-hdwallet/pkg/hdpath"
	"github.com/btcsuite/btcd/chaincfg"
)

// ── mnemonic ────────────────────────────────────────────────────────────

func cmdMnemonic(cfg *config.Config, args []string) {
	if len(args) == 0 {
		fatal("Usage: hdwallet mnemonic <new|check|entropy> [flags]")
	}
	switch args[0] {
	case "new":
		cmdMnemonicNew(cfg, args[1:])
	case "check":
		cmdMnemonicCheck(args[1:])
	case "entropy":
		cmdMnemonicEntropy(args[1:])
	default:
		fatal("unknown mnemonic command: %s", args[0])
	}
}

func cmdMnemonicNew(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("mnemonic new", flag.ExitOnError)
	words := fs.Int("words", 0, "Number of words (12, 15, 18, 21 or 24)")
	langName := fs.String("lang", cfg.Wallet.Language, "Wordlist language")
	entropyHex := fs.String("entropy", "", "Encode the given entropy (hex) instead of fresh randomness")
	fs.Parse(args)

	lang, err := bip39.ParseLanguage(*langName)
	if err != nil {
		fatal("%v", err)
	}

	var m bip39.Mnemonic
	if *entropyHex != "" {
		entropy, err := hex.DecodeString(*entropyHex)
		if err != nil {
			fatal("invalid entropy hex: %v", err)
		}
		m, err = bip39.FromEntropy(entropy, lang)
		crypto.Zero(entropy)
		if err != nil {
			fatal("%v", err)
		}
	} else {
		strength, err := strengthFor(*words, cfg.Wallet.Strength)
		if err != nil {
			fatal("%v", err)
		}
		if m, err = wallet.GenerateMnemonic(strength, lang); err != nil {
			fatal("%v", err)
		}
	}
	fmt.Println(m.Sentence())
}

func cmdMnemonicCheck(args []string) {
	fs := flag.NewFlagSet("mnemonic check", flag.ExitOnError)
	langName := fs.String("lang", "", "Wordlist language (detected when omitted)")
	fs.Parse(args)

	m, err := parseSentence(fs.Args(), *langName)
	if err != nil {
		fatal("%v", err)
	}
	fmt.Printf("Valid: %d words, %d bits of entropy, %s wordlist\n", m.WordCount(), m.Strength(), m.Language())
}

func cmdMnemonicEntropy(args []string) {
	fs := flag.NewFlagSet("mnemonic entropy", flag.ExitOnError)
	langName := fs.String("lang", "", "Wordlist language (detected when omitted)")
	fs.Parse(args)

	m, err := parseSentence(fs.Args(), *langName)
	if err != nil {
		fatal("%v", err)
	}
	entropy, err := m.Entropy()
	if err != nil {
		fatal("%v", err)
	}
	defer crypto.Zero(entropy)
	fmt.Println(hex.EncodeToString(entropy))
}

// parseSentence validates the positional sentence, detecting the language
// unless one is named.
func parseSentence(args []string, langName string) (bip39.Mnemonic, error) {
	sentence, err := sentenceArg(args)
	if err != nil {
		return bip39.Mnemonic{}, err
	}
	if langName == "" {
		return wallet.ValidateMnemonic(sentence)
	}
	lang, err := bip39.ParseLanguage(langName)
	if err != nil {
		return bip39.Mnemonic{}, err
	}
	return bip39.ParseMnemonic(sentence, lang)
}

// strengthFor picks the entropy size from a word count, falling back to the
// configured default when words is zero.
func strengthFor(words, fallback int) (int, error) {
	if words == 0 {
		return fallback, nil
	}
	strength := bip39.StrengthForWords(words)
	if strength == 0 {
		return 0, fmt.Errorf("%w: %d words", bip39.ErrInvalidWordCount, words)
	}
	return strength, nil
}

// ── seed ────────────────────────────────────────────────────────────────

func cmdSeed(args []string) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	askPassphrase := fs.Bool("passphrase", false, "Prompt for a BIP-39 passphrase")
	fs.Parse(args)

	sentence, err := sentenceArg(fs.Args())
	if err != nil {
		fatal("%v", err)
	}
	passphrase, err := readPassphrase(*askPassphrase)
	if err != nil {
		fatal("%v", err)
	}
	seed, err := wallet.SeedFromMnemonic(sentence, passphrase)
	if err != nil {
		fatal("%v", err)
	}
	defer seed.Zero()
	fmt.Println(seed.String())
}

// ── derive / xpub / address ─────────────────────────────────────────────

// keySource holds the flags shared by commands that need a root key.
type keySource struct {
	mnemonic      *string
	seedHex       *string
	xkey          *string
	askPassphrase *bool
}

func addKeySource(fs *flag.FlagSet) *keySource {
	return &keySource{
		mnemonic:      fs.String("mnemonic", "", "Mnemonic sentence"),
		seedHex:       fs.String("seed", "", "Seed as hex (16 to 64 bytes)"),
		xkey:          fs.String("xkey", "", "Extended key (xprv, xpub, tprv or tpub)"),
		askPassphrase: fs.Bool("passphrase", false, "Prompt for a BIP-39 passphrase"),
	}
}

// root returns the key to derive from and the network to serialise for.
// Extended keys keep their own network.
func (s *keySource) root(net bip32.Network) (*bip32.ExtendedKey, bip32.Network, error) {
	set := 0
	for _, v := range []string{*s.mnemonic, *s.seedHex, *s.xkey} {
		if v != "" {
			set++
		}
	}
	if set > 1 {
		return nil, net, fmt.Errorf("use only one of --mnemonic, --seed and --xkey")
	}

	switch {
	case *s.xkey != "":
		return address.DecodeExtendedKey(*s.xkey)

	case *s.seedHex != "":
		seed, err := hex.DecodeString(*s.seedHex)
		if err != nil {
			return nil, net, fmt.Errorf("invalid seed hex: %w", err)
		}
		defer crypto.Zero(seed)
		k, err := bip32.NewMaster(seed)
		return k, net, err

	default:
		sentence := *s.mnemonic
		if sentence == "" {
			b, err := readSecret("Enter mnemonic: ")
			if err != nil {
				return nil, net, err
			}
			sentence = string(b)
		}
		passphrase, err := readPassphrase(*s.askPassphrase)
		if err != nil {
			return nil, net, err
		}
		seed, err := wallet.SeedFromMnemonic(sentence, passphrase)
		if err != nil {
			return nil, net, err
		}
		defer seed.Zero()
		k, err := bip32.NewMaster(seed.Bytes())
		return k, net, err
	}
}

// deriveFrom resolves the source and walks path.
func deriveFrom(cfg *config.Config, src *keySource, path string) (*bip32.ExtendedKey, bip32.Network) {
	p, err := hdpath.Parse(path)
	if err != nil {
		fatal("%v", err)
	}
	root, net, err := src.root(cfg.KeyNetwork())
	if err != nil {
		fatal("%v", err)
	}
	defer root.Zero()

	k, err := bip32.DerivePath(root, p)
	if err != nil {
		fatal("derive %s: %v", path, err)
	}
	return k, net
}

func cmdDerive(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("derive", flag.ExitOnError)
	path := fs.String("path", cfg.Wallet.DefaultPath, "Derivation path")
	format := fs.String("format", cfg.Wallet.AddressFormat, "Address format (ethereum, bitcoin, klingnet)")
	showPrivate := fs.Bool("private", false, "Also print private key material")
	src := addKeySource(fs)
	fs.Parse(args)

	k, net := deriveFrom(cfg, src, *path)
	defer k.Zero()

	formatter, err := address.Lookup(*format, net)
	if err != nil {
		fatal("%v", err)
	}
	addr, err := address.ForKey(formatter, k)
	if err != nil {
		fatal("%v", err)
	}

	fmt.Printf("Path:         %s\n", *path)
	fmt.Printf("Depth:        %d\n", k.Depth())
	fmt.Printf("Index:        %s\n", childLabel(k))
	fmt.Printf("Parent FP:    %x\n", k.ParentFingerprint())
	fmt.Printf("Fingerprint:  %x\n", k.Fingerprint())
	fmt.Printf("Public key:   %x\n", k.PublicKey())
	fmt.Printf("Extended pub: %s\n", address.EncodeExtendedKey(k.Neuter(), net))
	fmt.Printf("Address:      %s (%s)\n", addr, strings.ToLower(*format))

	if !*showPrivate {
		return
	}
	if !k.IsPrivate() {
		fatal("key at %s is public-only", *path)
	}
	privHex, err := address.PrivateKeyHex(k)
	if err != nil {
		fatal("%v", err)
	}
	wif, err := address.PrivateKeyWIF(k, wifParams(net))
	if err != nil {
		fatal("%v", err)
	}
	fmt.Printf("Extended prv: %s\n", address.EncodeExtendedKey(k, net))
	fmt.Printf("Private key:  %s\n", privHex)
	fmt.Printf("WIF:          %s\n", wif)
}

func cmdXPub(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("xpub", flag.ExitOnError)
	path := fs.String("path", cfg.Wallet.DefaultPath, "Derivation path")
	src := addKeySource(fs)
	fs.Parse(args)

	k, net := deriveFrom(cfg, src, *path)
	defer k.Zero()
	fmt.Println(address.EncodeExtendedKey(k.Neuter(), net))
}

func cmdAddress(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("address", flag.ExitOnError)
	path := fs.String("path", cfg.Wallet.DefaultPath+"/0", "Derivation path")
	format := fs.String("format", cfg.Wallet.AddressFormat, "Address format (ethereum, bitcoin, klingnet)")
	src := addKeySource(fs)
	fs.Parse(args)

	k, net := deriveFrom(cfg, src, *path)
	defer k.Zero()

	formatter, err := address.Lookup(*format, net)
	if err != nil {
		fatal("%v", err)
	}
	addr, err := address.ForKey(formatter, k)
	if err != nil {
		fatal("%v", err)
	}
	fmt.Println(addr)
}

// childLabel renders the node's child number as a path step.
func childLabel(k *bip32.ExtendedKey) string {
	if k.Depth() == 0 {
		return "master"
	}
	return hdpath.StepFromChildNumber(k.ChildNumber()).String()
}

func wifParams(net bip32.Network) *chaincfg.Params {
	if net.Name == bip32.BitcoinTestnet.Name {
		return &chaincfg.TestNet3Params
	}
	return &chaincfg.MainNetParams
}
