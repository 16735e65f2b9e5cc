// Command hdwallet generates BIP-39 mnemonics, derives BIP-32 keys and
// manages encrypted HD wallets on disk.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/Klingon-tech/klingnet-hdwallet/config"
	"github.com/Klingon-tech/klingnet-hdwallet/internal/log"
	"github.com/Klingon-tech/klingnet-hdwallet/internal/storage"
	"github.com/Klingon-tech/klingnet-hdwallet/internal/wallet"
	"github.com/Klingon-tech/klingnet-hdwallet/pkg/bip39"
	"golang.org/x/term"
)

const version = "0.3.0"

func main() {
	cfg, flags, err := config.Load(os.Args[1:])
	if err != nil {
		fatal("%v", err)
	}
	if flags.Help {
		usage()
		return
	}
	if flags.Version {
		fmt.Printf("hdwallet %s\n", version)
		return
	}
	if len(flags.Args) == 0 {
		usage()
		os.Exit(1)
	}
	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fatal("init logging: %v", err)
	}

	cmd, args := flags.Args[0], flags.Args[1:]
	switch cmd {
	case "mnemonic":
		cmdMnemonic(cfg, args)
	case "seed":
		cmdSeed(args)
	case "derive":
		cmdDerive(cfg, args)
	case "xpub":
		cmdXPub(cfg, args)
	case "address":
		cmdAddress(cfg, args)
	case "wallet":
		cmdWallet(cfg, args)
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: hdwallet [global flags] <command> [flags]

Global flags:
  --datadir <path>    Data directory (default: %s)
  --network <net>     mainnet (default) or testnet
  --testnet           Shorthand for --network=testnet
  --config <file>     Config file (default: <datadir>/hdwallet.conf)
  --log-level <lvl>   debug, info, warn or error
  --log-file <path>   Also write logs to a file
  --log-json          Log as JSON

Commands:
  mnemonic new [--words N] [--lang L] [--entropy <hex>]
                                  Generate a mnemonic
  mnemonic check [--lang L] ["<sentence>"]
                                  Validate a mnemonic
  mnemonic entropy ["<sentence>"] Print the entropy behind a mnemonic
  seed [--passphrase] ["<sentence>"]
                                  Print the 64-byte seed of a mnemonic

  derive --path <p> [source] [--private]
                                  Derive a key and print its details
  xpub --path <p> [source]        Print the extended public key at a path
  address --path <p> [--format f] [source]
                                  Print the address at a path

  Key sources: --mnemonic "<sentence>", --seed <hex>, --xkey <xprv|xpub>.
  With no source the mnemonic is read from the terminal.

  wallet create --name <n> [--words N] [--passphrase]
                                  Create a wallet and show its mnemonic once
  wallet import --name <n> [--passphrase]
                                  Import a wallet from a mnemonic
  wallet list                     List wallets
  wallet accounts --wallet <w>    List recorded accounts
  wallet derive --wallet <w> --path <p> [--label l]
                                  Derive and record an account
  wallet next --wallet <w> [--coin N] [--account N] [--change]
                                  Derive the next unused address
  wallet watch --xkey <xpub> [--path M/0/0]
                                  Derive an address from a public key only
  wallet delete --wallet <w> --yes
                                  Remove a wallet and its accounts
`, config.DefaultDataDir())
}

// openService wires the keystore and account index under the data directory.
// The returned close function releases the index database.
func openService(cfg *config.Config) (*wallet.Service, func()) {
	if err := config.EnsureDataDirs(cfg); err != nil {
		fatal("create data dirs: %v", err)
	}
	ks, err := wallet.NewKeystore(cfg.KeystoreDir())
	if err != nil {
		fatal("open keystore: %v", err)
	}
	db, err := storage.NewBadger(cfg.IndexDir())
	if err != nil {
		fatal("open account index: %v", err)
	}
	lang, err := bip39.ParseLanguage(cfg.Wallet.Language)
	if err != nil {
		db.Close()
		fatal("%v", err)
	}

	svc := wallet.NewService(ks, wallet.NewAccountIndex(db), wallet.Options{
		Network: cfg.KeyNetwork(),
		KDF: wallet.EncryptionParams{
			Memory:      cfg.KDF.Memory,
			Iterations:  cfg.KDF.Iterations,
			Parallelism: cfg.KDF.Parallelism,
		},
		Language:      lang,
		AddressFormat: cfg.Wallet.AddressFormat,
	})
	return svc, func() {
		if err := db.Close(); err != nil {
			log.CLI.Warn().Err(err).Msg("Closing account index failed")
		}
	}
}

// ── input helpers ───────────────────────────────────────────────────────

var stdin = bufio.NewReader(os.Stdin)

// readSecret prompts on stderr and reads a line without echo. Piped input is
// read as a plain line so the tool can be scripted.
func readSecret(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		line, err := stdin.ReadBytes('\n')
		if err != nil && len(line) == 0 {
			return nil, fmt.Errorf("read input: %w", err)
		}
		return bytes.TrimRight(line, "\r\n"), nil
	}
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return secret, nil
}

func readPassword(prompt string) ([]byte, error) {
	password, err := readSecret(prompt)
	if err != nil {
		return nil, err
	}
	if len(password) == 0 {
		return nil, fmt.Errorf("password cannot be empty")
	}
	return password, nil
}

// readNewPassword asks twice and requires both entries to match.
func readNewPassword() ([]byte, error) {
	password, err := readPassword("Enter password: ")
	if err != nil {
		return nil, err
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(password, confirm) {
		return nil, fmt.Errorf("passwords do not match")
	}
	return password, nil
}

func readPassphrase(ask bool) (string, error) {
	if !ask {
		return "", nil
	}
	p, err := readSecret("Enter BIP-39 passphrase: ")
	if err != nil {
		return "", err
	}
	return string(p), nil
}

// sentenceArg joins positional words into a sentence, or prompts for one.
func sentenceArg(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	s, err := readSecret("Enter mnemonic: ")
	if err != nil {
		return "", err
	}
	return string(s), nil
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
