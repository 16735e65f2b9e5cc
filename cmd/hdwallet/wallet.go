package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Klingon-tech/klingnet-hdwallet/config"
	"github.com/Klingon-tech/klingnet-hdwallet/pkg/hdpath"
)

// ── wallet ──────────────────────────────────────────────────────────────

func cmdWallet(cfg *config.Config, args []string) {
	if len(args) == 0 {
		fatal("Usage: hdwallet wallet <create|import|list|accounts|derive|next|watch|delete> [flags]")
	}
	switch args[0] {
	case "create":
		cmdWalletCreate(cfg, args[1:])
	case "import":
		cmdWalletImport(cfg, args[1:])
	case "list":
		cmdWalletList(cfg)
	case "accounts":
		cmdWalletAccounts(cfg, args[1:])
	case "derive":
		cmdWalletDerive(cfg, args[1:])
	case "next":
		cmdWalletNext(cfg, args[1:])
	case "watch":
		cmdWalletWatch(cfg, args[1:])
	case "delete":
		cmdWalletDelete(cfg, args[1:])
	default:
		fatal("unknown wallet command: %s", args[0])
	}
}

func cmdWalletCreate(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("wallet create", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	words := fs.Int("words", 0, "Number of mnemonic words (default from config)")
	askPassphrase := fs.Bool("passphrase", false, "Prompt for a BIP-39 passphrase")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: hdwallet wallet create --name <name>")
	}
	strength, err := strengthFor(*words, cfg.Wallet.Strength)
	if err != nil {
		fatal("%v", err)
	}
	password, err := readNewPassword()
	if err != nil {
		fatal("%v", err)
	}
	passphrase, err := readPassphrase(*askPassphrase)
	if err != nil {
		fatal("%v", err)
	}

	svc, closeIndex := openService(cfg)
	defer closeIndex()

	m, err := svc.Create(*name, password, strength, passphrase)
	if err != nil {
		closeIndex()
		fatal("create wallet: %v", err)
	}

	fmt.Printf("Wallet %q created.\n\n", *name)
	fmt.Println("Write down your mnemonic and keep it safe. It will not be shown again.")
	fmt.Println()
	for i, w := range m.Words() {
		fmt.Printf("  %2d. %s\n", i+1, w)
	}
	fmt.Println()
}

func cmdWalletImport(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("wallet import", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	askPassphrase := fs.Bool("passphrase", false, "Prompt for a BIP-39 passphrase")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: hdwallet wallet import --name <name>")
	}
	sentence, err := sentenceArg(nil)
	if err != nil {
		fatal("%v", err)
	}
	passphrase, err := readPassphrase(*askPassphrase)
	if err != nil {
		fatal("%v", err)
	}
	password, err := readNewPassword()
	if err != nil {
		fatal("%v", err)
	}

	svc, closeIndex := openService(cfg)
	defer closeIndex()

	if err := svc.Import(*name, sentence, passphrase, password); err != nil {
		closeIndex()
		fatal("import wallet: %v", err)
	}
	fmt.Printf("Wallet %q imported.\n", *name)
}

func cmdWalletList(cfg *config.Config) {
	svc, closeIndex := openService(cfg)
	defer closeIndex()

	infos, err := svc.Wallets()
	if err != nil {
		closeIndex()
		fatal("list wallets: %v", err)
	}
	if len(infos) == 0 {
		fmt.Println("No wallets found.")
		return
	}
	fmt.Printf("%-20s  %-8s  %-10s  %-8s  %s\n", "NAME", "NETWORK", "LANGUAGE", "MASTER", "CREATED")
	for _, info := range infos {
		fmt.Printf("%-20s  %-8s  %-10s  %-8s  %s\n",
			info.Name, info.Network, info.Language, info.MasterFingerprint,
			info.CreatedAt.Format("2006-01-02 15:04"))
	}
}

func cmdWalletAccounts(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("wallet accounts", flag.ExitOnError)
	name := fs.String("wallet", "", "Wallet name")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: hdwallet wallet accounts --wallet <name>")
	}
	svc, closeIndex := openService(cfg)
	defer closeIndex()

	accts, err := svc.Accounts(*name)
	if err != nil {
		closeIndex()
		fatal("list accounts: %v", err)
	}
	if len(accts) == 0 {
		fmt.Println("No accounts recorded.")
		return
	}
	for _, a := range accts {
		label := ""
		if a.Label != "" {
			label = "  [" + a.Label + "]"
		}
		fmt.Printf("%-24s  %s%s\n", a.Path, a.Address, label)
	}
}

func cmdWalletDerive(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("wallet derive", flag.ExitOnError)
	name := fs.String("wallet", "", "Wallet name")
	path := fs.String("path", "", "Derivation path (m/...)")
	label := fs.String("label", "", "Optional account label")
	fs.Parse(args)

	if *name == "" || *path == "" {
		fatal("Usage: hdwallet wallet derive --wallet <name> --path <path> [--label <label>]")
	}
	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("%v", err)
	}

	svc, closeIndex := openService(cfg)
	defer closeIndex()

	acct, err := svc.DeriveAccount(*name, password, *path, *label)
	if err != nil {
		closeIndex()
		fatal("derive account: %v", err)
	}
	fmt.Printf("Path:    %s\n", acct.Path)
	fmt.Printf("Address: %s (%s)\n", acct.Address, acct.Format)
	fmt.Printf("XPub:    %s\n", acct.XPub)
}

func cmdWalletNext(cfg *config.Config, args []string) {
	coin, account, change := bip44Branch(cfg.Wallet.DefaultPath)

	fs := flag.NewFlagSet("wallet next", flag.ExitOnError)
	name := fs.String("wallet", "", "Wallet name")
	coinFlag := fs.Uint("coin", uint(coin), "BIP-44 coin type")
	accountFlag := fs.Uint("account", uint(account), "BIP-44 account")
	internal := fs.Bool("change", change == hdpath.ChangeInternal, "Use the internal (change) branch")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: hdwallet wallet next --wallet <name> [--coin N] [--account N] [--change]")
	}
	if *coinFlag > uint(hdpath.MaxIndex) || *accountFlag > uint(hdpath.MaxIndex) {
		fatal("%v", hdpath.ErrIndexOverflow)
	}
	branch := hdpath.ChangeExternal
	if *internal {
		branch = hdpath.ChangeInternal
	}
	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("%v", err)
	}

	svc, closeIndex := openService(cfg)
	defer closeIndex()

	acct, err := svc.NextAddress(*name, password, uint32(*coinFlag), uint32(*accountFlag), branch)
	if err != nil {
		closeIndex()
		fatal("next address: %v", err)
	}
	fmt.Printf("%s  %s\n", acct.Path, acct.Address)
}

func cmdWalletWatch(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("wallet watch", flag.ExitOnError)
	xkey := fs.String("xkey", "", "Extended public (or private) key")
	path := fs.String("path", "M/0/0", "Relative normal path")
	format := fs.String("format", cfg.Wallet.AddressFormat, "Address format")
	fs.Parse(args)

	if *xkey == "" {
		fatal("Usage: hdwallet wallet watch --xkey <xpub> [--path M/0/0]")
	}
	svc, closeIndex := openService(cfg)
	defer closeIndex()

	acct, err := svc.WatchOnly(*xkey, *path, *format)
	if err != nil {
		closeIndex()
		fatal("watch: %v", err)
	}
	fmt.Printf("%s  %s\n", acct.Path, acct.Address)
}

func cmdWalletDelete(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("wallet delete", flag.ExitOnError)
	name := fs.String("wallet", "", "Wallet name")
	yes := fs.Bool("yes", false, "Confirm deletion")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: hdwallet wallet delete --wallet <name> --yes")
	}
	if !*yes {
		fmt.Fprintf(os.Stderr, "Deleting %q removes its encrypted seed. Re-run with --yes to confirm.\n", *name)
		os.Exit(1)
	}

	svc, closeIndex := openService(cfg)
	defer closeIndex()

	if err := svc.Delete(*name); err != nil {
		closeIndex()
		fatal("delete wallet: %v", err)
	}
	fmt.Printf("Wallet %q deleted.\n", *name)
}

// bip44Branch extracts coin type, account and change from a
// m/44'/coin'/account'/change path. Anything else yields the Ethereum
// external branch of account 0.
func bip44Branch(path string) (coin, account, change uint32) {
	coin, account, change = hdpath.CoinTypeEthereum, 0, hdpath.ChangeExternal

	p, err := hdpath.Parse(path)
	if err != nil || len(p.Steps) != 4 {
		return
	}
	s := p.Steps
	if s[0] != hdpath.Hardened(hdpath.PurposeBIP44) || !s[1].Hardened || !s[2].Hardened || s[3].Hardened {
		return
	}
	return s[1].Index, s[2].Index, s[3].Index
}
