package main

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/bitfsorg/libvest-go/wallet"
)

const defaultPasswordEnv = "VEST_WALLET_PASSWORD"

// password reads the wallet password from the named environment variable.
func (a *app) password(envName string) (string, error) {
	pw := a.getenv(envName)
	if pw == "" {
		return "", usageErrorf("set %s to the wallet password", envName)
	}
	return pw, nil
}

func (a *app) walletCommand() *Command {
	return &Command{
		Name:    "wallet",
		Summary: "Manage the HD wallet holding operator and holder keys.",
		Subcommands: []*Command{
			a.walletNewCommand(),
			a.walletAddCommand(),
			a.walletAddressCommand(),
			a.walletListCommand(),
		},
	}
}

func (a *app) walletNewCommand() *Command {
	var words int
	var mnemonic, passwordEnv string
	return &Command{
		Name:    "new",
		Summary: "Create an encrypted wallet and print its recovery phrase.",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("new")
			fs.IntVar(&words, "words", 12, "recovery phrase length, 12 or 24")
			fs.StringVar(&mnemonic, "mnemonic", "", "restore from this phrase instead of generating one")
			fs.StringVar(&passwordEnv, "password-env", defaultPasswordEnv, "environment variable holding the password")
			return fs
		},
		Run: func(args []string) error {
			if err := a.loadConfig(true); err != nil {
				return err
			}
			pw, err := a.password(passwordEnv)
			if err != nil {
				return err
			}
			net, err := wallet.GetNetwork(a.cfg.Network)
			if err != nil {
				return err
			}

			generated := mnemonic == ""
			if generated {
				if mnemonic, err = wallet.NewRecoveryPhrase(words); err != nil {
					if errors.Is(err, wallet.ErrInvalidWordCount) {
						return usageErrorf("--words must be 12 or 24")
					}
					return err
				}
			}
			seed, err := wallet.SeedFromPhrase(mnemonic, "")
			if err != nil {
				return err
			}
			if _, err := wallet.Create(a.cfg.WalletPath(), seed, pw, net); err != nil {
				return err
			}
			if generated {
				fmt.Fprintf(a.stdout, "%s\n", mnemonic)
			}
			a.entry().WithFields(logrus.Fields{"dir": a.cfg.WalletPath(), "network": net.Name}).Info("wallet created")
			return nil
		},
	}
}

func (a *app) walletAddCommand() *Command {
	var name, account, passwordEnv string
	return &Command{
		Name:    "add",
		Summary: "Derive the next key for an account and label it.",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("add")
			fs.StringVar(&name, "name", "", "label for the key")
			fs.StringVar(&account, "account", "holder", "holder or operator")
			fs.StringVar(&passwordEnv, "password-env", defaultPasswordEnv, "environment variable holding the password")
			return fs
		},
		Run: func(args []string) error {
			if err := required("name", name); err != nil {
				return err
			}
			acct, err := wallet.ParseAccount(account)
			if err != nil {
				return err
			}
			if err := a.loadConfig(true); err != nil {
				return err
			}
			pw, err := a.password(passwordEnv)
			if err != nil {
				return err
			}
			w, kr, err := wallet.Open(a.cfg.WalletPath(), pw)
			if err != nil {
				return err
			}
			kp, err := w.NewKey(kr, name, acct)
			if err != nil {
				return err
			}
			if err := wallet.SaveKeyring(a.cfg.WalletPath(), kr); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s %s %s\n", name, kp.Address(), kp.Path)
			return nil
		},
	}
}

func (a *app) walletAddressCommand() *Command {
	return &Command{
		Name:    "address",
		Summary: "Print the address of a labeled key.",
		Usage:   "vestctl wallet address <name>",
		Run: func(args []string) error {
			if len(args) != 1 {
				return usageErrorf("address takes exactly one key name")
			}
			if err := a.loadConfig(true); err != nil {
				return err
			}
			kr, err := wallet.LoadKeyring(a.cfg.WalletPath())
			if err != nil {
				return err
			}
			label, err := kr.Lookup(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, label.Address)
			return nil
		},
	}
}

func (a *app) walletListCommand() *Command {
	return &Command{
		Name:    "list",
		Summary: "List labeled keys.",
		Run: func(args []string) error {
			if err := a.loadConfig(true); err != nil {
				return err
			}
			kr, err := wallet.LoadKeyring(a.cfg.WalletPath())
			if err != nil {
				return err
			}
			for _, l := range kr.Sorted() {
				fmt.Fprintf(a.stdout, "%-16s %-8s %4d  %s\n", l.Name, l.Account, l.Index, l.Address)
			}
			return nil
		},
	}
}
