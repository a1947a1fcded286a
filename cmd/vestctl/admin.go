package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/bitfsorg/libvest-go/config"
	"github.com/bitfsorg/libvest-go/ledger"
	"github.com/bitfsorg/libvest-go/store"
)

func unixUTC(sec int64) string {
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}

func (a *app) initCommand() *Command {
	var deployer, treasury, supply, forwarder, name, network string
	var duration time.Duration
	var decimals uint8
	return &Command{
		Name:    "init",
		Summary: "Write the configuration and create the ledger at genesis.",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("init")
			fs.StringVar(&deployer, "deployer", "", "address receiving every role and the initial supply")
			fs.StringVar(&treasury, "treasury", "", "treasury address")
			fs.StringVar(&supply, "supply", "", "initial supply in whole tokens")
			fs.StringVar(&forwarder, "trusted-forwarder", "", "meta-transaction forwarder address")
			fs.StringVar(&name, "name", "", "token name")
			fs.StringVar(&network, "network", "", "mainnet, testnet or regtest")
			fs.DurationVar(&duration, "lock-duration", 0, "lock duration for new deposits")
			fs.Uint8Var(&decimals, "decimals", 0, "display decimals")
			return fs
		},
		Run: func(args []string) error {
			if err := a.loadConfig(true); err != nil {
				return err
			}
			cfg := a.cfg
			for _, o := range []struct {
				dst *string
				v   string
			}{
				{&cfg.Deployer, deployer},
				{&cfg.Treasury, treasury},
				{&cfg.InitialSupply, supply},
				{&cfg.TrustedForwarder, forwarder},
				{&cfg.Token.Name, name},
				{&cfg.Network, network},
			} {
				if o.v != "" {
					*o.dst = o.v
				}
			}
			if duration != 0 {
				cfg.LockDuration = duration
			}
			if decimals != 0 {
				cfg.Token.Decimals = decimals
			}
			if err := config.ValidateConfig(cfg); err != nil {
				return err
			}
			g, err := cfg.Genesis()
			if err != nil {
				return err
			}
			fwd, err := cfg.Forwarder()
			if err != nil {
				return err
			}
			a.cfg = cfg

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			if _, err := st.LoadState(); !errors.Is(err, store.ErrStateNotFound) {
				if err == nil {
					return fmt.Errorf("ledger already initialized at %s", st.Path())
				}
				return err
			}

			opts := append(a.ledgerOptions(), ledger.WithTrustedForwarder(fwd))
			l, err := ledger.New(g, opts...)
			if err != nil {
				return err
			}
			if err := config.SaveConfig(a.configFile(), cfg); err != nil {
				return err
			}
			if err := a.commit(st, l); err != nil {
				return err
			}
			a.entry().WithField("store", st.Path()).Info("ledger initialized")
			return nil
		},
	}
}

// roleCommand builds grant or revoke.
func (a *app) roleCommand(name, summary string) *Command {
	var caller, role, account string
	return &Command{
		Name:    name,
		Summary: summary,
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet(name)
			fs.StringVar(&caller, "caller", "", "admin")
			fs.StringVar(&role, "role", "", "ADMIN, LOCK_EXEMPT, SPENDER, UPGRADER, PAUSER or MINTER")
			fs.StringVar(&account, "account", "", "account")
			return fs
		},
		Run: func(args []string) error {
			if err := required("role", role); err != nil {
				return err
			}
			r, err := ledger.ParseRole(role)
			if err != nil {
				return err
			}
			return a.mutate(func(l *ledger.Ledger) error {
				addrs, err := a.addresses("caller", caller, "account", account)
				if err != nil {
					return err
				}
				if name == "grant" {
					return l.GrantRole(addrs[0], r, addrs[1])
				}
				return l.RevokeRole(addrs[0], r, addrs[1])
			})
		},
	}
}

func (a *app) renounceCommand() *Command {
	var caller, role string
	return &Command{
		Name:    "renounce",
		Summary: "Give up one of the caller's own roles.",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("renounce")
			fs.StringVar(&caller, "caller", "", "account giving up the role")
			fs.StringVar(&role, "role", "", "role name")
			return fs
		},
		Run: func(args []string) error {
			if err := required("role", role); err != nil {
				return err
			}
			r, err := ledger.ParseRole(role)
			if err != nil {
				return err
			}
			return a.mutate(func(l *ledger.Ledger) error {
				addrs, err := a.addresses("caller", caller)
				if err != nil {
					return err
				}
				return l.RenounceRole(addrs[0], r)
			})
		},
	}
}

func (a *app) setTreasuryCommand() *Command {
	var caller, treasury string
	return &Command{
		Name:    "set-treasury",
		Summary: "Move the treasury to a new address (admin only).",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("set-treasury")
			fs.StringVar(&caller, "caller", "", "admin")
			fs.StringVar(&treasury, "treasury", "", "new treasury")
			return fs
		},
		Run: func(args []string) error {
			return a.mutate(func(l *ledger.Ledger) error {
				addrs, err := a.addresses("caller", caller, "treasury", treasury)
				if err != nil {
					return err
				}
				return l.SetTreasury(addrs[0], addrs[1])
			})
		},
	}
}

func (a *app) setLockDurationCommand() *Command {
	var caller string
	var duration time.Duration
	return &Command{
		Name:    "set-lock-duration",
		Summary: "Change the lock duration for future deposits (admin only).",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("set-lock-duration")
			fs.StringVar(&caller, "caller", "", "admin")
			fs.DurationVar(&duration, "duration", 0, "new lock duration, e.g. 720h")
			return fs
		},
		Run: func(args []string) error {
			if duration == 0 {
				return usageErrorf("--duration is required")
			}
			return a.mutate(func(l *ledger.Ledger) error {
				addrs, err := a.addresses("caller", caller)
				if err != nil {
					return err
				}
				return l.SetLockDuration(addrs[0], duration)
			})
		},
	}
}

// pauseCommand builds pause or unpause.
func (a *app) pauseCommand(name, summary string) *Command {
	var caller string
	return &Command{
		Name:    name,
		Summary: summary,
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet(name)
			fs.StringVar(&caller, "caller", "", "pauser")
			return fs
		},
		Run: func(args []string) error {
			return a.mutate(func(l *ledger.Ledger) error {
				addrs, err := a.addresses("caller", caller)
				if err != nil {
					return err
				}
				if name == "pause" {
					return l.Pause(addrs[0])
				}
				return l.Unpause(addrs[0])
			})
		},
	}
}
