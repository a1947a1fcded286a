package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/bitfsorg/libvest-go/ledger"
)

func (a *app) infoCommand() *Command {
	return &Command{
		Name:    "info",
		Summary: "Show supply, treasury, lock duration and pause state.",
		Run: func(args []string) error {
			return a.view(func(l *ledger.Ledger) error {
				d := l.Domain()
				a.printAmount(l, "supply", l.TotalSupply())
				fmt.Fprintf(a.stdout, "%-10s %s\n", "treasury:", l.Treasury())
				fmt.Fprintf(a.stdout, "%-10s %s\n", "lock:", l.LockDuration())
				fmt.Fprintf(a.stdout, "%-10s %t\n", "paused:", l.Paused())
				fmt.Fprintf(a.stdout, "%-10s %d\n", "decimals:", l.Decimals())
				fmt.Fprintf(a.stdout, "%-10s %s v%s chain %d at %s\n", "domain:", d.Name, d.Version, d.ChainID, d.VerifyingContract)
				if fwd := l.TrustedForwarder(); !fwd.IsZero() {
					fmt.Fprintf(a.stdout, "%-10s %s\n", "forwarder:", fwd)
				}
				return nil
			})
		},
	}
}

func (a *app) balanceCommand() *Command {
	return &Command{
		Name:    "balance",
		Summary: "Show a holder's total, locked and unlocked balance.",
		Usage:   "vestctl balance <recipient>",
		Run: func(args []string) error {
			if len(args) != 1 {
				return usageErrorf("balance takes exactly one recipient")
			}
			return a.view(func(l *ledger.Ledger) error {
				holder, err := a.address(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "%-10s %s\n", "holder:", holder)
				a.printAmount(l, "balance", l.BalanceOf(holder))
				a.printAmount(l, "locked", l.LockedAmount(holder))
				a.printAmount(l, "unlocked", l.UnlockedBalanceOf(holder))
				return nil
			})
		},
	}
}

func (a *app) locksCommand() *Command {
	return &Command{
		Name:    "locks",
		Summary: "List a holder's lock buckets.",
		Usage:   "vestctl locks <recipient>",
		Run: func(args []string) error {
			if len(args) != 1 {
				return usageErrorf("locks takes exactly one recipient")
			}
			return a.view(func(l *ledger.Ledger) error {
				holder, err := a.address(args[0])
				if err != nil {
					return err
				}
				now := a.now().Unix()
				for _, b := range l.LocksOf(holder) {
					state := "locked"
					if !b.Locked(now) {
						state = "released"
					}
					fmt.Fprintf(a.stdout, "%s  %s  %s\n",
						ledger.FormatAmount(b.Amount, l.Decimals()), unixUTC(b.Release), state)
				}
				return nil
			})
		},
	}
}

func (a *app) rolesCommand() *Command {
	return &Command{
		Name:    "roles",
		Summary: "List the roles an account holds.",
		Usage:   "vestctl roles <recipient>",
		Run: func(args []string) error {
			if len(args) != 1 {
				return usageErrorf("roles takes exactly one recipient")
			}
			return a.view(func(l *ledger.Ledger) error {
				account, err := a.address(args[0])
				if err != nil {
					return err
				}
				for _, r := range l.RolesOf(account) {
					fmt.Fprintln(a.stdout, r)
				}
				return nil
			})
		},
	}
}

func (a *app) allowanceCommand() *Command {
	var owner, spender string
	return &Command{
		Name:    "allowance",
		Summary: "Show how much a spender may draw from an owner, and the owner's permit nonce.",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("allowance")
			fs.StringVar(&owner, "owner", "", "owner recipient")
			fs.StringVar(&spender, "spender", "", "spender recipient")
			return fs
		},
		Run: func(args []string) error {
			return a.view(func(l *ledger.Ledger) error {
				addrs, err := a.addresses("owner", owner, "spender", spender)
				if err != nil {
					return err
				}
				v := l.Allowance(addrs[0], addrs[1])
				if v == ledger.InfiniteAllowance {
					fmt.Fprintf(a.stdout, "%-10s max\n", "allowance:")
				} else {
					a.printAmount(l, "allowance", v)
				}
				fmt.Fprintf(a.stdout, "%-10s %d\n", "nonce:", l.Nonces(addrs[0]))
				return nil
			})
		},
	}
}

func (a *app) transferCommand() *Command {
	var from, to, amt, relayer string
	return &Command{
		Name:    "transfer",
		Summary: "Move unlocked value between holders.",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("transfer")
			fs.StringVar(&from, "from", "", "sending holder")
			fs.StringVar(&to, "to", "", "recipient")
			fs.StringVar(&amt, "amount", "", "amount in whole tokens")
			fs.StringVar(&relayer, "relayer", "", "forwarder relaying on behalf of --from")
			return fs
		},
		Run: func(args []string) error {
			return a.mutate(func(l *ledger.Ledger) error {
				addrs, err := a.addresses("from", from, "to", to)
				if err != nil {
					return err
				}
				v, err := amount(l, amt, false)
				if err != nil {
					return err
				}
				sender, err := a.sender(l, addrs[0], relayer)
				if err != nil {
					return err
				}
				return l.Transfer(sender, addrs[1], v)
			})
		},
	}
}

// sender applies the trusted-forwarder rule when a relayer is named: the
// claimed sender counts only if the relayer is the configured forwarder.
func (a *app) sender(l *ledger.Ledger, claimed ledger.Address, relayer string) (ledger.Address, error) {
	if relayer == "" {
		return claimed, nil
	}
	r, err := a.address(relayer)
	if err != nil {
		return claimed, fmt.Errorf("--relayer: %w", err)
	}
	sender := l.MsgSender(r, claimed)
	if sender != claimed {
		a.entry().WithField("relayer", r.String()).Warn("relayer is not the trusted forwarder, acting as relayer")
	}
	return sender, nil
}

func (a *app) approveCommand() *Command {
	var owner, spender, amt string
	return &Command{
		Name:    "approve",
		Summary: "Set a spender's allowance (\"max\" for unlimited).",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("approve")
			fs.StringVar(&owner, "owner", "", "owner recipient")
			fs.StringVar(&spender, "spender", "", "spender recipient")
			fs.StringVar(&amt, "amount", "", "allowance in whole tokens, or max")
			return fs
		},
		Run: func(args []string) error {
			return a.mutate(func(l *ledger.Ledger) error {
				addrs, err := a.addresses("owner", owner, "spender", spender)
				if err != nil {
					return err
				}
				v, err := amount(l, amt, true)
				if err != nil {
					return err
				}
				return l.Approve(addrs[0], addrs[1], v)
			})
		},
	}
}

func (a *app) transferFromCommand() *Command {
	var spender, from, to, amt string
	return &Command{
		Name:    "transfer-from",
		Summary: "Move value on an owner's behalf against an allowance.",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("transfer-from")
			fs.StringVar(&spender, "spender", "", "spender drawing the allowance")
			fs.StringVar(&from, "from", "", "owner")
			fs.StringVar(&to, "to", "", "recipient")
			fs.StringVar(&amt, "amount", "", "amount in whole tokens")
			return fs
		},
		Run: func(args []string) error {
			return a.mutate(func(l *ledger.Ledger) error {
				addrs, err := a.addresses("spender", spender, "from", from, "to", to)
				if err != nil {
					return err
				}
				v, err := amount(l, amt, false)
				if err != nil {
					return err
				}
				return l.TransferFrom(addrs[0], addrs[1], addrs[2], v)
			})
		},
	}
}

func (a *app) burnCommand() *Command {
	var holder, amt string
	return &Command{
		Name:    "burn",
		Summary: "Destroy unlocked value.",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("burn")
			fs.StringVar(&holder, "holder", "", "holder burning their own value")
			fs.StringVar(&amt, "amount", "", "amount in whole tokens")
			return fs
		},
		Run: func(args []string) error {
			return a.mutate(func(l *ledger.Ledger) error {
				addrs, err := a.addresses("holder", holder)
				if err != nil {
					return err
				}
				v, err := amount(l, amt, false)
				if err != nil {
					return err
				}
				return l.Burn(addrs[0], v)
			})
		},
	}
}

func (a *app) burnFromCommand() *Command {
	var spender, holder, amt string
	return &Command{
		Name:    "burn-from",
		Summary: "Destroy a holder's value against an allowance.",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("burn-from")
			fs.StringVar(&spender, "spender", "", "spender drawing the allowance")
			fs.StringVar(&holder, "holder", "", "holder whose value is burned")
			fs.StringVar(&amt, "amount", "", "amount in whole tokens")
			return fs
		},
		Run: func(args []string) error {
			return a.mutate(func(l *ledger.Ledger) error {
				addrs, err := a.addresses("spender", spender, "holder", holder)
				if err != nil {
					return err
				}
				v, err := amount(l, amt, false)
				if err != nil {
					return err
				}
				return l.BurnFrom(addrs[0], addrs[1], v)
			})
		},
	}
}

func (a *app) mintCommand() *Command {
	var caller, to, amt string
	return &Command{
		Name:    "mint",
		Summary: "Create new value (minter only).",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("mint")
			fs.StringVar(&caller, "caller", "", "minter")
			fs.StringVar(&to, "to", "", "recipient")
			fs.StringVar(&amt, "amount", "", "amount in whole tokens")
			return fs
		},
		Run: func(args []string) error {
			return a.mutate(func(l *ledger.Ledger) error {
				addrs, err := a.addresses("caller", caller, "to", to)
				if err != nil {
					return err
				}
				v, err := amount(l, amt, false)
				if err != nil {
					return err
				}
				return l.Mint(addrs[0], addrs[1], v)
			})
		},
	}
}

func (a *app) spendCommand() *Command {
	var caller, amt string
	return &Command{
		Name:    "spend",
		Summary: "Retire the caller's own value, half burned and half to the treasury (spender only).",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("spend")
			fs.StringVar(&caller, "caller", "", "spender spending their own balance")
			fs.StringVar(&amt, "amount", "", "amount in whole tokens")
			return fs
		},
		Run: func(args []string) error {
			return a.mutate(func(l *ledger.Ledger) error {
				addrs, err := a.addresses("caller", caller)
				if err != nil {
					return err
				}
				v, err := amount(l, amt, false)
				if err != nil {
					return err
				}
				return l.SpendOwnLocked(addrs[0], v)
			})
		},
	}
}

func (a *app) bypassCommand() *Command {
	var caller, holder, to, amt string
	return &Command{
		Name:    "bypass",
		Summary: "Move a holder's locked value to the treasury or burn sink (spender only).",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("bypass")
			fs.StringVar(&caller, "caller", "", "spender")
			fs.StringVar(&holder, "holder", "", "holder whose value moves")
			fs.StringVar(&to, "to", "", "treasury, burn, or an address")
			fs.StringVar(&amt, "amount", "", "amount in whole tokens")
			return fs
		},
		Run: func(args []string) error {
			return a.mutate(func(l *ledger.Ledger) error {
				addrs, err := a.addresses("caller", caller, "holder", holder)
				if err != nil {
					return err
				}
				var dest ledger.Address
				switch to {
				case "":
					return usageErrorf("--to is required")
				case "treasury":
					dest = l.Treasury()
				case "burn":
					dest = ledger.BurnSink
				default:
					if dest, err = a.address(to); err != nil {
						return fmt.Errorf("--to: %w", err)
					}
				}
				v, err := amount(l, amt, false)
				if err != nil {
					return err
				}
				return l.BypassTransferTo(addrs[0], addrs[1], dest, v)
			})
		},
	}
}

// batchFile is the YAML document distribute reads.
type batchFile struct {
	Payouts []struct {
		To     string `yaml:"to"`
		Amount string `yaml:"amount"`
	} `yaml:"payouts"`
}

func (a *app) distributeCommand() *Command {
	var from, file string
	return &Command{
		Name:    "distribute",
		Summary: "Send a batch of payouts from one holder; all or nothing.",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("distribute")
			fs.StringVar(&from, "from", "", "sending holder")
			fs.StringVar(&file, "file", "", "YAML batch file with a payouts list")
			return fs
		},
		Run: func(args []string) error {
			if err := required("file", file); err != nil {
				return err
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			var batch batchFile
			if err := yaml.Unmarshal(data, &batch); err != nil {
				return fmt.Errorf("parse %s: %w", file, err)
			}
			if len(batch.Payouts) == 0 {
				return usageErrorf("%s has no payouts", file)
			}

			return a.mutate(func(l *ledger.Ledger) error {
				addrs, err := a.addresses("from", from)
				if err != nil {
					return err
				}
				payouts := make([]ledger.Payout, len(batch.Payouts))
				for i, p := range batch.Payouts {
					to, err := a.address(p.To)
					if err != nil {
						return fmt.Errorf("payout %d (%s): %w", i, strings.TrimSpace(p.To), err)
					}
					v, err := ledger.ParseAmount(p.Amount, l.Decimals())
					if err != nil {
						return fmt.Errorf("payout %d: %w", i, err)
					}
					payouts[i] = ledger.Payout{To: to, Amount: v}
				}
				return l.Distribute(addrs[0], payouts)
			})
		},
	}
}

func (a *app) eventsCommand() *Command {
	var after uint64
	var limit int
	return &Command{
		Name:    "events",
		Summary: "Print the event journal.",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("events")
			fs.Uint64Var(&after, "after", 0, "only events with a higher sequence number")
			fs.IntVar(&limit, "limit", 0, "maximum number of events (0 for all)")
			return fs
		},
		Run: func(args []string) error {
			if err := a.loadConfig(false); err != nil {
				return err
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			recs, err := st.ListEvents(after, limit)
			if err != nil {
				return err
			}
			for _, r := range recs {
				fmt.Fprintf(a.stdout, "%d %s %s\n", r.Seq, unixUTC(r.Event.Time), r.Event)
			}
			return nil
		},
	}
}
