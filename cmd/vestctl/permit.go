package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/bitfsorg/libvest-go/ledger"
	"github.com/bitfsorg/libvest-go/signer"
	"github.com/bitfsorg/libvest-go/wallet"
)

// permitDoc is the portable form of a signed permit. Amount is in base
// units so the document does not depend on display decimals.
type permitDoc struct {
	Owner     ledger.Address `yaml:"owner"`
	Spender   ledger.Address `yaml:"spender"`
	Amount    uint64         `yaml:"amount"`
	Nonce     uint64         `yaml:"nonce"`
	Deadline  int64          `yaml:"deadline"`
	Signature string         `yaml:"signature"`
}

func (a *app) permitCommand() *Command {
	return &Command{
		Name:    "permit",
		Summary: "Sign and submit delegated approvals.",
		Subcommands: []*Command{
			a.permitSignCommand(),
			a.permitSubmitCommand(),
		},
	}
}

func (a *app) permitSignCommand() *Command {
	var key, spender, amt, out, passwordEnv string
	var ttl time.Duration
	return &Command{
		Name:    "sign",
		Summary: "Sign a permit with a wallet key against the ledger's current nonce.",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("sign")
			fs.StringVar(&key, "key", "", "wallet key label of the owner")
			fs.StringVar(&spender, "spender", "", "spender recipient")
			fs.StringVar(&amt, "amount", "", "allowance in whole tokens, or max")
			fs.DurationVar(&ttl, "valid-for", time.Hour, "deadline relative to now")
			fs.StringVar(&out, "out", "", "write the permit here instead of stdout")
			fs.StringVar(&passwordEnv, "password-env", defaultPasswordEnv, "environment variable holding the password")
			return fs
		},
		Run: func(args []string) error {
			if err := required("key", key); err != nil {
				return err
			}
			return a.view(func(l *ledger.Ledger) error {
				pw, err := a.password(passwordEnv)
				if err != nil {
					return err
				}
				w, kr, err := wallet.Open(a.cfg.WalletPath(), pw)
				if err != nil {
					return err
				}
				kp, err := w.Key(kr, key)
				if err != nil {
					return err
				}
				addrs, err := a.addresses("spender", spender)
				if err != nil {
					return err
				}
				v, err := amount(l, amt, true)
				if err != nil {
					return err
				}

				msg := ledger.PermitMessage{
					Owner:    kp.Address(),
					Spender:  addrs[0],
					Value:    v,
					Nonce:    l.Nonces(kp.Address()),
					Deadline: a.now().Add(ttl).Unix(),
				}
				sig, err := signer.SignPermit(kp.PrivateKey, l.Domain(), msg)
				if err != nil {
					return err
				}
				data, err := yaml.Marshal(permitDoc{
					Owner:     msg.Owner,
					Spender:   msg.Spender,
					Amount:    msg.Value,
					Nonce:     msg.Nonce,
					Deadline:  msg.Deadline,
					Signature: hex.EncodeToString(sig),
				})
				if err != nil {
					return err
				}
				if out == "" {
					_, err = a.stdout.Write(data)
					return err
				}
				return os.WriteFile(out, data, 0600)
			})
		},
	}
}

func (a *app) permitSubmitCommand() *Command {
	var file string
	return &Command{
		Name:    "submit",
		Summary: "Apply a signed permit, turning it into an allowance.",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("submit")
			fs.StringVar(&file, "file", "", "permit file written by 'permit sign' (- for stdin)")
			return fs
		},
		Run: func(args []string) error {
			if err := required("file", file); err != nil {
				return err
			}
			var data []byte
			var err error
			if file == "-" {
				data, err = io.ReadAll(a.stdin)
			} else {
				data, err = os.ReadFile(file)
			}
			if err != nil {
				return err
			}
			var doc permitDoc
			if err := yaml.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("parse permit: %w", err)
			}
			sig, err := hex.DecodeString(doc.Signature)
			if err != nil {
				return fmt.Errorf("%w: signature is not hex", ledger.ErrInvalidSignature)
			}

			return a.mutate(func(l *ledger.Ledger) error {
				if n := l.Nonces(doc.Owner); n != doc.Nonce {
					a.entry().WithFields(logrus.Fields{"signed": doc.Nonce, "current": n}).Warn("permit nonce is stale")
				}
				return l.Permit(doc.Owner, doc.Spender, doc.Amount, doc.Deadline, sig)
			})
		},
	}
}
