package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/bitfsorg/libvest-go/clock"
	"github.com/bitfsorg/libvest-go/config"
	"github.com/bitfsorg/libvest-go/ledger"
	"github.com/bitfsorg/libvest-go/paymail"
	"github.com/bitfsorg/libvest-go/signer"
	"github.com/bitfsorg/libvest-go/store"
)

// app carries the process-wide state every command shares.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	clock  clock.Clock
	getenv func(string) string

	configPath string
	dataDir    string

	cfg     config.Config
	log     *logrus.Logger
	logFile *os.File

	// resolve overrides recipient resolution in tests.
	resolve func(s string) (ledger.Address, error)
}

// run parses global flags and dispatches the command line.
func (a *app) run(args []string) error {
	global := pflag.NewFlagSet("vestctl", pflag.ContinueOnError)
	global.SetInterspersed(false)
	global.SetOutput(io.Discard)
	global.StringVar(&a.configPath, "config", "", "configuration file (default <data-dir>/config.yaml)")
	global.StringVar(&a.dataDir, "data-dir", "", "data directory (default ~/.vest)")
	if err := global.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			a.root().PrintHelp(a.stderr)
			return nil
		}
		return usageErrorf("%v", err)
	}
	defer a.closeLog()
	return a.root().Execute(global.Args(), a.stderr)
}

func (a *app) root() *Command {
	return &Command{
		Name:    "vestctl",
		Summary: "Operate a vesting token ledger.",
		Usage:   "vestctl [--config path] [--data-dir dir] <command> [flags]",
		Subcommands: []*Command{
			a.initCommand(),
			a.infoCommand(),
			a.balanceCommand(),
			a.locksCommand(),
			a.rolesCommand(),
			a.allowanceCommand(),
			a.transferCommand(),
			a.approveCommand(),
			a.transferFromCommand(),
			a.burnCommand(),
			a.burnFromCommand(),
			a.mintCommand(),
			a.distributeCommand(),
			a.spendCommand(),
			a.bypassCommand(),
			a.roleCommand("grant", "Grant a role (admin only)."),
			a.roleCommand("revoke", "Revoke a role (admin only)."),
			a.renounceCommand(),
			a.setTreasuryCommand(),
			a.setLockDurationCommand(),
			a.pauseCommand("pause", "Halt every transfer (pauser only)."),
			a.pauseCommand("unpause", "Resume transfers (pauser only)."),
			a.eventsCommand(),
			a.walletCommand(),
			a.permitCommand(),
		},
	}
}

// configFile is the configuration path after applying flag defaults.
func (a *app) configFile() string {
	if a.configPath != "" {
		return a.configPath
	}
	dir := a.dataDir
	if dir == "" {
		dir = config.DefaultDataDir()
	}
	return config.ConfigPath(dir)
}

// loadConfig reads and validates the configuration and sets up logging.
// With allowMissing a missing file yields the defaults.
func (a *app) loadConfig(allowMissing bool) error {
	cfg, err := config.LoadConfig(a.configFile())
	if err != nil && !(allowMissing && errors.Is(err, config.ErrConfigNotFound)) {
		if errors.Is(err, config.ErrConfigNotFound) {
			return fmt.Errorf("%w (run 'vestctl init' first)", err)
		}
		return err
	}
	if a.dataDir != "" {
		cfg.DataDir = a.dataDir
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}
	a.cfg = cfg
	return a.setupLogging()
}

// setupLogging logs text to stderr, or JSON to the configured log file.
func (a *app) setupLogging() error {
	log := logrus.New()
	level, err := a.cfg.Level()
	if err != nil {
		return err
	}
	log.SetLevel(level)
	log.SetOutput(a.stderr)
	if a.cfg.LogFile != "" {
		f, err := os.OpenFile(a.cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		log.SetOutput(f)
		log.SetFormatter(&logrus.JSONFormatter{})
		a.logFile = f
	}
	a.log = log
	return nil
}

func (a *app) closeLog() {
	if a.logFile != nil {
		a.logFile.Close()
		a.logFile = nil
	}
}

func (a *app) entry() *logrus.Entry {
	return a.log.WithField("component", "vestctl")
}

func (a *app) ledgerOptions() []ledger.Option {
	return []ledger.Option{
		ledger.WithClock(a.clock),
		ledger.WithVerifier(signer.Verifier{}),
		ledger.WithLogger(a.log.WithField("package", "ledger")),
	}
}

func (a *app) openStore() (*store.BoltStore, error) {
	return store.OpenBoltStore(a.cfg.StorePath())
}

func (a *app) loadLedger(st store.Store) (*ledger.Ledger, error) {
	state, err := st.LoadState()
	if err != nil {
		if errors.Is(err, store.ErrStateNotFound) {
			return nil, fmt.Errorf("%w (run 'vestctl init' first)", err)
		}
		return nil, err
	}
	return ledger.Restore(state, a.ledgerOptions()...)
}

// view runs fn against the stored ledger without saving anything.
func (a *app) view(fn func(l *ledger.Ledger) error) error {
	if err := a.loadConfig(false); err != nil {
		return err
	}
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	l, err := a.loadLedger(st)
	if err != nil {
		return err
	}
	return fn(l)
}

// mutate runs fn against the stored ledger and, if it succeeds, commits
// the new state with the events fn produced. A failed fn leaves the store
// untouched.
func (a *app) mutate(fn func(l *ledger.Ledger) error) error {
	if err := a.loadConfig(false); err != nil {
		return err
	}
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	l, err := a.loadLedger(st)
	if err != nil {
		return err
	}
	if err := fn(l); err != nil {
		return err
	}
	return a.commit(st, l)
}

func (a *app) commit(st store.Store, l *ledger.Ledger) error {
	events := l.DrainEvents()
	if err := st.Commit(l.Snapshot(), events); err != nil {
		return err
	}
	for _, e := range events {
		fmt.Fprintln(a.stdout, e)
	}
	a.entry().WithField("events", len(events)).Debug("committed")
	return nil
}

// address resolves a recipient string: hex address, compressed public key,
// paymail handle, or a domain with a vest= TXT record.
func (a *app) address(s string) (ledger.Address, error) {
	if a.resolve != nil {
		return a.resolve(s)
	}
	return a.resolver().Resolve(s)
}

func (a *app) resolver() *paymail.Resolver {
	return paymail.NewResolver(nil, paymail.NewDNSSECResolver(a.cfg.DNSUpstream), a.entry())
}

// addresses resolves name/value flag pairs in order.
func (a *app) addresses(pairs ...string) ([]ledger.Address, error) {
	out := make([]ledger.Address, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return nil, usageErrorf("--%s is required", pairs[i])
		}
		addr, err := a.address(pairs[i+1])
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", pairs[i], err)
		}
		out = append(out, addr)
	}
	return out, nil
}

// amount parses a decimal amount at the ledger's precision. "max" is the
// infinite allowance when allowMax is set.
func amount(l *ledger.Ledger, s string, allowMax bool) (uint64, error) {
	if s == "" {
		return 0, usageErrorf("--amount is required")
	}
	if allowMax && s == "max" {
		return ledger.InfiniteAllowance, nil
	}
	return ledger.ParseAmount(s, l.Decimals())
}

func (a *app) printAmount(l *ledger.Ledger, label string, v uint64) {
	fmt.Fprintf(a.stdout, "%-10s %s\n", label+":", ledger.FormatAmount(v, l.Decimals()))
}

func (a *app) now() time.Time {
	return a.clock.Now()
}
