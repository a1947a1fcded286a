// Package ledger implements a fungible-token ledger with per-deposit vesting
// locks, role-gated privileged operations, and signed delegated approvals.
//
// Every inbound credit to a holder that is not lock-exempt lands in a lock
// bucket released one lock duration after the start of the UTC day it
// arrived. Ordinary transfers and burns may only spend what is unlocked.
// Holders of RoleSpender may move locked value, but only to the treasury or
// the burn sink.
//
// A Ledger is one explicit state value constructed at genesis (New) or from
// a snapshot (Restore). Each exported operation runs under the ledger's
// mutex and either applies completely or returns an error with no effect.
package ledger

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bitfsorg/libvest-go/clock"
)

// DefaultDecimals is the number of fractional decimal places amounts carry
// unless genesis says otherwise.
const DefaultDecimals = 8

// InfiniteAllowance is never decremented by spends.
const InfiniteAllowance uint64 = math.MaxUint64

// Genesis describes the initial ledger state.
type Genesis struct {
	// Deployer receives every role and the initial supply.
	Deployer Address
	// Treasury receives the non-burned half of spends and is lock-exempt.
	Treasury Address
	// InitialSupply is minted to Deployer after exemptions are applied.
	InitialSupply uint64
	// LockDuration is the cooldown for new buckets. Zero means DefaultLockDuration.
	LockDuration time.Duration
	// Decimals is the display precision. Zero means DefaultDecimals.
	Decimals uint8
	// Domain binds delegated approvals to this ledger instance.
	Domain Domain
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the time source. Defaults to clock.Real().
func WithClock(c clock.Clock) Option {
	return func(l *Ledger) { l.clock = c }
}

// WithVerifier sets the signature verifier used by Permit.
func WithVerifier(v Verifier) Option {
	return func(l *Ledger) { l.verifier = v }
}

// WithLogger sets the log entry the ledger writes to.
func WithLogger(log *logrus.Entry) Option {
	return func(l *Ledger) { l.log = log }
}

// WithTrustedForwarder sets the meta-transaction forwarder whose claimed
// senders MsgSender honours.
func WithTrustedForwarder(fwd Address) Option {
	return func(l *Ledger) { l.forwarder = fwd }
}

// Ledger is the token state plus the components that guard it.
type Ledger struct {
	mu sync.Mutex

	clock    clock.Clock
	log      *logrus.Entry
	verifier Verifier

	balances   *balanceStore
	locks      *LockLedger
	roles      *RoleGate
	allowances map[Address]map[Address]uint64
	nonces     map[Address]uint64

	treasury  Address
	forwarder Address
	paused    bool
	decimals  uint8
	domain    Domain

	events []Event
}

func newLedger(duration time.Duration, decimals uint8, domain Domain, opts []Option) (*Ledger, error) {
	if duration == 0 {
		duration = DefaultLockDuration
	}
	if decimals == 0 {
		decimals = DefaultDecimals
	}
	l := &Ledger{
		clock:      clock.Real(),
		log:        logrus.StandardLogger().WithField("package", "ledger"),
		balances:   newBalanceStore(),
		roles:      NewRoleGate(),
		allowances: make(map[Address]map[Address]uint64),
		nonces:     make(map[Address]uint64),
		decimals:   decimals,
		domain:     domain,
	}
	locks, err := NewLockLedger(duration, l.roles.IsLockExempt)
	if err != nil {
		return nil, err
	}
	l.locks = locks
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// New builds a ledger from genesis. Deployer and treasury are made
// lock-exempt before the initial supply is minted, so the deployer's
// starting balance is fully unlocked.
func New(g Genesis, opts ...Option) (*Ledger, error) {
	if err := checkRecipient(g.Deployer); err != nil {
		return nil, fmt.Errorf("deployer: %w", err)
	}
	if err := checkRecipient(g.Treasury); err != nil {
		return nil, fmt.Errorf("treasury: %w", err)
	}

	l, err := newLedger(g.LockDuration, g.Decimals, g.Domain, opts)
	if err != nil {
		return nil, err
	}
	now := l.now()

	for _, r := range AllRoles {
		l.roles.grant(r, g.Deployer)
		l.emit(Event{Kind: EventRoleGranted, Time: now, Account: g.Deployer, Role: r, From: g.Deployer})
	}
	if l.roles.grant(RoleLockExempt, g.Treasury) {
		l.emit(Event{Kind: EventRoleGranted, Time: now, Account: g.Treasury, Role: RoleLockExempt, From: g.Deployer})
	}
	l.treasury = g.Treasury

	if g.InitialSupply > 0 {
		l.balances.supply = g.InitialSupply
		l.applyCredit(g.Deployer, g.InitialSupply, now)
		l.emit(Event{Kind: EventTransfer, Time: now, To: g.Deployer, Amount: g.InitialSupply})
	}

	l.log.WithFields(logrus.Fields{
		"deployer": g.Deployer.String(),
		"treasury": g.Treasury.String(),
		"supply":   g.InitialSupply,
		"duration": l.locks.Duration().String(),
	}).Info("ledger genesis")
	return l, nil
}

func (l *Ledger) now() int64 {
	return l.clock.Now().Unix()
}

func checkRecipient(a Address) error {
	if a.IsZero() {
		return ErrZeroAddress
	}
	if a == BurnSink {
		return fmt.Errorf("%w: burn sink", ErrInvalidRecipient)
	}
	return nil
}

// --- Queries ---

// BalanceOf returns holder's total balance, locked and unlocked.
func (l *Ledger) BalanceOf(holder Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances.balanceOf(holder)
}

// TotalSupply returns the sum of all balances.
func (l *Ledger) TotalSupply() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances.supply
}

// LockedAmount returns what holder cannot yet spend through ordinary paths.
func (l *Ledger) LockedAmount(holder Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.locks.LockedAmount(holder, l.now())
}

// UnlockedBalanceOf returns what holder can spend right now.
func (l *Ledger) UnlockedBalanceOf(holder Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.unlockedBalanceOf(holder, l.now())
}

// LocksOf returns holder's buckets ordered by release time. Buckets already
// released but not yet pruned are included.
func (l *Ledger) LocksOf(holder Address) []LockBucket {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.locks.ListBuckets(holder)
}

// Allowance returns how much spender may still draw from owner.
func (l *Ledger) Allowance(owner, spender Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allowances[owner][spender]
}

// Nonces returns the next delegated-approval nonce for owner.
func (l *Ledger) Nonces(owner Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nonces[owner]
}

// HasRole reports whether account holds role.
func (l *Ledger) HasRole(role Role, account Address) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.roles.HasRole(role, account)
}

// RolesOf lists the roles account holds.
func (l *Ledger) RolesOf(account Address) []Role {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.roles.RolesOf(account)
}

// Members lists the holders of role.
func (l *Ledger) Members(role Role) []Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.roles.Members(role)
}

// Treasury returns the current treasury address.
func (l *Ledger) Treasury() Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.treasury
}

// LockDuration returns the cooldown applied to new buckets.
func (l *Ledger) LockDuration() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.locks.Duration()
}

// Paused reports whether balance changes are suspended.
func (l *Ledger) Paused() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.paused
}

// Decimals returns the display precision of amounts.
func (l *Ledger) Decimals() uint8 {
	return l.decimals
}

// Domain returns the delegated-approval domain.
func (l *Ledger) Domain() Domain {
	return l.domain
}

// --- Administrative operations ---

// GrantRole adds account to role. Admin only.
func (l *Ledger) GrantRole(caller Address, role Role, account Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	log := l.log.WithFields(logrus.Fields{"method": "GrantRole", "caller": caller.String(), "role": role.String(), "account": account.String()})

	if !role.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownRole, uint8(role))
	}
	if err := l.roles.requireRole(RoleAdmin, caller); err != nil {
		log.WithError(err).Warn("rejected role grant")
		return err
	}
	if account.IsZero() {
		return ErrZeroAddress
	}
	if l.roles.grant(role, account) {
		l.emit(Event{Kind: EventRoleGranted, Time: l.now(), Account: account, Role: role, From: caller})
		log.Info("role granted")
	}
	return nil
}

// RevokeRole removes account from role. Admin only; revoking a non-member
// succeeds without effect.
func (l *Ledger) RevokeRole(caller Address, role Role, account Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	log := l.log.WithFields(logrus.Fields{"method": "RevokeRole", "caller": caller.String(), "role": role.String(), "account": account.String()})

	if !role.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownRole, uint8(role))
	}
	if err := l.roles.requireRole(RoleAdmin, caller); err != nil {
		log.WithError(err).Warn("rejected role revoke")
		return err
	}
	if l.roles.revoke(role, account) {
		l.emit(Event{Kind: EventRoleRevoked, Time: l.now(), Account: account, Role: role, From: caller})
		log.Info("role revoked")
	}
	return nil
}

// RenounceRole drops one of caller's own roles.
func (l *Ledger) RenounceRole(caller Address, role Role) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !role.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownRole, uint8(role))
	}
	if l.roles.revoke(role, caller) {
		l.emit(Event{Kind: EventRoleRevoked, Time: l.now(), Account: caller, Role: role, From: caller})
		l.log.WithFields(logrus.Fields{"method": "RenounceRole", "caller": caller.String(), "role": role.String()}).Info("role renounced")
	}
	return nil
}

// SetTreasury points the treasury at a new address and makes it
// lock-exempt. The previous treasury keeps whatever roles it held.
func (l *Ledger) SetTreasury(caller, treasury Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	log := l.log.WithFields(logrus.Fields{"method": "SetTreasury", "caller": caller.String(), "treasury": treasury.String()})

	if err := l.roles.requireRole(RoleAdmin, caller); err != nil {
		log.WithError(err).Warn("rejected treasury change")
		return err
	}
	if err := checkRecipient(treasury); err != nil {
		return err
	}

	now := l.now()
	old := l.treasury
	l.treasury = treasury
	if l.roles.grant(RoleLockExempt, treasury) {
		l.emit(Event{Kind: EventRoleGranted, Time: now, Account: treasury, Role: RoleLockExempt, From: caller})
	}
	l.emit(Event{Kind: EventTreasuryChanged, Time: now, From: old, To: treasury})
	log.WithField("previous", old.String()).Info("treasury changed")
	return nil
}

// SetLockDuration changes the cooldown for buckets created from now on.
func (l *Ledger) SetLockDuration(caller Address, d time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	log := l.log.WithFields(logrus.Fields{"method": "SetLockDuration", "caller": caller.String(), "duration": d.String()})

	if err := l.roles.requireRole(RoleAdmin, caller); err != nil {
		log.WithError(err).Warn("rejected lock duration change")
		return err
	}
	if err := l.locks.SetDuration(d); err != nil {
		return err
	}
	l.emit(Event{Kind: EventLockDurationChanged, Time: l.now(), From: caller, Amount: uint64(l.locks.Duration() / time.Second)})
	log.Info("lock duration changed")
	return nil
}

// Pause suspends every balance change. Pauser only.
func (l *Ledger) Pause(caller Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.roles.requireRole(RolePauser, caller); err != nil {
		l.log.WithFields(logrus.Fields{"method": "Pause", "caller": caller.String()}).WithError(err).Warn("rejected pause")
		return err
	}
	if l.paused {
		return ErrPaused
	}
	l.paused = true
	l.emit(Event{Kind: EventPaused, Time: l.now(), From: caller})
	l.log.WithFields(logrus.Fields{"method": "Pause", "caller": caller.String()}).Info("ledger paused")
	return nil
}

// Unpause resumes balance changes. Pauser only.
func (l *Ledger) Unpause(caller Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.roles.requireRole(RolePauser, caller); err != nil {
		l.log.WithFields(logrus.Fields{"method": "Unpause", "caller": caller.String()}).WithError(err).Warn("rejected unpause")
		return err
	}
	if !l.paused {
		return ErrNotPaused
	}
	l.paused = false
	l.emit(Event{Kind: EventUnpaused, Time: l.now(), From: caller})
	l.log.WithFields(logrus.Fields{"method": "Unpause", "caller": caller.String()}).Info("ledger unpaused")
	return nil
}

// AuthorizeUpgrade checks that caller may approve a new implementation.
// The upgrade mechanics themselves live outside the ledger.
func (l *Ledger) AuthorizeUpgrade(caller Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.roles.requireRole(RoleUpgrader, caller)
}
