package ledger

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// State is a plain, serializable copy of everything a Ledger holds.
// Record slices are sorted so equal ledgers produce equal encodings.
type State struct {
	Supply           uint64
	Treasury         Address
	TrustedForwarder Address
	LockDurationSecs int64
	Paused           bool
	Decimals         uint8
	Domain           Domain

	Balances   []BalanceRecord
	Locks      []LockRecord
	Allowances []AllowanceRecord
	Nonces     []NonceRecord
	Roles      []RoleRecord
}

// BalanceRecord is one holder's balance.
type BalanceRecord struct {
	Holder Address
	Amount uint64
}

// LockRecord is one holder's bucket set, ordered by release.
type LockRecord struct {
	Holder  Address
	Buckets []LockBucket
}

// AllowanceRecord is one owner/spender allowance.
type AllowanceRecord struct {
	Owner   Address
	Spender Address
	Amount  uint64
}

// NonceRecord is the next permit nonce of one owner.
type NonceRecord struct {
	Owner Address
	Nonce uint64
}

// RoleRecord is the membership of one role.
type RoleRecord struct {
	Role    Role
	Members []Address
}

// Snapshot copies the ledger state. Pending events are not included.
func (l *Ledger) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := State{
		Supply:           l.balances.supply,
		Treasury:         l.treasury,
		TrustedForwarder: l.forwarder,
		LockDurationSecs: l.locks.duration,
		Paused:           l.paused,
		Decimals:         l.decimals,
		Domain:           l.domain,
	}
	for _, h := range l.balances.holders() {
		s.Balances = append(s.Balances, BalanceRecord{Holder: h, Amount: l.balances.balanceOf(h)})
	}
	for _, h := range l.locks.Holders() {
		s.Locks = append(s.Locks, LockRecord{Holder: h, Buckets: l.locks.ListBuckets(h)})
	}
	for owner, spenders := range l.allowances {
		for spender, amt := range spenders {
			s.Allowances = append(s.Allowances, AllowanceRecord{Owner: owner, Spender: spender, Amount: amt})
		}
	}
	sort.Slice(s.Allowances, func(i, j int) bool {
		a, b := s.Allowances[i], s.Allowances[j]
		if c := a.Owner.Compare(b.Owner); c != 0 {
			return c < 0
		}
		return a.Spender.Compare(b.Spender) < 0
	})
	for owner, n := range l.nonces {
		s.Nonces = append(s.Nonces, NonceRecord{Owner: owner, Nonce: n})
	}
	sort.Slice(s.Nonces, func(i, j int) bool { return s.Nonces[i].Owner.Compare(s.Nonces[j].Owner) < 0 })
	for _, r := range AllRoles {
		if m := l.roles.Members(r); len(m) > 0 {
			s.Roles = append(s.Roles, RoleRecord{Role: r, Members: m})
		}
	}
	return s
}

// Restore rebuilds a ledger from a snapshot. It rejects states whose
// balances do not sum to supply or whose locks exceed a holder's balance.
func Restore(s State, opts ...Option) (*Ledger, error) {
	if s.LockDurationSecs < 1 {
		return nil, fmt.Errorf("%w: lock duration %ds", ErrCorruptState, s.LockDurationSecs)
	}
	l, err := newLedger(time.Duration(s.LockDurationSecs)*time.Second, s.Decimals, s.Domain, opts)
	if err != nil {
		return nil, err
	}
	if err := checkRecipient(s.Treasury); err != nil {
		return nil, fmt.Errorf("%w: treasury: %w", ErrCorruptState, err)
	}
	l.treasury = s.Treasury
	l.paused = s.Paused
	if !s.TrustedForwarder.IsZero() {
		l.forwarder = s.TrustedForwarder
	}

	var sum uint64
	for _, b := range s.Balances {
		if b.Holder.IsZero() || b.Holder == BurnSink {
			return nil, fmt.Errorf("%w: balance held by %s", ErrCorruptState, b.Holder)
		}
		if _, dup := l.balances.balances[b.Holder]; dup {
			return nil, fmt.Errorf("%w: duplicate balance for %s", ErrCorruptState, b.Holder)
		}
		if b.Amount > math.MaxUint64-sum {
			return nil, fmt.Errorf("%w: balances overflow", ErrCorruptState)
		}
		sum += b.Amount
		l.balances.add(b.Holder, b.Amount)
	}
	if sum != s.Supply {
		return nil, fmt.Errorf("%w: balances sum to %d, supply is %d", ErrCorruptState, sum, s.Supply)
	}
	l.balances.supply = s.Supply

	lockHolders := make(map[Address]bool, len(s.Locks))
	for _, rec := range s.Locks {
		if lockHolders[rec.Holder] {
			return nil, fmt.Errorf("%w: duplicate lock record for %s", ErrCorruptState, rec.Holder)
		}
		lockHolders[rec.Holder] = true
		var total uint64
		seen := make(map[int64]bool, len(rec.Buckets))
		for _, b := range rec.Buckets {
			if seen[b.Release] {
				return nil, fmt.Errorf("%w: %s has two buckets releasing at %d", ErrCorruptState, rec.Holder, b.Release)
			}
			seen[b.Release] = true
			if b.Amount > math.MaxUint64-total {
				return nil, fmt.Errorf("%w: locks overflow for %s", ErrCorruptState, rec.Holder)
			}
			total += b.Amount
		}
		if total > l.balances.balanceOf(rec.Holder) {
			return nil, fmt.Errorf("%w: %s locks %d but holds %d", ErrCorruptState, rec.Holder, total, l.balances.balanceOf(rec.Holder))
		}
		l.locks.restore(rec.Holder, rec.Buckets)
	}

	for _, a := range s.Allowances {
		l.setAllowance(a.Owner, a.Spender, a.Amount)
	}
	for _, n := range s.Nonces {
		if n.Nonce > 0 {
			l.nonces[n.Owner] = n.Nonce
		}
	}
	for _, rec := range s.Roles {
		if !rec.Role.Valid() {
			return nil, fmt.Errorf("%w: %w: %d", ErrCorruptState, ErrUnknownRole, uint8(rec.Role))
		}
		for _, m := range rec.Members {
			l.roles.grant(rec.Role, m)
		}
	}
	return l, nil
}
