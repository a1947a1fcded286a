package ledger

import (
	"fmt"
	"sort"
	"time"
)

// AlignmentWindow is the size of the window inbound credits are bucketed
// by, in seconds. Credits inside one UTC day share a release time.
const AlignmentWindow int64 = 24 * 60 * 60

// DefaultLockDuration is the cooldown applied to new buckets unless
// configured otherwise.
const DefaultLockDuration = 24 * time.Hour

// AlignDay truncates a unix timestamp to the start of its alignment window.
func AlignDay(now int64) int64 {
	rem := now % AlignmentWindow
	if rem < 0 {
		rem += AlignmentWindow
	}
	return now - rem
}

// LockOutcome describes what RecordInbound did to a holder's lock set.
type LockOutcome uint8

const (
	// LockNone means no bucket was touched (zero amount or exempt holder).
	LockNone LockOutcome = iota
	// LockCreated means a new bucket was appended.
	LockCreated
	// LockMerged means the amount was added to an existing same-release bucket.
	LockMerged
)

// LockLedger tracks per-holder lock buckets.
//
// Each holder's set is an unordered slice; removal swaps the last bucket
// into the hole and truncates. Readers that need release order sort a copy.
// At most one bucket exists per release time per holder.
type LockLedger struct {
	sets     map[Address][]LockBucket
	duration int64
	exempt   func(Address) bool
}

// NewLockLedger returns an empty ledger using the given cooldown. exempt
// reports whether a holder is excused from locks; nil means nobody is.
func NewLockLedger(duration time.Duration, exempt func(Address) bool) (*LockLedger, error) {
	secs := int64(duration / time.Second)
	if secs < 1 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidLockDuration, duration)
	}
	if exempt == nil {
		exempt = func(Address) bool { return false }
	}
	return &LockLedger{
		sets:     make(map[Address][]LockBucket),
		duration: secs,
		exempt:   exempt,
	}, nil
}

// Duration returns the cooldown applied to buckets created from now on.
func (l *LockLedger) Duration() time.Duration {
	return time.Duration(l.duration) * time.Second
}

// SetDuration changes the cooldown for future buckets. Existing buckets keep
// their release times.
func (l *LockLedger) SetDuration(d time.Duration) error {
	secs := int64(d / time.Second)
	if secs < 1 {
		return fmt.Errorf("%w: %s", ErrInvalidLockDuration, d)
	}
	l.duration = secs
	return nil
}

// ReleaseFor returns the release time a credit received at now would get.
func (l *LockLedger) ReleaseFor(now int64) int64 {
	return AlignDay(now) + l.duration
}

// RecordInbound locks amount for holder until the aligned release time.
// Buckets merge only on exact release equality, so a duration change in the
// middle of a day starts a separate bucket.
func (l *LockLedger) RecordInbound(holder Address, amount uint64, now int64) (LockBucket, LockOutcome) {
	if amount == 0 || l.exempt(holder) {
		return LockBucket{}, LockNone
	}
	l.PruneReleased(holder, now)

	release := l.ReleaseFor(now)
	set := l.sets[holder]
	for i := range set {
		if set[i].Release == release {
			set[i].Amount += amount
			return set[i], LockMerged
		}
	}
	bucket := LockBucket{Amount: amount, Release: release}
	l.sets[holder] = append(set, bucket)
	return bucket, LockCreated
}

// LockedAmount sums the buckets still locked at now. Released buckets count
// as unlocked whether or not they have been pruned.
func (l *LockLedger) LockedAmount(holder Address, now int64) uint64 {
	var total uint64
	for _, b := range l.sets[holder] {
		if b.Locked(now) {
			total += b.Amount
		}
	}
	return total
}

// ConsumeLocked deducts amount from holder's active buckets, earliest
// release first, and removes any bucket that reaches zero. It returns the
// portions taken from each bucket. Nothing changes on error.
func (l *LockLedger) ConsumeLocked(holder Address, amount uint64, now int64) ([]LockBucket, error) {
	locked := l.LockedAmount(holder, now)
	if amount > locked {
		return nil, fmt.Errorf("%w: want %d, locked %d", ErrInsufficientLockedBalance, amount, locked)
	}
	l.PruneReleased(holder, now)
	if amount == 0 {
		return nil, nil
	}

	set := l.sets[holder]
	order := make([]int, len(set))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return set[order[a]].Release < set[order[b]].Release })

	var taken []LockBucket
	remaining := amount
	for _, idx := range order {
		if remaining == 0 {
			break
		}
		take := min(set[idx].Amount, remaining)
		set[idx].Amount -= take
		remaining -= take
		taken = append(taken, LockBucket{Amount: take, Release: set[idx].Release})
	}

	l.compact(holder, func(b LockBucket) bool { return b.Amount == 0 })
	return taken, nil
}

// PruneReleased drops buckets whose release time has passed and returns how
// many were removed.
func (l *LockLedger) PruneReleased(holder Address, now int64) int {
	return l.compact(holder, func(b LockBucket) bool { return !b.Locked(now) })
}

// ListBuckets returns a copy of holder's buckets ordered by release time.
func (l *LockLedger) ListBuckets(holder Address) []LockBucket {
	set := l.sets[holder]
	out := make([]LockBucket, len(set))
	copy(out, set)
	sort.Slice(out, func(i, j int) bool { return out[i].Release < out[j].Release })
	return out
}

// Holders returns every holder with at least one bucket, in address order.
func (l *LockLedger) Holders() []Address {
	out := make([]Address, 0, len(l.sets))
	for h := range l.sets {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}

// compact swap-removes every bucket matching drop.
func (l *LockLedger) compact(holder Address, drop func(LockBucket) bool) int {
	set, ok := l.sets[holder]
	if !ok {
		return 0
	}
	removed := 0
	for i := 0; i < len(set); {
		if !drop(set[i]) {
			i++
			continue
		}
		last := len(set) - 1
		set[i] = set[last]
		set[last] = LockBucket{}
		set = set[:last]
		removed++
	}
	if len(set) == 0 {
		delete(l.sets, holder)
	} else {
		l.sets[holder] = set
	}
	return removed
}

// restore installs buckets verbatim; used when loading a snapshot.
func (l *LockLedger) restore(holder Address, buckets []LockBucket) {
	if len(buckets) == 0 {
		return
	}
	set := make([]LockBucket, 0, len(buckets))
	for _, b := range buckets {
		if b.Amount > 0 {
			set = append(set, b)
		}
	}
	if len(set) > 0 {
		l.sets[holder] = set
	}
}
