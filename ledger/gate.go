package ledger

import "fmt"

// unlockedBalanceOf is balance minus what is still locked at now.
func (l *Ledger) unlockedBalanceOf(holder Address, now int64) uint64 {
	bal := l.balances.balanceOf(holder)
	locked := l.locks.LockedAmount(holder, now)
	if locked >= bal {
		return 0
	}
	return bal - locked
}

// authorizeDebit is the check every ordinary transfer and burn passes.
func (l *Ledger) authorizeDebit(holder Address, amount uint64, now int64) error {
	if unlocked := l.unlockedBalanceOf(holder, now); amount > unlocked {
		return fmt.Errorf("%w: %s can spend %d, want %d", ErrExceedsUnlocked, holder, unlocked, amount)
	}
	return nil
}

// applyCredit raises holder's balance and locks the amount unless holder is
// exempt. Zero is a no-op.
func (l *Ledger) applyCredit(holder Address, amount uint64, now int64) {
	if amount == 0 {
		return
	}
	l.balances.add(holder, amount)
	bucket, outcome := l.locks.RecordInbound(holder, amount, now)
	switch outcome {
	case LockCreated:
		l.emit(Event{Kind: EventLockCreated, Time: now, To: holder, Amount: amount, Release: bucket.Release})
	case LockMerged:
		l.emit(Event{Kind: EventLockMerged, Time: now, To: holder, Amount: amount, Release: bucket.Release})
	}
}

// applyDebit lowers holder's balance. Outstanding buckets keep their
// amounts; only already-released ones are pruned.
func (l *Ledger) applyDebit(holder Address, amount uint64, now int64) {
	if amount == 0 {
		return
	}
	l.balances.sub(holder, amount)
	l.locks.PruneReleased(holder, now)
}

// consumeLocked draws amount out of holder's active buckets and records
// what was taken.
func (l *Ledger) consumeLocked(holder Address, amount uint64, now int64) error {
	taken, err := l.locks.ConsumeLocked(holder, amount, now)
	if err != nil {
		return err
	}
	for _, b := range taken {
		l.emit(Event{Kind: EventLockConsumed, Time: now, From: holder, Amount: b.Amount, Release: b.Release})
	}
	return nil
}

// move debits from and delivers to `to`. The burn sink destroys the value
// instead of holding it.
func (l *Ledger) move(from, to Address, amount uint64, now int64) {
	l.applyDebit(from, amount, now)
	if to == BurnSink {
		l.balances.supply -= amount
	} else {
		l.applyCredit(to, amount, now)
	}
	l.emit(Event{Kind: EventTransfer, Time: now, From: from, To: to, Amount: amount})
}

func (l *Ledger) checkAllowance(owner, spender Address, amount uint64) error {
	if have := l.allowances[owner][spender]; amount > have {
		return fmt.Errorf("%w: %s may draw %d from %s, want %d", ErrInsufficientAllowance, spender, have, owner, amount)
	}
	return nil
}

// spendAllowance assumes checkAllowance passed.
func (l *Ledger) spendAllowance(owner, spender Address, amount uint64) {
	have := l.allowances[owner][spender]
	if have == InfiniteAllowance || amount == 0 {
		return
	}
	l.setAllowance(owner, spender, have-amount)
}

func (l *Ledger) setAllowance(owner, spender Address, amount uint64) {
	if amount == 0 {
		if m := l.allowances[owner]; m != nil {
			delete(m, spender)
			if len(m) == 0 {
				delete(l.allowances, owner)
			}
		}
		return
	}
	m := l.allowances[owner]
	if m == nil {
		m = make(map[Address]uint64)
		l.allowances[owner] = m
	}
	m[spender] = amount
}

func (l *Ledger) checkNotPaused() error {
	if l.paused {
		return ErrPaused
	}
	return nil
}
