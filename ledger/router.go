package ledger

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// SplitSpend divides a spend between the burn sink and the treasury. The
// treasury takes the odd unit so the parts always add up to amount.
func SplitSpend(amount uint64) (burn, treasury uint64) {
	burn = amount / 2
	return burn, amount - burn
}

// isBypassDestination reports whether to is one of the two places locked
// value may be sent early.
func (l *Ledger) isBypassDestination(to Address) bool {
	return to == BurnSink || to == l.treasury
}

// SpendOwnLocked retires amount of the caller's own balance, locked or not:
// half is burned and the rest goes to the treasury. Spender role only.
func (l *Ledger) SpendOwnLocked(caller Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	log := l.log.WithFields(logrus.Fields{"method": "SpendOwnLocked", "caller": caller.String(), "amount": amount})

	if err := l.checkNotPaused(); err != nil {
		return err
	}
	if err := l.roles.requireRole(RoleSpender, caller); err != nil {
		log.WithError(err).Warn("rejected spend")
		return err
	}
	if err := l.balances.checkDebit(caller, amount); err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}

	now := l.now()
	excess := l.lockedExcess(caller, amount, now)
	if err := l.consumeLocked(caller, excess, now); err != nil {
		return err
	}

	burn, toTreasury := SplitSpend(amount)
	if burn > 0 {
		l.move(caller, BurnSink, burn, now)
	}
	l.move(caller, l.treasury, toTreasury, now)

	log.WithFields(logrus.Fields{"burned": burn, "treasury": toTreasury, "from_locked": excess}).Info("spent own balance")
	return nil
}

// BypassTransferTo moves holder's value, locked or not, to the treasury or
// the burn sink against an allowance holder granted the caller. Spender
// role only; every other destination is refused.
func (l *Ledger) BypassTransferTo(caller, holder, destination Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkNotPaused(); err != nil {
		return err
	}
	if err := l.roles.requireRole(RoleSpender, caller); err != nil {
		l.log.WithFields(logrus.Fields{"method": "BypassTransferTo", "caller": caller.String()}).WithError(err).Warn("rejected bypass")
		return err
	}
	if !l.isBypassDestination(destination) {
		l.log.WithFields(logrus.Fields{
			"method":      "BypassTransferTo",
			"caller":      caller.String(),
			"destination": destination.String(),
		}).Warn("rejected bypass destination")
		return fmt.Errorf("%w: %s", ErrBypassDestinationNotAllowed, destination)
	}
	return l.bypass(caller, holder, destination, amount, l.now())
}

// bypass assumes the caller holds RoleSpender and destination is allowed.
func (l *Ledger) bypass(caller, holder, destination Address, amount uint64, now int64) error {
	if err := l.checkAllowance(holder, caller, amount); err != nil {
		return err
	}
	if err := l.balances.checkDebit(holder, amount); err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}

	excess := l.lockedExcess(holder, amount, now)
	if err := l.consumeLocked(holder, excess, now); err != nil {
		return err
	}
	l.spendAllowance(holder, caller, amount)
	l.move(holder, destination, amount, now)

	l.log.WithFields(logrus.Fields{
		"method":      "bypass",
		"caller":      caller.String(),
		"holder":      holder.String(),
		"destination": destination.String(),
		"amount":      amount,
		"from_locked": excess,
	}).Info("bypass transfer")
	return nil
}

// lockedExcess is how much of amount the unlocked balance cannot cover.
func (l *Ledger) lockedExcess(holder Address, amount uint64, now int64) uint64 {
	unlocked := l.unlockedBalanceOf(holder, now)
	if amount <= unlocked {
		return 0
	}
	return amount - unlocked
}
