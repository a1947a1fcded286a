package ledger

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Payout is one line of a batch distribution.
type Payout struct {
	To     Address
	Amount uint64
}

// Transfer moves unlocked value from one holder to another. Sending to the
// burn sink burns it. A zero amount succeeds without effect.
func (l *Ledger) Transfer(from, to Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if err := l.checkTransfer(from, to, amount, now); err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}
	l.move(from, to, amount, now)
	l.log.WithFields(logrus.Fields{"method": "Transfer", "from": from.String(), "to": to.String(), "amount": amount}).Debug("transfer")
	return nil
}

// TransferFrom moves value from `from` on behalf of spender, consuming the
// allowance. A spender holding RoleSpender that sends to the treasury or
// the burn sink may draw on locked value; every other combination goes
// through the ordinary unlocked-balance check, whatever the allowance.
func (l *Ledger) TransferFrom(spender, from, to Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if err := l.checkNotPaused(); err != nil {
		return err
	}
	if to.IsZero() || from.IsZero() {
		return ErrZeroAddress
	}
	if l.isBypassDestination(to) && l.roles.HasRole(RoleSpender, spender) {
		return l.bypass(spender, from, to, amount, now)
	}
	return l.spendFrom(spender, from, to, amount, now)
}

// Burn destroys unlocked value. Locked value can never be burned by its
// holder.
func (l *Ledger) Burn(holder Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if err := l.checkTransfer(holder, BurnSink, amount, now); err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}
	l.move(holder, BurnSink, amount, now)
	l.log.WithFields(logrus.Fields{"method": "Burn", "holder": holder.String(), "amount": amount}).Debug("burn")
	return nil
}

// BurnFrom destroys holder's value on behalf of spender, consuming the
// allowance. A spender holding RoleSpender may burn locked value.
func (l *Ledger) BurnFrom(spender, holder Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if err := l.checkNotPaused(); err != nil {
		return err
	}
	if holder.IsZero() {
		return ErrZeroAddress
	}
	if l.roles.HasRole(RoleSpender, spender) {
		return l.bypass(spender, holder, BurnSink, amount, now)
	}
	return l.spendFrom(spender, holder, BurnSink, amount, now)
}

// Mint creates amount and credits it to `to`, locking it like any other
// inbound credit unless `to` is exempt. Minter role only.
func (l *Ledger) Mint(caller, to Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	log := l.log.WithFields(logrus.Fields{"method": "Mint", "caller": caller.String(), "to": to.String(), "amount": amount})

	if err := l.checkNotPaused(); err != nil {
		return err
	}
	if err := l.roles.requireRole(RoleMinter, caller); err != nil {
		log.WithError(err).Warn("rejected mint")
		return err
	}
	if err := checkRecipient(to); err != nil {
		return err
	}
	if err := l.balances.checkMint(amount); err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}

	now := l.now()
	l.balances.supply += amount
	l.applyCredit(to, amount, now)
	l.emit(Event{Kind: EventTransfer, Time: now, To: to, Amount: amount})
	log.Info("minted")
	return nil
}

// Distribute sends a batch of payouts from one holder. The whole batch is
// checked against the sender's unlocked balance first and either every
// payout applies or none does.
func (l *Ledger) Distribute(from Address, payouts []Payout) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkNotPaused(); err != nil {
		return err
	}
	if from.IsZero() {
		return ErrZeroAddress
	}
	var total uint64
	for i, p := range payouts {
		if p.To.IsZero() {
			return fmt.Errorf("payout %d: %w", i, ErrZeroAddress)
		}
		if p.Amount > math.MaxUint64-total {
			return fmt.Errorf("payout %d: %w", i, ErrOverflow)
		}
		total += p.Amount
	}

	now := l.now()
	if err := l.authorizeDebit(from, total, now); err != nil {
		return err
	}
	for _, p := range payouts {
		if p.Amount == 0 {
			continue
		}
		l.move(from, p.To, p.Amount, now)
	}
	l.log.WithFields(logrus.Fields{"method": "Distribute", "from": from.String(), "payouts": len(payouts), "total": total}).Info("batch distributed")
	return nil
}

// checkTransfer validates an ordinary holder-initiated movement.
func (l *Ledger) checkTransfer(from, to Address, amount uint64, now int64) error {
	if err := l.checkNotPaused(); err != nil {
		return err
	}
	if from.IsZero() || to.IsZero() {
		return ErrZeroAddress
	}
	return l.authorizeDebit(from, amount, now)
}

// spendFrom is the ordinary allowance-backed path: allowance first, then
// the unlocked-balance gate.
func (l *Ledger) spendFrom(spender, from, to Address, amount uint64, now int64) error {
	if err := l.checkAllowance(from, spender, amount); err != nil {
		return err
	}
	if err := l.authorizeDebit(from, amount, now); err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}
	l.spendAllowance(from, spender, amount)
	l.move(from, to, amount, now)
	l.log.WithFields(logrus.Fields{"method": "spendFrom", "spender": spender.String(), "from": from.String(), "to": to.String(), "amount": amount}).Debug("allowance spend")
	return nil
}
