package ledger

// IsTrustedForwarder reports whether addr is the configured meta-transaction
// forwarder. The zero address is never trusted.
func (l *Ledger) IsTrustedForwarder(addr Address) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !addr.IsZero() && addr == l.forwarder
}

// MsgSender resolves the effective caller of a relayed request: claimed when
// relayer is the trusted forwarder, relayer itself otherwise.
func (l *Ledger) MsgSender(relayer, claimed Address) Address {
	if l.IsTrustedForwarder(relayer) && !claimed.IsZero() {
		return claimed
	}
	return relayer
}

// TrustedForwarder returns the configured forwarder, or the zero address.
func (l *Ledger) TrustedForwarder() Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.forwarder
}
