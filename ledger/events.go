package ledger

import "fmt"

// EventKind names what a ledger Event records.
type EventKind uint8

const (
	EventTransfer EventKind = iota + 1
	EventApproval
	EventLockCreated
	EventLockMerged
	EventLockConsumed
	EventRoleGranted
	EventRoleRevoked
	EventTreasuryChanged
	EventLockDurationChanged
	EventPaused
	EventUnpaused
	EventNonceUsed
)

var eventNames = map[EventKind]string{
	EventTransfer:            "Transfer",
	EventApproval:            "Approval",
	EventLockCreated:         "LockCreated",
	EventLockMerged:          "LockMerged",
	EventLockConsumed:        "LockConsumed",
	EventRoleGranted:         "RoleGranted",
	EventRoleRevoked:         "RoleRevoked",
	EventTreasuryChanged:     "TreasuryChanged",
	EventLockDurationChanged: "LockDurationChanged",
	EventPaused:              "Paused",
	EventUnpaused:            "Unpaused",
	EventNonceUsed:           "NonceUsed",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Event(%d)", uint8(k))
}

// Event is one observable state change. Field meaning depends on Kind:
//
//	Transfer            From -> To, Amount (mint: From zero; burn: To BurnSink)
//	Approval            From owner, To spender, Amount allowance
//	LockCreated/Merged  To holder, Amount added, Release
//	LockConsumed        From holder, Amount taken, Release
//	RoleGranted/Revoked Account, Role, From sender
//	TreasuryChanged     From old, To new
//	LockDurationChanged Amount seconds
//	Paused/Unpaused     From sender
//	NonceUsed           From owner, Amount new nonce
type Event struct {
	Kind    EventKind
	Time    int64
	From    Address
	To      Address
	Account Address
	Role    Role
	Amount  uint64
	Release int64
}

func (e Event) String() string {
	switch e.Kind {
	case EventTransfer, EventApproval:
		return fmt.Sprintf("%s %s -> %s %d", e.Kind, e.From, e.To, e.Amount)
	case EventLockCreated, EventLockMerged:
		return fmt.Sprintf("%s %s +%d until %d", e.Kind, e.To, e.Amount, e.Release)
	case EventLockConsumed:
		return fmt.Sprintf("%s %s -%d from %d", e.Kind, e.From, e.Amount, e.Release)
	case EventRoleGranted, EventRoleRevoked:
		return fmt.Sprintf("%s %s %s by %s", e.Kind, e.Role, e.Account, e.From)
	case EventTreasuryChanged:
		return fmt.Sprintf("%s %s -> %s", e.Kind, e.From, e.To)
	case EventLockDurationChanged:
		return fmt.Sprintf("%s %ds", e.Kind, e.Amount)
	case EventNonceUsed:
		return fmt.Sprintf("%s %s nonce=%d", e.Kind, e.From, e.Amount)
	default:
		return fmt.Sprintf("%s by %s", e.Kind, e.From)
	}
}

func (l *Ledger) emit(e Event) {
	l.events = append(l.events, e)
}

// DrainEvents returns the events recorded since the last drain and clears them.
func (l *Ledger) DrainEvents() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.events
	l.events = nil
	return out
}
