package ledger

import "errors"

var (
	// ErrExceedsUnlocked indicates an ordinary debit asked for more than the
	// holder's unlocked balance.
	ErrExceedsUnlocked = errors.New("ledger: amount exceeds unlocked")

	// ErrInsufficientLockedBalance indicates a privileged consumption asked
	// for more than is currently locked.
	ErrInsufficientLockedBalance = errors.New("ledger: insufficient locked balance")

	// ErrUnauthorized indicates the caller lacks the role an operation requires.
	ErrUnauthorized = errors.New("ledger: unauthorized")

	// ErrBypassDestinationNotAllowed indicates a bypass to something other
	// than the treasury or the burn sink.
	ErrBypassDestinationNotAllowed = errors.New("ledger: bypass destination not allowed")

	// ErrInvalidSignature indicates a delegated approval whose signature does
	// not recover to the owner.
	ErrInvalidSignature = errors.New("ledger: invalid signature")

	// ErrExpired indicates a delegated approval presented after its deadline.
	ErrExpired = errors.New("ledger: authorization expired")

	// ErrInsufficientAllowance indicates a spend beyond the granted allowance.
	ErrInsufficientAllowance = errors.New("ledger: insufficient allowance")

	// ErrInsufficientBalance indicates a debit beyond the holder's total balance.
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")

	// ErrOverflow indicates an amount that would overflow total supply.
	ErrOverflow = errors.New("ledger: amount overflows supply")

	// ErrPaused indicates a balance change while transfers are paused.
	ErrPaused = errors.New("ledger: paused")

	// ErrNotPaused indicates an unpause while transfers are not paused.
	ErrNotPaused = errors.New("ledger: not paused")

	// ErrZeroAddress indicates the zero address was used as an endpoint.
	ErrZeroAddress = errors.New("ledger: zero address")

	// ErrInvalidRecipient indicates a recipient that can never hold balance.
	ErrInvalidRecipient = errors.New("ledger: invalid recipient")

	// ErrInvalidLockDuration indicates a lock duration below one second.
	ErrInvalidLockDuration = errors.New("ledger: lock duration must be at least one second")

	// ErrInvalidAmount indicates an amount string that cannot be parsed.
	ErrInvalidAmount = errors.New("ledger: invalid amount")

	// ErrInvalidAddress indicates an address string that cannot be parsed.
	ErrInvalidAddress = errors.New("ledger: invalid address")

	// ErrUnknownRole indicates a role name or value outside the known set.
	ErrUnknownRole = errors.New("ledger: unknown role")

	// ErrCorruptState indicates a snapshot that violates ledger invariants.
	ErrCorruptState = errors.New("ledger: corrupt state")
)
