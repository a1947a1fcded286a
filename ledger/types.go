package ledger

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"
)

// AddressSize is the length of a holder address in bytes.
const AddressSize = 20

// Address identifies a holder: HASH160 of its compressed secp256k1 public key.
type Address [AddressSize]byte

var (
	// ZeroAddress is never a valid transfer endpoint.
	ZeroAddress Address

	// BurnSink is the well-known sink address. Value sent there is destroyed
	// and total supply shrinks accordingly.
	BurnSink = Address{18: 0xde, 19: 0xad}
)

// AddressFromPubKey derives the address for a compressed public key.
func AddressFromPubKey(compressed []byte) Address {
	var a Address
	copy(a[:], bsvhash.Hash160(compressed))
	return a
}

// ParseAddress decodes a 40-character hex address, with or without a 0x prefix.
func ParseAddress(s string) (Address, error) {
	var a Address
	trimmed := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if len(trimmed) != 2*AddressSize {
		return a, fmt.Errorf("%w: %q has %d hex chars, want %d", ErrInvalidAddress, s, len(trimmed), 2*AddressSize)
	}
	if _, err := hex.Decode(a[:], []byte(trimmed)); err != nil {
		return a, fmt.Errorf("%w: %q: %w", ErrInvalidAddress, s, err)
	}
	return a, nil
}

// MustParseAddress is ParseAddress for constants and tests. Panics on bad input.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String returns the 0x-prefixed lowercase hex form.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// Compare orders addresses bytewise.
func (a Address) Compare(b Address) int {
	return bytes.Compare(a[:], b[:])
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Role is one of the fixed capabilities the ledger checks.
type Role uint8

const (
	// RoleAdmin grants and revokes every role and changes configuration.
	RoleAdmin Role = iota + 1
	// RoleLockExempt holders never accrue lock buckets on inbound credit.
	RoleLockExempt
	// RoleSpender may move locked value, but only to the treasury or burn sink.
	RoleSpender
	// RoleUpgrader may authorize implementation upgrades.
	RoleUpgrader
	// RolePauser may pause and unpause balance changes.
	RolePauser
	// RoleMinter may create new supply.
	RoleMinter
)

// AllRoles lists every role in declaration order.
var AllRoles = []Role{RoleAdmin, RoleLockExempt, RoleSpender, RoleUpgrader, RolePauser, RoleMinter}

var roleNames = map[Role]string{
	RoleAdmin:      "ADMIN_ROLE",
	RoleLockExempt: "LOCK_EXEMPT_ROLE",
	RoleSpender:    "SPENDER_ROLE",
	RoleUpgrader:   "UPGRADER_ROLE",
	RolePauser:     "PAUSER_ROLE",
	RoleMinter:     "MINTER_ROLE",
}

// String returns the canonical role name, e.g. "SPENDER_ROLE".
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("ROLE(%d)", uint8(r))
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// ParseRole accepts the canonical name ("SPENDER_ROLE") or its short
// lowercase form ("spender", "lock-exempt").
func ParseRole(s string) (Role, error) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	if !strings.HasSuffix(norm, "_ROLE") {
		norm += "_ROLE"
	}
	for r, name := range roleNames {
		if name == norm {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// LockBucket is a quantity of a holder's balance that becomes spendable at
// Release (unix seconds).
type LockBucket struct {
	Amount  uint64
	Release int64
}

// Locked reports whether the bucket is still locked at now.
func (b LockBucket) Locked(now int64) bool {
	return b.Release > now
}
