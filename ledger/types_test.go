package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	a := makeAddr(0xab)
	for _, s := range []string{a.String(), a.String()[2:], "0X" + a.String()[2:]} {
		got, err := ParseAddress(s)
		require.NoError(t, err, s)
		assert.Equal(t, a, got)
	}

	for _, bad := range []string{"", "0x1234", a.String() + "00", "0x" + string(make([]byte, 40))} {
		_, err := ParseAddress(bad)
		assert.ErrorIs(t, err, ErrInvalidAddress, bad)
	}
}

func TestBurnSink(t *testing.T) {
	assert.Equal(t, "0x000000000000000000000000000000000000dead", BurnSink.String())
	assert.False(t, BurnSink.IsZero())
	assert.True(t, ZeroAddress.IsZero())
}

func TestAddressText(t *testing.T) {
	a := makeAddr(7)
	text, err := a.MarshalText()
	require.NoError(t, err)

	var b Address
	require.NoError(t, b.UnmarshalText(text))
	assert.Equal(t, a, b)
	assert.Error(t, b.UnmarshalText([]byte("nope")))
}

func TestAddressFromPubKey(t *testing.T) {
	pub := make([]byte, 33)
	pub[0] = 0x02
	a := AddressFromPubKey(pub)
	assert.False(t, a.IsZero())
	assert.Equal(t, a, AddressFromPubKey(pub))
}

func TestParseRole(t *testing.T) {
	tests := map[string]Role{
		"SPENDER_ROLE":     RoleSpender,
		"spender":          RoleSpender,
		"lock-exempt":      RoleLockExempt,
		"LOCK_EXEMPT_ROLE": RoleLockExempt,
		"admin":            RoleAdmin,
		"Minter":           RoleMinter,
	}
	for in, want := range tests {
		got, err := ParseRole(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseRole("root")
	assert.ErrorIs(t, err, ErrUnknownRole)

	for _, r := range AllRoles {
		got, err := ParseRole(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}
	assert.False(t, Role(0).Valid())
	assert.Equal(t, "ROLE(9)", Role(9).String())
}

func TestEventString(t *testing.T) {
	e := Event{Kind: EventTransfer, From: alice, To: bob, Amount: 3}
	assert.Contains(t, e.String(), "Transfer")
	assert.Contains(t, e.String(), alice.String())
	assert.Equal(t, "Event(99)", EventKind(99).String())
}
