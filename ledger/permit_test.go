package ledger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// digestVerifier accepts signatures of the form digest || signer address.
var digestVerifier = VerifierFunc(func(digest, sig []byte) (Address, error) {
	if len(sig) != len(digest)+AddressSize || !bytes.Equal(sig[:len(digest)], digest) {
		return ZeroAddress, errors.New("digest mismatch")
	}
	var signer Address
	copy(signer[:], sig[len(digest):])
	return signer, nil
})

func fakeSign(t *testing.T, l *Ledger, signer, owner, spender Address, value uint64, deadline int64) []byte {
	t.Helper()
	digest, err := PermitDigest(l.Domain(), PermitMessage{
		Owner:    owner,
		Spender:  spender,
		Value:    value,
		Nonce:    l.Nonces(owner),
		Deadline: deadline,
	})
	require.NoError(t, err)
	return append(digest, signer[:]...)
}

func TestPermitDigest(t *testing.T) {
	msg := PermitMessage{Owner: alice, Spender: bob, Value: 10, Nonce: 0, Deadline: t0}

	d1, err := PermitDigest(testDomain(), msg)
	require.NoError(t, err)
	assert.Len(t, d1, 32)

	d2, err := PermitDigest(testDomain(), msg)
	require.NoError(t, err)
	assert.Equal(t, d1, d2, "digest is deterministic")

	msg.Nonce = 1
	d3, err := PermitDigest(testDomain(), msg)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d3)

	other := testDomain()
	other.ChainID = 2
	d4, err := PermitDigest(other, PermitMessage{Owner: alice, Spender: bob, Value: 10, Deadline: t0})
	require.NoError(t, err)
	assert.NotEqual(t, d1, d4, "domain binds the digest")
}

func TestPermit_Accepted(t *testing.T) {
	l, _ := newTestLedger(t, 0, WithVerifier(digestVerifier))
	sig := fakeSign(t, l, alice, alice, bob, 25, t0+60)

	require.NoError(t, l.Permit(alice, bob, 25, t0+60, sig))
	assert.Equal(t, uint64(25), l.Allowance(alice, bob))
	assert.Equal(t, uint64(1), l.Nonces(alice))
	assert.Equal(t, []EventKind{EventNonceUsed, EventApproval}, eventKinds(l.DrainEvents()))
}

func TestPermit_DeadlineIsInclusive(t *testing.T) {
	l, _ := newTestLedger(t, 0, WithVerifier(digestVerifier))
	sig := fakeSign(t, l, alice, alice, bob, 1, t0)
	require.NoError(t, l.Permit(alice, bob, 1, t0, sig))
}

func TestPermit_Expired(t *testing.T) {
	l, clk := newTestLedger(t, 0, WithVerifier(digestVerifier))
	sig := fakeSign(t, l, alice, alice, bob, 1, t0)
	clk.SetUnix(t0 + 1)

	assert.ErrorIs(t, l.Permit(alice, bob, 1, t0, sig), ErrExpired)
	assert.ErrorIs(t, l.Permit(alice, bob, 1, t0, []byte("garbage")), ErrExpired, "deadline is checked before the signature")
	assert.Equal(t, uint64(0), l.Nonces(alice))
	assert.Equal(t, uint64(0), l.Allowance(alice, bob))
}

func TestPermit_WrongSigner(t *testing.T) {
	l, _ := newTestLedger(t, 0, WithVerifier(digestVerifier))
	sig := fakeSign(t, l, bob, alice, bob, 1, t0+60)

	err := l.Permit(alice, bob, 1, t0+60, sig)
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Equal(t, uint64(0), l.Nonces(alice), "failure consumes no nonce")
}

func TestPermit_TamperedTerms(t *testing.T) {
	l, _ := newTestLedger(t, 0, WithVerifier(digestVerifier))
	sig := fakeSign(t, l, alice, alice, bob, 1, t0+60)

	assert.ErrorIs(t, l.Permit(alice, bob, 1000, t0+60, sig), ErrInvalidSignature)
	assert.ErrorIs(t, l.Permit(alice, operator, 1, t0+60, sig), ErrInvalidSignature)
	assert.ErrorIs(t, l.Permit(alice, bob, 1, t0+61, sig), ErrInvalidSignature)
}

func TestPermit_Replay(t *testing.T) {
	l, _ := newTestLedger(t, 0, WithVerifier(digestVerifier))
	sig := fakeSign(t, l, alice, alice, bob, 5, t0+60)

	require.NoError(t, l.Permit(alice, bob, 5, t0+60, sig))
	require.NoError(t, l.Approve(alice, bob, 0))

	assert.ErrorIs(t, l.Permit(alice, bob, 5, t0+60, sig), ErrInvalidSignature)
	assert.Equal(t, uint64(0), l.Allowance(alice, bob))
	assert.Equal(t, uint64(1), l.Nonces(alice))

	next := fakeSign(t, l, alice, alice, bob, 5, t0+60)
	require.NoError(t, l.Permit(alice, bob, 5, t0+60, next))
	assert.Equal(t, uint64(2), l.Nonces(alice))
}

func TestPermit_NoVerifier(t *testing.T) {
	l, _ := newTestLedger(t, 0)
	assert.ErrorIs(t, l.Permit(alice, bob, 1, t0+60, []byte{1}), ErrInvalidSignature)
}

func TestPermit_ZeroAddress(t *testing.T) {
	l, _ := newTestLedger(t, 0, WithVerifier(digestVerifier))
	assert.ErrorIs(t, l.Permit(ZeroAddress, bob, 1, t0+60, nil), ErrZeroAddress)
	assert.ErrorIs(t, l.Permit(alice, ZeroAddress, 1, t0+60, nil), ErrZeroAddress)
}

func TestPermit_AllowanceDoesNotUnlock(t *testing.T) {
	l, _ := newTestLedger(t, 1000, WithVerifier(digestVerifier))
	fund(t, l, alice, 10)
	sig := fakeSign(t, l, alice, alice, bob, 10, t0+60)
	require.NoError(t, l.Permit(alice, bob, 10, t0+60, sig))

	assert.ErrorIs(t, l.TransferFrom(bob, alice, bob, 10), ErrExceedsUnlocked)
}
