package signer

import (
	"bytes"
	"io"
	"testing"
	"time"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libvest-go/clock"
	"github.com/bitfsorg/libvest-go/ledger"
)

func newKey(t *testing.T) *ec.PrivateKey {
	t.Helper()
	priv, err := ec.NewPrivateKey()
	require.NoError(t, err)
	return priv
}

func testDigest(seed byte) []byte {
	return bytes.Repeat([]byte{seed}, DigestLen)
}

func TestSignRecover(t *testing.T) {
	priv := newKey(t)
	digest := testDigest(0x11)

	sig, err := Sign(priv, digest)
	require.NoError(t, err)
	assert.Equal(t, priv.PubKey().Compressed(), sig[:PubKeyLen])

	addr, err := Verifier{}.Recover(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, Address(priv), addr)
}

func TestRecover_WrongDigest(t *testing.T) {
	priv := newKey(t)
	sig, err := Sign(priv, testDigest(0x11))
	require.NoError(t, err)

	_, err = Verifier{}.Recover(testDigest(0x12), sig)
	assert.ErrorIs(t, err, ErrVerifyFailed)
}

func TestRecover_SwappedKey(t *testing.T) {
	priv, other := newKey(t), newKey(t)
	digest := testDigest(0x21)
	sig, err := Sign(priv, digest)
	require.NoError(t, err)

	forged := append(append([]byte{}, other.PubKey().Compressed()...), sig[PubKeyLen:]...)
	_, err = Verifier{}.Recover(digest, forged)
	assert.ErrorIs(t, err, ErrVerifyFailed)
}

func TestRecover_Malformed(t *testing.T) {
	digest := testDigest(0x31)
	priv := newKey(t)
	sig, err := Sign(priv, digest)
	require.NoError(t, err)

	badKey := append([]byte{}, sig...)
	badKey[0] = 0x07

	tests := []struct {
		name   string
		digest []byte
		sig    []byte
		want   error
	}{
		{"short digest", digest[:31], sig, ErrInvalidDigest},
		{"empty sig", digest, nil, ErrMalformedSignature},
		{"key only", digest, sig[:PubKeyLen+2], ErrMalformedSignature},
		{"bad key prefix", digest, badKey, ErrInvalidPublicKey},
		{"garbage der", digest, append(append([]byte{}, sig[:PubKeyLen]...), bytes.Repeat([]byte{0xff}, 20)...), ErrMalformedSignature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Verifier{}.Recover(tt.digest, tt.sig)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSign_Rejections(t *testing.T) {
	_, err := Sign(nil, testDigest(1))
	assert.ErrorIs(t, err, ErrNilKey)
	_, err = Sign(newKey(t), []byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidDigest)
}

func TestSignPermit_AcceptedByLedger(t *testing.T) {
	ownerKey := newKey(t)
	owner := Address(ownerKey)
	spender := ledger.MustParseAddress("0x00000000000000000000000000000000000000aa")
	deployer := ledger.MustParseAddress("0x00000000000000000000000000000000000000d1")
	treasury := ledger.MustParseAddress("0x00000000000000000000000000000000000000d2")

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	clk := clock.Fake(time.Unix(1700006400, 0))
	domain := ledger.Domain{Name: "Vest", Version: "1", ChainID: 1}

	l, err := ledger.New(
		ledger.Genesis{Deployer: deployer, Treasury: treasury, Domain: domain},
		ledger.WithClock(clk),
		ledger.WithVerifier(Verifier{}),
		ledger.WithLogger(logrus.NewEntry(logger)),
	)
	require.NoError(t, err)

	deadline := clk.Now().Unix() + 600
	sig, err := SignPermit(ownerKey, domain, ledger.PermitMessage{
		Owner:    owner,
		Spender:  spender,
		Value:    42,
		Nonce:    l.Nonces(owner),
		Deadline: deadline,
	})
	require.NoError(t, err)

	require.NoError(t, l.Permit(owner, spender, 42, deadline, sig))
	assert.Equal(t, uint64(42), l.Allowance(owner, spender))
	assert.Equal(t, uint64(1), l.Nonces(owner))

	err = l.Permit(owner, spender, 42, deadline, sig)
	assert.ErrorIs(t, err, ledger.ErrInvalidSignature, "replayed signature")

	intruder := newKey(t)
	forged, err := SignPermit(intruder, domain, ledger.PermitMessage{
		Owner: owner, Spender: spender, Value: 1000, Nonce: l.Nonces(owner), Deadline: deadline,
	})
	require.NoError(t, err)
	assert.ErrorIs(t, l.Permit(owner, spender, 1000, deadline, forged), ledger.ErrInvalidSignature)
}
