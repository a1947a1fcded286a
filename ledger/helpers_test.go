package ledger

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libvest-go/clock"
)

// day0 is 2023-11-15T00:00:00Z, the start of an alignment window.
const day0 int64 = 1700006400

// t0 is one hour into day0.
const t0 = day0 + 3600

func makeAddr(seed byte) Address {
	var a Address
	a[0] = 0x42
	a[AddressSize-1] = seed
	return a
}

var (
	deployer = makeAddr(1)
	treasury = makeAddr(2)
	alice    = makeAddr(3)
	bob      = makeAddr(4)
	operator = makeAddr(5)
)

func quietLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func testDomain() Domain {
	return Domain{Name: "Vest", Version: "1", ChainID: 1, VerifyingContract: makeAddr(0xcc)}
}

// newTestLedger builds a ledger at t0 with the deployer holding supply.
func newTestLedger(t *testing.T, supply uint64, opts ...Option) (*Ledger, *clock.FakeClock) {
	t.Helper()
	clk := clock.Fake(clock.Real().Now())
	clk.SetUnix(t0)
	all := append([]Option{WithClock(clk), WithLogger(quietLogger())}, opts...)
	l, err := New(Genesis{
		Deployer:      deployer,
		Treasury:      treasury,
		InitialSupply: supply,
		Domain:        testDomain(),
	}, all...)
	require.NoError(t, err)
	l.DrainEvents()
	return l, clk
}

// fund sends amount from the deployer to holder; the credit is locked
// unless holder is exempt.
func fund(t *testing.T, l *Ledger, holder Address, amount uint64) {
	t.Helper()
	require.NoError(t, l.Transfer(deployer, holder, amount))
}

// requireInvariants checks that balances sum to supply and no holder has
// more locked than it holds.
func requireInvariants(t *testing.T, l *Ledger) {
	t.Helper()
	s := l.Snapshot()
	var sum uint64
	for _, b := range s.Balances {
		sum += b.Amount
		assert.LessOrEqual(t, l.LockedAmount(b.Holder), b.Amount, "locked exceeds balance for %s", b.Holder)
	}
	assert.Equal(t, s.Supply, sum, "balances must sum to supply")
	for _, rec := range s.Locks {
		assert.LessOrEqual(t, l.LockedAmount(rec.Holder), l.BalanceOf(rec.Holder))
	}
}

func eventKinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}
