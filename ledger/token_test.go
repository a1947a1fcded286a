package ledger

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransfer_Basic(t *testing.T) {
	l, _ := newTestLedger(t, 1000)

	require.NoError(t, l.Transfer(deployer, alice, 300))
	assert.Equal(t, uint64(700), l.BalanceOf(deployer))
	assert.Equal(t, uint64(300), l.BalanceOf(alice))
	assert.Equal(t, uint64(300), l.LockedAmount(alice))
	assert.Equal(t, uint64(0), l.UnlockedBalanceOf(alice))

	events := l.DrainEvents()
	assert.Equal(t, []EventKind{EventLockCreated, EventTransfer}, eventKinds(events))
	assert.Equal(t, day0+AlignmentWindow, events[0].Release)
	requireInvariants(t, l)
}

func TestTransfer_ZeroAmountChangesNothing(t *testing.T) {
	l, _ := newTestLedger(t, 1000)
	fund(t, l, alice, 10)
	l.DrainEvents()
	before := l.Snapshot()

	require.NoError(t, l.Transfer(alice, bob, 0))
	require.NoError(t, l.Transfer(bob, alice, 0), "zero from an empty holder")

	assert.Equal(t, before, l.Snapshot())
	assert.Empty(t, l.LocksOf(bob))
	assert.Empty(t, l.DrainEvents())
}

func TestTransfer_Rejections(t *testing.T) {
	l, _ := newTestLedger(t, 1000)
	fund(t, l, alice, 10)

	assert.ErrorIs(t, l.Transfer(deployer, ZeroAddress, 1), ErrZeroAddress)
	assert.ErrorIs(t, l.Transfer(ZeroAddress, bob, 1), ErrZeroAddress)
	assert.ErrorIs(t, l.Transfer(alice, bob, 1), ErrExceedsUnlocked)
	assert.ErrorIs(t, l.Transfer(deployer, bob, 991), ErrExceedsUnlocked)
	assert.Equal(t, uint64(990), l.BalanceOf(deployer))
	assert.Equal(t, uint64(10), l.BalanceOf(alice))
}

func TestTransfer_ToBurnSinkBurns(t *testing.T) {
	l, _ := newTestLedger(t, 1000)

	require.NoError(t, l.Transfer(deployer, BurnSink, 100))
	assert.Equal(t, uint64(900), l.TotalSupply())
	assert.Equal(t, uint64(0), l.BalanceOf(BurnSink))
	requireInvariants(t, l)
}

func TestTransfer_SpendsUnlockedLeavesBuckets(t *testing.T) {
	l, clk := newTestLedger(t, 1000)
	fund(t, l, alice, 10)

	clk.SetUnix(day0 + AlignmentWindow + 10)
	fund(t, l, alice, 5)
	assert.Equal(t, uint64(10), l.UnlockedBalanceOf(alice))

	require.NoError(t, l.Transfer(alice, bob, 10))
	assert.Equal(t, uint64(5), l.BalanceOf(alice))
	assert.Equal(t, []LockBucket{{Amount: 5, Release: day0 + 2*AlignmentWindow}}, l.LocksOf(alice))
	requireInvariants(t, l)
}

func TestBurn(t *testing.T) {
	l, _ := newTestLedger(t, 1000)
	fund(t, l, alice, 10)

	assert.ErrorIs(t, l.Burn(alice, 1), ErrExceedsUnlocked, "holders never burn locked value")
	require.NoError(t, l.Burn(deployer, 90))
	assert.Equal(t, uint64(910), l.TotalSupply())
	assert.Equal(t, uint64(900), l.BalanceOf(deployer))

	events := l.DrainEvents()
	last := events[len(events)-1]
	assert.Equal(t, EventTransfer, last.Kind)
	assert.Equal(t, BurnSink, last.To)
	requireInvariants(t, l)
}

func TestTransferFrom_Ordinary(t *testing.T) {
	l, _ := newTestLedger(t, 1000)
	require.NoError(t, l.Approve(deployer, bob, 100))

	assert.ErrorIs(t, l.TransferFrom(bob, deployer, alice, 101), ErrInsufficientAllowance)
	require.NoError(t, l.TransferFrom(bob, deployer, alice, 60))
	assert.Equal(t, uint64(40), l.Allowance(deployer, bob))
	assert.Equal(t, uint64(60), l.BalanceOf(alice))
	assert.Equal(t, uint64(60), l.LockedAmount(alice))

	require.NoError(t, l.TransferFrom(bob, deployer, alice, 40))
	assert.Equal(t, uint64(0), l.Allowance(deployer, bob))
}

func TestTransferFrom_NonSpenderCannotMoveLocked(t *testing.T) {
	l, _ := newTestLedger(t, 1000)
	fund(t, l, alice, 10)
	require.NoError(t, l.Approve(alice, bob, 10))

	for _, to := range []Address{bob, treasury} {
		err := l.TransferFrom(bob, alice, to, 5)
		assert.ErrorIs(t, err, ErrExceedsUnlocked)
	}
	assert.ErrorIs(t, l.BurnFrom(bob, alice, 5), ErrExceedsUnlocked)
	assert.Equal(t, uint64(10), l.Allowance(alice, bob), "failed spends keep the allowance")
	assert.Equal(t, uint64(10), l.LockedAmount(alice))
}

func TestTransferFrom_SpenderToOtherDestinationUsesGate(t *testing.T) {
	l, _ := newTestLedger(t, 1000)
	fund(t, l, alice, 10)
	require.NoError(t, l.Approve(alice, deployer, 10))

	err := l.TransferFrom(deployer, alice, bob, 5)
	assert.ErrorIs(t, err, ErrExceedsUnlocked)
	assert.Equal(t, uint64(10), l.BalanceOf(alice))
}

func TestTransferFrom_SpenderToTreasuryBypasses(t *testing.T) {
	l, _ := newTestLedger(t, 1000)
	require.NoError(t, l.GrantRole(deployer, RoleSpender, operator))
	fund(t, l, alice, 10)
	require.NoError(t, l.Approve(alice, operator, 10))

	require.NoError(t, l.TransferFrom(operator, alice, treasury, 6))
	assert.Equal(t, uint64(4), l.LockedAmount(alice))
	assert.Equal(t, uint64(6), l.BalanceOf(treasury))
	assert.Equal(t, uint64(4), l.Allowance(alice, operator))
	requireInvariants(t, l)
}

func TestTransferFrom_InfiniteAllowance(t *testing.T) {
	l, _ := newTestLedger(t, 1000)
	require.NoError(t, l.Approve(deployer, bob, InfiniteAllowance))

	require.NoError(t, l.TransferFrom(bob, deployer, alice, 500))
	assert.Equal(t, uint64(math.MaxUint64), l.Allowance(deployer, bob))
}

func TestBurnFrom(t *testing.T) {
	l, _ := newTestLedger(t, 1000)
	require.NoError(t, l.Approve(deployer, bob, 100))

	require.NoError(t, l.BurnFrom(bob, deployer, 30))
	assert.Equal(t, uint64(970), l.TotalSupply())
	assert.Equal(t, uint64(70), l.Allowance(deployer, bob))
	assert.ErrorIs(t, l.BurnFrom(bob, deployer, 71), ErrInsufficientAllowance)
	assert.ErrorIs(t, l.BurnFrom(bob, ZeroAddress, 1), ErrZeroAddress)
}

func TestBurnFrom_SpenderBurnsLocked(t *testing.T) {
	l, _ := newTestLedger(t, 1000)
	require.NoError(t, l.GrantRole(deployer, RoleSpender, operator))
	fund(t, l, alice, 10)
	require.NoError(t, l.Approve(alice, operator, 10))

	require.NoError(t, l.BurnFrom(operator, alice, 10))
	assert.Equal(t, uint64(0), l.BalanceOf(alice))
	assert.Empty(t, l.LocksOf(alice))
	assert.Equal(t, uint64(990), l.TotalSupply())
	requireInvariants(t, l)
}

func TestApprove(t *testing.T) {
	l, _ := newTestLedger(t, 0)

	assert.ErrorIs(t, l.Approve(ZeroAddress, bob, 1), ErrZeroAddress)
	require.NoError(t, l.Approve(alice, bob, 7))
	assert.Equal(t, uint64(7), l.Allowance(alice, bob))
	require.NoError(t, l.Approve(alice, bob, 0))
	assert.Equal(t, uint64(0), l.Allowance(alice, bob))
	assert.Empty(t, l.Snapshot().Allowances)
}

func TestDistribute(t *testing.T) {
	l, _ := newTestLedger(t, 1000)

	err := l.Distribute(deployer, []Payout{{To: alice, Amount: 100}, {To: bob, Amount: 0}, {To: operator, Amount: 50}})
	require.NoError(t, err)
	assert.Equal(t, uint64(850), l.BalanceOf(deployer))
	assert.Equal(t, uint64(100), l.LockedAmount(alice))
	assert.Equal(t, uint64(50), l.LockedAmount(operator))
	assert.Equal(t, uint64(0), l.BalanceOf(bob))
	requireInvariants(t, l)
}

func TestDistribute_AllOrNothing(t *testing.T) {
	l, _ := newTestLedger(t, 1000)
	before := l.Snapshot()

	tests := []struct {
		name    string
		payouts []Payout
		want    error
	}{
		{"exceeds unlocked", []Payout{{To: alice, Amount: 600}, {To: bob, Amount: 401}}, ErrExceedsUnlocked},
		{"zero recipient", []Payout{{To: alice, Amount: 1}, {To: ZeroAddress, Amount: 1}}, ErrZeroAddress},
		{"overflowing total", []Payout{{To: alice, Amount: math.MaxUint64}, {To: bob, Amount: 1}}, ErrOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, l.Distribute(deployer, tt.payouts), tt.want)
			assert.Equal(t, before, l.Snapshot())
		})
	}
}
