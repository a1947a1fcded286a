package ledger

import (
	"fmt"
	"math"
	"sort"
)

// balanceStore holds per-holder totals and the total supply. The sum of all
// balances always equals supply, so moving value between holders cannot
// overflow; only mint needs an overflow check.
type balanceStore struct {
	balances map[Address]uint64
	supply   uint64
}

func newBalanceStore() *balanceStore {
	return &balanceStore{balances: make(map[Address]uint64)}
}

func (s *balanceStore) balanceOf(holder Address) uint64 {
	return s.balances[holder]
}

func (s *balanceStore) checkDebit(holder Address, amount uint64) error {
	if bal := s.balances[holder]; amount > bal {
		return fmt.Errorf("%w: %s holds %d, want %d", ErrInsufficientBalance, holder, bal, amount)
	}
	return nil
}

func (s *balanceStore) checkMint(amount uint64) error {
	if amount > math.MaxUint64-s.supply {
		return fmt.Errorf("%w: supply %d + %d", ErrOverflow, s.supply, amount)
	}
	return nil
}

func (s *balanceStore) add(holder Address, amount uint64) {
	if amount == 0 {
		return
	}
	s.balances[holder] += amount
}

func (s *balanceStore) sub(holder Address, amount uint64) {
	left := s.balances[holder] - amount
	if left == 0 {
		delete(s.balances, holder)
		return
	}
	s.balances[holder] = left
}

func (s *balanceStore) holders() []Address {
	out := make([]Address, 0, len(s.balances))
	for h := range s.balances {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}
