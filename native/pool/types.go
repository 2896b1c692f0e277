package pool

import "math/big"

// State captures the aggregate ledger for the shared liquidity pool. Amounts
// are 6-decimal fixed-point integers expressed as big integers.
type State struct {
	// ReserveUSDC is the liquid settlement balance currently held by the
	// pool vault and available for withdrawals and disbursements.
	ReserveUSDC *big.Int
	// ShareSupply is the total outstanding receipt-share supply minted
	// against the reserve.
	ShareSupply *big.Int
	// TotalLoaned tracks the aggregate outstanding principal across active
	// loans. It is an accounting counter only and never constrains the
	// reserve directly.
	TotalLoaned *big.Int
}

// Clone returns a deep copy of the pool state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	clone := &State{
		ReserveUSDC: big.NewInt(0),
		ShareSupply: big.NewInt(0),
		TotalLoaned: big.NewInt(0),
	}
	if s.ReserveUSDC != nil {
		clone.ReserveUSDC = new(big.Int).Set(s.ReserveUSDC)
	}
	if s.ShareSupply != nil {
		clone.ShareSupply = new(big.Int).Set(s.ShareSupply)
	}
	if s.TotalLoaned != nil {
		clone.TotalLoaned = new(big.Int).Set(s.TotalLoaned)
	}
	return clone
}

func ensureState(s *State) *State {
	if s == nil {
		s = &State{}
	}
	if s.ReserveUSDC == nil {
		s.ReserveUSDC = big.NewInt(0)
	}
	if s.ShareSupply == nil {
		s.ShareSupply = big.NewInt(0)
	}
	if s.TotalLoaned == nil {
		s.TotalLoaned = big.NewInt(0)
	}
	return s
}
