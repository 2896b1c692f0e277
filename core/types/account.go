package types

import "math/big"

// Account tracks the settlement-asset and receipt-share balances held by a
// single protocol participant. Both balances are 6-decimal fixed-point
// integers; BalanceShares may only be minted or burned by the pool engine.
type Account struct {
	Nonce         uint64   `json:"nonce"`
	BalanceUSDC   *big.Int `json:"balanceUSDC"`
	BalanceShares *big.Int `json:"balanceShares"`
}

// Clone returns a deep copy of the account so callers can mutate the copy
// without affecting the stored instance.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := &Account{Nonce: a.Nonce, BalanceUSDC: big.NewInt(0), BalanceShares: big.NewInt(0)}
	if a.BalanceUSDC != nil {
		clone.BalanceUSDC = new(big.Int).Set(a.BalanceUSDC)
	}
	if a.BalanceShares != nil {
		clone.BalanceShares = new(big.Int).Set(a.BalanceShares)
	}
	return clone
}
