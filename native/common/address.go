package common

import ethcrypto "github.com/ethereum/go-ethereum/crypto"

// ModuleAddress derives the deterministic vault/escrow account for a native
// module. Module accounts have no key material; only engine code can move
// their balances.
func ModuleAddress(module string) [20]byte {
	digest := ethcrypto.Keccak256([]byte("sealbid/module/" + module))
	var out [20]byte
	copy(out[:], digest[12:])
	return out
}
