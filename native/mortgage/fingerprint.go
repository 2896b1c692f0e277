package mortgage

import (
	"encoding/binary"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// RequestFingerprint derives the canonical fingerprint anchoring a loan
// request: keccak256(borrower || collateralID || payloadHash). The payload
// hash commits to the off-chain application document; the chain never sees
// its contents.
func RequestFingerprint(borrower [20]byte, collateralID uint64, payloadHash [32]byte) [32]byte {
	var idBytes [8]byte
	binary.BigEndian.PutUint64(idBytes[:], collateralID)
	digest := ethcrypto.Keccak256(borrower[:], idBytes[:], payloadHash[:])
	var out [32]byte
	copy(out[:], digest)
	return out
}
