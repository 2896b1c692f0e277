package pool

import (
	"encoding/hex"
	"math/big"

	"github.com/SamAg19/SealBid/core/types"
)

const (
	EventTypePoolDeposited    = "pool.deposited"
	EventTypePoolWithdrawn    = "pool.withdrawn"
	EventTypePoolDisbursed    = "pool.disbursed"
	EventTypePoolRepaid       = "pool.repaid"
	EventTypePoolDisburserSet = "pool.disburser_set"
)

type poolEvent struct {
	evt *types.Event
}

func (e poolEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e poolEvent) Event() *types.Event { return e.evt }

// NewDepositedEvent returns the canonical payload emitted when a lender joins
// the pool.
func NewDepositedEvent(lender [20]byte, amount, shares, rate *big.Int, pool *State) *types.Event {
	attrs := map[string]string{
		"lender": hex.EncodeToString(lender[:]),
		"amount": amount.String(),
		"shares": shares.String(),
		"rate":   rate.String(),
	}
	addPoolAttrs(attrs, pool)
	return &types.Event{Type: EventTypePoolDeposited, Attributes: attrs}
}

// NewWithdrawnEvent returns the canonical payload emitted when shares are
// redeemed against the reserve.
func NewWithdrawnEvent(lender [20]byte, shares, amountOut *big.Int, pool *State) *types.Event {
	attrs := map[string]string{
		"lender":    hex.EncodeToString(lender[:]),
		"shares":    shares.String(),
		"amountOut": amountOut.String(),
	}
	addPoolAttrs(attrs, pool)
	return &types.Event{Type: EventTypePoolWithdrawn, Attributes: attrs}
}

// NewDisbursedEvent returns the canonical payload emitted when principal
// leaves the reserve toward a borrower.
func NewDisbursedEvent(borrower [20]byte, amount *big.Int, pool *State) *types.Event {
	attrs := map[string]string{
		"borrower": hex.EncodeToString(borrower[:]),
		"amount":   amount.String(),
	}
	addPoolAttrs(attrs, pool)
	return &types.Event{Type: EventTypePoolDisbursed, Attributes: attrs}
}

// NewRepaidEvent returns the canonical payload emitted when a repayment
// inflow is accounted against the pool.
func NewRepaidEvent(fullAmount, principalPortion, rate *big.Int, pool *State) *types.Event {
	attrs := map[string]string{
		"amount":    fullAmount.String(),
		"principal": principalPortion.String(),
		"rate":      rate.String(),
	}
	addPoolAttrs(attrs, pool)
	return &types.Event{Type: EventTypePoolRepaid, Attributes: attrs}
}

// NewDisburserSetEvent returns the payload emitted when the single authorized
// disburser is bound.
func NewDisburserSetEvent(addr [20]byte) *types.Event {
	return &types.Event{Type: EventTypePoolDisburserSet, Attributes: map[string]string{
		"disburser": hex.EncodeToString(addr[:]),
	}}
}

func addPoolAttrs(attrs map[string]string, pool *State) {
	if pool == nil {
		return
	}
	if pool.ReserveUSDC != nil {
		attrs["reserve"] = pool.ReserveUSDC.String()
	}
	if pool.ShareSupply != nil {
		attrs["shareSupply"] = pool.ShareSupply.String()
	}
	if pool.TotalLoaned != nil {
		attrs["totalLoaned"] = pool.TotalLoaned.String()
	}
}
