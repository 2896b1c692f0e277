package mortgage

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"github.com/SamAg19/SealBid/core/types"
)

const (
	EventTypeRequestSubmitted   = "mortgage.request_submitted"
	EventTypeVerdictRecorded    = "mortgage.verdict_recorded"
	EventTypeLoanClaimed        = "mortgage.loan_claimed"
	EventTypePaymentRecorded    = "mortgage.payment_recorded"
	EventTypePaymentMissed      = "mortgage.payment_missed"
	EventTypeLoanDefaulted      = "mortgage.loan_defaulted"
	EventTypeLiquidationSettled = "mortgage.liquidation_settled"
	EventTypeLoanClosed         = "mortgage.loan_closed"
)

type mortgageEvent struct {
	evt *types.Event
}

func (e mortgageEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e mortgageEvent) Event() *types.Event { return e.evt }

// NewRequestSubmittedEvent is the signal consumed by the off-chain
// underwriting pipeline.
func NewRequestSubmittedEvent(borrower [20]byte, fingerprint [32]byte) *types.Event {
	return &types.Event{Type: EventTypeRequestSubmitted, Attributes: map[string]string{
		"borrower":    hex.EncodeToString(borrower[:]),
		"fingerprint": hex.EncodeToString(fingerprint[:]),
	}}
}

// NewVerdictRecordedEvent marks the consumption of an underwriting verdict.
func NewVerdictRecordedEvent(borrower [20]byte, fingerprint [32]byte, approved bool) *types.Event {
	return &types.Event{Type: EventTypeVerdictRecorded, Attributes: map[string]string{
		"borrower":    hex.EncodeToString(borrower[:]),
		"fingerprint": hex.EncodeToString(fingerprint[:]),
		"approved":    strconv.FormatBool(approved),
	}}
}

// NewLoanClaimedEvent marks loan activation and disbursement.
func NewLoanClaimedEvent(loan *Loan) *types.Event {
	attrs := loanAttrs(loan)
	attrs["rateBps"] = strconv.FormatUint(loan.AnnualRateBps, 10)
	attrs["tenureMonths"] = strconv.FormatUint(loan.TenureMonths, 10)
	return &types.Event{Type: EventTypeLoanClaimed, Attributes: attrs}
}

// NewPaymentRecordedEvent marks one periodic installment.
func NewPaymentRecordedEvent(loan *Loan, amount, interest, principal *big.Int) *types.Event {
	attrs := loanAttrs(loan)
	attrs["amount"] = amount.String()
	attrs["interest"] = interest.String()
	attrs["principal"] = principal.String()
	return &types.Event{Type: EventTypePaymentRecorded, Attributes: attrs}
}

// NewPaymentMissedEvent marks one recorded missed payment short of the
// default threshold.
func NewPaymentMissedEvent(loan *Loan) *types.Event {
	attrs := loanAttrs(loan)
	attrs["missedPayments"] = strconv.FormatUint(uint64(loan.MissedPayments), 10)
	return &types.Event{Type: EventTypePaymentMissed, Attributes: attrs}
}

// NewLoanDefaultedEvent marks the transition to liquidation.
func NewLoanDefaultedEvent(loan *Loan, liquidationID string) *types.Event {
	attrs := loanAttrs(loan)
	attrs["liquidationId"] = liquidationID
	return &types.Event{Type: EventTypeLoanDefaulted, Attributes: attrs}
}

// NewLiquidationSettledEvent marks the distribution of auction proceeds.
func NewLiquidationSettledEvent(loan *Loan, proceeds, recovered, surplus, shortfall *big.Int) *types.Event {
	attrs := loanAttrs(loan)
	attrs["proceeds"] = proceeds.String()
	attrs["recovered"] = recovered.String()
	attrs["surplus"] = surplus.String()
	attrs["shortfall"] = shortfall.String()
	if shortfall.Sign() > 0 {
		attrs["outcome"] = "shortfall"
	} else {
		attrs["outcome"] = "full"
	}
	return &types.Event{Type: EventTypeLiquidationSettled, Attributes: attrs}
}

// NewLoanClosedEvent marks the terminal transition with its cause.
func NewLoanClosedEvent(loan *Loan, cause string) *types.Event {
	attrs := loanAttrs(loan)
	attrs["cause"] = cause
	return &types.Event{Type: EventTypeLoanClosed, Attributes: attrs}
}

func loanAttrs(loan *Loan) map[string]string {
	attrs := make(map[string]string)
	if loan == nil {
		return attrs
	}
	attrs["loanId"] = strconv.FormatUint(loan.ID, 10)
	attrs["borrower"] = hex.EncodeToString(loan.Borrower[:])
	attrs["collateralId"] = strconv.FormatUint(loan.CollateralID, 10)
	attrs["status"] = loan.Status.String()
	if loan.RemainingPrincipal != nil {
		attrs["remainingPrincipal"] = loan.RemainingPrincipal.String()
	}
	return attrs
}
