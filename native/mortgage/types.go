package mortgage

import "math/big"

// LoanStatus represents the lifecycle states of an originated mortgage.
type LoanStatus uint8

const (
	// LoanActive marks a disbursed loan inside its repayment schedule.
	LoanActive LoanStatus = iota + 1
	// LoanDefaulted marks a loan that missed the consecutive-payment
	// threshold and whose collateral is under liquidation.
	LoanDefaulted
	// LoanClosed marks a repaid or liquidated loan. Terminal.
	LoanClosed
)

// Valid reports whether the status value is within the supported range.
func (s LoanStatus) Valid() bool {
	switch s {
	case LoanActive, LoanDefaulted, LoanClosed:
		return true
	default:
		return false
	}
}

func (s LoanStatus) String() string {
	switch s {
	case LoanActive:
		return "active"
	case LoanDefaulted:
		return "defaulted"
	case LoanClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Loan captures the full repayment state for a single mortgage. Amounts are
// 6-decimal USDC integers.
type Loan struct {
	ID                 uint64
	Borrower           [20]byte
	CollateralID       uint64
	Principal          *big.Int
	RemainingPrincipal *big.Int
	AnnualRateBps      uint64
	TenureMonths       uint64
	PeriodicPayment    *big.Int
	NextDue            int64
	MissedPayments     uint8
	Status             LoanStatus
}

// Clone returns a deep copy of the loan so callers can safely mutate the copy
// without affecting the stored instance.
func (l *Loan) Clone() *Loan {
	if l == nil {
		return nil
	}
	clone := *l
	if l.Principal != nil {
		clone.Principal = new(big.Int).Set(l.Principal)
	}
	if l.RemainingPrincipal != nil {
		clone.RemainingPrincipal = new(big.Int).Set(l.RemainingPrincipal)
	}
	if l.PeriodicPayment != nil {
		clone.PeriodicPayment = new(big.Int).Set(l.PeriodicPayment)
	}
	return &clone
}

// Approval is the single-use, time-bounded credit decision produced by the
// off-chain underwriting pipeline. It is consumed exactly once by ClaimLoan
// or allowed to lapse after Expiry.
type Approval struct {
	Borrower        [20]byte
	Fingerprint     [32]byte
	CollateralID    uint64
	Limit           *big.Int
	TenureMonths    uint64
	PeriodicPayment *big.Int
	Expiry          int64
}

// Clone returns a deep copy of the approval.
func (a *Approval) Clone() *Approval {
	if a == nil {
		return nil
	}
	clone := *a
	if a.Limit != nil {
		clone.Limit = new(big.Int).Set(a.Limit)
	}
	if a.PeriodicPayment != nil {
		clone.PeriodicPayment = new(big.Int).Set(a.PeriodicPayment)
	}
	return &clone
}
