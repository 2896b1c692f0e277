package mortgage

import (
	"errors"
	"math/big"

	"github.com/SamAg19/SealBid/core/events"
	"github.com/SamAg19/SealBid/core/types"
	nativecommon "github.com/SamAg19/SealBid/native/common"
)

var (
	// ErrRequestPending rejects a submission while one is already awaiting a
	// verdict.
	ErrRequestPending = errors.New("mortgage engine: request already pending")
	// ErrActiveLoan rejects submissions and claims while the borrower holds
	// an active loan.
	ErrActiveLoan = errors.New("mortgage engine: borrower already has an active loan")
	// ErrNoPendingRequest signals a verdict arrived for a borrower without
	// an outstanding request.
	ErrNoPendingRequest = errors.New("mortgage engine: no pending request")
	// ErrRequestMismatch signals the fingerprint does not match the stored
	// request or approval.
	ErrRequestMismatch = errors.New("mortgage engine: request fingerprint mismatch")
	// ErrNoApproval signals a claim without a stored approval.
	ErrNoApproval = errors.New("mortgage engine: no approval on record")
	// ErrApprovalExpired signals the approval lapsed before it was claimed.
	ErrApprovalExpired = errors.New("mortgage engine: approval expired")
	// ErrLoanNotFound signals an unknown loan identifier.
	ErrLoanNotFound = errors.New("mortgage engine: loan not found")
	// ErrLoanNotActive rejects repayment or default tracking on a loan that
	// is not active.
	ErrLoanNotActive = errors.New("mortgage engine: loan not active")
	// ErrLoanNotDefaulted rejects liquidation settlement on a loan that has
	// not defaulted.
	ErrLoanNotDefaulted = errors.New("mortgage engine: loan not defaulted")
	// ErrNotBorrower rejects repayment from anyone but the borrower.
	ErrNotBorrower = errors.New("mortgage engine: caller is not the borrower")
	// ErrPaymentNotDue rejects default tracking before the due date
	// elapses.
	ErrPaymentNotDue = errors.New("mortgage engine: payment not overdue")
	// ErrInsufficientLiquidity rejects a claim the pool cannot fund. The
	// pool's own check stays authoritative during disbursement.
	ErrInsufficientLiquidity = errors.New("mortgage engine: insufficient pool liquidity")
	// ErrNotAuction rejects settlement callbacks from any address other
	// than the registered auction subsystem.
	ErrNotAuction = errors.New("mortgage engine: caller is not the auction subsystem")
	// ErrNotOwner rejects owner-restricted entry points.
	ErrNotOwner = errors.New("mortgage engine: caller is not the owner")
	// ErrInvalidRate rejects interest rates outside (0, 10000] basis
	// points.
	ErrInvalidRate = errors.New("mortgage engine: invalid interest rate")
	// ErrInsufficientBalance signals the borrower cannot cover the
	// periodic payment.
	ErrInsufficientBalance = errors.New("mortgage engine: insufficient balance")
	// ErrInvalidProceeds rejects nil or negative liquidation proceeds.
	ErrInvalidProceeds = errors.New("mortgage engine: proceeds must be non-negative")
	// ErrReentrantCall signals an operation was re-entered before the
	// previous invocation completed.
	ErrReentrantCall = errors.New("mortgage engine: reentrant call")
	// ErrPaymentInvariant signals the interest portion exceeded the
	// periodic payment. The schedule is corrupt; halt rather than clamp.
	ErrPaymentInvariant = errors.New("mortgage engine: payment accounting invariant violated")

	errNilState = errors.New("mortgage engine: state not configured")
	errNilPool  = errors.New("mortgage engine: pool not configured")
	errNilDeeds = errors.New("mortgage engine: collateral registry not configured")
)

const moduleName = "mortgage"

const (
	// PeriodSeconds is one repayment period.
	PeriodSeconds int64 = 30 * 24 * 60 * 60
	// DefaultThreshold is the consecutive-missed-payment count that forces
	// liquidation.
	DefaultThreshold uint8 = 3
	// DefaultLiquidationWindow bounds the sealed-bid window opened for a
	// defaulted loan.
	DefaultLiquidationWindow int64 = 7 * 24 * 60 * 60

	monthsPerYear = 12
	basisPoints   = 10_000
)

type engineState interface {
	LoanGet(id uint64) (*Loan, bool, error)
	LoanPut(*Loan) error
	LoanNextID() (uint64, error)
	ActiveLoanIDByBorrower(addr [20]byte) (uint64, bool, error)
	SetActiveLoanForBorrower(addr [20]byte, id uint64) error
	ClearActiveLoanForBorrower(addr [20]byte) error
	LoanIDByCollateral(collateralID uint64) (uint64, bool, error)
	SetLoanForCollateral(collateralID uint64, id uint64) error
	ClearLoanForCollateral(collateralID uint64) error
	PendingRequestGet(addr [20]byte) ([32]byte, bool, error)
	PendingRequestPut(addr [20]byte, fingerprint [32]byte) error
	PendingRequestDelete(addr [20]byte) error
	ApprovalGet(addr [20]byte) (*Approval, bool, error)
	ApprovalPut(*Approval) error
	ApprovalDelete(addr [20]byte) error
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
	Snapshot() int
	RevertToSnapshot(id int)
	DiscardSnapshot(id int)
}

type poolLender interface {
	Disburse(caller, borrower [20]byte, amount *big.Int) error
	RepayInflow(caller [20]byte, fullAmount, principalPortion *big.Int) error
	AvailableLiquidity() (*big.Int, error)
	ModuleAddress() [20]byte
}

type collateralCustodian interface {
	OwnerOf(id uint64) ([20]byte, error)
	Transfer(from, to [20]byte, id uint64) error
}

type liquidationStarter interface {
	Initiate(collateralID uint64, reservePrice *big.Int, deadline int64) (string, error)
}

// Engine owns the full mortgage lifecycle: request anchoring, verdict
// consumption, loan activation, repayment accounting, default tracking and
// liquidation-proceeds distribution. moduleAddress is the escrow account that
// holds collateral custody and receives liquidation proceeds.
type Engine struct {
	state             engineState
	moduleAddress     [20]byte
	owner             [20]byte
	oracle            [20]byte
	auctionAddress    [20]byte
	rateBps           uint64
	liquidationWindow int64
	pool              poolLender
	deeds             collateralCustodian
	auctions          liquidationStarter
	emitter           events.Emitter
	pauses            nativecommon.PauseView
	inProgress        bool
}

// NewEngine constructs a loan manager. The oracle and auction addresses are
// fixed at construction and cannot be changed afterwards.
func NewEngine(moduleAddr, owner, oracle, auctionAddr [20]byte, rateBps uint64) *Engine {
	return &Engine{
		moduleAddress:     moduleAddr,
		owner:             owner,
		oracle:            oracle,
		auctionAddress:    auctionAddr,
		rateBps:           rateBps,
		liquidationWindow: DefaultLiquidationWindow,
		emitter:           events.NoopEmitter{},
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetPool wires the liquidity pool used for disbursements and repayment
// accounting.
func (e *Engine) SetPool(p poolLender) {
	if e == nil {
		return
	}
	e.pool = p
}

// SetCollateralRegistry wires the deed registry holding property collateral.
func (e *Engine) SetCollateralRegistry(r collateralCustodian) {
	if e == nil {
		return
	}
	e.deeds = r
}

// SetAuctions wires the liquidation subsystem used for defaulted collateral.
func (e *Engine) SetAuctions(a liquidationStarter) {
	if e == nil {
		return
	}
	e.auctions = a
}

// SetLiquidationWindow overrides the sealed-bid window length in seconds.
func (e *Engine) SetLiquidationWindow(seconds int64) {
	if e == nil || seconds <= 0 {
		return
	}
	e.liquidationWindow = seconds
}

// SetPauses configures the governance pause switches.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// ModuleAddress returns the custody/escrow account of the loan manager.
func (e *Engine) ModuleAddress() [20]byte { return e.moduleAddress }

// InterestRateBps returns the rate applied to newly originated loans.
func (e *Engine) InterestRateBps() uint64 { return e.rateBps }

// SetInterestRate updates the rate applied to loans originated after the
// change. Existing loans retain the rate they were claimed at.
func (e *Engine) SetInterestRate(caller [20]byte, bps uint64) error {
	if caller != e.owner {
		return ErrNotOwner
	}
	if bps == 0 || bps > basisPoints {
		return ErrInvalidRate
	}
	e.rateBps = bps
	return nil
}

// SubmitRequest anchors the borrower's opaque request fingerprint and emits
// the signal consumed by the off-chain underwriting pipeline. Exactly one
// request may be outstanding per borrower.
func (e *Engine) SubmitRequest(borrower [20]byte, fingerprint [32]byte, now int64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if _, ok, err := e.state.PendingRequestGet(borrower); err != nil {
		return err
	} else if ok {
		return ErrRequestPending
	}
	if _, ok, err := e.state.ActiveLoanIDByBorrower(borrower); err != nil {
		return err
	} else if ok {
		return ErrActiveLoan
	}
	if err := e.atomic(func() error {
		// A lapsed approval from an earlier cycle no longer binds anything;
		// clear it so the fresh cycle starts from a clean slate.
		if approval, ok, err := e.state.ApprovalGet(borrower); err != nil {
			return err
		} else if ok && now > approval.Expiry {
			if err := e.state.ApprovalDelete(borrower); err != nil {
				return err
			}
		}
		return e.state.PendingRequestPut(borrower, fingerprint)
	}); err != nil {
		return err
	}
	e.emit(NewRequestSubmittedEvent(borrower, fingerprint))
	return nil
}

// consumeVerdict clears the pending request and, when approved, stores the
// single-use approval carrying every financial term of the future loan.
func (e *Engine) consumeVerdict(v verdictTerms) error {
	pending, ok, err := e.state.PendingRequestGet(v.borrower)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoPendingRequest
	}
	if pending != v.fingerprint {
		return ErrRequestMismatch
	}
	if err := e.atomic(func() error {
		if err := e.state.PendingRequestDelete(v.borrower); err != nil {
			return err
		}
		if !v.approved {
			return nil
		}
		return e.state.ApprovalPut(&Approval{
			Borrower:        v.borrower,
			Fingerprint:     v.fingerprint,
			CollateralID:    v.collateralID,
			Limit:           new(big.Int).Set(v.limit),
			TenureMonths:    v.tenureMonths,
			PeriodicPayment: new(big.Int).Set(v.periodicPayment),
			Expiry:          v.expiry,
		})
	}); err != nil {
		return err
	}
	e.emit(NewVerdictRecordedEvent(v.borrower, v.fingerprint, v.approved))
	return nil
}

// ClaimLoan consumes the stored approval, locks the collateral into custody,
// originates the loan and draws the principal from the pool. Every financial
// term is read from the approval; the caller supplies only the fingerprint.
func (e *Engine) ClaimLoan(borrower [20]byte, fingerprint [32]byte, now int64) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	if e.pool == nil {
		return 0, errNilPool
	}
	if e.deeds == nil {
		return 0, errNilDeeds
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return 0, err
	}
	if err := e.enter(); err != nil {
		return 0, err
	}
	defer e.leave()

	approval, ok, err := e.state.ApprovalGet(borrower)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrNoApproval
	}
	if now > approval.Expiry {
		if err := e.state.ApprovalDelete(borrower); err != nil {
			return 0, err
		}
		return 0, ErrApprovalExpired
	}
	if approval.Fingerprint != fingerprint {
		return 0, ErrRequestMismatch
	}
	if _, ok, err := e.state.ActiveLoanIDByBorrower(borrower); err != nil {
		return 0, err
	} else if ok {
		return 0, ErrActiveLoan
	}
	owner, err := e.deeds.OwnerOf(approval.CollateralID)
	if err != nil {
		return 0, err
	}
	if owner != borrower {
		return 0, ErrNotBorrower
	}
	// The approval step already confirmed liquidity off-chain; re-checking
	// here rejects an underfunded claim before any record moves. The pool's
	// own check during disbursement stays authoritative.
	liquidity, err := e.pool.AvailableLiquidity()
	if err != nil {
		return 0, err
	}
	if liquidity.Cmp(approval.Limit) < 0 {
		return 0, ErrInsufficientLiquidity
	}

	var loan *Loan
	err = e.atomic(func() error {
		if err := e.state.ApprovalDelete(borrower); err != nil {
			return err
		}
		if err := e.deeds.Transfer(borrower, e.moduleAddress, approval.CollateralID); err != nil {
			return err
		}

		id, err := e.state.LoanNextID()
		if err != nil {
			return err
		}
		loan = &Loan{
			ID:                 id,
			Borrower:           borrower,
			CollateralID:       approval.CollateralID,
			Principal:          new(big.Int).Set(approval.Limit),
			RemainingPrincipal: new(big.Int).Set(approval.Limit),
			AnnualRateBps:      e.rateBps,
			TenureMonths:       approval.TenureMonths,
			PeriodicPayment:    new(big.Int).Set(approval.PeriodicPayment),
			NextDue:            now + PeriodSeconds,
			MissedPayments:     0,
			Status:             LoanActive,
		}
		if err := e.state.LoanPut(loan); err != nil {
			return err
		}
		if err := e.state.SetActiveLoanForBorrower(borrower, id); err != nil {
			return err
		}
		if err := e.state.SetLoanForCollateral(approval.CollateralID, id); err != nil {
			return err
		}

		return e.pool.Disburse(e.moduleAddress, borrower, approval.Limit)
	})
	if err != nil {
		return 0, err
	}

	e.emit(NewLoanClaimedEvent(loan))
	return loan.ID, nil
}

// Repay records one periodic payment: a month of simple interest on the
// outstanding balance plus the principal remainder. The full installment
// moves into the pool reserve; the principal portion retires pool exposure.
// Full repayment closes the loan and returns the collateral.
func (e *Engine) Repay(caller [20]byte, loanID uint64, now int64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.pool == nil {
		return errNilPool
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	loan, ok, err := e.state.LoanGet(loanID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLoanNotFound
	}
	if loan.Status != LoanActive {
		return ErrLoanNotActive
	}
	if caller != loan.Borrower {
		return ErrNotBorrower
	}

	interest := monthlyInterest(loan.RemainingPrincipal, loan.AnnualRateBps)
	principal := new(big.Int).Sub(loan.PeriodicPayment, interest)
	if principal.Sign() < 0 {
		return ErrPaymentInvariant
	}
	if principal.Cmp(loan.RemainingPrincipal) > 0 {
		principal = new(big.Int).Set(loan.RemainingPrincipal)
	}

	borrowerAcc, err := e.loadAccount(loan.Borrower)
	if err != nil {
		return err
	}
	if borrowerAcc.BalanceUSDC.Cmp(loan.PeriodicPayment) < 0 {
		return ErrInsufficientBalance
	}

	loan = loan.Clone()
	loan.RemainingPrincipal = new(big.Int).Sub(loan.RemainingPrincipal, principal)
	loan.MissedPayments = 0
	loan.NextDue += PeriodSeconds
	closed := loan.RemainingPrincipal.Sign() == 0

	err = e.atomic(func() error {
		if err := e.transferUSDC(loan.Borrower, e.pool.ModuleAddress(), loan.PeriodicPayment); err != nil {
			return err
		}
		if err := e.pool.RepayInflow(e.moduleAddress, loan.PeriodicPayment, principal); err != nil {
			return err
		}
		if closed {
			loan.Status = LoanClosed
			if err := e.state.ClearActiveLoanForBorrower(loan.Borrower); err != nil {
				return err
			}
			if err := e.state.ClearLoanForCollateral(loan.CollateralID); err != nil {
				return err
			}
			if e.deeds != nil {
				if err := e.deeds.Transfer(e.moduleAddress, loan.Borrower, loan.CollateralID); err != nil {
					return err
				}
			}
		}
		return e.state.LoanPut(loan)
	})
	if err != nil {
		return err
	}

	e.emit(NewPaymentRecordedEvent(loan, loan.PeriodicPayment, interest, principal))
	if closed {
		e.emit(NewLoanClosedEvent(loan, "repaid"))
	}
	return nil
}

// CheckDefault is the permissionless keeper entry point. Each call past the
// due date records one missed payment and advances the due date by one
// period, bounding call frequency; the third consecutive miss hands the
// collateral to the auction subsystem.
func (e *Engine) CheckDefault(loanID uint64, now int64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}

	loan, ok, err := e.state.LoanGet(loanID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLoanNotFound
	}
	if loan.Status != LoanActive {
		return ErrLoanNotActive
	}
	if now <= loan.NextDue {
		return ErrPaymentNotDue
	}

	loan = loan.Clone()
	loan.MissedPayments++
	loan.NextDue += PeriodSeconds

	if loan.MissedPayments >= DefaultThreshold {
		if e.deeds == nil {
			return errNilDeeds
		}
		if e.auctions == nil {
			return errors.New("mortgage engine: auction subsystem not configured")
		}
		loan.Status = LoanDefaulted
		var liquidationID string
		err = e.atomic(func() error {
			if err := e.deeds.Transfer(e.moduleAddress, e.auctionAddress, loan.CollateralID); err != nil {
				return err
			}
			liquidationID, err = e.auctions.Initiate(loan.CollateralID, loan.RemainingPrincipal, now+e.liquidationWindow)
			if err != nil {
				return err
			}
			return e.state.LoanPut(loan)
		})
		if err != nil {
			return err
		}
		e.emit(NewLoanDefaultedEvent(loan, liquidationID))
		return nil
	}

	if err := e.state.LoanPut(loan); err != nil {
		return err
	}
	e.emit(NewPaymentMissedEvent(loan))
	return nil
}

// OnLiquidationSettled distributes auction proceeds for a defaulted loan.
// The auction subsystem is trusted to have moved the proceeds into the loan
// manager's escrow account before calling. Recovery up to the outstanding
// debt flows into the pool; any surplus returns to the borrower; any
// shortfall is a realized loss socialized across shareholders through a
// lower exchange rate.
func (e *Engine) OnLiquidationSettled(caller [20]byte, collateralID uint64, proceeds *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.pool == nil {
		return errNilPool
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if caller != e.auctionAddress {
		return ErrNotAuction
	}
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	if proceeds == nil || proceeds.Sign() < 0 {
		return ErrInvalidProceeds
	}

	loanID, ok, err := e.state.LoanIDByCollateral(collateralID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLoanNotFound
	}
	loan, ok, err := e.state.LoanGet(loanID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLoanNotFound
	}
	if loan.Status != LoanDefaulted {
		return ErrLoanNotDefaulted
	}

	debt := new(big.Int).Set(loan.RemainingPrincipal)
	recovered := new(big.Int).Set(proceeds)
	surplus := big.NewInt(0)
	if recovered.Cmp(debt) >= 0 {
		recovered = debt
		surplus = new(big.Int).Sub(proceeds, debt)
	}

	loan = loan.Clone()
	shortfall := new(big.Int).Sub(debt, recovered)
	loan.RemainingPrincipal = big.NewInt(0)
	loan.Status = LoanClosed

	err = e.atomic(func() error {
		if recovered.Sign() > 0 {
			if err := e.transferUSDC(e.moduleAddress, e.pool.ModuleAddress(), recovered); err != nil {
				return err
			}
			if err := e.pool.RepayInflow(e.moduleAddress, recovered, recovered); err != nil {
				return err
			}
		}
		if surplus.Sign() > 0 {
			if err := e.transferUSDC(e.moduleAddress, loan.Borrower, surplus); err != nil {
				return err
			}
		}
		if err := e.state.ClearActiveLoanForBorrower(loan.Borrower); err != nil {
			return err
		}
		if err := e.state.ClearLoanForCollateral(loan.CollateralID); err != nil {
			return err
		}
		return e.state.LoanPut(loan)
	})
	if err != nil {
		return err
	}

	e.emit(NewLiquidationSettledEvent(loan, proceeds, recovered, surplus, shortfall))
	e.emit(NewLoanClosedEvent(loan, "liquidated"))
	return nil
}

// SettlementRelay adapts the engine to the auction subsystem's callback
// interface, binding the auction module address as the authenticated caller.
type SettlementRelay struct {
	engine *Engine
	from   [20]byte
}

// SettlementRelay returns the callback adapter registered with the auction
// engine.
func (e *Engine) SettlementRelay() *SettlementRelay {
	return &SettlementRelay{engine: e, from: e.auctionAddress}
}

// LiquidationSettled forwards the proceeds callback into the engine.
func (r *SettlementRelay) LiquidationSettled(collateralID uint64, proceeds *big.Int) error {
	return r.engine.OnLiquidationSettled(r.from, collateralID, proceeds)
}

// monthlyInterest computes one month of simple interest on the outstanding
// balance: remaining * bps / (10000 * 12), floor division.
func monthlyInterest(remaining *big.Int, annualRateBps uint64) *big.Int {
	if remaining == nil || remaining.Sign() <= 0 || annualRateBps == 0 {
		return big.NewInt(0)
	}
	interest := new(big.Int).Mul(remaining, new(big.Int).SetUint64(annualRateBps))
	return interest.Quo(interest, big.NewInt(basisPoints*monthsPerYear))
}

// atomic runs op inside a state snapshot. A failure anywhere in op, including
// inside a downstream engine sharing the same state, rolls back every record
// written since the snapshot, keeping each operation all-or-nothing.
func (e *Engine) atomic(op func() error) error {
	snap := e.state.Snapshot()
	if err := op(); err != nil {
		e.state.RevertToSnapshot(snap)
		return err
	}
	e.state.DiscardSnapshot(snap)
	return nil
}

func (e *Engine) enter() error {
	if e.inProgress {
		return ErrReentrantCall
	}
	e.inProgress = true
	return nil
}

func (e *Engine) leave() { e.inProgress = false }

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(mortgageEvent{evt: event})
}

func (e *Engine) loadAccount(addr [20]byte) (*types.Account, error) {
	acc, err := e.state.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	return ensureAccount(acc), nil
}

func (e *Engine) transferUSDC(from, to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	fromAcc, err := e.loadAccount(from)
	if err != nil {
		return err
	}
	if fromAcc.BalanceUSDC.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	toAcc, err := e.loadAccount(to)
	if err != nil {
		return err
	}
	fromAcc.BalanceUSDC = new(big.Int).Sub(fromAcc.BalanceUSDC, amount)
	toAcc.BalanceUSDC = new(big.Int).Add(toAcc.BalanceUSDC, amount)
	if err := e.state.PutAccount(from, fromAcc); err != nil {
		return err
	}
	return e.state.PutAccount(to, toAcc)
}

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		acc = &types.Account{}
	}
	if acc.BalanceUSDC == nil {
		acc.BalanceUSDC = big.NewInt(0)
	}
	if acc.BalanceShares == nil {
		acc.BalanceShares = big.NewInt(0)
	}
	return acc
}
