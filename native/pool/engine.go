package pool

import (
	"errors"
	"math/big"

	"github.com/SamAg19/SealBid/core/events"
	"github.com/SamAg19/SealBid/core/types"
	nativecommon "github.com/SamAg19/SealBid/native/common"
)

var (
	// ErrAmountZero rejects operations invoked with a nil or non-positive
	// amount.
	ErrAmountZero = errors.New("pool engine: amount must be positive")
	// ErrInsufficientBalance signals the caller lacks the funds or shares
	// the operation requires.
	ErrInsufficientBalance = errors.New("pool engine: insufficient balance")
	// ErrInsufficientLiquidity signals the liquid reserve cannot cover the
	// requested outflow. Principal lent out is not withdrawable until it is
	// repaid.
	ErrInsufficientLiquidity = errors.New("pool engine: insufficient liquidity")
	// ErrNotDisburser rejects restricted entry points invoked by anyone
	// other than the authorized disburser.
	ErrNotDisburser = errors.New("pool engine: caller is not the authorized disburser")
	// ErrDisburserAlreadySet rejects a second attempt to bind the
	// authorized disburser.
	ErrDisburserAlreadySet = errors.New("pool engine: disburser already set")
	// ErrNotOwner rejects owner-restricted entry points.
	ErrNotOwner = errors.New("pool engine: caller is not the owner")
	// ErrZeroAddress rejects the zero address where a real participant is
	// required.
	ErrZeroAddress = errors.New("pool engine: zero address")
	// ErrReentrantCall signals an operation was re-entered before the
	// previous invocation completed.
	ErrReentrantCall = errors.New("pool engine: reentrant call")
	// ErrRepayInvariant signals repayment accounting received portions that
	// violate the ledger invariants. This indicates a bug in the trusted
	// caller and must halt rather than clamp.
	ErrRepayInvariant = errors.New("pool engine: repay accounting invariant violated")

	errNilState = errors.New("pool engine: state not configured")
)

// precision is the fixed-point scale of the exchange rate. An empty pool
// quotes exactly one precision unit per share, yielding a 1:1 first mint.
var precision = big.NewInt(1_000_000_000_000_000_000)

const moduleName = "pool"

type engineState interface {
	PoolGet() (*State, error)
	PoolPut(*State) error
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
}

// Engine owns the exchange-rate share accounting for the liquidity pool. All
// mutation of the reserve, share supply and outstanding-principal counters
// flows through its methods; the vault account holding the reserve USDC is
// addressed by moduleAddress.
type Engine struct {
	state         engineState
	moduleAddress [20]byte
	owner         [20]byte
	disburser     [20]byte
	disburserSet  bool
	emitter       events.Emitter
	pauses        nativecommon.PauseView
	inProgress    bool
}

// NewEngine constructs a pool engine bound to the vault account and the
// governance owner permitted to set the authorized disburser.
func NewEngine(moduleAddr, owner [20]byte) *Engine {
	return &Engine{
		moduleAddress: moduleAddr,
		owner:         owner,
		emitter:       events.NoopEmitter{},
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetPauses configures the governance pause switches consulted on every
// mutating entry point.
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

// ModuleAddress returns the vault account holding the pool reserve.
func (e *Engine) ModuleAddress() [20]byte { return e.moduleAddress }

// SetAuthorizedDisburser binds the single address permitted to call Disburse
// and RepayInflow. The binding is owner-restricted and single-use.
func (e *Engine) SetAuthorizedDisburser(caller, addr [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if caller != e.owner {
		return ErrNotOwner
	}
	if addr == ([20]byte{}) {
		return ErrZeroAddress
	}
	if e.disburserSet {
		return ErrDisburserAlreadySet
	}
	e.disburser = addr
	e.disburserSet = true
	e.emit(NewDisburserSetEvent(addr))
	return nil
}

// ExchangeRate reports the current reserve value per receipt share at the
// fixed 1e18 precision. An empty pool quotes the unit rate.
func (e *Engine) ExchangeRate() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pool, err := e.loadPool()
	if err != nil {
		return nil, err
	}
	return exchangeRate(pool), nil
}

// AvailableLiquidity reports the liquid reserve currently withdrawable.
func (e *Engine) AvailableLiquidity() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pool, err := e.loadPool()
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(pool.ReserveUSDC), nil
}

// TotalPoolValue reports the reserve plus outstanding principal.
func (e *Engine) TotalPoolValue() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pool, err := e.loadPool()
	if err != nil {
		return nil, err
	}
	return new(big.Int).Add(pool.ReserveUSDC, pool.TotalLoaned), nil
}

// Deposit moves USDC from the caller into the reserve and mints receipt
// shares at the pre-transaction exchange rate, so no existing holder's claim
// is diluted. The minted share amount is returned.
func (e *Engine) Deposit(caller [20]byte, amount *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.leave()
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrAmountZero
	}

	pool, err := e.loadPool()
	if err != nil {
		return nil, err
	}
	callerAcc, err := e.loadAccount(caller)
	if err != nil {
		return nil, err
	}
	if callerAcc.BalanceUSDC.Cmp(amount) < 0 {
		return nil, ErrInsufficientBalance
	}
	vaultAcc, err := e.loadAccount(e.moduleAddress)
	if err != nil {
		return nil, err
	}

	rate := exchangeRate(pool)
	shares := new(big.Int).Mul(amount, precision)
	shares.Quo(shares, rate)

	callerAcc.BalanceUSDC = new(big.Int).Sub(callerAcc.BalanceUSDC, amount)
	vaultAcc.BalanceUSDC = new(big.Int).Add(vaultAcc.BalanceUSDC, amount)
	callerAcc.BalanceShares = new(big.Int).Add(callerAcc.BalanceShares, shares)

	pool.ReserveUSDC = new(big.Int).Add(pool.ReserveUSDC, amount)
	pool.ShareSupply = new(big.Int).Add(pool.ShareSupply, shares)

	if err := e.state.PutAccount(caller, callerAcc); err != nil {
		return nil, err
	}
	if err := e.state.PutAccount(e.moduleAddress, vaultAcc); err != nil {
		return nil, err
	}
	if err := e.state.PoolPut(pool); err != nil {
		return nil, err
	}

	e.emit(NewDepositedEvent(caller, amount, shares, exchangeRate(pool), pool))
	return shares, nil
}

// Withdraw burns the caller's receipt shares and releases the corresponding
// USDC from the reserve. The redemption is capped by the liquid reserve, not
// by total pool value.
func (e *Engine) Withdraw(caller [20]byte, shareAmount *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.leave()
	if shareAmount == nil || shareAmount.Sign() <= 0 {
		return nil, ErrAmountZero
	}

	pool, err := e.loadPool()
	if err != nil {
		return nil, err
	}
	callerAcc, err := e.loadAccount(caller)
	if err != nil {
		return nil, err
	}
	if callerAcc.BalanceShares.Cmp(shareAmount) < 0 {
		return nil, ErrInsufficientBalance
	}

	amountOut := new(big.Int).Mul(shareAmount, exchangeRate(pool))
	amountOut.Quo(amountOut, precision)
	if amountOut.Cmp(pool.ReserveUSDC) > 0 {
		return nil, ErrInsufficientLiquidity
	}

	vaultAcc, err := e.loadAccount(e.moduleAddress)
	if err != nil {
		return nil, err
	}
	if vaultAcc.BalanceUSDC.Cmp(amountOut) < 0 {
		return nil, ErrInsufficientLiquidity
	}

	callerAcc.BalanceShares = new(big.Int).Sub(callerAcc.BalanceShares, shareAmount)
	vaultAcc.BalanceUSDC = new(big.Int).Sub(vaultAcc.BalanceUSDC, amountOut)
	callerAcc.BalanceUSDC = new(big.Int).Add(callerAcc.BalanceUSDC, amountOut)

	pool.ShareSupply = new(big.Int).Sub(pool.ShareSupply, shareAmount)
	pool.ReserveUSDC = new(big.Int).Sub(pool.ReserveUSDC, amountOut)

	if err := e.state.PutAccount(caller, callerAcc); err != nil {
		return nil, err
	}
	if err := e.state.PutAccount(e.moduleAddress, vaultAcc); err != nil {
		return nil, err
	}
	if err := e.state.PoolPut(pool); err != nil {
		return nil, err
	}

	e.emit(NewWithdrawnEvent(caller, shareAmount, amountOut, pool))
	return amountOut, nil
}

// Disburse transfers principal from the reserve to the borrower on behalf of
// the authorized disburser. This is the only operation that reduces the
// reserve without burning shares; the exposure is recovered through
// subsequent repayment inflows.
func (e *Engine) Disburse(caller, borrower [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	if !e.disburserSet || caller != e.disburser {
		return ErrNotDisburser
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrAmountZero
	}
	if borrower == ([20]byte{}) {
		return ErrZeroAddress
	}

	pool, err := e.loadPool()
	if err != nil {
		return err
	}
	if amount.Cmp(pool.ReserveUSDC) > 0 {
		return ErrInsufficientLiquidity
	}

	vaultAcc, err := e.loadAccount(e.moduleAddress)
	if err != nil {
		return err
	}
	if vaultAcc.BalanceUSDC.Cmp(amount) < 0 {
		return ErrInsufficientLiquidity
	}
	borrowerAcc, err := e.loadAccount(borrower)
	if err != nil {
		return err
	}

	vaultAcc.BalanceUSDC = new(big.Int).Sub(vaultAcc.BalanceUSDC, amount)
	borrowerAcc.BalanceUSDC = new(big.Int).Add(borrowerAcc.BalanceUSDC, amount)

	pool.ReserveUSDC = new(big.Int).Sub(pool.ReserveUSDC, amount)
	pool.TotalLoaned = new(big.Int).Add(pool.TotalLoaned, amount)

	if err := e.state.PutAccount(e.moduleAddress, vaultAcc); err != nil {
		return err
	}
	if err := e.state.PutAccount(borrower, borrowerAcc); err != nil {
		return err
	}
	if err := e.state.PoolPut(pool); err != nil {
		return err
	}

	e.emit(NewDisbursedEvent(borrower, amount, pool))
	return nil
}

// RepayInflow accounts for a repayment the authorized disburser has already
// moved into the vault. The principal portion retires outstanding exposure;
// the interest remainder stays in the reserve and organically raises the
// exchange rate for all shareholders.
func (e *Engine) RepayInflow(caller [20]byte, fullAmount, principalPortion *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	if !e.disburserSet || caller != e.disburser {
		return ErrNotDisburser
	}
	if fullAmount == nil || fullAmount.Sign() <= 0 {
		return ErrAmountZero
	}
	if principalPortion == nil || principalPortion.Sign() < 0 {
		return ErrRepayInvariant
	}

	pool, err := e.loadPool()
	if err != nil {
		return err
	}
	if principalPortion.Cmp(fullAmount) > 0 {
		return ErrRepayInvariant
	}
	if principalPortion.Cmp(pool.TotalLoaned) > 0 {
		return ErrRepayInvariant
	}

	pool.ReserveUSDC = new(big.Int).Add(pool.ReserveUSDC, fullAmount)
	pool.TotalLoaned = new(big.Int).Sub(pool.TotalLoaned, principalPortion)

	if err := e.state.PoolPut(pool); err != nil {
		return err
	}

	e.emit(NewRepaidEvent(fullAmount, principalPortion, exchangeRate(pool), pool))
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
	e.emitter.Emit(poolEvent{evt: event})
}

func (e *Engine) loadPool() (*State, error) {
	pool, err := e.state.PoolGet()
	if err != nil {
		return nil, err
	}
	return ensureState(pool), nil
}

func (e *Engine) loadAccount(addr [20]byte) (*types.Account, error) {
	acc, err := e.state.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	return ensureAccount(acc), nil
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

// exchangeRate computes reserve * precision / shareSupply, defaulting to the
// unit rate while no shares exist.
func exchangeRate(pool *State) *big.Int {
	if pool == nil || pool.ShareSupply == nil || pool.ShareSupply.Sign() == 0 {
		return new(big.Int).Set(precision)
	}
	rate := new(big.Int).Mul(pool.ReserveUSDC, precision)
	return rate.Quo(rate, pool.ShareSupply)
}
