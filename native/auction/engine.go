package auction

import (
	"errors"
	"math/big"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/SamAg19/SealBid/core/events"
	"github.com/SamAg19/SealBid/core/types"
	nativecommon "github.com/SamAg19/SealBid/native/common"
)

var (
	// ErrAuctionInProgress rejects a second liquidation for collateral that
	// already has an unsettled listing.
	ErrAuctionInProgress = errors.New("auction engine: liquidation already in progress")
	// ErrListingNotFound signals an unknown liquidation identifier.
	ErrListingNotFound = errors.New("auction engine: listing not found")
	// ErrAlreadySettled rejects a duplicate settlement callback.
	ErrAlreadySettled = errors.New("auction engine: listing already settled")
	// ErrNotSettler rejects settlement callbacks from any address other than
	// the registered auction operator.
	ErrNotSettler = errors.New("auction engine: caller is not the registered settler")
	// ErrInvalidReserve rejects a listing without a positive reserve price.
	ErrInvalidReserve = errors.New("auction engine: reserve price must be positive")
	// ErrInvalidProceeds rejects settlement with nil or negative proceeds.
	ErrInvalidProceeds = errors.New("auction engine: proceeds must be non-negative")

	errNilState = errors.New("auction engine: state not configured")
	errNilSink  = errors.New("auction engine: settlement sink not configured")
)

const moduleName = "auction"

const (
	EventTypeLiquidationInitiated = "auction.liquidation_initiated"
	EventTypeLiquidationSettled   = "auction.settled"
)

// Listing records one collateral lot handed off for sealed-bid liquidation.
// Bid escrow, bid privacy and clearing-price selection run inside the
// external auction operator; the engine only tracks the hand-off and the
// settlement callback.
type Listing struct {
	ID           string
	CollateralID uint64
	ReservePrice *big.Int
	Deadline     int64
	Settled      bool
	Proceeds     *big.Int
}

// Clone returns a deep copy of the listing.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	clone := *l
	if l.ReservePrice != nil {
		clone.ReservePrice = new(big.Int).Set(l.ReservePrice)
	}
	if l.Proceeds != nil {
		clone.Proceeds = new(big.Int).Set(l.Proceeds)
	}
	return &clone
}

type auctionState interface {
	ListingGet(id string) (*Listing, bool, error)
	ListingPut(*Listing) error
	ListingIDByCollateral(collateralID uint64) (string, bool, error)
	ListingIndexPut(collateralID uint64, id string) error
	ListingIndexDelete(collateralID uint64) error
}

// SettlementSink receives the proceeds callback once a liquidation clears.
// The loan manager implements it.
type SettlementSink interface {
	LiquidationSettled(collateralID uint64, proceeds *big.Int) error
}

type auctionEvent struct {
	evt *types.Event
}

func (e auctionEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e auctionEvent) Event() *types.Event { return e.evt }

// Engine tracks liquidation listings and authenticates the settlement
// callback from the external sealed-bid operator.
type Engine struct {
	state   auctionState
	settler [20]byte
	sink    SettlementSink
	emitter events.Emitter
	pauses  nativecommon.PauseView
	newID   func() string
}

// NewEngine constructs an auction engine authenticating settlements against
// the operator address.
func NewEngine(settler [20]byte) *Engine {
	return &Engine{
		settler: settler,
		emitter: events.NoopEmitter{},
		newID:   uuid.NewString,
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state auctionState) { e.state = state }

// SetSink registers the settlement callback target.
func (e *Engine) SetSink(sink SettlementSink) {
	if e == nil {
		return
	}
	e.sink = sink
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

// SetIDFunc overrides the liquidation identifier source. Primarily intended
// for tests to provide deterministic identifiers.
func (e *Engine) SetIDFunc(fn func() string) {
	if e == nil {
		return
	}
	if fn == nil {
		e.newID = uuid.NewString
		return
	}
	e.newID = fn
}

// Initiate opens a liquidation listing for the collateral with the supplied
// reserve price and bidding deadline, returning the liquidation identifier.
func (e *Engine) Initiate(collateralID uint64, reservePrice *big.Int, deadline int64) (string, error) {
	if e == nil || e.state == nil {
		return "", errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return "", err
	}
	if reservePrice == nil || reservePrice.Sign() <= 0 {
		return "", ErrInvalidReserve
	}
	if _, ok, err := e.state.ListingIDByCollateral(collateralID); err != nil {
		return "", err
	} else if ok {
		return "", ErrAuctionInProgress
	}

	listing := &Listing{
		ID:           strings.TrimSpace(e.newID()),
		CollateralID: collateralID,
		ReservePrice: new(big.Int).Set(reservePrice),
		Deadline:     deadline,
	}
	if err := e.state.ListingPut(listing); err != nil {
		return "", err
	}
	if err := e.state.ListingIndexPut(collateralID, listing.ID); err != nil {
		return "", err
	}

	e.emit(&types.Event{Type: EventTypeLiquidationInitiated, Attributes: map[string]string{
		"liquidationId": listing.ID,
		"collateralId":  strconv.FormatUint(collateralID, 10),
		"reservePrice":  listing.ReservePrice.String(),
		"deadline":      strconv.FormatInt(deadline, 10),
	}})
	return listing.ID, nil
}

// Settle records the clearing proceeds reported by the auction operator and
// forwards them to the settlement sink. The operator is trusted to have moved
// the proceeds to the loan manager's escrow account before calling.
func (e *Engine) Settle(caller [20]byte, liquidationID string, proceeds *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if caller != e.settler {
		return ErrNotSettler
	}
	if proceeds == nil || proceeds.Sign() < 0 {
		return ErrInvalidProceeds
	}
	if e.sink == nil {
		return errNilSink
	}

	listing, ok, err := e.state.ListingGet(strings.TrimSpace(liquidationID))
	if err != nil {
		return err
	}
	if !ok {
		return ErrListingNotFound
	}
	if listing.Settled {
		return ErrAlreadySettled
	}

	// The sink call runs first: if the loan manager rejects the settlement
	// the listing stays open and the operator can retry.
	if err := e.sink.LiquidationSettled(listing.CollateralID, new(big.Int).Set(proceeds)); err != nil {
		return err
	}

	listing = listing.Clone()
	listing.Settled = true
	listing.Proceeds = new(big.Int).Set(proceeds)
	if err := e.state.ListingPut(listing); err != nil {
		return err
	}
	if err := e.state.ListingIndexDelete(listing.CollateralID); err != nil {
		return err
	}

	e.emit(&types.Event{Type: EventTypeLiquidationSettled, Attributes: map[string]string{
		"liquidationId": listing.ID,
		"collateralId":  strconv.FormatUint(listing.CollateralID, 10),
		"proceeds":      proceeds.String(),
	}})
	return nil
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(auctionEvent{evt: event})
}
