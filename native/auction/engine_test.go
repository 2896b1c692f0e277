package auction

import (
	"errors"
	"fmt"
	"math/big"
	"testing"
)

type mockState struct {
	listings map[string]*Listing
	byDeed   map[uint64]string
}

func newMockState() *mockState {
	return &mockState{listings: make(map[string]*Listing), byDeed: make(map[uint64]string)}
}

func (m *mockState) ListingGet(id string) (*Listing, bool, error) {
	listing, ok := m.listings[id]
	if !ok {
		return nil, false, nil
	}
	return listing.Clone(), true, nil
}

func (m *mockState) ListingPut(listing *Listing) error {
	m.listings[listing.ID] = listing.Clone()
	return nil
}

func (m *mockState) ListingIDByCollateral(collateralID uint64) (string, bool, error) {
	id, ok := m.byDeed[collateralID]
	return id, ok, nil
}

func (m *mockState) ListingIndexPut(collateralID uint64, id string) error {
	m.byDeed[collateralID] = id
	return nil
}

func (m *mockState) ListingIndexDelete(collateralID uint64) error {
	delete(m.byDeed, collateralID)
	return nil
}

type recordingSink struct {
	collateralID uint64
	proceeds     *big.Int
	calls        int
	err          error
}

func (s *recordingSink) LiquidationSettled(collateralID uint64, proceeds *big.Int) error {
	s.calls++
	s.collateralID = collateralID
	s.proceeds = new(big.Int).Set(proceeds)
	return s.err
}

func testAddr(fill byte) [20]byte {
	var out [20]byte
	for i := range out {
		out[i] = fill
	}
	return out
}

func newTestEngine() (*Engine, *mockState, *recordingSink, [20]byte) {
	settler := testAddr(0x03)
	engine := NewEngine(settler)
	state := newMockState()
	engine.SetState(state)
	sink := &recordingSink{}
	engine.SetSink(sink)
	seq := 0
	engine.SetIDFunc(func() string {
		seq++
		return fmt.Sprintf("liq-%d", seq)
	})
	return engine, state, sink, settler
}

func TestInitiateCreatesListing(t *testing.T) {
	engine, state, _, _ := newTestEngine()

	id, err := engine.Initiate(7, big.NewInt(500_000), 1_700_000_000)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if id != "liq-1" {
		t.Fatalf("unexpected identifier: %s", id)
	}
	listing := state.listings[id]
	if listing == nil {
		t.Fatalf("listing not stored")
	}
	if listing.CollateralID != 7 || listing.Deadline != 1_700_000_000 {
		t.Fatalf("listing fields wrong: %+v", listing)
	}
	if listing.ReservePrice.Cmp(big.NewInt(500_000)) != 0 {
		t.Fatalf("unexpected reserve: %s", listing.ReservePrice)
	}
	if listing.Settled {
		t.Fatalf("fresh listing marked settled")
	}
}

func TestInitiateRejectsDuplicateCollateral(t *testing.T) {
	engine, _, _, _ := newTestEngine()
	if _, err := engine.Initiate(7, big.NewInt(100), 10); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if _, err := engine.Initiate(7, big.NewInt(100), 20); !errors.Is(err, ErrAuctionInProgress) {
		t.Fatalf("expected in-progress rejection, got %v", err)
	}
}

func TestInitiateRejectsNonPositiveReserve(t *testing.T) {
	engine, _, _, _ := newTestEngine()
	if _, err := engine.Initiate(7, big.NewInt(0), 10); !errors.Is(err, ErrInvalidReserve) {
		t.Fatalf("expected reserve rejection, got %v", err)
	}
	if _, err := engine.Initiate(7, nil, 10); !errors.Is(err, ErrInvalidReserve) {
		t.Fatalf("expected nil reserve rejection, got %v", err)
	}
}

func TestSettleForwardsProceedsToSink(t *testing.T) {
	engine, state, sink, settler := newTestEngine()
	id, err := engine.Initiate(7, big.NewInt(100), 10)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	if err := engine.Settle(settler, id, big.NewInt(250)); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if sink.calls != 1 || sink.collateralID != 7 || sink.proceeds.Cmp(big.NewInt(250)) != 0 {
		t.Fatalf("sink not invoked correctly: %+v", sink)
	}
	listing := state.listings[id]
	if !listing.Settled || listing.Proceeds.Cmp(big.NewInt(250)) != 0 {
		t.Fatalf("listing not finalized: %+v", listing)
	}
	if _, ok := state.byDeed[7]; ok {
		t.Fatalf("collateral index not released")
	}

	// A released index allows a new liquidation for the same collateral.
	if _, err := engine.Initiate(7, big.NewInt(100), 20); err != nil {
		t.Fatalf("re-initiate: %v", err)
	}
}

func TestSettleAuthorization(t *testing.T) {
	engine, _, _, settler := newTestEngine()
	id, err := engine.Initiate(7, big.NewInt(100), 10)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	if err := engine.Settle(testAddr(0x99), id, big.NewInt(50)); !errors.Is(err, ErrNotSettler) {
		t.Fatalf("expected settler rejection, got %v", err)
	}
	if err := engine.Settle(settler, id, nil); !errors.Is(err, ErrInvalidProceeds) {
		t.Fatalf("expected proceeds rejection, got %v", err)
	}
	if err := engine.Settle(settler, id, big.NewInt(-1)); !errors.Is(err, ErrInvalidProceeds) {
		t.Fatalf("expected negative proceeds rejection, got %v", err)
	}
	if err := engine.Settle(settler, "liq-404", big.NewInt(50)); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSettleIsIdempotentRejected(t *testing.T) {
	engine, _, sink, settler := newTestEngine()
	id, err := engine.Initiate(7, big.NewInt(100), 10)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if err := engine.Settle(settler, id, big.NewInt(50)); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if err := engine.Settle(settler, id, big.NewInt(60)); !errors.Is(err, ErrAlreadySettled) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
	if sink.calls != 1 {
		t.Fatalf("sink invoked %d times", sink.calls)
	}
}

func TestSettleZeroProceedsAllowed(t *testing.T) {
	engine, state, sink, settler := newTestEngine()
	id, err := engine.Initiate(7, big.NewInt(100), 10)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	// A failed auction clears at zero; the sink still runs so the loan
	// manager can realize the loss.
	if err := engine.Settle(settler, id, big.NewInt(0)); err != nil {
		t.Fatalf("settle at zero: %v", err)
	}
	if sink.calls != 1 || sink.proceeds.Sign() != 0 {
		t.Fatalf("sink not invoked with zero proceeds: %+v", sink)
	}
	if !state.listings[id].Settled {
		t.Fatalf("listing not settled")
	}
}

func TestSettleKeepsListingOpenWhenSinkRejects(t *testing.T) {
	engine, state, sink, settler := newTestEngine()
	id, err := engine.Initiate(7, big.NewInt(100), 10)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	sink.err = errors.New("settlement rejected")
	if err := engine.Settle(settler, id, big.NewInt(250)); !errors.Is(err, sink.err) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if state.listings[id].Settled {
		t.Fatalf("listing settled despite sink failure")
	}
	if got, ok := state.byDeed[7]; !ok || got != id {
		t.Fatalf("collateral index released despite sink failure")
	}

	// The operator retries once the sink accepts.
	sink.err = nil
	if err := engine.Settle(settler, id, big.NewInt(250)); err != nil {
		t.Fatalf("retry settle: %v", err)
	}
	if !state.listings[id].Settled {
		t.Fatalf("listing not settled on retry")
	}
}
