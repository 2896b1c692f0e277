package mortgage

import (
	"fmt"
	"maps"
	"math/big"

	"github.com/SamAg19/SealBid/core/types"
	"github.com/SamAg19/SealBid/native/auction"
	"github.com/SamAg19/SealBid/native/deed"
	"github.com/SamAg19/SealBid/native/pool"
)

// testState backs every engine in one map-based store so USDC and collateral
// flows cross module boundaries the same way they do over the real manager.
type testState struct {
	poolState     *pool.State
	accounts      map[[20]byte]*types.Account
	loans         map[uint64]*Loan
	loanSeq       uint64
	byBorrower    map[[20]byte]uint64
	byCollateral  map[uint64]uint64
	pending       map[[20]byte][32]byte
	approvals     map[[20]byte]*Approval
	deeds         map[uint64]*deed.Deed
	deedSeq       uint64
	listings      map[string]*auction.Listing
	listingByDeed map[uint64]string

	revisions    []stateRevision
	nextRevision int
}

type stateRevision struct {
	id    int
	saved *testState
}

func newTestState() *testState {
	return &testState{
		accounts:      make(map[[20]byte]*types.Account),
		loans:         make(map[uint64]*Loan),
		byBorrower:    make(map[[20]byte]uint64),
		byCollateral:  make(map[uint64]uint64),
		pending:       make(map[[20]byte][32]byte),
		approvals:     make(map[[20]byte]*Approval),
		deeds:         make(map[uint64]*deed.Deed),
		listings:      make(map[string]*auction.Listing),
		listingByDeed: make(map[uint64]string),
	}
}

// Snapshot captures the full store. Gets and puts always exchange clones, so
// copying the map structure is enough to freeze a revision.
func (s *testState) Snapshot() int {
	s.nextRevision++
	s.revisions = append(s.revisions, stateRevision{id: s.nextRevision, saved: &testState{
		poolState:     s.poolState.Clone(),
		accounts:      maps.Clone(s.accounts),
		loans:         maps.Clone(s.loans),
		loanSeq:       s.loanSeq,
		byBorrower:    maps.Clone(s.byBorrower),
		byCollateral:  maps.Clone(s.byCollateral),
		pending:       maps.Clone(s.pending),
		approvals:     maps.Clone(s.approvals),
		deeds:         maps.Clone(s.deeds),
		deedSeq:       s.deedSeq,
		listings:      maps.Clone(s.listings),
		listingByDeed: maps.Clone(s.listingByDeed),
	}})
	return s.nextRevision
}

func (s *testState) RevertToSnapshot(id int) {
	for i := len(s.revisions) - 1; i >= 0; i-- {
		if s.revisions[i].id != id {
			continue
		}
		saved := s.revisions[i].saved
		s.poolState = saved.poolState
		s.accounts = saved.accounts
		s.loans = saved.loans
		s.loanSeq = saved.loanSeq
		s.byBorrower = saved.byBorrower
		s.byCollateral = saved.byCollateral
		s.pending = saved.pending
		s.approvals = saved.approvals
		s.deeds = saved.deeds
		s.deedSeq = saved.deedSeq
		s.listings = saved.listings
		s.listingByDeed = saved.listingByDeed
		s.revisions = s.revisions[:i]
		return
	}
	panic(fmt.Sprintf("testState: unknown snapshot %d", id))
}

func (s *testState) DiscardSnapshot(id int) {
	for i := len(s.revisions) - 1; i >= 0; i-- {
		if s.revisions[i].id == id {
			s.revisions = s.revisions[:i]
			return
		}
	}
	panic(fmt.Sprintf("testState: unknown snapshot %d", id))
}

func (s *testState) PoolGet() (*pool.State, error) { return s.poolState.Clone(), nil }

func (s *testState) PoolPut(state *pool.State) error {
	s.poolState = state.Clone()
	return nil
}

func (s *testState) GetAccount(addr [20]byte) (*types.Account, error) {
	if acc, ok := s.accounts[addr]; ok {
		return acc.Clone(), nil
	}
	return &types.Account{BalanceUSDC: big.NewInt(0), BalanceShares: big.NewInt(0)}, nil
}

func (s *testState) PutAccount(addr [20]byte, account *types.Account) error {
	s.accounts[addr] = account.Clone()
	return nil
}

func (s *testState) LoanGet(id uint64) (*Loan, bool, error) {
	loan, ok := s.loans[id]
	if !ok {
		return nil, false, nil
	}
	return loan.Clone(), true, nil
}

func (s *testState) LoanPut(loan *Loan) error {
	s.loans[loan.ID] = loan.Clone()
	return nil
}

func (s *testState) LoanNextID() (uint64, error) {
	s.loanSeq++
	return s.loanSeq, nil
}

func (s *testState) ActiveLoanIDByBorrower(addr [20]byte) (uint64, bool, error) {
	id, ok := s.byBorrower[addr]
	return id, ok, nil
}

func (s *testState) SetActiveLoanForBorrower(addr [20]byte, id uint64) error {
	s.byBorrower[addr] = id
	return nil
}

func (s *testState) ClearActiveLoanForBorrower(addr [20]byte) error {
	delete(s.byBorrower, addr)
	return nil
}

func (s *testState) LoanIDByCollateral(collateralID uint64) (uint64, bool, error) {
	id, ok := s.byCollateral[collateralID]
	return id, ok, nil
}

func (s *testState) SetLoanForCollateral(collateralID, id uint64) error {
	s.byCollateral[collateralID] = id
	return nil
}

func (s *testState) ClearLoanForCollateral(collateralID uint64) error {
	delete(s.byCollateral, collateralID)
	return nil
}

func (s *testState) PendingRequestGet(addr [20]byte) ([32]byte, bool, error) {
	fp, ok := s.pending[addr]
	return fp, ok, nil
}

func (s *testState) PendingRequestPut(addr [20]byte, fingerprint [32]byte) error {
	s.pending[addr] = fingerprint
	return nil
}

func (s *testState) PendingRequestDelete(addr [20]byte) error {
	delete(s.pending, addr)
	return nil
}

func (s *testState) ApprovalGet(addr [20]byte) (*Approval, bool, error) {
	approval, ok := s.approvals[addr]
	if !ok {
		return nil, false, nil
	}
	return approval.Clone(), true, nil
}

func (s *testState) ApprovalPut(approval *Approval) error {
	s.approvals[approval.Borrower] = approval.Clone()
	return nil
}

func (s *testState) ApprovalDelete(addr [20]byte) error {
	delete(s.approvals, addr)
	return nil
}

func (s *testState) DeedGet(id uint64) (*deed.Deed, bool, error) {
	record, ok := s.deeds[id]
	if !ok {
		return nil, false, nil
	}
	return record.Clone(), true, nil
}

func (s *testState) DeedPut(record *deed.Deed) error {
	s.deeds[record.ID] = record.Clone()
	return nil
}

func (s *testState) DeedNextID() (uint64, error) {
	s.deedSeq++
	return s.deedSeq, nil
}

func (s *testState) ListingGet(id string) (*auction.Listing, bool, error) {
	listing, ok := s.listings[id]
	if !ok {
		return nil, false, nil
	}
	return listing.Clone(), true, nil
}

func (s *testState) ListingPut(listing *auction.Listing) error {
	s.listings[listing.ID] = listing.Clone()
	return nil
}

func (s *testState) ListingIDByCollateral(collateralID uint64) (string, bool, error) {
	id, ok := s.listingByDeed[collateralID]
	return id, ok, nil
}

func (s *testState) ListingIndexPut(collateralID uint64, id string) error {
	s.listingByDeed[collateralID] = id
	return nil
}

func (s *testState) ListingIndexDelete(collateralID uint64) error {
	delete(s.listingByDeed, collateralID)
	return nil
}
