package state

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/SamAg19/SealBid/core/types"
	"github.com/SamAg19/SealBid/native/auction"
	"github.com/SamAg19/SealBid/native/deed"
	"github.com/SamAg19/SealBid/native/mortgage"
	"github.com/SamAg19/SealBid/native/pool"
	"github.com/SamAg19/SealBid/storage"
)

// Key prefixes segment the flat key-value store per record family.
const (
	prefixAccount        = "acct/"
	prefixPool           = "pool/state"
	prefixLoan           = "loan/"
	prefixLoanSeq        = "loan/next"
	prefixLoanByBorrower = "loan/borrower/"
	prefixLoanByDeed     = "loan/deed/"
	prefixPendingRequest = "reqst/"
	prefixApproval       = "apprv/"
	prefixDeed           = "deed/"
	prefixDeedSeq        = "deed/next"
	prefixListing        = "lqdtn/"
	prefixListingByDeed  = "lqdtn/deed/"
)

// Manager persists engine state over a storage.Database, implementing the
// state interfaces of the pool, mortgage, deed and auction engines. Records
// are JSON encoded; the serialized execution model means no further locking
// is needed here. Snapshot and RevertToSnapshot bracket operations that span
// several records or engines, so a failure partway through restores every
// record touched since the snapshot.
type Manager struct {
	db           storage.Database
	journal      []journalEntry
	revisions    []revision
	nextRevision int
}

// journalEntry holds the pre-image of one key so a revert can restore it.
type journalEntry struct {
	key      []byte
	previous []byte
	existed  bool
}

type revision struct {
	id           int
	journalIndex int
}

// NewManager wraps the database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// Snapshot marks the current ledger revision. Writes made afterwards are
// undone with RevertToSnapshot or kept with DiscardSnapshot.
func (m *Manager) Snapshot() int {
	m.nextRevision++
	m.revisions = append(m.revisions, revision{id: m.nextRevision, journalIndex: len(m.journal)})
	return m.nextRevision
}

// RevertToSnapshot restores every key written since the snapshot was taken.
// An unknown identifier or a storage failure while restoring pre-images means
// the ledger can no longer be trusted; both panic.
func (m *Manager) RevertToSnapshot(id int) {
	idx := m.findRevision(id)
	mark := m.revisions[idx].journalIndex
	for i := len(m.journal) - 1; i >= mark; i-- {
		entry := m.journal[i]
		var err error
		if entry.existed {
			err = m.db.Put(entry.key, entry.previous)
		} else {
			err = m.db.Delete(entry.key)
		}
		if err != nil {
			panic(fmt.Sprintf("state: revert to snapshot %d: %v", id, err))
		}
	}
	m.journal = m.journal[:mark]
	m.revisions = m.revisions[:idx]
}

// DiscardSnapshot keeps the writes made since the snapshot and releases the
// revision. The journal survives while an outer snapshot is still open.
func (m *Manager) DiscardSnapshot(id int) {
	idx := m.findRevision(id)
	m.revisions = m.revisions[:idx]
	if len(m.revisions) == 0 {
		m.journal = m.journal[:0]
	}
}

func (m *Manager) findRevision(id int) int {
	for i := len(m.revisions) - 1; i >= 0; i-- {
		if m.revisions[i].id == id {
			return i
		}
	}
	panic(fmt.Sprintf("state: unknown snapshot %d", id))
}

func (m *Manager) record(key []byte) error {
	if len(m.revisions) == 0 {
		return nil
	}
	entry := journalEntry{key: append([]byte(nil), key...)}
	previous, err := m.db.Get(key)
	if err == nil {
		entry.previous = previous
		entry.existed = true
	} else if !errors.Is(err, storage.ErrKeyNotFound) {
		return err
	}
	m.journal = append(m.journal, entry)
	return nil
}

func (m *Manager) setKey(key string, raw []byte) error {
	if err := m.record([]byte(key)); err != nil {
		return err
	}
	return m.db.Put([]byte(key), raw)
}

func (m *Manager) deleteKey(key string) error {
	if err := m.record([]byte(key)); err != nil {
		return err
	}
	return m.db.Delete([]byte(key))
}

func (m *Manager) putJSON(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("state: encode %s: %w", key, err)
	}
	return m.setKey(key, raw)
}

func (m *Manager) getJSON(key string, out interface{}) (bool, error) {
	raw, err := m.db.Get([]byte(key))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %s: %w", key, err)
	}
	return true, nil
}

func (m *Manager) nextSeq(key string) (uint64, error) {
	var next uint64 = 1
	if ok, err := m.getJSON(key, &next); err != nil {
		return 0, err
	} else if ok {
		next++
	}
	if err := m.putJSON(key, next); err != nil {
		return 0, err
	}
	return next, nil
}

func accountKey(addr [20]byte) string {
	return prefixAccount + hex.EncodeToString(addr[:])
}

// GetAccount loads the account record, returning a zeroed account when none
// is stored yet.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	account := &types.Account{}
	if _, err := m.getJSON(accountKey(addr), account); err != nil {
		return nil, err
	}
	if account.BalanceUSDC == nil {
		account.BalanceUSDC = big.NewInt(0)
	}
	if account.BalanceShares == nil {
		account.BalanceShares = big.NewInt(0)
	}
	return account, nil
}

// PutAccount stores the account record.
func (m *Manager) PutAccount(addr [20]byte, account *types.Account) error {
	if account == nil {
		return errors.New("state: nil account")
	}
	return m.putJSON(accountKey(addr), account)
}

// PoolGet loads the pool ledger, nil when uninitialised.
func (m *Manager) PoolGet() (*pool.State, error) {
	stored := &pool.State{}
	ok, err := m.getJSON(prefixPool, stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return stored, nil
}

// PoolPut stores the pool ledger.
func (m *Manager) PoolPut(s *pool.State) error {
	if s == nil {
		return errors.New("state: nil pool state")
	}
	return m.putJSON(prefixPool, s)
}

// LoanGet loads a loan by identifier.
func (m *Manager) LoanGet(id uint64) (*mortgage.Loan, bool, error) {
	loan := &mortgage.Loan{}
	ok, err := m.getJSON(fmt.Sprintf("%s%d", prefixLoan, id), loan)
	if err != nil || !ok {
		return nil, false, err
	}
	return loan, true, nil
}

// LoanPut stores a loan record.
func (m *Manager) LoanPut(loan *mortgage.Loan) error {
	if loan == nil {
		return errors.New("state: nil loan")
	}
	return m.putJSON(fmt.Sprintf("%s%d", prefixLoan, loan.ID), loan)
}

// LoanNextID allocates the next loan identifier.
func (m *Manager) LoanNextID() (uint64, error) {
	return m.nextSeq(prefixLoanSeq)
}

// ActiveLoanIDByBorrower resolves the borrower's active loan, if any.
func (m *Manager) ActiveLoanIDByBorrower(addr [20]byte) (uint64, bool, error) {
	var id uint64
	ok, err := m.getJSON(prefixLoanByBorrower+hex.EncodeToString(addr[:]), &id)
	return id, ok, err
}

// SetActiveLoanForBorrower indexes the borrower's active loan.
func (m *Manager) SetActiveLoanForBorrower(addr [20]byte, id uint64) error {
	return m.putJSON(prefixLoanByBorrower+hex.EncodeToString(addr[:]), id)
}

// ClearActiveLoanForBorrower removes the borrower index entry.
func (m *Manager) ClearActiveLoanForBorrower(addr [20]byte) error {
	return m.deleteKey(prefixLoanByBorrower + hex.EncodeToString(addr[:]))
}

// LoanIDByCollateral resolves the loan securing a deed, if any.
func (m *Manager) LoanIDByCollateral(collateralID uint64) (uint64, bool, error) {
	var id uint64
	ok, err := m.getJSON(fmt.Sprintf("%s%d", prefixLoanByDeed, collateralID), &id)
	return id, ok, err
}

// SetLoanForCollateral indexes the loan securing a deed.
func (m *Manager) SetLoanForCollateral(collateralID uint64, id uint64) error {
	return m.putJSON(fmt.Sprintf("%s%d", prefixLoanByDeed, collateralID), id)
}

// ClearLoanForCollateral removes the collateral index entry.
func (m *Manager) ClearLoanForCollateral(collateralID uint64) error {
	return m.deleteKey(fmt.Sprintf("%s%d", prefixLoanByDeed, collateralID))
}

// PendingRequestGet loads the borrower's outstanding request fingerprint.
func (m *Manager) PendingRequestGet(addr [20]byte) ([32]byte, bool, error) {
	var stored string
	var fingerprint [32]byte
	ok, err := m.getJSON(prefixPendingRequest+hex.EncodeToString(addr[:]), &stored)
	if err != nil || !ok {
		return fingerprint, false, err
	}
	raw, err := hex.DecodeString(stored)
	if err != nil || len(raw) != 32 {
		return fingerprint, false, fmt.Errorf("state: corrupt pending request for %x", addr)
	}
	copy(fingerprint[:], raw)
	return fingerprint, true, nil
}

// PendingRequestPut stores the borrower's outstanding request fingerprint.
func (m *Manager) PendingRequestPut(addr [20]byte, fingerprint [32]byte) error {
	return m.putJSON(prefixPendingRequest+hex.EncodeToString(addr[:]), hex.EncodeToString(fingerprint[:]))
}

// PendingRequestDelete clears the borrower's outstanding request.
func (m *Manager) PendingRequestDelete(addr [20]byte) error {
	return m.deleteKey(prefixPendingRequest + hex.EncodeToString(addr[:]))
}

// ApprovalGet loads the borrower's stored approval, if any.
func (m *Manager) ApprovalGet(addr [20]byte) (*mortgage.Approval, bool, error) {
	approval := &mortgage.Approval{}
	ok, err := m.getJSON(prefixApproval+hex.EncodeToString(addr[:]), approval)
	if err != nil || !ok {
		return nil, false, err
	}
	return approval, true, nil
}

// ApprovalPut stores the borrower's approval.
func (m *Manager) ApprovalPut(approval *mortgage.Approval) error {
	if approval == nil {
		return errors.New("state: nil approval")
	}
	return m.putJSON(prefixApproval+hex.EncodeToString(approval.Borrower[:]), approval)
}

// ApprovalDelete removes the borrower's approval.
func (m *Manager) ApprovalDelete(addr [20]byte) error {
	return m.deleteKey(prefixApproval + hex.EncodeToString(addr[:]))
}

// DeedGet loads a deed record.
func (m *Manager) DeedGet(id uint64) (*deed.Deed, bool, error) {
	record := &deed.Deed{}
	ok, err := m.getJSON(fmt.Sprintf("%s%d", prefixDeed, id), record)
	if err != nil || !ok {
		return nil, false, err
	}
	return record, true, nil
}

// DeedPut stores a deed record.
func (m *Manager) DeedPut(record *deed.Deed) error {
	if record == nil {
		return errors.New("state: nil deed")
	}
	return m.putJSON(fmt.Sprintf("%s%d", prefixDeed, record.ID), record)
}

// DeedNextID allocates the next deed identifier.
func (m *Manager) DeedNextID() (uint64, error) {
	return m.nextSeq(prefixDeedSeq)
}

// ListingGet loads a liquidation listing.
func (m *Manager) ListingGet(id string) (*auction.Listing, bool, error) {
	listing := &auction.Listing{}
	ok, err := m.getJSON(prefixListing+strings.TrimSpace(id), listing)
	if err != nil || !ok {
		return nil, false, err
	}
	return listing, true, nil
}

// ListingPut stores a liquidation listing.
func (m *Manager) ListingPut(listing *auction.Listing) error {
	if listing == nil {
		return errors.New("state: nil listing")
	}
	return m.putJSON(prefixListing+strings.TrimSpace(listing.ID), listing)
}

// ListingIDByCollateral resolves the in-flight listing for a deed, if any.
func (m *Manager) ListingIDByCollateral(collateralID uint64) (string, bool, error) {
	var id string
	ok, err := m.getJSON(fmt.Sprintf("%s%d", prefixListingByDeed, collateralID), &id)
	return id, ok, err
}

// ListingIndexPut indexes the in-flight listing for a deed.
func (m *Manager) ListingIndexPut(collateralID uint64, id string) error {
	return m.putJSON(fmt.Sprintf("%s%d", prefixListingByDeed, collateralID), id)
}

// ListingIndexDelete removes the in-flight listing index for a deed.
func (m *Manager) ListingIndexDelete(collateralID uint64) error {
	return m.deleteKey(fmt.Sprintf("%s%d", prefixListingByDeed, collateralID))
}
