package deed

import (
	"encoding/hex"
	"errors"
	"strconv"

	"github.com/SamAg19/SealBid/core/events"
	"github.com/SamAg19/SealBid/core/types"
	nativecommon "github.com/SamAg19/SealBid/native/common"
)

var (
	// ErrDeedNotFound signals the deed identifier has never been minted.
	ErrDeedNotFound = errors.New("deed registry: deed not found")
	// ErrNotOwner rejects transfers where from is not the current owner.
	ErrNotOwner = errors.New("deed registry: transferor is not the current owner")
	// ErrZeroAddress rejects minting or transferring to the zero address.
	ErrZeroAddress = errors.New("deed registry: zero address")

	errNilState = errors.New("deed registry: state not configured")
)

const moduleName = "deed"

const (
	EventTypeDeedMinted      = "deed.minted"
	EventTypeDeedTransferred = "deed.transferred"
)

// Deed is one non-fungible collateral record per property. The registry never
// interprets the metadata commitment; it only tracks ownership.
type Deed struct {
	ID                 uint64
	Owner              [20]byte
	MetadataCommitment [32]byte
}

// Clone returns a copy of the deed record.
func (d *Deed) Clone() *Deed {
	if d == nil {
		return nil
	}
	clone := *d
	return &clone
}

type registryState interface {
	DeedGet(id uint64) (*Deed, bool, error)
	DeedPut(*Deed) error
	DeedNextID() (uint64, error)
}

type deedEvent struct {
	evt *types.Event
}

func (e deedEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e deedEvent) Event() *types.Event { return e.evt }

// Registry tracks ownership of tokenized property collateral. The loan
// manager holds custody of a deed while its loan is active or defaulted.
type Registry struct {
	state   registryState
	emitter events.Emitter
	pauses  nativecommon.PauseView
}

// NewRegistry constructs a registry with a no-op emitter.
func NewRegistry() *Registry {
	return &Registry{emitter: events.NoopEmitter{}}
}

// SetState wires the registry to the external persistence layer.
func (r *Registry) SetState(state registryState) { r.state = state }

// SetPauses configures the governance pause switches.
func (r *Registry) SetPauses(p nativecommon.PauseView) {
	if r == nil {
		return
	}
	r.pauses = p
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if r == nil {
		return
	}
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

// Mint issues a new deed for the supplied metadata commitment and assigns it
// to owner. The identifier is returned.
func (r *Registry) Mint(owner [20]byte, commitment [32]byte) (uint64, error) {
	if r == nil || r.state == nil {
		return 0, errNilState
	}
	if err := nativecommon.Guard(r.pauses, moduleName); err != nil {
		return 0, err
	}
	if owner == ([20]byte{}) {
		return 0, ErrZeroAddress
	}
	id, err := r.state.DeedNextID()
	if err != nil {
		return 0, err
	}
	record := &Deed{ID: id, Owner: owner, MetadataCommitment: commitment}
	if err := r.state.DeedPut(record); err != nil {
		return 0, err
	}
	r.emit(&types.Event{Type: EventTypeDeedMinted, Attributes: map[string]string{
		"id":         strconv.FormatUint(id, 10),
		"owner":      hex.EncodeToString(owner[:]),
		"commitment": hex.EncodeToString(commitment[:]),
	}})
	return id, nil
}

// OwnerOf reports the current owner of the deed.
func (r *Registry) OwnerOf(id uint64) ([20]byte, error) {
	if r == nil || r.state == nil {
		return [20]byte{}, errNilState
	}
	record, ok, err := r.state.DeedGet(id)
	if err != nil {
		return [20]byte{}, err
	}
	if !ok {
		return [20]byte{}, ErrDeedNotFound
	}
	return record.Owner, nil
}

// Transfer moves the deed from its current owner to the recipient. It fails
// when from does not hold the deed.
func (r *Registry) Transfer(from, to [20]byte, id uint64) error {
	if r == nil || r.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(r.pauses, moduleName); err != nil {
		return err
	}
	if to == ([20]byte{}) {
		return ErrZeroAddress
	}
	record, ok, err := r.state.DeedGet(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDeedNotFound
	}
	if record.Owner != from {
		return ErrNotOwner
	}
	record = record.Clone()
	record.Owner = to
	if err := r.state.DeedPut(record); err != nil {
		return err
	}
	r.emit(&types.Event{Type: EventTypeDeedTransferred, Attributes: map[string]string{
		"id":   strconv.FormatUint(id, 10),
		"from": hex.EncodeToString(from[:]),
		"to":   hex.EncodeToString(to[:]),
	}})
	return nil
}

func (r *Registry) emit(event *types.Event) {
	if r == nil || r.emitter == nil || event == nil {
		return
	}
	r.emitter.Emit(deedEvent{evt: event})
}
