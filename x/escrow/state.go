package escrow

import (
	"fmt"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
)

// State of an escrow.
type State int32

const (
	Uninitialized State = iota
	Active
	Settled
	Cancelled
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Active:
		return "active"
	case Settled:
		return "settled"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// StateOf returns the state of the escrow with the given ID. An ID that was
// never used is Uninitialized.
func StateOf(db weave.ReadOnlyKVStore, escrowID []byte) (State, error) {
	switch err := NewBucket().Has(db, escrowID); {
	case err == nil:
		return Active, nil
	case !errors.ErrNotFound.Is(err):
		return Uninitialized, err
	}

	var res Resolution
	switch err := NewResolutionBucket().One(db, escrowID, &res); {
	case err == nil:
		return res.State, nil
	case errors.ErrNotFound.Is(err):
		return Uninitialized, nil
	default:
		return Uninitialized, err
	}
}
