package sigs

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
)

const (
	pathBumpSequenceMsg = "sigs/bump_sequence"

	maxSequenceIncrement = 1000
	minSequenceIncrement = 1
)

// BumpSequenceMsg increments the sequence of the signer, invalidating
// all signatures that were made for the skipped values.
type BumpSequenceMsg struct {
	Metadata  *weave.Metadata `json:"metadata"`
	Increment uint32          `json:"increment"`
}

var _ weave.Msg = (*BumpSequenceMsg)(nil)

func (msg *BumpSequenceMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", msg.Metadata.Validate())
	if msg.Increment < minSequenceIncrement {
		errs = errors.Append(errs, errors.Field("Increment", errors.ErrMsg, "must be at least %d", minSequenceIncrement))
	}
	if msg.Increment > maxSequenceIncrement {
		errs = errors.Append(errs, errors.Field("Increment", errors.ErrMsg, "must not be greater than %d", maxSequenceIncrement))
	}
	return errs
}

func (BumpSequenceMsg) Path() string {
	return pathBumpSequenceMsg
}
