package sigs

import "github.com/iov-one/weave-escrow/errors"

// ErrInvalidSequence is returned when a signature sequence does not match
// the signer's expected nonce.
var ErrInvalidSequence = errors.Register(120, "invalid sequence number")
