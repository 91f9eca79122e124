package ledger

import "github.com/iov-one/weave-escrow/errors"

// ledger reserves 30 ~ 39.
var (
	ErrInsufficientFunds = errors.Register(30, "insufficient funds")
	ErrNoSuchAccount     = errors.Register(31, "no such account")
	ErrAccountNotEmpty   = errors.Register(32, "account not empty")
	ErrAssetMismatch     = errors.Register(33, "asset mismatch")
	ErrNoSuchAsset       = errors.Register(34, "no such asset")
)
