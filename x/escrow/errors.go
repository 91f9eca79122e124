package escrow

import (
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/x/ledger"
)

// ErrAuthority is returned when a custody account is not owned by the
// authority derived for its escrow.
var ErrAuthority = errors.Register(40, "custody authority mismatch")

var validationErrs = []*errors.Error{
	errors.ErrUnauthorized,
	errors.ErrNotFound,
	errors.ErrMsg,
	errors.ErrEmpty,
	errors.ErrState,
	errors.ErrAmount,
	errors.ErrInput,
	errors.ErrMetadata,
	errors.ErrDuplicate,
}

var substrateErrs = []*errors.Error{
	ledger.ErrInsufficientFunds,
	ledger.ErrNoSuchAccount,
	ledger.ErrAccountNotEmpty,
	ledger.ErrAssetMismatch,
	ledger.ErrNoSuchAsset,
	errors.ErrOverflow,
	errors.ErrDatabase,
	errors.ErrModel,
}

// IsValidationErr returns true if the operation was rejected because the
// supplied accounts, identities or amounts do not match what the escrow
// requires.
func IsValidationErr(err error) bool {
	if err == nil || IsSubstrateErr(err) || IsAuthorityErr(err) {
		return false
	}
	return isAny(err, validationErrs)
}

// IsAuthorityErr returns true if the custody account is not controlled by
// the derived custody authority.
func IsAuthorityErr(err error) bool {
	return err != nil && ErrAuthority.Is(err)
}

// IsSubstrateErr returns true if the ledger failed to execute an otherwise
// valid operation.
func IsSubstrateErr(err error) bool {
	return err != nil && isAny(err, substrateErrs)
}

func isAny(err error, kinds []*errors.Error) bool {
	for _, k := range kinds {
		if k.Is(err) {
			return true
		}
	}
	return false
}
