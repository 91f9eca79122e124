package weave

import (
	"github.com/iov-one/weave-escrow/errors"
	amino "github.com/tendermint/go-amino"
)

// cdc serializes all persisted models, messages and transactions. Amino
// encodes structs in declaration order, so the output is deterministic and
// can be signed.
var cdc = amino.NewCodec()

// Marshal returns the binary representation of given object.
func Marshal(o interface{}) ([]byte, error) {
	bz, err := cdc.MarshalBinaryBare(o)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrModel, "marshal %T: %s", o, err)
	}
	return bz, nil
}

// MustMarshal is like Marshal but panics on failure. Only use it for
// values that are known to be serializable.
func MustMarshal(o interface{}) []byte {
	bz, err := Marshal(o)
	if err != nil {
		panic(err)
	}
	return bz
}

// Unmarshal loads binary representation into given object. Destination
// must be a pointer.
func Unmarshal(bz []byte, ptr interface{}) error {
	if err := cdc.UnmarshalBinaryBare(bz, ptr); err != nil {
		return errors.Wrapf(errors.ErrModel, "unmarshal %T: %s", ptr, err)
	}
	return nil
}

// MarshalJSON returns the amino JSON representation of given object. It
// is used for human readable query output.
func MarshalJSON(o interface{}) ([]byte, error) {
	bz, err := cdc.MarshalJSONIndent(o, "", "  ")
	if err != nil {
		return nil, errors.Wrapf(errors.ErrModel, "marshal json %T: %s", o, err)
	}
	return bz, nil
}
