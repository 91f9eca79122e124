package escrow

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/gconf"
)

const packageName = "escrow"

// Configuration of the escrow extension, loaded from the genesis
// "conf.escrow" section.
type Configuration struct {
	Metadata *weave.Metadata `json:"metadata"`
	// Owner can update the configuration.
	Owner weave.Address `json:"owner"`
	// CustodySeed is the protocol wide seed all custody authorities are
	// derived from.
	CustodySeed []byte `json:"custody_seed"`
	// PerTrade scopes every custody authority to a single escrow by
	// mixing the escrow ID into the derivation.
	PerTrade bool `json:"per_trade"`
}

var _ gconf.OwnedConfig = (*Configuration)(nil)

func (c *Configuration) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", c.Metadata.Validate())
	if c.Owner != nil {
		errs = errors.AppendField(errs, "Owner", c.Owner.Validate())
	}
	if len(c.CustodySeed) == 0 {
		errs = errors.Append(errs, errors.Field("CustodySeed", errors.ErrEmpty, "required"))
	}
	return errs
}

func (c *Configuration) GetOwner() weave.Address {
	return c.Owner
}

func loadConf(db gconf.ReadStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, packageName, &conf); err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	return &conf, nil
}
