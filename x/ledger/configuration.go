package ledger

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/gconf"
)

const packageName = "ledger"

// Configuration of the ledger, loaded from the genesis "conf.ledger"
// section.
type Configuration struct {
	Metadata *weave.Metadata `json:"metadata"`
	// Owner can update the configuration.
	Owner weave.Address `json:"owner"`
	// RentDeposit is charged from the payer reserve for every created
	// account.
	RentDeposit uint64 `json:"rent_deposit"`
}

var _ gconf.OwnedConfig = (*Configuration)(nil)

func (c *Configuration) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", c.Metadata.Validate())
	if c.Owner != nil {
		errs = errors.AppendField(errs, "Owner", c.Owner.Validate())
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
