package ledger

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/gconf"
	"github.com/iov-one/weave-escrow/orm"
)

// Initializer fulfils the Initializer interface to load data from the genesis
// file
type Initializer struct{}

var _ weave.Initializer = (*Initializer)(nil)

type genesisReserve struct {
	Address weave.Address `json:"address"`
	Amount  uint64        `json:"amount"`
}

type genesisAsset struct {
	Issuer weave.Address `json:"issuer"`
	Name   string        `json:"name"`
}

type genesisAccount struct {
	// Asset is the sequence number of the asset, counting from 1 in the
	// order assets are declared.
	Asset  int64         `json:"asset"`
	Owner  weave.Address `json:"owner"`
	Amount uint64        `json:"amount"`
}

type genesis struct {
	Reserves []genesisReserve `json:"reserves"`
	Assets   []genesisAsset   `json:"assets"`
	Accounts []genesisAccount `json:"accounts"`
}

// FromGenesis will parse initial ledger state from genesis and save it to
// the database. Asset and account IDs are assigned in declaration order.
func (*Initializer) FromGenesis(opts weave.Options, db weave.KVStore) error {
	if err := gconf.InitConfig(db, opts, packageName, &Configuration{}); err != nil {
		return errors.Wrap(err, "init config")
	}

	var gen genesis
	if err := opts.ReadOptions("ledger", &gen); err != nil {
		return err
	}

	ctrl := NewController()
	for i, r := range gen.Reserves {
		if err := ctrl.CreditReserve(db, r.Address, r.Amount); err != nil {
			return errors.Wrapf(err, "reserve #%d", i)
		}
	}
	for i, a := range gen.Assets {
		asset := &Asset{
			Metadata: &weave.Metadata{Schema: 1},
			Issuer:   a.Issuer,
			Name:     a.Name,
		}
		if _, err := ctrl.assets.Put(db, nil, asset); err != nil {
			return errors.Wrapf(err, "asset #%d", i)
		}
	}
	for i, a := range gen.Accounts {
		assetID := orm.EncodeSequence(a.Asset)
		asset, err := ctrl.Asset(db, assetID)
		if err != nil {
			return errors.Wrapf(err, "account #%d", i)
		}
		if asset.Supply+a.Amount < asset.Supply {
			return errors.Wrapf(errors.ErrOverflow, "account #%d supply", i)
		}
		asset.Supply += a.Amount
		if _, err := ctrl.assets.Put(db, assetID, asset); err != nil {
			return errors.Wrapf(err, "account #%d asset", i)
		}
		acc := &Account{
			Metadata: &weave.Metadata{Schema: 1},
			Asset:    assetID,
			Owner:    a.Owner,
			Amount:   a.Amount,
		}
		if _, err := ctrl.accounts.Put(db, nil, acc); err != nil {
			return errors.Wrapf(err, "account #%d", i)
		}
	}
	return nil
}
