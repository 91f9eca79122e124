package escrow

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/gconf"
	"github.com/iov-one/weave-escrow/orm"
	"github.com/iov-one/weave-escrow/x/ledger"
)

// Initializer fulfils the Initializer interface to load data from the genesis file
type Initializer struct {
	// Ledger is used to verify the accounts referenced by genesis
	// escrows. It must be initialized before this extension.
	Ledger ledger.Reader
}

var _ weave.Initializer = (*Initializer)(nil)

// genesisEscrow references ledger entities by their sequence numbers.
type genesisEscrow struct {
	Initializer     weave.Address `json:"initializer"`
	OfferedAsset    int64         `json:"offered_asset"`
	DepositAccount  int64         `json:"deposit_account"`
	CustodyAccount  int64         `json:"custody_account"`
	RequestedAsset  int64         `json:"requested_asset"`
	RequestedAmount uint64        `json:"requested_amount"`
	ReceiveAccount  int64         `json:"receive_account"`
}

// FromGenesis will parse initial escrow info from genesis and save it in
// the database. Escrows are Active from the start, so every custody account
// must already be owned by the custody authority of its escrow.
func (i *Initializer) FromGenesis(opts weave.Options, db weave.KVStore) error {
	if err := gconf.InitConfig(db, opts, packageName, &Configuration{}); err != nil {
		return errors.Wrap(err, "init config")
	}
	conf, err := loadConf(db)
	if err != nil {
		return err
	}

	var escrows []genesisEscrow
	if err := opts.ReadOptions("escrow", &escrows); err != nil {
		return err
	}

	bucket := NewBucket()
	for j, e := range escrows {
		escrow := &Escrow{
			Metadata:        &weave.Metadata{Schema: 1},
			Initializer:     e.Initializer,
			OfferedAsset:    orm.EncodeSequence(e.OfferedAsset),
			DepositAccount:  orm.EncodeSequence(e.DepositAccount),
			CustodyAccount:  orm.EncodeSequence(e.CustodyAccount),
			RequestedAsset:  orm.EncodeSequence(e.RequestedAsset),
			RequestedAmount: e.RequestedAmount,
			ReceiveAccount:  orm.EncodeSequence(e.ReceiveAccount),
		}
		if err := escrow.Validate(); err != nil {
			return errors.Wrapf(err, "invalid escrow at position: %d", j)
		}

		key, err := escrowSeq.NextVal(db)
		if err != nil {
			return errors.Wrap(err, "cannot acquire key")
		}
		custody, err := i.Ledger.Account(db, escrow.CustodyAccount)
		if err != nil {
			return errors.Wrapf(err, "escrow %d custody account", j)
		}
		if err := ownedHolding(custody, escrow.OfferedAsset, CustodyAddress(conf, key)); err != nil {
			if errors.ErrUnauthorized.Is(err) {
				err = errors.Wrap(ErrAuthority, err.Error())
			}
			return errors.Wrapf(err, "escrow %d custody account", j)
		}
		if custody.Amount != 1 {
			return errors.Wrapf(errors.ErrAmount, "escrow %d custody account holds %d", j, custody.Amount)
		}
		receive, err := i.Ledger.Account(db, escrow.ReceiveAccount)
		if err != nil {
			return errors.Wrapf(err, "escrow %d receive account", j)
		}
		if err := ownedHolding(receive, escrow.RequestedAsset, escrow.Initializer); err != nil {
			return errors.Wrapf(err, "escrow %d receive account", j)
		}
		if _, err := bucket.Put(db, key, escrow); err != nil {
			return errors.Wrapf(err, "escrow %d", j)
		}
	}
	return nil
}
