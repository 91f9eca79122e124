package ledger

import (
	"context"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/orm"
	"github.com/iov-one/weave-escrow/x"
)

// Controller is the functionality the ledger exposes to other extensions.
// Every state changing call is authorized against the given authenticator,
// so the caller decides which identities take part in the operation.
type Controller interface {
	Reader

	// CreateAsset registers a new asset kind with zero supply.
	CreateAsset(ctx context.Context, db weave.KVStore, auth x.Authenticator, issuer weave.Address, name string) ([]byte, error)

	// Issue creates new value of an asset in the destination account.
	// Only the asset issuer can issue.
	Issue(ctx context.Context, db weave.KVStore, auth x.Authenticator, assetID, dst []byte, amount uint64) error

	// CreateAccount creates an empty account for the asset, owned by
	// owner. The rent deposit is charged from the payer reserve.
	CreateAccount(ctx context.Context, db weave.KVStore, auth x.Authenticator, payer weave.Address, assetID []byte, owner weave.Address) ([]byte, error)

	// SetOwner hands the account over to a new owner.
	SetOwner(ctx context.Context, db weave.KVStore, auth x.Authenticator, accountID []byte, owner weave.Address) error

	// Transfer moves amount between two accounts of the same asset.
	Transfer(ctx context.Context, db weave.KVStore, auth x.Authenticator, src, dst []byte, amount uint64) error

	// Close deletes an empty account and credits its rent deposit to the
	// recipient reserve.
	Close(ctx context.Context, db weave.KVStore, auth x.Authenticator, accountID []byte, recipient weave.Address) error
}

// Reader gives read only access to the ledger state.
type Reader interface {
	Account(db weave.ReadOnlyKVStore, id []byte) (*Account, error)
	Asset(db weave.ReadOnlyKVStore, id []byte) (*Asset, error)
	Reserve(db weave.ReadOnlyKVStore, owner weave.Address) (uint64, error)
}

// BaseController is the Controller implementation backed by the ledger
// buckets.
type BaseController struct {
	assets   orm.ModelBucket
	accounts orm.ModelBucket
	reserves orm.ModelBucket
}

var _ Controller = (*BaseController)(nil)

// NewController returns a controller operating on the ledger buckets.
func NewController() *BaseController {
	return &BaseController{
		assets:   NewAssetBucket(),
		accounts: NewAccountBucket(),
		reserves: NewReserveBucket(),
	}
}

func (c *BaseController) Account(db weave.ReadOnlyKVStore, id []byte) (*Account, error) {
	if err := orm.ValidateSequence(id); err != nil {
		return nil, errors.Wrap(ErrNoSuchAccount, err.Error())
	}
	var acc Account
	switch err := c.accounts.One(db, id, &acc); {
	case err == nil:
		return &acc, nil
	case errors.ErrNotFound.Is(err):
		return nil, errors.Wrapf(ErrNoSuchAccount, "account %X", id)
	default:
		return nil, err
	}
}

func (c *BaseController) Asset(db weave.ReadOnlyKVStore, id []byte) (*Asset, error) {
	if err := orm.ValidateSequence(id); err != nil {
		return nil, errors.Wrap(ErrNoSuchAsset, err.Error())
	}
	var a Asset
	switch err := c.assets.One(db, id, &a); {
	case err == nil:
		return &a, nil
	case errors.ErrNotFound.Is(err):
		return nil, errors.Wrapf(ErrNoSuchAsset, "asset %X", id)
	default:
		return nil, err
	}
}

func (c *BaseController) Reserve(db weave.ReadOnlyKVStore, owner weave.Address) (uint64, error) {
	if err := owner.Validate(); err != nil {
		return 0, errors.Wrap(err, "owner")
	}
	var r Reserve
	switch err := c.reserves.One(db, owner, &r); {
	case err == nil:
		return r.Amount, nil
	case errors.ErrNotFound.Is(err):
		return 0, nil
	default:
		return 0, err
	}
}

func (c *BaseController) CreateAsset(ctx context.Context, db weave.KVStore, auth x.Authenticator, issuer weave.Address, name string) ([]byte, error) {
	if !auth.HasAddress(ctx, issuer) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "issuer signature required")
	}
	asset := &Asset{
		Metadata: &weave.Metadata{Schema: 1},
		Issuer:   issuer,
		Name:     name,
	}
	id, err := c.assets.Put(db, nil, asset)
	if err != nil {
		return nil, errors.Wrap(err, "cannot store asset")
	}
	return id, nil
}

func (c *BaseController) Issue(ctx context.Context, db weave.KVStore, auth x.Authenticator, assetID, dst []byte, amount uint64) error {
	if amount == 0 {
		return errors.Wrap(errors.ErrAmount, "must be greater than zero")
	}
	asset, err := c.Asset(db, assetID)
	if err != nil {
		return err
	}
	if !auth.HasAddress(ctx, asset.Issuer) {
		return errors.Wrap(errors.ErrUnauthorized, "issuer signature required")
	}
	acc, err := c.Account(db, dst)
	if err != nil {
		return errors.Wrap(err, "destination")
	}
	if string(acc.Asset) != string(assetID) {
		return errors.Wrapf(ErrAssetMismatch, "destination holds %X", acc.Asset)
	}
	if asset.Supply+amount < asset.Supply || acc.Amount+amount < acc.Amount {
		return errors.Wrap(errors.ErrOverflow, "supply")
	}
	asset.Supply += amount
	acc.Amount += amount
	if _, err := c.assets.Put(db, assetID, asset); err != nil {
		return errors.Wrap(err, "cannot store asset")
	}
	if _, err := c.accounts.Put(db, dst, acc); err != nil {
		return errors.Wrap(err, "cannot store account")
	}
	return nil
}

func (c *BaseController) CreateAccount(ctx context.Context, db weave.KVStore, auth x.Authenticator, payer weave.Address, assetID []byte, owner weave.Address) ([]byte, error) {
	if !auth.HasAddress(ctx, payer) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "payer signature required")
	}
	if err := owner.Validate(); err != nil {
		return nil, errors.Wrap(err, "owner")
	}
	if _, err := c.Asset(db, assetID); err != nil {
		return nil, err
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}
	if err := c.debitReserve(db, payer, conf.RentDeposit); err != nil {
		return nil, errors.Wrap(err, "rent deposit")
	}
	acc := &Account{
		Metadata: &weave.Metadata{Schema: 1},
		Asset:    assetID,
		Owner:    owner,
		Rent:     conf.RentDeposit,
	}
	id, err := c.accounts.Put(db, nil, acc)
	if err != nil {
		return nil, errors.Wrap(err, "cannot store account")
	}
	return id, nil
}

func (c *BaseController) SetOwner(ctx context.Context, db weave.KVStore, auth x.Authenticator, accountID []byte, owner weave.Address) error {
	if err := owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	acc, err := c.Account(db, accountID)
	if err != nil {
		return err
	}
	if !auth.HasAddress(ctx, acc.Owner) {
		return errors.Wrap(errors.ErrUnauthorized, "owner signature required")
	}
	acc.Owner = owner
	if _, err := c.accounts.Put(db, accountID, acc); err != nil {
		return errors.Wrap(err, "cannot store account")
	}
	return nil
}

func (c *BaseController) Transfer(ctx context.Context, db weave.KVStore, auth x.Authenticator, src, dst []byte, amount uint64) error {
	if amount == 0 {
		return errors.Wrap(errors.ErrAmount, "must be greater than zero")
	}
	if string(src) == string(dst) {
		return errors.Wrap(errors.ErrInput, "source and destination must differ")
	}
	from, err := c.Account(db, src)
	if err != nil {
		return errors.Wrap(err, "source")
	}
	to, err := c.Account(db, dst)
	if err != nil {
		return errors.Wrap(err, "destination")
	}
	if string(from.Asset) != string(to.Asset) {
		return errors.Wrapf(ErrAssetMismatch, "%X to %X", from.Asset, to.Asset)
	}
	if !auth.HasAddress(ctx, from.Owner) {
		return errors.Wrap(errors.ErrUnauthorized, "source owner signature required")
	}
	if from.Amount < amount {
		return errors.Wrapf(ErrInsufficientFunds, "have %d, need %d", from.Amount, amount)
	}
	if to.Amount+amount < to.Amount {
		return errors.Wrap(errors.ErrOverflow, "destination balance")
	}
	from.Amount -= amount
	to.Amount += amount
	if _, err := c.accounts.Put(db, src, from); err != nil {
		return errors.Wrap(err, "cannot store source")
	}
	if _, err := c.accounts.Put(db, dst, to); err != nil {
		return errors.Wrap(err, "cannot store destination")
	}
	return nil
}

func (c *BaseController) Close(ctx context.Context, db weave.KVStore, auth x.Authenticator, accountID []byte, recipient weave.Address) error {
	if err := recipient.Validate(); err != nil {
		return errors.Wrap(err, "recipient")
	}
	acc, err := c.Account(db, accountID)
	if err != nil {
		return err
	}
	if !auth.HasAddress(ctx, acc.Owner) {
		return errors.Wrap(errors.ErrUnauthorized, "owner signature required")
	}
	if acc.Amount != 0 {
		return errors.Wrapf(ErrAccountNotEmpty, "holds %d", acc.Amount)
	}
	if err := c.accounts.Delete(db, accountID); err != nil {
		return errors.Wrap(err, "cannot delete account")
	}
	if acc.Rent == 0 {
		return nil
	}
	return c.CreditReserve(db, recipient, acc.Rent)
}

// CreditReserve adds amount to the reserve of the owner. It is not
// authorized and must only be called by genesis or trusted code.
func (c *BaseController) CreditReserve(db weave.KVStore, owner weave.Address, amount uint64) error {
	r, err := c.loadReserve(db, owner)
	if err != nil {
		return err
	}
	if r.Amount+amount < r.Amount {
		return errors.Wrap(errors.ErrOverflow, "reserve")
	}
	r.Amount += amount
	if _, err := c.reserves.Put(db, owner, r); err != nil {
		return errors.Wrap(err, "cannot store reserve")
	}
	return nil
}

func (c *BaseController) debitReserve(db weave.KVStore, owner weave.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	r, err := c.loadReserve(db, owner)
	if err != nil {
		return err
	}
	if r.Amount < amount {
		return errors.Wrapf(ErrInsufficientFunds, "reserve has %d, need %d", r.Amount, amount)
	}
	r.Amount -= amount
	if _, err := c.reserves.Put(db, owner, r); err != nil {
		return errors.Wrap(err, "cannot store reserve")
	}
	return nil
}

func (c *BaseController) loadReserve(db weave.ReadOnlyKVStore, owner weave.Address) (*Reserve, error) {
	if err := owner.Validate(); err != nil {
		return nil, errors.Wrap(err, "owner")
	}
	var r Reserve
	switch err := c.reserves.One(db, owner, &r); {
	case err == nil:
		return &r, nil
	case errors.ErrNotFound.Is(err):
		return &Reserve{Metadata: &weave.Metadata{Schema: 1}}, nil
	default:
		return nil, err
	}
}
