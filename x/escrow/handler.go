package escrow

import (
	"context"
	"fmt"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/gconf"
	"github.com/iov-one/weave-escrow/orm"
	"github.com/iov-one/weave-escrow/x"
	"github.com/iov-one/weave-escrow/x/ledger"
	"github.com/tendermint/tendermint/libs/common"
)

// Tag keys attached to every delivered escrow operation.
const (
	TagEscrow = "escrow"
	TagState  = "escrow.state"
)

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r weave.Registry, auth x.Authenticator, ctrl ledger.Controller) {
	bucket := NewBucket()
	resolutions := NewResolutionBucket()

	r.Handle(pathInitializeMsg, InitializeHandler{auth: auth, bucket: bucket, ledger: ctrl})
	r.Handle(pathExchangeMsg, ExchangeHandler{auth: auth, bucket: bucket, resolutions: resolutions, ledger: ctrl})
	r.Handle(pathCancelMsg, CancelHandler{auth: auth, bucket: bucket, resolutions: resolutions, ledger: ctrl})
	r.Handle(pathUpdateConfigMsg, gconf.NewUpdateConfigurationHandler(packageName, &Configuration{}, auth))
}

// RegisterQuery will register escrows as "/escrows" and resolutions as
// "/resolutions".
func RegisterQuery(qr weave.QueryRouter) {
	NewBucket().Register("escrows", qr)
	NewResolutionBucket().Register("resolutions", qr)
}

func hexID(id []byte) string {
	return fmt.Sprintf("%X", id)
}

func stateTags(escrowID []byte, s State) []common.KVPair {
	return []common.KVPair{
		weave.NewTag([]byte(TagEscrow), escrowID),
		weave.NewTag([]byte(TagState), []byte(s.String())),
	}
}

// InitializeHandler locks the offered unit in a new custody account.
type InitializeHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
	ledger ledger.Controller
}

var _ weave.Handler = InitializeHandler{}

// Check just verifies it is properly formed and that all referenced
// accounts belong to the initializer.
func (h InitializeHandler) Check(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

// Deliver creates the custody account, hands it over to the custody
// authority, deposits one unit and stores the escrow.
func (h InitializeHandler) Deliver(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}

	key, err := escrowSeq.NextVal(db)
	if err != nil {
		return nil, errors.Wrap(err, "cannot acquire key")
	}
	switch err := h.bucket.Has(db, key); {
	case err == nil:
		return nil, errors.Wrapf(errors.ErrDuplicate, "escrow %X", key)
	case !errors.ErrNotFound.Is(err):
		return nil, err
	}
	custody := deriveCustody(conf, key)

	custodyAccount, err := h.ledger.CreateAccount(ctx, db, h.auth, msg.Initializer, msg.OfferedAsset, msg.Initializer)
	if err != nil {
		return nil, errors.Wrap(err, "cannot create custody account")
	}
	if err := h.ledger.SetOwner(ctx, db, h.auth, custodyAccount, custody.Address()); err != nil {
		return nil, errors.Wrap(err, "cannot assign custody authority")
	}
	if err := h.ledger.Transfer(ctx, db, h.auth, msg.DepositAccount, custodyAccount, 1); err != nil {
		return nil, errors.Wrap(err, "cannot deposit")
	}

	escrow := &Escrow{
		Metadata:        &weave.Metadata{Schema: 1},
		Initializer:     msg.Initializer,
		OfferedAsset:    msg.OfferedAsset,
		DepositAccount:  msg.DepositAccount,
		CustodyAccount:  custodyAccount,
		RequestedAsset:  msg.RequestedAsset,
		RequestedAmount: msg.RequestedAmount,
		ReceiveAccount:  msg.ReceiveAccount,
	}
	if _, err := h.bucket.Put(db, key, escrow); err != nil {
		return nil, errors.Wrap(err, "cannot store escrow")
	}

	weave.GetLogger(ctx).Info("escrow initialized",
		"escrow", hexID(key), "state", Active, "custody", hexID(custodyAccount))
	return &weave.DeliverResult{Data: key, Tags: stateTags(key, Active)}, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h InitializeHandler) validate(ctx context.Context, db weave.KVStore, tx weave.Tx) (*InitializeMsg, error) {
	var msg InitializeMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Initializer) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "initializer signature required")
	}

	deposit, err := suppliedAccount(db, h.ledger, msg.DepositAccount, "deposit account")
	if err != nil {
		return nil, err
	}
	if err := ownedHolding(deposit, msg.OfferedAsset, msg.Initializer); err != nil {
		return nil, errors.Wrap(err, "deposit account")
	}
	if deposit.Amount < 1 {
		return nil, errors.Wrap(errors.ErrAmount, "deposit account is empty")
	}

	receive, err := suppliedAccount(db, h.ledger, msg.ReceiveAccount, "receive account")
	if err != nil {
		return nil, err
	}
	if err := ownedHolding(receive, msg.RequestedAsset, msg.Initializer); err != nil {
		return nil, errors.Wrap(err, "receive account")
	}
	return &msg, nil
}

// ownedHolding returns an error unless the account holds the given asset
// and is owned by the given address.
func ownedHolding(acc *ledger.Account, asset []byte, owner weave.Address) error {
	if string(acc.Asset) != string(asset) {
		return errors.Wrapf(errors.ErrInput, "holds asset %X, want %X", acc.Asset, asset)
	}
	if !acc.Owner.Equals(owner) {
		return errors.Wrapf(errors.ErrUnauthorized, "owned by %s", acc.Owner)
	}
	return nil
}

// suppliedAccount loads an account referenced by the message. A reference
// to an account that does not exist is a bad input, not a ledger failure.
func suppliedAccount(db weave.ReadOnlyKVStore, ctrl ledger.Reader, id []byte, name string) (*ledger.Account, error) {
	acc, err := ctrl.Account(db, id)
	switch {
	case err == nil:
		return acc, nil
	case ledger.ErrNoSuchAccount.Is(err):
		return nil, errors.Wrapf(errors.ErrInput, "%s %X does not exist", name, id)
	default:
		return nil, errors.Wrap(err, name)
	}
}

// fitsBalance returns an error if crediting amount to the account would
// overflow its balance.
func fitsBalance(db weave.ReadOnlyKVStore, ctrl ledger.Reader, id []byte, amount uint64) error {
	acc, err := ctrl.Account(db, id)
	if err != nil {
		return errors.Wrap(err, "surplus destination")
	}
	if acc.Amount+amount < acc.Amount {
		return errors.Wrap(errors.ErrOverflow, "surplus destination balance")
	}
	return nil
}

// loadEscrow returns the active escrow or ErrNotFound.
func loadEscrow(db weave.ReadOnlyKVStore, bucket orm.ModelBucket, id []byte) (*Escrow, error) {
	var escrow Escrow
	if err := bucket.One(db, id, &escrow); err != nil {
		return nil, errors.Wrap(err, "cannot load escrow from the store")
	}
	return &escrow, nil
}

// verifyCustody re-derives the custody authority of the escrow and ensures
// it still owns the custody account.
func verifyCustody(db weave.ReadOnlyKVStore, ctrl ledger.Reader, id []byte, escrow *Escrow) (custodyAuthority, *ledger.Account, error) {
	conf, err := loadConf(db)
	if err != nil {
		return custodyAuthority{}, nil, err
	}
	custody := deriveCustody(conf, id)
	acc, err := ctrl.Account(db, escrow.CustodyAccount)
	if err != nil {
		return custodyAuthority{}, nil, errors.Wrap(err, "custody account")
	}
	if !acc.Owner.Equals(custody.Address()) {
		return custodyAuthority{}, nil, errors.Wrapf(ErrAuthority, "custody account owned by %s", acc.Owner)
	}
	return custody, acc, nil
}

// resolve deletes the escrow and records how it ended.
func resolve(db weave.KVStore, bucket, resolutions orm.ModelBucket, id []byte, s State, resolver weave.Address) error {
	if err := bucket.Delete(db, id); err != nil {
		return errors.Wrap(err, "cannot delete escrow")
	}
	res := &Resolution{
		Metadata: &weave.Metadata{Schema: 1},
		State:    s,
		Resolver: resolver,
	}
	if _, err := resolutions.Put(db, id, res); err != nil {
		return errors.Wrap(err, "cannot store resolution")
	}
	return nil
}

// ExchangeHandler settles an escrow, swapping the payment for the locked
// unit.
type ExchangeHandler struct {
	auth        x.Authenticator
	bucket      orm.ModelBucket
	resolutions orm.ModelBucket
	ledger      ledger.Controller
}

var _ weave.Handler = ExchangeHandler{}

// Check verifies that the exchange would succeed.
func (h ExchangeHandler) Check(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

// Deliver pays the initializer, releases the locked unit to the taker and
// deletes the escrow.
func (h ExchangeHandler) Deliver(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, escrow, custody, release, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	// Exactly the requested amount, even if the taker holds more.
	if err := h.ledger.Transfer(ctx, db, h.auth, msg.TakerPayAccount, escrow.ReceiveAccount, escrow.RequestedAmount); err != nil {
		return nil, errors.Wrap(err, "cannot pay initializer")
	}
	if err := h.ledger.Transfer(ctx, db, custody, escrow.CustodyAccount, msg.TakerReceiveAccount, 1); err != nil {
		return nil, errors.Wrap(err, "cannot release custody")
	}
	if release.surplus > 0 {
		if err := h.ledger.Transfer(ctx, db, custody, escrow.CustodyAccount, release.surplusTo, release.surplus); err != nil {
			return nil, errors.Wrap(err, "cannot return custody surplus")
		}
	}
	if err := h.ledger.Close(ctx, db, custody, escrow.CustodyAccount, escrow.Initializer); err != nil {
		return nil, errors.Wrap(err, "cannot close custody account")
	}
	if err := resolve(db, h.bucket, h.resolutions, msg.EscrowID, Settled, msg.Taker); err != nil {
		return nil, err
	}

	weave.GetLogger(ctx).Info("escrow resolved",
		"escrow", hexID(msg.EscrowID), "state", Settled, "taker", msg.Taker)
	return &weave.DeliverResult{Data: msg.EscrowID, Tags: stateTags(msg.EscrowID, Settled)}, nil
}

// custodyRelease describes what is left in the custody account once the
// escrowed unit is released. Units anyone sent to the custody account on
// top of the deposit go back to the deposit account, or to the taker when
// the deposit account no longer exists.
type custodyRelease struct {
	surplus   uint64
	surplusTo []byte
}

// validate does all common pre-processing between Check and Deliver.
func (h ExchangeHandler) validate(ctx context.Context, db weave.KVStore, tx weave.Tx) (*ExchangeMsg, *Escrow, custodyAuthority, custodyRelease, error) {
	var msg ExchangeMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, custodyAuthority{}, custodyRelease{}, errors.Wrap(err, "load msg")
	}
	escrow, err := loadEscrow(db, h.bucket, msg.EscrowID)
	if err != nil {
		return nil, nil, custodyAuthority{}, custodyRelease{}, err
	}
	if !h.auth.HasAddress(ctx, msg.Taker) {
		return nil, nil, custodyAuthority{}, custodyRelease{}, errors.Wrap(errors.ErrUnauthorized, "taker signature required")
	}

	if !msg.Initializer.Equals(escrow.Initializer) {
		return nil, nil, custodyAuthority{}, custodyRelease{}, errors.Wrap(errors.ErrInput, "initializer does not match the escrow")
	}
	if string(msg.InitializerReceiveAccount) != string(escrow.ReceiveAccount) {
		return nil, nil, custodyAuthority{}, custodyRelease{}, errors.Wrap(errors.ErrInput, "initializer receive account does not match the escrow")
	}
	if string(msg.CustodyAccount) != string(escrow.CustodyAccount) {
		return nil, nil, custodyAuthority{}, custodyRelease{}, errors.Wrap(errors.ErrInput, "custody account does not match the escrow")
	}

	pay, err := suppliedAccount(db, h.ledger, msg.TakerPayAccount, "taker pay account")
	if err != nil {
		return nil, nil, custodyAuthority{}, custodyRelease{}, err
	}
	if err := ownedHolding(pay, escrow.RequestedAsset, msg.Taker); err != nil {
		return nil, nil, custodyAuthority{}, custodyRelease{}, errors.Wrap(err, "taker pay account")
	}
	if pay.Amount < escrow.RequestedAmount {
		return nil, nil, custodyAuthority{}, custodyRelease{}, errors.Wrapf(errors.ErrAmount, "taker holds %d, escrow requests %d", pay.Amount, escrow.RequestedAmount)
	}

	receive, err := suppliedAccount(db, h.ledger, msg.TakerReceiveAccount, "taker receive account")
	if err != nil {
		return nil, nil, custodyAuthority{}, custodyRelease{}, err
	}
	if err := ownedHolding(receive, escrow.OfferedAsset, msg.Taker); err != nil {
		return nil, nil, custodyAuthority{}, custodyRelease{}, errors.Wrap(err, "taker receive account")
	}

	custody, custodyAcc, err := verifyCustody(db, h.ledger, msg.EscrowID, escrow)
	if err != nil {
		return nil, nil, custodyAuthority{}, custodyRelease{}, err
	}
	if custodyAcc.Amount < 1 {
		return nil, nil, custodyAuthority{}, custodyRelease{}, errors.Wrap(errors.ErrState, "custody account is empty")
	}
	release := custodyRelease{surplus: custodyAcc.Amount - 1}
	if release.surplus > 0 {
		release.surplusTo, err = h.surplusDestination(db, escrow, msg.TakerReceiveAccount)
		if err != nil {
			return nil, nil, custodyAuthority{}, custodyRelease{}, err
		}
		if err := fitsBalance(db, h.ledger, release.surplusTo, release.surplus); err != nil {
			return nil, nil, custodyAuthority{}, custodyRelease{}, err
		}
	}
	return &msg, escrow, custody, release, nil
}

// surplusDestination returns the deposit account the escrowed unit came
// from, or the taker receive account if the deposit account was closed.
func (h ExchangeHandler) surplusDestination(db weave.ReadOnlyKVStore, escrow *Escrow, takerReceive []byte) ([]byte, error) {
	switch _, err := h.ledger.Account(db, escrow.DepositAccount); {
	case err == nil:
		return escrow.DepositAccount, nil
	case ledger.ErrNoSuchAccount.Is(err):
		return takerReceive, nil
	default:
		return nil, errors.Wrap(err, "deposit account")
	}
}

// CancelHandler returns the locked unit to the initializer and deletes the
// escrow.
type CancelHandler struct {
	auth        x.Authenticator
	bucket      orm.ModelBucket
	resolutions orm.ModelBucket
	ledger      ledger.Controller
}

var _ weave.Handler = CancelHandler{}

// Check verifies that the cancellation would succeed.
func (h CancelHandler) Check(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

// Deliver moves the custody balance back to the deposit account, closes
// the custody account and deletes the escrow.
func (h CancelHandler) Deliver(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, escrow, custody, custodyAcc, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	if custodyAcc.Amount > 0 {
		if err := h.ledger.Transfer(ctx, db, custody, escrow.CustodyAccount, escrow.DepositAccount, custodyAcc.Amount); err != nil {
			return nil, errors.Wrap(err, "cannot return deposit")
		}
	}
	if err := h.ledger.Close(ctx, db, custody, escrow.CustodyAccount, escrow.Initializer); err != nil {
		return nil, errors.Wrap(err, "cannot close custody account")
	}
	if err := resolve(db, h.bucket, h.resolutions, msg.EscrowID, Cancelled, escrow.Initializer); err != nil {
		return nil, err
	}

	weave.GetLogger(ctx).Info("escrow resolved",
		"escrow", hexID(msg.EscrowID), "state", Cancelled)
	return &weave.DeliverResult{Data: msg.EscrowID, Tags: stateTags(msg.EscrowID, Cancelled)}, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h CancelHandler) validate(ctx context.Context, db weave.KVStore, tx weave.Tx) (*CancelMsg, *Escrow, custodyAuthority, *ledger.Account, error) {
	var msg CancelMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, custodyAuthority{}, nil, errors.Wrap(err, "load msg")
	}
	escrow, err := loadEscrow(db, h.bucket, msg.EscrowID)
	if err != nil {
		return nil, nil, custodyAuthority{}, nil, err
	}

	// Only the initializer can cancel.
	if !msg.Initializer.Equals(escrow.Initializer) {
		return nil, nil, custodyAuthority{}, nil, errors.Wrap(errors.ErrUnauthorized, "not the escrow initializer")
	}
	if !h.auth.HasAddress(ctx, escrow.Initializer) {
		return nil, nil, custodyAuthority{}, nil, errors.Wrap(errors.ErrUnauthorized, "initializer signature required")
	}
	if string(msg.DepositAccount) != string(escrow.DepositAccount) {
		return nil, nil, custodyAuthority{}, nil, errors.Wrap(errors.ErrInput, "deposit account does not match the escrow")
	}
	if string(msg.CustodyAccount) != string(escrow.CustodyAccount) {
		return nil, nil, custodyAuthority{}, nil, errors.Wrap(errors.ErrInput, "custody account does not match the escrow")
	}

	custody, acc, err := verifyCustody(db, h.ledger, msg.EscrowID, escrow)
	if err != nil {
		return nil, nil, custodyAuthority{}, nil, err
	}
	if acc.Amount > 0 {
		if _, err := suppliedAccount(db, h.ledger, escrow.DepositAccount, "deposit account"); err != nil {
			return nil, nil, custodyAuthority{}, nil, err
		}
	}
	return &msg, escrow, custody, acc, nil
}
