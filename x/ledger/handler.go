package ledger

import (
	"context"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/gconf"
	"github.com/iov-one/weave-escrow/x"
)

// RegisterRoutes will instantiate and register all handlers in this
// package.
func RegisterRoutes(r weave.Registry, auth x.Authenticator, ctrl Controller) {
	r.Handle(pathCreateAssetMsg, createAssetHandler{auth: auth, ctrl: ctrl})
	r.Handle(pathIssueMsg, issueHandler{auth: auth, ctrl: ctrl})
	r.Handle(pathCreateAccountMsg, createAccountHandler{auth: auth, ctrl: ctrl})
	r.Handle(pathTransferMsg, transferHandler{auth: auth, ctrl: ctrl})
	r.Handle(pathSetOwnerMsg, setOwnerHandler{auth: auth, ctrl: ctrl})
	r.Handle(pathCloseAccountMsg, closeAccountHandler{auth: auth, ctrl: ctrl})
	r.Handle(pathUpdateConfigMsg, gconf.NewUpdateConfigurationHandler(packageName, &Configuration{}, auth))
}

// RegisterQuery registers ledger buckets under "/assets", "/accounts" and
// "/reserves".
func RegisterQuery(qr weave.QueryRouter) {
	NewAssetBucket().Register("assets", qr)
	NewAccountBucket().Register("accounts", qr)
	NewReserveBucket().Register("reserves", qr)
}

// dryRun executes the operation against a cache wrap that is always
// discarded. The controller validates state while mutating it, so Check
// cannot be implemented by a separate read only pass.
func dryRun(db weave.KVStore, fn func(weave.KVStore) ([]byte, error)) (*weave.CheckResult, error) {
	cstore, ok := db.(weave.CacheableKVStore)
	if !ok {
		return nil, errors.Wrap(errors.ErrHuman, "check requires a cacheable store")
	}
	cache := cstore.CacheWrap()
	defer cache.Discard()
	data, err := fn(cache)
	if err != nil {
		return nil, err
	}
	return &weave.CheckResult{Data: data}, nil
}

type createAssetHandler struct {
	auth x.Authenticator
	ctrl Controller
}

func (h createAssetHandler) Check(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	return dryRun(db, func(db weave.KVStore) ([]byte, error) { return h.apply(ctx, db, tx) })
}

func (h createAssetHandler) Deliver(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	id, err := h.apply(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	return &weave.DeliverResult{Data: id}, nil
}

func (h createAssetHandler) apply(ctx context.Context, db weave.KVStore, tx weave.Tx) ([]byte, error) {
	var msg CreateAssetMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return h.ctrl.CreateAsset(ctx, db, h.auth, msg.Issuer, msg.Name)
}

type issueHandler struct {
	auth x.Authenticator
	ctrl Controller
}

func (h issueHandler) Check(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	return dryRun(db, func(db weave.KVStore) ([]byte, error) { return nil, h.apply(ctx, db, tx) })
}

func (h issueHandler) Deliver(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	if err := h.apply(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.DeliverResult{}, nil
}

func (h issueHandler) apply(ctx context.Context, db weave.KVStore, tx weave.Tx) error {
	var msg IssueMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return errors.Wrap(err, "load msg")
	}
	return h.ctrl.Issue(ctx, db, h.auth, msg.Asset, msg.Destination, msg.Amount)
}

type createAccountHandler struct {
	auth x.Authenticator
	ctrl Controller
}

func (h createAccountHandler) Check(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	return dryRun(db, func(db weave.KVStore) ([]byte, error) { return h.apply(ctx, db, tx) })
}

func (h createAccountHandler) Deliver(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	id, err := h.apply(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	return &weave.DeliverResult{Data: id}, nil
}

func (h createAccountHandler) apply(ctx context.Context, db weave.KVStore, tx weave.Tx) ([]byte, error) {
	var msg CreateAccountMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return h.ctrl.CreateAccount(ctx, db, h.auth, msg.Payer, msg.Asset, msg.Owner)
}

type transferHandler struct {
	auth x.Authenticator
	ctrl Controller
}

func (h transferHandler) Check(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	return dryRun(db, func(db weave.KVStore) ([]byte, error) { return nil, h.apply(ctx, db, tx) })
}

func (h transferHandler) Deliver(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	if err := h.apply(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.DeliverResult{}, nil
}

func (h transferHandler) apply(ctx context.Context, db weave.KVStore, tx weave.Tx) error {
	var msg TransferMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return errors.Wrap(err, "load msg")
	}
	return h.ctrl.Transfer(ctx, db, h.auth, msg.Source, msg.Destination, msg.Amount)
}

type setOwnerHandler struct {
	auth x.Authenticator
	ctrl Controller
}

func (h setOwnerHandler) Check(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	return dryRun(db, func(db weave.KVStore) ([]byte, error) { return nil, h.apply(ctx, db, tx) })
}

func (h setOwnerHandler) Deliver(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	if err := h.apply(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.DeliverResult{}, nil
}

func (h setOwnerHandler) apply(ctx context.Context, db weave.KVStore, tx weave.Tx) error {
	var msg SetOwnerMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return errors.Wrap(err, "load msg")
	}
	return h.ctrl.SetOwner(ctx, db, h.auth, msg.Account, msg.Owner)
}

type closeAccountHandler struct {
	auth x.Authenticator
	ctrl Controller
}

func (h closeAccountHandler) Check(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	return dryRun(db, func(db weave.KVStore) ([]byte, error) { return nil, h.apply(ctx, db, tx) })
}

func (h closeAccountHandler) Deliver(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	if err := h.apply(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.DeliverResult{}, nil
}

func (h closeAccountHandler) apply(ctx context.Context, db weave.KVStore, tx weave.Tx) error {
	var msg CloseAccountMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return errors.Wrap(err, "load msg")
	}
	return h.ctrl.Close(ctx, db, h.auth, msg.Account, msg.Recipient)
}
