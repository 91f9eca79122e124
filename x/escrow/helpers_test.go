package escrow

import (
	"context"
	"testing"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/gconf"
	"github.com/iov-one/weave-escrow/store"
	"github.com/iov-one/weave-escrow/weavetest"
	"github.com/iov-one/weave-escrow/x/ledger"
)

const (
	testRent       = 10
	testPrice      = 500
	testTakerFunds = 600
)

var testSeed = []byte("escrow-test-seed")

// fixture is a ledger prepared for a single trade. The initializer owns one
// unit of the offered asset and an empty account of the requested asset.
// The taker owns testTakerFunds of the requested asset and an empty account
// of the offered asset.
type fixture struct {
	db   weave.CacheableKVStore
	ctrl *ledger.BaseController
	auth *weavetest.CtxAuth
	conf *Configuration

	initializer weave.Condition
	taker       weave.Condition

	offered   []byte
	requested []byte

	deposit      []byte
	receive      []byte
	takerPay     []byte
	takerReceive []byte
}

func newFixture(t testing.TB, perTrade bool) *fixture {
	t.Helper()

	f := &fixture{
		db:          store.MemStore(),
		ctrl:        ledger.NewController(),
		auth:        &weavetest.CtxAuth{Key: "auth"},
		initializer: weavetest.NewCondition(),
		taker:       weavetest.NewCondition(),
		conf: &Configuration{
			Metadata:    &weave.Metadata{Schema: 1},
			CustodySeed: testSeed,
			PerTrade:    perTrade,
		},
	}
	if err := gconf.Save(f.db, packageName, f.conf); err != nil {
		t.Fatalf("cannot save escrow configuration: %s", err)
	}
	ledgerConf := &ledger.Configuration{Metadata: &weave.Metadata{Schema: 1}, RentDeposit: testRent}
	if err := gconf.Save(f.db, "ledger", ledgerConf); err != nil {
		t.Fatalf("cannot save ledger configuration: %s", err)
	}
	for _, c := range []weave.Condition{f.initializer, f.taker} {
		if err := f.ctrl.CreditReserve(f.db, c.Address(), 10*testRent); err != nil {
			t.Fatalf("cannot fund reserve: %s", err)
		}
	}

	ctx := context.Background()
	both := &weavetest.Auth{Signers: []weave.Condition{f.initializer, f.taker}}
	must := func(id []byte, err error) []byte {
		t.Helper()
		if err != nil {
			t.Fatalf("cannot prepare ledger: %+v", err)
		}
		return id
	}
	f.offered = must(f.ctrl.CreateAsset(ctx, f.db, both, f.initializer.Address(), "ARTWORK"))
	f.requested = must(f.ctrl.CreateAsset(ctx, f.db, both, f.taker.Address(), "CASH"))
	f.deposit = must(f.ctrl.CreateAccount(ctx, f.db, both, f.initializer.Address(), f.offered, f.initializer.Address()))
	f.receive = must(f.ctrl.CreateAccount(ctx, f.db, both, f.initializer.Address(), f.requested, f.initializer.Address()))
	f.takerPay = must(f.ctrl.CreateAccount(ctx, f.db, both, f.taker.Address(), f.requested, f.taker.Address()))
	f.takerReceive = must(f.ctrl.CreateAccount(ctx, f.db, both, f.taker.Address(), f.offered, f.taker.Address()))
	must(nil, f.ctrl.Issue(ctx, f.db, both, f.offered, f.deposit, 1))
	must(nil, f.ctrl.Issue(ctx, f.db, both, f.requested, f.takerPay, testTakerFunds))
	return f
}

// handlers returns all escrow handlers by path.
func (f *fixture) handlers() map[string]weave.Handler {
	rt := newTestRouter()
	RegisterRoutes(rt, f.auth, f.ctrl)
	return rt.routes
}

// signed returns a context authenticated by the given conditions.
func (f *fixture) signed(conds ...weave.Condition) context.Context {
	return f.auth.SetConditions(context.Background(), conds...)
}

func (f *fixture) initializeMsg() *InitializeMsg {
	return &InitializeMsg{
		Metadata:        &weave.Metadata{Schema: 1},
		Initializer:     f.initializer.Address(),
		DepositAccount:  f.deposit,
		OfferedAsset:    f.offered,
		RequestedAsset:  f.requested,
		RequestedAmount: testPrice,
		ReceiveAccount:  f.receive,
	}
}

// initialize creates an escrow with default terms and returns its ID.
func (f *fixture) initialize(t testing.TB) []byte {
	t.Helper()
	h := f.handlers()[pathInitializeMsg]
	res, err := h.Deliver(f.signed(f.initializer), f.db, &weavetest.Tx{Msg: f.initializeMsg()})
	if err != nil {
		t.Fatalf("cannot initialize escrow: %+v", err)
	}
	return res.Data
}

func (f *fixture) exchangeMsg(t testing.TB, id []byte) *ExchangeMsg {
	t.Helper()
	escrow := f.escrow(t, id)
	return &ExchangeMsg{
		Metadata:                  &weave.Metadata{Schema: 1},
		EscrowID:                  id,
		Taker:                     f.taker.Address(),
		TakerPayAccount:           f.takerPay,
		TakerReceiveAccount:       f.takerReceive,
		Initializer:               f.initializer.Address(),
		InitializerReceiveAccount: f.receive,
		CustodyAccount:            escrow.CustodyAccount,
	}
}

func (f *fixture) cancelMsg(t testing.TB, id []byte) *CancelMsg {
	t.Helper()
	escrow := f.escrow(t, id)
	return &CancelMsg{
		Metadata:       &weave.Metadata{Schema: 1},
		EscrowID:       id,
		Initializer:    f.initializer.Address(),
		DepositAccount: f.deposit,
		CustodyAccount: escrow.CustodyAccount,
	}
}

func (f *fixture) escrow(t testing.TB, id []byte) *Escrow {
	t.Helper()
	var e Escrow
	if err := NewBucket().One(f.db, id, &e); err != nil {
		t.Fatalf("cannot load escrow: %+v", err)
	}
	return &e
}

func (f *fixture) balance(t testing.TB, account []byte) uint64 {
	t.Helper()
	acc, err := f.ctrl.Account(f.db, account)
	if err != nil {
		t.Fatalf("cannot load account %X: %+v", account, err)
	}
	return acc.Amount
}

func (f *fixture) owner(t testing.TB, account []byte) weave.Address {
	t.Helper()
	acc, err := f.ctrl.Account(f.db, account)
	if err != nil {
		t.Fatalf("cannot load account %X: %+v", account, err)
	}
	return acc.Owner
}

func (f *fixture) reserve(t testing.TB, owner weave.Address) uint64 {
	t.Helper()
	r, err := f.ctrl.Reserve(f.db, owner)
	if err != nil {
		t.Fatalf("cannot load reserve: %+v", err)
	}
	return r
}

type testRouter struct {
	routes map[string]weave.Handler
}

func newTestRouter() *testRouter {
	return &testRouter{routes: make(map[string]weave.Handler)}
}

func (r *testRouter) Handle(path string, h weave.Handler) {
	r.routes[path] = h
}
