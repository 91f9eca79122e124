package escrow

import (
	"context"
	"testing"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/weavetest"
	"github.com/iov-one/weave-escrow/weavetest/assert"
	"github.com/iov-one/weave-escrow/x"
	"github.com/iov-one/weave-escrow/x/ledger"
)

func TestInitialize(t *testing.T) {
	cases := map[string]struct {
		// Prepare can modify the fixture and the message before it is
		// processed.
		Prepare func(t testing.TB, f *fixture, msg *InitializeMsg)
		Signers func(f *fixture) []weave.Condition
		WantErr *errors.Error
	}{
		"valid": {},
		"initializer did not sign": {
			Signers: func(f *fixture) []weave.Condition { return []weave.Condition{f.taker} },
			WantErr: errors.ErrUnauthorized,
		},
		"deposit account holds another asset": {
			Prepare: func(t testing.TB, f *fixture, msg *InitializeMsg) { msg.DepositAccount = f.takerPay },
			WantErr: errors.ErrInput,
		},
		"deposit account owned by someone else": {
			Prepare: func(t testing.TB, f *fixture, msg *InitializeMsg) { msg.DepositAccount = f.takerReceive },
			WantErr: errors.ErrUnauthorized,
		},
		"receive account holds another asset": {
			Prepare: func(t testing.TB, f *fixture, msg *InitializeMsg) {
				msg.ReceiveAccount = f.takerReceive
			},
			WantErr: errors.ErrInput,
		},
		"receive account owned by someone else": {
			Prepare: func(t testing.TB, f *fixture, msg *InitializeMsg) { msg.ReceiveAccount = f.takerPay },
			WantErr: errors.ErrUnauthorized,
		},
		"empty deposit account": {
			Prepare: func(t testing.TB, f *fixture, msg *InitializeMsg) {
				both := &weavetest.Auth{Signers: []weave.Condition{f.initializer, f.taker}}
				if err := f.ctrl.Transfer(context.Background(), f.db, both, f.deposit, f.takerReceive, 1); err != nil {
					t.Fatalf("cannot empty deposit: %+v", err)
				}
			},
			WantErr: errors.ErrAmount,
		},
		"missing deposit account": {
			Prepare: func(t testing.TB, f *fixture, msg *InitializeMsg) { msg.DepositAccount = weavetest.SequenceID(999) },
			WantErr: errors.ErrInput,
		},
		"missing receive account": {
			Prepare: func(t testing.TB, f *fixture, msg *InitializeMsg) { msg.ReceiveAccount = weavetest.SequenceID(999) },
			WantErr: errors.ErrInput,
		},
		"zero requested amount": {
			Prepare: func(t testing.TB, f *fixture, msg *InitializeMsg) { msg.RequestedAmount = 0 },
			WantErr: errors.ErrAmount,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t, true)
			msg := f.initializeMsg()
			if tc.Prepare != nil {
				tc.Prepare(t, f, msg)
			}
			signers := []weave.Condition{f.initializer}
			if tc.Signers != nil {
				signers = tc.Signers(f)
			}
			ctx := f.signed(signers...)
			h := f.handlers()[pathInitializeMsg]
			tx := &weavetest.Tx{Msg: msg}
			depositBefore := f.balance(t, f.deposit)

			cache := f.db.CacheWrap()
			_, err := h.Check(ctx, cache, tx)
			cache.Discard()
			assert.IsErr(t, tc.WantErr, err)

			res, err := h.Deliver(ctx, f.db, tx)
			assert.IsErr(t, tc.WantErr, err)
			if tc.WantErr != nil {
				assert.Equal(t, true, IsValidationErr(err) || IsSubstrateErr(err))
				assert.Equal(t, depositBefore, f.balance(t, f.deposit))
				return
			}

			id := res.Data
			assert.Equal(t, weavetest.SequenceID(1), id)
			escrow := f.escrow(t, id)
			assert.Equal(t, uint64(testPrice), escrow.RequestedAmount)
			assert.Equal(t, f.receive, escrow.ReceiveAccount)

			// The custody account is owned by the derived authority,
			// never by the initializer, and holds the deposited unit.
			custodyOwner := f.owner(t, escrow.CustodyAccount)
			assert.Equal(t, CustodyAddress(f.conf, id), custodyOwner)
			if custodyOwner.Equals(f.initializer.Address()) {
				t.Fatal("custody account owned by the initializer")
			}
			assert.Equal(t, uint64(1), f.balance(t, escrow.CustodyAccount))
			assert.Equal(t, uint64(0), f.balance(t, f.deposit))

			state, err := StateOf(f.db, id)
			assert.Nil(t, err)
			assert.Equal(t, Active, state)
		})
	}
}

func TestInitializePerTradeCustody(t *testing.T) {
	for _, perTrade := range []bool{true, false} {
		f := newFixture(t, perTrade)
		first := f.initialize(t)

		// Put the unit back to open a second escrow from the same
		// deposit.
		firstCustody := f.escrow(t, first).CustodyAccount
		h := f.handlers()[pathCancelMsg]
		if _, err := h.Deliver(f.signed(f.initializer), f.db, &weavetest.Tx{Msg: f.cancelMsg(t, first)}); err != nil {
			t.Fatalf("cannot cancel: %+v", err)
		}
		second := f.initialize(t)
		secondCustody := f.escrow(t, second).CustodyAccount

		sameOwner := CustodyAddress(f.conf, first).Equals(f.owner(t, secondCustody))
		assert.Equal(t, !perTrade, sameOwner)
		assert.Equal(t, false, string(firstCustody) == string(secondCustody))
	}
}

func TestExchange(t *testing.T) {
	cases := map[string]struct {
		Prepare        func(t testing.TB, f *fixture, msg *ExchangeMsg)
		Signers        func(f *fixture) []weave.Condition
		WantErr        *errors.Error
		WantTakerFunds uint64
		// WantDeposit is the deposit account balance after a settlement.
		WantDeposit uint64
		// WantTakerUnits is the taker receive balance after a settlement.
		WantTakerUnits uint64
	}{
		"exact amount": {
			Prepare: func(t testing.TB, f *fixture, msg *ExchangeMsg) {
				transferOut(t, f, testTakerFunds-testPrice)
			},
			WantTakerFunds: 0,
			WantTakerUnits: 1,
		},
		"more than requested moves only the price": {
			WantTakerFunds: testTakerFunds - testPrice,
			WantTakerUnits: 1,
		},
		"units sent to custody after initialization": {
			Prepare: func(t testing.TB, f *fixture, msg *ExchangeMsg) {
				sendToCustody(t, f, msg.CustodyAccount, 2)
			},
			WantTakerFunds: testTakerFunds - testPrice,
			WantTakerUnits: 1,
			WantDeposit:    2,
		},
		"units sent to custody after the deposit account was closed": {
			Prepare: func(t testing.TB, f *fixture, msg *ExchangeMsg) {
				sendToCustody(t, f, msg.CustodyAccount, 2)
				closeDeposit(t, f)
			},
			WantTakerFunds: testTakerFunds - testPrice,
			WantTakerUnits: 3,
		},
		"missing taker pay account": {
			Prepare:        func(t testing.TB, f *fixture, msg *ExchangeMsg) { msg.TakerPayAccount = weavetest.SequenceID(999) },
			WantErr:        errors.ErrInput,
			WantTakerFunds: testTakerFunds,
		},
		"missing taker receive account": {
			Prepare:        func(t testing.TB, f *fixture, msg *ExchangeMsg) { msg.TakerReceiveAccount = weavetest.SequenceID(999) },
			WantErr:        errors.ErrInput,
			WantTakerFunds: testTakerFunds,
		},
		"underpaying taker": {
			Prepare: func(t testing.TB, f *fixture, msg *ExchangeMsg) {
				transferOut(t, f, testTakerFunds-testPrice+1)
			},
			WantErr:        errors.ErrAmount,
			WantTakerFunds: testPrice - 1,
		},
		"taker did not sign": {
			Signers:        func(f *fixture) []weave.Condition { return []weave.Condition{f.initializer} },
			WantErr:        errors.ErrUnauthorized,
			WantTakerFunds: testTakerFunds,
		},
		"substituted initializer": {
			Prepare:        func(t testing.TB, f *fixture, msg *ExchangeMsg) { msg.Initializer = f.taker.Address() },
			WantErr:        errors.ErrInput,
			WantTakerFunds: testTakerFunds,
		},
		"substituted initializer receive account": {
			Prepare:        func(t testing.TB, f *fixture, msg *ExchangeMsg) { msg.InitializerReceiveAccount = f.takerReceive },
			WantErr:        errors.ErrInput,
			WantTakerFunds: testTakerFunds,
		},
		"substituted custody account": {
			Prepare:        func(t testing.TB, f *fixture, msg *ExchangeMsg) { msg.CustodyAccount = f.deposit },
			WantErr:        errors.ErrInput,
			WantTakerFunds: testTakerFunds,
		},
		"pay account holds another asset": {
			Prepare:        func(t testing.TB, f *fixture, msg *ExchangeMsg) { msg.TakerPayAccount = f.takerReceive },
			WantErr:        errors.ErrInput,
			WantTakerFunds: testTakerFunds,
		},
		"receive account holds another asset": {
			Prepare:        func(t testing.TB, f *fixture, msg *ExchangeMsg) { msg.TakerReceiveAccount = f.takerPay },
			WantErr:        errors.ErrInput,
			WantTakerFunds: testTakerFunds,
		},
		"receive account owned by the initializer": {
			Prepare:        func(t testing.TB, f *fixture, msg *ExchangeMsg) { msg.TakerReceiveAccount = f.deposit },
			WantErr:        errors.ErrUnauthorized,
			WantTakerFunds: testTakerFunds,
		},
		"unknown escrow": {
			Prepare:        func(t testing.TB, f *fixture, msg *ExchangeMsg) { msg.EscrowID = weavetest.SequenceID(42) },
			WantErr:        errors.ErrNotFound,
			WantTakerFunds: testTakerFunds,
		},
		"custody account taken over": {
			Prepare: func(t testing.TB, f *fixture, msg *ExchangeMsg) {
				hijackCustody(t, f, msg.CustodyAccount)
			},
			WantErr:        ErrAuthority,
			WantTakerFunds: testTakerFunds,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t, true)
			id := f.initialize(t)
			custody := f.escrow(t, id).CustodyAccount
			msg := f.exchangeMsg(t, id)
			if tc.Prepare != nil {
				tc.Prepare(t, f, msg)
			}
			signers := []weave.Condition{f.taker}
			if tc.Signers != nil {
				signers = tc.Signers(f)
			}
			ctx := f.signed(signers...)
			h := f.handlers()[pathExchangeMsg]
			tx := &weavetest.Tx{Msg: msg}
			initializerReserve := f.reserve(t, f.initializer.Address())

			cache := f.db.CacheWrap()
			_, err := h.Check(ctx, cache, tx)
			cache.Discard()
			assert.IsErr(t, tc.WantErr, err)

			_, err = h.Deliver(ctx, f.db, tx)
			assert.IsErr(t, tc.WantErr, err)
			assert.Equal(t, tc.WantTakerFunds, f.balance(t, f.takerPay))

			if tc.WantErr != nil {
				assert.Equal(t, true, IsValidationErr(err) || IsAuthorityErr(err))
				// Nothing moved and the escrow is still active.
				assert.Equal(t, uint64(0), f.balance(t, f.receive))
				assert.Equal(t, uint64(1), f.balance(t, custody))
				assert.Equal(t, uint64(0), f.balance(t, f.takerReceive))
				state, err := StateOf(f.db, id)
				assert.Nil(t, err)
				assert.Equal(t, Active, state)
				return
			}

			assert.Equal(t, uint64(testPrice), f.balance(t, f.receive))
			assert.Equal(t, tc.WantTakerUnits, f.balance(t, f.takerReceive))
			if _, err := f.ctrl.Account(f.db, f.deposit); err == nil {
				assert.Equal(t, tc.WantDeposit, f.balance(t, f.deposit))
			}
			_, err = f.ctrl.Account(f.db, custody)
			assert.IsErr(t, ledger.ErrNoSuchAccount, err)
			assert.Equal(t, initializerReserve+testRent, f.reserve(t, f.initializer.Address()))

			state, err := StateOf(f.db, id)
			assert.Nil(t, err)
			assert.Equal(t, Settled, state)
		})
	}
}

func TestCancel(t *testing.T) {
	cases := map[string]struct {
		Prepare func(t testing.TB, f *fixture, msg *CancelMsg)
		Signers func(f *fixture) []weave.Condition
		WantErr *errors.Error
		// Surplus is the number of units sent to the custody account on
		// top of the deposit.
		Surplus uint64
	}{
		"valid": {},
		"units sent to custody return with the deposit": {
			Prepare: func(t testing.TB, f *fixture, msg *CancelMsg) { sendToCustody(t, f, msg.CustodyAccount, 2) },
			Surplus: 2,
		},
		"taker cannot cancel": {
			Signers: func(f *fixture) []weave.Condition { return []weave.Condition{f.taker} },
			WantErr: errors.ErrUnauthorized,
		},
		"taker cannot cancel in own name": {
			Prepare: func(t testing.TB, f *fixture, msg *CancelMsg) { msg.Initializer = f.taker.Address() },
			Signers: func(f *fixture) []weave.Condition { return []weave.Condition{f.taker} },
			WantErr: errors.ErrUnauthorized,
		},
		"substituted deposit account": {
			Prepare: func(t testing.TB, f *fixture, msg *CancelMsg) { msg.DepositAccount = f.receive },
			WantErr: errors.ErrInput,
		},
		"substituted custody account": {
			Prepare: func(t testing.TB, f *fixture, msg *CancelMsg) { msg.CustodyAccount = f.deposit },
			WantErr: errors.ErrInput,
		},
		"custody account taken over": {
			Prepare: func(t testing.TB, f *fixture, msg *CancelMsg) { hijackCustody(t, f, msg.CustodyAccount) },
			WantErr: ErrAuthority,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t, true)
			id := f.initialize(t)
			custody := f.escrow(t, id).CustodyAccount
			msg := f.cancelMsg(t, id)
			if tc.Prepare != nil {
				tc.Prepare(t, f, msg)
			}
			signers := []weave.Condition{f.initializer}
			if tc.Signers != nil {
				signers = tc.Signers(f)
			}
			ctx := f.signed(signers...)
			h := f.handlers()[pathCancelMsg]
			tx := &weavetest.Tx{Msg: msg}

			cache := f.db.CacheWrap()
			_, err := h.Check(ctx, cache, tx)
			cache.Discard()
			assert.IsErr(t, tc.WantErr, err)

			_, err = h.Deliver(ctx, f.db, tx)
			assert.IsErr(t, tc.WantErr, err)

			if tc.WantErr != nil {
				assert.Equal(t, uint64(1), f.balance(t, custody))
				assert.Equal(t, uint64(0), f.balance(t, f.deposit))
				state, err := StateOf(f.db, id)
				assert.Nil(t, err)
				assert.Equal(t, Active, state)
				return
			}

			assert.Equal(t, 1+tc.Surplus, f.balance(t, f.deposit))
			_, err = f.ctrl.Account(f.db, custody)
			assert.IsErr(t, ledger.ErrNoSuchAccount, err)
			state, err := StateOf(f.db, id)
			assert.Nil(t, err)
			assert.Equal(t, Cancelled, state)
		})
	}
}

func TestExactlyOnceResolution(t *testing.T) {
	t.Run("settle then cancel", func(t *testing.T) {
		f := newFixture(t, true)
		id := f.initialize(t)
		hs := f.handlers()
		cancel := &weavetest.Tx{Msg: f.cancelMsg(t, id)}
		exchange := &weavetest.Tx{Msg: f.exchangeMsg(t, id)}

		_, err := hs[pathExchangeMsg].Deliver(f.signed(f.taker), f.db, exchange)
		assert.Nil(t, err)
		_, err = hs[pathCancelMsg].Deliver(f.signed(f.initializer), f.db, cancel)
		assert.IsErr(t, errors.ErrNotFound, err)
		assert.Equal(t, true, IsValidationErr(err))
		_, err = hs[pathExchangeMsg].Deliver(f.signed(f.taker), f.db, exchange)
		assert.IsErr(t, errors.ErrNotFound, err)

		var res Resolution
		assert.Nil(t, NewResolutionBucket().One(f.db, id, &res))
		assert.Equal(t, Settled, res.State)
		assert.Equal(t, f.taker.Address(), res.Resolver)
	})

	t.Run("cancel then settle", func(t *testing.T) {
		f := newFixture(t, true)
		id := f.initialize(t)
		hs := f.handlers()
		cancel := &weavetest.Tx{Msg: f.cancelMsg(t, id)}
		exchange := &weavetest.Tx{Msg: f.exchangeMsg(t, id)}

		_, err := hs[pathCancelMsg].Deliver(f.signed(f.initializer), f.db, cancel)
		assert.Nil(t, err)
		_, err = hs[pathExchangeMsg].Deliver(f.signed(f.taker), f.db, exchange)
		assert.IsErr(t, errors.ErrNotFound, err)
		_, err = hs[pathCancelMsg].Deliver(f.signed(f.initializer), f.db, cancel)
		assert.IsErr(t, errors.ErrNotFound, err)

		assert.Equal(t, uint64(testTakerFunds), f.balance(t, f.takerPay))
		state, err := StateOf(f.db, id)
		assert.Nil(t, err)
		assert.Equal(t, Cancelled, state)
	})
}

// TestAtomicSwap ensures a failure in the second leg of the exchange
// leaves no trace of the first leg once the transaction is discarded.
func TestAtomicSwap(t *testing.T) {
	f := newFixture(t, true)
	id := f.initialize(t)
	custody := f.escrow(t, id).CustodyAccount

	rt := newTestRouter()
	RegisterRoutes(rt, f.auth, &failingRelease{BaseController: f.ctrl, custody: custody})
	h := rt.routes[pathExchangeMsg]

	cache := f.db.CacheWrap()
	_, err := h.Deliver(f.signed(f.taker), cache, &weavetest.Tx{Msg: f.exchangeMsg(t, id)})
	assert.IsErr(t, errors.ErrDatabase, err)
	assert.Equal(t, true, IsSubstrateErr(err))

	// The payment was already applied to the cache when the release
	// failed.
	paid, err := f.ctrl.Account(cache, f.receive)
	assert.Nil(t, err)
	assert.Equal(t, uint64(testPrice), paid.Amount)
	cache.Discard()

	assert.Equal(t, uint64(testTakerFunds), f.balance(t, f.takerPay))
	assert.Equal(t, uint64(0), f.balance(t, f.receive))
	assert.Equal(t, uint64(1), f.balance(t, custody))
	state, err := StateOf(f.db, id)
	assert.Nil(t, err)
	assert.Equal(t, Active, state)
}

// failingRelease fails every transfer out of the custody account.
type failingRelease struct {
	*ledger.BaseController
	custody []byte
}

func (c *failingRelease) Transfer(ctx context.Context, db weave.KVStore, auth x.Authenticator, src, dst []byte, amount uint64) error {
	if string(src) == string(c.custody) {
		return errors.Wrap(errors.ErrDatabase, "disk on fire")
	}
	return c.BaseController.Transfer(ctx, db, auth, src, dst, amount)
}

// transferOut moves amount from the taker pay account to a fresh account
// owned by the taker.
func transferOut(t testing.TB, f *fixture, amount uint64) {
	t.Helper()
	auth := &weavetest.Auth{Signer: f.taker}
	ctx := context.Background()
	sink, err := f.ctrl.CreateAccount(ctx, f.db, auth, f.taker.Address(), f.requested, f.taker.Address())
	if err != nil {
		t.Fatalf("cannot create account: %+v", err)
	}
	if err := f.ctrl.Transfer(ctx, f.db, auth, f.takerPay, sink, amount); err != nil {
		t.Fatalf("cannot transfer: %+v", err)
	}
}

// sendToCustody issues amount new units of the offered asset to a third
// party, who sends them to the custody account.
func sendToCustody(t testing.TB, f *fixture, custody []byte, amount uint64) {
	t.Helper()
	stranger := weavetest.NewCondition()
	ctx := context.Background()
	if err := f.ctrl.CreditReserve(f.db, stranger.Address(), testRent); err != nil {
		t.Fatalf("cannot fund reserve: %+v", err)
	}
	auth := &weavetest.Auth{Signers: []weave.Condition{f.initializer, stranger}}
	src, err := f.ctrl.CreateAccount(ctx, f.db, auth, stranger.Address(), f.offered, stranger.Address())
	if err != nil {
		t.Fatalf("cannot create account: %+v", err)
	}
	if err := f.ctrl.Issue(ctx, f.db, auth, f.offered, src, amount); err != nil {
		t.Fatalf("cannot issue: %+v", err)
	}
	if err := f.ctrl.Transfer(ctx, f.db, &weavetest.Auth{Signer: stranger}, src, custody, amount); err != nil {
		t.Fatalf("cannot transfer to custody: %+v", err)
	}
}

// closeDeposit closes the empty deposit account of the initializer.
func closeDeposit(t testing.TB, f *fixture) {
	t.Helper()
	auth := &weavetest.Auth{Signer: f.initializer}
	if err := f.ctrl.Close(context.Background(), f.db, auth, f.deposit, f.initializer.Address()); err != nil {
		t.Fatalf("cannot close deposit: %+v", err)
	}
}

// hijackCustody rewrites the custody account owner directly in the store,
// bypassing all authorization.
func hijackCustody(t testing.TB, f *fixture, custody []byte) {
	t.Helper()
	acc, err := f.ctrl.Account(f.db, custody)
	if err != nil {
		t.Fatalf("cannot load custody: %+v", err)
	}
	acc.Owner = f.taker.Address()
	if _, err := ledger.NewAccountBucket().Put(f.db, custody, acc); err != nil {
		t.Fatalf("cannot store custody: %+v", err)
	}
}
