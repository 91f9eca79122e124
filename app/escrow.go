package app

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/x"
	"github.com/iov-one/weave-escrow/x/escrow"
	"github.com/iov-one/weave-escrow/x/ledger"
	"github.com/iov-one/weave-escrow/x/sigs"
	"github.com/iov-one/weave-escrow/x/utils"
)

// Authenticator returns the authentication used by all handlers: the
// signatures verified by the sigs decorator.
func Authenticator() x.Authenticator {
	return x.ChainAuth(sigs.Authenticate{})
}

// Stack wires the decorators and handlers of the escrow application.
// Every delivered transaction runs in its own savepoint, so a failing
// handler never leaves partial state behind even inside a larger batch.
func Stack(ctrl ledger.Controller) weave.Handler {
	auth := Authenticator()

	r := NewRouter()
	sigs.RegisterRoutes(r, auth)
	ledger.RegisterRoutes(r, auth, ctrl)
	escrow.RegisterRoutes(r, auth, ctrl)

	return ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		utils.NewMetrics(),
		utils.NewActionTagger(),
		sigs.NewDecorator(),
		utils.NewSavepoint().OnDeliver(),
	).WithHandler(r)
}

// Queries returns a query router exposing the state of all extensions.
func Queries() weave.QueryRouter {
	qr := weave.NewQueryRouter()
	qr.RegisterAll(
		sigs.RegisterQuery,
		ledger.RegisterQuery,
		escrow.RegisterQuery,
	)
	return qr
}

// Initializers loads the genesis state of all extensions. The ledger is
// loaded first, genesis escrows refer to its accounts.
func Initializers(ctrl ledger.Reader) weave.Initializer {
	return weave.ChainInitializers{
		&ledger.Initializer{},
		&escrow.Initializer{Ledger: ctrl},
	}
}
