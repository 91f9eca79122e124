package app

import (
	"context"
	"reflect"

	"github.com/iov-one/weave-escrow"
)

// Decorators is an ordered list of decorators not yet bound to a handler.
// The first decorator is the outermost one, so it sees the transaction
// first and the result last.
type Decorators []weave.Decorator

// ChainDecorators returns the decorators in the given order. Nil entries
// are skipped, which allows optional decorators to be listed inline:
//
//   app.ChainDecorators(
//     utils.NewLogging(),
//     utils.NewRecovery(),
//     sigs.NewDecorator(),
//     utils.NewSavepoint().OnDeliver(),
//   ).WithHandler(router)
func ChainDecorators(ds ...weave.Decorator) Decorators {
	return Decorators(nil).Chain(ds...)
}

// Chain returns a new list with ds appended after the current decorators.
func (d Decorators) Chain(ds ...weave.Decorator) Decorators {
	res := make(Decorators, 0, len(d)+len(ds))
	res = append(res, d...)
	return append(res, withoutNil(ds)...)
}

// withoutNil returns the decorators that are neither nil nor a typed nil
// pointer. The input is not modified.
func withoutNil(ds []weave.Decorator) []weave.Decorator {
	res := make([]weave.Decorator, 0, len(ds))
	for _, d := range ds {
		if d == nil {
			continue
		}
		if v := reflect.ValueOf(d); v.Kind() == reflect.Ptr && v.IsNil() {
			continue
		}
		res = append(res, d)
	}
	return res
}

// WithHandler binds the decorators to h and returns the resulting handler.
func (d Decorators) WithHandler(h weave.Handler) weave.Handler {
	for i := len(d) - 1; i >= 0; i-- {
		h = decorated{decorator: d[i], next: h}
	}
	return h
}

// decorated is a handler that runs a decorator around the next handler.
type decorated struct {
	decorator weave.Decorator
	next      weave.Handler
}

var _ weave.Handler = decorated{}

func (s decorated) Check(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	return s.decorator.Check(ctx, db, tx, s.next)
}

func (s decorated) Deliver(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	return s.decorator.Deliver(ctx, db, tx, s.next)
}
