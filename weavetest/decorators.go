package weavetest

import (
	"context"

	"github.com/iov-one/weave-escrow"
)

// calls counts Check and Deliver invocations of a mock. Failed calls are
// counted too.
type calls struct {
	check   int
	deliver int
}

func (c *calls) CheckCallCount() int   { return c.check }
func (c *calls) DeliverCallCount() int { return c.deliver }
func (c *calls) CallCount() int        { return c.check + c.deliver }

// Decorator is a weave.Decorator that passes every call through to the next
// handler, unless CheckErr or DeliverErr is set. A set error is returned
// without reaching the next handler.
type Decorator struct {
	calls
	CheckErr   error
	DeliverErr error
}

var _ weave.Decorator = (*Decorator)(nil)

func (d *Decorator) Check(ctx context.Context, db weave.KVStore, tx weave.Tx, next weave.Checker) (*weave.CheckResult, error) {
	d.check++
	if d.CheckErr != nil {
		return nil, d.CheckErr
	}
	return next.Check(ctx, db, tx)
}

func (d *Decorator) Deliver(ctx context.Context, db weave.KVStore, tx weave.Tx, next weave.Deliverer) (*weave.DeliverResult, error) {
	d.deliver++
	if d.DeliverErr != nil {
		return nil, d.DeliverErr
	}
	return next.Deliver(ctx, db, tx)
}

// Decorate returns h with d in front of it, so decorators under test can be
// exercised without building an app chain.
func Decorate(h weave.Handler, d weave.Decorator) weave.Handler {
	return decorated{d: d, h: h}
}

type decorated struct {
	d weave.Decorator
	h weave.Handler
}

func (x decorated) Check(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	return x.d.Check(ctx, db, tx, x.h)
}

func (x decorated) Deliver(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	return x.d.Deliver(ctx, db, tx, x.h)
}
