package utils

import (
	"context"
	"runtime/debug"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// TxPanics counts handler panics by message path.
var TxPanics = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "escrow",
		Name:      "tx_panics_total",
		Help:      "Total transactions that panicked, by path.",
	},
	[]string{"path"},
)

func init() {
	prometheus.MustRegister(TxPanics)
}

// Recovery turns a panic in any decorator or handler below it into an
// ErrPanic result. The panic and its stack are logged, so that a bug in a
// handler aborts a single escrow operation instead of the whole node. The
// store passed down is expected to be discarded by the caller on error.
type Recovery struct{}

var _ weave.Decorator = Recovery{}

// NewRecovery creates a Recovery decorator
func NewRecovery() Recovery {
	return Recovery{}
}

func (Recovery) Check(ctx context.Context, store weave.KVStore, tx weave.Tx, next weave.Checker) (_ *weave.CheckResult, err error) {
	defer recoverTx(ctx, tx, &err)
	return next.Check(ctx, store, tx)
}

func (Recovery) Deliver(ctx context.Context, store weave.KVStore, tx weave.Tx, next weave.Deliverer) (_ *weave.DeliverResult, err error) {
	defer recoverTx(ctx, tx, &err)
	return next.Deliver(ctx, store, tx)
}

// recoverTx must be deferred directly.
func recoverTx(ctx context.Context, tx weave.Tx, err *error) {
	r := recover()
	if r == nil {
		return
	}
	path := weave.GetPath(tx)
	*err = errors.Wrapf(errors.ErrPanic, "%s: %v", path, r)
	TxPanics.WithLabelValues(path).Inc()
	weave.GetLogger(ctx).Error("transaction panic",
		"path", path, "panic", r, "stack", string(debug.Stack()))
}
