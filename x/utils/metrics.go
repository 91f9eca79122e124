package utils

import (
	"context"
	"strconv"
	"time"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// TxTotal counts processed transactions by mode, message path and
	// result code.
	TxTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "escrow",
			Name:      "tx_total",
			Help:      "Total processed transactions by mode, path and result code.",
		},
		[]string{"mode", "path", "code"},
	)

	// TxDuration observes transaction processing latency.
	TxDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "escrow",
			Name:      "tx_duration_seconds",
			Help:      "Transaction processing duration in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"mode", "path"},
	)
)

func init() {
	prometheus.MustRegister(TxTotal, TxDuration)
}

// Metrics is a decorator that records the outcome and the duration of
// every processed transaction.
type Metrics struct{}

var _ weave.Decorator = Metrics{}

// NewMetrics creates a Metrics decorator
func NewMetrics() Metrics {
	return Metrics{}
}

func (Metrics) Check(ctx context.Context, store weave.KVStore, tx weave.Tx, next weave.Checker) (*weave.CheckResult, error) {
	done := observeTx("check", weave.GetPath(tx))
	res, err := next.Check(ctx, store, tx)
	done(err)
	return res, err
}

func (Metrics) Deliver(ctx context.Context, store weave.KVStore, tx weave.Tx, next weave.Deliverer) (*weave.DeliverResult, error) {
	done := observeTx("deliver", weave.GetPath(tx))
	res, err := next.Deliver(ctx, store, tx)
	done(err)
	return res, err
}

func observeTx(mode, path string) func(error) {
	start := time.Now()
	return func(err error) {
		TxDuration.WithLabelValues(mode, path).Observe(time.Since(start).Seconds())
		TxTotal.WithLabelValues(mode, path, strconv.FormatUint(uint64(errors.Code(err)), 10)).Inc()
	}
}
