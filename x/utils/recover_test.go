package utils

import (
	"context"
	"strings"
	"testing"

	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/store"
	"github.com/iov-one/weave-escrow/weavetest"
	"github.com/iov-one/weave-escrow/weavetest/assert"
	dto "github.com/prometheus/client_model/go"
)

func TestRecovery(t *testing.T) {
	TxPanics.Reset()

	h := weavetest.Decorate(weavetest.PanicHandler{Value: "boom"}, NewRecovery())
	db := store.MemStore()
	tx := weavetest.TxFor("escrow/exchange")

	_, err := h.Check(context.Background(), db, tx)
	assert.IsErr(t, errors.ErrPanic, err)
	_, err = h.Deliver(context.Background(), db, tx)
	assert.IsErr(t, errors.ErrPanic, err)
	if !strings.Contains(err.Error(), "escrow/exchange: boom") {
		t.Fatalf("panic path and value missing: %q", err)
	}

	c, err := TxPanics.GetMetricWithLabelValues("escrow/exchange")
	assert.Nil(t, err)
	m := &dto.Metric{}
	assert.Nil(t, c.Write(m))
	assert.Equal(t, float64(2), m.Counter.GetValue())

	// without the decorator the panic escapes
	assert.Panics(t, func() {
		_, _ = weavetest.PanicHandler{Value: "boom"}.Deliver(context.Background(), db, tx)
	})
}

func TestRecoveryPassesThrough(t *testing.T) {
	h := weavetest.Decorate(&weavetest.Handler{DeliverErr: errors.ErrState}, NewRecovery())
	_, err := h.Deliver(context.Background(), store.MemStore(), weavetest.TxFor("escrow/cancel"))
	assert.IsErr(t, errors.ErrState, err)
}
