package weavetest

import (
	"context"

	"github.com/iov-one/weave-escrow"
)

// Handler is a mock implementation of the weave.Handler interface.
//
// Returned results and errors can be configured. Each method call is
// counted.
type Handler struct {
	calls

	CheckResult weave.CheckResult
	CheckErr    error

	DeliverResult weave.DeliverResult
	DeliverErr    error

	// Write if set is stored under the Write key in every call, before
	// returning the configured result.
	Write []byte
}

var _ weave.Handler = (*Handler)(nil)

func (h *Handler) Check(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	h.check++
	if err := h.write(db); err != nil {
		return nil, err
	}
	if h.CheckErr != nil {
		return nil, h.CheckErr
	}
	res := h.CheckResult
	return &res, nil
}

func (h *Handler) Deliver(ctx context.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	h.deliver++
	if err := h.write(db); err != nil {
		return nil, err
	}
	if h.DeliverErr != nil {
		return nil, h.DeliverErr
	}
	res := h.DeliverResult
	return &res, nil
}

func (h *Handler) write(db weave.KVStore) error {
	if h.Write == nil {
		return nil
	}
	return db.Set(h.Write, h.Write)
}

// PanicHandler panics with the configured value on every call.
type PanicHandler struct {
	Value interface{}
}

var _ weave.Handler = PanicHandler{}

func (h PanicHandler) Check(context.Context, weave.KVStore, weave.Tx) (*weave.CheckResult, error) {
	panic(h.Value)
}

func (h PanicHandler) Deliver(context.Context, weave.KVStore, weave.Tx) (*weave.DeliverResult, error) {
	panic(h.Value)
}
