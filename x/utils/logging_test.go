package utils

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/store"
	"github.com/iov-one/weave-escrow/weavetest"
	"github.com/tendermint/tendermint/libs/log"
)

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewTMLogger(log.NewSyncWriter(&buf))
	ctx := weave.WithLogger(context.Background(), logger)
	tx := weavetest.TxFor("escrow/exchange")

	ok := weavetest.Decorate(&weavetest.Handler{DeliverResult: weave.DeliverResult{Log: "settled"}}, NewLogging())
	if _, err := ok.Deliver(ctx, store.MemStore(), tx); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if out := buf.String(); !strings.Contains(out, "settled") || !strings.Contains(out, "path=escrow/exchange") {
		t.Fatalf("unexpected log output: %q", out)
	}

	buf.Reset()
	bad := weavetest.Decorate(&weavetest.Handler{DeliverErr: errors.ErrNotFound}, NewLogging())
	if _, err := bad.Deliver(ctx, store.MemStore(), tx); !errors.ErrNotFound.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
	if out := buf.String(); !strings.Contains(out, "not found") {
		t.Fatalf("error not logged: %q", out)
	}
}
