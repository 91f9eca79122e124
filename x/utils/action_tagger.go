package utils

import (
	"context"
	"strings"

	"github.com/iov-one/weave-escrow"
)

const (
	// ActionKey tags a delivered transaction with the full message path,
	// for example escrow/exchange.
	ActionKey = "action"
	// ModuleKey tags a delivered transaction with the extension that
	// handled it, for example escrow or ledger.
	ModuleKey = "module"
)

// ActionTagger adds the action and module tags to every successful
// delivery, so that event subscribers can filter escrow settlements from
// ledger transfers without decoding the transaction.
type ActionTagger struct{}

var _ weave.Decorator = ActionTagger{}

// NewActionTagger creates a ActionTagger decorator
func NewActionTagger() ActionTagger {
	return ActionTagger{}
}

func (ActionTagger) Check(ctx context.Context, db weave.KVStore, tx weave.Tx, next weave.Checker) (*weave.CheckResult, error) {
	return next.Check(ctx, db, tx)
}

func (ActionTagger) Deliver(ctx context.Context, db weave.KVStore, tx weave.Tx, next weave.Deliverer) (*weave.DeliverResult, error) {
	// A transaction without a message is rejected before any handler runs.
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}
	res, err := next.Deliver(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	path := msg.Path()
	module := strings.SplitN(path, "/", 2)[0]
	res.Tags = append(res.Tags,
		weave.NewTag([]byte(ActionKey), []byte(path)),
		weave.NewTag([]byte(ModuleKey), []byte(module)),
	)
	return res, nil
}
