/*
Package x holds the pieces shared by the escrow and ledger extensions.

Handlers never read signatures directly. They are given an Authenticator
and ask it which conditions authorized the current transaction, so the
escrow custody capability and the x/sigs decorator plug in the same way.
*/
package x

import (
	"context"

	"github.com/iov-one/weave-escrow"
)

// Authenticator reports the conditions that authorized the transaction
// carried by a context.
type Authenticator interface {
	GetConditions(context.Context) []weave.Condition
	HasAddress(context.Context, weave.Address) bool
}

// MultiAuth merges the answers of several Authenticators.
type MultiAuth []Authenticator

var _ Authenticator = MultiAuth(nil)

// ChainAuth returns an Authenticator that grants whatever any of impls
// grants.
func ChainAuth(impls ...Authenticator) MultiAuth {
	return MultiAuth(impls)
}

// GetConditions returns the union of all conditions, in the order they are
// first reported.
func (m MultiAuth) GetConditions(ctx context.Context) []weave.Condition {
	var res []weave.Condition
	for _, impl := range m {
		for _, c := range impl.GetConditions(ctx) {
			if !containsCondition(res, c) {
				res = append(res, c)
			}
		}
	}
	return res
}

func (m MultiAuth) HasAddress(ctx context.Context, addr weave.Address) bool {
	for _, impl := range m {
		if impl.HasAddress(ctx, addr) {
			return true
		}
	}
	return false
}

// MainSigner returns the first condition that authorized the transaction,
// or nil for an unsigned one.
func MainSigner(ctx context.Context, auth Authenticator) weave.Condition {
	if cs := auth.GetConditions(ctx); len(cs) > 0 {
		return cs[0]
	}
	return nil
}

func containsCondition(cs []weave.Condition, c weave.Condition) bool {
	for _, have := range cs {
		if have.Equals(c) {
			return true
		}
	}
	return false
}
