package weavetest

import (
	"context"
	"fmt"

	"github.com/iov-one/weave-escrow"
)

// Auth is an x.Authenticator that grants a fixed set of conditions: Signer
// followed by Signers. Either may be left empty.
type Auth struct {
	Signer  weave.Condition
	Signers []weave.Condition
}

func (a *Auth) GetConditions(context.Context) []weave.Condition {
	if a.Signer == nil {
		return a.Signers
	}
	conds := make([]weave.Condition, 0, len(a.Signers)+1)
	return append(append(conds, a.Signer), a.Signers...)
}

func (a *Auth) HasAddress(ctx context.Context, addr weave.Address) bool {
	return anyAddress(a.GetConditions(ctx), addr)
}

// CtxAuth is an x.Authenticator that reads the granted conditions from the
// context, under Key. Two CtxAuth with different keys do not see each
// other's grants, which lets a test model two independent authorities.
type CtxAuth struct {
	Key string
}

// SetConditions returns a context granting conds to this authenticator.
func (a *CtxAuth) SetConditions(ctx context.Context, conds ...weave.Condition) context.Context {
	return context.WithValue(ctx, a.Key, conds)
}

func (a *CtxAuth) GetConditions(ctx context.Context) []weave.Condition {
	switch v := ctx.Value(a.Key).(type) {
	case nil:
		return nil
	case []weave.Condition:
		return v
	default:
		panic(fmt.Sprintf("context key %q holds %T", a.Key, v))
	}
}

func (a *CtxAuth) HasAddress(ctx context.Context, addr weave.Address) bool {
	return anyAddress(a.GetConditions(ctx), addr)
}

func anyAddress(conds []weave.Condition, addr weave.Address) bool {
	for _, c := range conds {
		if addr.Equals(c.Address()) {
			return true
		}
	}
	return false
}
