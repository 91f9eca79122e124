package escrow

import (
	"context"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/x"
)

// CustodyCondition returns the condition of the custody authority for the
// given seed. A nil escrowID gives the protocol wide authority.
//
// The derivation is public so anyone can verify who owns a custody
// account, but the condition can only be fulfilled by this package.
func CustodyCondition(seed, escrowID []byte) weave.Condition {
	data := make([]byte, 0, len(seed)+len(escrowID))
	data = append(data, seed...)
	data = append(data, escrowID...)
	return weave.NewCondition("escrow", "custody", data)
}

// CustodyAddress returns the address owning custody accounts created with
// the given configuration.
func CustodyAddress(conf *Configuration, escrowID []byte) weave.Address {
	if !conf.PerTrade {
		escrowID = nil
	}
	return CustodyCondition(conf.CustodySeed, escrowID).Address()
}

// custodyAuthority authorizes ledger operations on behalf of a custody
// account owner. Values are only created by deriveCustody.
type custodyAuthority struct {
	cond weave.Condition
}

var _ x.Authenticator = custodyAuthority{}

func deriveCustody(conf *Configuration, escrowID []byte) custodyAuthority {
	if !conf.PerTrade {
		escrowID = nil
	}
	return custodyAuthority{cond: CustodyCondition(conf.CustodySeed, escrowID)}
}

func (a custodyAuthority) Address() weave.Address {
	return a.cond.Address()
}

func (a custodyAuthority) GetConditions(context.Context) []weave.Condition {
	return []weave.Condition{a.cond}
}

func (a custodyAuthority) HasAddress(_ context.Context, addr weave.Address) bool {
	return a.cond.Address().Equals(addr)
}
