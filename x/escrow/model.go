package escrow

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/orm"
)

// Escrow holds the terms of an active trade. It is created on
// initialization and deleted when the trade is resolved, never updated.
type Escrow struct {
	Metadata *weave.Metadata `json:"metadata"`
	// Initializer created the escrow and receives the payment.
	Initializer weave.Address `json:"initializer"`
	// OfferedAsset is the asset kind locked in the custody account.
	OfferedAsset []byte `json:"offered_asset"`
	// DepositAccount is where the locked unit came from and where it
	// returns on cancel.
	DepositAccount []byte `json:"deposit_account"`
	CustodyAccount []byte `json:"custody_account"`
	// RequestedAsset and RequestedAmount are the price of the locked
	// unit.
	RequestedAsset  []byte `json:"requested_asset"`
	RequestedAmount uint64 `json:"requested_amount"`
	// ReceiveAccount is credited with the payment on exchange.
	ReceiveAccount []byte `json:"receive_account"`
}

var _ orm.Model = (*Escrow)(nil)

// Validate ensures the escrow is valid
func (e *Escrow) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", e.Metadata.Validate())
	errs = errors.AppendField(errs, "Initializer", e.Initializer.Validate())
	errs = errors.AppendField(errs, "OfferedAsset", orm.ValidateSequence(e.OfferedAsset))
	errs = errors.AppendField(errs, "DepositAccount", orm.ValidateSequence(e.DepositAccount))
	errs = errors.AppendField(errs, "CustodyAccount", orm.ValidateSequence(e.CustodyAccount))
	errs = errors.AppendField(errs, "RequestedAsset", orm.ValidateSequence(e.RequestedAsset))
	errs = errors.AppendField(errs, "ReceiveAccount", orm.ValidateSequence(e.ReceiveAccount))
	if e.RequestedAmount == 0 {
		errs = errors.Append(errs, errors.Field("RequestedAmount", errors.ErrAmount, "must be greater than zero"))
	}
	return errs
}

// Resolution is stored when an escrow is resolved, so that its final state
// can still be queried after the escrow is deleted.
type Resolution struct {
	Metadata *weave.Metadata `json:"metadata"`
	State    State           `json:"state"`
	// Resolver is the taker for a settled escrow and the initializer for a
	// cancelled one.
	Resolver weave.Address `json:"resolver"`
}

var _ orm.Model = (*Resolution)(nil)

func (r *Resolution) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", r.Metadata.Validate())
	if r.State != Settled && r.State != Cancelled {
		errs = errors.Append(errs, errors.Field("State", errors.ErrState, "%s is not final", r.State))
	}
	errs = errors.AppendField(errs, "Resolver", r.Resolver.Validate())
	return errs
}

var escrowSeq = orm.NewSequence("escrow", "id")

// NewBucket returns a bucket for escrows, keyed by a sequence ID.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket("escrow", &Escrow{},
		orm.WithIDSequence(escrowSeq),
		orm.WithIndex("initializer", idxInitializer, false),
		orm.WithIndex("offered", idxOffered, false),
		orm.WithIndex("requested", idxRequested, false),
	)
}

// NewResolutionBucket returns a bucket for resolutions, keyed by the
// escrow ID.
func NewResolutionBucket() orm.ModelBucket {
	return orm.NewModelBucket("escres", &Resolution{})
}

func toEscrow(m orm.Model) (*Escrow, error) {
	esc, ok := m.(*Escrow)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", m)
	}
	return esc, nil
}

func idxInitializer(m orm.Model) ([]byte, error) {
	esc, err := toEscrow(m)
	if err != nil {
		return nil, err
	}
	return esc.Initializer, nil
}

func idxOffered(m orm.Model) ([]byte, error) {
	esc, err := toEscrow(m)
	if err != nil {
		return nil, err
	}
	return esc.OfferedAsset, nil
}

func idxRequested(m orm.Model) ([]byte, error) {
	esc, err := toEscrow(m)
	if err != nil {
		return nil, err
	}
	return esc.RequestedAsset, nil
}
