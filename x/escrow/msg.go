package escrow

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/orm"
)

const (
	pathInitializeMsg   = "escrow/initialize"
	pathExchangeMsg     = "escrow/exchange"
	pathCancelMsg       = "escrow/cancel"
	pathUpdateConfigMsg = "escrow/update_configuration"
)

// InitializeMsg locks one unit of OfferedAsset from DepositAccount in a new
// custody account, asking for RequestedAmount of RequestedAsset paid into
// ReceiveAccount.
type InitializeMsg struct {
	Metadata        *weave.Metadata `json:"metadata"`
	Initializer     weave.Address   `json:"initializer"`
	DepositAccount  []byte          `json:"deposit_account"`
	OfferedAsset    []byte          `json:"offered_asset"`
	RequestedAsset  []byte          `json:"requested_asset"`
	RequestedAmount uint64          `json:"requested_amount"`
	ReceiveAccount  []byte          `json:"receive_account"`
}

var _ weave.Msg = (*InitializeMsg)(nil)

// Path fulfills weave.Msg interface to allow routing
func (InitializeMsg) Path() string { return pathInitializeMsg }

// Validate makes sure that this is sensible
func (m *InitializeMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Initializer", m.Initializer.Validate())
	errs = errors.AppendField(errs, "DepositAccount", orm.ValidateSequence(m.DepositAccount))
	errs = errors.AppendField(errs, "OfferedAsset", orm.ValidateSequence(m.OfferedAsset))
	errs = errors.AppendField(errs, "RequestedAsset", orm.ValidateSequence(m.RequestedAsset))
	errs = errors.AppendField(errs, "ReceiveAccount", orm.ValidateSequence(m.ReceiveAccount))
	if m.RequestedAmount == 0 {
		errs = errors.Append(errs, errors.Field("RequestedAmount", errors.ErrAmount, "must be greater than zero"))
	}
	if len(m.DepositAccount) != 0 && string(m.DepositAccount) == string(m.ReceiveAccount) {
		errs = errors.Append(errs, errors.Field("ReceiveAccount", errors.ErrInput, "must differ from the deposit account"))
	}
	return errs
}

// ExchangeMsg settles an escrow. The initializer and custody references
// must repeat what the escrow recorded.
type ExchangeMsg struct {
	Metadata                  *weave.Metadata `json:"metadata"`
	EscrowID                  []byte          `json:"escrow_id"`
	Taker                     weave.Address   `json:"taker"`
	TakerPayAccount           []byte          `json:"taker_pay_account"`
	TakerReceiveAccount       []byte          `json:"taker_receive_account"`
	Initializer               weave.Address   `json:"initializer"`
	InitializerReceiveAccount []byte          `json:"initializer_receive_account"`
	CustodyAccount            []byte          `json:"custody_account"`
}

var _ weave.Msg = (*ExchangeMsg)(nil)

// Path fulfills weave.Msg interface to allow routing
func (ExchangeMsg) Path() string { return pathExchangeMsg }

// Validate makes sure that this is sensible
func (m *ExchangeMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "EscrowID", orm.ValidateSequence(m.EscrowID))
	errs = errors.AppendField(errs, "Taker", m.Taker.Validate())
	errs = errors.AppendField(errs, "TakerPayAccount", orm.ValidateSequence(m.TakerPayAccount))
	errs = errors.AppendField(errs, "TakerReceiveAccount", orm.ValidateSequence(m.TakerReceiveAccount))
	errs = errors.AppendField(errs, "Initializer", m.Initializer.Validate())
	errs = errors.AppendField(errs, "InitializerReceiveAccount", orm.ValidateSequence(m.InitializerReceiveAccount))
	errs = errors.AppendField(errs, "CustodyAccount", orm.ValidateSequence(m.CustodyAccount))
	return errs
}

// CancelMsg returns the locked unit to the deposit account and deletes the
// escrow.
type CancelMsg struct {
	Metadata       *weave.Metadata `json:"metadata"`
	EscrowID       []byte          `json:"escrow_id"`
	Initializer    weave.Address   `json:"initializer"`
	DepositAccount []byte          `json:"deposit_account"`
	CustodyAccount []byte          `json:"custody_account"`
}

var _ weave.Msg = (*CancelMsg)(nil)

// Path fulfills weave.Msg interface to allow routing
func (CancelMsg) Path() string { return pathCancelMsg }

// Validate makes sure that this is sensible
func (m *CancelMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "EscrowID", orm.ValidateSequence(m.EscrowID))
	errs = errors.AppendField(errs, "Initializer", m.Initializer.Validate())
	errs = errors.AppendField(errs, "DepositAccount", orm.ValidateSequence(m.DepositAccount))
	errs = errors.AppendField(errs, "CustodyAccount", orm.ValidateSequence(m.CustodyAccount))
	return errs
}

// UpdateConfigurationMsg patches the escrow configuration. Only the owner
// can be changed.
type UpdateConfigurationMsg struct {
	Metadata *weave.Metadata `json:"metadata"`
	Patch    *Configuration  `json:"patch"`
}

var _ weave.Msg = (*UpdateConfigurationMsg)(nil)

func (UpdateConfigurationMsg) Path() string { return pathUpdateConfigMsg }

func (m *UpdateConfigurationMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if m.Patch == nil {
		return errors.Append(errs, errors.Field("Patch", errors.ErrEmpty, "required"))
	}
	if m.Patch.Owner != nil {
		errs = errors.AppendField(errs, "Patch.Owner", m.Patch.Owner.Validate())
	}
	// Custody accounts of active escrows are owned by the address derived
	// from the current values.
	if len(m.Patch.CustodySeed) != 0 {
		errs = errors.Append(errs, errors.Field("Patch.CustodySeed", errors.ErrImmutable, "cannot be changed"))
	}
	if m.Patch.PerTrade {
		errs = errors.Append(errs, errors.Field("Patch.PerTrade", errors.ErrImmutable, "cannot be changed"))
	}
	return errs
}
