package ledger

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/orm"
)

const (
	pathCreateAssetMsg   = "ledger/create_asset"
	pathIssueMsg         = "ledger/issue"
	pathCreateAccountMsg = "ledger/create_account"
	pathTransferMsg      = "ledger/transfer"
	pathSetOwnerMsg      = "ledger/set_owner"
	pathCloseAccountMsg  = "ledger/close_account"
	pathUpdateConfigMsg  = "ledger/update_configuration"
)

// CreateAssetMsg registers a new asset issued by Issuer.
type CreateAssetMsg struct {
	Metadata *weave.Metadata `json:"metadata"`
	Issuer   weave.Address   `json:"issuer"`
	Name     string          `json:"name"`
}

var _ weave.Msg = (*CreateAssetMsg)(nil)

func (CreateAssetMsg) Path() string { return pathCreateAssetMsg }

func (m *CreateAssetMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Issuer", m.Issuer.Validate())
	if !isAssetName(m.Name) {
		errs = errors.Append(errs, errors.Field("Name", errors.ErrInput, "invalid asset name %q", m.Name))
	}
	return errs
}

// IssueMsg creates Amount of an asset in the Destination account.
type IssueMsg struct {
	Metadata    *weave.Metadata `json:"metadata"`
	Asset       []byte          `json:"asset"`
	Destination []byte          `json:"destination"`
	Amount      uint64          `json:"amount"`
}

var _ weave.Msg = (*IssueMsg)(nil)

func (IssueMsg) Path() string { return pathIssueMsg }

func (m *IssueMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Asset", orm.ValidateSequence(m.Asset))
	errs = errors.AppendField(errs, "Destination", orm.ValidateSequence(m.Destination))
	if m.Amount == 0 {
		errs = errors.Append(errs, errors.Field("Amount", errors.ErrAmount, "must be greater than zero"))
	}
	return errs
}

// CreateAccountMsg opens an empty account of an asset for Owner, paid by
// Payer.
type CreateAccountMsg struct {
	Metadata *weave.Metadata `json:"metadata"`
	Payer    weave.Address   `json:"payer"`
	Asset    []byte          `json:"asset"`
	Owner    weave.Address   `json:"owner"`
}

var _ weave.Msg = (*CreateAccountMsg)(nil)

func (CreateAccountMsg) Path() string { return pathCreateAccountMsg }

func (m *CreateAccountMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Payer", m.Payer.Validate())
	errs = errors.AppendField(errs, "Asset", orm.ValidateSequence(m.Asset))
	errs = errors.AppendField(errs, "Owner", m.Owner.Validate())
	return errs
}

// TransferMsg moves Amount from the Source to the Destination account.
type TransferMsg struct {
	Metadata    *weave.Metadata `json:"metadata"`
	Source      []byte          `json:"source"`
	Destination []byte          `json:"destination"`
	Amount      uint64          `json:"amount"`
}

var _ weave.Msg = (*TransferMsg)(nil)

func (TransferMsg) Path() string { return pathTransferMsg }

func (m *TransferMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Source", orm.ValidateSequence(m.Source))
	errs = errors.AppendField(errs, "Destination", orm.ValidateSequence(m.Destination))
	if m.Amount == 0 {
		errs = errors.Append(errs, errors.Field("Amount", errors.ErrAmount, "must be greater than zero"))
	}
	return errs
}

// SetOwnerMsg hands an account over to a new Owner.
type SetOwnerMsg struct {
	Metadata *weave.Metadata `json:"metadata"`
	Account  []byte          `json:"account"`
	Owner    weave.Address   `json:"owner"`
}

var _ weave.Msg = (*SetOwnerMsg)(nil)

func (SetOwnerMsg) Path() string { return pathSetOwnerMsg }

func (m *SetOwnerMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Account", orm.ValidateSequence(m.Account))
	errs = errors.AppendField(errs, "Owner", m.Owner.Validate())
	return errs
}

// CloseAccountMsg deletes an empty account, refunding the rent deposit to
// Recipient.
type CloseAccountMsg struct {
	Metadata  *weave.Metadata `json:"metadata"`
	Account   []byte          `json:"account"`
	Recipient weave.Address   `json:"recipient"`
}

var _ weave.Msg = (*CloseAccountMsg)(nil)

func (CloseAccountMsg) Path() string { return pathCloseAccountMsg }

func (m *CloseAccountMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Account", orm.ValidateSequence(m.Account))
	errs = errors.AppendField(errs, "Recipient", m.Recipient.Validate())
	return errs
}

// UpdateConfigurationMsg patches the ledger configuration.
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
	return errs
}
