package ledger

import (
	"regexp"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/orm"
)

var isAssetName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 _\-]{0,31}$`).MatchString

// Asset is a kind of value. The total amount held by all accounts of an
// asset is equal to its supply.
type Asset struct {
	Metadata *weave.Metadata `json:"metadata"`
	Issuer   weave.Address   `json:"issuer"`
	Name     string          `json:"name"`
	Supply   uint64          `json:"supply"`
}

var _ orm.Model = (*Asset)(nil)

func (a *Asset) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", a.Metadata.Validate())
	errs = errors.AppendField(errs, "Issuer", a.Issuer.Validate())
	if !isAssetName(a.Name) {
		errs = errors.Append(errs, errors.Field("Name", errors.ErrInput, "invalid asset name %q", a.Name))
	}
	return errs
}

// Account holds value of a single asset.
type Account struct {
	Metadata *weave.Metadata `json:"metadata"`
	Asset    []byte          `json:"asset"`
	Owner    weave.Address   `json:"owner"`
	Amount   uint64          `json:"amount"`
	// Rent is the deposit paid on creation and refunded on close.
	Rent uint64 `json:"rent"`
}

var _ orm.Model = (*Account)(nil)

func (a *Account) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", a.Metadata.Validate())
	errs = errors.AppendField(errs, "Asset", orm.ValidateSequence(a.Asset))
	errs = errors.AppendField(errs, "Owner", a.Owner.Validate())
	return errs
}

// Reserve is the native resource balance of an address, used to pay the
// account rent.
type Reserve struct {
	Metadata *weave.Metadata `json:"metadata"`
	Amount   uint64          `json:"amount"`
}

var _ orm.Model = (*Reserve)(nil)

func (r *Reserve) Validate() error {
	return errors.AppendField(nil, "Metadata", r.Metadata.Validate())
}

// NewAssetBucket returns a bucket for assets, keyed by a sequence.
func NewAssetBucket() orm.ModelBucket {
	return orm.NewModelBucket("asset", &Asset{},
		orm.WithIndex("issuer", assetIssuerIndexer, false),
	)
}

func assetIssuerIndexer(m orm.Model) ([]byte, error) {
	a, ok := m.(*Asset)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", m)
	}
	return a.Issuer, nil
}

// NewAccountBucket returns a bucket for holding accounts, keyed by a
// sequence.
func NewAccountBucket() orm.ModelBucket {
	return orm.NewModelBucket("acct", &Account{},
		orm.WithIndex("owner", accountOwnerIndexer, false),
		orm.WithIndex("asset", accountAssetIndexer, false),
	)
}

func accountOwnerIndexer(m orm.Model) ([]byte, error) {
	a, ok := m.(*Account)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", m)
	}
	return a.Owner, nil
}

func accountAssetIndexer(m orm.Model) ([]byte, error) {
	a, ok := m.(*Account)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", m)
	}
	return a.Asset, nil
}

// NewReserveBucket returns a bucket for reserves, keyed by the owner
// address.
func NewReserveBucket() orm.ModelBucket {
	return orm.NewModelBucket("reserve", &Reserve{})
}
