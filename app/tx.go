package app

import (
	"encoding/json"
	"reflect"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/crypto"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/x/escrow"
	"github.com/iov-one/weave-escrow/x/ledger"
	"github.com/iov-one/weave-escrow/x/sigs"
)

// Tx is the transaction envelope of the escrow application. It carries
// exactly one message, set in one of the Sum fields, and the signatures of
// everyone authorizing it.
type Tx struct {
	Sum        Sum                  `json:"sum"`
	Signatures []*sigs.StdSignature `json:"signatures,omitempty"`
}

// Sum holds the message of a transaction. Only one field may be set.
type Sum struct {
	CreateAsset        *ledger.CreateAssetMsg         `json:"create_asset,omitempty"`
	Issue              *ledger.IssueMsg               `json:"issue,omitempty"`
	CreateAccount      *ledger.CreateAccountMsg       `json:"create_account,omitempty"`
	Transfer           *ledger.TransferMsg            `json:"transfer,omitempty"`
	SetOwner           *ledger.SetOwnerMsg            `json:"set_owner,omitempty"`
	CloseAccount       *ledger.CloseAccountMsg        `json:"close_account,omitempty"`
	UpdateLedgerConfig *ledger.UpdateConfigurationMsg `json:"update_ledger_config,omitempty"`
	InitializeEscrow   *escrow.InitializeMsg          `json:"initialize_escrow,omitempty"`
	Exchange           *escrow.ExchangeMsg            `json:"exchange,omitempty"`
	Cancel             *escrow.CancelMsg              `json:"cancel,omitempty"`
	UpdateEscrowConfig *escrow.UpdateConfigurationMsg `json:"update_escrow_config,omitempty"`
	BumpSequence       *sigs.BumpSequenceMsg          `json:"bump_sequence,omitempty"`
}

var _ weave.Tx = (*Tx)(nil)
var _ sigs.SignedTx = (*Tx)(nil)

// NewTx wraps given message into a transaction envelope.
func NewTx(msg weave.Msg) (*Tx, error) {
	var tx Tx
	sum := reflect.ValueOf(&tx.Sum).Elem()
	for i := 0; i < sum.NumField(); i++ {
		f := sum.Field(i)
		if reflect.TypeOf(msg) == f.Type() {
			f.Set(reflect.ValueOf(msg))
			return &tx, nil
		}
	}
	return nil, errors.Wrapf(errors.ErrType, "unsupported message %T", msg)
}

// GetMsg returns the single message held by the transaction.
func (tx *Tx) GetMsg() (weave.Msg, error) {
	var msg weave.Msg
	sum := reflect.ValueOf(tx.Sum)
	for i := 0; i < sum.NumField(); i++ {
		f := sum.Field(i)
		if f.IsNil() {
			continue
		}
		if msg != nil {
			return nil, errors.Wrap(errors.ErrInput, "more than one message")
		}
		msg = f.Interface().(weave.Msg)
	}
	if msg == nil {
		return nil, errors.Wrap(errors.ErrState, "message is <nil>")
	}
	return msg, nil
}

func (tx *Tx) GetSignatures() []*sigs.StdSignature {
	return tx.Signatures
}

// GetSignBytes returns the canonical binary form of the transaction without
// the signatures.
func (tx *Tx) GetSignBytes() ([]byte, error) {
	cpy := *tx
	cpy.Signatures = nil
	return weave.Marshal(&cpy)
}

// Sign appends a signature made by signer for given chain and sequence.
func (tx *Tx) Sign(signer crypto.Signer, chainID string, seq int64) error {
	sig, err := sigs.SignTx(signer, tx, chainID, seq)
	if err != nil {
		return errors.Wrap(err, "sign")
	}
	tx.Signatures = append(tx.Signatures, sig)
	return nil
}

// Marshal returns the binary representation of the transaction.
func (tx *Tx) Marshal() ([]byte, error) {
	return weave.Marshal(tx)
}

// TxDecoder can parse bytes into a Tx
type TxDecoder func(txBytes []byte) (weave.Tx, error)

// DecodeTx is the TxDecoder of the escrow application.
func DecodeTx(raw []byte) (weave.Tx, error) {
	var tx Tx
	if err := weave.Unmarshal(raw, &tx); err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return &tx, nil
}

// ParseTxJSON reads a transaction from its JSON representation.
func ParseTxJSON(raw []byte) (*Tx, error) {
	var tx Tx
	if err := json.Unmarshal(raw, &tx); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "tx json: %s", err)
	}
	return &tx, nil
}
