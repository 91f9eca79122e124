package escrow

import (
	"testing"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/weavetest"
	"github.com/iov-one/weave-escrow/weavetest/assert"
)

func TestMsgValidate(t *testing.T) {
	meta := &weave.Metadata{Schema: 1}
	alice := weavetest.NewCondition().Address()
	bob := weavetest.NewCondition().Address()

	cases := map[string]struct {
		Msg       weave.Msg
		WantField string
		WantErr   *errors.Error
	}{
		"valid initialize": {
			Msg: &InitializeMsg{
				Metadata:        meta,
				Initializer:     alice,
				DepositAccount:  weavetest.SequenceID(1),
				OfferedAsset:    weavetest.SequenceID(1),
				RequestedAsset:  weavetest.SequenceID(2),
				RequestedAmount: 1,
				ReceiveAccount:  weavetest.SequenceID(2),
			},
		},
		"initialize without amount": {
			Msg: &InitializeMsg{
				Metadata:       meta,
				Initializer:    alice,
				DepositAccount: weavetest.SequenceID(1),
				OfferedAsset:   weavetest.SequenceID(1),
				RequestedAsset: weavetest.SequenceID(2),
				ReceiveAccount: weavetest.SequenceID(2),
			},
			WantField: "RequestedAmount",
			WantErr:   errors.ErrAmount,
		},
		"initialize receiving into the deposit account": {
			Msg: &InitializeMsg{
				Metadata:        meta,
				Initializer:     alice,
				DepositAccount:  weavetest.SequenceID(1),
				OfferedAsset:    weavetest.SequenceID(1),
				RequestedAsset:  weavetest.SequenceID(2),
				RequestedAmount: 3,
				ReceiveAccount:  weavetest.SequenceID(1),
			},
			WantField: "ReceiveAccount",
			WantErr:   errors.ErrInput,
		},
		"initialize with malformed asset": {
			Msg: &InitializeMsg{
				Metadata:        meta,
				Initializer:     alice,
				DepositAccount:  weavetest.SequenceID(1),
				OfferedAsset:    []byte{1, 2},
				RequestedAsset:  weavetest.SequenceID(2),
				RequestedAmount: 3,
				ReceiveAccount:  weavetest.SequenceID(2),
			},
			WantField: "OfferedAsset",
			WantErr:   errors.ErrInput,
		},
		"valid exchange": {
			Msg: &ExchangeMsg{
				Metadata:                  meta,
				EscrowID:                  weavetest.SequenceID(1),
				Taker:                     bob,
				TakerPayAccount:           weavetest.SequenceID(3),
				TakerReceiveAccount:       weavetest.SequenceID(4),
				Initializer:               alice,
				InitializerReceiveAccount: weavetest.SequenceID(2),
				CustodyAccount:            weavetest.SequenceID(5),
			},
		},
		"exchange without escrow": {
			Msg: &ExchangeMsg{
				Metadata:                  meta,
				Taker:                     bob,
				TakerPayAccount:           weavetest.SequenceID(3),
				TakerReceiveAccount:       weavetest.SequenceID(4),
				Initializer:               alice,
				InitializerReceiveAccount: weavetest.SequenceID(2),
				CustodyAccount:            weavetest.SequenceID(5),
			},
			WantField: "EscrowID",
			WantErr:   errors.ErrEmpty,
		},
		"exchange without taker": {
			Msg: &ExchangeMsg{
				Metadata:                  meta,
				EscrowID:                  weavetest.SequenceID(1),
				TakerPayAccount:           weavetest.SequenceID(3),
				TakerReceiveAccount:       weavetest.SequenceID(4),
				Initializer:               alice,
				InitializerReceiveAccount: weavetest.SequenceID(2),
				CustodyAccount:            weavetest.SequenceID(5),
			},
			WantField: "Taker",
			WantErr:   errors.ErrInput,
		},
		"valid cancel": {
			Msg: &CancelMsg{
				Metadata:       meta,
				EscrowID:       weavetest.SequenceID(1),
				Initializer:    alice,
				DepositAccount: weavetest.SequenceID(1),
				CustodyAccount: weavetest.SequenceID(5),
			},
		},
		"cancel without metadata": {
			Msg: &CancelMsg{
				EscrowID:       weavetest.SequenceID(1),
				Initializer:    alice,
				DepositAccount: weavetest.SequenceID(1),
				CustodyAccount: weavetest.SequenceID(5),
			},
			WantField: "Metadata",
			WantErr:   errors.ErrMetadata,
		},
		"configuration owner change": {
			Msg: &UpdateConfigurationMsg{
				Metadata: meta,
				Patch:    &Configuration{Owner: bob},
			},
		},
		"configuration seed change": {
			Msg: &UpdateConfigurationMsg{
				Metadata: meta,
				Patch:    &Configuration{CustodySeed: []byte("new")},
			},
			WantField: "Patch.CustodySeed",
			WantErr:   errors.ErrImmutable,
		},
		"configuration scope change": {
			Msg: &UpdateConfigurationMsg{
				Metadata: meta,
				Patch:    &Configuration{PerTrade: true},
			},
			WantField: "Patch.PerTrade",
			WantErr:   errors.ErrImmutable,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := tc.Msg.Validate()
			if tc.WantErr == nil {
				assert.Nil(t, err)
				return
			}
			assert.FieldError(t, err, tc.WantField, tc.WantErr)
		})
	}
}
