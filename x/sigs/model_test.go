package sigs

import (
	"testing"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/crypto"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/weavetest/assert"
)

func TestUserDataValidate(t *testing.T) {
	pub := crypto.GenPrivKeyEd25519().PublicKey()

	cases := map[string]struct {
		User    *UserData
		WantErr *errors.Error
	}{
		"fresh user": {
			User: &UserData{Metadata: &weave.Metadata{Schema: 1}},
		},
		"user with a sequence": {
			User: &UserData{Metadata: &weave.Metadata{Schema: 1}, Pubkey: pub, Sequence: 3},
		},
		"missing metadata": {
			User:    &UserData{},
			WantErr: errors.ErrMetadata,
		},
		"negative sequence": {
			User:    &UserData{Metadata: &weave.Metadata{Schema: 1}, Sequence: -1},
			WantErr: ErrInvalidSequence,
		},
		"sequence without a key": {
			User:    &UserData{Metadata: &weave.Metadata{Schema: 1}, Sequence: 1},
			WantErr: ErrInvalidSequence,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.IsErr(t, tc.WantErr, tc.User.Validate())
		})
	}
}

func TestCheckAndIncrementSequence(t *testing.T) {
	u := &UserData{Metadata: &weave.Metadata{Schema: 1}, Sequence: 5}
	assert.IsErr(t, ErrInvalidSequence, u.CheckAndIncrementSequence(4))
	assert.Nil(t, u.CheckAndIncrementSequence(5))
	assert.Equal(t, int64(6), u.Sequence)

	u.Sequence = maxSequenceValue
	assert.IsErr(t, errors.ErrOverflow, u.CheckAndIncrementSequence(maxSequenceValue))
}
