package weave

import (
	"testing"

	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/weavetest/assert"
)

type codecModel struct {
	Metadata *Metadata
	Owner    Address
	Amount   uint64
	Labels   []string
}

func TestCodecRoundTrip(t *testing.T) {
	in := codecModel{
		Metadata: &Metadata{Schema: 1},
		Owner:    NewAddress([]byte("owner")),
		Amount:   1234567,
		Labels:   []string{"a", "b"},
	}
	bz, err := Marshal(&in)
	assert.Nil(t, err)

	var out codecModel
	assert.Nil(t, Unmarshal(bz, &out))
	assert.Equal(t, in, out)

	// Encoding must be deterministic, it is used to produce sign bytes.
	again, err := Marshal(&out)
	assert.Nil(t, err)
	assert.Equal(t, bz, again)
}

func TestCodecUnmarshalGarbage(t *testing.T) {
	var out codecModel
	err := Unmarshal([]byte{0xff, 0xff, 0xff}, &out)
	assert.IsErr(t, errors.ErrModel, err)
}

func TestMetadata(t *testing.T) {
	assert.IsErr(t, errors.ErrMetadata, (*Metadata)(nil).Validate())
	assert.IsErr(t, errors.ErrMetadata, (&Metadata{}).Validate())
	assert.Nil(t, (&Metadata{Schema: 1}).Validate())

	m := &Metadata{Schema: 3}
	cpy := m.Copy()
	cpy.Schema = 4
	assert.Equal(t, uint32(3), m.Schema)
}
