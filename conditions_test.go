package weave_test

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressPrinting(t *testing.T) {
	Convey("test hexademical address printing", t, func() {
		b := []byte("ABCD123456LHB")
		addr := weave.Address(b)

		So(addr.String(), ShouldEqual, fmt.Sprintf("%X", []byte(addr)))
		So(weave.Address(nil).String(), ShouldEqual, "(nil)")
	})

	Convey("test hexademical condition printing", t, func() {
		cond := weave.NewCondition("escrow", "custody", []byte("ABCD123456LHB"))

		So(cond.String(), ShouldNotEqual, fmt.Sprintf("%X", []byte(cond)))
		So(cond.String(), ShouldStartWith, "escrow/custody/")
	})
}

func TestConditionParse(t *testing.T) {
	Convey("conditions expose their parts", t, func() {
		cond := weave.NewCondition("escrow", "custody", []byte{0, 1, 2})
		ext, typ, data, err := cond.Parse()
		So(err, ShouldBeNil)
		So(ext, ShouldEqual, "escrow")
		So(typ, ShouldEqual, "custody")
		So(data, ShouldResemble, []byte{0, 1, 2})
		So(cond.Validate(), ShouldBeNil)
	})

	Convey("malformed conditions are rejected", t, func() {
		for _, c := range []weave.Condition{
			weave.Condition("no-slashes"),
			weave.NewCondition("a", "custody", []byte("x")),
			weave.NewCondition("escrow", "custody", nil),
		} {
			So(errors.ErrInput.Is(c.Validate()), ShouldBeTrue)
		}
	})

	Convey("derived addresses are stable and distinct", t, func() {
		a := weave.NewCondition("escrow", "custody", []byte("seed1")).Address()
		b := weave.NewCondition("escrow", "custody", []byte("seed2")).Address()
		So(a.Validate(), ShouldBeNil)
		So(a.Equals(b), ShouldBeFalse)
		So(a.Equals(weave.NewCondition("escrow", "custody", []byte("seed1")).Address()), ShouldBeTrue)
	})
}

func TestAddressUnmarshalJSON(t *testing.T) {
	const hexAddr = "00112233445566778899AABBCCDDEEFF00112233"
	raw, err := weave.ParseAddress(hexAddr)
	require.NoError(t, err)

	bech, err := raw.Bech32()
	require.NoError(t, err)

	cases := map[string]struct {
		json     string
		wantErr  *errors.Error
		wantAddr weave.Address
	}{
		"default decoding": {
			json:     `"` + hexAddr + `"`,
			wantAddr: raw,
		},
		"hex decoding": {
			json:     `"hex:` + strings.ToLower(hexAddr) + `"`,
			wantAddr: raw,
		},
		"bech32 decoding": {
			json:     `"` + bech + `"`,
			wantAddr: raw,
		},
		"cond decoding": {
			json:     `"cond:foo/bar/636f6e646974696f6e64617461"`,
			wantAddr: weave.NewCondition("foo", "bar", []byte("conditiondata")).Address(),
		},
		"invalid condition format": {
			json:    `"cond:foo/636f6e646974696f6e64617461"`,
			wantErr: errors.ErrInput,
		},
		"invalid condition data": {
			json:    `"cond:foo/bar/zzzzz"`,
			wantErr: errors.ErrInput,
		},
		"hex address of a wrong length": {
			json:    `"6865782d61646472"`,
			wantErr: errors.ErrInput,
		},
		"unknown format": {
			json:    `"foobar:xxx"`,
			wantErr: errors.ErrType,
		},
		"zero address": {
			json:     `""`,
			wantAddr: nil,
		},
		"zero hex address": {
			json:     `"hex:"`,
			wantAddr: nil,
		},
		"zero cond address": {
			json:     `"cond:"`,
			wantAddr: nil,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var a weave.Address
			err := json.Unmarshal([]byte(tc.json), &a)
			if !tc.wantErr.Is(err) {
				t.Fatalf("got error: %+v", err)
			}
			if err == nil && !reflect.DeepEqual(a, tc.wantAddr) {
				t.Fatalf("got address: %q", a)
			}
		})
	}
}

func TestAddressMarshalJSON(t *testing.T) {
	addr := weave.NewAddress([]byte("anything"))
	raw, err := json.Marshal(addr)
	require.NoError(t, err)

	var back weave.Address
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, addr.Equals(back))
	assert.Equal(t, `"`+addr.String()+`"`, string(raw))
}

func TestConditionUnmarshalJSON(t *testing.T) {
	cases := map[string]struct {
		json          string
		wantErr       *errors.Error
		wantCondition weave.Condition
	}{
		"default decoding": {
			json:          `"foo/bar/636f6e646974696f6e64617461"`,
			wantCondition: weave.NewCondition("foo", "bar", []byte("conditiondata")),
		},
		"invalid condition format": {
			json:    `"foo/636f6e646974696f6e64617461"`,
			wantErr: errors.ErrInput,
		},
		"invalid condition data": {
			json:    `"foo/bar/zzzzz"`,
			wantErr: errors.ErrInput,
		},
		"zero address": {
			json:          `""`,
			wantCondition: nil,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var got weave.Condition
			err := json.Unmarshal([]byte(tc.json), &got)
			if !tc.wantErr.Is(err) {
				t.Fatalf("got error: %+v", err)
			}
			if err == nil && !got.Equals(tc.wantCondition) {
				t.Fatalf("expected %q but got condition: %q", tc.wantCondition, got)
			}
		})
	}
}

func TestConditionMarshalJSON(t *testing.T) {
	cases := map[string]struct {
		source   weave.Condition
		wantJson string
	}{
		"cond encoding": {
			source:   weave.NewCondition("foo", "bar", []byte("conditiondata")),
			wantJson: `"foo/bar/636F6E646974696F6E64617461"`,
		},
		"nil encoding": {
			source:   nil,
			wantJson: `""`,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got, err := json.Marshal(tc.source)
			require.NoError(t, err)
			assert.Equal(t, tc.wantJson, string(got))
		})
	}
}

func TestAddressSet(t *testing.T) {
	Convey("address can be set from a flag value", t, func() {
		var a weave.Address
		So(a.Set("cond:escrow/custody/0011"), ShouldBeNil)
		So(a, ShouldResemble, weave.NewCondition("escrow", "custody", []byte{0x00, 0x11}).Address())

		err := a.Set("hex:zz")
		So(errors.ErrInput.Is(err), ShouldBeTrue)
	})
}
