package notify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/weavetest/assert"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/tendermint/tendermint/libs/common"
)

func TestNewEvent(t *testing.T) {
	tags := []common.KVPair{
		weave.NewTag([]byte("escrow"), []byte{0, 0, 0, 0, 0, 0, 0, 1}),
		weave.NewTag([]byte("escrow.state"), []byte("settled")),
	}
	ev := NewEvent(3, []byte{0xde, 0xad}, "escrow/exchange", tags)

	assert.Equal(t, int64(3), ev.Height)
	assert.Equal(t, "DEAD", ev.TxHash)
	assert.Equal(t, "0000000000000001", ev.Tags["escrow"])
	assert.Equal(t, "settled", ev.Tags["escrow.state"])
	assert.Equal(t, "escrow.exchange", ev.RoutingKey())
	assert.Nil(t, ev.Validate())
}

func TestEventValidate(t *testing.T) {
	cases := map[string]struct {
		ev      Event
		wantErr *errors.Error
	}{
		"valid": {
			ev: Event{Height: 1, Path: "escrow/cancel"},
		},
		"zero height": {
			ev:      Event{Path: "escrow/cancel"},
			wantErr: errors.ErrInput,
		},
		"invalid path": {
			ev:      Event{Height: 1, Path: "escrow//cancel"},
			wantErr: errors.ErrInput,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.IsErr(t, tc.wantErr, tc.ev.Validate())
		})
	}
}

func TestMemPublisher(t *testing.T) {
	p := NewMemPublisher()
	ctx := context.Background()

	assert.Nil(t, p.Publish(ctx, Event{Height: 1, Path: "escrow/initialize"}))
	assert.Nil(t, p.Publish(ctx, Event{Height: 2, Path: "escrow/cancel"}))
	assert.IsErr(t, errors.ErrInput, p.Publish(ctx, Event{}))

	events := p.Events()
	assert.Equal(t, 2, len(events))
	assert.Equal(t, "escrow/initialize", events[0].Path)
	assert.Equal(t, "escrow/cancel", events[1].Path)

	// Returned slice is a copy.
	events[0].Path = "changed"
	assert.Equal(t, "escrow/initialize", p.Events()[0].Path)
}

func TestNewPublishing(t *testing.T) {
	ev := Event{Height: 7, TxHash: "AB", Path: "escrow/exchange"}
	msg, err := newPublishing(ev)
	assert.Nil(t, err)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "AB", msg.MessageId)

	var got Event
	assert.Nil(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, ev, got)
}

func TestDialAMQPRequiresURL(t *testing.T) {
	_, err := DialAMQP("", "")
	assert.IsErr(t, errors.ErrEmpty, err)
}
