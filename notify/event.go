package notify

import (
	"context"
	"encoding/hex"
	"strings"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/tendermint/tendermint/libs/common"
)

// Event describes a single committed transaction.
type Event struct {
	Height int64             `json:"height"`
	TxHash string            `json:"tx_hash"`
	Path   string            `json:"path"`
	Tags   map[string]string `json:"tags,omitempty"`
}

// NewEvent builds an event from the result of a delivered transaction.
// Tag values that are not printable are hex encoded.
func NewEvent(height int64, txHash []byte, path string, tags []common.KVPair) Event {
	ev := Event{
		Height: height,
		TxHash: strings.ToUpper(hex.EncodeToString(txHash)),
		Path:   path,
	}
	if len(tags) > 0 {
		ev.Tags = make(map[string]string, len(tags))
		for _, t := range tags {
			ev.Tags[string(t.Key)] = tagValue(t.Value)
		}
	}
	return ev
}

func tagValue(v []byte) string {
	for _, c := range v {
		if c < 0x20 || c > 0x7e {
			return strings.ToUpper(hex.EncodeToString(v))
		}
	}
	return string(v)
}

// RoutingKey returns the topic an event is published under. Message paths
// use a slash as the separator, topics use a dot.
func (e Event) RoutingKey() string {
	return strings.Replace(e.Path, "/", ".", -1)
}

// Validate returns an error if the event cannot be published.
func (e Event) Validate() error {
	if e.Height < 1 {
		return errors.Wrap(errors.ErrInput, "height must be positive")
	}
	if err := weave.ValidPath(e.Path); err != nil {
		return errors.Wrap(err, "path")
	}
	return nil
}

// Publisher delivers events to whoever is interested in them.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NopPublisher discards all events.
type NopPublisher struct{}

var _ Publisher = NopPublisher{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
