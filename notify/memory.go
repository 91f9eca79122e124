package notify

import (
	"context"
	"sync"
)

// MemPublisher keeps all published events in memory. It is safe for
// concurrent use.
type MemPublisher struct {
	mu     sync.Mutex
	events []Event
}

var _ Publisher = (*MemPublisher)(nil)

// NewMemPublisher returns an empty MemPublisher.
func NewMemPublisher() *MemPublisher {
	return &MemPublisher{}
}

func (p *MemPublisher) Publish(ctx context.Context, ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
	return nil
}

// Events returns a copy of all events published so far, oldest first.
func (p *MemPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	cpy := make([]Event, len(p.events))
	copy(cpy, p.events)
	return cpy
}
