package events

import (
	"context"
	"sync"

	"github.com/fivetwenty-io/pipeliner-client/pkg/crm"
)

var _ crm.EventPublisher = (*MemoryPublisher)(nil)

// MemoryPublisher fans events out to in-process subscribers. Slow subscribers
// miss events instead of blocking writes.
type MemoryPublisher struct {
	mu          sync.RWMutex
	subscribers []chan *crm.EntityEvent
	closed      bool
}

// NewMemoryPublisher creates an in-process publisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

// Subscribe returns a channel receiving every later event.
func (p *MemoryPublisher) Subscribe(bufferSize int) <-chan *crm.EntityEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan *crm.EntityEvent, bufferSize)
	if p.closed {
		close(ch)

		return ch
	}

	p.subscribers = append(p.subscribers, ch)

	return ch
}

// Publish implements crm.EventPublisher.
func (p *MemoryPublisher) Publish(_ context.Context, event *crm.EntityEvent) error {
	if event == nil {
		return ErrNilEvent
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, ch := range p.subscribers {
		select {
		case ch <- event:
		default:
		}
	}

	return nil
}

// Close closes every subscriber channel.
func (p *MemoryPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true

	for _, ch := range p.subscribers {
		close(ch)
	}

	p.subscribers = nil

	return nil
}
