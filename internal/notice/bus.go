// Package notice carries user-facing notices from the form to whatever
// presents them.
package notice

import (
	"context"
	"sync"
	"time"
)

// Kind classifies a notice.
type Kind int

const (
	KindInfo Kind = iota
	KindSuccess
	KindFailure
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindFailure:
		return "failure"
	default:
		return "info"
	}
}

// Notice is a single ephemeral message.
type Notice struct {
	Kind        Kind
	Title       string
	Description string
	PhotoURL    string
	Timestamp   time.Time
}

const defaultBufferSize = 16

// Bus fans notices out to every subscriber. Publishing never blocks: a
// subscriber whose buffer is full misses the notice.
type Bus struct {
	subs       map[chan Notice]struct{}
	mu         sync.RWMutex
	done       chan struct{}
	bufferSize int
}

// NewBus creates a bus with the default buffer size.
func NewBus() *Bus {
	return NewBusWithBuffer(defaultBufferSize)
}

// NewBusWithBuffer creates a bus whose subscribers buffer size notices.
func NewBusWithBuffer(size int) *Bus {
	return &Bus{
		subs:       make(map[chan Notice]struct{}),
		done:       make(chan struct{}),
		bufferSize: size,
	}
}

// Subscribe returns a channel of notices closed when ctx ends or the bus
// closes.
func (b *Bus) Subscribe(ctx context.Context) <-chan Notice {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		ch := make(chan Notice)
		close(ch)
		return ch
	default:
	}

	sub := make(chan Notice, b.bufferSize)
	b.subs[sub] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[sub]; ok {
			delete(b.subs, sub)
			close(sub)
		}
	}()

	return sub
}

// Publish delivers n to all current subscribers.
func (b *Bus) Publish(n Notice) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	select {
	case <-b.done:
		return
	default:
	}

	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	for sub := range b.subs {
		select {
		case sub <- n:
		default:
		}
	}
}

// Close shuts the bus and every subscriber channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		return
	default:
	}

	close(b.done)
	for sub := range b.subs {
		close(sub)
	}
	b.subs = map[chan Notice]struct{}{}
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
