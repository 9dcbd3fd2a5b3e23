package pubsub

import (
	"context"
	"errors"
	"sync"

	"github.com/Iamayomi/academic-management-platform/core/notification"
)

var errBrokerClosed = errors.New("broker closed")

// MemoryBroker is an in-process broker. Messages only reach subscribers of the same process.
type MemoryBroker struct {
	mu      sync.RWMutex
	subs    map[string]map[*memorySubscription]struct{}
	bufSize int
	closed  bool
}

var _ notification.Broker = (*MemoryBroker)(nil)

func NewMemoryBroker(bufSize int) *MemoryBroker {
	if bufSize <= 0 {
		bufSize = 64
	}
	return &MemoryBroker{
		subs:    make(map[string]map[*memorySubscription]struct{}),
		bufSize: bufSize,
	}
}

// Publish never blocks: subscribers with a full buffer miss the message.
func (b *MemoryBroker) Publish(_ context.Context, channel, message string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return errBrokerClosed
	}
	for sub := range b.subs[channel] {
		select {
		case sub.ch <- message:
		default:
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(_ context.Context, channel string) (notification.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errBrokerClosed
	}
	sub := &memorySubscription{
		broker:  b,
		channel: channel,
		ch:      make(chan string, b.bufSize),
	}
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[*memorySubscription]struct{})
	}
	b.subs[channel][sub] = struct{}{}
	return sub, nil
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, subs := range b.subs {
		for sub := range subs {
			close(sub.ch)
		}
	}
	b.subs = nil
	return nil
}

func (b *MemoryBroker) unsubscribe(sub *memorySubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub.channel][sub]; ok {
		delete(b.subs[sub.channel], sub)
		close(sub.ch)
	}
}

type memorySubscription struct {
	broker  *MemoryBroker
	channel string
	ch      chan string
}

func (s *memorySubscription) Messages() <-chan string { return s.ch }

func (s *memorySubscription) Close() error {
	s.broker.unsubscribe(s)
	return nil
}
