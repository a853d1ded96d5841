package adapter

import (
	"context"
	"sync"

	"spachat/internal/infrastructure/broker/port"
)

// MemoryBroker is a process-local port.Broker used by tests and single-node
// runs that have no Redis. It mirrors the transport contract: slow
// subscribers lose events instead of blocking publishers.
type MemoryBroker struct {
	mu   sync.RWMutex
	subs map[*memorySubscription]struct{}
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[*memorySubscription]struct{})}
}

var _ port.Broker = (*MemoryBroker)(nil)

func (b *MemoryBroker) Publish(_ context.Context, topic string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs {
		if !sub.wants(topic) {
			continue
		}
		select {
		case sub.events <- port.Event{Topic: topic, Payload: payload}:
		default:
			// Full buffer: drop, at-most-once.
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(_ context.Context, topics ...string) (port.Subscription, error) {
	sub := &memorySubscription{
		broker: b,
		topics: make(map[string]struct{}, len(topics)),
		events: make(chan port.Event, 32),
	}
	for _, t := range topics {
		sub.topics[t] = struct{}{}
	}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub, nil
}

// DropSubscriptions force-closes every subscription covering topic,
// simulating a transport-side disconnect.
func (b *MemoryBroker) DropSubscriptions(topic string) {
	b.mu.Lock()
	var dropped []*memorySubscription
	for sub := range b.subs {
		if sub.wants(topic) {
			delete(b.subs, sub)
			dropped = append(dropped, sub)
		}
	}
	b.mu.Unlock()
	for _, sub := range dropped {
		sub.closeEvents()
	}
}

type memorySubscription struct {
	broker *MemoryBroker
	topics map[string]struct{}
	events chan port.Event
	once   sync.Once
}

func (s *memorySubscription) wants(topic string) bool {
	_, ok := s.topics[topic]
	return ok
}

func (s *memorySubscription) Events() <-chan port.Event { return s.events }

func (s *memorySubscription) Close() error {
	s.broker.mu.Lock()
	delete(s.broker.subs, s)
	s.broker.mu.Unlock()
	s.closeEvents()
	return nil
}

func (s *memorySubscription) closeEvents() {
	s.once.Do(func() { close(s.events) })
}
