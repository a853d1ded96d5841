package port

import "context"

// Event is one best-effort pub/sub delivery. The payload is opaque bytes;
// subscribers must treat it as a hint and re-read authoritative state.
type Event struct {
	Topic   string
	Payload []byte
}

// Subscription is a live stream over a fixed set of topics.
// Events() is closed when the transport drops the subscription or Close is
// called; a closed channel is the only disconnect signal subscribers get.
type Subscription interface {
	Events() <-chan Event
	Close() error
}

// Broker is the pub/sub transport contract. Delivery is at-most-once:
// messages published while a subscriber is disconnected are lost, and no
// replay or backfill exists. Correctness on top of this comes from
// subscribers re-fetching from the store, never from the transport.
type Broker interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(ctx context.Context, topics ...string) (Subscription, error)
}
