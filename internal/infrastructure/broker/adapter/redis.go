package adapter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"spachat/internal/infrastructure/broker/port"
)

// RedisBroker satisfies port.Broker over Redis Pub/Sub. Redis channels give
// exactly the at-most-once contract the port documents: no persistence, no
// redelivery, messages to absent subscribers are dropped.
type RedisBroker struct {
	client *redis.Client
}

// NewRedisBroker wraps an existing client.
func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

// NewRedisBrokerFromEnv constructs a broker using the REDIS_URL environment variable.
func NewRedisBrokerFromEnv() (*RedisBroker, error) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		return nil, errors.New("broker: REDIS_URL environment variable is not set")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("broker: parse url: %w", err)
	}
	c := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("broker: ping: %w", err)
	}
	return &RedisBroker{client: c}, nil
}

var _ port.Broker = (*RedisBroker)(nil)

func (b *RedisBroker) Publish(ctx context.Context, topic string, payload []byte) error {
	return b.client.Publish(ctx, topic, payload).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context, topics ...string) (port.Subscription, error) {
	if len(topics) == 0 {
		return nil, errors.New("broker: at least one topic is required")
	}
	ps := b.client.Subscribe(ctx, topics...)
	// Force the SUBSCRIBE round trip so a dead transport fails here,
	// not silently on the first missed event.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("broker: subscribe: %w", err)
	}

	sub := &redisSubscription{ps: ps, events: make(chan port.Event, 32)}
	go sub.pump()
	return sub, nil
}

func (b *RedisBroker) Close() error { return b.client.Close() }

type redisSubscription struct {
	ps     *redis.PubSub
	events chan port.Event
	once   sync.Once
}

func (s *redisSubscription) Events() <-chan port.Event { return s.events }

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() { err = s.ps.Close() })
	return err
}

func (s *redisSubscription) pump() {
	defer close(s.events)
	for msg := range s.ps.Channel() {
		select {
		case s.events <- port.Event{Topic: msg.Channel, Payload: []byte(msg.Payload)}:
		default:
			// Full buffer with a stalled consumer: drop, at-most-once.
			// A blocked send here would leak this goroutine after Close.
		}
	}
}
