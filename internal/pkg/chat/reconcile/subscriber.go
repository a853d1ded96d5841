package reconcile

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	bport "spachat/internal/infrastructure/broker/port"
	"spachat/internal/pkg/chat/fanout"
)

// State of a Subscriber. Transitions:
//
//	Disconnected -> Subscribing -> Live -> Reconnecting -> Live ...
//
// Disconnected is terminal once Close is called or the run context ends.
type State int32

const (
	StateDisconnected State = iota
	StateSubscribing
	StateLive
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateSubscribing:
		return "subscribing"
	case StateLive:
		return "live"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// ResyncFunc pulls authoritative state: the pair history, the conversation
// list, or both, depending on what the subscriber watches. It is the only
// way local state updates; push payloads are never applied directly.
type ResyncFunc func(ctx context.Context) error

// Options tune a Subscriber. The zero value is usable.
type Options struct {
	// SocketID of this session's connection. Events carrying it are the
	// echo of our own sends and do not trigger a resync; NotifySent
	// covers that path.
	SocketID string

	// Reconnect backoff bounds; doubling, capped.
	MinBackoff time.Duration // default 250ms
	MaxBackoff time.Duration // default 10s

	// OnStateChange observes transitions. Called from the run goroutine.
	OnStateChange func(State)
}

// Subscriber is one long-lived reconciliation client: a staff session
// watching its staff topic, or an open conversation view watching its pair
// topic. It merges best-effort push hints with authoritative re-fetches so
// that dropped, duplicated or reordered events cannot corrupt local state:
// every trigger collapses into "re-read the source of truth".
type Subscriber struct {
	broker bport.Broker
	topics []string
	resync ResyncFunc
	opts   Options

	mu    sync.Mutex
	state State

	notify    chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

// NewSubscriber builds a subscriber over a fixed topic set. Run starts it.
func NewSubscriber(broker bport.Broker, topics []string, resync ResyncFunc, opts Options) *Subscriber {
	if opts.MinBackoff <= 0 {
		opts.MinBackoff = 250 * time.Millisecond
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 10 * time.Second
	}
	return &Subscriber{
		broker: broker,
		topics: topics,
		resync: resync,
		opts:   opts,
		state:  StateDisconnected,
		notify: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

// State returns the current protocol state.
func (s *Subscriber) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// NotifySent schedules a resync after the caller's own successful append.
// The fan-out excludes the sender's connection, so without this the sender
// would never see its own message through the push path. Pending
// notifications collapse into one.
func (s *Subscriber) NotifySent() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Close terminates the subscriber. Run returns and the state becomes
// Disconnected for good.
func (s *Subscriber) Close() {
	s.closeOnce.Do(func() { close(s.closed) })
}

// Run drives the protocol until ctx ends or Close is called. It blocks; run
// it on its own goroutine.
func (s *Subscriber) Run(ctx context.Context) error {
	defer s.setState(StateDisconnected)

	backoff := s.opts.MinBackoff
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.closed:
			return nil
		default:
		}

		s.setState(StateSubscribing)
		sub, err := s.broker.Subscribe(ctx, s.topics...)
		if err != nil {
			log.Printf("reconcile: subscribe %v: %v", s.topics, err)
			s.setState(StateReconnecting)
			if !s.sleep(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, s.opts.MaxBackoff)
			continue
		}
		backoff = s.opts.MinBackoff

		s.setState(StateLive)
		// A fresh subscription proves nothing about what was missed
		// while away; only the store knows.
		s.resyncNow(ctx)

		dropped := s.live(ctx, sub)
		_ = sub.Close()
		if !dropped {
			return nil
		}

		s.setState(StateReconnecting)
		if !s.sleep(ctx, backoff) {
			return nil
		}
		backoff = nextBackoff(backoff, s.opts.MaxBackoff)
	}
}

// live consumes events until the transport drops (returns true) or the
// subscriber is done (returns false).
func (s *Subscriber) live(ctx context.Context, sub bport.Subscription) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case <-s.closed:
			return false
		case <-s.notify:
			s.resyncNow(ctx)
		case evt, ok := <-sub.Events():
			if !ok {
				return true
			}
			if s.isOwnEcho(evt) {
				continue
			}
			s.resyncNow(ctx)
		}
	}
}

// isOwnEcho reports whether the event originated from this session's own
// connection. An undecodable payload still counts as a hint that something
// changed.
func (s *Subscriber) isOwnEcho(evt bport.Event) bool {
	if s.opts.SocketID == "" {
		return false
	}
	var env fanout.Envelope
	if err := json.Unmarshal(evt.Payload, &env); err != nil {
		return false
	}
	return env.SocketID != "" && env.SocketID == s.opts.SocketID
}

func (s *Subscriber) resyncNow(ctx context.Context) {
	if s.resync == nil {
		return
	}
	if err := s.resync(ctx); err != nil {
		// Not fatal: the next push, NotifySent or reconnect retries.
		log.Printf("reconcile: resync %v: %v", s.topics, err)
	}
}

func (s *Subscriber) setState(next State) {
	s.mu.Lock()
	changed := s.state != next
	s.state = next
	s.mu.Unlock()
	if changed && s.opts.OnStateChange != nil {
		s.opts.OnStateChange(next)
	}
}

func (s *Subscriber) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-s.closed:
		return false
	case <-t.C:
		return true
	}
}

func nextBackoff(cur, max time.Duration) time.Duration {
	cur *= 2
	if cur > max {
		return max
	}
	return cur
}
