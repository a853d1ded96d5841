package reconcile

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	brokerAdapter "spachat/internal/infrastructure/broker/adapter"
	chat "spachat/internal/pkg/chat/domain"
	"spachat/internal/pkg/chat/fanout"
)

type harness struct {
	broker  *brokerAdapter.MemoryBroker
	sub     *Subscriber
	resyncs chan struct{}
	states  chan State
	done    chan error
}

func newHarness(t *testing.T, topics []string, socketID string) *harness {
	t.Helper()
	h := &harness{
		broker:  brokerAdapter.NewMemoryBroker(),
		resyncs: make(chan struct{}, 16),
		states:  make(chan State, 16),
		done:    make(chan error, 1),
	}
	h.sub = NewSubscriber(h.broker, topics, func(context.Context) error {
		h.resyncs <- struct{}{}
		return nil
	}, Options{
		SocketID:      socketID,
		MinBackoff:    5 * time.Millisecond,
		MaxBackoff:    20 * time.Millisecond,
		OnStateChange: func(s State) { h.states <- s },
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { h.done <- h.sub.Run(ctx) }()
	return h
}

func (h *harness) waitState(t *testing.T, want State) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-h.states:
			if s == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %v", want)
		}
	}
}

func (h *harness) waitResync(t *testing.T) {
	t.Helper()
	select {
	case <-h.resyncs:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for resync")
	}
}

func (h *harness) expectNoResync(t *testing.T) {
	t.Helper()
	select {
	case <-h.resyncs:
		t.Fatal("unexpected resync")
	case <-time.After(100 * time.Millisecond):
	}
}

func envelope(t *testing.T, socketID string) []byte {
	t.Helper()
	b, err := json.Marshal(fanout.Envelope{
		Event:    fanout.EventMessageSent,
		SocketID: socketID,
		Message:  chat.Message{ID: 1, StaffID: "s1", CustomerID: "c1", Body: "hi"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestSubscriberResyncsOnEnteringLive(t *testing.T) {
	h := newHarness(t, []string{"staff.s1"}, "")

	// A fresh subscription cannot assume it missed nothing.
	h.waitState(t, StateLive)
	h.waitResync(t)
	h.expectNoResync(t)
}

func TestSubscriberResyncsOnEveryPushHint(t *testing.T) {
	h := newHarness(t, []string{"chat.s1.c1"}, "")
	h.waitState(t, StateLive)
	h.waitResync(t) // initial

	ctx := context.Background()
	_ = h.broker.Publish(ctx, "chat.s1.c1", envelope(t, "someone-else"))
	h.waitResync(t)

	// Duplicate delivery of the same event: converges by re-reading, so
	// a second resync is correct and harmless.
	_ = h.broker.Publish(ctx, "chat.s1.c1", envelope(t, "someone-else"))
	h.waitResync(t)
}

func TestSubscriberSuppressesOwnEcho(t *testing.T) {
	h := newHarness(t, []string{"chat.s1.c1"}, "sock-mine")
	h.waitState(t, StateLive)
	h.waitResync(t)

	ctx := context.Background()
	_ = h.broker.Publish(ctx, "chat.s1.c1", envelope(t, "sock-mine"))
	h.expectNoResync(t)

	// Foreign events still get through afterwards.
	_ = h.broker.Publish(ctx, "chat.s1.c1", envelope(t, "sock-other"))
	h.waitResync(t)
}

func TestSubscriberNotifySentTriggersResync(t *testing.T) {
	h := newHarness(t, []string{"staff.s1"}, "sock-mine")
	h.waitState(t, StateLive)
	h.waitResync(t)

	// The fan-out excludes the sender, so after its own append the
	// client must pull on its own initiative.
	h.sub.NotifySent()
	h.waitResync(t)
}

func TestSubscriberReconnectsAfterTransportDrop(t *testing.T) {
	h := newHarness(t, []string{"staff.s1"}, "")
	h.waitState(t, StateLive)
	h.waitResync(t)

	h.broker.DropSubscriptions("staff.s1")
	h.waitState(t, StateReconnecting)
	h.waitState(t, StateLive)
	// Mandatory re-fetch after the gap: anything could have been missed.
	h.waitResync(t)

	_ = h.broker.Publish(context.Background(), "staff.s1", envelope(t, "x"))
	h.waitResync(t)
}

func TestSubscriberCloseIsTerminal(t *testing.T) {
	h := newHarness(t, []string{"staff.s1"}, "")
	h.waitState(t, StateLive)
	h.waitResync(t)

	h.sub.Close()
	select {
	case err := <-h.done:
		if err != nil {
			t.Fatalf("Run() = %v, want nil after Close", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}
	if got := h.sub.State(); got != StateDisconnected {
		t.Fatalf("state = %v, want Disconnected", got)
	}
	_ = h.broker.Publish(context.Background(), "staff.s1", envelope(t, "x"))
	h.expectNoResync(t)
}

// TestReconciliationConvergence exercises the core protocol property: with
// full-state re-fetch, duplicated and dropped events both converge on the
// authoritative log.
func TestReconciliationConvergence(t *testing.T) {
	broker := brokerAdapter.NewMemoryBroker()
	authoritative := []chat.Message{
		{ID: 1, StaffID: "s1", CustomerID: "c1", Body: "one"},
		{ID: 2, StaffID: "s1", CustomerID: "c1", Body: "two"},
	}
	var local []chat.Message

	resyncs := make(chan struct{}, 16)
	sub := NewSubscriber(broker, []string{"chat.s1.c1"}, func(context.Context) error {
		local = append([]chat.Message(nil), authoritative...)
		resyncs <- struct{}{}
		return nil
	}, Options{MinBackoff: 5 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sub.Run(ctx) }()

	wait := func() {
		t.Helper()
		select {
		case <-resyncs:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for resync")
		}
	}
	wait() // initial

	// Deliver the event for message 1 twice; never deliver one for 2.
	payload := envelope(t, "other")
	_ = broker.Publish(ctx, "chat.s1.c1", payload)
	wait()
	_ = broker.Publish(ctx, "chat.s1.c1", payload)
	wait()

	// A manual trigger (the user's own pull) still lands on the same state.
	sub.NotifySent()
	wait()

	if len(local) != 2 || local[0].ID != 1 || local[1].ID != 2 {
		t.Fatalf("local = %+v, want the authoritative log regardless of event delivery", local)
	}
}
