package fanout

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	brokerAdapter "spachat/internal/infrastructure/broker/adapter"
	bport "spachat/internal/infrastructure/broker/port"
	chat "spachat/internal/pkg/chat/domain"
)

func recvEvent(t *testing.T, sub bport.Subscription) bport.Event {
	t.Helper()
	select {
	case evt, ok := <-sub.Events():
		if !ok {
			t.Fatal("subscription closed unexpectedly")
		}
		return evt
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return bport.Event{}
}

func TestBroadcasterPublishesBothTopics(t *testing.T) {
	broker := brokerAdapter.NewMemoryBroker()
	b := NewBroadcaster(broker)

	pairSub, _ := broker.Subscribe(context.Background(), PairTopic("s1", "c1"))
	staffSub, _ := broker.Subscribe(context.Background(), StaffTopic("s1"))

	msg := chat.Message{ID: 7, StaffID: "s1", CustomerID: "c1", SenderType: chat.SenderStaff, Body: "hello"}
	if err := b.Publish(context.Background(), msg, "sock-1"); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}

	for _, sub := range []bport.Subscription{pairSub, staffSub} {
		evt := recvEvent(t, sub)
		var env Envelope
		if err := json.Unmarshal(evt.Payload, &env); err != nil {
			t.Fatalf("bad envelope: %v", err)
		}
		if env.Event != EventMessageSent {
			t.Errorf("event = %q, want %q", env.Event, EventMessageSent)
		}
		if env.SocketID != "sock-1" {
			t.Errorf("socket_id = %q, want sock-1", env.SocketID)
		}
		if env.Message.ID != 7 || env.Message.Body != "hello" {
			t.Errorf("payload message = %+v, want the full record", env.Message)
		}
	}
}

type failingBroker struct{}

func (failingBroker) Publish(context.Context, string, []byte) error {
	return errors.New("transport down")
}

func (failingBroker) Subscribe(context.Context, ...string) (bport.Subscription, error) {
	return nil, errors.New("transport down")
}

func TestBroadcasterReportsTransportFailure(t *testing.T) {
	b := NewBroadcaster(failingBroker{})
	msg := chat.Message{ID: 1, StaffID: "s1", CustomerID: "c1", Body: "x"}

	// The error travels to dispatchers (for retry); the append path is
	// responsible for swallowing it.
	if err := b.Publish(context.Background(), msg, ""); err == nil {
		t.Fatal("Publish() = nil error, want transport failure")
	}
}
