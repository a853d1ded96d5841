package fanout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	bport "spachat/internal/infrastructure/broker/port"
	"spachat/internal/infrastructure/metrics"
	chat "spachat/internal/pkg/chat/domain"
)

// Broadcaster converts one persisted message into message.sent events on
// each of its topics. Per-topic failures are logged and counted; the
// returned error exists for dispatchers that want to retry, never for the
// append path, which must not fail on a lost publish.
type Broadcaster struct {
	broker bport.Broker
}

func NewBroadcaster(broker bport.Broker) *Broadcaster {
	return &Broadcaster{broker: broker}
}

// Publish fans m out to its pair and staff topics. socketID marks the
// originating connection for echo suppression and may be empty.
func (b *Broadcaster) Publish(ctx context.Context, m chat.Message, socketID string) error {
	payload, err := json.Marshal(Envelope{
		Event:    EventMessageSent,
		SocketID: socketID,
		Message:  m,
	})
	if err != nil {
		return fmt.Errorf("fanout: encode event: %w", err)
	}

	var failed error
	for _, topic := range TopicsFor(m) {
		if err := b.broker.Publish(ctx, topic, payload); err != nil {
			metrics.FanoutFailures.Inc()
			log.Printf("fanout: publish %s: %v", topic, err)
			failed = errors.Join(failed, err)
			continue
		}
		metrics.FanoutPublished.Inc()
	}
	return failed
}
