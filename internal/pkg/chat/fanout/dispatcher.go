package fanout

import (
	"context"
	"encoding/json"
	"fmt"

	qport "spachat/internal/infrastructure/queue/port"
	chat "spachat/internal/pkg/chat/domain"
)

// Dispatcher hands a freshly committed message to the fan-out path. The
// append path calls Dispatch after the write is durable and swallows any
// error it returns; a lost publish costs a push hint, not the message.
type Dispatcher interface {
	Dispatch(ctx context.Context, m chat.Message, socketID string) error
}

// DirectDispatcher publishes synchronously on the caller's goroutine. Used
// by processes that run without a background worker.
type DirectDispatcher struct {
	Broadcaster *Broadcaster
}

func NewDirectDispatcher(b *Broadcaster) *DirectDispatcher {
	return &DirectDispatcher{Broadcaster: b}
}

func (d *DirectDispatcher) Dispatch(ctx context.Context, m chat.Message, socketID string) error {
	return d.Broadcaster.Publish(ctx, m, socketID)
}

// BroadcastTaskType is the queue task that performs the actual publish when
// fan-out is dispatched through the background queue.
const BroadcastTaskType = "chat:broadcast"

// BroadcastTaskPayload is the JSON payload transported via the queue.
type BroadcastTaskPayload struct {
	Message  chat.Message `json:"message"`
	SocketID string       `json:"socketId"`
}

// QueueDispatcher enqueues the publish as a background task, keeping the
// transport round trip off the request path.
type QueueDispatcher struct {
	Queue qport.Client
}

func NewQueueDispatcher(q qport.Client) *QueueDispatcher {
	return &QueueDispatcher{Queue: q}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, m chat.Message, socketID string) error {
	b, err := json.Marshal(BroadcastTaskPayload{Message: m, SocketID: socketID})
	if err != nil {
		return fmt.Errorf("fanout: encode task payload: %w", err)
	}
	_, err = d.Queue.Enqueue(ctx, qport.Task{Type: BroadcastTaskType, Payload: b},
		qport.EnqueueOption{Queue: "chat", MaxRetry: 3})
	return err
}
