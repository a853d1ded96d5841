package task

import (
	"context"
	"encoding/json"
	"time"

	qport "spachat/internal/infrastructure/queue/port"
	"spachat/internal/pkg/chat/fanout"
)

// RegisterBroadcastMessageTask binds the fan-out publish handler to the
// worker. The task carries the full committed message, so the handler needs
// no database access; it only talks to the pub/sub transport.
func RegisterBroadcastMessageTask(srv qport.Server, b *fanout.Broadcaster) {
	srv.Register(fanout.BroadcastTaskType, func(ctx context.Context, t qport.Task) error {
		var p fanout.BroadcastTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// Malformed payload will not improve on retry.
			return err
		}

		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		return b.Publish(ctx, p.Message, p.SocketID)
	})
}
