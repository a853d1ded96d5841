package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"spachat/internal/infrastructure/metrics"
	sport "spachat/internal/infrastructure/stream/port"
	chat "spachat/internal/pkg/chat/domain"
	"spachat/internal/pkg/chat/fanout"
	repository "spachat/internal/pkg/chat/persistence/repository/port"
)

// SendMessageInput carries one append request. SocketID identifies the
// originating connection for echo suppression; empty when the sender has no
// push subscription.
type SendMessageInput struct {
	StaffID    string
	CustomerID string
	Sender     chat.SenderType
	Body       string
	SocketID   string
}

// SendMessageUseCase appends one message to the log and triggers the
// fan-out. Ordering is strict: the publish is dispatched only after the
// write committed, so a reader polling right after the call sees the record
// even if every push is lost. Dispatch and stream failures are logged and
// swallowed; they must not fail the append.
type SendMessageUseCase struct {
	Repo     repository.MessageRepository
	Dispatch fanout.Dispatcher
	Stream   sport.Writer // optional messages.created feed
}

func NewSendMessageUseCase(repo repository.MessageRepository, d fanout.Dispatcher) *SendMessageUseCase {
	return &SendMessageUseCase{Repo: repo, Dispatch: d}
}

// Execute validates, persists and fans out one message.
func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*chat.Message, error) {
	msg, err := chat.NewMessage(in.StaffID, in.CustomerID, in.Sender, in.Body)
	if err != nil {
		return nil, err
	}

	id, err := uc.Repo.SaveMessage(ctx, *msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	msg.ID = id
	metrics.MessagesAppended.Inc()

	// Publish-after-commit. From here on nothing may fail the call.
	if uc.Dispatch != nil {
		if err := uc.Dispatch.Dispatch(ctx, *msg, in.SocketID); err != nil {
			log.Printf("send: fanout dispatch message %d: %v", msg.ID, err)
		}
	}
	if uc.Stream != nil {
		if b, err := json.Marshal(msg); err == nil {
			if err := uc.Stream.Write(ctx, []byte(msg.StaffID), b); err != nil {
				log.Printf("send: stream message %d: %v", msg.ID, err)
			}
		}
	}

	return msg, nil
}
