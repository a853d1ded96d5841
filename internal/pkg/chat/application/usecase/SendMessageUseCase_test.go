package usecase

import (
	"context"
	"errors"
	"testing"

	chat "spachat/internal/pkg/chat/domain"
	repoAdapter "spachat/internal/pkg/chat/persistence/repository/adapter"
)

type recordingDispatcher struct {
	calls    []chat.Message
	socketID string
	err      error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, m chat.Message, socketID string) error {
	d.calls = append(d.calls, m)
	d.socketID = socketID
	return d.err
}

func TestSendMessagePersistsAndDispatches(t *testing.T) {
	repo := repoAdapter.NewMemoryMessageRepository()
	disp := &recordingDispatcher{}
	uc := NewSendMessageUseCase(repo, disp)

	msg, err := uc.Execute(context.Background(), SendMessageInput{
		StaffID: "s1", CustomerID: "c1", Sender: chat.SenderStaff, Body: "Hello", SocketID: "sock-9",
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if msg.ID == 0 {
		t.Error("message must carry the store-assigned id")
	}
	if msg.StaffID != "s1" || msg.CustomerID != "c1" {
		t.Errorf("addressing = (%q, %q), want caller-supplied pair", msg.StaffID, msg.CustomerID)
	}

	if len(disp.calls) != 1 {
		t.Fatalf("dispatch calls = %d, want exactly 1 per append", len(disp.calls))
	}
	if disp.calls[0].ID != msg.ID {
		t.Error("dispatch must carry the committed record, id included")
	}
	if disp.socketID != "sock-9" {
		t.Errorf("dispatched socket id = %q, want sock-9", disp.socketID)
	}

	// The write must be visible to an immediate authoritative read even
	// if every push is lost.
	listed, err := repo.ListByPair(context.Background(), "s1", "c1")
	if err != nil {
		t.Fatalf("ListByPair() error: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != msg.ID {
		t.Fatalf("ListByPair() = %+v, want the appended message", listed)
	}
}

func TestSendMessageDispatchFailureDoesNotFailAppend(t *testing.T) {
	repo := repoAdapter.NewMemoryMessageRepository()
	disp := &recordingDispatcher{err: errors.New("transport unreachable")}
	uc := NewSendMessageUseCase(repo, disp)

	msg, err := uc.Execute(context.Background(), SendMessageInput{
		StaffID: "s1", CustomerID: "c1", Sender: chat.SenderCustomer, Body: "still works",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v; publish failure must not fail the write", err)
	}

	listed, _ := repo.ListByPair(context.Background(), "s1", "c1")
	if len(listed) != 1 || listed[0].ID != msg.ID {
		t.Fatal("message must be durable despite the lost publish")
	}
}

func TestSendMessageValidation(t *testing.T) {
	repo := repoAdapter.NewMemoryMessageRepository()
	disp := &recordingDispatcher{}
	uc := NewSendMessageUseCase(repo, disp)

	_, err := uc.Execute(context.Background(), SendMessageInput{
		StaffID: "s1", CustomerID: "c1", Sender: chat.SenderStaff, Body: "   ",
	})
	if !errors.Is(err, chat.ErrEmptyBody) {
		t.Fatalf("Execute() error = %v, want ErrEmptyBody", err)
	}
	if len(disp.calls) != 0 {
		t.Error("rejected input must not reach the fan-out")
	}
}

func TestSendMessageStoreFailure(t *testing.T) {
	repo := repoAdapter.NewMemoryMessageRepository()
	repo.Err = errors.New("pg down")
	disp := &recordingDispatcher{}
	uc := NewSendMessageUseCase(repo, disp)

	_, err := uc.Execute(context.Background(), SendMessageInput{
		StaffID: "s1", CustomerID: "c1", Sender: chat.SenderStaff, Body: "hello",
	})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("Execute() error = %v, want ErrPersistence", err)
	}
	if len(disp.calls) != 0 {
		t.Error("publish must never run before the commit")
	}
}

func TestSendMessagesCommitOrderIsReadOrder(t *testing.T) {
	repo := repoAdapter.NewMemoryMessageRepository()
	uc := NewSendMessageUseCase(repo, &recordingDispatcher{})

	// Back-to-back messages from different senders for the same pair.
	first, err := uc.Execute(context.Background(), SendMessageInput{
		StaffID: "s1", CustomerID: "c1", Sender: chat.SenderCustomer, Body: "question",
	})
	if err != nil {
		t.Fatal(err)
	}
	second, err := uc.Execute(context.Background(), SendMessageInput{
		StaffID: "s1", CustomerID: "c1", Sender: chat.SenderStaff, Body: "answer",
	})
	if err != nil {
		t.Fatal(err)
	}

	listed, _ := repo.ListByPair(context.Background(), "s1", "c1")
	if len(listed) != 2 {
		t.Fatalf("history length = %d, want 2", len(listed))
	}
	if listed[0].ID != first.ID || listed[1].ID != second.ID {
		t.Error("history must follow commit order, never sender identity")
	}
}
