package usecase

import (
	"context"
	"fmt"

	chat "spachat/internal/pkg/chat/domain"
	repository "spachat/internal/pkg/chat/persistence/repository/port"
)

// GetMessagesInput addresses one (staff, customer) pair.
type GetMessagesInput struct {
	StaffID    string
	CustomerID string
}

// GetMessagesUseCase returns the authoritative history for a pair. This is
// the pull half of the protocol: every push event collapses into a call
// here, so the result must always reflect the durable log, never a cache.
type GetMessagesUseCase struct {
	Repo repository.MessageRepository
}

func NewGetMessagesUseCase(repo repository.MessageRepository) *GetMessagesUseCase {
	return &GetMessagesUseCase{Repo: repo}
}

// Execute returns the full pair history in ascending creation order.
func (uc *GetMessagesUseCase) Execute(ctx context.Context, in GetMessagesInput) ([]chat.Message, error) {
	if in.StaffID == "" || in.CustomerID == "" {
		return nil, chat.ErrMissingParty
	}
	msgs, err := uc.Repo.ListByPair(ctx, in.StaffID, in.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return msgs, nil
}
