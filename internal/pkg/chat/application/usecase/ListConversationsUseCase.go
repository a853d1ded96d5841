package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	chat "spachat/internal/pkg/chat/domain"
	repository "spachat/internal/pkg/chat/persistence/repository/port"
	identity "spachat/internal/repository/port"
)

// ListConversationsUseCase derives the staff inbox from the raw message
// log: one row per distinct customer counterpart, newest conversation
// first. The view is recomputed on every call; staleness is bounded only by
// how often callers re-query.
type ListConversationsUseCase struct {
	Repo      repository.MessageRepository
	Directory identity.CustomerDirectory
}

func NewListConversationsUseCase(repo repository.MessageRepository, dir identity.CustomerDirectory) *ListConversationsUseCase {
	return &ListConversationsUseCase{Repo: repo, Directory: dir}
}

// Execute lists conversations for the staff, ordered descending by the last
// message's creation. A failed or missing directory lookup degrades that
// row to placeholders; it never aborts the listing.
func (uc *ListConversationsUseCase) Execute(ctx context.Context, staffID string) ([]chat.Conversation, error) {
	if staffID == "" {
		return nil, chat.ErrMissingParty
	}

	heads, err := uc.Repo.ListConversationHeads(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	sort.Slice(heads, func(i, j int) bool { return heads[j].Before(heads[i]) })

	convs := make([]chat.Conversation, 0, len(heads))
	for _, head := range heads {
		conv := chat.Conversation{
			CustomerID:    head.CustomerID,
			CustomerName:  chat.UnknownCustomerName,
			LastMessage:   head.Body,
			LastMessageAt: head.CreatedAt,
			UnreadCount:   chat.UnreadPlaceholder,
		}

		profile, err := uc.Directory.Lookup(ctx, head.CustomerID)
		switch {
		case err == nil:
			if profile.FullName != "" {
				conv.CustomerName = profile.FullName
			}
			conv.CustomerPhone = profile.Phone
			conv.CustomerAvatar = profile.Avatar
		case errors.Is(err, identity.ErrNotFound):
			// Placeholders already set.
		default:
			log.Printf("conversations: lookup customer %s: %v", head.CustomerID, err)
		}

		convs = append(convs, conv)
	}
	return convs, nil
}
