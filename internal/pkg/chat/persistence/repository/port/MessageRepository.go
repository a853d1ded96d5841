package repository

import (
	"context"

	chat "spachat/internal/pkg/chat/domain"
)

// MessageRepository defines persistence for the append-mostly message log.
// Messages are never updated or deleted through this port; the store is the
// single source of truth every read path goes back to.
type MessageRepository interface {
	// SaveMessage persists m and returns the store-assigned id. Ids are
	// assigned in commit order, which defines the total order per pair.
	SaveMessage(ctx context.Context, m chat.Message) (int64, error)

	// ListByPair returns the full history for one (staff, customer) pair
	// in ascending creation order. No pagination: pair histories are
	// assumed small, which is a scaling limit, not a correctness one.
	ListByPair(ctx context.Context, staffID, customerID string) ([]chat.Message, error)

	// ListConversationHeads returns, for each distinct customer that
	// shares messages with the staff, the newest message of that pair.
	// Row order is unspecified; callers sort.
	ListConversationHeads(ctx context.Context, staffID string) ([]chat.Message, error)
}
