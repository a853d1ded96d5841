package adapter

import (
	"context"
	"sort"
	"sync"

	chat "spachat/internal/pkg/chat/domain"
)

// MemoryMessageRepository keeps the log in process memory. It backs tests
// and local runs without Postgres; it honors the same ordering contract as
// the pg adapter (ids in save order, reads sorted by creation).
type MemoryMessageRepository struct {
	mu     sync.Mutex
	nextID int64
	msgs   []chat.Message

	// Err, when set, is returned by every operation. Tests use it to
	// simulate store failures.
	Err error
}

func NewMemoryMessageRepository() *MemoryMessageRepository {
	return &MemoryMessageRepository{}
}

func (r *MemoryMessageRepository) SaveMessage(_ context.Context, m chat.Message) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	r.nextID++
	m.ID = r.nextID
	r.msgs = append(r.msgs, m)
	return m.ID, nil
}

func (r *MemoryMessageRepository) ListByPair(_ context.Context, staffID, customerID string) ([]chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var out []chat.Message
	for _, m := range r.msgs {
		if m.StaffID == staffID && m.CustomerID == customerID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func (r *MemoryMessageRepository) ListConversationHeads(_ context.Context, staffID string) ([]chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	heads := make(map[string]chat.Message)
	for _, m := range r.msgs {
		if m.StaffID != staffID {
			continue
		}
		if cur, ok := heads[m.CustomerID]; !ok || cur.Before(m) {
			heads[m.CustomerID] = m
		}
	}
	out := make([]chat.Message, 0, len(heads))
	for _, m := range heads {
		out = append(out, m)
	}
	return out, nil
}
