package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	chat "spachat/internal/pkg/chat/domain"
	repoAdapter "spachat/internal/pkg/chat/persistence/repository/adapter"
	identity "spachat/internal/repository/port"
)

type fakeDirectory struct {
	profiles map[string]identity.CustomerProfile
	err      error
}

func (d *fakeDirectory) Lookup(_ context.Context, id string) (identity.CustomerProfile, error) {
	if d.err != nil {
		return identity.CustomerProfile{}, d.err
	}
	p, ok := d.profiles[id]
	if !ok {
		return identity.CustomerProfile{}, identity.ErrNotFound
	}
	return p, nil
}

func seedPair(t *testing.T, repo *repoAdapter.MemoryMessageRepository, staffID, customerID, body string, at time.Time) chat.Message {
	t.Helper()
	m := chat.Message{
		StaffID: staffID, CustomerID: customerID,
		SenderType: chat.SenderCustomer, Body: body,
		CreatedAt: at, UpdatedAt: at,
	}
	id, err := repo.SaveMessage(context.Background(), m)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	m.ID = id
	return m
}

func TestListConversationsGroupsAndOrders(t *testing.T) {
	repo := repoAdapter.NewMemoryMessageRepository()
	base := time.Date(2025, 11, 17, 22, 0, 0, 0, time.UTC)

	seedPair(t, repo, "s1", "alice", "old from alice", base)
	seedPair(t, repo, "s1", "bob", "from bob", base.Add(time.Minute))
	latest := seedPair(t, repo, "s1", "alice", "new from alice", base.Add(2*time.Minute))
	seedPair(t, repo, "s2", "alice", "other staff", base.Add(3*time.Minute))

	dir := &fakeDirectory{profiles: map[string]identity.CustomerProfile{
		"alice": {ID: "alice", FullName: "Alice", Phone: "555"},
		"bob":   {ID: "bob", FullName: "Bob"},
	}}
	uc := NewListConversationsUseCase(repo, dir)

	convs, err := uc.Execute(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if len(convs) != 2 {
		t.Fatalf("rows = %d, want one per distinct customer", len(convs))
	}
	if convs[0].CustomerID != "alice" || convs[1].CustomerID != "bob" {
		t.Errorf("order = [%s, %s], want newest conversation first", convs[0].CustomerID, convs[1].CustomerID)
	}
	if convs[0].LastMessage != "new from alice" || !convs[0].LastMessageAt.Equal(latest.CreatedAt) {
		t.Errorf("alice head = (%q, %v), want the max-createdAt message", convs[0].LastMessage, convs[0].LastMessageAt)
	}
	if convs[0].CustomerName != "Alice" || convs[0].CustomerPhone != "555" {
		t.Errorf("alice enrichment = (%q, %q)", convs[0].CustomerName, convs[0].CustomerPhone)
	}
	for _, conv := range convs {
		if conv.UnreadCount != chat.UnreadPlaceholder {
			t.Errorf("unread = %d, want the placeholder value", conv.UnreadCount)
		}
	}

	// Idempotent with no intervening writes.
	again, err := uc.Execute(context.Background(), "s1")
	if err != nil {
		t.Fatalf("second Execute() error: %v", err)
	}
	if !reflect.DeepEqual(convs, again) {
		t.Error("repeated calls must return identical rows")
	}
}

func TestListConversationsTimestampTieBreaksOnID(t *testing.T) {
	repo := repoAdapter.NewMemoryMessageRepository()
	at := time.Date(2025, 11, 17, 22, 0, 0, 0, time.UTC)

	seedPair(t, repo, "s1", "alice", "first", at)
	second := seedPair(t, repo, "s1", "alice", "second", at)

	uc := NewListConversationsUseCase(repo, &fakeDirectory{})
	convs, err := uc.Execute(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if convs[0].LastMessage != second.Body {
		t.Errorf("head = %q, want the later-committed message on equal timestamps", convs[0].LastMessage)
	}
}

func TestListConversationsDegradesRowOnLookupFailure(t *testing.T) {
	repo := repoAdapter.NewMemoryMessageRepository()
	at := time.Date(2025, 11, 17, 22, 0, 0, 0, time.UTC)
	seedPair(t, repo, "s1", "ghost", "boo", at)

	tests := []struct {
		name string
		dir  *fakeDirectory
	}{
		{"unknown customer", &fakeDirectory{}},
		{"directory unreachable", &fakeDirectory{err: errors.New("identity service down")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewListConversationsUseCase(repo, tt.dir)
			convs, err := uc.Execute(context.Background(), "s1")
			if err != nil {
				t.Fatalf("Execute() error = %v; one bad row must not abort the listing", err)
			}
			if len(convs) != 1 {
				t.Fatalf("rows = %d, want 1", len(convs))
			}
			if convs[0].CustomerName != chat.UnknownCustomerName || convs[0].CustomerPhone != "" {
				t.Errorf("row = (%q, %q), want placeholders", convs[0].CustomerName, convs[0].CustomerPhone)
			}
			if convs[0].LastMessage != "boo" {
				t.Error("message data must survive the degraded enrichment")
			}
		})
	}
}
