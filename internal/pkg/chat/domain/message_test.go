package chat

import (
	"errors"
	"testing"
	"time"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name       string
		staffID    string
		customerID string
		sender     SenderType
		body       string
		wantErr    error
	}{
		{"staff message", "s1", "c1", SenderStaff, "hello", nil},
		{"customer message", "s1", "c1", SenderCustomer, "hi", nil},
		{"missing staff", "", "c1", SenderStaff, "hello", ErrMissingParty},
		{"missing customer", "s1", "", SenderStaff, "hello", ErrMissingParty},
		{"blank staff", "   ", "c1", SenderStaff, "hello", ErrMissingParty},
		{"empty body", "s1", "c1", SenderStaff, "", ErrEmptyBody},
		{"whitespace body", "s1", "c1", SenderStaff, "  \n\t ", ErrEmptyBody},
		{"unknown sender", "s1", "c1", SenderType(9), "hello", ErrBadSender},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMessage(tt.staffID, tt.customerID, tt.sender, tt.body)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewMessage() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewMessage() unexpected error: %v", err)
			}
			if m.StaffID != tt.staffID || m.CustomerID != tt.customerID {
				t.Errorf("addressing = (%q, %q), want (%q, %q)", m.StaffID, m.CustomerID, tt.staffID, tt.customerID)
			}
			if m.SenderType != tt.sender {
				t.Errorf("sender = %v, want %v", m.SenderType, tt.sender)
			}
			if m.Seen {
				t.Error("new message must not be marked seen")
			}
			if m.CreatedAt.IsZero() || !m.CreatedAt.Equal(m.UpdatedAt) {
				t.Errorf("timestamps = (%v, %v), want equal and non-zero", m.CreatedAt, m.UpdatedAt)
			}
		})
	}
}

func TestNewMessageTrimsBody(t *testing.T) {
	m, err := NewMessage("s1", "c1", SenderStaff, "  hello  ")
	if err != nil {
		t.Fatalf("NewMessage() error: %v", err)
	}
	if m.Body != "hello" {
		t.Errorf("body = %q, want %q", m.Body, "hello")
	}
}

func TestMessageBefore(t *testing.T) {
	base := time.Date(2025, 11, 17, 22, 0, 0, 0, time.UTC)
	a := Message{ID: 1, CreatedAt: base}
	b := Message{ID: 2, CreatedAt: base.Add(time.Second)}
	same := Message{ID: 2, CreatedAt: base}

	if !a.Before(b) || b.Before(a) {
		t.Error("creation time must decide ordering")
	}
	// Equal timestamps fall back to store id, which follows commit order.
	if !a.Before(same) || same.Before(a) {
		t.Error("id must break timestamp ties")
	}
}
