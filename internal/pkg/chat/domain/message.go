package chat

import (
	"errors"
	"strings"
	"time"
)

// SenderType identifies who authored a message.
// Wire values match the persisted column: 1=customer, 2=staff.
type SenderType int16

const (
	SenderCustomer SenderType = 1
	SenderStaff    SenderType = 2
)

// Domain-level errors surfaced by message construction.
var (
	ErrMissingParty = errors.New("chat: staff and customer ids are required")
	ErrEmptyBody    = errors.New("chat: message body is empty")
	ErrBadSender    = errors.New("chat: unknown sender type")
)

// Message is an immutable entry in the staff/customer message log.
// The ID is assigned by the store and is monotonic in commit order, so
// ordering by (CreatedAt, ID) is ordering by creation. It is rendered as a
// JSON string so clients treat it as opaque.
//
// Seen is persisted with its default and never read back here; read
// tracking is a future subsystem.
type Message struct {
	ID         int64      `json:"id,string" db:"id"`
	StaffID    string     `json:"user_id" db:"staff_id"`
	CustomerID string     `json:"customer_id" db:"customer_id"`
	SenderType SenderType `json:"sender_type" db:"sender_type"`
	Body       string     `json:"message" db:"body"`
	Seen       bool       `json:"seen" db:"seen"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// NewMessage validates addressing and body and returns a message ready to
// persist. The (StaffID, CustomerID) pair is fixed for the lifetime of the
// message; there is no edit or delete operation.
func NewMessage(staffID, customerID string, sender SenderType, body string) (*Message, error) {
	if strings.TrimSpace(staffID) == "" || strings.TrimSpace(customerID) == "" {
		return nil, ErrMissingParty
	}
	if sender != SenderCustomer && sender != SenderStaff {
		return nil, ErrBadSender
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}

	now := time.Now().UTC()
	return &Message{
		StaffID:    staffID,
		CustomerID: customerID,
		SenderType: sender,
		Body:       body,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Before reports whether m was created before other, using the store id as
// the tiebreak since ids are assigned in commit order.
func (m Message) Before(other Message) bool {
	if m.CreatedAt.Equal(other.CreatedAt) {
		return m.ID < other.ID
	}
	return m.CreatedAt.Before(other.CreatedAt)
}
