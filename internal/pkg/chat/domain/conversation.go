package chat

import "time"

// Placeholder values used where a subsystem does not exist yet. They live
// here, named, so the stand-ins are replaceable in one place.
const (
	// UnknownCustomerName is shown when the customer directory has no
	// record (or the lookup failed) for a conversation counterpart.
	UnknownCustomerName = "unknown customer"

	// UnreadPlaceholder is reported until read tracking exists. The field
	// stays in the payload because clients already render it.
	UnreadPlaceholder = 0
)

// Conversation is one staff-inbox row: a distinct customer counterpart
// annotated with the most recent message of the pair. It is a read model
// recomputed from the message log on every query; nothing persists it.
type Conversation struct {
	CustomerID     string    `json:"customer_id"`
	CustomerName   string    `json:"customer_name"`
	CustomerPhone  string    `json:"customer_phone"`
	CustomerAvatar *string   `json:"customer_avatar"`
	LastMessage    string    `json:"last_message"`
	LastMessageAt  time.Time `json:"last_time"`
	UnreadCount    int       `json:"unread_count"`
}
