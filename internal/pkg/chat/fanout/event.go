package fanout

import chat "spachat/internal/pkg/chat/domain"

// EventMessageSent is the only event the fan-out emits.
const EventMessageSent = "message.sent"

// Envelope is the wire form of a fan-out event. Message carries the full
// persisted record so any subscriber can render it standalone, but
// subscribers treat it as a hint and re-fetch authoritative state rather
// than patching the payload into local state.
//
// SocketID identifies the connection that originated the message, so
// subscribers can suppress the echo of their own send; the sender already
// holds the message from its own request result.
type Envelope struct {
	Event    string       `json:"event"`
	SocketID string       `json:"socket_id,omitempty"`
	Message  chat.Message `json:"message"`
}
