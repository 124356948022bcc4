package models

import (
	"encoding/json"
	"time"
)

// MessageType tags a message as user content or a server notice.
type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeSystem MessageType = "system"
)

// SendState is the client-side delivery state of a message. It has no
// wire representation; fetched messages are always confirmed.
type SendState string

const (
	// SendConfirmed means the server has acknowledged the message.
	SendConfirmed SendState = "confirmed"

	// SendPending means an optimistic insert awaiting the server.
	SendPending SendState = "pending"

	// SendFailed means the network send failed; the message stays
	// visible with a retry affordance.
	SendFailed SendState = "failed"
)

// Message is a single entry in a conversation. Messages within a
// conversation are totally ordered by CreatedAt, ties broken by arrival
// order.
type Message struct {
	// ID is the message identifier. Optimistic inserts carry a
	// client-generated temporary id until the send resolves.
	ID string `json:"id"`

	// ConversationID is the owning conversation.
	ConversationID string `json:"conversationId"`

	// Sender references the author; bare id or embedded object on the
	// wire.
	Sender UserRef `json:"sender"`

	// Content is the message text.
	Content string `json:"content"`

	// Metadata is an optional free-form payload, e.g. an attached
	// product card. Read it through Metadata.Field, never directly.
	Metadata Metadata `json:"metadata,omitempty"`

	// Type is text or system.
	Type MessageType `json:"type"`

	// CreatedAt is the server-side creation timestamp. Optimistic
	// inserts stamp local time until reconciled.
	CreatedAt time.Time `json:"createdAt"`

	// SendState is client-only and never serialized.
	SendState SendState `json:"-"`
}

// UserRef is a reference to a user that the server transmits either as a
// bare identifier string or as an embedded object. Use the identity
// package to compare refs; never compare raw fields at call sites.
type UserRef struct {
	// ID is the identifier when the ref arrived as an object.
	ID string `json:"id,omitempty"`

	// FirstName and LastName are present only on embedded objects.
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`

	// Raw is the identifier when the ref arrived as a bare string.
	Raw string `json:"-"`
}

// UnmarshalJSON accepts both wire shapes.
func (r *UserRef) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		*r = UserRef{Raw: bare}
		return nil
	}

	type wireRef UserRef
	var obj wireRef
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*r = UserRef(obj)
	return nil
}

// MarshalJSON always emits the bare-id form; the embedded object is a
// server-side expansion the client never writes back.
func (r UserRef) MarshalJSON() ([]byte, error) {
	if r.ID != "" {
		return json.Marshal(r.ID)
	}
	return json.Marshal(r.Raw)
}

// UnreadSummary is the aggregate unread count across conversations. It is
// eventually consistent with the per-conversation counts, not
// transactionally consistent.
type UnreadSummary struct {
	Count int `json:"count"`
}
