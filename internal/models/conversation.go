// Package models defines the wire and domain types shared by the CrewLink
// messaging client: conversations, messages, participants and the
// normalizing accessors around their looser wire representations.
package models

import (
	"strings"
	"time"
)

// ContextKind describes why a conversation exists.
type ContextKind string

const (
	// ContextApplication links a conversation to a job application.
	ContextApplication ContextKind = "application"

	// ContextOffer links a conversation to a published offer.
	ContextOffer ContextKind = "offer"
)

// ConversationContext is the optional typed payload attaching a
// conversation to the marketplace entity that spawned it.
type ConversationContext struct {
	// Kind identifies the related entity type.
	Kind ContextKind `json:"kind"`

	// Status is the server-side status string of the related entity.
	Status string `json:"status,omitempty"`

	// EntityID is the identifier of the related entity.
	EntityID string `json:"entityId,omitempty"`
}

// LastMessage is the preview of the most recent message embedded in a
// conversation summary.
type LastMessage struct {
	// Content is the preview text.
	Content string `json:"content"`

	// CreatedAt is when the message was created.
	CreatedAt time.Time `json:"createdAt"`

	// Sender references the message author. It may arrive as a bare id
	// or as an embedded participant object.
	Sender UserRef `json:"sender"`
}

// Conversation is a two-party message thread between a driver and an
// employer. Conversations are created server-side on first contact and
// are never deleted by the client.
type Conversation struct {
	// ID is the stable, opaque conversation identifier.
	ID string `json:"id"`

	// Participants holds the two participant summaries. Exactly one
	// "other participant" is derivable relative to the session user.
	Participants []Participant `json:"participants"`

	// LastMessage previews the most recent message, absent for empty
	// conversations.
	LastMessage *LastMessage `json:"lastMessage,omitempty"`

	// UnreadCount is the number of unread messages scoped to the
	// requesting user.
	UnreadCount int `json:"unreadCount"`

	// UpdatedAt is the last-activity timestamp.
	UpdatedAt time.Time `json:"updatedAt"`

	// Context optionally ties the conversation to an application or
	// offer.
	Context *ConversationContext `json:"context,omitempty"`

	// NoReply marks the conversation receive-only for the current user.
	NoReply bool `json:"noReply,omitempty"`
}

// OtherParticipant returns the participant that is not the session user.
// The second return is false when no participant can be resolved (empty
// participant list, or the list only contains the session user).
func (c Conversation) OtherParticipant(selfID string) (Participant, bool) {
	selfID = strings.TrimSpace(selfID)
	for _, p := range c.Participants {
		if strings.TrimSpace(p.ID) != selfID {
			return p, true
		}
	}
	return Participant{}, false
}
