// Package chat implements the messaging synchronization engine: the
// conversation and message stores, the optimistic send pipeline, the
// unread counter and the polling scheduler. The server offers no push
// channel, so every store reconciles periodic full refetches against
// local state instead of applying deltas.
package chat

import (
	"context"
	"errors"

	"github.com/crewlink/crewlink/internal/models"
)

// Store errors.
var (
	// ErrNotFound means the requested entity is not in the store.
	ErrNotFound = errors.New("not found")

	// ErrEmptyMessage means a send was rejected client-side for
	// whitespace-only content. Never reaches the network.
	ErrEmptyMessage = errors.New("empty message")

	// ErrNoReply means the conversation is receive-only for the
	// current user.
	ErrNoReply = errors.New("conversation is receive-only")
)

// RefreshMode selects whether a refresh toggles the user-visible loading
// flag. Background polls are silent; user-initiated refreshes are
// visible.
type RefreshMode int

const (
	RefreshVisible RefreshMode = iota
	RefreshSilent
)

// ConversationAPI is the slice of the REST client the conversation store
// needs.
type ConversationAPI interface {
	Conversations(ctx context.Context) ([]models.Conversation, error)
}

// MessageAPI is the slice of the REST client the message store and send
// pipeline need.
type MessageAPI interface {
	Messages(ctx context.Context, conversationID string, page, limit int) ([]models.Message, error)
	SendMessage(ctx context.Context, conversationID, content string, typ models.MessageType) (models.Message, error)
}

// UnreadAPI is the slice of the REST client the unread counter needs.
type UnreadAPI interface {
	UnreadCount(ctx context.Context) (int, error)
}
