package chat

import (
	"context"
	"sync"
	"time"

	"github.com/crewlink/crewlink/internal/models"
)

// fakeAPI implements ConversationAPI, MessageAPI and UnreadAPI with
// programmable responses and call counters.
type fakeAPI struct {
	mu sync.Mutex

	conversations    []models.Conversation
	conversationsErr error
	conversationCall int

	messages    map[string][]models.Message
	messagesErr error
	messageCall int

	sendFn   func(conversationID, content string) (models.Message, error)
	sendCall int

	unread     int
	unreadErr  error
	unreadCall int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{messages: make(map[string][]models.Message)}
}

func (f *fakeAPI) Conversations(ctx context.Context) ([]models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conversationCall++
	if f.conversationsErr != nil {
		return nil, f.conversationsErr
	}
	return append([]models.Conversation(nil), f.conversations...), nil
}

func (f *fakeAPI) Messages(ctx context.Context, conversationID string, page, limit int) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messageCall++
	if f.messagesErr != nil {
		return nil, f.messagesErr
	}
	return append([]models.Message(nil), f.messages[conversationID]...), nil
}

func (f *fakeAPI) SendMessage(ctx context.Context, conversationID, content string, typ models.MessageType) (models.Message, error) {
	f.mu.Lock()
	fn := f.sendFn
	f.sendCall++
	f.mu.Unlock()
	if fn != nil {
		return fn(conversationID, content)
	}
	return models.Message{
		ID:             "srv-" + content,
		ConversationID: conversationID,
		Sender:         models.UserRef{Raw: "user-self"},
		Content:        content,
		Type:           typ,
		CreatedAt:      time.Now(),
	}, nil
}

func (f *fakeAPI) UnreadCount(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unreadCall++
	if f.unreadErr != nil {
		return 0, f.unreadErr
	}
	return f.unread, nil
}

func (f *fakeAPI) setConversations(convs []models.Conversation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conversations = convs
}

func (f *fakeAPI) setMessages(conversationID string, msgs []models.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[conversationID] = msgs
}

func conv(id string, updated time.Time, lastAt time.Time) models.Conversation {
	c := models.Conversation{ID: id, UpdatedAt: updated}
	if !lastAt.IsZero() {
		c.LastMessage = &models.LastMessage{Content: "preview", CreatedAt: lastAt}
	}
	return c
}

func msg(id, convID, sender, content string, at time.Time) models.Message {
	return models.Message{
		ID:             id,
		ConversationID: convID,
		Sender:         models.UserRef{Raw: sender},
		Content:        content,
		Type:           models.MessageTypeText,
		CreatedAt:      at,
	}
}
