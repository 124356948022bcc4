package chat

import (
	"context"
	"testing"
	"time"

	"github.com/crewlink/crewlink/internal/models"
)

// End-to-end flow over the whole engine: open, optimistic send, server
// confirm, local delete, refresh that still returns the deleted message,
// with the second conversation's unread count untouched throughout.
func TestEngine_SendConfirmDeleteScenario(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()

	convA := conv("conv-A", baseTime, baseTime)
	convB := conv("conv-B", baseTime, baseTime)
	convB.UnreadCount = 4
	api.setConversations([]models.Conversation{convA, convB})

	conversations := NewConversationStore(api)
	messages := NewMessageStore(api)
	sender := NewSender(api, messages, "user-self")
	unread := NewUnreadCounter(api)
	api.unread = 4

	if err := conversations.Refresh(ctx, RefreshVisible); err != nil {
		t.Fatalf("conversation refresh: %v", err)
	}
	if len(conversations.Conversations()) != 2 {
		t.Fatal("expected both conversations")
	}
	if _, err := unread.Refresh(ctx); err != nil {
		t.Fatalf("unread refresh: %v", err)
	}

	// Open A.
	messages.Open("conv-A")
	if err := messages.Refresh(ctx, "conv-A", RefreshVisible); err != nil {
		t.Fatalf("message refresh: %v", err)
	}

	// Send "hello": pending entry is visible before the network call
	// resolves (checked implicitly by the blocking fake below).
	gate := make(chan struct{})
	var confirmedID string
	api.sendFn = func(conversationID, content string) (models.Message, error) {
		<-gate
		confirmedID = "srv-hello"
		return models.Message{
			ID:             confirmedID,
			ConversationID: conversationID,
			Sender:         models.UserRef{ID: "user-self"},
			Content:        content,
			Type:           models.MessageTypeText,
			CreatedAt:      baseTime.Add(time.Second),
		}, nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := sender.Send(ctx, "conv-A", "hello"); err != nil {
			t.Errorf("send: %v", err)
		}
	}()

	waitForCount(t, messages, 1)
	if got := messages.Messages()[0].SendState; got != models.SendPending {
		t.Fatalf("message must appear pending immediately, got %q", got)
	}

	// Server confirms.
	close(gate)
	<-done

	msgs := messages.Messages()
	if len(msgs) != 1 || msgs[0].ID != "srv-hello" || msgs[0].SendState != models.SendConfirmed {
		t.Fatalf("expected sole confirmed entry, got %+v", msgs)
	}

	// Delete it locally: disappears without a server call.
	messages.Tombstone("srv-hello")
	if len(messages.Messages()) != 0 {
		t.Fatal("tombstoned message still visible")
	}

	// A background refresh still returns it from the server; it must
	// not come back.
	api.setMessages("conv-A", []models.Message{
		msg("srv-hello", "conv-A", "user-self", "hello", baseTime.Add(time.Second)),
	})
	if err := messages.Refresh(ctx, "conv-A", RefreshSilent); err != nil {
		t.Fatalf("background refresh: %v", err)
	}
	if len(messages.Messages()) != 0 {
		t.Fatal("tombstoned message resurrected by background refresh")
	}

	// Conversation B's unread count is unaffected by all of the above.
	b, err := conversations.Conversation("conv-B")
	if err != nil {
		t.Fatalf("conv-B: %v", err)
	}
	if b.UnreadCount != 4 {
		t.Fatalf("conv-B unread changed: %d", b.UnreadCount)
	}
	if unread.Count() != 4 {
		t.Fatalf("aggregate unread changed: %d", unread.Count())
	}
}
