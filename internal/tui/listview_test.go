package tui

import (
	"testing"
	"time"

	"github.com/crewlink/crewlink/internal/models"
)

func testConversation() models.Conversation {
	return models.Conversation{
		ID: "conv-1",
		Participants: []models.Participant{
			{ID: "user-self", FirstName: "Ola", LastName: "Nordmann"},
			{ID: "user-other", FirstName: "Kari", LastName: "Hansen", Role: models.RoleEmployer},
		},
		LastMessage: &models.LastMessage{
			Content:   "See you Monday\nat 8",
			CreatedAt: time.Now().Add(-time.Hour),
			Sender:    models.UserRef{Raw: "user-other"},
		},
		UpdatedAt: time.Now().Add(-time.Hour),
	}
}

func TestConversationTitle(t *testing.T) {
	c := testConversation()
	if got := conversationTitle(c, "user-self"); got != "Kari Hansen" {
		t.Errorf("title: %q", got)
	}

	// From the other side, the label flips.
	if got := conversationTitle(c, "user-other"); got != "Ola Nordmann" {
		t.Errorf("title: %q", got)
	}

	// No resolvable partner falls back to the id.
	c.Participants = nil
	if got := conversationTitle(c, "user-self"); got != "Conversation conv-1" {
		t.Errorf("fallback title: %q", got)
	}
}

func TestPreviewLine(t *testing.T) {
	c := testConversation()
	if got := previewLine(c); got != "See you Monday at 8" {
		t.Errorf("newlines must flatten: %q", got)
	}

	c.Context = &models.ConversationContext{Kind: models.ContextApplication, Status: "accepted"}
	if got := previewLine(c); got != "application: accepted | See you Monday at 8" {
		t.Errorf("context prefix: %q", got)
	}

	c.LastMessage = nil
	c.Context = nil
	if got := previewLine(c); got != "No messages yet" {
		t.Errorf("empty preview: %q", got)
	}
}

func TestContextLabel(t *testing.T) {
	if got := contextLabel(nil); got != "" {
		t.Errorf("nil context: %q", got)
	}
	if got := contextLabel(&models.ConversationContext{Kind: models.ContextOffer}); got != "offer" {
		t.Errorf("kind only: %q", got)
	}
}

func TestListView_CursorClamping(t *testing.T) {
	v := newListView(testTheme(), false, "user-self")
	v.setConversations([]models.Conversation{testConversation(), {ID: "conv-2"}})

	v.moveCursor(-5)
	if v.cursor != 0 {
		t.Fatalf("cursor underflow: %d", v.cursor)
	}
	v.moveCursor(10)
	if v.cursor != 1 {
		t.Fatalf("cursor overflow: %d", v.cursor)
	}

	selected, ok := v.selected()
	if !ok || selected.ID != "conv-2" {
		t.Fatalf("selected: %+v ok=%v", selected, ok)
	}

	// Shrinking the list pulls the cursor back in range.
	v.setConversations([]models.Conversation{testConversation()})
	if v.cursor != 0 {
		t.Fatalf("cursor not clamped after shrink: %d", v.cursor)
	}
}

func TestListView_SelectedOnEmptyList(t *testing.T) {
	v := newListView(testTheme(), false, "user-self")
	if _, ok := v.selected(); ok {
		t.Fatal("empty list must not report a selection")
	}
}
