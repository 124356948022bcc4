package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/crewlink/crewlink/internal/models"
	"github.com/crewlink/crewlink/internal/tui/styles"
)

func testTheme() styles.Theme { return styles.DefaultTheme }

func testMessage(id, sender, content string, state models.SendState) models.Message {
	return models.Message{
		ID:             id,
		ConversationID: "conv-1",
		Sender:         models.UserRef{Raw: sender},
		Content:        content,
		Type:           models.MessageTypeText,
		CreatedAt:      time.Now(),
		SendState:      state,
	}
}

func TestRenderProductCard(t *testing.T) {
	meta := models.NewMetadata(map[string]any{
		models.MetaTitle: "Scania R450",
		models.MetaPrice: "890 000 kr",
		models.MetaURL:   "https://example.com/listing/42",
	})
	card := renderProductCard(meta)
	if !strings.Contains(card, "Scania R450") {
		t.Errorf("missing title: %q", card)
	}
	if !strings.Contains(card, "890 000 kr") {
		t.Errorf("missing price: %q", card)
	}
	if !strings.Contains(card, "https://example.com/listing/42") {
		t.Errorf("missing url: %q", card)
	}
}

func TestRenderProductCard_NoTitleNoCard(t *testing.T) {
	if got := renderProductCard(models.Metadata{}); got != "" {
		t.Errorf("zero metadata: %q", got)
	}
	meta := models.NewMetadata(map[string]any{models.MetaPrice: "100"})
	if got := renderProductCard(meta); got != "" {
		t.Errorf("price without title must not render: %q", got)
	}
}

func TestLastFailedID(t *testing.T) {
	v := newChatView(testTheme(), true, "user-self")
	msgs := []models.Message{
		testMessage("m1", "user-self", "ok", models.SendConfirmed),
		testMessage("pending-a", "user-self", "first fail", models.SendFailed),
		testMessage("pending-b", "user-self", "second fail", models.SendFailed),
	}
	id, ok := v.lastFailedID(msgs)
	if !ok || id != "pending-b" {
		t.Fatalf("lastFailedID = %q ok=%v, want pending-b", id, ok)
	}

	if _, ok := v.lastFailedID(msgs[:1]); ok {
		t.Fatal("no failed entries must report none")
	}
}

func TestNewestOwnConfirmedID(t *testing.T) {
	v := newChatView(testTheme(), true, "user-self")
	msgs := []models.Message{
		testMessage("m1", "user-self", "mine old", models.SendConfirmed),
		testMessage("m2", "user-other", "theirs", models.SendConfirmed),
		testMessage("m3", "user-self", "mine new", models.SendConfirmed),
		testMessage("pending-x", "user-self", "in flight", models.SendPending),
	}
	id, ok := v.newestOwnConfirmedID(msgs)
	if !ok || id != "m3" {
		t.Fatalf("newestOwnConfirmedID = %q ok=%v, want m3", id, ok)
	}

	// Only the other side's messages: nothing deletable.
	if _, ok := v.newestOwnConfirmedID(msgs[1:2]); ok {
		t.Fatal("other participant's message must not be deletable")
	}
}

func TestChatView_SetMessagesSkipsUnchangedGeneration(t *testing.T) {
	v := newChatView(testTheme(), true, "user-self")
	v.resize(80, 24)

	msgs := []models.Message{testMessage("m1", "user-other", "hello", models.SendConfirmed)}
	v.setMessages(msgs, 1)
	first := v.vp.View()

	// Same generation with different content must not re-render.
	v.setMessages(nil, 1)
	if got := v.vp.View(); got != first {
		t.Fatal("unchanged generation re-rendered")
	}

	// A new generation does.
	v.setMessages(nil, 2)
	if got := v.vp.View(); got == first {
		t.Fatal("new generation did not re-render")
	}
}

func TestChatView_RenderMessageMarkers(t *testing.T) {
	v := newChatView(testTheme(), true, "user-self")

	pending := v.renderMessage(testMessage("p1", "user-self", "sending", models.SendPending), 60)
	if !strings.Contains(pending, styles.PendingMarker) {
		t.Errorf("pending marker missing:\n%s", pending)
	}

	failed := v.renderMessage(testMessage("f1", "user-self", "nope", models.SendFailed), 60)
	if !strings.Contains(failed, "failed") {
		t.Errorf("failed marker missing:\n%s", failed)
	}

	system := v.renderMessage(models.Message{
		ID:      "s1",
		Content: "Application accepted",
		Type:    models.MessageTypeSystem,
	}, 60)
	if !strings.Contains(system, "Application accepted") {
		t.Errorf("system line missing:\n%s", system)
	}
}
