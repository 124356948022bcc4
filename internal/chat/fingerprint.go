package chat

import (
	"strconv"
	"strings"
	"time"

	"github.com/crewlink/crewlink/internal/models"
)

// Fingerprints are cheap ordered summaries of a fetched collection. Two
// identical fingerprints mean the refresh carried no real change and the
// store must keep its current snapshot untouched, so dependent views
// skip recomputation.

func conversationFingerprint(convs []models.Conversation) string {
	var b strings.Builder
	for _, c := range convs {
		b.WriteString(c.ID)
		b.WriteByte(':')
		if c.LastMessage != nil {
			b.WriteString(strconv.FormatInt(c.LastMessage.CreatedAt.UnixNano(), 10))
		}
		b.WriteByte(';')
	}
	return b.String()
}

func messageFingerprint(msgs []models.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(m.ID)
		b.WriteByte(':')
		b.WriteString(strconv.FormatInt(m.CreatedAt.UnixNano(), 10))
		b.WriteByte(';')
	}
	return b.String()
}

func newestConversationActivity(convs []models.Conversation) time.Time {
	var newest time.Time
	for _, c := range convs {
		if c.UpdatedAt.After(newest) {
			newest = c.UpdatedAt
		}
	}
	return newest
}

func newestMessageActivity(msgs []models.Message) time.Time {
	var newest time.Time
	for _, m := range msgs {
		if m.CreatedAt.After(newest) {
			newest = m.CreatedAt
		}
	}
	return newest
}
