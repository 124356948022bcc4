package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/crewlink/crewlink/internal/logging"
	"github.com/crewlink/crewlink/internal/models"
)

// tempIDPrefix marks client-generated identifiers for optimistic
// inserts. They never reach the server.
const tempIDPrefix = "pending-"

// Sender is the optimistic send pipeline: local insert first, network
// second, reconcile or mark failed last. It never retries on its own and
// never drops typed content.
type Sender struct {
	api    MessageAPI
	store  *MessageStore
	selfID string
	logger zerolog.Logger
	now    func() time.Time
}

// NewSender creates a pipeline writing through store as the user with
// canonical id selfID.
func NewSender(api MessageAPI, store *MessageStore, selfID string) *Sender {
	return &Sender{
		api:    api,
		store:  store,
		selfID: selfID,
		logger: logging.Component("send-pipeline"),
		now:    time.Now,
	}
}

// Send delivers content to the conversation. The optimistic entry is
// visible before the network round trip; on failure it is flagged failed
// and the returned message carries the typed content for recovery. The
// returned error is nil only when the server confirmed the message.
func (p *Sender) Send(ctx context.Context, conversationID, content string) (models.Message, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return models.Message{}, ErrEmptyMessage
	}

	optimistic := models.Message{
		ID:             tempIDPrefix + uuid.NewString(),
		ConversationID: conversationID,
		Sender:         models.UserRef{Raw: p.selfID},
		Content:        trimmed,
		Type:           models.MessageTypeText,
		CreatedAt:      p.now(),
		SendState:      models.SendPending,
	}
	p.store.AppendOptimistic(optimistic)

	confirmed, err := p.api.SendMessage(ctx, conversationID, trimmed, models.MessageTypeText)
	if err != nil {
		p.logger.Warn().Err(err).Str("conversation_id", conversationID).Msg("send failed")
		p.store.MarkFailed(optimistic.ID)
		optimistic.SendState = models.SendFailed
		return optimistic, fmt.Errorf("send message: %w", err)
	}

	p.store.ReconcileSent(optimistic.ID, confirmed)
	confirmed.SendState = models.SendConfirmed
	return confirmed, nil
}

// Retry removes a failed entry and sends its content again as a fresh
// submission. It is the only path by which a failed message leaves the
// transcript.
func (p *Sender) Retry(ctx context.Context, conversationID, tempID string) (models.Message, error) {
	content, ok := p.store.TakeFailed(tempID)
	if !ok {
		return models.Message{}, ErrNotFound
	}
	return p.Send(ctx, conversationID, content)
}
