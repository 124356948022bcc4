package chat

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/crewlink/crewlink/internal/identity"
	"github.com/crewlink/crewlink/internal/logging"
	"github.com/crewlink/crewlink/internal/models"
)

const (
	// defaultPageLimit is how many messages a refresh fetches, newest
	// inclusive.
	defaultPageLimit = 50

	// reconcileWindow bounds the timestamp distance for matching a
	// fetched confirmed message against a still-pending optimistic one.
	reconcileWindow = 2 * time.Minute
)

// MessageStore holds the ordered message sequence of the open
// conversation plus the session-wide tombstone set. The tombstone set
// survives switching conversations; everything else resets on Open.
type MessageStore struct {
	api    MessageAPI
	logger zerolog.Logger

	mu             sync.Mutex
	conversationID string
	messages       []models.Message
	fingerprint    string
	newest         time.Time
	generation     uint64
	loading        bool
	refreshSeq     uint64
	appliedSeq     uint64

	// tombstones is the session-local "deleted for me" set. It has no
	// wire representation and is never persisted.
	tombstones map[string]struct{}
}

// NewMessageStore creates an empty store backed by api.
func NewMessageStore(api MessageAPI) *MessageStore {
	return &MessageStore{
		api:        api,
		logger:     logging.Component("message-store"),
		tombstones: make(map[string]struct{}),
	}
}

// Open switches the store to a conversation, clearing the previous
// transcript. Tombstones are kept; they are session-scoped, not
// conversation-scoped. Opening the already-open conversation is a no-op.
func (s *MessageStore) Open(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conversationID == conversationID {
		return
	}
	s.conversationID = conversationID
	s.messages = nil
	s.fingerprint = ""
	s.newest = time.Time{}
	s.refreshSeq++
	s.appliedSeq = s.refreshSeq
	s.generation++
}

// Close clears the open conversation. Subsequent refreshes for the
// closed conversation are dropped as stale.
func (s *MessageStore) Close() {
	s.Open("")
}

// ConversationID returns the open conversation, or "".
func (s *MessageStore) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// Refresh refetches the open conversation's newest page and reconciles
// it against local state: tombstoned ids are filtered out, unresolved
// optimistic entries are preserved at the tail, and a fetched confirmed
// message matching a pending one resolves it instead of duplicating it.
// A refresh for a conversation that is no longer open is dropped.
func (s *MessageStore) Refresh(ctx context.Context, conversationID string, mode RefreshMode) error {
	s.mu.Lock()
	if s.conversationID != conversationID {
		s.mu.Unlock()
		return nil
	}
	s.refreshSeq++
	seq := s.refreshSeq
	if mode == RefreshVisible {
		s.loading = true
	}
	s.mu.Unlock()

	if mode == RefreshVisible {
		defer func() {
			s.mu.Lock()
			s.loading = false
			s.mu.Unlock()
		}()
	}

	fetched, err := s.api.Messages(ctx, conversationID, 1, defaultPageLimit)
	if err != nil {
		s.logger.Warn().Err(err).Str("conversation_id", conversationID).
			Msg("message refresh failed, keeping snapshot")
		return err
	}

	s.apply(seq, conversationID, fetched)
	return nil
}

func (s *MessageStore) apply(seq uint64, conversationID string, fetched []models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The user switched or closed the conversation while the fetch was
	// in flight.
	if s.conversationID != conversationID {
		return
	}

	confirmed := make([]models.Message, 0, len(fetched))
	for _, m := range fetched {
		if _, dead := s.tombstones[m.ID]; dead {
			continue
		}
		m.SendState = models.SendConfirmed
		confirmed = append(confirmed, m)
	}
	sort.SliceStable(confirmed, func(i, j int) bool {
		return confirmed[i].CreatedAt.Before(confirmed[j].CreatedAt)
	})

	fingerprint := messageFingerprint(confirmed)
	newest := newestMessageActivity(confirmed)

	if fingerprint == s.fingerprint {
		s.appliedSeq = seq
		return
	}
	if seq < s.appliedSeq && newest.Before(s.newest) {
		s.logger.Debug().Msg("dropping stale message snapshot")
		return
	}

	// Carry unresolved optimistic entries over, in submission order. A
	// confirmed message matching a pending one is that entry's
	// resolution, not a duplicate.
	var tail []models.Message
	for _, m := range s.messages {
		if m.SendState != models.SendPending && m.SendState != models.SendFailed {
			continue
		}
		if findMatch(confirmed, m) >= 0 {
			continue
		}
		tail = append(tail, m)
	}

	s.messages = append(confirmed, tail...)
	s.fingerprint = fingerprint
	s.newest = newest
	s.generation++
	s.appliedSeq = seq
}

// findMatch locates a confirmed counterpart of an optimistic entry:
// same sender, same trimmed content, created within reconcileWindow.
func findMatch(confirmed []models.Message, pending models.Message) int {
	content := strings.TrimSpace(pending.Content)
	for i, c := range confirmed {
		if !identity.Equal(c.Sender, pending.Sender) {
			continue
		}
		if strings.TrimSpace(c.Content) != content {
			continue
		}
		delta := c.CreatedAt.Sub(pending.CreatedAt)
		if delta < 0 {
			delta = -delta
		}
		if delta <= reconcileWindow {
			return i
		}
	}
	return -1
}

// AppendOptimistic inserts a pending message at the tail, visible before
// any network round trip. An entry addressed to a conversation other
// than the open one is dropped: the send resolved after a switch and
// must not land in the wrong transcript.
func (s *MessageStore) AppendOptimistic(msg models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.ConversationID != s.conversationID {
		return
	}
	msg.SendState = models.SendPending
	s.messages = append(cloneMessages(s.messages), msg)
	s.generation++
}

// ReconcileSent replaces the optimistic entry with the server-confirmed
// message, preserving its position. If a concurrent refresh already
// resolved the entry the call is a no-op.
func (s *MessageStore) ReconcileSent(tempID string, confirmed models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	confirmed.SendState = models.SendConfirmed

	idx := s.indexLocked(tempID)
	if idx < 0 {
		return
	}
	// A concurrent refresh may have fetched the confirmed message
	// already; drop the temp entry instead of duplicating.
	if confirmed.ID != tempID && s.indexLocked(confirmed.ID) >= 0 {
		s.removeAtLocked(idx)
		return
	}

	next := cloneMessages(s.messages)
	next[idx] = confirmed
	s.messages = next
	s.generation++
}

// MarkFailed flags the optimistic entry failed. It stays visible with a
// retry affordance; it is never silently dropped.
func (s *MessageStore) MarkFailed(tempID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(tempID)
	if idx < 0 {
		return
	}
	next := cloneMessages(s.messages)
	next[idx].SendState = models.SendFailed
	s.messages = next
	s.generation++
}

// TakeFailed removes a failed entry and returns its content so the
// caller can re-populate the composer for a retry.
func (s *MessageStore) TakeFailed(tempID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(tempID)
	if idx < 0 || s.messages[idx].SendState != models.SendFailed {
		return "", false
	}
	content := s.messages[idx].Content
	s.removeAtLocked(idx)
	return content, true
}

// Tombstone hides a message for the rest of the session: it is removed
// from the current view and filtered out of every subsequent refresh.
// No server call is made.
func (s *MessageStore) Tombstone(messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tombstones[messageID] = struct{}{}
	if idx := s.indexLocked(messageID); idx >= 0 {
		s.removeAtLocked(idx)
	}
	// Invalidate the fetch fingerprint: the next refresh must rebuild
	// the filtered view even if the server payload is unchanged.
	s.fingerprint = ""
}

// Tombstoned reports whether a message id is hidden this session.
func (s *MessageStore) Tombstoned(messageID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tombstones[messageID]
	return ok
}

// Messages returns the current ordered snapshot. The slice is shared and
// must not be mutated.
func (s *MessageStore) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages
}

// Loading reports whether a visible refresh is in flight.
func (s *MessageStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Generation increments whenever the visible sequence changes.
func (s *MessageStore) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *MessageStore) indexLocked(id string) int {
	for i, m := range s.messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (s *MessageStore) removeAtLocked(idx int) {
	next := make([]models.Message, 0, len(s.messages)-1)
	next = append(next, s.messages[:idx]...)
	next = append(next, s.messages[idx+1:]...)
	s.messages = next
	s.generation++
}

// cloneMessages copies the slice so shared snapshots handed to views are
// never mutated in place.
func cloneMessages(msgs []models.Message) []models.Message {
	return append([]models.Message(nil), msgs...)
}
