package chat

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/crewlink/crewlink/internal/logging"
	"github.com/crewlink/crewlink/internal/models"
)

// ConversationStore holds the session's conversation list. Snapshots are
// replaced wholesale and never mutated in place, so callers may hold the
// returned slice across refreshes.
type ConversationStore struct {
	api    ConversationAPI
	logger zerolog.Logger

	mu          sync.Mutex
	list        []models.Conversation
	fingerprint string
	newest      time.Time
	generation  uint64
	loading     bool
	refreshSeq  uint64
	appliedSeq  uint64
}

// NewConversationStore creates an empty store backed by api.
func NewConversationStore(api ConversationAPI) *ConversationStore {
	return &ConversationStore{
		api:    api,
		logger: logging.Component("conversation-store"),
	}
}

// Refresh refetches the conversation list. A snapshot whose fingerprint
// matches the stored one leaves the store untouched. Errors leave the
// previous snapshot in place; background callers are expected to log and
// retry on the next tick.
func (s *ConversationStore) Refresh(ctx context.Context, mode RefreshMode) error {
	s.mu.Lock()
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

	fetched, err := s.api.Conversations(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("conversation refresh failed, keeping snapshot")
		return err
	}

	s.apply(seq, fetched)
	return nil
}

func (s *ConversationStore) apply(seq uint64, fetched []models.Conversation) {
	fingerprint := conversationFingerprint(fetched)
	newest := newestConversationActivity(fetched)

	s.mu.Lock()
	defer s.mu.Unlock()

	if fingerprint == s.fingerprint {
		s.appliedSeq = seq
		return
	}

	// Out-of-order completion: a refresh that started earlier finished
	// after a later one already applied. Last write wins by activity
	// timestamp, not by arrival order.
	if seq < s.appliedSeq && newest.Before(s.newest) {
		s.logger.Debug().Msg("dropping stale conversation snapshot")
		return
	}

	s.list = fetched
	s.fingerprint = fingerprint
	s.newest = newest
	s.generation++
	s.appliedSeq = seq
}

// Conversations returns the current snapshot. The slice is shared and
// must not be mutated.
func (s *ConversationStore) Conversations() []models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list
}

// Conversation looks up a conversation by id, returning ErrNotFound when
// it is not in the current snapshot.
func (s *ConversationStore) Conversation(id string) (models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.list {
		if c.ID == id {
			return c, nil
		}
	}
	return models.Conversation{}, ErrNotFound
}

// Remove drops a conversation from the snapshot, used when the server
// reports it gone (stale-state 404).
func (s *ConversationStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.list {
		if c.ID == id {
			next := make([]models.Conversation, 0, len(s.list)-1)
			next = append(next, s.list[:i]...)
			next = append(next, s.list[i+1:]...)
			s.list = next
			s.fingerprint = conversationFingerprint(next)
			s.newest = newestConversationActivity(next)
			s.generation++
			return
		}
	}
}

// Loading reports whether a visible refresh is in flight. Advisory only;
// it is not a lock.
func (s *ConversationStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Generation increments whenever the snapshot is replaced. Dependent
// views compare generations to skip re-rendering on no-op refreshes.
func (s *ConversationStore) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}
