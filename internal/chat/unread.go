package chat

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/crewlink/crewlink/internal/logging"
)

// UnreadCounter tracks the aggregate unread count. It is
// stale-while-revalidate: the last-known count stays available during a
// refresh, and a failed refresh keeps the previous value. The count is a
// non-critical indicator; errors are never surfaced to the user.
type UnreadCounter struct {
	api    UnreadAPI
	logger zerolog.Logger

	mu    sync.Mutex
	count int
}

// NewUnreadCounter creates a counter backed by api.
func NewUnreadCounter(api UnreadAPI) *UnreadCounter {
	return &UnreadCounter{
		api:    api,
		logger: logging.Component("unread-counter"),
	}
}

// Refresh refetches the count. On error the previous value is returned
// alongside the error so callers can keep rendering it.
func (u *UnreadCounter) Refresh(ctx context.Context) (int, error) {
	count, err := u.api.UnreadCount(ctx)
	if err != nil {
		u.logger.Debug().Err(err).Msg("unread refresh failed, keeping count")
		return u.Count(), err
	}

	u.mu.Lock()
	u.count = count
	u.mu.Unlock()
	return count, nil
}

// Count returns the last-known value immediately.
func (u *UnreadCounter) Count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.count
}
