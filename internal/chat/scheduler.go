package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/crewlink/crewlink/internal/logging"
)

// Scheduler errors.
var (
	ErrSchedulerAlreadyRunning = errors.New("scheduler already running")
)

// SchedulerConfig contains the polling cadences.
type SchedulerConfig struct {
	// ConversationInterval is how often the conversation list is
	// refetched. Default: 60s.
	ConversationInterval time.Duration

	// MessageInterval is how often the open conversation's messages are
	// refetched. Default: 60s. Only runs while a conversation is open
	// and the user is not composing.
	MessageInterval time.Duration

	// UnreadInterval is how often the unread count is refetched.
	// Default: 30s. Runs regardless of navigation state.
	UnreadInterval time.Duration
}

// DefaultSchedulerConfig returns the baseline cadences.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		ConversationInterval: 60 * time.Second,
		MessageInterval:      60 * time.Second,
		UnreadInterval:       30 * time.Second,
	}
}

// SchedulerHooks are the refresh callbacks the scheduler drives. All
// three are silent refreshes; failures are the callee's to log.
type SchedulerHooks struct {
	RefreshConversations func(ctx context.Context)
	RefreshMessages      func(ctx context.Context, conversationID string)
	RefreshUnread        func(ctx context.Context)
}

// Scheduler owns the three polling timers. It is the only source of
// unsolicited background work in the client; every timer dies with the
// surface that created it and stopping twice is a no-op.
type Scheduler struct {
	config SchedulerConfig
	hooks  SchedulerHooks
	logger zerolog.Logger

	mu               sync.Mutex
	running          bool
	ctx              context.Context
	cancel           context.CancelFunc
	wg               sync.WaitGroup
	openConversation string
	typing           bool
	suspended        bool
}

// NewScheduler creates a Scheduler. Zero intervals fall back to the
// defaults.
func NewScheduler(config SchedulerConfig, hooks SchedulerHooks) *Scheduler {
	defaults := DefaultSchedulerConfig()
	if config.ConversationInterval <= 0 {
		config.ConversationInterval = defaults.ConversationInterval
	}
	if config.MessageInterval <= 0 {
		config.MessageInterval = defaults.MessageInterval
	}
	if config.UnreadInterval <= 0 {
		config.UnreadInterval = defaults.UnreadInterval
	}

	return &Scheduler{
		config: config,
		hooks:  hooks,
		logger: logging.Component("poll-scheduler"),
	}
}

// Start begins the polling loops.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSchedulerAlreadyRunning
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.logger.Info().
		Dur("conversation_interval", s.config.ConversationInterval).
		Dur("message_interval", s.config.MessageInterval).
		Dur("unread_interval", s.config.UnreadInterval).
		Msg("poll scheduler starting")

	s.wg.Add(3)
	go s.runLoop(s.config.ConversationInterval, s.conversationTick)
	go s.runLoop(s.config.MessageInterval, s.messageTick)
	go s.runLoop(s.config.UnreadInterval, s.unreadTick)

	return nil
}

// Stop halts all polling loops. Stopping a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.logger.Info().Msg("poll scheduler stopping")
	s.cancel()
	s.running = false
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info().Msg("poll scheduler stopped")
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// OpenConversation points the message timer at a conversation. An empty
// id stops message polling (conversation closed).
func (s *Scheduler) OpenConversation(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openConversation = conversationID
}

// SetTyping suspends message polling while the user is composing, so a
// refresh never clobbers in-progress input. Polling resumes on the next
// tick after the flag clears; no out-of-band fetch is triggered.
func (s *Scheduler) SetTyping(typing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.typing = typing
}

// Typing reports whether message polling is currently suspended for
// composing.
func (s *Scheduler) Typing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typing
}

// Suspend pauses all polling, used when the UI loses focus or
// visibility. Resume lifts it; the next due tick fires normally.
func (s *Scheduler) Suspend() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suspended = true
}

// Resume lifts a Suspend.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suspended = false
}

func (s *Scheduler) runLoop(interval time.Duration, tick func(ctx context.Context)) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			tick(s.ctx)
		}
	}
}

func (s *Scheduler) conversationTick(ctx context.Context) {
	s.mu.Lock()
	skip := s.suspended
	s.mu.Unlock()
	if skip || s.hooks.RefreshConversations == nil {
		return
	}
	s.hooks.RefreshConversations(ctx)
}

func (s *Scheduler) messageTick(ctx context.Context) {
	s.mu.Lock()
	id := s.openConversation
	skip := s.suspended || s.typing || id == ""
	s.mu.Unlock()
	if skip || s.hooks.RefreshMessages == nil {
		return
	}
	s.hooks.RefreshMessages(ctx, id)
}

func (s *Scheduler) unreadTick(ctx context.Context) {
	s.mu.Lock()
	skip := s.suspended
	s.mu.Unlock()
	if skip || s.hooks.RefreshUnread == nil {
		return
	}
	s.hooks.RefreshUnread(ctx)
}
