// Package session persists lightweight local UI state between runs:
// per-conversation compose drafts, preferences, and the last open
// surface. Locally deleted messages are deliberately not persisted;
// deletion is a per-session view decision and a fresh session starts
// with the server's truth.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"
)

const (
	CurrentVersion = 1

	defaultDebounce = 1 * time.Second
	draftMaxAge     = 30 * 24 * time.Hour
)

// State is the on-disk session payload.
type State struct {
	Version          int              `json:"version"`
	Drafts           map[string]Draft `json:"drafts,omitempty"`            // conversation ID -> unsent compose text
	Pinned           []string         `json:"pinned,omitempty"`            // pinned conversation IDs
	Preferences      *Preferences     `json:"preferences,omitempty"`       // UI preferences, nil until first stored
	LastConversation string           `json:"last_conversation,omitempty"` // last open conversation (for session restore)
}

// Draft is the unsent compose text for one conversation.
type Draft struct {
	ConversationID string    `json:"conversation_id"`
	Body           string    `json:"body"`
	UpdatedAt      time.Time `json:"updated_at,omitempty"`
}

type Preferences struct {
	ShowTimestamps bool `json:"show_timestamps,omitempty"`
	CompactList    bool `json:"compact_list,omitempty"`
}

// Manager owns the session state file with debounced, atomic,
// flock-guarded writes.
type Manager struct {
	path     string
	lockPath string

	mu        sync.Mutex
	state     State
	dirty     bool
	timer     *time.Timer
	debounce  time.Duration
	lastWrite time.Time
}

func New(path string) *Manager {
	path = strings.TrimSpace(path)
	return &Manager{
		path:     path,
		lockPath: path + ".lock",
		state: State{
			Version: CurrentVersion,
			Drafts:  make(map[string]Draft),
		},
		debounce: defaultDebounce,
	}
}

func (m *Manager) Path() string { return m.path }

func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.path == "" {
		return nil
	}

	loaded, err := m.loadLocked()
	if err != nil {
		return err
	}
	m.state = loaded
	m.dirty = false
	return nil
}

func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneState(m.state)
}

func (m *Manager) Draft(conversationID string) (Draft, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" || len(m.state.Drafts) == 0 {
		return Draft{}, false
	}
	draft, ok := m.state.Drafts[conversationID]
	if !ok {
		return Draft{}, false
	}
	return draft, true
}

func (m *Manager) SetDraft(draft Draft) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conversationID := strings.TrimSpace(draft.ConversationID)
	if conversationID == "" {
		return
	}
	if strings.TrimSpace(draft.Body) == "" {
		// An emptied composer clears the stored draft.
		if _, ok := m.state.Drafts[conversationID]; ok {
			delete(m.state.Drafts, conversationID)
			m.markDirtyLocked()
		}
		return
	}
	if m.state.Drafts == nil {
		m.state.Drafts = make(map[string]Draft)
	}
	draft.ConversationID = conversationID
	if draft.UpdatedAt.IsZero() {
		draft.UpdatedAt = time.Now().UTC()
	}
	m.state.Drafts[conversationID] = draft
	m.markDirtyLocked()
}

func (m *Manager) DeleteDraft(conversationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" || len(m.state.Drafts) == 0 {
		return
	}
	if _, ok := m.state.Drafts[conversationID]; !ok {
		return
	}
	delete(m.state.Drafts, conversationID)
	m.markDirtyLocked()
}

func (m *Manager) Pinned() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.state.Pinned...)
}

func (m *Manager) SetPinned(ids []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Pinned = normalizeIDs(ids)
	m.markDirtyLocked()
}

// Preferences returns the stored UI preferences. The second return is
// false until SetPreferences has run once, so callers can tell "never
// stored" apart from all-false toggles.
func (m *Manager) Preferences() (Preferences, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Preferences == nil {
		return Preferences{}, false
	}
	return *m.state.Preferences, true
}

func (m *Manager) SetPreferences(p Preferences) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Preferences = &p
	m.markDirtyLocked()
}

func (m *Manager) LastConversation() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.LastConversation
}

func (m *Manager) SetLastConversation(conversationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conversationID = strings.TrimSpace(conversationID)
	if m.state.LastConversation == conversationID {
		return
	}
	m.state.LastConversation = conversationID
	m.markDirtyLocked()
}

func (m *Manager) Close() error {
	m.mu.Lock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	needsSave := m.dirty
	m.mu.Unlock()
	if !needsSave {
		return nil
	}
	return m.SaveNow()
}

func (m *Manager) SaveNow() error {
	m.mu.Lock()
	if m.path == "" {
		m.mu.Unlock()
		return nil
	}
	state := cloneState(m.state)
	m.dirty = false
	m.mu.Unlock()

	state.Version = CurrentVersion
	state = normalizeState(state, time.Now().UTC())

	if err := withFileLock(m.lockPath, func() error {
		return writeAtomicJSON(m.path, state)
	}); err != nil {
		m.mu.Lock()
		m.dirty = true
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	m.lastWrite = time.Now().UTC()
	m.mu.Unlock()
	return nil
}

func (m *Manager) markDirtyLocked() {
	m.dirty = true
	if m.path == "" {
		return
	}
	if m.timer == nil {
		m.timer = time.AfterFunc(m.debounce, func() {
			_ = m.SaveNow()
		})
		return
	}
	_ = m.timer.Reset(m.debounce)
}

func (m *Manager) loadLocked() (State, error) {
	var out State
	if err := withFileLock(m.lockPath, func() error {
		payload, err := os.ReadFile(m.path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				out = State{Version: CurrentVersion}
				return nil
			}
			return err
		}
		if len(payload) == 0 {
			out = State{Version: CurrentVersion}
			return nil
		}
		return json.Unmarshal(payload, &out)
	}); err != nil {
		return State{}, err
	}

	if out.Version <= 0 {
		out.Version = CurrentVersion
	}
	if out.Drafts == nil {
		out.Drafts = make(map[string]Draft)
	}
	return out, nil
}

func withFileLock(lockPath string, fn func() error) error {
	if strings.TrimSpace(lockPath) == "" {
		return fn()
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("lock %s: %w", lockPath, err)
	}
	defer func() {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	}()
	return fn()
}

func writeAtomicJSON(path string, state State) error {
	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func normalizeState(state State, now time.Time) State {
	if state.Drafts == nil {
		state.Drafts = make(map[string]Draft)
	}

	// Drop stale or empty drafts.
	for id, draft := range state.Drafts {
		if strings.TrimSpace(draft.Body) == "" {
			delete(state.Drafts, id)
			continue
		}
		if !draft.UpdatedAt.IsZero() && now.Sub(draft.UpdatedAt) > draftMaxAge {
			delete(state.Drafts, id)
		}
	}

	state.Pinned = normalizeIDs(state.Pinned)
	return state
}

func cloneState(state State) State {
	out := state
	if state.Drafts != nil {
		out.Drafts = make(map[string]Draft, len(state.Drafts))
		for k, v := range state.Drafts {
			out.Drafts[k] = v
		}
	}
	if len(state.Pinned) > 0 {
		out.Pinned = append([]string(nil), state.Pinned...)
	}
	if state.Preferences != nil {
		prefs := *state.Preferences
		out.Preferences = &prefs
	}
	return out
}

func normalizeIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
