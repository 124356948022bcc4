package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "session.json"))
}

func TestManager_DraftRoundTrip(t *testing.T) {
	m := newTestManager(t)

	if _, ok := m.Draft("conv-1"); ok {
		t.Fatal("unexpected draft in fresh state")
	}

	m.SetDraft(Draft{ConversationID: "conv-1", Body: "half-typed reply"})
	draft, ok := m.Draft("conv-1")
	if !ok {
		t.Fatal("draft not stored")
	}
	if draft.Body != "half-typed reply" {
		t.Fatalf("body: %q", draft.Body)
	}
	if draft.UpdatedAt.IsZero() {
		t.Fatal("UpdatedAt must be stamped")
	}

	m.DeleteDraft("conv-1")
	if _, ok := m.Draft("conv-1"); ok {
		t.Fatal("draft survived delete")
	}
}

func TestManager_EmptyDraftClears(t *testing.T) {
	m := newTestManager(t)

	m.SetDraft(Draft{ConversationID: "conv-1", Body: "text"})
	m.SetDraft(Draft{ConversationID: "conv-1", Body: "   "})
	if _, ok := m.Draft("conv-1"); ok {
		t.Fatal("blank body must clear the stored draft")
	}
}

func TestManager_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	m := New(path)
	m.SetDraft(Draft{ConversationID: "conv-1", Body: "draft body"})
	m.SetPinned([]string{"conv-2", "conv-1", "conv-2", " "})
	m.SetPreferences(Preferences{ShowTimestamps: true})
	m.SetLastConversation("conv-1")
	if err := m.SaveNow(); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded := New(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}

	draft, ok := reloaded.Draft("conv-1")
	if !ok || draft.Body != "draft body" {
		t.Fatalf("draft lost across reload: %+v ok=%v", draft, ok)
	}
	pinned := reloaded.Pinned()
	if len(pinned) != 2 || pinned[0] != "conv-1" || pinned[1] != "conv-2" {
		t.Fatalf("pinned not normalized: %v", pinned)
	}
	prefs, ok := reloaded.Preferences()
	if !ok || !prefs.ShowTimestamps {
		t.Fatalf("preferences lost: %+v ok=%v", prefs, ok)
	}
	if reloaded.LastConversation() != "conv-1" {
		t.Fatalf("last conversation: %q", reloaded.LastConversation())
	}
}

func TestManager_PreferencesUnsetUntilStored(t *testing.T) {
	m := newTestManager(t)

	if _, ok := m.Preferences(); ok {
		t.Fatal("fresh state must report no stored preferences")
	}

	m.SetPreferences(Preferences{CompactList: true})
	prefs, ok := m.Preferences()
	if !ok || !prefs.CompactList {
		t.Fatalf("stored preferences not returned: %+v ok=%v", prefs, ok)
	}
}

func TestManager_LoadMissingFileIsFresh(t *testing.T) {
	m := New(filepath.Join(t.TempDir(), "missing.json"))
	if err := m.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Snapshot().Version != CurrentVersion {
		t.Fatalf("version: %d", m.Snapshot().Version)
	}
}

func TestManager_StaleDraftsPrunedOnSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	m := New(path)
	m.SetDraft(Draft{
		ConversationID: "conv-old",
		Body:           "ancient",
		UpdatedAt:      time.Now().UTC().Add(-60 * 24 * time.Hour),
	})
	m.SetDraft(Draft{ConversationID: "conv-new", Body: "recent"})
	if err := m.SaveNow(); err != nil {
		t.Fatalf("save: %v", err)
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var persisted State
	if err := json.Unmarshal(payload, &persisted); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := persisted.Drafts["conv-old"]; ok {
		t.Fatal("stale draft persisted")
	}
	if _, ok := persisted.Drafts["conv-new"]; !ok {
		t.Fatal("fresh draft dropped")
	}
}

func TestManager_DebouncedSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	m := New(path)
	m.debounce = 10 * time.Millisecond

	m.SetDraft(Draft{ConversationID: "conv-1", Body: "text"})

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(path); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("debounced save never fired")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestManager_CloseFlushesDirtyState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	m := New(path)
	m.SetLastConversation("conv-1")

	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("state file not written on close: %v", err)
	}
}

func TestManager_SnapshotIsIsolated(t *testing.T) {
	m := newTestManager(t)
	m.SetDraft(Draft{ConversationID: "conv-1", Body: "text"})

	snap := m.Snapshot()
	snap.Drafts["conv-1"] = Draft{ConversationID: "conv-1", Body: "mutated"}

	draft, _ := m.Draft("conv-1")
	if draft.Body != "text" {
		t.Fatalf("snapshot mutation leaked into manager: %q", draft.Body)
	}
}
