package nav

import (
	"testing"
)

func TestTransition_OpenVariants(t *testing.T) {
	// Open without an id lands on the list.
	got := Transition(State{}, Command{Kind: Open})
	if got.Mode != ListOnly || got.ConversationID != "" {
		t.Fatalf("open: %+v", got)
	}

	// Open with an id deep-links straight into the chat.
	got = Transition(State{}, Command{Kind: Open, ConversationID: "conv-1"})
	if got.Mode != ChatOnly || got.ConversationID != "conv-1" {
		t.Fatalf("deep link: %+v", got)
	}

	// Re-opening while already open resets instead of stacking.
	got = Transition(State{Mode: ListAndChat, ConversationID: "conv-1"}, Command{Kind: Open, ConversationID: "conv-2"})
	if got.Mode != ChatOnly || got.ConversationID != "conv-2" {
		t.Fatalf("re-open: %+v", got)
	}
}

func TestTransition_SelectConversation(t *testing.T) {
	got := Transition(State{Mode: ListOnly}, Command{Kind: Select, ConversationID: "conv-1"})
	if got.Mode != ListAndChat || got.ConversationID != "conv-1" {
		t.Fatalf("select from list: %+v", got)
	}

	// Selecting another conversation swaps the open chat.
	got = Transition(got, Command{Kind: Select, ConversationID: "conv-2"})
	if got.Mode != ListAndChat || got.ConversationID != "conv-2" {
		t.Fatalf("select swap: %+v", got)
	}

	// From a deep-linked chat, select swaps without growing a list.
	got = Transition(State{Mode: ChatOnly, ConversationID: "conv-1"}, Command{Kind: Select, ConversationID: "conv-2"})
	if got.Mode != ChatOnly || got.ConversationID != "conv-2" {
		t.Fatalf("select in chat-only: %+v", got)
	}

	// Select without an id is a no-op.
	before := State{Mode: ListOnly}
	if got := Transition(before, Command{Kind: Select}); got != before {
		t.Fatalf("empty select changed state: %+v", got)
	}

	// Select while closed is a no-op; the messenger must be opened first.
	if got := Transition(State{}, Command{Kind: Select, ConversationID: "conv-1"}); got.Mode != Closed {
		t.Fatalf("select while closed: %+v", got)
	}
}

func TestTransition_CloseSurfaces(t *testing.T) {
	full := State{Mode: ListAndChat, ConversationID: "conv-1"}

	got := Transition(full, Command{Kind: CloseList})
	if got.Mode != ChatOnly || got.ConversationID != "conv-1" {
		t.Fatalf("close list from both: %+v", got)
	}

	got = Transition(full, Command{Kind: CloseChat})
	if got.Mode != ListOnly || got.ConversationID != "" {
		t.Fatalf("close chat from both: %+v", got)
	}

	// Back behaves like closing the chat surface.
	got = Transition(full, Command{Kind: Back})
	if got.Mode != ListOnly {
		t.Fatalf("back from both: %+v", got)
	}

	// Back out of a deep link closes everything; there is no list layer
	// underneath to fall back to.
	got = Transition(State{Mode: ChatOnly, ConversationID: "conv-1"}, Command{Kind: Back})
	if got.Mode != Closed || got.ConversationID != "" {
		t.Fatalf("back from deep link: %+v", got)
	}

	got = Transition(State{Mode: ListOnly}, Command{Kind: CloseList})
	if got.Mode != Closed {
		t.Fatalf("close list from list-only: %+v", got)
	}
}

// From any reachable state, closing both surfaces in either order ends
// Closed, and no close command ever produces a state with a dangling
// conversation id.
func TestTransition_ClosureFromEveryState(t *testing.T) {
	states := []State{
		{},
		{Mode: ListOnly},
		{Mode: ChatOnly, ConversationID: "conv-1"},
		{Mode: ListAndChat, ConversationID: "conv-1"},
	}
	orders := [][]CommandKind{
		{CloseList, CloseChat},
		{CloseChat, CloseList},
	}

	for _, start := range states {
		for _, order := range orders {
			s := start
			for _, kind := range order {
				s = Transition(s, Command{Kind: kind})
				if !s.ChatOpen() && s.ConversationID != "" {
					t.Fatalf("dangling conversation id from %+v via %v: %+v", start, order, s)
				}
			}
			if s.Mode != Closed {
				t.Fatalf("from %+v via %v: ended %+v, want closed", start, order, s)
			}
		}

		if got := Transition(start, Command{Kind: CloseAll}); got.Mode != Closed || got.ConversationID != "" {
			t.Fatalf("close all from %+v: %+v", start, got)
		}
	}
}

// Opening with an id always yields a state where that id is the active
// chat, regardless of the starting state.
func TestTransition_OpenAlwaysActivatesConversation(t *testing.T) {
	states := []State{
		{},
		{Mode: ListOnly},
		{Mode: ChatOnly, ConversationID: "other"},
		{Mode: ListAndChat, ConversationID: "other"},
	}
	for _, start := range states {
		got := Transition(start, Command{Kind: Open, ConversationID: "conv-9"})
		if !got.ChatOpen() || got.ConversationID != "conv-9" {
			t.Fatalf("open from %+v: %+v", start, got)
		}
	}
}

func TestMachine_DispatchAndUpdates(t *testing.T) {
	m := NewMachine()
	if m.Current().Mode != Closed {
		t.Fatal("new machine must start closed")
	}

	got := m.Dispatch(Command{Kind: Open})
	if got.Mode != ListOnly {
		t.Fatalf("dispatch open: %+v", got)
	}
	select {
	case s := <-m.Updates():
		if s.Mode != ListOnly {
			t.Fatalf("update: %+v", s)
		}
	default:
		t.Fatal("expected an update after a state change")
	}

	// A no-op command publishes nothing.
	m.Dispatch(Command{Kind: CloseChat})
	select {
	case s := <-m.Updates():
		t.Fatalf("unexpected update for no-op command: %+v", s)
	default:
	}
}

func TestMachine_UpdatesNeverBlockDispatch(t *testing.T) {
	m := NewMachine()

	// Nobody is draining the channel; flipping state well past the
	// buffer size must still return promptly.
	for i := 0; i < 100; i++ {
		m.Dispatch(Command{Kind: Open, ConversationID: "conv-1"})
		m.Dispatch(Command{Kind: CloseAll})
	}
	if m.Current().Mode != Closed {
		t.Fatalf("final state: %+v", m.Current())
	}

	// The most recent change is still observable.
	var last State
	for {
		select {
		case s := <-m.Updates():
			last = s
			continue
		default:
		}
		break
	}
	if last.Mode != Closed {
		t.Fatalf("newest buffered update: %+v", last)
	}
}
