// Package nav implements the messenger's navigation state machine: which
// surfaces (conversation list, open chat) are visible and how open,
// select, back and close transitions move between them. Cross-component
// "open this conversation" signaling goes through the machine's command
// channel; there is no ambient broadcast, so every transition is
// enumerable and testable.
package nav

import (
	"sync"
)

// Mode is the set of visible surfaces.
type Mode int

const (
	// Closed means the messenger is not shown.
	Closed Mode = iota

	// ListOnly shows the conversation list.
	ListOnly

	// ChatOnly shows one open chat with no list layer beneath it, the
	// deep-link entry state.
	ChatOnly

	// ListAndChat shows the list and an open chat side by side.
	ListAndChat
)

func (m Mode) String() string {
	switch m {
	case Closed:
		return "closed"
	case ListOnly:
		return "list"
	case ChatOnly:
		return "chat"
	case ListAndChat:
		return "list+chat"
	default:
		return "unknown"
	}
}

// State is the machine's current position. ConversationID is set exactly
// when a chat surface is visible.
type State struct {
	Mode           Mode
	ConversationID string
}

// ChatOpen reports whether a chat surface is visible.
func (s State) ChatOpen() bool {
	return s.Mode == ChatOnly || s.Mode == ListAndChat
}

// ListOpen reports whether the list surface is visible.
func (s State) ListOpen() bool {
	return s.Mode == ListOnly || s.Mode == ListAndChat
}

// CommandKind enumerates the navigation commands.
type CommandKind int

const (
	// Open opens the messenger: ListOnly without a conversation id,
	// ChatOnly with one (deep link). Re-opening while already open
	// resets to the requested surface rather than stacking.
	Open CommandKind = iota

	// Select opens a conversation next to the list.
	Select

	// CloseList closes the list surface, degrading to the open chat or
	// to Closed.
	CloseList

	// CloseChat closes the chat surface, degrading to the list or to
	// Closed.
	CloseChat

	// Back is CloseChat from a chat surface; kept distinct so callers
	// can bind it to a dedicated key.
	Back

	// CloseAll closes everything from any state.
	CloseAll
)

// Command is one navigation input.
type Command struct {
	Kind           CommandKind
	ConversationID string
}

// Transition is the pure step function. It is total: unknown or
// inapplicable commands leave the state unchanged.
func Transition(s State, c Command) State {
	switch c.Kind {
	case Open:
		if c.ConversationID != "" {
			return State{Mode: ChatOnly, ConversationID: c.ConversationID}
		}
		return State{Mode: ListOnly}

	case Select:
		if c.ConversationID == "" {
			return s
		}
		switch s.Mode {
		case ListOnly, ListAndChat:
			return State{Mode: ListAndChat, ConversationID: c.ConversationID}
		case ChatOnly:
			return State{Mode: ChatOnly, ConversationID: c.ConversationID}
		default:
			return s
		}

	case CloseList:
		switch s.Mode {
		case ListAndChat:
			return State{Mode: ChatOnly, ConversationID: s.ConversationID}
		case ListOnly:
			return State{Mode: Closed}
		default:
			return s
		}

	case CloseChat, Back:
		switch s.Mode {
		case ListAndChat:
			return State{Mode: ListOnly}
		case ChatOnly:
			// No list layer exists to fall back to.
			return State{Mode: Closed}
		default:
			return s
		}

	case CloseAll:
		return State{Mode: Closed}
	}
	return s
}

// Machine serializes commands against a current state and notifies
// subscribers of changes.
type Machine struct {
	mu      sync.Mutex
	state   State
	updates chan State
}

// NewMachine creates a machine in the Closed state.
func NewMachine() *Machine {
	return &Machine{
		updates: make(chan State, 16),
	}
}

// Current returns the machine's state.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Dispatch applies a command and returns the resulting state. A state
// change is also published on Updates; publishing never blocks, the
// newest state always wins for a consumer that fell behind.
func (m *Machine) Dispatch(c Command) State {
	m.mu.Lock()
	next := Transition(m.state, c)
	changed := next != m.state
	m.state = next
	m.mu.Unlock()

	if changed {
		select {
		case m.updates <- next:
		default:
			// Drop the oldest buffered update to make room.
			select {
			case <-m.updates:
			default:
			}
			select {
			case m.updates <- next:
			default:
			}
		}
	}
	return next
}

// Updates is the channel other components consume navigation changes
// from, e.g. the scheduler wiring that stops the message timer when the
// chat surface closes.
func (m *Machine) Updates() <-chan State {
	return m.updates
}
