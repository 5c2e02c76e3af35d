package readinglist

import "github.com/listenupapp/readlist/internal/domain"

// EventType identifies a list change.
type EventType string

const (
	// EventApplied fires after an optimistic change becomes visible.
	EventApplied EventType = "applied"
	// EventCommitted fires once the backing store accepted the change.
	EventCommitted EventType = "committed"
	// EventRolledBack fires after a failed change was reverted.
	EventRolledBack EventType = "rolled_back"
	// EventLoaded fires after a full reload.
	EventLoaded EventType = "loaded"
)

// Event describes one change. Entry is nil for loads and removals that rolled back.
type Event struct {
	Type  EventType
	Op    string
	Entry *domain.Entry
	Err   error
}

// Emitter receives list events. Emit is called without the store lock held.
type Emitter interface {
	Emit(Event)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(Event)

// Emit calls f.
func (f EmitterFunc) Emit(e Event) { f(e) }

type nopEmitter struct{}

func (nopEmitter) Emit(Event) {}
