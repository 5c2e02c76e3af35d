// Package sse streams reading-list changes to connected clients as Server-Sent Events.
package sse

import (
	"time"

	"github.com/listenupapp/readlist/internal/domain"
	"github.com/listenupapp/readlist/internal/readinglist"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventListApplied fires when an optimistic change becomes visible.
	EventListApplied EventType = "list.applied"
	// EventListCommitted fires once the change was persisted.
	EventListCommitted EventType = "list.committed"
	// EventListRolledBack fires when a failed change was reverted.
	EventListRolledBack EventType = "list.rolled_back"
	// EventListLoaded fires after the list was reloaded from storage.
	EventListLoaded EventType = "list.loaded"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// UserID limits delivery to one user's clients. Empty broadcasts.
	UserID string `json:"-"`
}

// ListEventData is the payload for list.* events.
type ListEventData struct {
	Op    string        `json:"op"`
	Entry *domain.Entry `json:"entry,omitempty"`
	Error string        `json:"error,omitempty"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{
		Type:      EventHeartbeat,
		Timestamp: now,
		Data:      HeartbeatEventData{ServerTime: now},
	}
}

var listEventTypes = map[readinglist.EventType]EventType{
	readinglist.EventApplied:    EventListApplied,
	readinglist.EventCommitted:  EventListCommitted,
	readinglist.EventRolledBack: EventListRolledBack,
	readinglist.EventLoaded:     EventListLoaded,
}

// NewListEvent converts a reading-list change into an event for userID.
func NewListEvent(userID string, e readinglist.Event) Event {
	t, ok := listEventTypes[e.Type]
	if !ok {
		t = EventType("list." + string(e.Type))
	}

	data := ListEventData{Op: e.Op, Entry: e.Entry}
	if e.Err != nil {
		data.Error = e.Err.Error()
	}

	return Event{
		Type:      t,
		Timestamp: time.Now(),
		Data:      data,
		UserID:    userID,
	}
}
