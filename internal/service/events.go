package service

import (
	"sync"
	"sync/atomic"

	"netgraph/internal/domain"
)

// EventType names a level lifecycle event
type EventType string

const (
	EventLevelLoaded  EventType = "level_loaded"
	EventLevelFailed  EventType = "level_failed"
	EventLevelDeleted EventType = "level_deleted"
)

// LevelPayload identifies the level an event is about. Counts are set on
// level_loaded, the diagnostic fields on level_failed.
type LevelPayload struct {
	Name  string                `json:"name"`
	Nodes int                   `json:"nodes,omitempty"`
	Links int                   `json:"links,omitempty"`
	Error string                `json:"error,omitempty"`
	Kind  domain.DiagnosticKind `json:"kind,omitempty"`
	Line  int                   `json:"line,omitempty"`
}

// Event is published after a level changes in the store or fails to parse
type Event struct {
	Type  EventType    `json:"type"`
	Level LevelPayload `json:"level"`
}

func loadedEvent(name string, graph *domain.Graph) Event {
	return Event{
		Type:  EventLevelLoaded,
		Level: LevelPayload{Name: name, Nodes: graph.Len(), Links: graph.LinkCount()},
	}
}

func failedEvent(name string, err error) Event {
	p := LevelPayload{Name: name, Error: err.Error()}
	if d, ok := domain.AsDiagnostic(err); ok {
		p.Kind = d.Kind
		p.Line = d.Line
	}
	return Event{Type: EventLevelFailed, Level: p}
}

func deletedEvent(name string) Event {
	return Event{Type: EventLevelDeleted, Level: LevelPayload{Name: name}}
}

// EventBus fans events out to subscriber channels without blocking. A
// subscriber whose buffer is full misses the event.
type EventBus struct {
	mu          sync.RWMutex
	subscribers []chan<- Event
	dropped     atomic.Uint64
}

// NewEventBus creates an event bus with no subscribers
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers ch for every later event
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers = append(eb.subscribers, ch)
}

// Unsubscribe stops delivery to ch. The channel is not closed.
func (eb *EventBus) Unsubscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	for i, sub := range eb.subscribers {
		if sub == ch {
			eb.subscribers = append(eb.subscribers[:i], eb.subscribers[i+1:]...)
			return
		}
	}
}

// Publish delivers event to every subscriber with room for it
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			eb.dropped.Add(1)
		}
	}
}

// Dropped counts deliveries skipped because a subscriber was full
func (eb *EventBus) Dropped() uint64 {
	return eb.dropped.Load()
}
