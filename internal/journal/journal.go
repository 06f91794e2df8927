// Package journal records what the quoting engine did each cycle.
package journal

import (
	"context"
	"sync"
	"time"
)

const (
	EventQuote = "quote"
	EventError = "error"
)

// Event represents a journaled event.
type Event struct {
	Time        time.Time
	Type        string // EventQuote or EventError
	MarketID    string
	Description string
	Data        map[string]any
}

// Journaler appends events. The engine only writes; nothing is read back to
// drive quoting.
type Journaler interface {
	LogEvent(ctx context.Context, event Event) error
	GetEvents(ctx context.Context, eventType string, start, end time.Time) ([]Event, error)
}

// Memory keeps events in process.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) LogEvent(ctx context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// GetEvents returns events of eventType with start <= Time < end. An empty
// eventType matches every event.
func (m *Memory) GetEvents(ctx context.Context, eventType string, start, end time.Time) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, e := range m.events {
		if eventType != "" && e.Type != eventType {
			continue
		}
		if e.Time.Before(start) || !e.Time.Before(end) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
