package ports

import (
	"context"
	"time"
)

// EventType classifies registry events.
type EventType string

const (
	EventTypeURLRegistered       EventType = "url.registered"
	EventTypeDatasetPublished    EventType = "dataset.published"
	EventTypeConversionRequested EventType = "conversion.requested"
	EventTypeConversionCompleted EventType = "conversion.completed"
	EventTypeConversionFailed    EventType = "conversion.failed"
	EventTypeViewCompleted       EventType = "view.completed"
)

// Event carries registry activity metadata. Events describe what
// happened to a URL, never dataset payload bytes.
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	URL       string                 `json:"url"`
	MimeType  string                 `json:"mime_type,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// EventHandler processes a single event.
type EventHandler func(ctx context.Context, event Event) error

// EventBus publishes and delivers registry events by topic.
type EventBus interface {
	Publish(ctx context.Context, topic string, event Event) error
	Subscribe(ctx context.Context, topic string, handler EventHandler) error
	Unsubscribe(ctx context.Context, topic string) error
	Close() error
}
