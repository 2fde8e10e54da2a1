package pubsub

import (
	"context"
	"encoding/json"
)

// Topics published by the analysis runner
const (
	TopicAnalysisStatus = "analysis_status"
	TopicCentrality     = "centrality"
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"` // e.g. "loading", "computing", "ready", "error"
	Data    json.RawMessage `json:"data"`
	Version int             `json:"version"` // per-topic sequence number
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	Topic() string

	// Events is closed when the subscription or the publisher closes
	Events() <-chan Event

	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic.
	// Context cancellation will close the subscription.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data any) error

	Close() error
}

// AnalysisStatus reports progress of an analysis run
type AnalysisStatus struct {
	State   string `json:"state"`   // loading, building, computing, ready, error
	Message string `json:"message"` // Human-readable status message
	Step    int    `json:"step"`    // Current step number (1-based)
	Total   int    `json:"total"`   // Total number of steps
	Reason  string `json:"reason,omitempty"`
}
