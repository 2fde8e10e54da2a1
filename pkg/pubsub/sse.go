package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ritzau/centrality-analyzer/pkg/logging"
)

// ErrClosed is returned after the publisher has been closed
var ErrClosed = errors.New("publisher is closed")

// subscriberBuffer is the per-subscription channel size; a full channel
// drops events for that subscriber instead of blocking publishers
const subscriberBuffer = 64

// TopicConfig configures buffering behavior for a topic
type TopicConfig struct {
	BufferSize int  // Number of events to keep for late subscribers (0 = none)
	ReplayAll  bool // Replay every buffered event instead of only the last
}

type topicState struct {
	config      TopicConfig
	version     int
	buffer      []Event
	subscribers map[*sseSubscription]struct{}
}

// SSEPublisher implements Publisher for Server-Sent Event handlers
type SSEPublisher struct {
	mu     sync.Mutex
	topics map[string]*topicState
	closed bool
}

// NewSSEPublisher creates a new SSE-based publisher
func NewSSEPublisher() *SSEPublisher {
	return &SSEPublisher{topics: make(map[string]*topicState)}
}

// topic returns the state for name, creating it if needed. Callers hold p.mu.
func (p *SSEPublisher) topic(name string) *topicState {
	t, ok := p.topics[name]
	if !ok {
		t = &topicState{subscribers: make(map[*sseSubscription]struct{})}
		p.topics[name] = t
	}
	return t
}

// ConfigureTopic sets buffering configuration for a topic
func (p *SSEPublisher) ConfigureTopic(name string, config TopicConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic(name).config = config
}

// Subscribe creates a subscription and replays buffered events into it
func (p *SSEPublisher) Subscribe(ctx context.Context, name string) (Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}

	t := p.topic(name)
	sub := &sseSubscription{
		topic:     name,
		events:    make(chan Event, subscriberBuffer),
		publisher: p,
	}
	t.subscribers[sub] = struct{}{}

	replay := t.buffer
	if !t.config.ReplayAll && len(replay) > 1 {
		replay = replay[len(replay)-1:]
	}
	for _, event := range replay {
		sub.deliver(event)
	}
	if len(replay) > 0 {
		logging.Debug("replayed events to new subscriber", "topic", name, "count", len(replay))
	}

	go func() {
		<-ctx.Done()
		sub.Close()
	}()

	return sub, nil
}

// Publish sends an event to all subscribers of a topic
func (p *SSEPublisher) Publish(name string, eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	t := p.topic(name)
	t.version++
	event := Event{Topic: name, Type: eventType, Data: payload, Version: t.version}

	if size := t.config.BufferSize; size > 0 {
		t.buffer = append(t.buffer, event)
		if len(t.buffer) > size {
			t.buffer = t.buffer[len(t.buffer)-size:]
		}
	}

	for sub := range t.subscribers {
		sub.deliver(event)
	}
	return nil
}

// Close shuts down the publisher and closes every subscription channel
func (p *SSEPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	for _, t := range p.topics {
		for sub := range t.subscribers {
			sub.closeChannel()
		}
		t.subscribers = nil
	}
	return nil
}

// unsubscribe removes a subscription (called by subscription.Close())
func (p *SSEPublisher) unsubscribe(sub *sseSubscription) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t, ok := p.topics[sub.topic]; ok && t.subscribers != nil {
		if _, ok := t.subscribers[sub]; ok {
			delete(t.subscribers, sub)
			sub.closeChannel()
		}
	}
}

// sseSubscription implements Subscription. Its channel is only sent to and
// closed while the publisher lock is held.
type sseSubscription struct {
	topic     string
	events    chan Event
	publisher *SSEPublisher
	once      sync.Once
	chClosed  bool
}

func (s *sseSubscription) Topic() string {
	return s.topic
}

func (s *sseSubscription) Events() <-chan Event {
	return s.events
}

func (s *sseSubscription) Close() error {
	s.once.Do(func() {
		s.publisher.unsubscribe(s)
	})
	return nil
}

func (s *sseSubscription) deliver(event Event) {
	if s.chClosed {
		return
	}
	select {
	case s.events <- event:
	default:
		logging.Warn("subscription channel full, dropping event", "topic", s.topic, "version", event.Version)
	}
}

func (s *sseSubscription) closeChannel() {
	if !s.chClosed {
		s.chClosed = true
		close(s.events)
	}
}

// WriteSSE writes an event to an SSE response writer
// Format: "data: {json}\n\n"
func WriteSSE(w io.Writer, event Event) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = fmt.Fprintf(w, "data: %s\n\n", jsonData)
	return err
}
