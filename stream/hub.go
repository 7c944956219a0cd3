package stream

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultQueueCapacity bounds each subscriber's outbound queue. A client
// that falls this far behind is disconnected rather than allowed to grow
// the queue or delay its siblings.
const DefaultQueueCapacity = 256

// Hub is the in-process broadcast fan-out, keyed by stream id. One instance
// lives for the whole process and is injected wherever events are produced
// or consumed.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Subscriber]struct{}
	capacity    int
	logger      *slog.Logger
}

func NewHub(queueCapacity int, logger *slog.Logger) *Hub {
	if queueCapacity <= 0 {
		queueCapacity = DefaultQueueCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subscribers: make(map[string]map[*Subscriber]struct{}),
		capacity:    queueCapacity,
		logger:      logger,
	}
}

// Subscriber is one live connection's view of a stream. Events arrive on
// Events() in publish order until the subscriber is closed; the channel is
// closed on unsubscribe or overflow.
type Subscriber struct {
	id       uuid.UUID
	streamID string
	events   chan Event
	hub      *Hub
	closed   sync.Once
}

func (s *Subscriber) ID() uuid.UUID        { return s.id }
func (s *Subscriber) StreamID() string     { return s.streamID }
func (s *Subscriber) Events() <-chan Event { return s.events }

// Close releases the subscription. Safe to call more than once.
func (s *Subscriber) Close() {
	s.hub.Unsubscribe(s)
}

func (h *Hub) Subscribe(streamID string) *Subscriber {
	sub := &Subscriber{
		id:       uuid.New(),
		streamID: streamID,
		events:   make(chan Event, h.capacity),
		hub:      h,
	}
	h.mu.Lock()
	if h.subscribers[streamID] == nil {
		h.subscribers[streamID] = make(map[*Subscriber]struct{})
	}
	h.subscribers[streamID][sub] = struct{}{}
	count := len(h.subscribers[streamID])
	h.mu.Unlock()

	h.logger.Debug("stream subscriber added",
		slog.String("stream_id", streamID),
		slog.String("subscriber_id", sub.id.String()),
		slog.Int("stream_subscribers", count))
	return sub
}

// Unsubscribe removes the subscriber and closes its queue. Idempotent;
// future publishes simply no longer see it.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	if set, ok := h.subscribers[sub.streamID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subscribers, sub.streamID)
		}
	}
	sub.closed.Do(func() { close(sub.events) })
	h.mu.Unlock()
}

// Publish fans the event out to every subscriber of its stream id. Each
// delivery is non-blocking: a subscriber whose queue is full is forcibly
// disconnected so it can never stall the others.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	var overflowed []*Subscriber
	h.mu.RLock()
	for sub := range h.subscribers[ev.StreamID] {
		select {
		case sub.events <- ev:
		default:
			overflowed = append(overflowed, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range overflowed {
		h.logger.Warn("stream subscriber overflowed, disconnecting",
			slog.String("stream_id", sub.streamID),
			slog.String("subscriber_id", sub.id.String()))
		h.Unsubscribe(sub)
	}
}

// SubscriberCount reports how many live subscribers a stream has.
func (h *Hub) SubscriberCount(streamID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[streamID])
}
