package notifications

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// DefaultHistory is the number of notifications kept for Recent
const DefaultHistory = 100

// Metrics contains hub counters
type Metrics struct {
	Subscribers int   `json:"subscribers"`
	Published   int64 `json:"published"`
	Dropped     int64 `json:"dropped"`
}

// Hub fans notifications out to subscribers and keeps a bounded history.
// A subscriber that is not keeping up misses notifications rather than
// blocking the publisher.
type Hub struct {
	mu      sync.RWMutex
	subs    map[uint64]chan Notification
	nextID  uint64
	history []Notification
	limit   int
	closed  bool
	logger  *zap.Logger

	published atomic.Int64
	dropped   atomic.Int64
}

// NewHub creates a hub keeping the last history notifications
func NewHub(history int, logger *zap.Logger) *Hub {
	if history <= 0 {
		history = DefaultHistory
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:   make(map[uint64]chan Notification),
		limit:  history,
		logger: logger.With(zap.String("component", "notifications")),
	}
}

// Subscribe registers a subscriber. The returned function unsubscribes and
// closes the channel.
func (h *Hub) Subscribe(buffer int) (<-chan Notification, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Notification, buffer)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() { h.unsubscribe(id) })
	}
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// Publish records n and delivers it to every subscriber
func (h *Hub) Publish(n Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	h.history = append(h.history, n)
	if len(h.history) > h.limit {
		h.history = h.history[len(h.history)-h.limit:]
	}
	h.published.Add(1)

	for id, ch := range h.subs {
		select {
		case ch <- n:
		default:
			h.dropped.Add(1)
			h.logger.Warn("Subscriber channel full, dropping notification",
				zap.Uint64("subscriber", id),
				zap.String("notification_id", n.ID),
			)
		}
	}

	h.logger.Debug("Notification published",
		zap.String("id", n.ID),
		zap.String("event", string(n.Event)),
		zap.String("document_id", n.DocumentID),
	)
}

// Recent returns the retained notifications, oldest first
func (h *Hub) Recent() []Notification {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Notification, len(h.history))
	copy(out, h.history)
	return out
}

// Metrics returns the hub counters
func (h *Hub) Metrics() Metrics {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return Metrics{
		Subscribers: len(h.subs),
		Published:   h.published.Load(),
		Dropped:     h.dropped.Load(),
	}
}

// Close closes every subscriber channel. Later publishes are ignored.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
	h.logger.Info("Notification hub closed")
}
