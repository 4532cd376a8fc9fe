// Package realtime provides the SSE alert hub for dashboard clients.
package realtime

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"patrol_server/core/domain"
	"patrol_server/core/port/out"
)

const clientBufferSize = 256 // per-connection backpressure buffer

// SSEAdapter implements out.AlertBroadcaster using Server-Sent Events.
// The patrol dashboard has no per-user channels: every connected client
// sees the same alert stream.
type SSEAdapter struct {
	clients map[chan *domain.AlertEvent]struct{}
	mu      sync.RWMutex
	log     zerolog.Logger

	// Metrics
	eventsSent    int64
	eventsDropped int64
	seqCounter    int64
}

// NewSSEAdapter creates a new SSE adapter.
func NewSSEAdapter(log zerolog.Logger) *SSEAdapter {
	return &SSEAdapter{
		clients: make(map[chan *domain.AlertEvent]struct{}),
		log:     log.With().Str("component", "sse_adapter").Logger(),
	}
}

// Subscribe registers a new client connection.
func (a *SSEAdapter) Subscribe() <-chan *domain.AlertEvent {
	a.mu.Lock()
	defer a.mu.Unlock()

	ch := make(chan *domain.AlertEvent, clientBufferSize)
	a.clients[ch] = struct{}{}

	a.log.Debug().
		Int("total_connections", len(a.clients)).
		Msg("client subscribed")

	return ch
}

// Unsubscribe removes a client connection.
func (a *SSEAdapter) Unsubscribe(ch <-chan *domain.AlertEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for c := range a.clients {
		if c == ch {
			delete(a.clients, c)
			close(c)
			break
		}
	}

	a.log.Debug().
		Int("total_connections", len(a.clients)).
		Msg("client unsubscribed")
}

// Broadcast sends an alert to every connected client. Slow clients drop
// events rather than blocking the flagging pipeline.
func (a *SSEAdapter) Broadcast(ctx context.Context, event *domain.AlertEvent) error {
	event.Seq = atomic.AddInt64(&a.seqCounter, 1)

	a.mu.RLock()
	defer a.mu.RUnlock()

	for ch := range a.clients {
		select {
		case ch <- event:
			atomic.AddInt64(&a.eventsSent, 1)
		default:
			atomic.AddInt64(&a.eventsDropped, 1)
			a.log.Warn().
				Int64("seq", event.Seq).
				Int64("item_id", event.ItemID).
				Msg("dropped alert due to full buffer")
		}
	}

	return nil
}

// ConnectedCount returns the number of connected clients.
func (a *SSEAdapter) ConnectedCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.clients)
}

// Metrics returns adapter counters.
func (a *SSEAdapter) Metrics() SSEMetrics {
	return SSEMetrics{
		Connections:   a.ConnectedCount(),
		EventsSent:    atomic.LoadInt64(&a.eventsSent),
		EventsDropped: atomic.LoadInt64(&a.eventsDropped),
	}
}

// SSEMetrics holds SSE adapter counters.
type SSEMetrics struct {
	Connections   int   `json:"connections"`
	EventsSent    int64 `json:"events_sent"`
	EventsDropped int64 `json:"events_dropped"`
}

// SSEClient represents one dashboard connection.
type SSEClient struct {
	Events <-chan *domain.AlertEvent
	Done   chan struct{}

	adapter           *SSEAdapter
	heartbeatInterval time.Duration
	closeOnce         sync.Once
}

// NewClient creates a client subscription on the adapter.
func (a *SSEAdapter) NewClient() *SSEClient {
	return &SSEClient{
		Events:            a.Subscribe(),
		Done:              make(chan struct{}),
		adapter:           a,
		heartbeatInterval: 30 * time.Second,
	}
}

// Close ends the subscription. Safe to call more than once.
func (c *SSEClient) Close() {
	c.closeOnce.Do(func() {
		close(c.Done)
		c.adapter.Unsubscribe(c.Events)
	})
}

// HeartbeatInterval returns the keep-alive interval for the connection.
func (c *SSEClient) HeartbeatInterval() time.Duration {
	return c.heartbeatInterval
}

// SerializeEvent converts an alert to the SSE data payload.
func SerializeEvent(event *domain.AlertEvent) ([]byte, error) {
	return json.Marshal(event)
}

var _ out.AlertBroadcaster = (*SSEAdapter)(nil)
