// Package broadcast pushes lantern state to connected clients.
package broadcast

import (
	"context"
	"encoding/json"
	"sync"

	"lantern-backend/internal/observability/metrics"
)

// Event names pushed to clients.
const (
	EventStations = "lantern.stations"
	EventRound    = "lantern.round"
	EventTeams    = "lantern.teams"
)

// Emitter pushes an event to every connected client. Delivery is fire-and-forget.
type Emitter interface {
	Emit(ctx context.Context, event string, payload any)
}

// Message is one encoded event.
type Message struct {
	Event string
	Data  []byte
}

// Broker fans out events to subscribed clients.
type Broker struct {
	mu      sync.RWMutex
	clients map[chan Message]struct{}
	buffer  int
}

// NewBroker constructs a broker.
func NewBroker() *Broker {
	return &Broker{clients: make(map[chan Message]struct{}), buffer: 16}
}

// Emit implements Emitter.
func (b *Broker) Emit(_ context.Context, event string, payload any) {
	if b == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	b.Publish(event, data)
}

// Publish delivers pre-encoded data. Slow clients drop messages instead of blocking.
func (b *Broker) Publish(event string, data []byte) {
	if b == nil {
		return
	}
	metrics.IncBroadcast(event)
	msg := Message{Event: event, Data: data}
	// channels are only closed under the write lock
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Subscribe registers a new client channel.
func (b *Broker) Subscribe() chan Message {
	if b == nil {
		return nil
	}
	ch := make(chan Message, b.buffer)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a client channel.
func (b *Broker) Unsubscribe(ch chan Message) {
	if b == nil || ch == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[ch]; ok {
		delete(b.clients, ch)
		close(ch)
	}
}

// Clients returns the number of subscribed clients.
func (b *Broker) Clients() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Nop discards every event.
type Nop struct{}

// Emit implements Emitter.
func (Nop) Emit(context.Context, string, any) {}
