// Package relay fans decoded tunnel frames out to WebSocket subscribers and
// exposes health and status endpoints.
package relay

import (
	"sync"
	"sync/atomic"
)

const subscriberBufSize = 256

// Broker fans out frames to all subscribers. It implements ports.FrameSink.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[int64]chan []byte
	nextID      atomic.Int64
	published   atomic.Uint64
	dropped     atomic.Uint64
}

// NewBroker creates a new frame broker.
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[int64]chan []byte),
	}
}

// Subscribe registers a new client. Returns the subscriber ID and a channel
// to receive frames on. The channel is buffered; slow consumers will have
// frames dropped.
func (b *Broker) Subscribe() (int64, <-chan []byte) {
	id := b.nextID.Add(1)
	ch := make(chan []byte, subscriberBufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broker) Unsubscribe(id int64) {
	b.mu.Lock()
	ch, ok := b.subscribers[id]
	if ok {
		delete(b.subscribers, id)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish sends a frame to all subscribers without blocking.
func (b *Broker) Publish(payload []byte) {
	b.published.Add(1)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- payload:
		default:
			b.dropped.Add(1)
		}
	}
}

// ClientCount returns the number of active subscribers.
func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// BrokerStats counts broker activity.
type BrokerStats struct {
	Clients   int    `json:"clients"`
	Published uint64 `json:"published"`
	Dropped   uint64 `json:"dropped"`
}

// Stats returns a snapshot of the broker counters.
func (b *Broker) Stats() BrokerStats {
	return BrokerStats{
		Clients:   b.ClientCount(),
		Published: b.published.Load(),
		Dropped:   b.dropped.Load(),
	}
}
