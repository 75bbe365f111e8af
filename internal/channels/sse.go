package channels

import (
	"sync"

	"github.com/chronos-ua/chronos-backend/internal/notify"
)

const sseBuffer = 8

// SSEBroker routes notifications to server-sent-event streams. Subscriptions
// live for the process lifetime only; a restart drops them all and clients
// reconnect.
type SSEBroker struct {
	mu sync.RWMutex
	// userID -> channel names the user listens on
	subscriptions map[string]map[string]struct{}
	// channel name -> open streams
	streams map[string]map[chan notify.Payload]struct{}
}

func NewSSEBroker() *SSEBroker {
	return &SSEBroker{
		subscriptions: make(map[string]map[string]struct{}),
		streams:       make(map[string]map[chan notify.Payload]struct{}),
	}
}

// Subscribe opens a stream on the channel. The caller must Unsubscribe when
// the connection closes.
func (b *SSEBroker) Subscribe(channel string) chan notify.Payload {
	ch := make(chan notify.Payload, sseBuffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.streams[channel] == nil {
		b.streams[channel] = make(map[chan notify.Payload]struct{})
	}
	b.streams[channel][ch] = struct{}{}

	return ch
}

func (b *SSEBroker) Unsubscribe(channel string, ch chan notify.Payload) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if streams, ok := b.streams[channel]; ok {
		if _, ok := streams[ch]; ok {
			delete(streams, ch)
			close(ch)
		}
		if len(streams) == 0 {
			delete(b.streams, channel)
		}
	}
}

// AddSubscription records that the user listens on the channel.
func (b *SSEBroker) AddSubscription(userID, channel string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subscriptions[userID] == nil {
		b.subscriptions[userID] = make(map[string]struct{})
	}
	b.subscriptions[userID][channel] = struct{}{}
}

func (b *SSEBroker) RemoveSubscription(userID, channel string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subs, ok := b.subscriptions[userID]; ok {
		delete(subs, channel)
		if len(subs) == 0 {
			delete(b.subscriptions, userID)
		}
	}
}

// HasSubscription reports whether the user has at least one open SSE
// subscription.
func (b *SSEBroker) HasSubscription(userID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscriptions[userID]) > 0
}

// Emit delivers the payload to every stream on the channel. Streams that
// cannot keep up are skipped rather than blocking the sender.
func (b *SSEBroker) Emit(channel string, payload notify.Payload) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.streams[channel] {
		select {
		case ch <- payload:
		default:
		}
	}
}
