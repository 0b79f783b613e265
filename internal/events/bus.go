package events

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Publisher is the write side of the bus, the only part the engine's
// services depend on.
type Publisher interface {
	Publish(event Event)
}

// Bus is a minimal in-process topic bus. Subscribers receive events on a
// buffered channel; a subscriber that falls behind its buffer loses events
// and the drop is logged, so a slow consumer can never block a scheduled
// pass or an allocation request.
type Bus struct {
	mutex       sync.RWMutex
	subscribers map[string][]chan Event
	bufferSize  int
}

// NewBus creates a bus whose subscriber channels hold bufferSize pending
// events each.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Bus{
		subscribers: make(map[string][]chan Event),
		bufferSize:  bufferSize,
	}
}

// Subscribe returns a channel receiving every event published on the topic.
func (b *Bus) Subscribe(topic string) <-chan Event {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	ch := make(chan Event, b.bufferSize)
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	return ch
}

// Publish delivers the event to every subscriber of its topic without
// blocking the publisher.
func (b *Bus) Publish(event Event) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	for _, ch := range b.subscribers[event.Topic()] {
		select {
		case ch <- event:
		default:
			log.Warn().
				Str("topic", event.Topic()).
				Msg("Event dropped: subscriber buffer full")
		}
	}
}
