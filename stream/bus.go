// Package stream fans session events out to any number of subscribers
// (websocket clients, recorders). Slow subscribers drop events rather than
// stall the publisher.
package stream

import (
	"sync"
)

const (
	EventCandle         = "candle"
	EventRegime         = "regime"
	EventAccount        = "account"
	EventPositionOpened = "position_opened"
	EventPositionClosed = "position_closed"
	EventSnapshot       = "snapshot"
)

type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Publisher accepts events.
type Publisher interface {
	Publish(Event)
}

type Bus struct {
	mu      sync.RWMutex
	subs    map[chan Event]struct{}
	bufSize int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[chan Event]struct{}), bufSize: 100}
}

func (b *Bus) Subscribe() chan Event {
	ch := make(chan Event, b.bufSize)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	for ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.RUnlock()
}

func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Discard is a Publisher that drops everything.
type Discard struct{}

func (Discard) Publish(Event) {}
