package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusFanOut(t *testing.T) {
	b := NewBus()
	a := b.Subscribe()
	c := b.Subscribe()
	assert.Equal(t, 2, b.Subscribers())

	b.Publish(Event{Type: EventCandle, Data: 1})

	for _, ch := range []chan Event{a, c} {
		select {
		case evt := <-ch:
			assert.Equal(t, EventCandle, evt.Type)
			assert.Equal(t, 1, evt.Data)
		default:
			t.Fatal("event not delivered")
		}
	}
}

func TestBusDropsWhenFull(t *testing.T) {
	b := NewBus()
	ch := b.Subscribe()

	for i := 0; i < b.bufSize+10; i++ {
		b.Publish(Event{Type: EventCandle, Data: i})
	}
	assert.Len(t, ch, b.bufSize)

	first := <-ch
	assert.Equal(t, 0, first.Data)
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	b := NewBus()
	ch := b.Subscribe()
	b.Unsubscribe(ch)
	b.Unsubscribe(ch)

	_, ok := <-ch
	require.False(t, ok)
	assert.Zero(t, b.Subscribers())

	b.Publish(Event{Type: EventRegime})
	Discard{}.Publish(Event{})
}
