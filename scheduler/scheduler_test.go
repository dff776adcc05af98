package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryRejectsSubSecond(t *testing.T) {
	s := New(nil)
	assert.Error(t, s.Every("tick", 500*time.Millisecond, func() {}))
	assert.NoError(t, s.Every("tick", time.Second, func() {}))
}

func TestStartStop(t *testing.T) {
	s := New(nil)
	var n atomic.Int32
	require.NoError(t, s.Every("tick", time.Second, func() { n.Add(1) }))

	s.Start()
	s.Start()
	assert.True(t, s.Running())
	assert.ErrorIs(t, s.Every("late", time.Second, func() {}), ErrRunning)

	assert.Eventually(t, func() bool { return n.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	require.NoError(t, s.Stop(context.Background()))
	assert.False(t, s.Running())

	after := n.Load()
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, after, n.Load())

	assert.NoError(t, s.Stop(context.Background()))
}

func TestStopWaitsForInFlightJob(t *testing.T) {
	s := New(nil)
	started := make(chan struct{})
	var finished atomic.Bool
	require.NoError(t, s.Every("slow", time.Second, func() {
		select {
		case <-started:
			return
		default:
		}
		close(started)
		time.Sleep(200 * time.Millisecond)
		finished.Store(true)
	}))

	s.Start()
	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job never ran")
	}

	require.NoError(t, s.Stop(context.Background()))
	assert.True(t, finished.Load())
}

func TestStopHonoursContext(t *testing.T) {
	s := New(nil)
	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, s.Every("stuck", time.Second, func() {
		select {
		case <-started:
			return
		default:
		}
		close(started)
		<-release
	}))

	s.Start()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Stop(ctx), context.DeadlineExceeded)
	close(release)
}
