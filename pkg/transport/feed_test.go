package transport

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeed_SubscribeStartsWithCurrent(t *testing.T) {
	f := NewFeed(StatusInitializing)
	ch, cancel := f.Subscribe()
	defer cancel()

	assert.Equal(t, StatusInitializing, <-ch)

	assert.True(t, f.Set(StatusConnecting))
	assert.False(t, f.Set(StatusConnecting))
	assert.True(t, f.Set(StatusConnected))

	assert.Equal(t, StatusConnecting, <-ch)
	assert.Equal(t, StatusConnected, <-ch)
	assert.Equal(t, StatusConnected, f.Status())
}

func TestFeed_CompareAndSet(t *testing.T) {
	f := NewFeed(StatusConnected)
	assert.False(t, f.CompareAndSet(StatusConnecting, StatusInitializing))
	assert.True(t, f.CompareAndSet(StatusLinked, StatusConnected, StatusConnecting))
	assert.Equal(t, StatusLinked, f.Status())
}

func TestFeed_CompareAndSetNeverOverwritesClose(t *testing.T) {
	for i := 0; i < 2000; i++ {
		f := NewFeed(StatusConnected)
		start := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			f.CompareAndSet(StatusLinked, StatusConnected)
		}()
		go func() {
			defer wg.Done()
			<-start
			f.Set(StatusClosed)
		}()
		close(start)
		wg.Wait()
		require.Equal(t, StatusClosed, f.Status(), "run %d", i)
	}

	f := NewFeed(StatusConnected)
	assert.True(t, f.Set(StatusClosed))
	assert.False(t, f.CompareAndSet(StatusLinked, StatusConnected))
	assert.Equal(t, StatusClosed, f.Status())
}

func TestFeed_CancelledSubscriberDoesNotBlock(t *testing.T) {
	f := NewFeed(StatusInitializing)
	_, cancel := f.Subscribe()
	cancel()
	cancel()

	for i := 0; i < feedBuffer*2; i++ {
		if i%2 == 0 {
			f.Set(StatusConnecting)
		} else {
			f.Set(StatusConnected)
		}
	}
	require.Equal(t, StatusConnected, f.Status())
}

func TestStatus_KnownAndTerminal(t *testing.T) {
	assert.True(t, StatusLinked.Known())
	assert.False(t, Status("exploded").Known())
	assert.True(t, StatusClosed.Terminal())
	assert.True(t, StatusErrored.Terminal())
	assert.False(t, StatusConnected.Terminal())
}
