package streamqueue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/borealis/pkg/config"
	"github.com/ajitpratap0/borealis/pkg/errors"
)

func newTestQueue(capacity int) *Queue {
	return New(config.QueueConfig{
		Capacity:    capacity,
		StopTimeout: time.Second,
	})
}

func TestQueueConsumesInFIFOOrder(t *testing.T) {
	q := newTestQueue(10)

	var mu sync.Mutex
	var got []string
	require.NoError(t, q.Start(func(raw string) {
		mu.Lock()
		got = append(got, raw)
		mu.Unlock()
	}))

	want := []string{"one", "two", "three", "four", "five"}
	for _, line := range want {
		require.NoError(t, q.Produce(line))
	}

	require.NoError(t, q.Stop())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, want, got)
}

func TestQueueDefaults(t *testing.T) {
	q := New(config.QueueConfig{})
	assert.Equal(t, 100, q.Capacity())
	assert.Equal(t, 5*time.Second, q.stopTimeout)
}

func TestQueueProducedEqualsConsumedAfterStop(t *testing.T) {
	q := newTestQueue(8)

	require.NoError(t, q.Start(func(string) {}))

	const producers = 8
	const perProducer = 25

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				assert.NoError(t, q.Produce("line"))
			}
		}()
	}
	wg.Wait()

	require.NoError(t, q.Stop())

	assert.Equal(t, int64(producers*perProducer), q.Produced())
	assert.Equal(t, q.Produced(), q.Consumed())
	assert.Equal(t, 0, q.Depth())
}

func TestQueueProduceAfterStopFails(t *testing.T) {
	q := newTestQueue(4)
	require.NoError(t, q.Start(func(string) {}))
	require.NoError(t, q.Stop())

	err := q.Produce("late")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeQueueClosed))
}

func TestQueueSecondStartFails(t *testing.T) {
	q := newTestQueue(4)
	require.NoError(t, q.Start(func(string) {}))
	defer q.Stop()

	err := q.Start(func(string) {})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAlreadyRunning))
}

func TestQueueStartAfterStopFails(t *testing.T) {
	q := newTestQueue(4)
	require.NoError(t, q.Stop())

	err := q.Start(func(string) {})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeQueueClosed))
}

func TestQueueStartRequiresProcess(t *testing.T) {
	q := newTestQueue(4)
	err := q.Start(nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestQueueStopIsIdempotent(t *testing.T) {
	q := newTestQueue(4)
	require.NoError(t, q.Start(func(string) {}))
	require.NoError(t, q.Stop())
	require.NotPanics(t, func() {
		assert.NoError(t, q.Stop())
	})
}

func TestQueueRawDataCallbackFiresInsideProduce(t *testing.T) {
	q := newTestQueue(4)

	var seen []string
	q.OnRawData(func(raw string) { seen = append(seen, raw) })

	// No consumer running: the callback still fires before Produce
	// returns, proving it is synchronous with the producer.
	require.NoError(t, q.Produce("first"))
	assert.Equal(t, []string{"first"}, seen)

	require.NoError(t, q.Produce("second"))
	assert.Equal(t, []string{"first", "second"}, seen)

	require.NoError(t, q.Stop())
}

func TestQueueRawDataCallbackSkippedOnClosedQueue(t *testing.T) {
	q := newTestQueue(4)

	calls := 0
	q.OnRawData(func(string) { calls++ })

	require.NoError(t, q.Stop())
	require.Error(t, q.Produce("late"))
	assert.Zero(t, calls)
}

func TestQueueConsumerSurvivesPanic(t *testing.T) {
	q := newTestQueue(4)

	var mu sync.Mutex
	var got []string
	require.NoError(t, q.Start(func(raw string) {
		if raw == "bad" {
			panic("corrupt line")
		}
		mu.Lock()
		got = append(got, raw)
		mu.Unlock()
	}))

	require.NoError(t, q.Produce("ok-1"))
	require.NoError(t, q.Produce("bad"))
	require.NoError(t, q.Produce("ok-2"))

	require.NoError(t, q.Stop())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"ok-1", "ok-2"}, got)
	assert.Equal(t, int64(3), q.Consumed(), "panicking line still counts as consumed")
}

func TestQueueProduceBlocksWhenFull(t *testing.T) {
	q := newTestQueue(1)

	require.NoError(t, q.Produce("fills the queue"))

	unblocked := make(chan struct{})
	go func() {
		assert.NoError(t, q.Produce("waits for space"))
		close(unblocked)
	}()

	select {
	case <-unblocked:
		t.Fatal("Produce returned while the queue was full")
	case <-time.After(50 * time.Millisecond):
	}

	// Starting the consumer frees a slot and releases the producer.
	require.NoError(t, q.Start(func(string) {}))

	select {
	case <-unblocked:
	case <-time.After(time.Second):
		t.Fatal("Produce never proceeded after the consumer started")
	}

	require.NoError(t, q.Stop())
}

func TestQueueStopTimesOutOnStuckConsumer(t *testing.T) {
	q := New(config.QueueConfig{
		Capacity:    4,
		StopTimeout: 50 * time.Millisecond,
	})

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, q.Start(func(string) {
		close(started)
		<-release
	}))

	require.NoError(t, q.Produce("stuck"))
	<-started

	err := q.Stop()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeTimeout))

	close(release)
}

func TestQueueDepthAndCapacity(t *testing.T) {
	q := newTestQueue(8)
	assert.Equal(t, 8, q.Capacity())
	assert.Zero(t, q.Depth())

	require.NoError(t, q.Produce("a"))
	require.NoError(t, q.Produce("b"))
	assert.Equal(t, 2, q.Depth())

	require.NoError(t, q.Stop())
}
