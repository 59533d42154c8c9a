package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/borealis/pkg/errors"
)

func TestSubmitReturnsValue(t *testing.T) {
	p := New(2)
	defer p.Shutdown()

	f := Submit(p, func() (int, error) { return 42, nil })

	v, err := f.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestSubmitPropagatesError(t *testing.T) {
	p := New(2)
	defer p.Shutdown()

	boom := errors.New(errors.ErrorTypeValidation, "bad input")
	f := Submit(p, func() (string, error) { return "", boom })

	_, err := f.Get(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestSubmitRecoverFromPanic(t *testing.T) {
	p := New(2)
	defer p.Shutdown()

	f := Submit(p, func() (int, error) { panic("kaboom") })

	_, err := f.Get(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInternal))
	assert.Contains(t, err.Error(), "kaboom")

	// the pool survives the panic
	g := Submit(p, func() (int, error) { return 7, nil })
	v, err := g.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestSubmitSuspendsWhenSlotsBusy(t *testing.T) {
	p := New(1)
	defer p.Shutdown()

	release := make(chan struct{})
	first := p.SubmitVoid(func() error {
		<-release
		return nil
	})

	// the only worker is busy; the next Submit must block
	submitted := make(chan struct{})
	go func() {
		p.SubmitVoid(func() error { return nil })
		close(submitted)
	}()

	select {
	case <-submitted:
		t.Fatal("Submit returned while no worker slot was free")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, first.Wait(context.Background()))

	select {
	case <-submitted:
	case <-time.After(time.Second):
		t.Fatal("Submit never proceeded after a slot freed")
	}
}

func TestPoolParallelismBounds(t *testing.T) {
	const workers = 4
	p := New(workers)
	defer p.Shutdown()

	var mu sync.Mutex
	var current, peak int

	items := make([]int, 64)
	require.NoError(t, ProcessBatch(p, items, func(int) error {
		mu.Lock()
		current++
		if current > peak {
			peak = current
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		current--
		mu.Unlock()
		return nil
	}))

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, peak, 2, "tasks must overlap")
	assert.LessOrEqual(t, peak, workers)
}

func TestProcessBatchWaitsForAll(t *testing.T) {
	p := New(4)
	defer p.Shutdown()

	var done atomic.Int64
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}

	err := ProcessBatch(p, items, func(int) error {
		time.Sleep(time.Millisecond)
		done.Add(1)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, int64(len(items)), done.Load(), "ProcessBatch returned before the slowest task")
}

func TestProcessBatchJoinsFailures(t *testing.T) {
	p := New(4)
	defer p.Shutdown()

	items := []int{1, 2, 3, 4}
	err := ProcessBatch(p, items, func(n int) error {
		if n%2 == 0 {
			return errors.New(errors.ErrorTypeValidation, "even item")
		}
		return nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 4 batch tasks failed")
}

func TestProcessBatchEmpty(t *testing.T) {
	p := New(2)
	defer p.Shutdown()

	require.NoError(t, ProcessBatch(p, nil, func(struct{}) error { return nil }))
}

func TestFutureGetHonorsContext(t *testing.T) {
	p := New(1)
	defer p.Shutdown()

	release := make(chan struct{})
	f := p.SubmitVoid(func() error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := f.Wait(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeTimeout))

	close(release)
	require.NoError(t, f.Wait(context.Background()))
}

func TestShutdownRejectsNewWork(t *testing.T) {
	p := New(2)
	p.Shutdown()

	f := Submit(p, func() (int, error) { return 1, nil })
	_, err := f.Get(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeTerminated))
}

func TestShutdownWaitsForInFlight(t *testing.T) {
	p := New(2)

	var finished atomic.Bool
	p.SubmitVoid(func() error {
		time.Sleep(30 * time.Millisecond)
		finished.Store(true)
		return nil
	})

	p.Shutdown()
	assert.True(t, finished.Load(), "Shutdown returned before in-flight task finished")
}

func TestShutdownIsIdempotent(t *testing.T) {
	p := New(2)
	p.Shutdown()
	require.NotPanics(t, p.Shutdown)
}

func TestStatsCounters(t *testing.T) {
	p := New(2)
	defer p.Shutdown()

	require.NoError(t, p.SubmitVoid(func() error { return nil }).Wait(context.Background()))
	_ = p.SubmitVoid(func() error {
		return errors.New(errors.ErrorTypeInternal, "fail")
	}).Wait(context.Background())

	stats := p.Stats()
	assert.Equal(t, 2, stats.Workers)
	assert.Equal(t, int64(2), stats.Submitted)
	assert.Equal(t, int64(2), stats.Completed)
	assert.Equal(t, int64(1), stats.Failed)
}

func TestDefaultPoolSingleton(t *testing.T) {
	ResetDefault()
	defer ResetDefault()

	p1 := Default()
	p2 := Default()
	assert.Same(t, p1, p2)

	v, err := Submit(p1, func() (int, error) { return 5, nil }).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}
