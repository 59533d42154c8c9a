package pool

import (
	"sync"
	"testing"
)

type testBuffer struct {
	data []byte
}

func TestPoolGetPut(t *testing.T) {
	p := New(
		func() *testBuffer { return &testBuffer{data: make([]byte, 0, 64)} },
		func(b *testBuffer) { b.data = b.data[:0] },
	)

	buf := p.Get()
	buf.data = append(buf.data, 'x')
	p.Put(buf)

	buf2 := p.Get()
	if len(buf2.data) != 0 {
		t.Errorf("expected reset buffer, got length %d", len(buf2.data))
	}
	p.Put(buf2)
}

func TestPoolStats(t *testing.T) {
	p := New(
		func() *testBuffer { return &testBuffer{} },
		nil,
	)

	buf := p.Get()
	allocated, inUse, hits := p.Stats()

	if allocated < 1 {
		t.Errorf("expected at least 1 allocation, got %d", allocated)
	}
	if inUse != 1 {
		t.Errorf("expected 1 in use, got %d", inUse)
	}
	if hits != 1 {
		t.Errorf("expected 1 hit, got %d", hits)
	}

	p.Put(buf)
	_, inUse, _ = p.Stats()
	if inUse != 0 {
		t.Errorf("expected 0 in use after put, got %d", inUse)
	}
}

func TestPoolConcurrent(t *testing.T) {
	p := New(
		func() *testBuffer { return &testBuffer{data: make([]byte, 0, 64)} },
		func(b *testBuffer) { b.data = b.data[:0] },
	)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				buf := p.Get()
				buf.data = append(buf.data, byte(j))
				p.Put(buf)
			}
		}()
	}
	wg.Wait()

	_, inUse, _ := p.Stats()
	if inUse != 0 {
		t.Errorf("expected 0 in use after all puts, got %d", inUse)
	}
}

func TestPoolNilReset(t *testing.T) {
	p := New(func() *testBuffer { return &testBuffer{data: []byte("kept")} }, nil)

	buf := p.Get()
	p.Put(buf)

	// Without a reset function, contents survive the round trip.
	buf2 := p.Get()
	if string(buf2.data) != "kept" {
		t.Errorf("expected contents preserved, got %q", buf2.data)
	}
	p.Put(buf2)
}
