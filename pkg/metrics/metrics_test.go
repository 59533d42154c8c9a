package metrics

import (
	"testing"
	"time"
)

func TestTimer(t *testing.T) {
	timer := NewTimer("test")
	time.Sleep(5 * time.Millisecond)

	d := timer.Stop()
	if d < 5*time.Millisecond {
		t.Errorf("expected at least 5ms, got %v", d)
	}

	// Stopping again keeps measuring from creation.
	if timer.Stop() < d {
		t.Error("second Stop went backwards")
	}
}

func TestThroughputTracker(t *testing.T) {
	tracker := NewThroughputTracker("sequential")
	tracker.Increment(50)
	time.Sleep(10 * time.Millisecond)

	tp := tracker.GetAndReset()
	if tp <= 0 {
		t.Errorf("expected positive throughput, got %f", tp)
	}

	// Counter resets after read.
	time.Sleep(time.Millisecond)
	if tp2 := tracker.GetAndReset(); tp2 != 0 {
		t.Errorf("expected zero throughput after reset, got %f", tp2)
	}
}

func TestCollector(t *testing.T) {
	c := NewCollector("coordinator")
	if c.Name() != "coordinator" {
		t.Errorf("unexpected name %q", c.Name())
	}
	if c.StartTime().IsZero() {
		t.Error("start time not set")
	}

	// Recording must not panic; values land in the package collectors.
	c.RecordProcessed("standard", nil)
	c.RecordProcessed("standard", errTest)
	c.RecordDropped("unparseable")
	c.RecordAlert("high_temp")
	c.RecordObserverFailure("stats")
	c.RecordSinkFailure("file")
	c.SetQueueDepth("stream", 42)
	c.SetMailboxDepth("datastore", 7)
	c.ObserveProcessing("sequential", time.Millisecond)
	c.ObserveBatch("pool", time.Second)

	if c.Uptime() < 0 {
		t.Error("negative uptime")
	}
}

type testError struct{}

func (testError) Error() string { return "boom" }

var errTest = testError{}
