package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/borealis/pkg/config"
	"github.com/ajitpratap0/borealis/pkg/errors"
	"github.com/ajitpratap0/borealis/pkg/parser"
	"github.com/ajitpratap0/borealis/pkg/sensor"
)

func newTestCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Sinks = nil
	cfg.Pool.Workers = 4
	cfg.Queue.StopTimeout = time.Second
	c, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(c.Shutdown)
	return c
}

// sampleLines mixes both wire formats with one unclaimed line.
func sampleLines() []string {
	return []string{
		"serial:111temp:2450type:tempbat:80batmax:100state:OK",
		"serial:222hum:755type:humidity",
		"manu:Qualcommserial:333temp:3150type:tempbat:25batmax:100",
		"this line matches no parser",
		"serial:444batterylevel:60batmax:100type:battery",
	}
}

type recordingObserver struct {
	mu   sync.Mutex
	seen []string
}

func (r *recordingObserver) Name() string { return "recording" }

func (r *recordingObserver) OnRecord(rec *sensor.Record) {
	r.mu.Lock()
	r.seen = append(r.seen, rec.Serial)
	r.mu.Unlock()
}

func (r *recordingObserver) serials() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.seen))
	copy(out, r.seen)
	return out
}

type stubParser struct {
	parse func(raw string) (*sensor.Record, error)
}

func (s stubParser) Name() string           { return "stub" }
func (s stubParser) CanParse(_ string) bool { return true }

func (s stubParser) Parse(raw string) (*sensor.Record, error) {
	return s.parse(raw)
}

func TestProcessRecordFullPath(t *testing.T) {
	c := newTestCoordinator(t)
	rec := &recordingObserver{}
	c.Observers().Attach(rec)

	c.ProcessRecord("serial:111temp:2450type:tempbat:80batmax:100state:OK")

	assert.Equal(t, 1, c.Composite().SensorCount())
	assert.Equal(t, "temp", c.Registry().Get("111"))
	assert.Equal(t, []string{"111"}, rec.serials())

	s := c.Summary()
	assert.Equal(t, int64(1), s.Processed)
	assert.Zero(t, s.Dropped)
	assert.Zero(t, s.Failed)
}

func TestProcessRecordSkipsRegistryWithoutType(t *testing.T) {
	c := newTestCoordinator(t)

	c.ProcessRecord("serial:555bat:80batmax:100")

	assert.False(t, c.Registry().Has("555"), "record without a type must not enter the registry")
	assert.Equal(t, 1, c.Composite().SensorCount(), "the tree still receives the record")
	assert.Equal(t, int64(1), c.Summary().Processed)
}

func TestProcessRecordDropsUnclaimedLine(t *testing.T) {
	c := newTestCoordinator(t)

	c.ProcessRecord("neither prefix appears here")

	s := c.Summary()
	assert.Zero(t, s.Processed)
	assert.Equal(t, int64(1), s.Dropped)
	assert.Zero(t, c.Composite().SensorCount())
}

func TestProcessRecordIsolatesParseFailure(t *testing.T) {
	c := newTestCoordinator(t)
	c.parsers = []parser.Parser{stubParser{parse: func(string) (*sensor.Record, error) {
		return nil, errors.New(errors.ErrorTypeParseMalformed, "rejected")
	}}}

	c.ProcessRecord("anything")
	assert.Equal(t, int64(1), c.Summary().Failed)

	c.parsers = parser.Chain()
	c.ProcessRecord("serial:111temp:2450type:temp")
	assert.Equal(t, int64(1), c.Summary().Processed, "pipeline keeps flowing after a failure")
}

func TestProcessRecordRecoversFromPanic(t *testing.T) {
	c := newTestCoordinator(t)
	c.parsers = []parser.Parser{stubParser{parse: func(string) (*sensor.Record, error) {
		panic("parser exploded")
	}}}

	assert.NotPanics(t, func() { c.ProcessRecord("anything") })
	assert.Equal(t, int64(1), c.Summary().Failed)

	c.parsers = parser.Chain()
	c.ProcessRecord("serial:111temp:2450type:temp")
	assert.Equal(t, int64(1), c.Summary().Processed)
}

func TestRunModesShareSemantics(t *testing.T) {
	modes := []string{config.ModeSequential, config.ModePool, config.ModeStream}

	for _, mode := range modes {
		t.Run(mode, func(t *testing.T) {
			c := newTestCoordinator(t)

			s, err := c.Run(context.Background(), mode, sampleLines())
			require.NoError(t, err)

			assert.Equal(t, mode, s.Mode)
			assert.Equal(t, 5, s.Lines)
			assert.Equal(t, int64(4), s.Processed)
			assert.Equal(t, int64(1), s.Dropped)
			assert.Zero(t, s.Failed)
			assert.Equal(t, 4, s.Sensors)
			assert.Greater(t, s.Duration, time.Duration(0))
		})
	}
}

func TestRunAcceptsNumericAliases(t *testing.T) {
	c := newTestCoordinator(t)

	s, err := c.Run(context.Background(), "2", sampleLines())
	require.NoError(t, err)
	assert.Equal(t, config.ModePool, s.Mode)
}

func TestRunRejectsUnknownMode(t *testing.T) {
	c := newTestCoordinator(t)

	_, err := c.Run(context.Background(), "warp", sampleLines())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	assert.Zero(t, c.Summary().Processed, "no line runs under an unknown mode")
}

func TestRunStreamIsSingleUse(t *testing.T) {
	c := newTestCoordinator(t)

	_, err := c.RunStream(context.Background(), sampleLines())
	require.NoError(t, err)

	_, err = c.RunStream(context.Background(), sampleLines())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeQueueClosed))
}

func TestNormalizeMode(t *testing.T) {
	cases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"sequential", config.ModeSequential, true},
		{"1", config.ModeSequential, true},
		{"POOL", config.ModePool, true},
		{"2", config.ModePool, true},
		{" stream ", config.ModeStream, true},
		{"3", config.ModeStream, true},
		{"warp", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, err := NormalizeMode(tc.raw)
		if tc.ok {
			require.NoError(t, err, tc.raw)
			assert.Equal(t, tc.want, got, tc.raw)
		} else {
			require.Error(t, err, tc.raw)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
		}
	}
}

func TestProcessRecordConcurrent(t *testing.T) {
	c := newTestCoordinator(t)
	lines := sampleLines()

	const goroutines = 8
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				for _, line := range lines {
					c.ProcessRecord(line)
				}
			}
		}()
	}
	wg.Wait()

	s := c.Summary()
	assert.Equal(t, int64(goroutines*25*4), s.Processed)
	assert.Equal(t, int64(goroutines*25), s.Dropped)
	assert.Equal(t, 4, s.Sensors, "repeated serials collapse to one leaf each")
}

func TestSummaryCountsAlertsAfterDrain(t *testing.T) {
	c := newTestCoordinator(t)

	// 31.5°C beats the high-temperature threshold and 25% battery sits
	// under the low-battery one, so this single record emits two alerts.
	c.ProcessRecord("manu:Qualcommserial:333temp:3150type:tempbat:25batmax:100state:active")
	c.Shutdown()

	assert.Equal(t, int64(2), c.Summary().Alerts)
}

func TestShutdownIsIdempotent(t *testing.T) {
	c := newTestCoordinator(t)
	c.ProcessRecord("serial:111temp:2450type:temp")

	assert.NotPanics(t, func() {
		c.Shutdown()
		c.Shutdown()
	})
}
