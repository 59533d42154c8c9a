package bench

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/borealis/pkg/config"
	"github.com/ajitpratap0/borealis/pkg/errors"
	"github.com/ajitpratap0/borealis/pkg/json"
	"github.com/ajitpratap0/borealis/pkg/parser"
	"github.com/ajitpratap0/borealis/pkg/sensor"
)

func TestGeneratorIsDeterministic(t *testing.T) {
	a := NewGenerator(7).Lines(100)
	b := NewGenerator(7).Lines(100)
	assert.Equal(t, a, b, "equal seeds must yield equal lines")

	c := NewGenerator(8).Lines(100)
	assert.NotEqual(t, a, c, "different seeds should diverge")
}

func TestGeneratorLinesAreAllClaimed(t *testing.T) {
	chain := parser.Chain()
	claimed := func(line string) bool {
		for _, p := range chain {
			if p.CanParse(line) {
				return true
			}
		}
		return false
	}

	for _, line := range NewGenerator(3).Lines(500) {
		require.True(t, claimed(line), "unclaimed line: %s", line)
	}
}

func TestGeneratorValueRanges(t *testing.T) {
	chain := parser.Chain()
	parse := func(line string) *sensor.Record {
		for _, p := range chain {
			if p.CanParse(line) {
				rec, err := p.Parse(line)
				require.NoError(t, err, line)
				return rec
			}
		}
		return nil
	}

	for _, line := range NewGenerator(11).Lines(500) {
		rec := parse(line)
		require.NotNil(t, rec, "no parser claimed: %s", line)

		if rec.HasTemperature() {
			assert.GreaterOrEqual(t, rec.Temperature, 15.0, line)
			assert.Less(t, rec.Temperature, 35.0, line)
		}
		if rec.HasHumidity() {
			assert.GreaterOrEqual(t, rec.Humidity, 30.0, line)
			assert.Less(t, rec.Humidity, 90.0, line)
		}
		if rec.HasBattery() {
			assert.GreaterOrEqual(t, rec.BatteryPercent(), 5.0, line)
			assert.LessOrEqual(t, rec.BatteryPercent(), 100.0, line)
		}
	}
}

func TestRunCoversEveryMode(t *testing.T) {
	results, err := Run(context.Background(), Options{Records: 200, Seed: 5, Workers: 2})
	require.NoError(t, err)
	require.Len(t, results, 3)

	wantModes := []string{config.ModeSequential, config.ModePool, config.ModeStream}
	for i, res := range results {
		assert.Equal(t, wantModes[i], res.Mode)
		assert.Equal(t, 200, res.Records)
		assert.Equal(t, int64(200), res.Processed, "every generated line is claimable")
		assert.Zero(t, res.Dropped)
		assert.Zero(t, res.Failed)
		assert.Greater(t, res.DurationNS, int64(0))
		assert.Greater(t, res.RecordsPerSecond, 0.0)
	}
}

func TestRunAcceptsModeAliases(t *testing.T) {
	results, err := Run(context.Background(), Options{Records: 50, Seed: 5, Modes: []string{"2"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, config.ModePool, results[0].Mode)
}

func TestRunRejectsUnknownMode(t *testing.T) {
	_, err := Run(context.Background(), Options{Records: 10, Modes: []string{"warp"}})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestWriteResultsRoundTrips(t *testing.T) {
	in := []Result{{Mode: config.ModePool, Records: 10, Processed: 10, RecordsPerSecond: 1234.5}}

	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, in))

	var out []Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, in, out)
}
