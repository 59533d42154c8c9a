// Package integration drives the assembled pipeline the way the CLI
// does: raw sensor lines in one end, aggregation, analysis, actors,
// observers, and alert output checked at the other.
package integration

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/borealis/internal/pipeline"
	"github.com/ajitpratap0/borealis/pkg/composite"
	"github.com/ajitpratap0/borealis/pkg/config"
	"github.com/ajitpratap0/borealis/pkg/errors"
	"github.com/ajitpratap0/borealis/pkg/observer"
	"github.com/ajitpratap0/borealis/pkg/sensor"
	"github.com/ajitpratap0/borealis/pkg/testutil"
)

// newCoordinator assembles a pipeline on the default config without
// sinks. Sink output has its own suite in sink_integration_test.go.
func newCoordinator(t *testing.T, mutate ...func(*config.Config)) *pipeline.Coordinator {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Sinks = nil
	cfg.Pool.Workers = 4
	for _, m := range mutate {
		m(cfg)
	}

	coord, err := pipeline.New(cfg)
	require.NoError(t, err)
	t.Cleanup(coord.Shutdown)
	return coord
}

func TestFullRunAcrossModes(t *testing.T) {
	testutil.IntegrationTest(t)

	for _, mode := range []string{config.ModeSequential, config.ModePool, config.ModeStream} {
		t.Run(mode, func(t *testing.T) {
			coord := newCoordinator(t)
			stats := observer.NewStatsCollector()
			coord.Observers().Attach(stats)

			ctx, cancel := testutil.TestContext(t)
			defer cancel()

			s, err := coord.Run(ctx, mode, testutil.SampleLines())
			require.NoError(t, err)

			assert.Equal(t, mode, s.Mode)
			assert.Equal(t, 9, s.Lines)
			assert.Equal(t, int64(8), s.Processed)
			assert.Equal(t, int64(1), s.Dropped)
			assert.Zero(t, s.Failed)
			assert.Equal(t, 6, s.Sensors)

			// The alert query rides the mailbox behind every ingest,
			// so the log is complete once it answers.
			alerts, err := coord.Actors().GetAlerts()
			require.NoError(t, err)
			assert.Contains(t, alerts, "HIGH TEMP ALERT: Sensor 333 reported 31.5°C (threshold: 30°C)")
			assert.Contains(t, alerts, "HIGH HUMIDITY ALERT: Sensor 202 reported 85% (threshold: 80%)")
			assert.Contains(t, alerts, "LOW BATTERY ALERT: Sensor 404 battery at 15.0% (threshold: 30%)")
			assert.Len(t, strings.Split(alerts, "\n"), 3)
			assert.Equal(t, int64(3), coord.Summary().Alerts)

			status, err := coord.Actors().Status()
			require.NoError(t, err)
			assert.Equal(t, int64(8), status.Processed)
			assert.Equal(t, 6, status.ActiveSensors)

			assert.Equal(t, 8, stats.Total())
			counts := stats.Counts()
			assert.Equal(t, 4, counts[sensor.TypeTemperature])
			assert.Equal(t, 3, counts[sensor.TypeHumidity])
			assert.Equal(t, 1, counts[sensor.TypeBattery])
		})
	}
}

func TestTreeAndRegistryAfterRun(t *testing.T) {
	testutil.IntegrationTest(t)

	coord := newCoordinator(t)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	_, err := coord.RunSequential(ctx, testutil.SampleLines())
	require.NoError(t, err)

	tree := coord.Composite()
	assert.Equal(t, 6, tree.SensorCount())

	root, err := tree.GetGroupStats(composite.RootKey)
	require.NoError(t, err)
	assert.Equal(t, 8, root.DataPointCount)

	temps, err := tree.GetGroupStats("Temperature Sensors")
	require.NoError(t, err)
	assert.Equal(t, 4, temps.DataPointCount)
	assert.InDelta(t, 26.83, temps.Temperature, 0.01)

	// Type keys resolve to the same groups as display names.
	hums, err := tree.GetGroupStats(sensor.TypeHumidity)
	require.NoError(t, err)
	assert.Equal(t, 3, hums.DataPointCount)
	assert.InDelta(t, 68.5, hums.Humidity, 0.01)

	// Battery sensors live under the root only.
	_, err = tree.GetGroupStats(sensor.TypeBattery)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

	reg := coord.Registry()
	assert.Equal(t, 6, reg.Count())
	assert.Equal(t, sensor.TypeTemperature, reg.Get("101"))
	assert.Equal(t, sensor.TypeTemperature, reg.Get("333"))
	assert.Equal(t, sensor.TypeHumidity, reg.Get("202"))
	assert.Equal(t, sensor.TypeBattery, reg.Get("404"))
	assert.Equal(t, sensor.TypeUnknown, reg.Get("999"))
}

func TestAnalyzerReportsAfterRun(t *testing.T) {
	testutil.IntegrationTest(t)

	coord := newCoordinator(t)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	_, err := coord.RunSequential(ctx, testutil.SampleLines())
	require.NoError(t, err)

	results := coord.Analyzers().ResultsAll()
	require.Len(t, results, 3)

	temp := results["Temperature"]
	assert.Contains(t, temp, "=== Temperature Analysis ===")
	assert.Contains(t, temp, "Samples: 4")
	assert.Contains(t, temp, "Average: 26.38°C")
	assert.Contains(t, temp, "Maximum: 31.50°C")
	assert.Contains(t, temp, "Minimum: 22.50°C")
	assert.Contains(t, temp, "Status: CRITICAL")

	hum := results["Humidity"]
	assert.Contains(t, hum, "Samples: 3")
	assert.Contains(t, hum, "Average: 67.33%")
	assert.Contains(t, hum, "Status: Too Humid")

	// The battery analyzer sees battery fields riding on temperature
	// lines too, not just battery-typed records.
	bat := results["Battery"]
	assert.Contains(t, bat, "Samples: 5")
	assert.Contains(t, bat, "Average charge: 64.6%")
	assert.Contains(t, bat, "Low battery sensors (below 20.0%): 1")
	assert.Contains(t, bat, "Sensor 404 (15.0%)")
}

func TestVisitorReportsAfterRun(t *testing.T) {
	testutil.IntegrationTest(t)

	coord := newCoordinator(t)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	_, err := coord.RunSequential(ctx, testutil.SampleLines())
	require.NoError(t, err)

	health := coord.Composite().ApplyVisitor(composite.NewHealthVisitor())
	assert.Contains(t, health, "=== Sensor Health Report ===")
	assert.Contains(t, health, "Healthy: 3")
	assert.Contains(t, health, "Warning: 0")
	assert.Contains(t, health, "Critical: 3")
	assert.Contains(t, health, "No data: 0")
	assert.Contains(t, health, "Sensor 404 (battery: 15.0%)")

	v := coord.Config().Visitors
	anomalies := coord.Composite().ApplyVisitor(
		composite.NewAnomalyVisitor(v.TempMin, v.TempMax, v.HumMin, v.HumMax))
	assert.Contains(t, anomalies, "Sensors scanned: 6")
	assert.Contains(t, anomalies, "Anomalies: 3")
	assert.Contains(t, anomalies, "Sensor 333: temperature 31.50°C above limit 30.00°C")
	assert.Contains(t, anomalies, "Sensor 202: humidity 85.00% above limit 70.00%")
}

func TestObserverCountersAfterRun(t *testing.T) {
	testutil.IntegrationTest(t)

	coord := newCoordinator(t)
	obsCfg := coord.Config().Observers
	tempMon := observer.NewTemperatureMonitor(obsCfg.TempWarn, obsCfg.TempCritical)
	batMon := observer.NewBatteryMonitor(obsCfg.BatteryLow)
	coord.Observers().Attach(tempMon)
	coord.Observers().Attach(batMon)

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	_, err := coord.RunSequential(ctx, testutil.SampleLines())
	require.NoError(t, err)

	warnings, criticals := tempMon.Counts()
	assert.Equal(t, 1, warnings)
	assert.Equal(t, 1, criticals)
	assert.Equal(t, 1, batMon.LowCount())
}

func TestQuietRunRaisesNothing(t *testing.T) {
	testutil.IntegrationTest(t)

	coord := newCoordinator(t)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	s, err := coord.RunSequential(ctx, testutil.QuietLines())
	require.NoError(t, err)
	assert.Equal(t, int64(3), s.Processed)
	assert.Zero(t, s.Dropped)
	assert.Equal(t, 3, s.Sensors)

	alerts, err := coord.Actors().GetAlerts()
	require.NoError(t, err)
	assert.Empty(t, alerts)
	assert.Zero(t, coord.Summary().Alerts)

	v := coord.Config().Visitors
	anomalies := coord.Composite().ApplyVisitor(
		composite.NewAnomalyVisitor(v.TempMin, v.TempMax, v.HumMin, v.HumMax))
	assert.Contains(t, anomalies, "Sensors scanned: 3")
	assert.Contains(t, anomalies, "Anomalies: 0")
}

// TestOperatorScenarioFlow walks one coordinator through the readings
// an operator would feed it, checking each subsystem as state builds.
func TestOperatorScenarioFlow(t *testing.T) {
	testutil.IntegrationTest(t)

	coord := newCoordinator(t)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	const (
		standardLine     = "serial:111temp:2450type:tempbat:80batmax:100state:OK"
		manufacturerLine = "manu:Qualcommserial:333temp:3150type:tempbat:25batmax:100"
	)

	t.Run("standard line reaches every subsystem", func(t *testing.T) {
		s, err := coord.RunSequential(ctx, []string{standardLine})
		require.NoError(t, err)
		assert.Equal(t, int64(1), s.Processed)
		assert.Zero(t, s.Dropped)

		assert.Equal(t, sensor.TypeTemperature, coord.Registry().Get("111"))

		history, err := coord.Actors().DataStore().History("111")
		require.NoError(t, err)
		require.Len(t, history, 1)
		rec := history[0]
		assert.Equal(t, "111", rec.Serial)
		assert.InDelta(t, 24.5, rec.Temperature, 1e-9)
		assert.InDelta(t, 80, rec.BatteryLevel, 1e-9)
		assert.InDelta(t, 100, rec.BatteryMax, 1e-9)
		assert.Equal(t, "ok", rec.State)

		alerts, err := coord.Actors().GetAlerts()
		require.NoError(t, err)
		assert.Empty(t, alerts)
	})

	t.Run("manufacturer line raises temperature then battery alert", func(t *testing.T) {
		_, err := coord.RunSequential(ctx, []string{manufacturerLine})
		require.NoError(t, err)

		history, err := coord.Actors().DataStore().History("333")
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, "Qualcomm", history[0].Manufacturer)
		assert.InDelta(t, 31.5, history[0].Temperature, 1e-9)

		alerts, err := coord.Actors().GetAlerts()
		require.NoError(t, err)
		tempIdx := strings.Index(alerts, "HIGH TEMP ALERT: Sensor 333 reported 31.5°C (threshold: 30°C)")
		batIdx := strings.Index(alerts, "LOW BATTERY ALERT: Sensor 333 battery at 25.0% (threshold: 30%)")
		require.GreaterOrEqual(t, tempIdx, 0)
		require.GreaterOrEqual(t, batIdx, 0)
		assert.Less(t, tempIdx, batIdx)
	})

	t.Run("unclaimed line changes nothing", func(t *testing.T) {
		before := coord.Summary()
		s, err := coord.RunSequential(ctx, []string{"garbage:data"})
		require.NoError(t, err)
		assert.Equal(t, before.Processed, s.Processed)
		assert.Equal(t, before.Dropped+1, s.Dropped)
		assert.Zero(t, s.Failed)

		assert.Equal(t, 2, coord.Composite().SensorCount())
		assert.Equal(t, 2, coord.Registry().Count())

		status, err := coord.Actors().Status()
		require.NoError(t, err)
		assert.Equal(t, int64(2), status.Processed)
		assert.Equal(t, 2, status.ActiveSensors)
	})

	t.Run("temperature report tracks both readings", func(t *testing.T) {
		report := coord.Analyzers().ResultsAll()["Temperature"]
		assert.Contains(t, report, "Samples: 2")
		assert.Contains(t, report, "Maximum: 31.50°C")
		assert.Contains(t, report, "Minimum: 24.50°C")
		assert.Contains(t, report, "Status: CRITICAL")
	})

	t.Run("serial prefix decides the manufacturer group", func(t *testing.T) {
		tree := coord.Composite()
		tree.OrganizeByManufacturer()

		names := tree.GroupNames()
		assert.Contains(t, names, "Manufacturer: Qualcomm")
		assert.Contains(t, names, "Manufacturer: NXP")

		qualcomm, err := tree.GetGroupStats("Manufacturer: Qualcomm")
		require.NoError(t, err)
		assert.Equal(t, 1, qualcomm.DataPointCount)
		assert.InDelta(t, 24.5, qualcomm.Temperature, 1e-9)

		nxp, err := tree.GetGroupStats("Manufacturer: NXP")
		require.NoError(t, err)
		assert.InDelta(t, 31.5, nxp.Temperature, 1e-9)
	})
}

func TestPoolBatchKeepsActorCountsConsistent(t *testing.T) {
	testutil.IntegrationTest(t)

	coord := newCoordinator(t)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	serials := []string{"121", "232", "343", "454", "565"}
	lines := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		lines = append(lines, fmt.Sprintf("serial:%s temp:%d type:temp bat:90 batmax:100",
			serials[i%len(serials)], 2000+i*10))
	}

	s, err := coord.RunPool(ctx, lines)
	require.NoError(t, err)
	assert.Equal(t, int64(50), s.Processed)
	assert.Zero(t, s.Dropped)
	assert.Zero(t, s.Failed)

	status, err := coord.Actors().Status()
	require.NoError(t, err)
	assert.Equal(t, int64(50), status.Processed)
	assert.Equal(t, len(serials), status.ActiveSensors)
}

func TestDataStoreTypeAnalysisAfterRun(t *testing.T) {
	testutil.IntegrationTest(t)

	coord := newCoordinator(t)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	_, err := coord.RunSequential(ctx, testutil.SampleLines())
	require.NoError(t, err)

	// Sensors 101, 333, and 105 have temperature history; the means
	// cover every record those sensors reported.
	res, err := coord.Actors().AnalyzeType(sensor.TypeTemperature)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Count)
	assert.InDelta(t, 26.375, res.Temperature, 1e-9)
	assert.InDelta(t, 77.0, res.BatteryLevel, 1e-9)

	res, err = coord.Actors().AnalyzeType(sensor.TypeBattery)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	assert.InDelta(t, 15.0, res.BatteryLevel, 1e-9)
}
