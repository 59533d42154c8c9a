package analyzer

import (
	"sync"

	"github.com/ajitpratap0/borealis/pkg/sensor"
	stringpool "github.com/ajitpratap0/borealis/pkg/strings"
)

// Humidity status values.
const (
	StatusTooDry   = "Too Dry"
	StatusTooHumid = "Too Humid"
)

// HumidityAnalyzer accumulates positive humidity readings and reports
// mean, extremes, and a dryness status derived from the extremes.
type HumidityAnalyzer struct {
	mu       sync.Mutex
	low      float64
	high     float64
	readings []float64
}

// NewHumidityAnalyzer creates a humidity analyzer. The status is Too
// Dry when the minimum falls below low and Too Humid when the maximum
// rises above high; dryness wins when both hold.
func NewHumidityAnalyzer(low, high float64) *HumidityAnalyzer {
	return &HumidityAnalyzer{low: low, high: high}
}

// Name returns the report label.
func (a *HumidityAnalyzer) Name() string { return "Humidity" }

// Analyze collects the record's humidity when present.
func (a *HumidityAnalyzer) Analyze(rec *sensor.Record) {
	if rec == nil || !rec.HasHumidity() {
		return
	}
	a.mu.Lock()
	a.readings = append(a.readings, rec.Humidity)
	a.mu.Unlock()
}

// Report renders sample count, average, extremes, and status.
func (a *HumidityAnalyzer) Report() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	rb := stringpool.NewReportBuilder(7)
	defer rb.Close()

	rb.WriteLine("=== Humidity Analysis ===")
	if len(a.readings) == 0 {
		rb.WriteLine("No readings collected")
		return rb.String()
	}

	sum, minV, maxV := fold(a.readings)
	rb.WriteLinef("Samples: %d", len(a.readings))
	rb.WriteLinef("Average: %.2f%%", sum/float64(len(a.readings)))
	rb.WriteLinef("Maximum: %.2f%%", maxV)
	rb.WriteLinef("Minimum: %.2f%%", minV)
	rb.WriteLinef("Status: %s", a.status(minV, maxV))

	return rb.String()
}

func (a *HumidityAnalyzer) status(minV, maxV float64) string {
	switch {
	case minV < a.low:
		return StatusTooDry
	case maxV > a.high:
		return StatusTooHumid
	default:
		return StatusNormal
	}
}
