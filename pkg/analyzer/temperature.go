package analyzer

import (
	"sync"

	"github.com/ajitpratap0/borealis/pkg/sensor"
	stringpool "github.com/ajitpratap0/borealis/pkg/strings"
)

// Temperature status values.
const (
	StatusNormal   = "Normal"
	StatusWarning  = "Warning"
	StatusCritical = "CRITICAL"
)

// TemperatureAnalyzer accumulates positive temperature readings and
// reports mean, extremes, and a status derived from the maximum.
type TemperatureAnalyzer struct {
	mu       sync.Mutex
	warn     float64
	critical float64
	readings []float64
}

// NewTemperatureAnalyzer creates a temperature analyzer. The status is
// Warning when the maximum exceeds warn and CRITICAL when it exceeds
// critical.
func NewTemperatureAnalyzer(warn, critical float64) *TemperatureAnalyzer {
	return &TemperatureAnalyzer{warn: warn, critical: critical}
}

// Name returns the report label.
func (a *TemperatureAnalyzer) Name() string { return "Temperature" }

// Analyze collects the record's temperature when present.
func (a *TemperatureAnalyzer) Analyze(rec *sensor.Record) {
	if rec == nil || !rec.HasTemperature() {
		return
	}
	a.mu.Lock()
	a.readings = append(a.readings, rec.Temperature)
	a.mu.Unlock()
}

// Report renders sample count, average, extremes, and status.
func (a *TemperatureAnalyzer) Report() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	rb := stringpool.NewReportBuilder(7)
	defer rb.Close()

	rb.WriteLine("=== Temperature Analysis ===")
	if len(a.readings) == 0 {
		rb.WriteLine("No readings collected")
		return rb.String()
	}

	sum, minV, maxV := fold(a.readings)
	rb.WriteLinef("Samples: %d", len(a.readings))
	rb.WriteLinef("Average: %.2f°C", sum/float64(len(a.readings)))
	rb.WriteLinef("Maximum: %.2f°C", maxV)
	rb.WriteLinef("Minimum: %.2f°C", minV)
	rb.WriteLinef("Status: %s", a.status(maxV))

	return rb.String()
}

func (a *TemperatureAnalyzer) status(maxV float64) string {
	switch {
	case maxV > a.critical:
		return StatusCritical
	case maxV > a.warn:
		return StatusWarning
	default:
		return StatusNormal
	}
}

// fold computes sum, minimum, and maximum of a non-empty slice.
func fold(values []float64) (sum, minV, maxV float64) {
	minV, maxV = values[0], values[0]
	for _, v := range values {
		sum += v
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	return sum, minV, maxV
}
