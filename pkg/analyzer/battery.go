package analyzer

import (
	"sync"

	"github.com/ajitpratap0/borealis/pkg/sensor"
	stringpool "github.com/ajitpratap0/borealis/pkg/strings"
)

// BatteryAnalyzer accumulates charge ratios from records carrying both
// a battery level and a capacity reference, and lists the sensors
// currently below the low-charge threshold.
type BatteryAnalyzer struct {
	mu      sync.Mutex
	low     float64 // level/max ratio
	samples int
	sum     float64
	current map[string]float64 // serial → latest ratio
	serials []string           // first-seen order
}

// NewBatteryAnalyzer creates a battery analyzer. Sensors whose latest
// level/max ratio falls below low are listed in the report.
func NewBatteryAnalyzer(low float64) *BatteryAnalyzer {
	return &BatteryAnalyzer{
		low:     low,
		current: make(map[string]float64),
	}
}

// Name returns the report label.
func (a *BatteryAnalyzer) Name() string { return "Battery" }

// Analyze collects the record's charge ratio when both level and
// capacity are present. The latest ratio per serial defines whether
// the sensor is listed as low.
func (a *BatteryAnalyzer) Analyze(rec *sensor.Record) {
	if rec == nil || !rec.HasBattery() {
		return
	}
	ratio := rec.BatteryLevel / rec.BatteryMax

	a.mu.Lock()
	a.samples++
	a.sum += ratio
	if _, seen := a.current[rec.Serial]; !seen {
		a.serials = append(a.serials, rec.Serial)
	}
	a.current[rec.Serial] = ratio
	a.mu.Unlock()
}

// Report renders sample count, average charge, and the sensors below
// the low threshold in first-seen order.
func (a *BatteryAnalyzer) Report() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	rb := stringpool.NewReportBuilder(5 + len(a.serials))
	defer rb.Close()

	rb.WriteLine("=== Battery Analysis ===")
	if a.samples == 0 {
		rb.WriteLine("No readings collected")
		return rb.String()
	}

	rb.WriteLinef("Samples: %d", a.samples)
	rb.WriteLinef("Average charge: %.1f%%", a.sum/float64(a.samples)*100)

	low := make([]string, 0, len(a.serials))
	for _, serial := range a.serials {
		if ratio := a.current[serial]; ratio < a.low {
			low = append(low, stringpool.Sprintf("Sensor %s (%.1f%%)", serial, ratio*100))
		}
	}

	rb.WriteLinef("Low battery sensors (below %.1f%%): %d", a.low*100, len(low))
	for _, line := range low {
		rb.WriteIndented(1, line)
	}

	return rb.String()
}
