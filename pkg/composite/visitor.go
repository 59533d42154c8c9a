package composite

import (
	stringpool "github.com/ajitpratap0/borealis/pkg/strings"
)

// Visitor is a read-only traversal over the aggregation tree. Accept
// walks groups before their children, so a visitor sees a node before
// anything beneath it. Leaves linked into several groups are offered
// to the visitor once per membership; visitors that want per-sensor
// results must deduplicate, as the provided visitors do.
type Visitor interface {
	// VisitLeaf is called for every leaf encountered in the walk.
	VisitLeaf(l *Leaf)
	// VisitGroup is called for every group encountered in the walk.
	VisitGroup(g *Group)
	// Reset clears accumulated state so the visitor can be reused.
	Reset()
	// Result renders the accumulated findings as a report.
	Result() string
}

// Battery classification bounds used by HealthVisitor.
const (
	batteryCriticalBelow = 30.0
	batteryWarningBelow  = 50.0
)

// healthEntry records one classified sensor for the report listing.
type healthEntry struct {
	name    string
	battery float64
}

// HealthVisitor classifies every sensor by its mean battery level:
// below 30% critical, below 50% warning, 50% and above healthy.
// Sensors without any data are counted separately and not classified.
type HealthVisitor struct {
	seen     map[*Leaf]struct{}
	healthy  int
	noData   int
	warning  []healthEntry
	critical []healthEntry
}

// NewHealthVisitor returns a ready-to-use health visitor.
func NewHealthVisitor() *HealthVisitor {
	return &HealthVisitor{seen: make(map[*Leaf]struct{})}
}

// VisitLeaf classifies the leaf once, no matter how many groups it
// belongs to.
func (h *HealthVisitor) VisitLeaf(l *Leaf) {
	if _, dup := h.seen[l]; dup {
		return
	}
	h.seen[l] = struct{}{}

	stats := l.Stats()
	if stats.DataPointCount == 0 {
		h.noData++
		return
	}

	switch {
	case stats.BatteryLevel < batteryCriticalBelow:
		h.critical = append(h.critical, healthEntry{l.Name(), stats.BatteryLevel})
	case stats.BatteryLevel < batteryWarningBelow:
		h.warning = append(h.warning, healthEntry{l.Name(), stats.BatteryLevel})
	default:
		h.healthy++
	}
}

// VisitGroup is a no-op; health is a per-sensor property.
func (h *HealthVisitor) VisitGroup(_ *Group) {}

// Reset clears all accumulated classifications.
func (h *HealthVisitor) Reset() {
	h.seen = make(map[*Leaf]struct{})
	h.healthy = 0
	h.noData = 0
	h.warning = h.warning[:0]
	h.critical = h.critical[:0]
}

// Result renders the classification counts followed by the critical
// and warning sensors in visit order.
func (h *HealthVisitor) Result() string {
	rb := stringpool.NewReportBuilder(8 + len(h.critical) + len(h.warning))
	defer rb.Close()

	rb.WriteLine("=== Sensor Health Report ===")
	rb.WriteLinef("Healthy: %d", h.healthy)
	rb.WriteLinef("Warning: %d", len(h.warning))
	rb.WriteLinef("Critical: %d", len(h.critical))
	rb.WriteLinef("No data: %d", h.noData)

	if len(h.critical) > 0 {
		rb.WriteLine("Critical sensors:")
		for _, e := range h.critical {
			rb.WriteIndented(1, stringpool.Sprintf("%s (battery: %.1f%%)", e.name, e.battery))
		}
	}
	if len(h.warning) > 0 {
		rb.WriteLine("Warning sensors:")
		for _, e := range h.warning {
			rb.WriteIndented(1, stringpool.Sprintf("%s (battery: %.1f%%)", e.name, e.battery))
		}
	}

	return rb.String()
}

// AnomalyVisitor scans each sensor's history for readings outside the
// configured temperature and humidity bands. Groups are ignored.
type AnomalyVisitor struct {
	tempMin, tempMax float64
	humMin, humMax   float64

	seen     map[*Leaf]struct{}
	scanned  int
	findings []string
}

// NewAnomalyVisitor returns an anomaly visitor with the given bands.
// Readings inside [tempMin, tempMax] and [humMin, humMax] are normal.
func NewAnomalyVisitor(tempMin, tempMax, humMin, humMax float64) *AnomalyVisitor {
	return &AnomalyVisitor{
		tempMin: tempMin,
		tempMax: tempMax,
		humMin:  humMin,
		humMax:  humMax,
		seen:    make(map[*Leaf]struct{}),
	}
}

// VisitLeaf scans the leaf's history once, no matter how many groups
// it belongs to.
func (a *AnomalyVisitor) VisitLeaf(l *Leaf) {
	if _, dup := a.seen[l]; dup {
		return
	}
	a.seen[l] = struct{}{}

	history := l.History()
	if len(history) == 0 {
		return
	}
	a.scanned++

	for i := range history {
		rec := &history[i]
		if rec.HasTemperature() {
			switch {
			case rec.Temperature > a.tempMax:
				a.findings = append(a.findings, stringpool.Sprintf(
					"%s: temperature %.2f°C above limit %.2f°C", l.Name(), rec.Temperature, a.tempMax))
			case rec.Temperature < a.tempMin:
				a.findings = append(a.findings, stringpool.Sprintf(
					"%s: temperature %.2f°C below limit %.2f°C", l.Name(), rec.Temperature, a.tempMin))
			}
		}
		if rec.HasHumidity() {
			switch {
			case rec.Humidity > a.humMax:
				a.findings = append(a.findings, stringpool.Sprintf(
					"%s: humidity %.2f%% above limit %.2f%%", l.Name(), rec.Humidity, a.humMax))
			case rec.Humidity < a.humMin:
				a.findings = append(a.findings, stringpool.Sprintf(
					"%s: humidity %.2f%% below limit %.2f%%", l.Name(), rec.Humidity, a.humMin))
			}
		}
	}
}

// VisitGroup is a no-op; anomalies are detected on raw leaf history.
func (a *AnomalyVisitor) VisitGroup(_ *Group) {}

// Reset clears all accumulated findings.
func (a *AnomalyVisitor) Reset() {
	a.seen = make(map[*Leaf]struct{})
	a.scanned = 0
	a.findings = a.findings[:0]
}

// Result renders the scan totals followed by each finding in visit
// order.
func (a *AnomalyVisitor) Result() string {
	rb := stringpool.NewReportBuilder(4 + len(a.findings))
	defer rb.Close()

	rb.WriteLine("=== Anomaly Report ===")
	rb.WriteLinef("Sensors scanned: %d", a.scanned)
	rb.WriteLinef("Anomalies: %d", len(a.findings))
	for _, f := range a.findings {
		rb.WriteIndented(1, f)
	}

	return rb.String()
}
