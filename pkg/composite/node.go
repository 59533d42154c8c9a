// Package composite maintains the hierarchical aggregation tree of
// sensors. Leaves hold per-sensor record history; groups hold ordered
// collections of child nodes. A single manager-owned root group named
// "All Sensors" anchors the tree, and every statistic the pipeline
// reports about a group is computed on demand from the records the
// leaves hold.
//
// # Tree shape
//
// The node set is closed: Leaf and Group are the only implementations
// of Node. Leaves may be linked into several groups at once (their
// type group, manufacturer groups), so group aggregation de-duplicates
// leaves by identity before counting.
//
// # Concurrency
//
// Nodes carry no locks of their own. The Manager serializes every
// mutation and traversal behind one mutex, which keeps the hot
// AddRecord path to a single lock acquisition.
package composite

import (
	"github.com/ajitpratap0/borealis/pkg/sensor"
	stringpool "github.com/ajitpratap0/borealis/pkg/strings"
)

// Stats is the aggregated view of a node. For a leaf the means cover
// records where the field is present; for a group the means cover
// children whose own mean is non-zero, and DataPointCount sums the
// unique leaves of the subtree.
type Stats struct {
	// DataPointCount is the number of records held under the node
	DataPointCount int `json:"data_point_count"`
	// Temperature is the mean temperature in °C, 0 when no readings exist
	Temperature float64 `json:"temperature"`
	// Humidity is the mean humidity in %, 0 when no readings exist
	Humidity float64 `json:"humidity"`
	// BatteryLevel is the mean battery charge in percent of capacity
	BatteryLevel float64 `json:"battery_level"`
}

// Node is one element of the aggregation tree.
type Node interface {
	// Name returns the display name of the node.
	Name() string

	// Type returns the sensor type of a leaf or the label of a group.
	Type() string

	// AddData offers a record to the node. A leaf accepts only records
	// carrying its own serial; a group fans the record out to every
	// child. It reports whether any node in the subtree accepted.
	AddData(rec *sensor.Record) bool

	// Stats computes the aggregated statistics of the subtree.
	Stats() Stats

	// SensorCount returns the number of distinct sensors in the subtree.
	SensorCount() int

	// Accept dispatches the visitor over the subtree: groups are
	// visited before their children, leaves terminate the walk.
	Accept(v Visitor)

	// describe appends the node's display lines at the given depth.
	// Unexported so the node set stays closed.
	describe(rb *stringpool.ReportBuilder, depth int)
}

// Leaf is a single sensor with an append-only record history.
type Leaf struct {
	serial     string
	name       string
	sensorType string
	history    []sensor.Record
}

// NewLeaf creates a leaf for a serial. The display name defaults to
// "Sensor <serial>" and the type starts unknown until a typed record
// arrives.
func NewLeaf(serial string) *Leaf {
	return &Leaf{
		serial:     serial,
		name:       stringpool.Concat("Sensor ", serial),
		sensorType: sensor.TypeUnknown,
	}
}

// Serial returns the sensor serial the leaf was created for.
func (l *Leaf) Serial() string { return l.serial }

// Name returns the leaf display name.
func (l *Leaf) Name() string { return l.name }

// Type returns the most recently reported sensor type.
func (l *Leaf) Type() string { return l.sensorType }

// AddData appends a record to the history. Records carrying a foreign
// serial are rejected. A non-empty record type updates the leaf type.
func (l *Leaf) AddData(rec *sensor.Record) bool {
	if rec == nil || rec.Serial != l.serial {
		return false
	}

	if rec.Type != "" {
		l.sensorType = rec.Type
	}
	l.history = append(l.history, *rec)
	return true
}

// History returns a copy of the record history in arrival order.
func (l *Leaf) History() []sensor.Record {
	out := make([]sensor.Record, len(l.history))
	copy(out, l.history)
	return out
}

// Stats aggregates the leaf history: count of records, and per-field
// means over records where the field is present. Battery is expressed
// as a percentage of capacity.
func (l *Leaf) Stats() Stats {
	s := Stats{DataPointCount: len(l.history)}

	var tempSum, humSum, batSum float64
	var tempN, humN, batN int
	for i := range l.history {
		r := &l.history[i]
		if r.HasTemperature() {
			tempSum += r.Temperature
			tempN++
		}
		if r.HasHumidity() {
			humSum += r.Humidity
			humN++
		}
		if r.HasBattery() {
			batSum += r.BatteryPercent()
			batN++
		}
	}

	if tempN > 0 {
		s.Temperature = tempSum / float64(tempN)
	}
	if humN > 0 {
		s.Humidity = humSum / float64(humN)
	}
	if batN > 0 {
		s.BatteryLevel = batSum / float64(batN)
	}
	return s
}

// SensorCount returns 1; a leaf is one sensor.
func (l *Leaf) SensorCount() int { return 1 }

// Accept visits the leaf.
func (l *Leaf) Accept(v Visitor) {
	v.VisitLeaf(l)
}

func (l *Leaf) describe(rb *stringpool.ReportBuilder, depth int) {
	s := l.Stats()
	line := stringpool.GetBuilder(stringpool.Small)
	defer stringpool.PutBuilder(line, stringpool.Small)

	line.WriteString(stringpool.Sprintf("%s (%s): %d readings", l.name, l.sensorType, s.DataPointCount))
	if s.Temperature > 0 {
		line.WriteString(stringpool.Sprintf(", temp %.2f°C", s.Temperature))
	}
	if s.Humidity > 0 {
		line.WriteString(stringpool.Sprintf(", humidity %.2f%%", s.Humidity))
	}
	if s.BatteryLevel > 0 {
		line.WriteString(stringpool.Sprintf(", battery %.1f%%", s.BatteryLevel))
	}
	rb.WriteIndented(depth, line.String())
}

// Group is an ordered collection of child nodes.
type Group struct {
	name      string
	groupType string
	children  []Node
}

// NewGroup creates an empty group with a display name and a label.
func NewGroup(name, groupType string) *Group {
	return &Group{
		name:      name,
		groupType: groupType,
	}
}

// Name returns the group display name.
func (g *Group) Name() string { return g.name }

// Type returns the group label.
func (g *Group) Type() string { return g.groupType }

// AddChild links a node into the group. Insertion is set-like: a node
// already present by identity is rejected, as is the group itself.
func (g *Group) AddChild(n Node) bool {
	if n == nil {
		return false
	}
	if sub, ok := n.(*Group); ok && sub == g {
		return false
	}
	for _, existing := range g.children {
		if existing == n {
			return false
		}
	}
	g.children = append(g.children, n)
	return true
}

// Children returns the child nodes in insertion order. The slice is a
// copy; the nodes are shared.
func (g *Group) Children() []Node {
	out := make([]Node, len(g.children))
	copy(out, g.children)
	return out
}

// AddData fans the record out to every child and reports whether any
// node in the subtree accepted it.
func (g *Group) AddData(rec *sensor.Record) bool {
	accepted := false
	for _, child := range g.children {
		if child.AddData(rec) {
			accepted = true
		}
	}
	return accepted
}

// Stats aggregates the subtree. DataPointCount sums the histories of
// the unique leaves below the group, so a leaf linked into several
// subgroups is counted once. The mean fields average the immediate
// children's means, skipping children whose mean is zero.
func (g *Group) Stats() Stats {
	s := Stats{}
	for _, leaf := range g.uniqueLeaves() {
		s.DataPointCount += len(leaf.history)
	}

	var tempSum, humSum, batSum float64
	var tempN, humN, batN int
	for _, child := range g.children {
		cs := child.Stats()
		if cs.Temperature > 0 {
			tempSum += cs.Temperature
			tempN++
		}
		if cs.Humidity > 0 {
			humSum += cs.Humidity
			humN++
		}
		if cs.BatteryLevel > 0 {
			batSum += cs.BatteryLevel
			batN++
		}
	}

	if tempN > 0 {
		s.Temperature = tempSum / float64(tempN)
	}
	if humN > 0 {
		s.Humidity = humSum / float64(humN)
	}
	if batN > 0 {
		s.BatteryLevel = batSum / float64(batN)
	}
	return s
}

// SensorCount returns the number of distinct sensors in the subtree.
func (g *Group) SensorCount() int {
	return len(g.uniqueLeaves())
}

// uniqueLeaves collects the distinct leaves of the subtree in first-
// encounter order.
func (g *Group) uniqueLeaves() []*Leaf {
	seen := make(map[*Leaf]struct{})
	var leaves []*Leaf
	g.collectLeaves(seen, &leaves)
	return leaves
}

func (g *Group) collectLeaves(seen map[*Leaf]struct{}, leaves *[]*Leaf) {
	for _, child := range g.children {
		switch n := child.(type) {
		case *Leaf:
			if _, ok := seen[n]; !ok {
				seen[n] = struct{}{}
				*leaves = append(*leaves, n)
			}
		case *Group:
			n.collectLeaves(seen, leaves)
		}
	}
}

// Accept visits the group, then every child in insertion order.
func (g *Group) Accept(v Visitor) {
	v.VisitGroup(g)
	for _, child := range g.children {
		child.Accept(v)
	}
}

func (g *Group) describe(rb *stringpool.ReportBuilder, depth int) {
	s := g.Stats()
	rb.WriteIndented(depth, stringpool.Sprintf("[%s] (%s): %d sensors, %d data points",
		g.name, g.groupType, g.SensorCount(), s.DataPointCount))
	for _, child := range g.children {
		child.describe(rb, depth+1)
	}
}
