package composite

import (
	"io"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/borealis/pkg/errors"
	"github.com/ajitpratap0/borealis/pkg/logger"
	"github.com/ajitpratap0/borealis/pkg/sensor"
	stringpool "github.com/ajitpratap0/borealis/pkg/strings"
)

// RootKey is the group key that resolves to root aggregation.
const RootKey = "root"

// Names and labels of the fixed tree members.
const (
	rootName          = "All Sensors"
	rootType          = "Root"
	tempGroupName     = "Temperature Sensors"
	humidityGroupName = "Humidity Sensors"
	manufacturerLabel = "Manufacturer"
)

// defaultPrefixes is the built-in serial-prefix table used when the
// manager is constructed without one.
var defaultPrefixes = map[string]string{
	"1": "Qualcomm",
	"2": "Texas Instruments",
	"3": "NXP",
	"9": "Infineon",
}

// Manager owns the aggregation tree. It creates leaves on first sight
// of a serial, links typed leaves into their type group, and offers
// aggregate queries and visitor traversal over the tree. All methods
// are safe for concurrent use; a single mutex serializes access.
type Manager struct {
	mu         sync.Mutex
	root       *Group
	leaves     map[string]*Leaf  // serial → leaf
	leafOrder  []*Leaf           // leaves in first-sight order
	groups     map[string]*Group // display name → group
	typeGroups map[string]*Group // sensor type → pre-seeded group
	prefixes   map[string]string // serial prefix → manufacturer tag
	logger     *zap.Logger
}

// NewManager builds a tree with the root group pre-seeded with the
// temperature and humidity type groups. A nil prefix table selects the
// built-in manufacturer prefixes.
func NewManager(prefixes map[string]string) *Manager {
	if prefixes == nil {
		prefixes = defaultPrefixes
	}

	root := NewGroup(rootName, rootType)
	tempGroup := NewGroup(tempGroupName, sensor.TypeTemperature)
	humGroup := NewGroup(humidityGroupName, sensor.TypeHumidity)
	root.AddChild(tempGroup)
	root.AddChild(humGroup)

	return &Manager{
		root:   root,
		leaves: make(map[string]*Leaf),
		groups: map[string]*Group{
			tempGroupName:     tempGroup,
			humidityGroupName: humGroup,
		},
		typeGroups: map[string]*Group{
			sensor.TypeTemperature: tempGroup,
			sensor.TypeHumidity:    humGroup,
		},
		prefixes: prefixes,
		logger:   logger.Get().With(zap.String("component", "composite")),
	}
}

// AddRecord indexes one record into the tree. Records without a serial
// are ignored. The first record of a new serial creates a leaf under
// root; records carrying a known type also link the leaf into the
// matching type group when one exists. It reports whether the record
// was stored.
func (m *Manager) AddRecord(rec *sensor.Record) bool {
	if rec == nil || rec.Serial == "" {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	leaf, ok := m.leaves[rec.Serial]
	if !ok {
		leaf = NewLeaf(rec.Serial)
		m.leaves[rec.Serial] = leaf
		m.leafOrder = append(m.leafOrder, leaf)
		m.root.AddChild(leaf)
		m.logger.Debug("leaf created", zap.String("serial", rec.Serial))
	}

	if sensor.IsKnownType(rec.Type) {
		if group, exists := m.typeGroups[rec.Type]; exists {
			group.AddChild(leaf)
		}
	}

	return leaf.AddData(rec)
}

// Root returns the root group.
func (m *Manager) Root() *Group {
	return m.root
}

// SensorCount returns the number of distinct sensors in the tree.
func (m *Manager) SensorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.leaves)
}

// GetGroupStats computes the aggregated statistics of a group. The key
// RootKey selects the root; any other key must match a group's display
// name or a sensor type with a pre-seeded group.
func (m *Manager) GetGroupStats(key string) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	group, err := m.lookupGroup(key)
	if err != nil {
		return Stats{}, err
	}
	return group.Stats(), nil
}

// GroupNames returns the display names of every group except root,
// sorted for stable output.
func (m *Manager) GroupNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.groups))
	for name := range m.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// lookupGroup resolves a group key under the held lock.
func (m *Manager) lookupGroup(key string) (*Group, error) {
	if key == RootKey {
		return m.root, nil
	}
	if group, ok := m.groups[key]; ok {
		return group, nil
	}
	if group, ok := m.typeGroups[key]; ok {
		return group, nil
	}
	return nil, errors.New(errors.ErrorTypeNotFound, "unknown group").WithDetail("key", key)
}

// OrganizeByManufacturer partitions the known leaves into custom
// manufacturer groups derived from each serial's first character via
// the prefix table. Groups are created under root on demand and named
// "Manufacturer: <tag>"; serials with no table entry fall under
// "Manufacturer: Unknown". Leaves keep their other group memberships.
func (m *Manager) OrganizeByManufacturer() {
	m.mu.Lock()
	defer m.mu.Unlock()

	created := 0
	for _, leaf := range m.leafOrder {
		tag := m.manufacturerTag(leaf.Serial())
		name := stringpool.Concat(manufacturerLabel, ": ", tag)

		group, ok := m.groups[name]
		if !ok {
			group = NewGroup(name, manufacturerLabel)
			m.groups[name] = group
			m.root.AddChild(group)
			created++
		}
		group.AddChild(leaf)
	}

	m.logger.Info("organized leaves by manufacturer",
		zap.Int("leaves", len(m.leafOrder)),
		zap.Int("groups_created", created))
}

// manufacturerTag maps a serial to its manufacturer tag via the prefix
// table. Serials are matched on their first character.
func (m *Manager) manufacturerTag(serial string) string {
	if serial != "" {
		if tag, ok := m.prefixes[serial[:1]]; ok {
			return tag
		}
	}
	return "Unknown"
}

// Display writes an indented dump of the whole tree in insertion
// order: each group with its sensor and data-point totals, each leaf
// with its reading count and field means.
func (m *Manager) Display(w io.Writer) error {
	m.mu.Lock()
	rb := stringpool.NewReportBuilder(len(m.leaves) + len(m.groups) + 4)
	m.root.describe(rb, 0)
	report := rb.String()
	rb.Close()
	m.mu.Unlock()

	if _, err := io.WriteString(w, report); err != nil {
		return errors.Wrap(err, errors.ErrorTypeSinkIO, "failed to write composite display")
	}
	return nil
}

// ApplyVisitor resets the visitor, walks it over the tree starting at
// root, and returns its result. The walk holds the manager lock, so
// visitors must not call back into the manager.
func (m *Manager) ApplyVisitor(v Visitor) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	v.Reset()
	m.root.Accept(v)
	return v.Result()
}
