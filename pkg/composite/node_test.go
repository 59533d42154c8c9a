package composite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/borealis/pkg/sensor"
)

func tempRecord(serial string, temp float64) *sensor.Record {
	return &sensor.Record{
		Serial:      serial,
		Type:        sensor.TypeTemperature,
		Temperature: temp,
		Timestamp:   time.Now(),
	}
}

func humidityRecord(serial string, hum float64) *sensor.Record {
	return &sensor.Record{
		Serial:    serial,
		Type:      sensor.TypeHumidity,
		Humidity:  hum,
		Timestamp: time.Now(),
	}
}

func batteryRecord(serial string, level, max float64) *sensor.Record {
	return &sensor.Record{
		Serial:       serial,
		Type:         sensor.TypeBattery,
		BatteryLevel: level,
		BatteryMax:   max,
		Timestamp:    time.Now(),
	}
}

func TestLeafAcceptsOnlyOwnSerial(t *testing.T) {
	leaf := NewLeaf("111")

	assert.True(t, leaf.AddData(tempRecord("111", 24.5)))
	assert.False(t, leaf.AddData(tempRecord("222", 24.5)))
	assert.False(t, leaf.AddData(nil))

	assert.Equal(t, 1, leaf.Stats().DataPointCount)
}

func TestLeafNameAndTypePromotion(t *testing.T) {
	leaf := NewLeaf("111")
	assert.Equal(t, "Sensor 111", leaf.Name())
	assert.Equal(t, sensor.TypeUnknown, leaf.Type())

	leaf.AddData(&sensor.Record{Serial: "111", Temperature: 20})
	assert.Equal(t, sensor.TypeUnknown, leaf.Type(), "typeless record must not promote")

	leaf.AddData(tempRecord("111", 24.5))
	assert.Equal(t, sensor.TypeTemperature, leaf.Type())
}

func TestLeafHistoryIsACopy(t *testing.T) {
	leaf := NewLeaf("111")
	leaf.AddData(tempRecord("111", 20))

	history := leaf.History()
	require.Len(t, history, 1)
	history[0].Temperature = 99

	assert.Equal(t, 20.0, leaf.History()[0].Temperature)
}

func TestLeafStatsMeansOverPresentFields(t *testing.T) {
	leaf := NewLeaf("111")
	leaf.AddData(tempRecord("111", 20))
	leaf.AddData(tempRecord("111", 30))
	leaf.AddData(humidityRecord("111", 40))
	leaf.AddData(batteryRecord("111", 30, 100))
	leaf.AddData(batteryRecord("111", 50, 100))

	s := leaf.Stats()
	assert.Equal(t, 5, s.DataPointCount)
	assert.InDelta(t, 25.0, s.Temperature, 1e-9, "mean over temperature records only")
	assert.InDelta(t, 40.0, s.Humidity, 1e-9)
	assert.InDelta(t, 40.0, s.BatteryLevel, 1e-9, "mean of battery percentages")
	assert.Equal(t, 1, leaf.SensorCount())
}

func TestLeafStatsEmptyHistory(t *testing.T) {
	s := NewLeaf("111").Stats()
	assert.Equal(t, Stats{}, s)
}

func TestGroupAddChildIsSetLike(t *testing.T) {
	group := NewGroup("Temperature Sensors", sensor.TypeTemperature)
	leaf := NewLeaf("111")

	assert.True(t, group.AddChild(leaf))
	assert.False(t, group.AddChild(leaf), "second insertion of the same node")
	assert.False(t, group.AddChild(nil))
	assert.False(t, group.AddChild(group), "group cannot contain itself")

	assert.Len(t, group.Children(), 1)
}

func TestGroupAddDataFansOut(t *testing.T) {
	group := NewGroup("All Sensors", "Root")
	a := NewLeaf("111")
	b := NewLeaf("222")
	group.AddChild(a)
	group.AddChild(b)

	assert.True(t, group.AddData(tempRecord("111", 24.5)))
	assert.False(t, group.AddData(tempRecord("999", 24.5)), "no child claims the serial")

	assert.Equal(t, 1, a.Stats().DataPointCount)
	assert.Equal(t, 0, b.Stats().DataPointCount)
}

func TestGroupStatsCountsSharedLeafOnce(t *testing.T) {
	root := NewGroup("All Sensors", "Root")
	sub := NewGroup("Temperature Sensors", sensor.TypeTemperature)
	leaf := NewLeaf("111")

	root.AddChild(sub)
	root.AddChild(leaf)
	sub.AddChild(leaf)

	leaf.AddData(tempRecord("111", 20))
	leaf.AddData(tempRecord("111", 30))

	s := root.Stats()
	assert.Equal(t, 2, s.DataPointCount, "shared leaf history counted once")
	assert.Equal(t, 1, root.SensorCount())
	assert.InDelta(t, 25.0, s.Temperature, 1e-9)
}

func TestGroupStatsAveragesChildMeans(t *testing.T) {
	group := NewGroup("Temperature Sensors", sensor.TypeTemperature)

	hot := NewLeaf("111")
	hot.AddData(tempRecord("111", 30))
	cold := NewLeaf("222")
	cold.AddData(tempRecord("222", 10))
	silent := NewLeaf("333")

	group.AddChild(hot)
	group.AddChild(cold)
	group.AddChild(silent)

	s := group.Stats()
	assert.Equal(t, 2, s.DataPointCount)
	assert.Equal(t, 3, group.SensorCount())
	assert.InDelta(t, 20.0, s.Temperature, 1e-9, "children without a mean are skipped")
}

func TestGroupChildrenIsACopy(t *testing.T) {
	group := NewGroup("All Sensors", "Root")
	group.AddChild(NewLeaf("111"))

	children := group.Children()
	require.Len(t, children, 1)
	children[0] = nil

	assert.NotNil(t, group.Children()[0])
}

// orderVisitor records node names in visit order.
type orderVisitor struct {
	names []string
}

func (o *orderVisitor) VisitLeaf(l *Leaf)   { o.names = append(o.names, l.Name()) }
func (o *orderVisitor) VisitGroup(g *Group) { o.names = append(o.names, g.Name()) }
func (o *orderVisitor) Reset()              { o.names = o.names[:0] }
func (o *orderVisitor) Result() string      { return "" }

func TestAcceptVisitsGroupBeforeChildrenInInsertionOrder(t *testing.T) {
	root := NewGroup("All Sensors", "Root")
	sub := NewGroup("Temperature Sensors", sensor.TypeTemperature)
	leaf := NewLeaf("111")

	root.AddChild(sub)
	sub.AddChild(leaf)
	root.AddChild(NewLeaf("222"))

	v := &orderVisitor{}
	root.Accept(v)

	assert.Equal(t, []string{
		"All Sensors",
		"Temperature Sensors",
		"Sensor 111",
		"Sensor 222",
	}, v.names)
}
