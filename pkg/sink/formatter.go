package sink

import (
	"sort"
	"sync"

	"github.com/ajitpratap0/borealis/pkg/composite"
	"github.com/ajitpratap0/borealis/pkg/errors"
	"github.com/ajitpratap0/borealis/pkg/json"
	"github.com/ajitpratap0/borealis/pkg/sensor"
	stringpool "github.com/ajitpratap0/borealis/pkg/strings"
)

// Formatter names accepted by the registry and the sinks config section.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// timeLayout is the wall-clock stamp prefixed to text record lines.
const timeLayout = "15:04:05"

// Formatter renders records, aggregated stats, and alert lines into the
// representation a transport writes out. Implementations are stateless
// and safe for concurrent use.
type Formatter interface {
	// Name returns the registry name of the formatter.
	Name() string

	// FormatRecord renders one sensor record.
	FormatRecord(rec *sensor.Record) string

	// FormatStats renders aggregated stats under a display label.
	FormatStats(label string, stats composite.Stats) string

	// FormatAlert renders one alert log line.
	FormatAlert(alert string) string
}

// FormatterFactory builds a formatter instance.
type FormatterFactory func() Formatter

var (
	formatterMu        sync.RWMutex
	formatterFactories = map[string]FormatterFactory{}
)

// RegisterFormatter adds a formatter factory under a unique name.
func RegisterFormatter(name string, factory FormatterFactory) error {
	formatterMu.Lock()
	defer formatterMu.Unlock()

	if _, exists := formatterFactories[name]; exists {
		return errors.New(errors.ErrorTypeConfig,
			stringpool.Sprintf("formatter %s already registered", name))
	}
	formatterFactories[name] = factory
	return nil
}

// NewFormatter instantiates a registered formatter by name.
func NewFormatter(name string) (Formatter, error) {
	formatterMu.RLock()
	factory, exists := formatterFactories[name]
	formatterMu.RUnlock()

	if !exists {
		return nil, errors.New(errors.ErrorTypeNotFound,
			stringpool.Sprintf("formatter %s not found", name))
	}
	return factory(), nil
}

// Formatters returns the registered formatter names, sorted.
func Formatters() []string {
	formatterMu.RLock()
	defer formatterMu.RUnlock()

	names := make([]string, 0, len(formatterFactories))
	for name := range formatterFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	_ = RegisterFormatter(FormatText, func() Formatter { return &TextFormatter{} })
	_ = RegisterFormatter(FormatJSON, func() Formatter { return &JSONFormatter{} })
}

// TextFormatter renders human-readable monitoring log lines.
type TextFormatter struct{}

// Name returns the registry name of the formatter.
func (f *TextFormatter) Name() string { return FormatText }

// FormatRecord renders one record as a bracket-stamped log line listing
// only the readings the record carries.
func (f *TextFormatter) FormatRecord(rec *sensor.Record) string {
	if rec == nil {
		return ""
	}

	b := stringpool.GetBuilder(stringpool.Small)
	defer stringpool.PutBuilder(b, stringpool.Small)

	b.WriteString("[")
	b.WriteString(rec.Timestamp.Format(timeLayout))
	b.WriteString("] Sensor ")
	b.WriteString(rec.Serial)
	if rec.Type != "" {
		b.WriteString(" (")
		b.WriteString(rec.Type)
		b.WriteString(")")
	}
	b.WriteString(":")

	readings := 0
	field := func(label, value string) {
		if readings > 0 {
			b.WriteString(",")
		}
		b.WriteString(" ")
		b.WriteString(label)
		b.WriteString(" ")
		b.WriteString(value)
		readings++
	}

	if rec.HasTemperature() {
		field("temperature", stringpool.Sprintf("%.2f°C", rec.Temperature))
	}
	if rec.HasHumidity() {
		field("humidity", stringpool.Sprintf("%.2f%%", rec.Humidity))
	}
	if rec.HasBattery() {
		field("battery", stringpool.Sprintf("%.1f%%", rec.BatteryPercent()))
	}
	if rec.State != "" {
		field("state", rec.State)
	}
	if rec.Error != "" {
		field("error", rec.Error)
	}
	if readings == 0 {
		b.WriteString(" no readings")
	}

	return stringpool.Clone(b.String())
}

// FormatStats renders aggregated stats as a one-line summary, skipping
// mean fields with no readings behind them.
func (f *TextFormatter) FormatStats(label string, stats composite.Stats) string {
	b := stringpool.GetBuilder(stringpool.Small)
	defer stringpool.PutBuilder(b, stringpool.Small)

	b.WriteString("[")
	b.WriteString(label)
	b.WriteString("] ")
	b.WriteString(stringpool.Sprintf("%d data points", stats.DataPointCount))

	if stats.Temperature > 0 {
		b.WriteString(stringpool.Sprintf(", temperature %.2f°C", stats.Temperature))
	}
	if stats.Humidity > 0 {
		b.WriteString(stringpool.Sprintf(", humidity %.2f%%", stats.Humidity))
	}
	if stats.BatteryLevel > 0 {
		b.WriteString(stringpool.Sprintf(", battery %.1f%%", stats.BatteryLevel))
	}

	return stringpool.Clone(b.String())
}

// FormatAlert passes the already-formatted alert line through.
func (f *TextFormatter) FormatAlert(alert string) string { return alert }

// JSONFormatter renders records and stats as single-line JSON objects.
type JSONFormatter struct{}

// Name returns the registry name of the formatter.
func (f *JSONFormatter) Name() string { return FormatJSON }

// FormatRecord renders one record as a JSON object.
func (f *JSONFormatter) FormatRecord(rec *sensor.Record) string {
	if rec == nil {
		return ""
	}
	return marshalLine(rec)
}

// statsLine is the JSON envelope for labeled aggregated stats.
type statsLine struct {
	Label string          `json:"label"`
	Stats composite.Stats `json:"stats"`
}

// FormatStats renders labeled stats as a JSON object.
func (f *JSONFormatter) FormatStats(label string, stats composite.Stats) string {
	return marshalLine(statsLine{Label: label, Stats: stats})
}

// alertLine is the JSON envelope for one alert.
type alertLine struct {
	Alert string `json:"alert"`
}

// FormatAlert wraps the alert line in a JSON object.
func (f *JSONFormatter) FormatAlert(alert string) string {
	return marshalLine(alertLine{Alert: alert})
}

// marshalLine serializes v, surfacing the impossible-in-practice
// marshal failure as a JSON error object rather than dropping output.
func marshalLine(v interface{}) string {
	out, err := json.MarshalString(v)
	if err != nil {
		return stringpool.Sprintf(`{"error":%q}`, err.Error())
	}
	return out
}
