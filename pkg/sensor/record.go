// Package sensor defines the canonical sensor record produced by parsers
// and consumed by every downstream pipeline component.
package sensor

import (
	"math"
	"time"

	"github.com/google/uuid"

	stringpool "github.com/ajitpratap0/borealis/pkg/strings"
)

// Sensor type values carried in Record.Type.
const (
	// TypeTemperature identifies temperature sensors
	TypeTemperature = "temp"
	// TypeHumidity identifies humidity sensors
	TypeHumidity = "humidity"
	// TypeBattery identifies battery sensors
	TypeBattery = "battery"
	// TypeUnknown is reported for unregistered serials
	TypeUnknown = "unknown"
)

// Record is the canonical, normalized sensor observation. Records are
// immutable once a parser has returned them; downstream components copy
// the struct value instead of mutating shared state.
//
// Zero values mean "absent" for the numeric fields.
type Record struct {
	// Serial uniquely identifies the sensor. May be empty before
	// normalization when the raw line carried only a manufacturer.
	Serial string `json:"serial"`
	// Type is one of temp, humidity, battery, or unknown
	Type string `json:"type,omitempty"`
	// Temperature in °C, 0 means absent
	Temperature float64 `json:"temperature,omitempty"`
	// Humidity in %, 0 means absent
	Humidity float64 `json:"humidity,omitempty"`
	// BatteryLevel is the raw charge reading
	BatteryLevel float64 `json:"battery_level,omitempty"`
	// BatteryMax is the charge reading at full capacity
	BatteryMax float64 `json:"battery_max,omitempty"`
	// BatteryMin is the charge reading at cutoff
	BatteryMin float64 `json:"battery_min,omitempty"`
	// State is the reported device state, lower-cased
	State string `json:"state,omitempty"`
	// Manufacturer as reported on the wire
	Manufacturer string `json:"manufacturer,omitempty"`
	// Error carries a device-reported error string
	Error string `json:"error,omitempty"`
	// Voltage of the device supply
	Voltage float64 `json:"voltage,omitempty"`
	// Timestamp is the wall clock at parse time
	Timestamp time.Time `json:"timestamp"`
}

// Normalize applies the canonical field invariants in place:
//
//   - raw temperatures above 100 are divided by 100 and rounded
//     half-away-from-zero to two decimals
//   - raw humidity above 100 is divided by 10 and rounded to two decimals
//   - State is ASCII lower-cased
//   - an empty Serial with a non-empty Manufacturer is replaced by a
//     synthetic "Unknown-<8 hex>" serial drawn from a random UUID
//
// Normalize is idempotent for in-range readings.
func (r *Record) Normalize() {
	if r.Temperature > 100 {
		r.Temperature = round2(r.Temperature / 100)
	}
	if r.Humidity > 100 {
		r.Humidity = round2(r.Humidity / 10)
	}
	r.State = lowerASCII(r.State)
	if r.Serial == "" && r.Manufacturer != "" {
		r.Serial = syntheticSerial()
	}
}

// HasTemperature reports whether the record carries a temperature reading.
func (r *Record) HasTemperature() bool {
	return r.Temperature > 0
}

// HasHumidity reports whether the record carries a humidity reading.
func (r *Record) HasHumidity() bool {
	return r.Humidity > 0
}

// HasBattery reports whether the record carries a usable battery reading,
// which requires both a level and a full-capacity reference.
func (r *Record) HasBattery() bool {
	return r.BatteryLevel > 0 && r.BatteryMax > 0
}

// BatteryPercent returns the battery charge as a percentage of capacity,
// or 0 when the record has no capacity reference.
func (r *Record) BatteryPercent() float64 {
	if r.BatteryMax <= 0 {
		return 0
	}
	return r.BatteryLevel / r.BatteryMax * 100
}

// String returns a compact single-line form used in logs.
func (r *Record) String() string {
	return stringpool.Sprintf("serial=%s type=%s temp=%.2f hum=%.2f bat=%.1f/%.1f state=%s",
		r.Serial, r.Type, r.Temperature, r.Humidity, r.BatteryLevel, r.BatteryMax, r.State)
}

// IsKnownType reports whether t is one of the recognized sensor types.
func IsKnownType(t string) bool {
	switch t {
	case TypeTemperature, TypeHumidity, TypeBattery:
		return true
	default:
		return false
	}
}

// round2 rounds half away from zero to two decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// lowerASCII lower-cases ASCII letters only, leaving other bytes untouched.
func lowerASCII(s string) string {
	hasUpper := false
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			hasUpper = true
			break
		}
	}
	if !hasUpper {
		return s
	}

	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		b[i] = c
	}
	return string(b)
}

// syntheticSerial builds an "Unknown-<8 hex>" serial from a random UUID.
func syntheticSerial() string {
	return stringpool.Concat("Unknown-", uuid.NewString()[:8])
}
