package parser

import (
	"strconv"
	"strings"
	"time"

	"github.com/ajitpratap0/borealis/pkg/errors"
	"github.com/ajitpratap0/borealis/pkg/sensor"
	stringpool "github.com/ajitpratap0/borealis/pkg/strings"
)

// fieldKind identifies the record field a key alias populates.
type fieldKind int

const (
	fieldSerial fieldKind = iota
	fieldTemperature
	fieldHumidity
	fieldBatteryLevel
	fieldBatteryMax
	fieldBatteryMin
	fieldState
	fieldManufacturer
	fieldType
	fieldError
	fieldVoltage
)

// keyAliases maps every accepted key spelling to its target field.
// Matching is ASCII case-insensitive.
var keyAliases = map[string]fieldKind{
	"serial":       fieldSerial,
	"serialnumber": fieldSerial,
	"temp":         fieldTemperature,
	"hum":          fieldHumidity,
	"bat":          fieldBatteryLevel,
	"batlevel":     fieldBatteryLevel,
	"batterylevel": fieldBatteryLevel,
	"batmax":       fieldBatteryMax,
	"batmin":       fieldBatteryMin,
	"state":        fieldState,
	"manu":         fieldManufacturer,
	"manufac":      fieldManufacturer,
	"manufacturer": fieldManufacturer,
	"type":         fieldType,
	"error":        fieldError,
	"v":            fieldVoltage,
	"v2":           fieldVoltage,
	"v3":           fieldVoltage,
}

// aliasList holds the alias spellings ordered longest first so a scan
// position prefers "batterylevel" over "bat" and "manufac" over "manu".
var aliasList = []string{
	"batterylevel",
	"manufacturer",
	"serialnumber",
	"batlevel",
	"manufac",
	"serial",
	"batmax",
	"batmin",
	"error",
	"state",
	"manu",
	"temp",
	"type",
	"bat",
	"hum",
	"v2",
	"v3",
	"v",
}

type token struct {
	field fieldKind
	value string
}

// findKey scans raw from offset from and locates the earliest known key,
// a registered alias immediately followed by ':'. It returns the field
// the key targets, the index where the key starts, and the index of the
// first value byte after the colon.
func findKey(raw string, from int) (fieldKind, int, int, bool) {
	for i := from; i < len(raw); i++ {
		for _, alias := range aliasList {
			end := i + len(alias)
			if end >= len(raw) || raw[end] != ':' {
				continue
			}
			if strings.EqualFold(raw[i:end], alias) {
				return keyAliases[alias], i, end + 1, true
			}
		}
	}
	return 0, 0, 0, false
}

// scanTokens extracts key/value tokens from a raw line. A value runs
// from its key's colon to the start of the next known key or the end of
// the line, with surrounding whitespace trimmed. Tokens are returned in
// line order; leading bytes before the first key are discarded.
func scanTokens(raw string) []token {
	field, _, valueStart, ok := findKey(raw, 0)
	if !ok {
		return nil
	}

	tokens := make([]token, 0, 8)
	for {
		next, nextStart, nextValue, more := findKey(raw, valueStart)
		if !more {
			tokens = append(tokens, token{field: field, value: stringpool.TrimSpace(raw[valueStart:])})
			return tokens
		}
		tokens = append(tokens, token{field: field, value: stringpool.TrimSpace(raw[valueStart:nextStart])})
		field, valueStart = next, nextValue
	}
}

// populate fills a record from scanned tokens. The first token that
// targets a field wins; later duplicates are ignored. Numeric values
// that fail to parse leave the field at zero.
func populate(rec *sensor.Record, tokens []token) {
	seen := make(map[fieldKind]bool, len(tokens))
	for _, t := range tokens {
		if seen[t.field] {
			continue
		}
		seen[t.field] = true

		switch t.field {
		case fieldSerial:
			rec.Serial = t.value
		case fieldTemperature:
			rec.Temperature = parseFloat(t.value)
		case fieldHumidity:
			rec.Humidity = parseFloat(t.value)
		case fieldBatteryLevel:
			rec.BatteryLevel = parseFloat(t.value)
		case fieldBatteryMax:
			rec.BatteryMax = parseFloat(t.value)
		case fieldBatteryMin:
			rec.BatteryMin = parseFloat(t.value)
		case fieldState:
			rec.State = t.value
		case fieldManufacturer:
			rec.Manufacturer = t.value
		case fieldType:
			rec.Type = t.value
		case fieldError:
			rec.Error = t.value
		case fieldVoltage:
			rec.Voltage = parseFloat(t.value)
		}
	}
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseLine runs the shared scan/populate/normalize sequence used by
// every parser once it has claimed a line.
func parseLine(raw string) (*sensor.Record, error) {
	tokens := scanTokens(raw)
	if len(tokens) == 0 {
		return nil, errors.New(errors.ErrorTypeParseMalformed, "no recognizable fields in line")
	}

	rec := &sensor.Record{Timestamp: time.Now()}
	populate(rec, tokens)
	rec.Normalize()
	return rec, nil
}

// hasFoldPrefix reports whether raw begins with prefix, ignoring ASCII
// case. Line prefixes decide which parser claims a line, and keys are
// case-insensitive everywhere else, so the prefix check folds too.
func hasFoldPrefix(raw, prefix string) bool {
	return len(raw) >= len(prefix) && strings.EqualFold(raw[:len(prefix)], prefix)
}
