package parser

import (
	"github.com/ajitpratap0/borealis/pkg/errors"
	"github.com/ajitpratap0/borealis/pkg/sensor"
)

// StandardName is the registry name of the standard parser.
const StandardName = "standard"

const standardPrefix = "serial:"

func init() {
	_ = Register(StandardName, func() Parser { return NewStandardParser() })
}

// StandardParser handles lines that lead with the sensor serial, such
// as "serial:111temp:2450type:tempbat:80batmax:100state:OK".
type StandardParser struct{}

// NewStandardParser creates a new standard parser
func NewStandardParser() *StandardParser {
	return &StandardParser{}
}

// Name returns the registry name of the parser
func (p *StandardParser) Name() string { return StandardName }

// CanParse reports whether the line starts with "serial:"
func (p *StandardParser) CanParse(raw string) bool {
	return hasFoldPrefix(raw, standardPrefix)
}

// Parse extracts and normalizes a record from a serial-first line
func (p *StandardParser) Parse(raw string) (*sensor.Record, error) {
	rec, err := parseLine(raw)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeParseMalformed, "standard parser rejected line")
	}
	return rec, nil
}
