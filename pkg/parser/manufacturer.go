package parser

import (
	"github.com/ajitpratap0/borealis/pkg/errors"
	"github.com/ajitpratap0/borealis/pkg/sensor"
)

// ManufacturerFirstName is the registry name of the manufacturer-first parser.
const ManufacturerFirstName = "manufacturer-first"

var manufacturerPrefixes = []string{"manufac:", "manu:"}

func init() {
	_ = Register(ManufacturerFirstName, func() Parser { return NewManufacturerFirstParser() })
}

// ManufacturerFirstParser handles lines that lead with the manufacturer,
// such as "manu:Qualcommserial:333temp:2455state:OK". The serial and the
// remaining fields follow anywhere in the body; sensors that report no
// serial at all get a synthetic one during normalization.
type ManufacturerFirstParser struct{}

// NewManufacturerFirstParser creates a new manufacturer-first parser
func NewManufacturerFirstParser() *ManufacturerFirstParser {
	return &ManufacturerFirstParser{}
}

// Name returns the registry name of the parser
func (p *ManufacturerFirstParser) Name() string { return ManufacturerFirstName }

// CanParse reports whether the line starts with "manufac:" or "manu:"
func (p *ManufacturerFirstParser) CanParse(raw string) bool {
	for _, prefix := range manufacturerPrefixes {
		if hasFoldPrefix(raw, prefix) {
			return true
		}
	}
	return false
}

// Parse extracts and normalizes a record from a manufacturer-first line
func (p *ManufacturerFirstParser) Parse(raw string) (*sensor.Record, error) {
	rec, err := parseLine(raw)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeParseMalformed, "manufacturer-first parser rejected line")
	}
	return rec, nil
}
