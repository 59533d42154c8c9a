// Package parser turns raw sensor log lines into normalized records.
//
// Each parser claims a line format by its leading key: StandardParser
// handles lines that start with "serial:", ManufacturerFirstParser
// handles lines that start with "manufac:" or "manu:". Once a parser
// claims a line, the body is scanned for key/value tokens so field
// order inside the line never matters. Parsers are stateless and safe
// for concurrent use.
package parser

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/borealis/pkg/errors"
	"github.com/ajitpratap0/borealis/pkg/logger"
	"github.com/ajitpratap0/borealis/pkg/sensor"
)

// Parser converts one raw line into a normalized sensor record.
type Parser interface {
	// Name returns the registry name of the parser.
	Name() string

	// CanParse reports whether this parser claims the raw line.
	CanParse(raw string) bool

	// Parse extracts a record from the raw line. The returned record is
	// already normalized. Parse must only be called when CanParse
	// returned true.
	Parse(raw string) (*sensor.Record, error)
}

// Factory creates a parser instance. Parsers are stateless, so a
// factory takes no arguments.
type Factory func() Parser

// Registry manages parser registration and instantiation. The
// coordinator tries parsers in registration order, so the registry
// preserves insertion order for List and Chain.
type Registry struct {
	factories map[string]Factory
	order     []string
	mu        sync.RWMutex
	logger    *zap.Logger
}

// Global registry instance
var globalRegistry = NewRegistry()

// NewRegistry creates a new parser registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		logger:    logger.Get().With(zap.String("component", "parser_registry")),
	}
}

// Register registers a parser factory under a unique name
func (r *Registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("parser %s already registered", name))
	}

	r.factories[name] = factory
	r.order = append(r.order, name)
	r.logger.Debug("parser registered", zap.String("name", name))
	return nil
}

// Create instantiates a registered parser by name
func (r *Registry) Create(name string) (Parser, error) {
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.New(errors.ErrorTypeConfig, fmt.Sprintf("parser %s not found", name))
	}
	return factory(), nil
}

// List returns registered parser names in registration order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Has checks if a parser is registered
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[name]
	return exists
}

// Chain instantiates every registered parser in registration order.
// The result is what a coordinator iterates when classifying lines.
func (r *Registry) Chain() []Parser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	parsers := make([]Parser, 0, len(r.order))
	for _, name := range r.order {
		parsers = append(parsers, r.factories[name]())
	}
	return parsers
}

// Clear removes all registered parsers (mainly for testing)
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories = make(map[string]Factory)
	r.order = nil
}

// Global registry functions

// Register registers a parser in the global registry
func Register(name string, factory Factory) error {
	return globalRegistry.Register(name, factory)
}

// Create instantiates a parser from the global registry
func Create(name string) (Parser, error) {
	return globalRegistry.Create(name)
}

// List returns registered parsers from the global registry
func List() []string {
	return globalRegistry.List()
}

// Has checks if a parser is registered in the global registry
func Has(name string) bool {
	return globalRegistry.Has(name)
}

// Chain instantiates all parsers from the global registry
func Chain() []Parser {
	return globalRegistry.Chain()
}

// GetRegistry returns the global parser registry instance
func GetRegistry() *Registry {
	return globalRegistry
}
