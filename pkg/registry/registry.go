// Package registry maintains the process-wide mapping from sensor
// serial numbers to their reported types. The pipeline coordinator
// registers every record that carries both a serial and a type, so the
// registry converges on the latest known classification of each sensor.
//
// All operations are safe for concurrent use. Reads return copies,
// never references into internal state.
package registry

import (
	"sync"

	"github.com/ajitpratap0/borealis/pkg/sensor"
)

// Registry is a thread-safe serial → type mapping. Keys are unique;
// registering an existing serial overwrites its type.
type Registry struct {
	mu    sync.RWMutex
	types map[string]string
}

// New creates an empty registry. Most callers construct one per
// coordinator; Default exists for code that needs the process-wide
// instance.
func New() *Registry {
	return &Registry{
		types: make(map[string]string),
	}
}

// Register records the type reported for a serial. Registering the
// same pair again is a no-op in effect; a different type overwrites
// the previous one.
func (r *Registry) Register(serial, sensorType string) {
	if serial == "" || sensorType == "" {
		return
	}

	r.mu.Lock()
	r.types[serial] = sensorType
	r.mu.Unlock()
}

// Get returns the registered type for a serial, or sensor.TypeUnknown
// when the serial has never been registered.
func (r *Registry) Get(serial string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if t, ok := r.types[serial]; ok {
		return t
	}
	return sensor.TypeUnknown
}

// Has reports whether a serial has been registered.
func (r *Registry) Has(serial string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[serial]
	return ok
}

// Snapshot returns a copy of the full mapping. Mutating the returned
// map does not affect the registry.
func (r *Registry) Snapshot() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make(map[string]string, len(r.types))
	for serial, t := range r.types {
		snapshot[serial] = t
	}
	return snapshot
}

// Count returns the number of registered serials.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}

var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
	defaultMu       sync.Mutex
)

// Default returns the process-wide registry, creating it on first use.
// New construction plus injection is preferred; Default exists for
// call sites without access to a coordinator.
func Default() *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	defaultOnce.Do(func() {
		defaultRegistry = New()
	})
	return defaultRegistry
}

// ResetDefault discards the process-wide registry so the next Default
// call creates a fresh one. Intended for tests.
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	defaultRegistry = nil
	defaultOnce = sync.Once{}
}
