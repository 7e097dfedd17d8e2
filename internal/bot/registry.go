package bot

import (
	"errors"
	"fmt"
	"sync"
)

// Registry holds registered modules in registration order.
// Module names are unique within a registry.
type Registry struct {
	mu      sync.RWMutex
	modules []Module
}

// NewRegistry creates a new module registry.
func NewRegistry() *Registry {
	return &Registry{
		modules: make([]Module, 0),
	}
}

// Register adds a module to the registry.
// It panics if a module with the same name is already registered.
func (r *Registry) Register(m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.modules {
		if existing.Name() == m.Name() {
			panic(fmt.Sprintf("bot: module %q registered twice", m.Name()))
		}
	}
	r.modules = append(r.modules, m)
}

// Modules returns a snapshot of all registered modules.
func (r *Registry) Modules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Module, len(r.modules))
	copy(result, r.modules)
	return result
}

// Lookup returns the module registered under name.
func (r *Registry) Lookup(name string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.modules {
		if m.Name() == name {
			return m, true
		}
	}
	return nil, false
}

// LoadConfigs calls LoadConfig on every ConfigurableModule in modules, in order.
// Every module is tried so that all invalid settings are reported at once.
func LoadConfigs(modules []Module) error {
	var errs []error
	for _, mod := range modules {
		configurable, ok := mod.(ConfigurableModule)
		if !ok {
			continue
		}
		if err := configurable.LoadConfig(); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s module configuration: %w", mod.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Global registry instance for module self-registration via init()
var globalRegistry = NewRegistry()

// Register adds a module to the global registry.
// Modules call it from their init() functions.
func Register(m Module) {
	globalRegistry.Register(m)
}

// Modules returns all modules from the global registry.
func Modules() []Module {
	return globalRegistry.Modules()
}

// Lookup returns the globally registered module named name.
func Lookup(name string) (Module, bool) {
	return globalRegistry.Lookup(name)
}

// ResetGlobalRegistry resets the global registry.
// This is intended for testing purposes only.
func ResetGlobalRegistry() {
	globalRegistry = NewRegistry()
}
