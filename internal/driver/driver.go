// Package driver manages the modules handed over by the front end and
// lowers them to VIL.
package driver

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"val/internal/ast"
	"val/internal/observ"
	"val/internal/types"
)

var (
	// ErrModuleAlreadyLoaded is returned by Load for a name already in use.
	ErrModuleAlreadyLoaded = errors.New("module already loaded")
	// ErrModuleNotFound is returned for a name that was never loaded.
	ErrModuleNotFound = errors.New("module not found")
	// ErrModuleNotTypeChecked is returned when lowering a module the front
	// end did not finish checking.
	ErrModuleNotTypeChecked = errors.New("module is not type-checked")
)

// Driver owns the type table shared by its modules. Load and Lower may be
// called concurrently.
type Driver struct {
	Types *types.Interner
	// Timer, when set, records a phase per lowered module.
	Timer *observ.Timer

	mu      sync.RWMutex
	modules map[string]*ast.Module
}

// New creates a driver over in, or over a fresh interner when in is nil.
func New(in *types.Interner) *Driver {
	if in == nil {
		in = types.NewInterner()
	}
	return &Driver{Types: in, modules: make(map[string]*ast.Module)}
}

// Load registers m under its name.
func (d *Driver) Load(m *ast.Module) error {
	if m == nil {
		return errors.New("driver: nil module")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.modules[m.Name]; ok {
		return fmt.Errorf("driver: %w: %s", ErrModuleAlreadyLoaded, m.Name)
	}
	d.modules[m.Name] = m
	return nil
}

// Module returns the module loaded under name.
func (d *Driver) Module(name string) (*ast.Module, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	m, ok := d.modules[name]
	return m, ok
}

// Modules returns the names of the loaded modules, sorted.
func (d *Driver) Modules() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.modules))
	for name := range d.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
