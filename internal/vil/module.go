package vil

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"val/internal/types"
)

// ErrDuplicateFunction reports an attempt to add a second function with an
// existing name.
var ErrDuplicateFunction = errors.New("vil: duplicate function")

// ErrDuplicateWitnessTable reports a second table for the same conformance.
var ErrDuplicateWitnessTable = errors.New("vil: duplicate witness table")

// Module is the IR lowered from one module declaration. It owns its functions
// and witness tables.
type Module struct {
	Name string
	// Types is the type table shared with the front end.
	Types *types.Interner

	Functions     map[string]*Function
	WitnessTables []*WitnessTable
}

// WitnessTable maps the requirements of a view to the functions implementing
// them for one conforming type.
type WitnessTable struct {
	Name string
	// Type is the conforming type, View the view it conforms to.
	Type    types.TypeID
	View    types.TypeID
	Entries []WitnessEntry
}

// WitnessEntry binds one requirement to a function by name.
type WitnessEntry struct {
	Requirement DeclRef
	Function    string
}

// Lookup returns the function implementing a requirement.
func (w *WitnessTable) Lookup(req uint32) (string, bool) {
	for _, e := range w.Entries {
		if e.Requirement.ID == req {
			return e.Function, true
		}
	}
	return "", false
}

// WitnessTableName is the canonical name of the table for `t: view`.
func WitnessTableName(in *types.Interner, t, view types.TypeID) string {
	return types.Label(in, t) + ": " + types.Label(in, view)
}

// NewModule creates an empty module.
func NewModule(name string, in *types.Interner) *Module {
	return &Module{
		Name:      name,
		Types:     in,
		Functions: make(map[string]*Function),
	}
}

// Function returns the function named name.
func (m *Module) Function(name string) (*Function, bool) {
	f, ok := m.Functions[name]
	return f, ok
}

// AddFunction inserts f, failing if its name is taken.
func (m *Module) AddFunction(f *Function) error {
	if _, ok := m.Functions[f.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateFunction, f.Name)
	}
	m.Functions[f.Name] = f
	return nil
}

// GetOrCreateFunction returns the function named name, creating a declaration
// of type t when it does not exist. An existing function of another type is
// an error.
func (m *Module) GetOrCreateFunction(name string, t Type, debugName string) (*Function, error) {
	if f, ok := m.Functions[name]; ok {
		if f.Type != t {
			return nil, fmt.Errorf("%w: %s redeclared as %s (was %s)",
				ErrDuplicateFunction, name, t.Format(m.Types), f.Type.Format(m.Types))
		}
		return f, nil
	}
	f := NewFunction(name, t, debugName)
	m.Functions[name] = f
	return f, nil
}

// SortedFunctions returns the functions in ascending name order.
func (m *Module) SortedFunctions() []*Function {
	fns := make([]*Function, 0, len(m.Functions))
	for _, f := range m.Functions {
		fns = append(fns, f)
	}
	slices.SortFunc(fns, func(a, b *Function) int {
		return strings.Compare(a.Name, b.Name)
	})
	return fns
}

// AddWitnessTable appends w, failing if the conformance already has a table.
func (m *Module) AddWitnessTable(w *WitnessTable) error {
	if _, ok := m.WitnessTable(w.Type, w.View); ok {
		return fmt.Errorf("%w: %s", ErrDuplicateWitnessTable, w.Name)
	}
	m.WitnessTables = append(m.WitnessTables, w)
	return nil
}

// WitnessTable returns the table of `t: view`.
func (m *Module) WitnessTable(t, view types.TypeID) (*WitnessTable, bool) {
	for _, w := range m.WitnessTables {
		if w.Type == t && w.View == view {
			return w, true
		}
	}
	return nil, false
}

// WitnessTableNamed returns the table with the given name.
func (m *Module) WitnessTableNamed(name string) (*WitnessTable, bool) {
	for _, w := range m.WitnessTables {
		if w.Name == name {
			return w, true
		}
	}
	return nil, false
}
