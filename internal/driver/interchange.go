package driver

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"val/internal/ast"
	"val/internal/types"
)

// interchangeSchemaVersion is bumped whenever Interchange or the AST and type
// table layouts change.
const interchangeSchemaVersion uint16 = 1

// ErrSchemaMismatch is returned when decoding a file written with another
// schema version.
var ErrSchemaMismatch = errors.New("interchange schema mismatch")

// Interchange is the on-disk form (.valm) of a checked module: its AST
// together with the type table its TypeIDs index.
type Interchange struct {
	Schema uint16
	Module *ast.Module
	Types  types.Snapshot
}

// Encode writes m and the type table in to w.
func Encode(w io.Writer, m *ast.Module, in *types.Interner) error {
	payload := Interchange{
		Schema: interchangeSchemaVersion,
		Module: m,
		Types:  in.Snapshot(),
	}
	if err := msgpack.NewEncoder(w).Encode(&payload); err != nil {
		return fmt.Errorf("driver: encode %s: %w", m.Name, err)
	}
	return nil
}

// Decode reads a module and rebuilds its type table.
func Decode(r io.Reader) (*ast.Module, *types.Interner, error) {
	var payload Interchange
	if err := msgpack.NewDecoder(r).Decode(&payload); err != nil {
		return nil, nil, fmt.Errorf("driver: decode: %w", err)
	}
	if payload.Schema != interchangeSchemaVersion {
		return nil, nil, fmt.Errorf("driver: %w: got %d, want %d", ErrSchemaMismatch, payload.Schema, interchangeSchemaVersion)
	}
	if payload.Module == nil {
		return nil, nil, errors.New("driver: decode: missing module")
	}
	in, err := types.FromSnapshot(payload.Types)
	if err != nil {
		return nil, nil, fmt.Errorf("driver: decode %s: %w", payload.Module.Name, err)
	}
	return payload.Module, in, nil
}

// LoadFile decodes the .valm file at path into a new driver and loads its
// module.
func LoadFile(path string) (*Driver, *ast.Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()
	m, in, err := Decode(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	d := New(in)
	if err := d.Load(m); err != nil {
		return nil, nil, err
	}
	return d, m, nil
}

// WriteFile encodes m into the file at path.
func WriteFile(path string, m *ast.Module, in *types.Interner) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return Encode(f, m, in)
}
