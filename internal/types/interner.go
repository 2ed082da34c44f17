package types

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for types every session needs.
type Builtins struct {
	Invalid    TypeID
	Error      TypeID
	Unresolved TypeID
	IntLiteral TypeID
	Unit       TypeID
	Bool       TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
//
// One interner is owned by a compilation session and threaded by reference to
// every phase that creates or compares types. It is safe for concurrent use.
type Interner struct {
	mu       sync.RWMutex
	types    []Type
	index    map[typeKey]TypeID
	tuples   []TupleInfo
	tupleIdx map[string]TypeID
	nominals []NominalInfo
	builtins Builtins
	named    map[string]TypeID
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index:    make(map[typeKey]TypeID, 64),
		tupleIdx: make(map[string]TypeID, 16),
		named:    make(map[string]TypeID, 8),
	}
	in.tuples = append(in.tuples, TupleInfo{}) // reserve 0 as invalid sentinel
	in.nominals = append(in.nominals, NominalInfo{})
	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.builtins.Error = in.Intern(Type{Kind: KindError})
	in.builtins.Unresolved = in.Intern(Type{Kind: KindUnresolved})
	in.builtins.IntLiteral = in.Intern(Type{Kind: KindBuiltinIntLiteral})
	in.builtins.Unit = in.Tuple(nil)
	in.builtins.Bool = in.Intern(MakeBuiltinInt(1))
	in.named[intLiteralName] = in.builtins.IntLiteral
	in.named["i1"] = in.builtins.Bool
	return in
}

const intLiteralName = "IntLiteral"

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
//
// Nominal and tuple descriptors must go through RegisterProduct, RegisterView
// and Tuple; their identity is not structural on the descriptor alone.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := typeKey(t)
	in.mu.RLock()
	id, ok := in.index[key]
	in.mu.RUnlock()
	if ok {
		return id
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internLocked(t)
}

// internRaw adds the descriptor to the storage without consulting the map.
func (in *Interner) internRaw(t Type) TypeID {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.internLocked(t)
}

func (in *Interner) internLocked(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[typeKey(t)] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// Len reports how many descriptors are stored, including the invalid sentinel.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.types)
}

// Builtin returns the built-in type with the given name: "IntLiteral" or
// "i<N>" for 0 < N <= 64.
func (in *Interner) Builtin(name string) (TypeID, bool) {
	in.mu.RLock()
	id, ok := in.named[name]
	in.mu.RUnlock()
	if ok {
		return id, true
	}
	rest, isInt := strings.CutPrefix(name, "i")
	if !isInt || rest == "" || rest[0] < '1' || rest[0] > '9' {
		return NoTypeID, false
	}
	bits, err := strconv.Atoi(rest)
	if err != nil || bits <= 0 || bits > int(MaxIntWidth) {
		return NoTypeID, false
	}
	width, err := safecast.Conv[uint8](bits)
	if err != nil {
		return NoTypeID, false
	}
	id = in.Intern(MakeBuiltinInt(Width(width)))
	in.mu.Lock()
	in.named[name] = id
	in.mu.Unlock()
	return id, true
}

// BuiltinAssignOperator returns the type of the assignment operator of a
// builtin type: (T, T) -> T.
func (in *Interner) BuiltinAssignOperator(t TypeID) TypeID {
	return in.Fun(in.Tuple([]TupleElem{{Type: t}, {Type: t}}), t)
}

// Fun returns the function type from params to result.
func (in *Interner) Fun(params, result TypeID) TypeID {
	return in.Intern(MakeFun(params, result))
}

// Inout returns `inout base`; inout of inout collapses.
func (in *Interner) Inout(base TypeID) TypeID {
	if tt, ok := in.Lookup(base); ok && tt.Kind == KindInout {
		return base
	}
	return in.Intern(MakeInout(base))
}

// Opened returns the opened-existential type of a view.
func (in *Interner) Opened(view TypeID) TypeID {
	return in.Intern(MakeOpened(view))
}

// Strip removes an outer inout.
func (in *Interner) Strip(id TypeID) TypeID {
	if tt, ok := in.Lookup(id); ok && tt.Kind == KindInout {
		return tt.Elem
	}
	return id
}

type typeKey struct {
	Kind    Kind
	Elem    TypeID
	Result  TypeID
	Width   Width
	Payload uint32
}
