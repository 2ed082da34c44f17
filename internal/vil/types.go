package vil

import "val/internal/types"

// Type is the IR type of a value: a source type, either as an object or as
// the address of an object. Two types are equal iff both parts are equal;
// source types are hash-consed so == is structural equality.
type Type struct {
	source  types.TypeID
	address bool
}

// Object returns the object type of t.
func Object(t types.TypeID) Type {
	return Type{source: t}
}

// Address returns the address-of-object type of t.
func Address(t types.TypeID) Type {
	return Type{source: t, address: true}
}

// Lower maps a source type to its IR type. `inout T` lowers to the address of
// T; every other type lowers to an object.
func Lower(in *types.Interner, t types.TypeID) Type {
	if tt, ok := in.Lookup(t); ok && tt.Kind == types.KindInout {
		return Address(tt.Elem)
	}
	return Object(t)
}

// Source returns the underlying source type.
func (t Type) Source() types.TypeID { return t.source }

// IsAddress reports whether t is an address type.
func (t Type) IsAddress() bool { return t.address }

// IsValid reports whether t names a type.
func (t Type) IsValid() bool { return t.source != types.NoTypeID }

// ObjectType strips the address flag.
func (t Type) ObjectType() Type { return Type{source: t.source} }

// Format renders t as `$T` for objects and `*T` for addresses.
func (t Type) Format(in *types.Interner) string {
	if !t.IsValid() {
		return "<none>"
	}
	if t.address {
		return "*" + types.Label(in, t.source)
	}
	return "$" + types.Label(in, t.source)
}
