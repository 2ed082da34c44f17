package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindError
	KindUnresolved
	KindBuiltinIntLiteral
	KindBuiltinInt
	KindProduct
	KindView
	KindTuple
	KindFun
	KindInout
	KindOpened
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindError:
		return "error"
	case KindUnresolved:
		return "unresolved"
	case KindBuiltinIntLiteral:
		return "int_literal"
	case KindBuiltinInt:
		return "builtin_int"
	case KindProduct:
		return "product"
	case KindView:
		return "view"
	case KindTuple:
		return "tuple"
	case KindFun:
		return "fun"
	case KindInout:
		return "inout"
	case KindOpened:
		return "opened"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Width captures the bit width of builtin integers.
type Width uint8

// MaxIntWidth is the widest builtin integer.
const MaxIntWidth Width = 64

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind    Kind
	Elem    TypeID // inout base, opened existential, function parameter tuple
	Result  TypeID // function result
	Width   Width  // builtin integers
	Payload uint32 // slot into nominal or tuple side tables
}

// Descriptor helpers ---------------------------------------------------------

// MakeBuiltinInt describes a builtin integer of the given width.
func MakeBuiltinInt(width Width) Type {
	return Type{Kind: KindBuiltinInt, Width: width}
}

// MakeFun describes a function from a parameter tuple to a result.
func MakeFun(params, result TypeID) Type {
	return Type{Kind: KindFun, Elem: params, Result: result}
}

// MakeInout describes `inout T`.
func MakeInout(base TypeID) Type {
	return Type{Kind: KindInout, Elem: base}
}

// MakeOpened describes the concrete type hidden in an existential of the view type.
func MakeOpened(view TypeID) Type {
	return Type{Kind: KindOpened, Elem: view}
}

// IsNominal reports whether k names a declared type.
func (k Kind) IsNominal() bool {
	return k == KindProduct || k == KindView
}
