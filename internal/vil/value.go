package vil

import (
	"fmt"
	"strconv"

	"val/internal/types"
)

// ValueKind distinguishes the three disjoint kinds of values.
type ValueKind uint8

const (
	// ValueLiteral is a compile-time constant, owned by no block.
	ValueLiteral ValueKind = iota + 1
	// ValueResult is the result of an instruction.
	ValueResult
	// ValueArg is an argument of a basic block.
	ValueArg
)

func (k ValueKind) String() string {
	switch k {
	case ValueLiteral:
		return "literal"
	case ValueResult:
		return "result"
	case ValueArg:
		return "argument"
	default:
		return fmt.Sprintf("ValueKind(%d)", k)
	}
}

// Value is an IR value. Results and arguments are identified by their handle
// in the owning function's arena; the handle never changes.
type Value struct {
	kind ValueKind
	typ  Type
	lit  Literal
	inst InstID
	arg  ArgID
}

// ValueKey is the identity of a non-literal value inside its function.
type ValueKey struct {
	Kind  ValueKind
	Index uint32
}

// Kind returns the value kind; zero for the zero Value.
func (v Value) Kind() ValueKind { return v.kind }

// Type returns the IR type of the value.
func (v Value) Type() Type { return v.typ }

// IsValid reports whether v was produced by a constructor or a builder.
func (v Value) IsValid() bool { return v.kind != 0 }

// Literal returns the literal payload.
func (v Value) Literal() (Literal, bool) {
	return v.lit, v.kind == ValueLiteral
}

// Inst returns the instruction producing v.
func (v Value) Inst() (InstID, bool) {
	return v.inst, v.kind == ValueResult
}

// Arg returns the block argument v denotes.
func (v Value) Arg() (ArgID, bool) {
	return v.arg, v.kind == ValueArg
}

// Key returns the identity of a result or argument value.
func (v Value) Key() ValueKey {
	switch v.kind {
	case ValueResult:
		return ValueKey{Kind: ValueResult, Index: uint32(v.inst)}
	case ValueArg:
		return ValueKey{Kind: ValueArg, Index: uint32(v.arg)}
	default:
		return ValueKey{Kind: v.kind}
	}
}

func resultValue(id InstID, t Type) Value {
	return Value{kind: ValueResult, typ: t, inst: id}
}

func argValue(id ArgID, t Type) Value {
	return Value{kind: ValueArg, typ: t, arg: id}
}

// LiteralKind enumerates literal values.
type LiteralKind uint8

const (
	LitUnit LiteralKind = iota + 1
	LitInt
	LitBuiltinFun
	LitFun
	LitNullAddr
	LitError
)

// Literal is the payload of a literal value.
type Literal struct {
	Kind LiteralKind
	Int  int64
	// Name is the builtin or function name for function references.
	Name string
}

// String returns the literal's spelling.
func (l Literal) String() string {
	switch l.Kind {
	case LitUnit:
		return "unit"
	case LitInt:
		return strconv.FormatInt(l.Int, 10)
	case LitBuiltinFun:
		return "b\"" + l.Name + "\""
	case LitFun:
		return "@" + l.Name
	case LitNullAddr:
		return "null_addr"
	case LitError:
		return "error"
	default:
		return "<literal?>"
	}
}

// Unit returns the unit literal.
func Unit(in *types.Interner) Value {
	return Value{kind: ValueLiteral, typ: Object(in.Builtins().Unit), lit: Literal{Kind: LitUnit}}
}

// IntLiteral returns an integer literal typed with the builtin IntLiteral type.
func IntLiteral(in *types.Interner, v int64) Value {
	return Int(v, Object(in.Builtins().IntLiteral))
}

// Int returns an integer literal of the given object type.
func Int(v int64, t Type) Value {
	if t.IsAddress() {
		panic("vil: integer literal must have an object type")
	}
	return Value{kind: ValueLiteral, typ: t, lit: Literal{Kind: LitInt, Int: v}}
}

// BuiltinFunRef returns a reference to a built-in function.
func BuiltinFunRef(name string, t Type) Value {
	return Value{kind: ValueLiteral, typ: t, lit: Literal{Kind: LitBuiltinFun, Name: name}}
}

// FunRef returns a reference to a module function.
func FunRef(f *Function) Value {
	return Value{kind: ValueLiteral, typ: f.Type, lit: Literal{Kind: LitFun, Name: f.Name}}
}

// NullAddr returns the null location of an address type.
func NullAddr(t Type) Value {
	if !t.IsAddress() {
		panic("vil: null_addr requires an address type")
	}
	return Value{kind: ValueLiteral, typ: t, lit: Literal{Kind: LitNullAddr}}
}

// ErrorValue returns the error placeholder.
func ErrorValue(in *types.Interner) Value {
	return Value{kind: ValueLiteral, typ: Object(in.Builtins().Error), lit: Literal{Kind: LitError}}
}
