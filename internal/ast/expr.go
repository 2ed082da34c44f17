package ast

import (
	"fmt"

	"val/internal/types"
)

// ExprKind enumerates expression kinds.
type ExprKind uint8

const (
	// ExprIntLiteral is an integer literal.
	ExprIntLiteral ExprKind = iota + 1
	// ExprAssign is `lhs = rhs`.
	ExprAssign
	// ExprTuple is a tuple literal, optionally labeled.
	ExprTuple
	// ExprCall is a function application.
	ExprCall
	// ExprUnresolvedDeclRef is a name that lookup did not bind.
	ExprUnresolvedDeclRef
	// ExprUnresolvedMember is `.name` whose base type is not known yet.
	ExprUnresolvedMember
	// ExprUnresolvedQualDeclRef is `Space::name` that lookup did not bind.
	ExprUnresolvedQualDeclRef
	// ExprOverloadedDeclRef is a reference to a set of overloads.
	ExprOverloadedDeclRef
	// ExprDeclRef is a resolved reference to a value declaration.
	ExprDeclRef
	// ExprTypeDeclRef is a resolved reference to a type declaration.
	ExprTypeDeclRef
	// ExprMemberRef is `base.member`.
	ExprMemberRef
	// ExprAddrOf is `&expr`, used to pass inout arguments.
	ExprAddrOf
	// ExprWildcard is `_`.
	ExprWildcard
	// ExprError replaces an expression that failed to type check.
	ExprError
	// ExprCast is `expr as T` or `expr as! T`.
	ExprCast
	// ExprIf is a conditional expression.
	ExprIf
	// ExprIdentity is `lhs === rhs`.
	ExprIdentity
)

func (k ExprKind) String() string {
	switch k {
	case ExprIntLiteral:
		return "IntLiteral"
	case ExprAssign:
		return "Assign"
	case ExprTuple:
		return "Tuple"
	case ExprCall:
		return "Call"
	case ExprUnresolvedDeclRef:
		return "UnresolvedDeclRef"
	case ExprUnresolvedMember:
		return "UnresolvedMember"
	case ExprUnresolvedQualDeclRef:
		return "UnresolvedQualDeclRef"
	case ExprOverloadedDeclRef:
		return "OverloadedDeclRef"
	case ExprDeclRef:
		return "DeclRef"
	case ExprTypeDeclRef:
		return "TypeDeclRef"
	case ExprMemberRef:
		return "MemberRef"
	case ExprAddrOf:
		return "AddrOf"
	case ExprWildcard:
		return "Wildcard"
	case ExprError:
		return "Error"
	case ExprCast:
		return "Cast"
	case ExprIf:
		return "If"
	case ExprIdentity:
		return "Identity"
	default:
		return fmt.Sprintf("ExprKind(%d)", k)
	}
}

// Expr is an expression with its checked type. Kind selects the payload.
type Expr struct {
	Kind ExprKind
	Type types.TypeID

	IntLiteral IntLiteralData `msgpack:",omitempty"`
	Assign     BinaryData     `msgpack:",omitempty"`
	Tuple      TupleData      `msgpack:",omitempty"`
	Call       CallData       `msgpack:",omitempty"`
	Unresolved UnresolvedData `msgpack:",omitempty"`
	Overloaded OverloadedData `msgpack:",omitempty"`
	DeclRef    DeclRefData    `msgpack:",omitempty"`
	Member     MemberData     `msgpack:",omitempty"`
	AddrOf     AddrOfData     `msgpack:",omitempty"`
	Cast       CastData       `msgpack:",omitempty"`
	If         IfData         `msgpack:",omitempty"`
	Identity   BinaryData     `msgpack:",omitempty"`
}

// IntLiteralData is the payload of ExprIntLiteral.
type IntLiteralData struct {
	Value int64
}

// BinaryData is the payload of ExprAssign and ExprIdentity.
type BinaryData struct {
	LHS ExprID
	RHS ExprID
}

// TupleElem is one element of a tuple literal.
type TupleElem struct {
	Label string
	Value ExprID
}

// TupleData is the payload of ExprTuple.
type TupleData struct {
	Elems []TupleElem
}

// CallData is the payload of ExprCall.
type CallData struct {
	Callee ExprID
	Args   []ExprID
}

// UnresolvedData is the payload of the unresolved reference kinds.
type UnresolvedData struct {
	Name  string
	Base  ExprID
	Space string
}

// OverloadedData is the payload of ExprOverloadedDeclRef.
type OverloadedData struct {
	Candidates []DeclID
}

// DeclRefData is the payload of ExprDeclRef and ExprTypeDeclRef.
type DeclRefData struct {
	Decl DeclID
}

// MemberData is the payload of ExprMemberRef.
type MemberData struct {
	Base ExprID
	Decl DeclID
}

// AddrOfData is the payload of ExprAddrOf.
type AddrOfData struct {
	Inner ExprID
}

// CastData is the payload of ExprCast; the target type is the expression's type.
type CastData struct {
	Operand ExprID
	Checked bool
}

// IfData is the payload of ExprIf. Else may be NoExprID for unit-typed ifs.
type IfData struct {
	Cond ExprID
	Then ExprID
	Else ExprID
}
