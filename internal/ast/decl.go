package ast

import (
	"fmt"

	"val/internal/types"
)

// DeclKind enumerates declaration kinds.
type DeclKind uint8

const (
	// DeclFun is a function or method declaration.
	DeclFun DeclKind = iota + 1
	// DeclParam is a function parameter, including the implicit `self`.
	DeclParam
	// DeclVar is a variable: a local binding or a member of a product type.
	DeclVar
	// DeclProduct is a product (record) type declaration.
	DeclProduct
	// DeclView is a view (protocol) declaration.
	DeclView
)

func (k DeclKind) String() string {
	switch k {
	case DeclFun:
		return "fun"
	case DeclParam:
		return "param"
	case DeclVar:
		return "var"
	case DeclProduct:
		return "product"
	case DeclView:
		return "view"
	default:
		return fmt.Sprintf("DeclKind(%d)", k)
	}
}

// Decl is a declaration. Kind selects which payload is meaningful.
type Decl struct {
	Kind DeclKind
	Name string
	// Type is the declaration's checked type. For functions it excludes `self`;
	// for product and view declarations it is the declared nominal type.
	Type types.TypeID
	// Parent is the enclosing declaration space; NoDeclID is module scope.
	Parent DeclID

	Fun     FunDecl     `msgpack:",omitempty"`
	Var     VarDecl     `msgpack:",omitempty"`
	Product ProductDecl `msgpack:",omitempty"`
	View    ViewDecl    `msgpack:",omitempty"`
}

// FunDecl describes a function.
type FunDecl struct {
	Params []DeclID
	// Self is the implicit receiver of a method; its type is the product type
	// or `inout` of it for mutating methods.
	Self DeclID
	// Body is NoStmtID for declarations without a body.
	Body    StmtID
	Builtin bool
}

// VarDecl describes a variable.
type VarDecl struct {
	// HasStorage is false for computed properties.
	HasStorage bool
	// Mutable distinguishes `var` from `val` bindings.
	Mutable bool
}

// ProductDecl describes a product type.
type ProductDecl struct {
	Members      []DeclID
	Conformances []DeclID
}

// ViewDecl describes a view.
type ViewDecl struct {
	Requirements []DeclID
}

// IsMethod reports whether the function has a receiver.
func (d *Decl) IsMethod() bool {
	return d != nil && d.Kind == DeclFun && d.Fun.Self.IsValid()
}
