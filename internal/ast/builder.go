package ast

import (
	"fmt"

	"val/internal/types"
)

// Builder appends checked declarations, expressions and statements to a
// module, interning the types they need. Front ends and tests use it to hand
// over trees that are already resolved.
type Builder struct {
	M     *Module
	Types *types.Interner
}

// Param names a parameter for Fun and Method.
type Param struct {
	Name string
	Type types.TypeID
}

// NewBuilder creates a builder over a fresh module.
func NewBuilder(name string, in *types.Interner) *Builder {
	return &Builder{M: NewModule(name), Types: in}
}

// Product declares a product type at module scope.
func (b *Builder) Product(name string) DeclID {
	id := b.M.AddDecl(Decl{Kind: DeclProduct, Name: name})
	b.M.Decl(id).Type = b.Types.RegisterProduct(name, uint32(id))
	b.M.Items = append(b.M.Items, id)
	return id
}

// View declares a view at module scope.
func (b *Builder) View(name string) DeclID {
	id := b.M.AddDecl(Decl{Kind: DeclView, Name: name})
	b.M.Decl(id).Type = b.Types.RegisterView(name, uint32(id))
	b.M.Items = append(b.M.Items, id)
	return id
}

// Conform records that product conforms to view.
func (b *Builder) Conform(product, view DeclID) {
	p := b.M.Decl(product)
	p.Product.Conformances = append(p.Product.Conformances, view)
}

// Member declares a stored (or computed, when storage is false) member.
func (b *Builder) Member(owner DeclID, name string, t types.TypeID, storage bool) DeclID {
	id := b.M.AddDecl(Decl{
		Kind:   DeclVar,
		Name:   name,
		Type:   t,
		Parent: owner,
		Var:    VarDecl{HasStorage: storage, Mutable: true},
	})
	p := b.M.Decl(owner)
	p.Product.Members = append(p.Product.Members, id)
	return id
}

// Fun declares a free function at module scope.
func (b *Builder) Fun(name string, result types.TypeID, params ...Param) DeclID {
	id := b.fun(NoDeclID, name, result, params)
	b.M.Items = append(b.M.Items, id)
	return id
}

// Builtin declares a built-in function; it never gets a body.
func (b *Builder) Builtin(name string, result types.TypeID, params ...Param) DeclID {
	id := b.fun(NoDeclID, name, result, params)
	b.M.Decl(id).Fun.Builtin = true
	return id
}

// Method declares a method of a product type, or a requirement when owner is
// a view. Mutating methods receive `self` inout.
func (b *Builder) Method(owner DeclID, name string, mutating bool, result types.TypeID, params ...Param) DeclID {
	id := b.fun(owner, name, result, params)
	selfType := b.M.Decl(owner).Type
	if mutating {
		selfType = b.Types.Inout(selfType)
	}
	self := b.M.AddDecl(Decl{Kind: DeclParam, Name: "self", Type: selfType, Parent: id})
	b.M.Decl(id).Fun.Self = self
	o := b.M.Decl(owner)
	switch o.Kind {
	case DeclProduct:
		o.Product.Members = append(o.Product.Members, id)
	case DeclView:
		o.View.Requirements = append(o.View.Requirements, id)
	default:
		panic(fmt.Sprintf("ast: %s %q cannot own methods", o.Kind, o.Name))
	}
	return id
}

func (b *Builder) fun(parent DeclID, name string, result types.TypeID, params []Param) DeclID {
	id := b.M.AddDecl(Decl{Kind: DeclFun, Name: name, Parent: parent})
	elems := make([]types.TupleElem, len(params))
	ids := make([]DeclID, len(params))
	for i, p := range params {
		elems[i] = types.TupleElem{Type: p.Type}
		ids[i] = b.M.AddDecl(Decl{Kind: DeclParam, Name: p.Name, Type: p.Type, Parent: id})
	}
	d := b.M.Decl(id)
	d.Type = b.Types.Fun(b.Types.Tuple(elems), result)
	d.Fun.Params = ids
	return id
}

// Params returns the parameter declarations of a function.
func (b *Builder) Params(fun DeclID) []DeclID {
	return b.M.Decl(fun).Fun.Params
}

// Self returns the receiver declaration of a method.
func (b *Builder) Self(fun DeclID) DeclID {
	return b.M.Decl(fun).Fun.Self
}

// Local declares a local binding inside fun.
func (b *Builder) Local(fun DeclID, name string, t types.TypeID, mutable bool) DeclID {
	return b.M.AddDecl(Decl{
		Kind:   DeclVar,
		Name:   name,
		Type:   t,
		Parent: fun,
		Var:    VarDecl{HasStorage: true, Mutable: mutable},
	})
}

// SetBody gives fun a brace body made of stmts.
func (b *Builder) SetBody(fun DeclID, stmts ...StmtID) {
	b.M.Decl(fun).Fun.Body = b.Brace(stmts...)
}

// Expressions ----------------------------------------------------------------

// IntLit creates an integer literal of type t.
func (b *Builder) IntLit(v int64, t types.TypeID) ExprID {
	return b.M.AddExpr(Expr{Kind: ExprIntLiteral, Type: t, IntLiteral: IntLiteralData{Value: v}})
}

// Ref creates a resolved reference to a value declaration.
func (b *Builder) Ref(decl DeclID) ExprID {
	d := b.M.Decl(decl)
	return b.M.AddExpr(Expr{Kind: ExprDeclRef, Type: b.Types.Strip(d.Type), DeclRef: DeclRefData{Decl: decl}})
}

// TypeRef creates a resolved reference to a type declaration.
func (b *Builder) TypeRef(decl DeclID) ExprID {
	d := b.M.Decl(decl)
	return b.M.AddExpr(Expr{Kind: ExprTypeDeclRef, Type: d.Type, DeclRef: DeclRefData{Decl: decl}})
}

// MemberRef creates `base.member`.
func (b *Builder) MemberRef(base ExprID, member DeclID) ExprID {
	d := b.M.Decl(member)
	return b.M.AddExpr(Expr{Kind: ExprMemberRef, Type: b.Types.Strip(d.Type), Member: MemberData{Base: base, Decl: member}})
}

// Call applies callee to args; the type is the callee's result type.
func (b *Builder) Call(callee ExprID, args ...ExprID) ExprID {
	result := b.Types.Builtins().Error
	if tt, ok := b.Types.Lookup(b.M.Expr(callee).Type); ok && tt.Kind == types.KindFun {
		result = tt.Result
	}
	return b.M.AddExpr(Expr{Kind: ExprCall, Type: result, Call: CallData{Callee: callee, Args: args}})
}

// Tuple creates a tuple literal.
func (b *Builder) Tuple(elems ...TupleElem) ExprID {
	tes := make([]types.TupleElem, len(elems))
	for i, e := range elems {
		tes[i] = types.TupleElem{Label: e.Label, Type: b.M.Expr(e.Value).Type}
	}
	return b.M.AddExpr(Expr{Kind: ExprTuple, Type: b.Types.Tuple(tes), Tuple: TupleData{Elems: elems}})
}

// Assign creates `lhs = rhs`, typed unit.
func (b *Builder) Assign(lhs, rhs ExprID) ExprID {
	return b.M.AddExpr(Expr{Kind: ExprAssign, Type: b.Types.Builtins().Unit, Assign: BinaryData{LHS: lhs, RHS: rhs}})
}

// AddrOf creates `&inner`.
func (b *Builder) AddrOf(inner ExprID) ExprID {
	t := b.Types.Inout(b.M.Expr(inner).Type)
	return b.M.AddExpr(Expr{Kind: ExprAddrOf, Type: t, AddrOf: AddrOfData{Inner: inner}})
}

// Cast creates `operand as t` (or `as!` when checked).
func (b *Builder) Cast(operand ExprID, t types.TypeID, checked bool) ExprID {
	return b.M.AddExpr(Expr{Kind: ExprCast, Type: t, Cast: CastData{Operand: operand, Checked: checked}})
}

// If creates a conditional expression of type t.
func (b *Builder) If(cond, then, els ExprID, t types.TypeID) ExprID {
	return b.M.AddExpr(Expr{Kind: ExprIf, Type: t, If: IfData{Cond: cond, Then: then, Else: els}})
}

// Identity creates `lhs === rhs`.
func (b *Builder) Identity(lhs, rhs ExprID) ExprID {
	return b.M.AddExpr(Expr{Kind: ExprIdentity, Type: b.Types.Builtins().Bool, Identity: BinaryData{LHS: lhs, RHS: rhs}})
}

// Wildcard creates `_`.
func (b *Builder) Wildcard(t types.TypeID) ExprID {
	return b.M.AddExpr(Expr{Kind: ExprWildcard, Type: t})
}

// ErrorExpr creates an error placeholder.
func (b *Builder) ErrorExpr() ExprID {
	return b.M.AddExpr(Expr{Kind: ExprError, Type: b.Types.Builtins().Error})
}

// Unresolved creates an unresolved reference of the given kind.
func (b *Builder) Unresolved(kind ExprKind, name string) ExprID {
	return b.M.AddExpr(Expr{Kind: kind, Type: b.Types.Builtins().Unresolved, Unresolved: UnresolvedData{Name: name}})
}

// Overloaded creates a reference to an overload set.
func (b *Builder) Overloaded(candidates ...DeclID) ExprID {
	return b.M.AddExpr(Expr{Kind: ExprOverloadedDeclRef, Type: b.Types.Builtins().Unresolved, Overloaded: OverloadedData{Candidates: candidates}})
}

// Statements -----------------------------------------------------------------

// Brace groups stmts.
func (b *Builder) Brace(stmts ...StmtID) StmtID {
	return b.M.AddStmt(Stmt{Kind: StmtBrace, Brace: BraceData{Stmts: stmts}})
}

// Binding introduces decl, initialized with init when valid.
func (b *Builder) Binding(decl DeclID, init ExprID) StmtID {
	return b.M.AddStmt(Stmt{Kind: StmtBinding, Binding: BindingData{Decl: decl, Init: init}})
}

// ExprStmt evaluates e.
func (b *Builder) ExprStmt(e ExprID) StmtID {
	return b.M.AddStmt(Stmt{Kind: StmtExpr, Expr: e})
}

// Return leaves the function with value, or unit when value is NoExprID.
func (b *Builder) Return(value ExprID) StmtID {
	return b.M.AddStmt(Stmt{Kind: StmtReturn, Return: ReturnData{Value: value}})
}
