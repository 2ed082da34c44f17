package emit

import (
	"val/internal/ast"
	"val/internal/types"
	"val/internal/vil"
)

// EmitLValue emits the address of the storage id denotes.
//
// It returns an *Error wrapping ErrImmutableLocation or ErrImmutableSelf when
// the expression does not denote mutable storage. Forms that can never
// denote storage panic with *InternalError; member accesses on bases other
// than product types panic with *UnsupportedError.
func (fe *FunctionEmitter) EmitLValue(id ast.ExprID) (vil.Value, error) {
	e := fe.src.Expr(id)
	if e == nil {
		fe.internal(id, "missing expression")
	}
	switch e.Kind {
	case ast.ExprDeclRef:
		return fe.lvalueDeclRef(id, e.DeclRef.Decl)
	case ast.ExprMemberRef:
		return fe.lvalueMemberRef(id, e.Member)

	case ast.ExprTuple, ast.ExprCall, ast.ExprAssign, ast.ExprAddrOf,
		ast.ExprCast, ast.ExprIf, ast.ExprIdentity:
		fe.unsupported(id, "%s expression as an l-value", e.Kind)
	default:
		fe.internal(id, "%s expression cannot denote storage", e.Kind)
	}
	panic("unreachable")
}

func (fe *FunctionEmitter) lvalueDeclRef(id ast.ExprID, declID ast.DeclID) (vil.Value, error) {
	d := fe.src.Decl(declID)
	if d == nil {
		fe.internal(id, "reference to missing declaration %d", declID)
	}
	switch d.Kind {
	case ast.DeclVar:
		if !d.Var.HasStorage {
			return vil.Value{}, fe.fail(id, ErrImmutableLocation, declID)
		}
		if v, ok := fe.locals[declID]; ok {
			if !v.Type().IsAddress() {
				return vil.Value{}, fe.fail(id, ErrImmutableLocation, declID)
			}
			return v, nil
		}
		if owner := fe.src.Owner(declID); owner != nil && owner.Kind == ast.DeclProduct {
			self, ok := fe.selfValue(id)
			if !ok {
				fe.internal(id, "implicit member %q outside a method", d.Name)
			}
			if !self.Type().IsAddress() {
				return vil.Value{}, fe.fail(id, ErrImmutableSelf, declID)
			}
			return fe.b.BuildRecordMemberAddr(self, fe.parent.declRef(declID), d.Type), nil
		}
		fe.unsupported(id, "access to global %q", d.Name)

	case ast.DeclParam:
		v, ok := fe.locals[declID]
		if !ok {
			fe.internal(id, "parameter %q is not bound", d.Name)
		}
		if !v.Type().IsAddress() {
			return vil.Value{}, fe.fail(id, ErrImmutableLocation, declID)
		}
		return v, nil

	default:
		fe.internal(id, "reference to %s %q as an l-value", d.Kind, d.Name)
	}
	panic("unreachable")
}

func (fe *FunctionEmitter) lvalueMemberRef(id ast.ExprID, m ast.MemberData) (vil.Value, error) {
	base, err := fe.EmitLValue(m.Base)
	if err != nil {
		return vil.Value{}, err
	}
	if !base.Type().IsAddress() {
		return vil.Value{}, fe.fail(id, ErrImmutableLocation, m.Decl)
	}
	d := fe.src.Decl(m.Decl)
	if d == nil || d.Kind != ast.DeclVar || !d.Var.HasStorage {
		return vil.Value{}, fe.fail(id, ErrImmutableLocation, m.Decl)
	}
	if !fe.isProduct(base.Type().Source()) {
		fe.unsupported(id, "member access on a base of type %s", types.Label(fe.in, base.Type().Source()))
	}
	return fe.b.BuildRecordMemberAddr(base, fe.parent.declRef(m.Decl), d.Type), nil
}

// selfValue returns the binding of the receiver of the function being
// emitted.
func (fe *FunctionEmitter) selfValue(expr ast.ExprID) (vil.Value, bool) {
	if !fe.decl.IsMethod() {
		return vil.Value{}, false
	}
	v, ok := fe.locals[fe.selfDecl()]
	if !ok {
		fe.internal(expr, "receiver of %s is not bound", fe.fn.Name)
	}
	return v, true
}

func (fe *FunctionEmitter) isProduct(t types.TypeID) bool {
	tt, ok := fe.in.Lookup(t)
	return ok && tt.Kind == types.KindProduct
}

func (fe *FunctionEmitter) isView(t types.TypeID) bool {
	tt, ok := fe.in.Lookup(t)
	return ok && tt.Kind == types.KindView
}

// canEmitLValue reports, without emitting anything, whether EmitLValue would
// succeed for id.
func (fe *FunctionEmitter) canEmitLValue(id ast.ExprID) bool {
	e := fe.src.Expr(id)
	if e == nil {
		return false
	}
	switch e.Kind {
	case ast.ExprDeclRef:
		d := fe.src.Decl(e.DeclRef.Decl)
		if d == nil {
			return false
		}
		switch d.Kind {
		case ast.DeclVar:
			if !d.Var.HasStorage {
				return false
			}
			if v, ok := fe.locals[e.DeclRef.Decl]; ok {
				return v.Type().IsAddress()
			}
			if owner := fe.src.Owner(e.DeclRef.Decl); owner != nil && owner.Kind == ast.DeclProduct && fe.decl.IsMethod() {
				self, ok := fe.locals[fe.selfDecl()]
				return ok && self.Type().IsAddress()
			}
			return false
		case ast.DeclParam:
			v, ok := fe.locals[e.DeclRef.Decl]
			return ok && v.Type().IsAddress()
		}
		return false
	case ast.ExprMemberRef:
		d := fe.src.Decl(e.Member.Decl)
		if d == nil || d.Kind != ast.DeclVar || !d.Var.HasStorage {
			return false
		}
		base := fe.src.Expr(e.Member.Base)
		if base == nil || !fe.isProduct(base.Type) {
			return false
		}
		return fe.canEmitLValue(e.Member.Base)
	default:
		return false
	}
}
