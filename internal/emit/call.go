package emit

import (
	"val/internal/ast"
	"val/internal/types"
	"val/internal/vil"
)

func (fe *FunctionEmitter) funRef(id ast.ExprID, declID ast.DeclID) vil.Value {
	d := fe.src.Decl(declID)
	if d.Fun.Builtin {
		return vil.BuiltinFunRef(d.Name, vil.Object(d.Type))
	}
	f, ok := fe.parent.funs[declID]
	if !ok {
		fe.internal(id, "function %q is not declared", fe.src.QualifiedName(declID))
	}
	return vil.FunRef(f)
}

// emitCall lowers a call. Methods receive their receiver as the first
// argument: by address when `self` is inout, by value otherwise. Calls to
// view requirements are dispatched through the witness of the existential.
func (fe *FunctionEmitter) emitCall(id ast.ExprID, c ast.CallData) (vil.Value, error) {
	callee := fe.src.Expr(c.Callee)
	if callee == nil {
		fe.internal(id, "call without a callee")
	}

	switch callee.Kind {
	case ast.ExprMemberRef:
		md := fe.src.Decl(callee.Member.Decl)
		if md == nil || md.Kind != ast.DeclFun {
			break
		}
		if owner := fe.src.Owner(callee.Member.Decl); owner != nil && owner.Kind == ast.DeclView {
			return fe.emitRequirementCall(id, callee.Member, c.Args)
		}
		self, err := fe.receiver(callee.Member.Base, md)
		if err != nil {
			return vil.Value{}, err
		}
		return fe.apply(id, fe.funRef(c.Callee, callee.Member.Decl), md.Type, &self, c.Args)

	case ast.ExprDeclRef:
		md := fe.src.Decl(callee.DeclRef.Decl)
		if !md.IsMethod() {
			break
		}
		self, err := fe.implicitReceiver(id, callee.DeclRef.Decl)
		if err != nil {
			return vil.Value{}, err
		}
		return fe.apply(id, fe.funRef(c.Callee, callee.DeclRef.Decl), md.Type, &self, c.Args)
	}

	fun, err := fe.EmitRValue(c.Callee)
	if err != nil {
		return vil.Value{}, err
	}
	return fe.apply(id, fun, callee.Type, nil, c.Args)
}

// apply emits the arguments against the parameters of sig and the apply
// instruction. self, when not nil, is passed first.
func (fe *FunctionEmitter) apply(id ast.ExprID, fun vil.Value, sig types.TypeID, self *vil.Value, args []ast.ExprID) (vil.Value, error) {
	params, ok := fe.in.FunParams(sig)
	if !ok {
		fe.internal(id, "callee of type %s is not a function", types.Label(fe.in, sig))
	}
	if len(params) != len(args) {
		fe.internal(id, "expected %d arguments, got %d", len(params), len(args))
	}
	vals := make([]vil.Value, 0, len(args)+1)
	if self != nil {
		vals = append(vals, *self)
	}
	for i, arg := range args {
		v, err := fe.emitArg(params[i], arg)
		if err != nil {
			return vil.Value{}, err
		}
		vals = append(vals, v)
	}
	return fe.b.BuildApply(fun, vals), nil
}

// emitArg passes inout parameters by address and packs concrete values
// passed to view-typed parameters.
func (fe *FunctionEmitter) emitArg(param types.TypeID, arg ast.ExprID) (vil.Value, error) {
	if vil.Lower(fe.in, param).IsAddress() {
		if e := fe.src.Expr(arg); e != nil && e.Kind == ast.ExprAddrOf {
			arg = e.AddrOf.Inner
		}
		return fe.EmitLValue(arg)
	}
	v, err := fe.EmitRValue(arg)
	if err != nil {
		return vil.Value{}, err
	}
	return fe.coerce(v, param), nil
}

func (fe *FunctionEmitter) receiver(base ast.ExprID, method *ast.Decl) (vil.Value, error) {
	selfT := fe.src.Decl(method.Fun.Self).Type
	if vil.Lower(fe.in, selfT).IsAddress() {
		return fe.EmitLValue(base)
	}
	return fe.EmitRValue(base)
}

// implicitReceiver forwards the receiver of the function being emitted to a
// method called without an explicit base.
func (fe *FunctionEmitter) implicitReceiver(id ast.ExprID, method ast.DeclID) (vil.Value, error) {
	self, ok := fe.selfValue(id)
	if !ok {
		fe.internal(id, "method %q called without a receiver", fe.src.QualifiedName(method))
	}
	m := fe.src.Decl(method)
	if vil.Lower(fe.in, fe.src.Decl(m.Fun.Self).Type).IsAddress() {
		if !self.Type().IsAddress() {
			return vil.Value{}, fe.fail(id, ErrImmutableSelf, method)
		}
		return self, nil
	}
	if self.Type().IsAddress() {
		return fe.b.BuildLoad(self), nil
	}
	return self, nil
}

// emitRequirementCall opens the existential base, resolves the requirement
// through its witness and applies it to the opened value.
func (fe *FunctionEmitter) emitRequirementCall(id ast.ExprID, m ast.MemberData, args []ast.ExprID) (vil.Value, error) {
	base := fe.src.Expr(m.Base)
	if !fe.isView(base.Type) {
		fe.internal(id, "requirement %q called on a value of type %s",
			fe.src.QualifiedName(m.Decl), types.Label(fe.in, base.Type))
	}
	req := fe.src.Decl(m.Decl)
	opened := fe.in.Opened(base.Type)

	var container, self vil.Value
	selfT := opened
	if vil.Lower(fe.in, fe.src.Decl(req.Fun.Self).Type).IsAddress() {
		var err error
		if container, err = fe.EmitLValue(m.Base); err != nil {
			return vil.Value{}, err
		}
		self = fe.b.BuildOpenExistentialAddr(container, opened)
		selfT = fe.in.Inout(opened)
	} else {
		var v vil.Value
		if fe.canEmitLValue(m.Base) {
			addr, err := fe.EmitLValue(m.Base)
			if err != nil {
				return vil.Value{}, err
			}
			container, v = addr, fe.b.BuildLoad(addr)
		} else {
			var err error
			if v, err = fe.EmitRValue(m.Base); err != nil {
				return vil.Value{}, err
			}
			container = fe.spill(v)
		}
		self = fe.b.BuildOpenExistential(v, opened)
	}

	funT := fe.parent.withReceiver(selfT, req.Type)
	fun := fe.b.BuildWitnessMethod(container, fe.parent.declRef(m.Decl), vil.Object(funT))
	return fe.apply(id, fun, req.Type, &self, args)
}
