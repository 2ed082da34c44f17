package emit

import (
	"val/internal/ast"
	"val/internal/types"
	"val/internal/vil"
)

// EmitRValue emits the value of id. Recoverable failures of l-value
// emission needed along the way (assignment targets, inout arguments) are
// returned; faults of earlier phases panic.
func (fe *FunctionEmitter) EmitRValue(id ast.ExprID) (vil.Value, error) {
	e := fe.src.Expr(id)
	if e == nil {
		fe.internal(id, "missing expression")
	}
	switch e.Kind {
	case ast.ExprIntLiteral:
		t := e.Type
		if t == types.NoTypeID {
			t = fe.in.Builtins().IntLiteral
		}
		return vil.Int(e.IntLiteral.Value, vil.Object(t)), nil

	case ast.ExprDeclRef:
		return fe.rvalueDeclRef(id, e.DeclRef.Decl)

	case ast.ExprMemberRef:
		return fe.rvalueMemberRef(id, e)

	case ast.ExprCall:
		return fe.emitCall(id, e.Call)

	case ast.ExprTuple:
		elems := make([]vil.TupleElem, len(e.Tuple.Elems))
		for i, el := range e.Tuple.Elems {
			v, err := fe.EmitRValue(el.Value)
			if err != nil {
				return vil.Value{}, err
			}
			elems[i] = vil.TupleElem{Label: el.Label, Value: v}
		}
		return fe.b.BuildTuple(e.Type, elems), nil

	case ast.ExprAssign:
		return fe.emitAssign(e.Assign)

	case ast.ExprCast:
		return fe.emitCast(e)

	case ast.ExprIf:
		return fe.emitIf(e)

	case ast.ExprIdentity:
		lhs, err := fe.EmitLValue(e.Identity.LHS)
		if err != nil {
			return vil.Value{}, err
		}
		rhs, err := fe.EmitLValue(e.Identity.RHS)
		if err != nil {
			return vil.Value{}, err
		}
		return fe.b.BuildEqualAddr(lhs, rhs), nil

	case ast.ExprError:
		return vil.ErrorValue(fe.in), nil

	case ast.ExprAddrOf:
		fe.internal(id, "address-of outside an inout argument")
	default:
		fe.internal(id, "%s expression reached emission", e.Kind)
	}
	panic("unreachable")
}

func (fe *FunctionEmitter) rvalueDeclRef(id ast.ExprID, declID ast.DeclID) (vil.Value, error) {
	d := fe.src.Decl(declID)
	if d == nil {
		fe.internal(id, "reference to missing declaration %d", declID)
	}
	switch d.Kind {
	case ast.DeclFun:
		return fe.funRef(id, declID), nil

	case ast.DeclVar, ast.DeclParam:
		if v, ok := fe.locals[declID]; ok {
			if v.Type().IsAddress() {
				return fe.b.BuildLoad(v), nil
			}
			return v, nil
		}
		if owner := fe.src.Owner(declID); d.Kind == ast.DeclVar && owner != nil && owner.Kind == ast.DeclProduct {
			self, ok := fe.selfValue(id)
			if !ok {
				fe.internal(id, "implicit member %q outside a method", d.Name)
			}
			return fe.readMember(self, declID), nil
		}
		if d.Kind == ast.DeclParam {
			fe.internal(id, "parameter %q is not bound", d.Name)
		}
		fe.unsupported(id, "access to global %q", d.Name)

	default:
		fe.internal(id, "reference to %s %q as a value", d.Kind, d.Name)
	}
	panic("unreachable")
}

// readMember reads a stored member of the record held by, or stored at,
// record.
func (fe *FunctionEmitter) readMember(record vil.Value, member ast.DeclID) vil.Value {
	d := fe.src.Decl(member)
	ref := fe.parent.declRef(member)
	if record.Type().IsAddress() {
		return fe.b.BuildLoad(fe.b.BuildRecordMemberAddr(record, ref, d.Type))
	}
	return fe.b.BuildRecordMember(record, ref, d.Type)
}

func (fe *FunctionEmitter) rvalueMemberRef(id ast.ExprID, e *ast.Expr) (vil.Value, error) {
	d := fe.src.Decl(e.Member.Decl)
	if d == nil {
		fe.internal(id, "reference to missing member %d", e.Member.Decl)
	}
	if d.Kind == ast.DeclFun {
		fe.unsupported(id, "method %q used as a value", d.Name)
	}
	if d.Kind != ast.DeclVar || !d.Var.HasStorage {
		fe.unsupported(id, "computed member %q", d.Name)
	}
	base := fe.src.Expr(e.Member.Base)
	if !fe.isProduct(base.Type) {
		fe.unsupported(id, "member access on a base of type %s", types.Label(fe.in, base.Type))
	}
	if fe.canEmitLValue(e.Member.Base) {
		addr, err := fe.EmitLValue(e.Member.Base)
		if err != nil {
			return vil.Value{}, err
		}
		return fe.readMember(addr, e.Member.Decl), nil
	}
	record, err := fe.EmitRValue(e.Member.Base)
	if err != nil {
		return vil.Value{}, err
	}
	return fe.readMember(record, e.Member.Decl), nil
}

// emitAssign stores the right-hand side into the storage of the left-hand
// side and yields unit. Assigning one stored local to another copies between
// the two locations.
func (fe *FunctionEmitter) emitAssign(a ast.BinaryData) (vil.Value, error) {
	if src, ok := fe.storedAddress(a.RHS); ok {
		dst, err := fe.EmitLValue(a.LHS)
		if err != nil {
			return vil.Value{}, err
		}
		if dst.Type() == src.Type() {
			fe.b.BuildCopyAddr(src, dst)
			return vil.Unit(fe.in), nil
		}
		fe.b.BuildStore(fe.coerce(fe.b.BuildLoad(src), dst.Type().Source()), dst)
		return vil.Unit(fe.in), nil
	}

	lhs := fe.src.Expr(a.LHS)
	v, err := fe.EmitRValue(a.RHS)
	if err != nil {
		return vil.Value{}, err
	}
	dst, err := fe.EmitLValue(a.LHS)
	if err != nil {
		return vil.Value{}, err
	}
	fe.b.BuildStore(fe.coerce(v, lhs.Type), dst)
	return vil.Unit(fe.in), nil
}

// emitCast reinterprets the storage of the operand, spilling r-values to
// the stack first, and loads the result.
func (fe *FunctionEmitter) emitCast(e *ast.Expr) (vil.Value, error) {
	src, err := fe.addressOf(e.Cast.Operand)
	if err != nil {
		return vil.Value{}, err
	}
	var cast vil.Value
	if e.Cast.Checked {
		cast = fe.b.BuildCheckedCastAddr(src, e.Type)
	} else {
		cast = fe.b.BuildUnsafeCastAddr(src, e.Type)
	}
	return fe.b.BuildLoad(cast), nil
}

// addressOf returns the storage of id when it has some, or a stack copy of
// its value.
func (fe *FunctionEmitter) addressOf(id ast.ExprID) (vil.Value, error) {
	if fe.canEmitLValue(id) {
		return fe.EmitLValue(id)
	}
	v, err := fe.EmitRValue(id)
	if err != nil {
		return vil.Value{}, err
	}
	return fe.spill(v), nil
}

func (fe *FunctionEmitter) spill(v vil.Value) vil.Value {
	slot := fe.b.BuildAllocStack(v.Type().Source())
	fe.b.BuildStore(v, slot)
	return slot
}

// emitIf lowers a conditional expression to a diamond whose join block
// receives the value of the taken branch. An arm that fails to lower is
// reported and halts; emission continues in the join block.
func (fe *FunctionEmitter) emitIf(e *ast.Expr) (vil.Value, error) {
	cond, err := fe.EmitRValue(e.If.Cond)
	if err != nil {
		return vil.Value{}, err
	}
	then := fe.fn.AppendBlock()
	els := fe.fn.AppendBlock()
	join := fe.fn.AppendBlock(vil.Object(e.Type))
	fe.b.BuildCondBranch(cond, then, nil, els, nil)

	for _, arm := range []struct {
		block vil.BlockID
		expr  ast.ExprID
	}{{then, e.If.Then}, {els, e.If.Else}} {
		fe.b.SetInsertionPoint(fe.fn, arm.block)
		v := vil.Unit(fe.in)
		if arm.expr.IsValid() {
			v = fe.coerce(fe.rvalueOrError(arm.expr), e.Type)
		}
		switch {
		case fe.b.Terminated():
		case isErrorValue(v):
			fe.b.BuildHalt(invalidArm)
		default:
			fe.b.BuildBranch(join, v)
		}
	}

	fe.b.SetInsertionPoint(fe.fn, join)
	return fe.fn.BlockArgs(join)[0], nil
}

const invalidArm = "invalid branch"

func isErrorValue(v vil.Value) bool {
	lit, ok := v.Literal()
	return ok && lit.Kind == vil.LitError
}

// coerce packs a concrete value into an existential when target is a view.
func (fe *FunctionEmitter) coerce(v vil.Value, target types.TypeID) vil.Value {
	if isErrorValue(v) {
		return v
	}
	src := v.Type().Source()
	if src == target || !fe.isView(target) || fe.isView(src) {
		return v
	}
	return fe.pack(v, target)
}

// pack stores a concrete value in a fresh existential container of type view
// and returns the container's value.
func (fe *FunctionEmitter) pack(v vil.Value, view types.TypeID) vil.Value {
	wt, ok := fe.parent.out.WitnessTable(v.Type().Source(), view)
	if !ok {
		fe.internal(ast.NoExprID, "%s does not conform to %s",
			types.Label(fe.in, v.Type().Source()), types.Label(fe.in, view))
	}
	container := fe.b.BuildAllocStack(view)
	payload := fe.b.BuildAllocExistential(container, wt)
	fe.b.BuildStore(v, payload)
	return fe.b.BuildLoad(container)
}
