package emit

import (
	"errors"
	"fmt"

	"val/internal/ast"
	"val/internal/types"
	"val/internal/vil"
)

// FunctionEmitter is the emission session of one function body. It owns the
// symbol table binding declarations to values and the builder positioned in
// the block being filled.
type FunctionEmitter struct {
	parent *Emitter
	src    *ast.Module
	in     *types.Interner
	declID ast.DeclID
	decl   *ast.Decl
	fn     *vil.Function
	b      *vil.Builder

	locals map[ast.DeclID]vil.Value
	errs   []error
}

func newFunctionEmitter(parent *Emitter, id ast.DeclID, fn *vil.Function) *FunctionEmitter {
	return &FunctionEmitter{
		parent: parent,
		src:    parent.src,
		in:     parent.in,
		declID: id,
		decl:   parent.src.Decl(id),
		fn:     fn,
		b:      vil.NewBuilder(parent.out),
		locals: make(map[ast.DeclID]vil.Value),
	}
}

// Function returns the function being emitted.
func (fe *FunctionEmitter) Function() *vil.Function { return fe.fn }

func (fe *FunctionEmitter) internal(expr ast.ExprID, format string, args ...any) {
	panic(&InternalError{Func: fe.fn.Name, Expr: expr, Msg: fmt.Sprintf(format, args...)})
}

func (fe *FunctionEmitter) unsupported(expr ast.ExprID, format string, args ...any) {
	panic(&UnsupportedError{Func: fe.fn.Name, Expr: expr, What: fmt.Sprintf(format, args...)})
}

func (fe *FunctionEmitter) fail(expr ast.ExprID, sentinel error, decl ast.DeclID) error {
	name := ""
	if decl.IsValid() {
		name = fe.src.QualifiedName(decl)
	}
	return &Error{Err: sentinel, Func: fe.fn.Name, Expr: expr, Name: name}
}

// selfDecl returns the receiver of the function being emitted.
func (fe *FunctionEmitter) selfDecl() ast.DeclID {
	return fe.decl.Fun.Self
}

// emitBody creates the entry block, binds the receiver and the parameters to
// its arguments and emits the body. A body that falls off its end returns
// unit, or halts when the function returns something else.
func (fe *FunctionEmitter) emitBody() error {
	var bound []ast.DeclID
	if fe.decl.IsMethod() {
		bound = append(bound, fe.selfDecl())
	}
	bound = append(bound, fe.decl.Fun.Params...)

	argTypes := make([]vil.Type, len(bound))
	for i, p := range bound {
		argTypes[i] = vil.Lower(fe.in, fe.src.Decl(p).Type)
	}
	entry := fe.fn.AppendBlock(argTypes...)
	for i, v := range fe.fn.BlockArgs(entry) {
		fe.locals[bound[i]] = v
	}
	fe.b.SetInsertionPoint(fe.fn, entry)

	fe.emitStmt(fe.decl.Fun.Body)

	if !fe.b.Terminated() {
		result := fe.in.MustLookup(fe.decl.Type).Result
		if result == fe.in.Builtins().Unit {
			fe.b.BuildRet(vil.Unit(fe.in))
		} else {
			fe.b.BuildHalt("missing return in " + fe.src.QualifiedName(fe.declID))
		}
	}
	return errors.Join(fe.errs...)
}

// report records a recoverable error; emission of the function goes on with
// an error placeholder.
func (fe *FunctionEmitter) report(err error) {
	fe.errs = append(fe.errs, err)
}

func (fe *FunctionEmitter) emitStmt(id ast.StmtID) {
	s := fe.src.Stmt(id)
	if s == nil {
		fe.internal(ast.NoExprID, "missing statement %d", id)
	}
	switch s.Kind {
	case ast.StmtBrace:
		for _, child := range s.Brace.Stmts {
			if fe.b.Terminated() {
				break
			}
			fe.emitStmt(child)
		}
	case ast.StmtBinding:
		fe.emitBinding(s.Binding)
	case ast.StmtExpr:
		fe.rvalueOrError(s.Expr)
	case ast.StmtReturn:
		v := vil.Unit(fe.in)
		if s.Return.Value.IsValid() {
			result := fe.in.MustLookup(fe.decl.Type).Result
			v = fe.coerce(fe.rvalueOrError(s.Return.Value), result)
		}
		fe.b.BuildRet(v)
	default:
		fe.internal(ast.NoExprID, "unknown statement kind %d", s.Kind)
	}
}

// emitBinding binds a local. `var` bindings get stack storage; `val`
// bindings are bound to their initial value.
func (fe *FunctionEmitter) emitBinding(bd ast.BindingData) {
	d := fe.src.Decl(bd.Decl)
	if d == nil || d.Kind != ast.DeclVar {
		fe.internal(bd.Init, "binding of a non-variable declaration %d", bd.Decl)
	}
	if !d.Var.Mutable {
		if !bd.Init.IsValid() {
			fe.unsupported(ast.NoExprID, "val binding %q without an initializer", d.Name)
		}
		fe.locals[bd.Decl] = fe.coerce(fe.rvalueOrError(bd.Init), d.Type)
		return
	}

	slot := fe.b.BuildAllocStack(d.Type)
	fe.locals[bd.Decl] = slot
	if !bd.Init.IsValid() {
		return
	}
	if src, ok := fe.storedAddress(bd.Init); ok && src.Type() == slot.Type() {
		fe.b.BuildCopyAddr(src, slot)
		return
	}
	fe.b.BuildStore(fe.coerce(fe.rvalueOrError(bd.Init), d.Type), slot)
}

// rvalueOrError emits id as an r-value, recording a recoverable failure and
// substituting the error placeholder.
func (fe *FunctionEmitter) rvalueOrError(id ast.ExprID) vil.Value {
	v, err := fe.EmitRValue(id)
	if err != nil {
		fe.report(err)
		return vil.ErrorValue(fe.in)
	}
	return v
}

// storedAddress returns the storage of a local bound to an address, without
// emitting anything.
func (fe *FunctionEmitter) storedAddress(id ast.ExprID) (vil.Value, bool) {
	e := fe.src.Expr(id)
	if e == nil || e.Kind != ast.ExprDeclRef {
		return vil.Value{}, false
	}
	v, ok := fe.locals[e.DeclRef.Decl]
	if !ok || !v.Type().IsAddress() {
		return vil.Value{}, false
	}
	return v, true
}
