// Package emit lowers a type-checked module to VIL.
//
// Lowering happens in three steps: every function of the module is declared
// first so that calls can name functions emitted later, then a witness table
// is built for every conformance, and finally each body is emitted by its own
// FunctionEmitter. R-value and l-value emission are methods of that session
// and share its symbol table and builder.
package emit

import (
	"context"
	"errors"
	"strconv"

	"val/internal/ast"
	"val/internal/trace"
	"val/internal/types"
	"val/internal/vil"
)

// Emitter lowers one module.
type Emitter struct {
	src    *ast.Module
	in     *types.Interner
	out    *vil.Module
	tracer trace.Tracer
	span   uint64

	funs  map[ast.DeclID]*vil.Function
	names map[string]ast.DeclID
	order []ast.DeclID
}

// EmitModule lowers src. Recoverable errors of individual functions are
// joined in the returned error; the module is still returned so callers can
// inspect what was emitted. Faults of earlier phases panic with
// *InternalError or *UnsupportedError.
func EmitModule(ctx context.Context, src *ast.Module, in *types.Interner) (*vil.Module, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopePass, "lower", trace.CurrentSpan(ctx))
	defer span.End(src.Name)

	e := &Emitter{
		src:    src,
		in:     in,
		out:    vil.NewModule(src.Name, in),
		tracer: tracer,
		span:   span.ID(),
		funs:   make(map[ast.DeclID]*vil.Function),
		names:  make(map[string]ast.DeclID),
	}
	e.declareFunctions()
	e.emitWitnessTables()

	var errs []error
	for _, id := range e.order {
		if err := e.emitFunction(id); err != nil {
			errs = append(errs, err)
		}
	}
	span.WithExtra("functions", strconv.Itoa(len(e.out.Functions)))
	return e.out, errors.Join(errs...)
}

func (e *Emitter) internal(msg string) {
	panic(&InternalError{Func: e.src.Name, Msg: msg})
}

// declareFunctions creates a declaration for every function and method of
// the module, in source order.
func (e *Emitter) declareFunctions() {
	for _, item := range e.src.Items {
		d := e.src.Decl(item)
		switch d.Kind {
		case ast.DeclFun:
			e.declare(item)
		case ast.DeclProduct:
			for _, m := range d.Product.Members {
				if e.src.Decl(m).Kind == ast.DeclFun {
					e.declare(m)
				}
			}
		}
	}
}

func (e *Emitter) declare(id ast.DeclID) {
	d := e.src.Decl(id)
	if d.Fun.Builtin {
		return
	}
	name := e.functionName(id)
	f, err := e.out.GetOrCreateFunction(name, e.loweredFunType(id), e.src.QualifiedName(id))
	if err != nil {
		e.internal(err.Error())
	}
	e.funs[id] = f
	e.order = append(e.order, id)
}

// loweredFunType is the IR type of a function as a whole; methods take their
// receiver as the first parameter.
func (e *Emitter) loweredFunType(id ast.DeclID) vil.Type {
	d := e.src.Decl(id)
	if !d.IsMethod() {
		return vil.Object(d.Type)
	}
	return vil.Object(e.withReceiver(e.src.Decl(d.Fun.Self).Type, d.Type))
}

// withReceiver prepends a receiver of type self to the parameters of fun.
func (e *Emitter) withReceiver(self, fun types.TypeID) types.TypeID {
	params, ok := e.in.FunParams(fun)
	if !ok {
		e.internal("method type " + types.Label(e.in, fun) + " is not a function type")
	}
	elems := make([]types.TupleElem, 0, len(params)+1)
	elems = append(elems, types.TupleElem{Type: self})
	for _, p := range params {
		elems = append(elems, types.TupleElem{Type: p})
	}
	return e.in.Fun(e.in.Tuple(elems), e.in.MustLookup(fun).Result)
}

// emitWitnessTables builds one table per declared conformance, binding each
// requirement to the product method of the same name.
func (e *Emitter) emitWitnessTables() {
	for _, item := range e.src.Items {
		p := e.src.Decl(item)
		if p.Kind != ast.DeclProduct {
			continue
		}
		for _, viewID := range p.Product.Conformances {
			view := e.src.Decl(viewID)
			wt := &vil.WitnessTable{
				Name: vil.WitnessTableName(e.in, p.Type, view.Type),
				Type: p.Type,
				View: view.Type,
			}
			for _, req := range view.View.Requirements {
				impl, ok := e.implementation(p, e.src.Decl(req).Name)
				if !ok {
					e.internal(p.Name + " does not implement " + e.src.QualifiedName(req))
				}
				wt.Entries = append(wt.Entries, vil.WitnessEntry{
					Requirement: e.declRef(req),
					Function:    e.funs[impl].Name,
				})
			}
			if err := e.out.AddWitnessTable(wt); err != nil {
				e.internal(err.Error())
			}
		}
	}
}

func (e *Emitter) implementation(p *ast.Decl, name string) (ast.DeclID, bool) {
	for _, m := range p.Product.Members {
		d := e.src.Decl(m)
		if d.Kind == ast.DeclFun && d.Name == name {
			_, ok := e.funs[m]
			return m, ok
		}
	}
	return ast.NoDeclID, false
}

func (e *Emitter) declRef(id ast.DeclID) vil.DeclRef {
	return vil.DeclRef{ID: uint32(id), Name: e.src.QualifiedName(id)}
}

func (e *Emitter) emitFunction(id ast.DeclID) error {
	f := e.funs[id]
	d := e.src.Decl(id)
	if !d.Fun.Body.IsValid() {
		return nil
	}
	span := trace.Begin(e.tracer, trace.ScopeModule, "fun:"+f.Name, e.span)
	defer func() {
		span.WithExtra("blocks", strconv.Itoa(f.NumBlocks())).End("")
	}()
	return newFunctionEmitter(e, id, f).emitBody()
}
