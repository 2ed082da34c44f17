package emit

import (
	"context"
	"strings"
	"testing"

	"val/internal/ast"
	"val/internal/testkit"
	"val/internal/trace"
	"val/internal/types"
	"val/internal/vil"
)

type fixture struct {
	in  *types.Interner
	b   *ast.Builder
	i64 types.TypeID
	i32 types.TypeID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	in := types.NewInterner()
	i64, ok := in.Builtin("i64")
	if !ok {
		t.Fatalf("i64 is not a builtin")
	}
	i32, _ := in.Builtin("i32")
	return &fixture{in: in, b: ast.NewBuilder("m", in), i64: i64, i32: i32}
}

func (f *fixture) unit() types.TypeID { return f.in.Builtins().Unit }

// lower emits the module and checks the structural invariants of the result.
func (f *fixture) lower(t *testing.T) (*vil.Module, error) {
	t.Helper()
	out, err := EmitModule(context.Background(), f.b.M, f.in)
	if out == nil {
		t.Fatalf("EmitModule returned no module (err=%v)", err)
	}
	if ierr := testkit.CheckVILInvariants(out); ierr != nil {
		t.Fatalf("invariants: %v\n%s", ierr, vil.Dump(out))
	}
	return out, err
}

func (f *fixture) mustLower(t *testing.T) *vil.Module {
	t.Helper()
	out, err := f.lower(t)
	if err != nil {
		t.Fatalf("EmitModule: %v", err)
	}
	return out
}

func TestEmitLocals(t *testing.T) {
	f := newFixture(t)
	b := f.b
	main := b.Fun("main", f.i64)
	x := b.Local(main, "x", f.i64, true)
	b.SetBody(main,
		b.Binding(x, b.IntLit(1, f.i64)),
		b.ExprStmt(b.Assign(b.Ref(x), b.IntLit(2, f.i64))),
		b.Return(b.Ref(x)),
	)

	got := vil.Dump(f.mustLower(t))
	want := `// main
vilfun m.main : $() -> i64 {
bb0():
  _0 = alloc_stack $i64
  store 1 : $i64 to _0 : *i64
  store 2 : $i64 to _0 : *i64
  _1 = load _0 : *i64
  ret _1 : $i64
}

`
	if got != want {
		t.Fatalf("dump mismatch\n--- got ---\n%s--- want ---\n%s", got, want)
	}
}

func TestEmitMutatingMethod(t *testing.T) {
	f := newFixture(t)
	b := f.b
	point := b.Product("Point")
	x := b.Member(point, "x", f.i64, true)
	reset := b.Method(point, "reset", true, f.unit())
	b.SetBody(reset, b.ExprStmt(b.Assign(b.Ref(x), b.IntLit(0, f.i64))))

	got := vil.Dump(f.mustLower(t))
	want := `// Point.reset
vilfun m.Point.reset : $(inout Point) -> () {
bb0(_0 : *Point):
  _1 = record_member_addr _0 : *Point, Point.x
  store 0 : $i64 to _1 : *i64
  ret unit : $()
}

`
	if got != want {
		t.Fatalf("dump mismatch\n--- got ---\n%s--- want ---\n%s", got, want)
	}
}

func TestEmitMemberOfValueParameter(t *testing.T) {
	f := newFixture(t)
	b := f.b
	point := b.Product("Point")
	x := b.Member(point, "x", f.i64, true)
	get := b.Fun("get", f.i64, ast.Param{Name: "p", Type: b.M.Decl(point).Type})
	p := b.Params(get)[0]
	b.SetBody(get, b.Return(b.MemberRef(b.Ref(p), x)))

	got := vil.Dump(f.mustLower(t))
	if !strings.Contains(got, "_1 = record_member _0 : $Point, Point.x\n") {
		t.Fatalf("expected record_member on the parameter value:\n%s", got)
	}
	if strings.Contains(got, "record_member_addr") || strings.Contains(got, "alloc_stack") {
		t.Fatalf("by-value member read must not touch memory:\n%s", got)
	}
}

func TestEmitMemberOfLocal(t *testing.T) {
	f := newFixture(t)
	b := f.b
	point := b.Product("Point")
	x := b.Member(point, "x", f.i64, true)
	pt := b.M.Decl(point).Type
	fn := b.Fun("f", f.i64, ast.Param{Name: "q", Type: pt})
	p := b.Local(fn, "p", pt, true)
	b.SetBody(fn,
		b.Binding(p, b.Ref(b.Params(fn)[0])),
		b.ExprStmt(b.Assign(b.MemberRef(b.Ref(p), x), b.IntLit(3, f.i64))),
		b.Return(b.MemberRef(b.Ref(p), x)),
	)

	got := vil.Dump(f.mustLower(t))
	want := `// f
vilfun m.f : $(Point) -> i64 {
bb0(_0 : $Point):
  _1 = alloc_stack $Point
  store _0 : $Point to _1 : *Point
  _2 = record_member_addr _1 : *Point, Point.x
  store 3 : $i64 to _2 : *i64
  _3 = record_member_addr _1 : *Point, Point.x
  _4 = load _3 : *i64
  ret _4 : $i64
}

`
	if got != want {
		t.Fatalf("dump mismatch\n--- got ---\n%s--- want ---\n%s", got, want)
	}
}

func TestEmitRequirementCall(t *testing.T) {
	f := newFixture(t)
	b := f.b
	shape := b.View("Shape")
	area := b.Method(shape, "area", false, f.i64)
	measure := b.Fun("measure", f.i64, ast.Param{Name: "s", Type: b.M.Decl(shape).Type})
	s := b.Params(measure)[0]
	b.SetBody(measure, b.Return(b.Call(b.MemberRef(b.Ref(s), area))))

	got := vil.Dump(f.mustLower(t))
	want := `// measure
vilfun m.measure : $(Shape) -> i64 {
bb0(_0 : $Shape):
  _1 = alloc_stack $Shape
  store _0 : $Shape to _1 : *Shape
  _2 = open_existential _0 : $Shape as $@opened(Shape)
  _3 = witness_method _1 : *Shape, Shape.area
  _4 = apply _3 : $(@opened(Shape)) -> i64 to (_2 : $@opened(Shape))
  ret _4 : $i64
}

`
	if got != want {
		t.Fatalf("dump mismatch\n--- got ---\n%s--- want ---\n%s", got, want)
	}
}

func TestEmitMutatingRequirementCall(t *testing.T) {
	f := newFixture(t)
	b := f.b
	shape := b.View("Shape")
	grow := b.Method(shape, "grow", true, f.unit())
	fn := b.Fun("f", f.unit(), ast.Param{Name: "s", Type: b.M.Decl(shape).Type})
	s := b.Local(fn, "t", b.M.Decl(shape).Type, true)
	b.SetBody(fn,
		b.Binding(s, b.Ref(b.Params(fn)[0])),
		b.ExprStmt(b.Call(b.MemberRef(b.Ref(s), grow))),
	)

	got := vil.Dump(f.mustLower(t))
	for _, line := range []string{
		"_2 = open_existential_addr _1 : *Shape as *@opened(Shape)\n",
		"_3 = witness_method _1 : *Shape, Shape.grow\n",
		"_4 = apply _3 : $(inout @opened(Shape)) -> () to (_2 : *@opened(Shape))\n",
	} {
		if !strings.Contains(got, line) {
			t.Fatalf("missing %q in\n%s", line, got)
		}
	}
}

func TestEmitPackAndWitnessTable(t *testing.T) {
	f := newFixture(t)
	b := f.b
	shape := b.View("Shape")
	b.Method(shape, "area", false, f.i64)
	square := b.Product("Square")
	side := b.Member(square, "side", f.i64, true)
	area := b.Method(square, "area", false, f.i64)
	b.SetBody(area, b.Return(b.Ref(side)))
	b.Conform(square, shape)

	wrap := b.Fun("wrap", b.M.Decl(shape).Type, ast.Param{Name: "s", Type: b.M.Decl(square).Type})
	b.SetBody(wrap, b.Return(b.Ref(b.Params(wrap)[0])))

	out := f.mustLower(t)
	got := vil.Dump(out)
	want := `// Square.area
vilfun m.Square.area : $(Square) -> i64 {
bb0(_0 : $Square):
  _1 = record_member _0 : $Square, Square.side
  ret _1 : $i64
}

// wrap
vilfun m.wrap : $(Square) -> Shape {
bb0(_0 : $Square):
  _1 = alloc_stack $Shape
  _2 = alloc_existential _1 : *Shape, Square: Shape
  store _0 : $Square to _2 : *Square
  _3 = load _1 : *Shape
  ret _3 : $Shape
}

witness_table Square: Shape {
  Shape.area: @m.Square.area
}

`
	if got != want {
		t.Fatalf("dump mismatch\n--- got ---\n%s--- want ---\n%s", got, want)
	}

	wt, ok := out.WitnessTable(b.M.Decl(square).Type, b.M.Decl(shape).Type)
	if !ok {
		t.Fatalf("witness table not registered")
	}
	if len(wt.Entries) != 1 || wt.Entries[0].Function != "m.Square.area" {
		t.Fatalf("unexpected entries %+v", wt.Entries)
	}
}

func TestEmitIf(t *testing.T) {
	f := newFixture(t)
	b := f.b
	boolT := f.in.Builtins().Bool
	pick := b.Fun("pick", f.i64, ast.Param{Name: "c", Type: boolT})
	c := b.Params(pick)[0]
	b.SetBody(pick, b.Return(b.If(b.Ref(c), b.IntLit(1, f.i64), b.IntLit(2, f.i64), f.i64)))

	got := vil.Dump(f.mustLower(t))
	want := `// pick
vilfun m.pick : $(i1) -> i64 {
bb0(_0 : $i1):
  cond_branch _0 : $i1 bb1() bb2()
bb1():
  branch bb3(1 : $i64)
bb2():
  branch bb3(2 : $i64)
bb3(_1 : $i64):
  ret _1 : $i64
}

`
	if got != want {
		t.Fatalf("dump mismatch\n--- got ---\n%s--- want ---\n%s", got, want)
	}
}

func TestEmitIfWithoutElse(t *testing.T) {
	f := newFixture(t)
	b := f.b
	boolT := f.in.Builtins().Bool
	fn := b.Fun("f", f.unit(), ast.Param{Name: "c", Type: boolT})
	x := b.Local(fn, "x", f.i64, true)
	b.SetBody(fn,
		b.Binding(x, b.IntLit(0, f.i64)),
		b.ExprStmt(b.If(b.Ref(b.Params(fn)[0]), b.Assign(b.Ref(x), b.IntLit(1, f.i64)), ast.NoExprID, f.unit())),
	)

	got := vil.Dump(f.mustLower(t))
	if !strings.Contains(got, "bb2():\n  branch bb3(unit : $())\n") {
		t.Fatalf("else arm should pass unit to the join block:\n%s", got)
	}
}

func TestEmitIdentity(t *testing.T) {
	f := newFixture(t)
	b := f.b
	fn := b.Fun("same", f.in.Builtins().Bool)
	a := b.Local(fn, "a", f.i64, true)
	b.SetBody(fn,
		b.Binding(a, b.IntLit(1, f.i64)),
		b.Return(b.Identity(b.Ref(a), b.Ref(a))),
	)

	got := vil.Dump(f.mustLower(t))
	if !strings.Contains(got, "_1 = equal_addr _0 : *i64, _0 : *i64\n  ret _1 : $i1\n") {
		t.Fatalf("unexpected identity lowering:\n%s", got)
	}
}

func TestEmitCast(t *testing.T) {
	tests := []struct {
		name    string
		checked bool
		want    string
	}{
		{"checked", true, "_2 = checked_cast_addr _1 : *i64 as *i32\n"},
		{"unsafe", false, "_2 = unsafe_cast_addr _1 : *i64 as *i32\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			b := f.b
			fn := b.Fun("conv", f.i32, ast.Param{Name: "n", Type: f.i64})
			b.SetBody(fn, b.Return(b.Cast(b.Ref(b.Params(fn)[0]), f.i32, tt.checked)))

			got := vil.Dump(f.mustLower(t))
			if !strings.Contains(got, "_1 = alloc_stack $i64\n  store _0 : $i64 to _1 : *i64\n") {
				t.Fatalf("r-value operand should be spilled:\n%s", got)
			}
			if !strings.Contains(got, tt.want) || !strings.Contains(got, "_3 = load _2 : *i32\n") {
				t.Fatalf("unexpected cast lowering:\n%s", got)
			}
		})
	}
}

func TestEmitInoutCall(t *testing.T) {
	f := newFixture(t)
	b := f.b
	bump := b.Fun("bump", f.unit(), ast.Param{Name: "n", Type: f.in.Inout(f.i64)})
	b.SetBody(bump, b.ExprStmt(b.Assign(b.Ref(b.Params(bump)[0]), b.IntLit(1, f.i64))))

	main := b.Fun("main", f.unit())
	x := b.Local(main, "x", f.i64, true)
	b.SetBody(main,
		b.Binding(x, b.IntLit(0, f.i64)),
		b.ExprStmt(b.Call(b.Ref(bump), b.AddrOf(b.Ref(x)))),
	)

	got := vil.Dump(f.mustLower(t))
	for _, line := range []string{
		"vilfun m.bump : $(inout i64) -> () {\nbb0(_0 : *i64):\n  store 1 : $i64 to _0 : *i64\n",
		"_1 = apply @m.bump : $(inout i64) -> () to (_0 : *i64)\n",
	} {
		if !strings.Contains(got, line) {
			t.Fatalf("missing %q in\n%s", line, got)
		}
	}
}

func TestEmitBuiltinCall(t *testing.T) {
	f := newFixture(t)
	b := f.b
	add := b.Builtin("i64_add", f.i64, ast.Param{Name: "a", Type: f.i64}, ast.Param{Name: "b", Type: f.i64})
	fn := b.Fun("twice", f.i64, ast.Param{Name: "n", Type: f.i64})
	n := b.Params(fn)[0]
	b.SetBody(fn, b.Return(b.Call(b.Ref(add), b.Ref(n), b.Ref(n))))

	got := vil.Dump(f.mustLower(t))
	if !strings.Contains(got, `_1 = apply b"i64_add" : $(i64, i64) -> i64 to (_0 : $i64, _0 : $i64)`) {
		t.Fatalf("unexpected builtin call:\n%s", got)
	}
	if strings.Contains(got, "vilfun m.i64_add") {
		t.Fatalf("builtins must not be declared:\n%s", got)
	}
}

func TestEmitMethodCalls(t *testing.T) {
	f := newFixture(t)
	b := f.b
	counter := b.Product("Counter")
	n := b.Member(counter, "n", f.i64, true)
	incr := b.Method(counter, "incr", true, f.unit())
	b.SetBody(incr, b.ExprStmt(b.Assign(b.Ref(n), b.IntLit(1, f.i64))))
	twice := b.Method(counter, "twice", true, f.unit())
	b.SetBody(twice,
		b.ExprStmt(b.Call(b.Ref(incr))),
		b.ExprStmt(b.Call(b.Ref(incr))),
	)
	get := b.Method(counter, "get", false, f.i64)
	b.SetBody(get, b.Return(b.Ref(n)))

	use := b.Fun("use", f.i64)
	c := b.Local(use, "c", b.M.Decl(counter).Type, true)
	b.SetBody(use,
		b.Binding(c, ast.NoExprID),
		b.ExprStmt(b.Call(b.MemberRef(b.Ref(c), incr))),
		b.Return(b.Call(b.MemberRef(b.Ref(c), get))),
	)

	got := vil.Dump(f.mustLower(t))
	for _, line := range []string{
		"_1 = apply @m.Counter.incr : $(inout Counter) -> () to (_0 : *Counter)\n  _2 = apply @m.Counter.incr",
		"_1 = apply @m.Counter.incr : $(inout Counter) -> () to (_0 : *Counter)\n  _2 = load _0 : *Counter\n  _3 = apply @m.Counter.get : $(Counter) -> i64 to (_2 : $Counter)\n",
	} {
		if !strings.Contains(got, line) {
			t.Fatalf("missing %q in\n%s", line, got)
		}
	}
}

func TestEmitTuple(t *testing.T) {
	f := newFixture(t)
	b := f.b
	fn := b.Fun("pair", f.unit(), ast.Param{Name: "n", Type: f.i64})
	n := b.Params(fn)[0]
	b.SetBody(fn, b.ExprStmt(b.Tuple(
		ast.TupleElem{Label: "a", Value: b.Ref(n)},
		ast.TupleElem{Value: b.IntLit(2, f.i64)},
	)))

	got := vil.Dump(f.mustLower(t))
	if !strings.Contains(got, "_1 = tuple $(a: i64, i64) (a: _0 : $i64, 2 : $i64)\n") {
		t.Fatalf("unexpected tuple:\n%s", got)
	}
}

func TestEmitCopyBetweenLocals(t *testing.T) {
	f := newFixture(t)
	b := f.b
	fn := b.Fun("f", f.unit())
	x := b.Local(fn, "x", f.i64, true)
	y := b.Local(fn, "y", f.i64, true)
	b.SetBody(fn,
		b.Binding(x, b.IntLit(1, f.i64)),
		b.Binding(y, b.Ref(x)),
		b.ExprStmt(b.Assign(b.Ref(x), b.Ref(y))),
	)

	got := vil.Dump(f.mustLower(t))
	for _, line := range []string{
		"copy_addr _0 : *i64 to _1 : *i64\n",
		"copy_addr _1 : *i64 to _0 : *i64\n",
	} {
		if !strings.Contains(got, line) {
			t.Fatalf("missing %q in\n%s", line, got)
		}
	}
	if strings.Contains(got, "load") {
		t.Fatalf("local-to-local copies must not load:\n%s", got)
	}
}

func TestEmitMissingReturn(t *testing.T) {
	f := newFixture(t)
	b := f.b
	fn := b.Fun("f", f.i64)
	b.SetBody(fn)

	got := vil.Dump(f.mustLower(t))
	if !strings.Contains(got, "bb0():\n  halt \"missing return in f\"\n") {
		t.Fatalf("expected a halt:\n%s", got)
	}
}

func TestEmitSkipsDeadCode(t *testing.T) {
	f := newFixture(t)
	b := f.b
	fn := b.Fun("f", f.i64)
	b.SetBody(fn,
		b.Return(b.IntLit(1, f.i64)),
		b.Return(b.IntLit(2, f.i64)),
	)

	got := vil.Dump(f.mustLower(t))
	if strings.Count(got, "ret ") != 1 || strings.Contains(got, "ret 2") {
		t.Fatalf("statements after a return must be skipped:\n%s", got)
	}
}

func TestEmitDeclarationsOnly(t *testing.T) {
	f := newFixture(t)
	f.b.Fun("external", f.i64, ast.Param{Name: "n", Type: f.i64})

	out := f.mustLower(t)
	fn, ok := out.Function("m.external")
	if !ok {
		t.Fatalf("function not declared")
	}
	if !fn.IsDeclaration() {
		t.Fatalf("a function without a body should stay a declaration")
	}
}

func TestEmitDeterministic(t *testing.T) {
	build := func() string {
		f := newFixture(t)
		b := f.b
		point := b.Product("Point")
		x := b.Member(point, "x", f.i64, true)
		reset := b.Method(point, "reset", true, f.unit())
		b.SetBody(reset, b.ExprStmt(b.Assign(b.Ref(x), b.IntLit(0, f.i64))))
		main := b.Fun("main", f.i64)
		y := b.Local(main, "y", f.i64, true)
		b.SetBody(main, b.Binding(y, b.IntLit(7, f.i64)), b.Return(b.Ref(y)))
		return vil.Dump(f.mustLower(t))
	}
	first := build()
	for range 5 {
		if got := build(); got != first {
			t.Fatalf("lowering is not deterministic:\n%s\nvs\n%s", first, got)
		}
	}
}

func TestEmitTraceSpans(t *testing.T) {
	f := newFixture(t)
	b := f.b
	main := b.Fun("main", f.unit())
	b.SetBody(main)

	ring := trace.NewRingTracer(64, trace.LevelDebug)
	ctx := trace.WithTracer(context.Background(), ring)
	if _, err := EmitModule(ctx, b.M, f.in); err != nil {
		t.Fatalf("EmitModule: %v", err)
	}

	var lower, fun *trace.Event
	events := ring.Snapshot()
	for i := range events {
		ev := &events[i]
		if ev.Kind != trace.KindSpanBegin {
			continue
		}
		switch ev.Name {
		case "lower":
			lower = ev
		case "fun:m.main":
			fun = ev
		}
	}
	if lower == nil || fun == nil {
		t.Fatalf("missing spans in %+v", events)
	}
	if fun.ParentID != lower.SpanID {
		t.Fatalf("function span parent = %d, want %d", fun.ParentID, lower.SpanID)
	}
}
