package types

import "testing"

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Unit == NoTypeID || b.IntLiteral == NoTypeID || b.Error == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	unit, _ := in.Lookup(b.Unit)
	if unit.Kind != KindTuple {
		t.Fatalf("expected unit to be a tuple, got %v", unit.Kind)
	}
	if got := Label(in, b.Unit); got != "()" {
		t.Fatalf("unit label = %q", got)
	}
}

func TestBuiltinRegistry(t *testing.T) {
	in := NewInterner()
	lit, ok := in.Builtin("IntLiteral")
	if !ok || lit != in.Builtins().IntLiteral {
		t.Fatalf("IntLiteral lookup failed")
	}
	i64, ok := in.Builtin("i64")
	if !ok {
		t.Fatalf("i64 lookup failed")
	}
	again, _ := in.Builtin("i64")
	if again != i64 {
		t.Fatalf("builtin types must be cached")
	}
	if got := Label(in, i64); got != "i64" {
		t.Fatalf("label = %q", got)
	}
	for _, name := range []string{"i0", "i65", "int", "f32", "i", "i+8", "i-8", "i08", "i 8", "i8 "} {
		if _, ok := in.Builtin(name); ok {
			t.Fatalf("%q must not name a builtin", name)
		}
	}
	if b, _ := in.Builtin("i1"); b != in.Builtins().Bool {
		t.Fatalf("i1 must be the boolean type")
	}
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	i32, _ := in.Builtin("i32")
	params := in.TupleOf(i32, i32)
	if params != in.TupleOf(i32, i32) {
		t.Fatalf("tuple types should be deduplicated")
	}
	f1 := in.Fun(params, i32)
	f2 := in.Fun(in.TupleOf(i32, i32), i32)
	if f1 != f2 {
		t.Fatalf("function types should be deduplicated")
	}
	if in.Inout(i32) != in.Inout(i32) {
		t.Fatalf("inout types should be deduplicated")
	}
	if in.Inout(in.Inout(i32)) != in.Inout(i32) {
		t.Fatalf("inout of inout should collapse")
	}
	if got := Label(in, f1); got != "(i32, i32) -> i32" {
		t.Fatalf("fun label = %q", got)
	}
}

func TestTupleLabelsAffectIdentity(t *testing.T) {
	in := NewInterner()
	i8, _ := in.Builtin("i8")
	labeled := in.Tuple([]TupleElem{{Label: "x", Type: i8}})
	plain := in.TupleOf(i8)
	if labeled == plain {
		t.Fatalf("labeled and unlabeled tuples must differ")
	}
	if got := Label(in, labeled); got != "(x: i8)" {
		t.Fatalf("label = %q", got)
	}
}

func TestNominalTypesAreDistinct(t *testing.T) {
	in := NewInterner()
	a := in.RegisterProduct("Point", 1)
	b := in.RegisterProduct("Point", 2)
	if a == b {
		t.Fatalf("two product declarations must produce distinct types")
	}
	v := in.RegisterView("Shape", 3)
	info, ok := in.NominalInfo(v)
	if !ok || info.Name != "Shape" || info.Decl != 3 {
		t.Fatalf("unexpected nominal info %+v", info)
	}
	if got := Label(in, in.Opened(v)); got != "@opened(Shape)" {
		t.Fatalf("opened label = %q", got)
	}
	if in.Strip(in.Inout(a)) != a {
		t.Fatalf("strip must remove inout")
	}
}

func TestSnapshotPreservesIdentity(t *testing.T) {
	in := NewInterner()
	i64, _ := in.Builtin("i64")
	point := in.RegisterProduct("Point", 7)
	pair := in.Tuple([]TupleElem{{Label: "x", Type: i64}, {Label: "y", Type: i64}})
	fun := in.Fun(in.TupleOf(in.Inout(point)), pair)

	out, err := FromSnapshot(in.Snapshot())
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}
	if got, _ := out.Builtin("i64"); got != i64 {
		t.Fatalf("i64 = %d, want %d", got, i64)
	}
	if got := out.Tuple([]TupleElem{{Label: "x", Type: i64}, {Label: "y", Type: i64}}); got != pair {
		t.Fatalf("tuple = %d, want %d", got, pair)
	}
	if got := out.Fun(out.TupleOf(out.Inout(point)), pair); got != fun {
		t.Fatalf("fun = %d, want %d", got, fun)
	}
	if Label(out, fun) != Label(in, fun) {
		t.Fatalf("labels differ: %q vs %q", Label(out, fun), Label(in, fun))
	}
}
