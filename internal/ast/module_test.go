package ast

import (
	"strings"
	"testing"

	"val/internal/types"
)

func TestModuleHandles(t *testing.T) {
	m := NewModule("m")
	if m.Decl(NoDeclID) != nil || m.Expr(1) != nil || m.Stmt(1) != nil {
		t.Fatalf("empty module should resolve no handles")
	}
	id := m.AddDecl(Decl{Kind: DeclFun, Name: "f"})
	if id != 1 {
		t.Fatalf("first handle = %d, want 1", id)
	}
	if d := m.Decl(id); d == nil || d.Name != "f" {
		t.Fatalf("Decl(%d) = %+v", id, d)
	}
	if m.Decl(id+1) != nil {
		t.Fatalf("out of range handle resolved")
	}
	var nilModule *Module
	if nilModule.Decl(id) != nil {
		t.Fatalf("nil module resolved a handle")
	}
}

func TestQualifiedName(t *testing.T) {
	in := types.NewInterner()
	i64, _ := in.Builtin("i64")
	b := NewBuilder("m", in)
	point := b.Product("Point")
	x := b.Member(point, "x", i64, true)
	scale := b.Method(point, "scale", true, i64, Param{Name: "by", Type: i64})

	tests := []struct {
		id   DeclID
		want string
	}{
		{point, "Point"},
		{x, "Point.x"},
		{scale, "Point.scale"},
		{b.Self(scale), "Point.scale.self"},
		{b.Params(scale)[0], "Point.scale.by"},
	}
	for _, tt := range tests {
		if got := b.M.QualifiedName(tt.id); got != tt.want {
			t.Fatalf("QualifiedName(%d) = %q, want %q", tt.id, got, tt.want)
		}
	}
	if owner := b.M.Owner(x); owner == nil || owner.Name != "Point" {
		t.Fatalf("Owner(x) = %+v", owner)
	}
	if b.M.Owner(point) != nil {
		t.Fatalf("module-scope declaration has an owner")
	}
}

func TestMethodReceiver(t *testing.T) {
	in := types.NewInterner()
	unit := in.Builtins().Unit
	b := NewBuilder("m", in)
	point := b.Product("Point")
	shape := b.View("Shape")

	get := b.Method(point, "get", false, unit)
	set := b.Method(point, "set", true, unit)
	req := b.Method(shape, "area", false, unit)

	pointType := b.M.Decl(point).Type
	if got := b.M.Decl(b.Self(get)).Type; got != pointType {
		t.Fatalf("non-mutating self has type %d, want %d", got, pointType)
	}
	if got := b.M.Decl(b.Self(set)).Type; got != in.Inout(pointType) {
		t.Fatalf("mutating self has type %d, want inout", got)
	}
	if !b.M.Decl(get).IsMethod() || !b.M.Decl(req).IsMethod() {
		t.Fatalf("methods should report IsMethod")
	}
	if reqs := b.M.Decl(shape).View.Requirements; len(reqs) != 1 || reqs[0] != req {
		t.Fatalf("requirements = %v", reqs)
	}
	if members := b.M.Decl(point).Product.Members; len(members) != 2 {
		t.Fatalf("members = %v", members)
	}
}

func TestMethodOwnerMustBeNominal(t *testing.T) {
	in := types.NewInterner()
	b := NewBuilder("m", in)
	fun := b.Fun("f", in.Builtins().Unit)
	defer func() {
		r := recover()
		msg, ok := r.(string)
		if !ok || !strings.Contains(msg, "cannot own methods") {
			t.Fatalf("expected a panic about the owner, got %v", r)
		}
	}()
	b.Method(fun, "g", false, in.Builtins().Unit)
}
