package ast

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
)

// ModuleState tracks how far the front end got with a module.
type ModuleState uint8

const (
	// StateParsed means names and types are not checked yet.
	StateParsed ModuleState = iota
	// StateTypeChecked means every expression is resolved and typed.
	StateTypeChecked
	// StateInvalid means type checking reported errors.
	StateInvalid
)

func (s ModuleState) String() string {
	switch s {
	case StateParsed:
		return "parsed"
	case StateTypeChecked:
		return "type-checked"
	case StateInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("ModuleState(%d)", s)
	}
}

// Module is a module declaration together with the arenas of its nodes.
type Module struct {
	Name  string
	State ModuleState

	Decls []Decl
	Exprs []Expr
	Stmts []Stmt
	// Items are the top-level declarations in source order.
	Items []DeclID
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	return &Module{Name: name}
}

// Decl returns the declaration with the given handle, or nil.
func (m *Module) Decl(id DeclID) *Decl {
	if m == nil || id == NoDeclID || int(id) > len(m.Decls) {
		return nil
	}
	return &m.Decls[id-1]
}

// Expr returns the expression with the given handle, or nil.
func (m *Module) Expr(id ExprID) *Expr {
	if m == nil || id == NoExprID || int(id) > len(m.Exprs) {
		return nil
	}
	return &m.Exprs[id-1]
}

// Stmt returns the statement with the given handle, or nil.
func (m *Module) Stmt(id StmtID) *Stmt {
	if m == nil || id == NoStmtID || int(id) > len(m.Stmts) {
		return nil
	}
	return &m.Stmts[id-1]
}

// AddDecl appends a declaration and returns its handle.
func (m *Module) AddDecl(d Decl) DeclID {
	m.Decls = append(m.Decls, d)
	return DeclID(arenaHandle(len(m.Decls)))
}

// AddExpr appends an expression and returns its handle.
func (m *Module) AddExpr(e Expr) ExprID {
	m.Exprs = append(m.Exprs, e)
	return ExprID(arenaHandle(len(m.Exprs)))
}

// AddStmt appends a statement and returns its handle.
func (m *Module) AddStmt(s Stmt) StmtID {
	m.Stmts = append(m.Stmts, s)
	return StmtID(arenaHandle(len(m.Stmts)))
}

func arenaHandle(n int) uint32 {
	h, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("ast: arena overflow: %w", err))
	}
	return h
}

// QualifiedName joins the names of the declaration spaces enclosing id,
// outermost first, e.g. "Point.x".
func (m *Module) QualifiedName(id DeclID) string {
	var parts []string
	for cur := id; cur.IsValid(); {
		d := m.Decl(cur)
		if d == nil {
			break
		}
		parts = append(parts, d.Name)
		cur = d.Parent
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

// Owner returns the declaration space that directly contains id.
func (m *Module) Owner(id DeclID) *Decl {
	d := m.Decl(id)
	if d == nil {
		return nil
	}
	return m.Decl(d.Parent)
}
