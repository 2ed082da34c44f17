package ast

import "fmt"

// StmtKind enumerates statement kinds.
type StmtKind uint8

const (
	// StmtBrace is a sequence of statements.
	StmtBrace StmtKind = iota + 1
	// StmtBinding introduces a local `var` or `val`.
	StmtBinding
	// StmtExpr evaluates an expression for its effects.
	StmtExpr
	// StmtReturn leaves the enclosing function.
	StmtReturn
)

func (k StmtKind) String() string {
	switch k {
	case StmtBrace:
		return "Brace"
	case StmtBinding:
		return "Binding"
	case StmtExpr:
		return "Expr"
	case StmtReturn:
		return "Return"
	default:
		return fmt.Sprintf("StmtKind(%d)", k)
	}
}

// Stmt is a statement. Kind selects the payload.
type Stmt struct {
	Kind StmtKind

	Brace   BraceData   `msgpack:",omitempty"`
	Binding BindingData `msgpack:",omitempty"`
	Expr    ExprID      `msgpack:",omitempty"`
	Return  ReturnData  `msgpack:",omitempty"`
}

// BraceData is the payload of StmtBrace.
type BraceData struct {
	Stmts []StmtID
}

// BindingData is the payload of StmtBinding. Decl is a DeclVar.
type BindingData struct {
	Decl DeclID
	Init ExprID
}

// ReturnData is the payload of StmtReturn. Value is NoExprID for `return`.
type ReturnData struct {
	Value ExprID
}
