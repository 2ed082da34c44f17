// Package ast holds the type-checked tree the front end hands to VIL emission.
//
// Every node lives in an arena owned by a Module and is referenced by a
// 1-based handle; zero means "none". Names are already resolved: a reference
// carries the DeclID it denotes and every expression carries its type.
package ast

type (
	DeclID uint32
	ExprID uint32
	StmtID uint32
)

const (
	NoDeclID DeclID = 0
	NoExprID ExprID = 0
	NoStmtID StmtID = 0
)

func (id DeclID) IsValid() bool { return id != NoDeclID }
func (id ExprID) IsValid() bool { return id != NoExprID }
func (id StmtID) IsValid() bool { return id != NoStmtID }
