package vil

import (
	"fmt"

	"val/internal/types"
)

// InstKind enumerates instruction kinds. The set is closed: consumers handle
// every kind through InstVisitor.
type InstKind uint8

const (
	InstAllocStack InstKind = iota + 1
	InstAllocExistential
	InstOpenExistential
	InstOpenExistentialAddr
	InstCopyAddr
	InstUnsafeCastAddr
	InstCheckedCastAddr
	InstWitnessMethod
	InstApply
	InstRecordMember
	InstRecordMemberAddr
	InstTuple
	InstStore
	InstLoad
	InstEqualAddr
	InstBranch
	InstCondBranch
	InstRet
	InstHalt
)

// String returns the instruction mnemonic.
func (k InstKind) String() string {
	switch k {
	case InstAllocStack:
		return "alloc_stack"
	case InstAllocExistential:
		return "alloc_existential"
	case InstOpenExistential:
		return "open_existential"
	case InstOpenExistentialAddr:
		return "open_existential_addr"
	case InstCopyAddr:
		return "copy_addr"
	case InstUnsafeCastAddr:
		return "unsafe_cast_addr"
	case InstCheckedCastAddr:
		return "checked_cast_addr"
	case InstWitnessMethod:
		return "witness_method"
	case InstApply:
		return "apply"
	case InstRecordMember:
		return "record_member"
	case InstRecordMemberAddr:
		return "record_member_addr"
	case InstTuple:
		return "tuple"
	case InstStore:
		return "store"
	case InstLoad:
		return "load"
	case InstEqualAddr:
		return "equal_addr"
	case InstBranch:
		return "branch"
	case InstCondBranch:
		return "cond_branch"
	case InstRet:
		return "ret"
	case InstHalt:
		return "halt"
	default:
		return fmt.Sprintf("InstKind(%d)", k)
	}
}

// IsTerminator reports whether k ends a basic block.
func (k InstKind) IsTerminator() bool {
	switch k {
	case InstBranch, InstCondBranch, InstRet, InstHalt:
		return true
	default:
		return false
	}
}

// HasResult reports whether instructions of kind k produce a value.
func (k InstKind) HasResult() bool {
	switch k {
	case InstCopyAddr, InstStore, InstBranch, InstCondBranch, InstRet, InstHalt:
		return false
	default:
		return true
	}
}

// Inst is one instruction, owned by exactly one block.
type Inst struct {
	Block BlockID
	// Type is the result type; invalid for instructions without a result.
	Type Type
	Data InstData
}

// Kind returns the instruction kind.
func (i *Inst) Kind() InstKind {
	return i.Data.Kind()
}

// InstData is the kind-specific payload of an instruction.
type InstData interface {
	Kind() InstKind
}

// DeclRef names a source declaration by its opaque identity.
type DeclRef struct {
	ID   uint32
	Name string
}

func (d DeclRef) String() string { return d.Name }

// AllocStack reserves stack storage for Allocated.
type AllocStack struct {
	Allocated types.TypeID
}

// AllocExistential carves storage for a concrete value inside the existential
// container at Container, using the named witness table.
type AllocExistential struct {
	Container Value
	Witness   string
}

// OpenExistential extracts the concrete value from an existential container.
type OpenExistential struct {
	Container Value
}

// OpenExistentialAddr extracts the address of the concrete value inside the
// existential container at Container.
type OpenExistentialAddr struct {
	Container Value
}

// CopyAddr copies the value at Source into Dest.
type CopyAddr struct {
	Source Value
	Dest   Value
}

// UnsafeCastAddr reinterprets Source as the address of Target.
type UnsafeCastAddr struct {
	Source Value
	Target types.TypeID
}

// CheckedCastAddr reinterprets Source as the address of Target; failure is
// the consumer's runtime concern.
type CheckedCastAddr struct {
	Source Value
	Target types.TypeID
}

// WitnessMethod resolves Requirement for the concrete type in Container.
type WitnessMethod struct {
	Container   Value
	Requirement DeclRef
}

// Apply invokes Fun with Args.
type Apply struct {
	Fun  Value
	Args []Value
}

// RecordMember reads a member of a record value.
type RecordMember struct {
	Record Value
	Member DeclRef
}

// RecordMemberAddr computes the address of a member of the record at Record.
type RecordMemberAddr struct {
	Record Value
	Member DeclRef
}

// TupleElem is one element of a tuple instruction.
type TupleElem struct {
	Label string
	Value Value
}

// Tuple builds a tuple value; its type is the instruction's result type.
type Tuple struct {
	Elems []TupleElem
}

// Store writes Value into Dest.
type Store struct {
	Value Value
	Dest  Value
}

// Load reads the value at Source.
type Load struct {
	Source Value
}

// EqualAddr compares two addresses.
type EqualAddr struct {
	LHS Value
	RHS Value
}

// Branch transfers control to Dest, binding Args to its parameters.
type Branch struct {
	Dest BlockID
	Args []Value
}

// CondBranch transfers control to Then or Else depending on Cond.
type CondBranch struct {
	Cond     Value
	Then     BlockID
	ThenArgs []Value
	Else     BlockID
	ElseArgs []Value
}

// Ret returns Value from the enclosing function.
type Ret struct {
	Value Value
}

// Halt aborts execution with Reason.
type Halt struct {
	Reason string
}

func (AllocStack) Kind() InstKind          { return InstAllocStack }
func (AllocExistential) Kind() InstKind    { return InstAllocExistential }
func (OpenExistential) Kind() InstKind     { return InstOpenExistential }
func (OpenExistentialAddr) Kind() InstKind { return InstOpenExistentialAddr }
func (CopyAddr) Kind() InstKind            { return InstCopyAddr }
func (UnsafeCastAddr) Kind() InstKind      { return InstUnsafeCastAddr }
func (CheckedCastAddr) Kind() InstKind     { return InstCheckedCastAddr }
func (WitnessMethod) Kind() InstKind       { return InstWitnessMethod }
func (Apply) Kind() InstKind               { return InstApply }
func (RecordMember) Kind() InstKind        { return InstRecordMember }
func (RecordMemberAddr) Kind() InstKind    { return InstRecordMemberAddr }
func (Tuple) Kind() InstKind               { return InstTuple }
func (Store) Kind() InstKind               { return InstStore }
func (Load) Kind() InstKind                { return InstLoad }
func (EqualAddr) Kind() InstKind           { return InstEqualAddr }
func (Branch) Kind() InstKind              { return InstBranch }
func (CondBranch) Kind() InstKind          { return InstCondBranch }
func (Ret) Kind() InstKind                 { return InstRet }
func (Halt) Kind() InstKind                { return InstHalt }
