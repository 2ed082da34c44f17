package vil

import (
	"fmt"

	"val/internal/types"
)

// Builder appends instructions at an insertion point and hands back their
// result values. It checks the operand shapes each kind expects and refuses
// to append after a terminator.
type Builder struct {
	Module *Module

	fn       *Function
	block    BlockID
	hasBlock bool
}

// NewBuilder creates a builder with no insertion point.
func NewBuilder(m *Module) *Builder {
	return &Builder{Module: m}
}

// Function returns the function being built.
func (b *Builder) Function() *Function { return b.fn }

// SetInsertionPoint moves the builder to the end of block bb of f.
func (b *Builder) SetInsertionPoint(f *Function, bb BlockID) {
	if !f.HasBlock(bb) {
		panic(fmt.Sprintf("vil: %s has no block bb%d", f.Name, bb))
	}
	b.fn, b.block, b.hasBlock = f, bb, true
}

// ClearInsertionPoint detaches the builder.
func (b *Builder) ClearInsertionPoint() {
	b.fn, b.block, b.hasBlock = nil, 0, false
}

// InsertionBlock returns the current block.
func (b *Builder) InsertionBlock() (BlockID, bool) {
	return b.block, b.hasBlock
}

// Terminated reports whether the current block already ends with a
// terminator.
func (b *Builder) Terminated() bool {
	if !b.hasBlock {
		return false
	}
	_, ok := b.fn.Terminator(b.block)
	return ok
}

func (b *Builder) append(data InstData, result Type) Value {
	if !b.hasBlock {
		panic(fmt.Sprintf("vil: %s built without an insertion point", data.Kind()))
	}
	return b.fn.AppendInst(b.block, data, result)
}

func expectAddress(k InstKind, v Value) {
	if !v.Type().IsAddress() {
		panic(fmt.Sprintf("vil: %s expects an address operand, got %s", k, v.Kind()))
	}
}

func expectObject(k InstKind, v Value) {
	if !v.IsValid() {
		panic(fmt.Sprintf("vil: %s got an invalid operand", k))
	}
	if v.Type().IsAddress() {
		panic(fmt.Sprintf("vil: %s expects an object operand, got an address", k))
	}
}

// BuildAllocStack reserves storage for t.
func (b *Builder) BuildAllocStack(t types.TypeID) Value {
	return b.append(AllocStack{Allocated: t}, Address(t))
}

// BuildAllocExistential carves storage of type concrete inside container.
func (b *Builder) BuildAllocExistential(container Value, witness *WitnessTable) Value {
	expectAddress(InstAllocExistential, container)
	return b.append(AllocExistential{Container: container, Witness: witness.Name}, Address(witness.Type))
}

// BuildOpenExistential extracts the value of type opened from container.
func (b *Builder) BuildOpenExistential(container Value, opened types.TypeID) Value {
	expectObject(InstOpenExistential, container)
	return b.append(OpenExistential{Container: container}, Object(opened))
}

// BuildOpenExistentialAddr extracts the address of the value in container.
func (b *Builder) BuildOpenExistentialAddr(container Value, opened types.TypeID) Value {
	expectAddress(InstOpenExistentialAddr, container)
	return b.append(OpenExistentialAddr{Container: container}, Address(opened))
}

// BuildCopyAddr copies the value at src into dst.
func (b *Builder) BuildCopyAddr(src, dst Value) {
	expectAddress(InstCopyAddr, src)
	expectAddress(InstCopyAddr, dst)
	b.append(CopyAddr{Source: src, Dest: dst}, Type{})
}

// BuildUnsafeCastAddr reinterprets src as the address of target.
func (b *Builder) BuildUnsafeCastAddr(src Value, target types.TypeID) Value {
	expectAddress(InstUnsafeCastAddr, src)
	return b.append(UnsafeCastAddr{Source: src, Target: target}, Address(target))
}

// BuildCheckedCastAddr reinterprets src as the address of target.
func (b *Builder) BuildCheckedCastAddr(src Value, target types.TypeID) Value {
	expectAddress(InstCheckedCastAddr, src)
	return b.append(CheckedCastAddr{Source: src, Target: target}, Address(target))
}

// BuildWitnessMethod resolves req for the value in container; t is the
// lowered type of the requirement.
func (b *Builder) BuildWitnessMethod(container Value, req DeclRef, t Type) Value {
	expectAddress(InstWitnessMethod, container)
	return b.append(WitnessMethod{Container: container, Requirement: req}, t)
}

// BuildApply calls fun with args. The result type is the lowered result of
// fun's type, or the error type when fun is not a function.
func (b *Builder) BuildApply(fun Value, args []Value) Value {
	expectObject(InstApply, fun)
	result := Object(b.Module.Types.Builtins().Error)
	if tt, ok := b.Module.Types.Lookup(fun.Type().Source()); ok && tt.Kind == types.KindFun {
		result = Lower(b.Module.Types, tt.Result)
	}
	return b.append(Apply{Fun: fun, Args: args}, result)
}

// BuildRecordMember reads member, of type t, from record.
func (b *Builder) BuildRecordMember(record Value, member DeclRef, t types.TypeID) Value {
	expectObject(InstRecordMember, record)
	return b.append(RecordMember{Record: record, Member: member}, Object(t))
}

// BuildRecordMemberAddr computes the address of member, of type t, in the
// record at record.
func (b *Builder) BuildRecordMemberAddr(record Value, member DeclRef, t types.TypeID) Value {
	expectAddress(InstRecordMemberAddr, record)
	return b.append(RecordMemberAddr{Record: record, Member: member}, Address(t))
}

// BuildTuple constructs a tuple of type t.
func (b *Builder) BuildTuple(t types.TypeID, elems []TupleElem) Value {
	for _, e := range elems {
		expectObject(InstTuple, e.Value)
	}
	return b.append(Tuple{Elems: elems}, Object(t))
}

// BuildStore writes v into dst.
func (b *Builder) BuildStore(v, dst Value) {
	expectObject(InstStore, v)
	expectAddress(InstStore, dst)
	b.append(Store{Value: v, Dest: dst}, Type{})
}

// BuildLoad reads the value at src.
func (b *Builder) BuildLoad(src Value) Value {
	expectAddress(InstLoad, src)
	return b.append(Load{Source: src}, src.Type().ObjectType())
}

// BuildEqualAddr compares two addresses.
func (b *Builder) BuildEqualAddr(lhs, rhs Value) Value {
	expectAddress(InstEqualAddr, lhs)
	expectAddress(InstEqualAddr, rhs)
	return b.append(EqualAddr{LHS: lhs, RHS: rhs}, Object(b.Module.Types.Builtins().Bool))
}

// BuildBranch jumps to dest.
func (b *Builder) BuildBranch(dest BlockID, args ...Value) {
	for _, a := range args {
		expectObject(InstBranch, a)
	}
	b.append(Branch{Dest: dest, Args: args}, Type{})
}

// BuildCondBranch jumps to then or els depending on cond.
func (b *Builder) BuildCondBranch(cond Value, then BlockID, thenArgs []Value, els BlockID, elseArgs []Value) {
	expectObject(InstCondBranch, cond)
	b.append(CondBranch{Cond: cond, Then: then, ThenArgs: thenArgs, Else: els, ElseArgs: elseArgs}, Type{})
}

// BuildRet returns v.
func (b *Builder) BuildRet(v Value) {
	expectObject(InstRet, v)
	b.append(Ret{Value: v}, Type{})
}

// BuildHalt aborts with reason.
func (b *Builder) BuildHalt(reason string) {
	b.append(Halt{Reason: reason}, Type{})
}
