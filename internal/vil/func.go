package vil

import (
	"fmt"

	"fortio.org/safecast"
)

type (
	// BlockID is the position of a block in its function.
	BlockID uint32
	// InstID is the handle of an instruction in its function's arena.
	InstID uint32
	// ArgID is the handle of a block argument in its function's arena.
	ArgID uint32
)

// Block is a basic block: typed arguments and an ordered instruction list.
type Block struct {
	ID    BlockID
	Args  []ArgID
	Insts []InstID
}

// Arg is a block argument.
type Arg struct {
	Block BlockID
	Type  Type
}

// Function is a VIL function. A function without blocks is a declaration.
type Function struct {
	Name string
	// Type is the lowered type of the function as a whole.
	Type Type
	// DebugName is an optional human-readable name printed as a comment.
	DebugName string

	blocks []Block
	insts  []Inst
	args   []Arg
}

// NewFunction creates a function declaration.
func NewFunction(name string, t Type, debugName string) *Function {
	return &Function{Name: name, Type: t, DebugName: debugName}
}

// IsDeclaration reports whether f has no body.
func (f *Function) IsDeclaration() bool { return len(f.blocks) == 0 }

// NumBlocks returns the number of blocks.
func (f *Function) NumBlocks() int { return len(f.blocks) }

// Blocks returns the blocks in order. Callers must not modify the slice.
func (f *Function) Blocks() []Block { return f.blocks }

// NumInsts returns the size of the instruction arena.
func (f *Function) NumInsts() int { return len(f.insts) }

// NumArgs returns the size of the argument arena.
func (f *Function) NumArgs() int { return len(f.args) }

// Entry returns the entry block; ok is false for declarations.
func (f *Function) Entry() (BlockID, bool) {
	return 0, len(f.blocks) > 0
}

// Block returns the block with the given id, or nil.
func (f *Function) Block(id BlockID) *Block {
	if int(id) >= len(f.blocks) {
		return nil
	}
	return &f.blocks[id]
}

// HasBlock reports whether id names a block of f.
func (f *Function) HasBlock(id BlockID) bool { return int(id) < len(f.blocks) }

// Inst returns the instruction with the given handle, or nil.
func (f *Function) Inst(id InstID) *Inst {
	if int(id) >= len(f.insts) {
		return nil
	}
	return &f.insts[id]
}

// Arg returns the argument with the given handle.
func (f *Function) Arg(id ArgID) (Arg, bool) {
	if int(id) >= len(f.args) {
		return Arg{}, false
	}
	return f.args[id], true
}

// AppendBlock appends a block with the given argument types.
func (f *Function) AppendBlock(argTypes ...Type) BlockID {
	id := BlockID(handle(len(f.blocks)))
	bb := Block{ID: id}
	if len(argTypes) > 0 {
		bb.Args = make([]ArgID, len(argTypes))
		for i, t := range argTypes {
			bb.Args[i] = ArgID(handle(len(f.args)))
			f.args = append(f.args, Arg{Block: id, Type: t})
		}
	}
	f.blocks = append(f.blocks, bb)
	return id
}

// BlockArgs returns the argument values of a block.
func (f *Function) BlockArgs(id BlockID) []Value {
	bb := f.Block(id)
	if bb == nil {
		return nil
	}
	vals := make([]Value, len(bb.Args))
	for i, a := range bb.Args {
		vals[i] = argValue(a, f.args[a].Type)
	}
	return vals
}

// Result returns the value produced by an instruction.
func (f *Function) Result(id InstID) (Value, bool) {
	inst := f.Inst(id)
	if inst == nil || !inst.Kind().HasResult() {
		return Value{}, false
	}
	return resultValue(id, inst.Type), true
}

// Terminator returns the last instruction of a block if it is a terminator.
func (f *Function) Terminator(id BlockID) (*Inst, bool) {
	bb := f.Block(id)
	if bb == nil || len(bb.Insts) == 0 {
		return nil, false
	}
	last := f.Inst(bb.Insts[len(bb.Insts)-1])
	return last, last.Kind().IsTerminator()
}

// AppendInst appends an instruction to the end of block bb and returns its
// result (the zero Value when the kind has no result). Appending after a
// terminator panics. Callers outside this package normally go through
// Builder, which also checks operand shapes.
func (f *Function) AppendInst(bb BlockID, data InstData, result Type) Value {
	blk := f.Block(bb)
	if blk == nil {
		panic(fmt.Sprintf("vil: %s: block bb%d does not exist", f.Name, bb))
	}
	if _, terminated := f.Terminator(bb); terminated {
		panic(fmt.Sprintf("vil: %s: %s appended after the terminator of bb%d", f.Name, data.Kind(), bb))
	}
	if !data.Kind().HasResult() {
		result = Type{}
	}
	id := InstID(handle(len(f.insts)))
	f.insts = append(f.insts, Inst{Block: bb, Type: result, Data: data})
	blk = f.Block(bb)
	blk.Insts = append(blk.Insts, id)
	if !data.Kind().HasResult() {
		return Value{}
	}
	return resultValue(id, result)
}

func handle(n int) uint32 {
	h, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("vil: arena overflow: %w", err))
	}
	return h
}
