package vil

import (
	"errors"
	"fmt"

	"val/internal/types"
)

// Validate checks the invariants consumers of a module rely on:
//   - every block ends with exactly one terminator and has none elsewhere;
//   - operands refer to existing values of the function with their recorded types;
//   - address-typed values appear only where an address operand is expected;
//   - branch targets exist and receive arguments matching their parameters.
//
// It returns all violations joined together, or nil.
func Validate(m *Module) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, f := range m.SortedFunctions() {
		if f.Name == "" {
			errs = append(errs, errors.New("function with an empty name"))
			continue
		}
		if err := validateFunction(m.Types, f); err != nil {
			errs = append(errs, fmt.Errorf("function %s: %w", f.Name, err))
		}
	}
	return errors.Join(errs...)
}

func validateFunction(in *types.Interner, f *Function) error {
	var errs []error
	for i := range f.blocks {
		bb := &f.blocks[i]
		if err := validateTerminator(f, bb); err != nil {
			errs = append(errs, err)
		}
		for _, id := range bb.Insts {
			inst := f.Inst(id)
			if inst == nil {
				errs = append(errs, fmt.Errorf("bb%d: dangling instruction %d", bb.ID, id))
				continue
			}
			if inst.Block != bb.ID {
				errs = append(errs, fmt.Errorf("bb%d: instruction %d is owned by bb%d", bb.ID, id, inst.Block))
			}
			v := &instValidator{in: in, fn: f, bb: bb.ID}
			inst.Accept(id, v)
			errs = append(errs, v.errs...)
		}
	}
	return errors.Join(errs...)
}

func validateTerminator(f *Function, bb *Block) error {
	if len(bb.Insts) == 0 {
		return fmt.Errorf("bb%d: empty block", bb.ID)
	}
	for i, id := range bb.Insts {
		inst := f.Inst(id)
		if inst == nil {
			continue
		}
		last := i == len(bb.Insts)-1
		switch {
		case last && !inst.Kind().IsTerminator():
			return fmt.Errorf("bb%d: not terminated (last instruction is %s)", bb.ID, inst.Kind())
		case !last && inst.Kind().IsTerminator():
			return fmt.Errorf("bb%d: %s in the middle of the block", bb.ID, inst.Kind())
		}
	}
	return nil
}

// instValidator checks the operands of one instruction.
type instValidator struct {
	in   *types.Interner
	fn   *Function
	bb   BlockID
	errs []error
}

func (v *instValidator) fail(k InstKind, format string, args ...any) {
	v.errs = append(v.errs, fmt.Errorf("bb%d: %s: %s", v.bb, k, fmt.Sprintf(format, args...)))
}

// defined checks that a non-literal value names a live handle of the
// function with the type it was created with.
func (v *instValidator) defined(k InstKind, val Value) bool {
	switch val.Kind() {
	case ValueLiteral:
		return true
	case ValueResult:
		id, _ := val.Inst()
		inst := v.fn.Inst(id)
		if inst == nil || !inst.Kind().HasResult() {
			v.fail(k, "operand refers to missing result %d", id)
			return false
		}
		if inst.Type != val.Type() {
			v.fail(k, "operand type of result %d changed", id)
			return false
		}
		return true
	case ValueArg:
		id, _ := val.Arg()
		arg, ok := v.fn.Arg(id)
		if !ok {
			v.fail(k, "operand refers to missing argument %d", id)
			return false
		}
		if arg.Type != val.Type() {
			v.fail(k, "operand type of argument %d changed", id)
			return false
		}
		return true
	default:
		v.fail(k, "invalid operand")
		return false
	}
}

func (v *instValidator) addr(k InstKind, vals ...Value) {
	for _, val := range vals {
		if v.defined(k, val) && !val.Type().IsAddress() {
			v.fail(k, "expected an address operand, got %s", val.Type().Format(v.in))
		}
	}
}

func (v *instValidator) obj(k InstKind, vals ...Value) {
	for _, val := range vals {
		if v.defined(k, val) && val.Type().IsAddress() {
			v.fail(k, "unexpected address operand %s", val.Type().Format(v.in))
		}
	}
}

func (v *instValidator) target(k InstKind, dest BlockID, args []Value) {
	bb := v.fn.Block(dest)
	if bb == nil {
		v.fail(k, "target bb%d does not exist", dest)
		return
	}
	if len(bb.Args) != len(args) {
		v.fail(k, "bb%d expects %d arguments, got %d", dest, len(bb.Args), len(args))
		return
	}
	for i, a := range bb.Args {
		want := v.fn.args[a].Type
		if got := args[i].Type(); got != want {
			v.fail(k, "bb%d argument %d: expected %s, got %s", dest, i, want.Format(v.in), got.Format(v.in))
		}
	}
}

func (v *instValidator) VisitAllocStack(_ InstID, inst *Inst, d *AllocStack) {
	if inst.Type != Address(d.Allocated) {
		v.fail(InstAllocStack, "result must be the address of the allocated type")
	}
}

func (v *instValidator) VisitAllocExistential(_ InstID, _ *Inst, d *AllocExistential) {
	v.addr(InstAllocExistential, d.Container)
	if d.Witness == "" {
		v.fail(InstAllocExistential, "missing witness")
	}
}

func (v *instValidator) VisitOpenExistential(_ InstID, _ *Inst, d *OpenExistential) {
	v.obj(InstOpenExistential, d.Container)
}

func (v *instValidator) VisitOpenExistentialAddr(_ InstID, inst *Inst, d *OpenExistentialAddr) {
	v.addr(InstOpenExistentialAddr, d.Container)
	if !inst.Type.IsAddress() {
		v.fail(InstOpenExistentialAddr, "result must be an address")
	}
}

func (v *instValidator) VisitCopyAddr(_ InstID, _ *Inst, d *CopyAddr) {
	v.addr(InstCopyAddr, d.Source, d.Dest)
}

func (v *instValidator) VisitUnsafeCastAddr(_ InstID, _ *Inst, d *UnsafeCastAddr) {
	v.addr(InstUnsafeCastAddr, d.Source)
}

func (v *instValidator) VisitCheckedCastAddr(_ InstID, _ *Inst, d *CheckedCastAddr) {
	v.addr(InstCheckedCastAddr, d.Source)
}

func (v *instValidator) VisitWitnessMethod(_ InstID, _ *Inst, d *WitnessMethod) {
	v.addr(InstWitnessMethod, d.Container)
}

func (v *instValidator) VisitApply(_ InstID, _ *Inst, d *Apply) {
	v.obj(InstApply, d.Fun)
	params, ok := v.in.FunParams(d.Fun.Type().Source())
	if !ok {
		v.fail(InstApply, "callee of type %s is not a function", d.Fun.Type().Format(v.in))
		return
	}
	if len(params) != len(d.Args) {
		v.fail(InstApply, "expected %d arguments, got %d", len(params), len(d.Args))
		return
	}
	for i, p := range params {
		if Lower(v.in, p).IsAddress() {
			v.addr(InstApply, d.Args[i])
		} else {
			v.obj(InstApply, d.Args[i])
		}
	}
}

func (v *instValidator) VisitRecordMember(_ InstID, _ *Inst, d *RecordMember) {
	v.obj(InstRecordMember, d.Record)
}

func (v *instValidator) VisitRecordMemberAddr(_ InstID, _ *Inst, d *RecordMemberAddr) {
	v.addr(InstRecordMemberAddr, d.Record)
}

func (v *instValidator) VisitTuple(_ InstID, _ *Inst, d *Tuple) {
	for _, e := range d.Elems {
		v.obj(InstTuple, e.Value)
	}
}

func (v *instValidator) VisitStore(_ InstID, _ *Inst, d *Store) {
	v.obj(InstStore, d.Value)
	v.addr(InstStore, d.Dest)
}

func (v *instValidator) VisitLoad(_ InstID, inst *Inst, d *Load) {
	v.addr(InstLoad, d.Source)
	if inst.Type != d.Source.Type().ObjectType() {
		v.fail(InstLoad, "result must be the object type of the source")
	}
}

func (v *instValidator) VisitEqualAddr(_ InstID, _ *Inst, d *EqualAddr) {
	v.addr(InstEqualAddr, d.LHS, d.RHS)
}

func (v *instValidator) VisitBranch(_ InstID, _ *Inst, d *Branch) {
	v.obj(InstBranch, d.Args...)
	v.target(InstBranch, d.Dest, d.Args)
}

func (v *instValidator) VisitCondBranch(_ InstID, _ *Inst, d *CondBranch) {
	v.obj(InstCondBranch, d.Cond)
	v.obj(InstCondBranch, d.ThenArgs...)
	v.obj(InstCondBranch, d.ElseArgs...)
	v.target(InstCondBranch, d.Then, d.ThenArgs)
	v.target(InstCondBranch, d.Else, d.ElseArgs)
}

func (v *instValidator) VisitRet(_ InstID, _ *Inst, d *Ret) {
	v.obj(InstRet, d.Value)
}

func (v *instValidator) VisitHalt(InstID, *Inst, *Halt) {}
