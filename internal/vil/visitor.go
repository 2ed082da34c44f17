package vil

import "fmt"

// InstVisitor has one method per instruction kind. Implementations are forced
// by the compiler to handle every kind; Accept dispatches to them.
type InstVisitor interface {
	VisitAllocStack(id InstID, inst *Inst, d *AllocStack)
	VisitAllocExistential(id InstID, inst *Inst, d *AllocExistential)
	VisitOpenExistential(id InstID, inst *Inst, d *OpenExistential)
	VisitOpenExistentialAddr(id InstID, inst *Inst, d *OpenExistentialAddr)
	VisitCopyAddr(id InstID, inst *Inst, d *CopyAddr)
	VisitUnsafeCastAddr(id InstID, inst *Inst, d *UnsafeCastAddr)
	VisitCheckedCastAddr(id InstID, inst *Inst, d *CheckedCastAddr)
	VisitWitnessMethod(id InstID, inst *Inst, d *WitnessMethod)
	VisitApply(id InstID, inst *Inst, d *Apply)
	VisitRecordMember(id InstID, inst *Inst, d *RecordMember)
	VisitRecordMemberAddr(id InstID, inst *Inst, d *RecordMemberAddr)
	VisitTuple(id InstID, inst *Inst, d *Tuple)
	VisitStore(id InstID, inst *Inst, d *Store)
	VisitLoad(id InstID, inst *Inst, d *Load)
	VisitEqualAddr(id InstID, inst *Inst, d *EqualAddr)
	VisitBranch(id InstID, inst *Inst, d *Branch)
	VisitCondBranch(id InstID, inst *Inst, d *CondBranch)
	VisitRet(id InstID, inst *Inst, d *Ret)
	VisitHalt(id InstID, inst *Inst, d *Halt)
}

// Accept dispatches inst to the matching method of v.
func (i *Inst) Accept(id InstID, v InstVisitor) {
	switch d := i.Data.(type) {
	case AllocStack:
		v.VisitAllocStack(id, i, &d)
	case AllocExistential:
		v.VisitAllocExistential(id, i, &d)
	case OpenExistential:
		v.VisitOpenExistential(id, i, &d)
	case OpenExistentialAddr:
		v.VisitOpenExistentialAddr(id, i, &d)
	case CopyAddr:
		v.VisitCopyAddr(id, i, &d)
	case UnsafeCastAddr:
		v.VisitUnsafeCastAddr(id, i, &d)
	case CheckedCastAddr:
		v.VisitCheckedCastAddr(id, i, &d)
	case WitnessMethod:
		v.VisitWitnessMethod(id, i, &d)
	case Apply:
		v.VisitApply(id, i, &d)
	case RecordMember:
		v.VisitRecordMember(id, i, &d)
	case RecordMemberAddr:
		v.VisitRecordMemberAddr(id, i, &d)
	case Tuple:
		v.VisitTuple(id, i, &d)
	case Store:
		v.VisitStore(id, i, &d)
	case Load:
		v.VisitLoad(id, i, &d)
	case EqualAddr:
		v.VisitEqualAddr(id, i, &d)
	case Branch:
		v.VisitBranch(id, i, &d)
	case CondBranch:
		v.VisitCondBranch(id, i, &d)
	case Ret:
		v.VisitRet(id, i, &d)
	case Halt:
		v.VisitHalt(id, i, &d)
	default:
		panic(fmt.Sprintf("vil: unknown instruction payload %T", i.Data))
	}
}

// Operand is a value used by an instruction together with whether the
// instruction expects an address in that position.
type Operand struct {
	Value   Value
	Address bool
}

// Operands returns the value operands of inst in print order.
func Operands(inst *Inst) []Operand {
	c := operandCollector{}
	inst.Accept(0, &c)
	return c.ops
}

type operandCollector struct {
	ops []Operand
}

func (c *operandCollector) obj(vs ...Value) {
	for _, v := range vs {
		c.ops = append(c.ops, Operand{Value: v})
	}
}

func (c *operandCollector) addr(vs ...Value) {
	for _, v := range vs {
		c.ops = append(c.ops, Operand{Value: v, Address: true})
	}
}

func (c *operandCollector) VisitAllocStack(InstID, *Inst, *AllocStack) {}
func (c *operandCollector) VisitAllocExistential(_ InstID, _ *Inst, d *AllocExistential) {
	c.addr(d.Container)
}
func (c *operandCollector) VisitOpenExistential(_ InstID, _ *Inst, d *OpenExistential) {
	c.obj(d.Container)
}
func (c *operandCollector) VisitOpenExistentialAddr(_ InstID, _ *Inst, d *OpenExistentialAddr) {
	c.addr(d.Container)
}
func (c *operandCollector) VisitCopyAddr(_ InstID, _ *Inst, d *CopyAddr) {
	c.addr(d.Source, d.Dest)
}
func (c *operandCollector) VisitUnsafeCastAddr(_ InstID, _ *Inst, d *UnsafeCastAddr) {
	c.addr(d.Source)
}
func (c *operandCollector) VisitCheckedCastAddr(_ InstID, _ *Inst, d *CheckedCastAddr) {
	c.addr(d.Source)
}
func (c *operandCollector) VisitWitnessMethod(_ InstID, _ *Inst, d *WitnessMethod) {
	c.addr(d.Container)
}

// Arguments of apply may be addresses: inout parameters are passed by address.
func (c *operandCollector) VisitApply(_ InstID, _ *Inst, d *Apply) {
	c.obj(d.Fun)
	for _, a := range d.Args {
		c.ops = append(c.ops, Operand{Value: a, Address: a.Type().IsAddress()})
	}
}
func (c *operandCollector) VisitRecordMember(_ InstID, _ *Inst, d *RecordMember) {
	c.obj(d.Record)
}
func (c *operandCollector) VisitRecordMemberAddr(_ InstID, _ *Inst, d *RecordMemberAddr) {
	c.addr(d.Record)
}
func (c *operandCollector) VisitTuple(_ InstID, _ *Inst, d *Tuple) {
	for _, e := range d.Elems {
		c.obj(e.Value)
	}
}
func (c *operandCollector) VisitStore(_ InstID, _ *Inst, d *Store) {
	c.obj(d.Value)
	c.addr(d.Dest)
}
func (c *operandCollector) VisitLoad(_ InstID, _ *Inst, d *Load) {
	c.addr(d.Source)
}
func (c *operandCollector) VisitEqualAddr(_ InstID, _ *Inst, d *EqualAddr) {
	c.addr(d.LHS, d.RHS)
}
func (c *operandCollector) VisitBranch(_ InstID, _ *Inst, d *Branch) {
	c.obj(d.Args...)
}
func (c *operandCollector) VisitCondBranch(_ InstID, _ *Inst, d *CondBranch) {
	c.obj(d.Cond)
	c.obj(d.ThenArgs...)
	c.obj(d.ElseArgs...)
}
func (c *operandCollector) VisitRet(_ InstID, _ *Inst, d *Ret) {
	c.obj(d.Value)
}
func (c *operandCollector) VisitHalt(InstID, *Inst, *Halt) {}
