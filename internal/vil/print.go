package vil

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"val/internal/types"
)

// DumpOptions configures module dumping.
type DumpOptions struct {
	// ModuleHeader prints a `// module <name>` line first.
	ModuleHeader bool
	// Jobs bounds the number of functions printed concurrently; values below
	// one print sequentially.
	Jobs int
}

// Dump returns the textual form of m without a module header.
func Dump(m *Module) string {
	var sb strings.Builder
	_ = DumpModule(&sb, m, DumpOptions{})
	return sb.String()
}

// DumpModule writes a human-readable representation of m.
//
// Functions are printed in ascending name order. Value numbers are assigned
// the first time a value is printed and restart for every function, so the
// output depends only on the structure of m.
func DumpModule(w io.Writer, m *Module, opts DumpOptions) error {
	if w == nil || m == nil {
		return nil
	}

	fns := m.SortedFunctions()
	bufs := make([]bytes.Buffer, len(fns))

	var g errgroup.Group
	g.SetLimit(max(opts.Jobs, 1))
	for i, f := range fns {
		g.Go(func() error {
			return dumpFunction(&bufs[i], m.Types, f)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if opts.ModuleHeader {
		if _, err := fmt.Fprintf(w, "// module %s\n", m.Name); err != nil {
			return err
		}
	}
	for i := range bufs {
		if _, err := bufs[i].WriteTo(w); err != nil {
			return err
		}
	}
	for _, wt := range m.WitnessTables {
		if err := dumpWitnessTable(w, wt); err != nil {
			return err
		}
	}
	return nil
}

func dumpFunction(buf *bytes.Buffer, in *types.Interner, f *Function) error {
	if f.DebugName != "" {
		fmt.Fprintf(buf, "// %s\n", f.DebugName)
	}
	fmt.Fprintf(buf, "vilfun %s : %s", f.Name, f.Type.Format(in))
	if f.IsDeclaration() {
		buf.WriteString("\n\n")
		return nil
	}
	buf.WriteString(" {\n")
	p := &printContext{
		buf:         buf,
		in:          in,
		fn:          f,
		atLineStart: true,
		ids:         make(map[ValueKey]int),
	}
	for i := range f.blocks {
		if err := p.dumpBlock(&f.blocks[i]); err != nil {
			return fmt.Errorf("vil: dump %s: %w", f.Name, err)
		}
	}
	buf.WriteString("}\n\n")
	return nil
}

func dumpWitnessTable(w io.Writer, wt *WitnessTable) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "witness_table %s {\n", wt.Name)
	for _, e := range wt.Entries {
		fmt.Fprintf(&sb, "  %s: @%s\n", e.Requirement, e.Function)
	}
	sb.WriteString("}\n\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// printContext holds the numbering and indentation state of one function.
type printContext struct {
	buf         *bytes.Buffer
	in          *types.Interner
	fn          *Function
	atLineStart bool
	indent      int
	nextID      int
	ids         map[ValueKey]int
}

func (p *printContext) valueID(v Value) int {
	k := v.Key()
	if id, ok := p.ids[k]; ok {
		return id
	}
	id := p.nextID
	p.nextID++
	p.ids[k] = id
	return id
}

// write emits s, indenting every line that starts inside a block body.
func (p *printContext) write(s string) {
	if s == "" {
		return
	}
	if p.indent == 0 {
		p.buf.WriteString(s)
		return
	}
	pad := strings.Repeat("  ", p.indent)
	lines := strings.Split(s, "\n")
	if p.atLineStart {
		p.buf.WriteString(pad)
	}
	p.buf.WriteString(lines[0])
	for _, line := range lines[1:] {
		p.buf.WriteByte('\n')
		if line != "" {
			p.buf.WriteString(pad)
			p.buf.WriteString(line)
		}
	}
	p.atLineStart = strings.HasSuffix(s, "\n")
}

func (p *printContext) value(v Value) {
	if lit, ok := v.Literal(); ok {
		p.write(lit.String() + " : " + v.Type().Format(p.in))
		return
	}
	p.write("_" + strconv.Itoa(p.valueID(v)) + " : " + v.Type().Format(p.in))
}

func (p *printContext) values(vs []Value) {
	for i, v := range vs {
		if i > 0 {
			p.write(", ")
		}
		p.value(v)
	}
}

func (p *printContext) result(id InstID, inst *Inst) {
	v := resultValue(id, inst.Type)
	p.write("_" + strconv.Itoa(p.valueID(v)) + " = " + inst.Kind().String() + " ")
}

func (p *printContext) dumpBlock(bb *Block) error {
	p.write("bb" + strconv.FormatUint(uint64(bb.ID), 10) + "(")
	p.values(p.fn.BlockArgs(bb.ID))
	p.write("):\n")

	p.indent++
	defer func() { p.indent-- }()
	for _, id := range bb.Insts {
		inst := p.fn.Inst(id)
		if inst == nil {
			return fmt.Errorf("bb%d: dangling instruction %d", bb.ID, id)
		}
		inst.Accept(id, p)
	}
	return nil
}

func (p *printContext) label(bb BlockID) string {
	return "bb" + strconv.FormatUint(uint64(bb), 10)
}

func (p *printContext) VisitAllocStack(id InstID, inst *Inst, d *AllocStack) {
	p.result(id, inst)
	p.write(Object(d.Allocated).Format(p.in) + "\n")
}

func (p *printContext) VisitAllocExistential(id InstID, inst *Inst, d *AllocExistential) {
	p.result(id, inst)
	p.value(d.Container)
	p.write(", " + d.Witness + "\n")
}

func (p *printContext) VisitOpenExistential(id InstID, inst *Inst, d *OpenExistential) {
	p.result(id, inst)
	p.value(d.Container)
	p.write(" as " + inst.Type.Format(p.in) + "\n")
}

func (p *printContext) VisitOpenExistentialAddr(id InstID, inst *Inst, d *OpenExistentialAddr) {
	p.result(id, inst)
	p.value(d.Container)
	p.write(" as " + inst.Type.Format(p.in) + "\n")
}

func (p *printContext) VisitCopyAddr(_ InstID, _ *Inst, d *CopyAddr) {
	p.write("copy_addr ")
	p.value(d.Source)
	p.write(" to ")
	p.value(d.Dest)
	p.write("\n")
}

func (p *printContext) VisitUnsafeCastAddr(id InstID, inst *Inst, d *UnsafeCastAddr) {
	p.result(id, inst)
	p.value(d.Source)
	p.write(" as " + inst.Type.Format(p.in) + "\n")
}

func (p *printContext) VisitCheckedCastAddr(id InstID, inst *Inst, d *CheckedCastAddr) {
	p.result(id, inst)
	p.value(d.Source)
	p.write(" as " + inst.Type.Format(p.in) + "\n")
}

func (p *printContext) VisitWitnessMethod(id InstID, inst *Inst, d *WitnessMethod) {
	p.result(id, inst)
	p.value(d.Container)
	p.write(", " + d.Requirement.String() + "\n")
}

func (p *printContext) VisitApply(id InstID, inst *Inst, d *Apply) {
	p.result(id, inst)
	p.value(d.Fun)
	p.write(" to (")
	p.values(d.Args)
	p.write(")\n")
}

func (p *printContext) VisitRecordMember(id InstID, inst *Inst, d *RecordMember) {
	p.result(id, inst)
	p.value(d.Record)
	p.write(", " + d.Member.String() + "\n")
}

func (p *printContext) VisitRecordMemberAddr(id InstID, inst *Inst, d *RecordMemberAddr) {
	p.result(id, inst)
	p.value(d.Record)
	p.write(", " + d.Member.String() + "\n")
}

func (p *printContext) VisitTuple(id InstID, inst *Inst, d *Tuple) {
	p.result(id, inst)
	p.write(inst.Type.Format(p.in) + " (")
	for i, e := range d.Elems {
		if i > 0 {
			p.write(", ")
		}
		if e.Label != "" {
			p.write(e.Label + ": ")
		}
		p.value(e.Value)
	}
	p.write(")\n")
}

func (p *printContext) VisitStore(_ InstID, _ *Inst, d *Store) {
	p.write("store ")
	p.value(d.Value)
	p.write(" to ")
	p.value(d.Dest)
	p.write("\n")
}

func (p *printContext) VisitLoad(id InstID, inst *Inst, d *Load) {
	p.result(id, inst)
	p.value(d.Source)
	p.write("\n")
}

func (p *printContext) VisitEqualAddr(id InstID, inst *Inst, d *EqualAddr) {
	p.result(id, inst)
	p.value(d.LHS)
	p.write(", ")
	p.value(d.RHS)
	p.write("\n")
}

func (p *printContext) VisitBranch(_ InstID, _ *Inst, d *Branch) {
	p.write("branch " + p.label(d.Dest) + "(")
	p.values(d.Args)
	p.write(")\n")
}

func (p *printContext) VisitCondBranch(_ InstID, _ *Inst, d *CondBranch) {
	p.write("cond_branch ")
	p.value(d.Cond)
	p.write(" " + p.label(d.Then) + "(")
	p.values(d.ThenArgs)
	p.write(") " + p.label(d.Else) + "(")
	p.values(d.ElseArgs)
	p.write(")\n")
}

func (p *printContext) VisitRet(_ InstID, _ *Inst, d *Ret) {
	p.write("ret ")
	p.value(d.Value)
	p.write("\n")
}

func (p *printContext) VisitHalt(_ InstID, _ *Inst, d *Halt) {
	p.write("halt " + strconv.Quote(d.Reason) + "\n")
}
