package testkit

import (
	"fmt"

	"val/internal/vil"
)

// CheckVILInvariants runs the structural checks every emitted module must
// pass:
// 1) vil.Validate (terminators, address discipline, branch arguments)
// 2) every record_member operand is an object and every record_member_addr
// operand an address
// 3) a result used in its own block is defined before the use
// 4) every function name is unique and matches its map key
func CheckVILInvariants(m *vil.Module) error {
	if m == nil {
		return fmt.Errorf("nil module")
	}
	if err := vil.Validate(m); err != nil {
		return err
	}
	for name, f := range m.Functions {
		if f.Name != name {
			return fmt.Errorf("function %q is registered as %q", f.Name, name)
		}
		for _, bb := range f.Blocks() {
			defined := make(map[vil.InstID]bool, len(bb.Insts))
			for _, id := range bb.Insts {
				inst := f.Inst(id)
				if err := checkMemberAccess(inst); err != nil {
					return fmt.Errorf("%s bb%d: %w", f.Name, bb.ID, err)
				}
				for _, op := range vil.Operands(inst) {
					use, ok := op.Value.Inst()
					if !ok || f.Inst(use).Block != bb.ID {
						continue
					}
					if !defined[use] {
						return fmt.Errorf("%s bb%d: %s uses a result defined later in the block", f.Name, bb.ID, inst.Kind())
					}
				}
				defined[id] = true
			}
		}
	}
	return nil
}

func checkMemberAccess(inst *vil.Inst) error {
	switch d := inst.Data.(type) {
	case vil.RecordMember:
		if d.Record.Type().IsAddress() {
			return fmt.Errorf("record_member on an address")
		}
	case vil.RecordMemberAddr:
		if !d.Record.Type().IsAddress() {
			return fmt.Errorf("record_member_addr on an object")
		}
	}
	return nil
}
